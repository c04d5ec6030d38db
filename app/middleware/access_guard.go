package middleware

import (
	"net/http"

	"github.com/codetrust-ai/codetrust-api/app/guard"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// AccessGuard applies the guard decision for the request path. It must run
// after SessionMiddleware.Resolve.
func AccessGuard(g *guard.Guard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			_, hasSession := SessionFromContext(c)
			decision := g.Decide(c.Request().URL.Path, hasSession)
			if decision.Action == guard.Redirect {
				logrus.WithField("path", c.Request().URL.Path).Debug("Redirecting unauthenticated request to login")
				return c.Redirect(http.StatusFound, decision.Location)
			}
			return next(c)
		}
	}
}
