package middleware

import (
	"net/http"
	"strings"

	"github.com/codetrust-ai/codetrust-api/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const ContextKeySession = "session"

type sessionParser interface {
	Parse(tokenString string) (*service.Session, error)
}

type SessionMiddleware struct {
	sessions   sessionParser
	cookieName string
}

func NewSessionMiddleware(sessions sessionParser, cookieName string) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions, cookieName: cookieName}
}

// Resolve attaches the caller's session to the context when the request
// carries a valid one. It never rejects a request.
func (m *SessionMiddleware) Resolve(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString := m.tokenFromRequest(c)
		if tokenString == "" {
			return next(c)
		}

		session, err := m.sessions.Parse(tokenString)
		if err != nil {
			logrus.Debug("Ignoring invalid or expired session")
			return next(c)
		}

		c.Set(ContextKeySession, session)
		return next(c)
	}
}

func (m *SessionMiddleware) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := SessionFromContext(c); !ok {
			logrus.Debug("Missing or invalid session")
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "authentication required",
			})
		}
		return next(c)
	}
}

func (m *SessionMiddleware) tokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie(m.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	parts := strings.Fields(c.Request().Header.Get("Authorization"))
	if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
		return parts[1]
	}
	return ""
}

func SessionFromContext(c echo.Context) (*service.Session, bool) {
	session, ok := c.Get(ContextKeySession).(*service.Session)
	return session, ok && session != nil
}
