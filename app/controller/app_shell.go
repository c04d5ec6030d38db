package controller

import (
	"net/http"
	"strings"

	httpdto "github.com/codetrust-ai/codetrust-api/app/dto/http"
	"github.com/codetrust-ai/codetrust-api/app/middleware"

	"github.com/labstack/echo/v4"
)

// AppShellController serves the minimal JSON shell for the signed-in app
// pages. The pages sit behind the access guard.
type AppShellController struct{}

func NewAppShellController() *AppShellController {
	return &AppShellController{}
}

func (c *AppShellController) Page(ctx echo.Context) error {
	session, ok := middleware.SessionFromContext(ctx)
	if !ok {
		return ctx.Redirect(http.StatusFound, "/login")
	}

	return ctx.JSON(http.StatusOK, httpdto.PageResponse{
		Page:   strings.Trim(ctx.Path(), "/"),
		UserID: session.UserID,
		Email:  session.Email,
	})
}
