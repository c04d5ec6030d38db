package controller

import (
	"net/http"
	"time"

	"github.com/codetrust-ai/codetrust-api/config"

	"github.com/labstack/echo/v4"
)

const (
	oauthStateCookie = "codetrust_oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

func setSessionCookie(ctx echo.Context, cfg config.SessionConfig, token string, expiresAt time.Time) {
	ctx.SetCookie(&http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(ctx echo.Context, cfg config.SessionConfig) {
	ctx.SetCookie(&http.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func setStateCookie(ctx echo.Context, cfg config.SessionConfig, state string) {
	ctx.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth/callback",
		MaxAge:   int(oauthStateTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearStateCookie(ctx echo.Context, cfg config.SessionConfig) {
	ctx.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/api/auth/callback",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
