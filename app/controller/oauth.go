package controller

import (
	"crypto/subtle"
	"errors"
	"net/http"

	httpdto "github.com/codetrust-ai/codetrust-api/app/dto/http"
	"github.com/codetrust-ai/codetrust-api/app/oauth"
	"github.com/codetrust-ai/codetrust-api/app/service"
	"github.com/codetrust-ai/codetrust-api/config"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const DashboardPath = "/dashboard"

type providerRegistry interface {
	Get(name string) (*oauth.Provider, error)
}

type OAuthController struct {
	providers       providerRegistry
	userAuthService service.UserAuthService
	sessionCfg      config.SessionConfig
	newState        func() (string, error)
}

func NewOAuthController(providers providerRegistry, userAuthService service.UserAuthService, sessionCfg config.SessionConfig) *OAuthController {
	return &OAuthController{
		providers:       providers,
		userAuthService: userAuthService,
		sessionCfg:      sessionCfg,
		newState:        oauth.NewState,
	}
}

func (c *OAuthController) SignIn(ctx echo.Context) error {
	provider, err := c.providers.Get(ctx.Param("provider"))
	if err != nil {
		return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: "unknown provider"})
	}

	state, err := c.newState()
	if err != nil {
		logrus.WithError(err).Error("Failed to generate oauth state")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}
	setStateCookie(ctx, c.sessionCfg, state)

	return ctx.Redirect(http.StatusFound, provider.AuthCodeURL(state))
}

func (c *OAuthController) Callback(ctx echo.Context) error {
	provider, err := c.providers.Get(ctx.Param("provider"))
	if err != nil {
		return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: "unknown provider"})
	}

	state := ctx.QueryParam("state")
	cookie, err := ctx.Cookie(oauthStateCookie)
	clearStateCookie(ctx, c.sessionCfg)
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
		logrus.WithField("provider", provider.Name()).Warn("OAuth callback rejected: state mismatch")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid oauth state"})
	}

	code := ctx.QueryParam("code")
	if code == "" {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "authorization code is required"})
	}

	identity, err := provider.Exchange(ctx.Request().Context(), code)
	if err != nil {
		logrus.WithError(err).WithField("provider", provider.Name()).Warn("OAuth exchange failed")
		return ctx.JSON(http.StatusBadGateway, httpdto.ErrorResponse{Error: "sign-in with provider failed"})
	}

	return c.completeSignIn(ctx, identity)
}

func (c *OAuthController) completeSignIn(ctx echo.Context, identity *oauth.Identity) error {
	user, err := c.userAuthService.FederatedLogin(ctx.Request().Context(), identity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnverifiedEmail):
			return ctx.JSON(http.StatusForbidden, httpdto.ErrorResponse{Error: service.ErrUnverifiedEmail.Error()})
		case errors.Is(err, service.ErrInvalidInput):
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
		}
		logrus.WithError(err).WithField("provider", identity.Provider).Error("Federated login failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	result, err := c.userAuthService.IssueSession(user)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Failed to issue session after federated login")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}
	setSessionCookie(ctx, c.sessionCfg, result.Token, result.ExpiresAt)

	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"provider": identity.Provider,
	}).Info("Federated login successful")
	return ctx.Redirect(http.StatusFound, DashboardPath)
}
