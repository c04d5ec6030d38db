package controller

import (
	"errors"
	"net/http"

	httpdto "github.com/codetrust-ai/codetrust-api/app/dto/http"
	"github.com/codetrust-ai/codetrust-api/app/middleware"
	"github.com/codetrust-ai/codetrust-api/app/service"
	"github.com/codetrust-ai/codetrust-api/app/types"
	"github.com/codetrust-ai/codetrust-api/config"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type UserAuthController struct {
	userAuthService service.UserAuthService
	sessionCfg      config.SessionConfig
}

func NewUserAuthController(userAuthService service.UserAuthService, sessionCfg config.SessionConfig) *UserAuthController {
	return &UserAuthController{userAuthService: userAuthService, sessionCfg: sessionCfg}
}

func (c *UserAuthController) Signup(ctx echo.Context) error {
	req, err := types.NewSignupRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind signup request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Signup validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", req.Email).Info("Signup request received")
	user, err := c.userAuthService.Signup(ctx.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			logrus.WithField("email", req.Email).Warn("Signup failed: user already exists")
			return ctx.JSON(http.StatusConflict, httpdto.ErrorResponse{Error: "user already exists"})
		}
		if errors.Is(err, service.ErrWeakPassword) || errors.Is(err, service.ErrInvalidInput) {
			logrus.WithField("email", req.Email).Warn("Signup failed: invalid input")
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Signup failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	result, err := c.userAuthService.IssueSession(user)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Failed to issue session after signup")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}
	setSessionCookie(ctx, c.sessionCfg, result.Token, result.ExpiresAt)

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User signed up")

	return ctx.JSON(http.StatusCreated, httpdto.SignupResponse{User: httpdto.NewUserResponse(user)})
}

func (c *UserAuthController) Login(ctx echo.Context) error {
	req, err := types.NewLoginRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Login validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	result, err := c.userAuthService.Login(ctx.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			logrus.WithField("email", req.Email).Warn("Login failed: invalid credentials")
			return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: service.ErrInvalidCredentials.Error()})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Login failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}
	setSessionCookie(ctx, c.sessionCfg, result.Token, result.ExpiresAt)

	logrus.WithField("user_id", result.User.ID).Info("Login successful")
	return ctx.JSON(http.StatusOK, httpdto.LoginResponse{
		User:        httpdto.NewUserResponse(result.User),
		AccessToken: result.Token,
		ExpiresIn:   result.ExpiresIn,
	})
}

// Logout clears the session cookie. Sessions are stateless, so a bearer copy
// of the token stays valid until it expires.
func (c *UserAuthController) Logout(ctx echo.Context) error {
	clearSessionCookie(ctx, c.sessionCfg)
	if session, ok := middleware.SessionFromContext(ctx); ok {
		logrus.WithField("user_id", session.UserID).Info("Logout successful")
	}
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "logged out successfully"})
}

func (c *UserAuthController) Session(ctx echo.Context) error {
	session, ok := middleware.SessionFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusOK, httpdto.SessionResponse{})
	}

	user, err := c.userAuthService.GetUser(ctx.Request().Context(), session.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			clearSessionCookie(ctx, c.sessionCfg)
			return ctx.JSON(http.StatusOK, httpdto.SessionResponse{})
		}
		logrus.WithError(err).WithField("user_id", session.UserID).Error("Failed to load session user")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	resp := httpdto.NewUserResponse(user)
	expiresAt := session.ExpiresAt
	return ctx.JSON(http.StatusOK, httpdto.SessionResponse{User: &resp, ExpiresAt: &expiresAt})
}

func (c *UserAuthController) Me(ctx echo.Context) error {
	session, ok := middleware.SessionFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "authentication required"})
	}

	user, err := c.userAuthService.GetUser(ctx.Request().Context(), session.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: "user not found"})
		}
		logrus.WithError(err).WithField("user_id", session.UserID).Error("Failed to load user")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, httpdto.NewUserResponse(user))
}

func (c *UserAuthController) UpdateProfile(ctx echo.Context) error {
	session, ok := middleware.SessionFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "authentication required"})
	}

	req, err := types.NewUpdateProfileRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind update profile request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	user, err := c.userAuthService.UpdateProfile(ctx.Request().Context(), session.UserID, service.ProfileUpdate{
		Name:  req.Name,
		Email: req.Email,
		Bio:   req.Bio,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, service.ErrUserNotFound):
			return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: "user not found"})
		case errors.Is(err, service.ErrUserExists):
			logrus.WithField("user_id", session.UserID).Warn("Profile update failed: email already in use")
			return ctx.JSON(http.StatusConflict, httpdto.ErrorResponse{Error: "email already in use"})
		}
		logrus.WithError(err).WithField("user_id", session.UserID).Error("Profile update failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("user_id", user.ID).Info("Profile updated")
	return ctx.JSON(http.StatusOK, httpdto.NewUserResponse(user))
}
