package controller

import (
	"errors"
	"net/http"

	httpdto "github.com/codetrust-ai/codetrust-api/app/dto/http"
	"github.com/codetrust-ai/codetrust-api/app/service"
	"github.com/codetrust-ai/codetrust-api/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type PasswordResetController struct {
	resetService service.PasswordResetService
}

func NewPasswordResetController(resetService service.PasswordResetService) *PasswordResetController {
	return &PasswordResetController{resetService: resetService}
}

func (c *PasswordResetController) ForgotPassword(ctx echo.Context) error {
	req, err := types.NewForgotPasswordRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind forgot password request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	if err = c.resetService.RequestReset(ctx.Request().Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "email is required"})
		}
		logrus.WithError(err).Error("Forgot password failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, types.ForgotPasswordResponse{Message: types.ForgotPasswordMessage})
}

func (c *PasswordResetController) ResetPassword(ctx echo.Context) error {
	req, err := types.NewResetPasswordRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind reset password request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	err = c.resetService.ResetPassword(ctx.Request().Context(), req.Token, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken):
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: service.ErrInvalidToken.Error()})
		case errors.Is(err, service.ErrTokenExpired):
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: service.ErrTokenExpired.Error()})
		case errors.Is(err, service.ErrWeakPassword), errors.Is(err, service.ErrInvalidInput):
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, service.ErrAccountNotFound):
			logrus.WithError(err).Error("Reset password failed: account for token no longer exists")
			return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: "associated user account not found"})
		}
		logrus.WithError(err).Error("Reset password failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, types.ResetPasswordResponse{Message: types.ResetPasswordMessage})
}
