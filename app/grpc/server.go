package grpc

import (
	"context"
	"errors"

	"github.com/codetrust-ai/codetrust-api/app/service"
	"github.com/codetrust-ai/codetrust-api/app/types"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type AuthServer struct {
	resetService    service.PasswordResetService
	userAuthService service.UserAuthService
}

func NewAuthServer(resetService service.PasswordResetService, userAuthService service.UserAuthService) *AuthServer {
	return &AuthServer{
		resetService:    resetService,
		userAuthService: userAuthService,
	}
}

func (s *AuthServer) ForgotPassword(ctx context.Context, req *types.ForgotPasswordRequest) (*types.ForgotPasswordResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err := s.resetService.RequestReset(ctx, req.Email); err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return nil, status.Error(codes.InvalidArgument, "email is required")
		}
		logrus.WithError(err).Error("Forgot password failed (grpc)")
		return nil, status.Error(codes.Internal, "internal server error")
	}

	return &types.ForgotPasswordResponse{Message: types.ForgotPasswordMessage}, nil
}

func (s *AuthServer) ResetPassword(ctx context.Context, req *types.ResetPasswordRequest) (*types.ResetPasswordResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	err := s.resetService.ResetPassword(ctx, req.Token, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken),
			errors.Is(err, service.ErrTokenExpired),
			errors.Is(err, service.ErrWeakPassword),
			errors.Is(err, service.ErrInvalidInput):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		case errors.Is(err, service.ErrAccountNotFound):
			logrus.WithError(err).Error("Reset password failed: account for token no longer exists (grpc)")
			return nil, status.Error(codes.NotFound, "associated user account not found")
		}
		logrus.WithError(err).Error("Reset password failed (grpc)")
		return nil, status.Error(codes.Internal, "internal server error")
	}

	return &types.ResetPasswordResponse{Message: types.ResetPasswordMessage}, nil
}

func (s *AuthServer) Login(ctx context.Context, req *types.LoginRequest) (*types.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Login validation failed (grpc)")
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	result, err := s.userAuthService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			logrus.WithField("email", req.Email).Warn("Login failed: invalid credentials (grpc)")
			return nil, status.Error(codes.Unauthenticated, service.ErrInvalidCredentials.Error())
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Login failed (grpc)")
		return nil, status.Error(codes.Internal, "internal server error")
	}

	logrus.WithField("user_id", result.User.ID).Info("Login successful (grpc)")
	return &types.LoginResponse{
		AccessToken: result.Token,
		ExpiresIn:   result.ExpiresIn,
		UserID:      result.User.ID,
		Email:       result.User.Email,
	}, nil
}
