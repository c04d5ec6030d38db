package service

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrWeakPassword       = errors.New("password does not meet policy requirements")
	ErrInvalidToken       = errors.New("invalid or expired reset link")
	ErrTokenExpired       = errors.New("reset link has expired, please request a new one")
	ErrAccountNotFound    = errors.New("account not found")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnverifiedEmail    = errors.New("provider did not verify this email address")
	ErrInvalidSession     = errors.New("invalid session")
)
