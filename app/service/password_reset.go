package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/codetrust-ai/codetrust-api/app/entity"
	"github.com/codetrust-ai/codetrust-api/app/metrics"
	"github.com/codetrust-ai/codetrust-api/app/notifier"
	"github.com/codetrust-ai/codetrust-api/app/repository"
	"github.com/codetrust-ai/codetrust-api/config"

	"github.com/sirupsen/logrus"
)

const (
	resetTokenBytes = 32
	notifyTimeout   = 30 * time.Second
)

type userFinder interface {
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
}

type resetTokenRepository interface {
	FindByToken(ctx context.Context, token string) (*entity.ResetToken, error)
	Delete(ctx context.Context, identifier, token string) (int64, error)
}

type resetTokenStore interface {
	ReplaceResetToken(ctx context.Context, token *entity.ResetToken) error
	UpdatePasswordAndConsumeToken(ctx context.Context, userID, passwordHash, identifier, token string) error
}

type PasswordResetService interface {
	// RequestReset issues a token and emails a reset link. It returns nil for
	// unknown emails so callers cannot tell whether an account exists.
	RequestReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type AsyncRunner func(task func())

type PasswordResetOption func(*passwordResetService)

type passwordResetService struct {
	users       userFinder
	tokens      resetTokenRepository
	store       resetTokenStore
	hasher      *PasswordHasher
	notifier    notifier.Notifier
	metrics     *metrics.Metrics
	cfg         *config.Config
	asyncRunner AsyncRunner
	now         func() time.Time
}

func NewPasswordResetService(
	users userFinder,
	tokens resetTokenRepository,
	store resetTokenStore,
	hasher *PasswordHasher,
	n notifier.Notifier,
	m *metrics.Metrics,
	cfg *config.Config,
	opts ...PasswordResetOption,
) PasswordResetService {
	if m == nil {
		m = metrics.New(nil)
	}
	svc := &passwordResetService{
		users:    users,
		tokens:   tokens,
		store:    store,
		hasher:   hasher,
		notifier: n,
		metrics:  m,
		cfg:      cfg,
		asyncRunner: func(task func()) {
			go task()
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithAsyncRunner(runner AsyncRunner) PasswordResetOption {
	return func(s *passwordResetService) {
		if runner != nil {
			s.asyncRunner = runner
		}
	}
}

func WithClock(now func() time.Time) PasswordResetOption {
	return func(s *passwordResetService) {
		if now != nil {
			s.now = now
		}
	}
}

func (s *passwordResetService) RequestReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		s.metrics.RecordResetRequest(metrics.OutcomeError)
		return err
	}
	if user == nil {
		logrus.WithField("email", email).Info("password reset requested for unknown email")
		s.metrics.RecordResetRequest(metrics.OutcomeUnknownEmail)
		return nil
	}

	tokenValue, err := generateResetToken()
	if err != nil {
		s.metrics.RecordResetRequest(metrics.OutcomeError)
		return err
	}

	now := s.now().UTC()
	token := &entity.ResetToken{
		Identifier: user.Email,
		Token:      tokenValue,
		ExpiresAt:  now.Add(s.cfg.Tokens.ResetTTL),
		CreatedAt:  now,
	}
	if err = s.store.ReplaceResetToken(ctx, token); err != nil {
		s.metrics.RecordResetRequest(metrics.OutcomeError)
		return err
	}
	s.metrics.RecordResetRequest(metrics.OutcomeIssued)

	resetURL := s.resetURL(tokenValue)
	s.asyncRunner(func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		if sendErr := s.notifier.SendPasswordReset(sendCtx, user.Email, resetURL); sendErr != nil {
			logrus.WithError(sendErr).WithField("email", user.Email).Error("failed to send password reset email")
		}
	})

	return nil
}

func (s *passwordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" || newPassword == "" {
		s.metrics.RecordResetRedemption(metrics.OutcomeInvalid)
		return fmt.Errorf("%w: token and password are required", ErrInvalidInput)
	}

	resetToken, err := s.tokens.FindByToken(ctx, token)
	if err != nil {
		s.metrics.RecordResetRedemption(metrics.OutcomeError)
		return err
	}
	if resetToken == nil {
		s.metrics.RecordResetRedemption(metrics.OutcomeInvalid)
		return ErrInvalidToken
	}

	if resetToken.IsExpiredAt(s.now()) {
		if _, delErr := s.tokens.Delete(ctx, resetToken.Identifier, resetToken.Token); delErr != nil {
			logrus.WithError(delErr).WithField("email", resetToken.Identifier).Warn("failed to delete expired reset token")
		}
		s.metrics.RecordResetRedemption(metrics.OutcomeExpired)
		return ErrTokenExpired
	}

	user, err := s.users.FindByEmail(ctx, resetToken.Identifier)
	if err != nil {
		s.metrics.RecordResetRedemption(metrics.OutcomeError)
		return err
	}
	if user == nil {
		logrus.WithField("email", resetToken.Identifier).Error("reset token references a missing account")
		s.metrics.RecordResetRedemption(metrics.OutcomeAccountMissing)
		return ErrAccountNotFound
	}

	if err = s.cfg.Password.Policy.Validate(newPassword); err != nil {
		s.metrics.RecordResetRedemption(metrics.OutcomeWeakPassword)
		return fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.metrics.RecordResetRedemption(metrics.OutcomeError)
		return err
	}

	err = s.store.UpdatePasswordAndConsumeToken(ctx, user.ID, passwordHash, resetToken.Identifier, resetToken.Token)
	switch {
	case errors.Is(err, repository.ErrTokenConsumed):
		s.metrics.RecordResetRedemption(metrics.OutcomeInvalid)
		return ErrInvalidToken
	case errors.Is(err, repository.ErrNotFound):
		s.metrics.RecordResetRedemption(metrics.OutcomeAccountMissing)
		return ErrAccountNotFound
	case err != nil:
		s.metrics.RecordResetRedemption(metrics.OutcomeError)
		return err
	}

	logrus.WithField("user_id", user.ID).Info("password reset completed")
	s.metrics.RecordResetRedemption(metrics.OutcomeSuccess)
	return nil
}

func (s *passwordResetService) resetURL(token string) string {
	return s.cfg.App.BaseURL + "/reset-password?token=" + url.QueryEscape(token)
}

func generateResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
