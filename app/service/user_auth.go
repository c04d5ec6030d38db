package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codetrust-ai/codetrust-api/app/dto"
	"github.com/codetrust-ai/codetrust-api/app/entity"
	"github.com/codetrust-ai/codetrust-api/app/metrics"
	"github.com/codetrust-ai/codetrust-api/app/oauth"
	"github.com/codetrust-ai/codetrust-api/app/repository"
	"github.com/codetrust-ai/codetrust-api/config"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type userRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id string) (*entity.User, error)
}

type identityRepository interface {
	Create(ctx context.Context, identity *entity.FederatedIdentity) error
	FindByProviderAccount(ctx context.Context, provider, accountID string) (*entity.FederatedIdentity, error)
	ListByUserID(ctx context.Context, userID string) ([]entity.FederatedIdentity, error)
}

type accountStore interface {
	CreateUserWithIdentity(ctx context.Context, user *entity.User, identity *entity.FederatedIdentity) error
	UpdateProfile(ctx context.Context, user *entity.User, previousEmail string) error
}

// ProfileUpdate is a partial update; nil fields keep their stored value.
type ProfileUpdate struct {
	Name  *string
	Email *string
	Bio   *string
}

type UserAuthService interface {
	Signup(ctx context.Context, name, email, password string) (*entity.User, error)
	Authenticate(ctx context.Context, email, password string) (*entity.User, error)
	Login(ctx context.Context, email, password string) (*dto.LoginResult, error)
	IssueSession(user *entity.User) (*dto.LoginResult, error)
	FederatedLogin(ctx context.Context, identity *oauth.Identity) (*entity.User, error)
	GetUser(ctx context.Context, id string) (*entity.User, error)
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*entity.User, error)
}

type userAuthService struct {
	userRepo     userRepository
	identityRepo identityRepository
	store        accountStore
	hasher       *PasswordHasher
	sessions     *SessionManager
	metrics      *metrics.Metrics
	cfg          *config.Config
}

func NewUserAuthService(
	userRepo userRepository,
	identityRepo identityRepository,
	store accountStore,
	hasher *PasswordHasher,
	sessions *SessionManager,
	m *metrics.Metrics,
	cfg *config.Config,
) UserAuthService {
	if m == nil {
		m = metrics.New(nil)
	}
	return &userAuthService{
		userRepo:     userRepo,
		identityRepo: identityRepo,
		store:        store,
		hasher:       hasher,
		sessions:     sessions,
		metrics:      m,
		cfg:          cfg,
	}
}

func (s *userAuthService) Signup(ctx context.Context, name, email, password string) (*entity.User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	if err = s.cfg.Password.Policy.Validate(password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &entity.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: sql.NullString{String: passwordHash, Valid: true},
		Name:         optionalString(name),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err = s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	return user, nil
}

func (s *userAuthService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		s.metrics.RecordLogin(metrics.MethodCredentials, metrics.OutcomeError)
		return nil, err
	}
	if user == nil || !user.HasPassword() || !s.hasher.Verify(password, user.PasswordHash.String) {
		s.metrics.RecordLogin(metrics.MethodCredentials, metrics.OutcomeFailure)
		return nil, ErrInvalidCredentials
	}

	s.metrics.RecordLogin(metrics.MethodCredentials, metrics.OutcomeSuccess)
	return user, nil
}

func (s *userAuthService) Login(ctx context.Context, email, password string) (*dto.LoginResult, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.IssueSession(user)
}

func (s *userAuthService) IssueSession(user *entity.User) (*dto.LoginResult, error) {
	token, session, err := s.sessions.Issue(user)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResult{
		User:      user,
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		ExpiresIn: int64(s.sessions.TTL().Seconds()),
	}, nil
}

// FederatedLogin resolves a provider identity to a user. A known identity
// wins; otherwise an account with the same email is linked, and failing that
// a password-less account is created.
func (s *userAuthService) FederatedLogin(ctx context.Context, identity *oauth.Identity) (*entity.User, error) {
	method := identity.Provider
	if identity.AccountID == "" || identity.Provider == "" {
		s.metrics.RecordLogin(method, metrics.OutcomeFailure)
		return nil, fmt.Errorf("%w: provider identity is incomplete", ErrInvalidInput)
	}

	user, err := s.federatedLogin(ctx, identity)
	switch {
	case err == nil:
		s.metrics.RecordLogin(method, metrics.OutcomeSuccess)
	case errors.Is(err, ErrUnverifiedEmail) || errors.Is(err, ErrInvalidInput):
		s.metrics.RecordLogin(method, metrics.OutcomeFailure)
	default:
		s.metrics.RecordLogin(method, metrics.OutcomeError)
	}
	return user, err
}

func (s *userAuthService) federatedLogin(ctx context.Context, identity *oauth.Identity) (*entity.User, error) {
	linked, err := s.identityRepo.FindByProviderAccount(ctx, identity.Provider, identity.AccountID)
	if err != nil {
		return nil, err
	}
	if linked != nil {
		user, err := s.userRepo.FindByID(ctx, linked.UserID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrUserNotFound
		}
		return user, nil
	}

	email := NormalizeEmail(identity.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: provider returned no email", ErrInvalidInput)
	}

	user, err := s.linkExisting(ctx, identity, email)
	if err != nil || user != nil {
		return user, err
	}

	now := time.Now().UTC()
	user = &entity.User{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      optionalString(identity.Name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.store.CreateUserWithIdentity(ctx, user, newIdentity(identity, now))
	if errors.Is(err, repository.ErrDuplicateEmail) {
		// lost a race with a concurrent first sign-in for the same email
		user, err = s.linkExisting(ctx, identity, email)
		if err == nil && user == nil {
			err = ErrUserNotFound
		}
		return user, err
	}
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"provider": identity.Provider,
	}).Info("created account from federated login")
	return user, nil
}

// linkExisting attaches the identity to the account owning email. It returns
// nil, nil when there is no such account.
func (s *userAuthService) linkExisting(ctx context.Context, identity *oauth.Identity, email string) (*entity.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil || user == nil {
		return nil, err
	}
	if !identity.EmailVerified {
		logrus.WithFields(logrus.Fields{
			"user_id":  user.ID,
			"provider": identity.Provider,
		}).Warn("refusing to link identity with unverified email")
		return nil, ErrUnverifiedEmail
	}

	link := newIdentity(identity, time.Now().UTC())
	link.UserID = user.ID
	if err = s.identityRepo.Create(ctx, link); err != nil && !errors.Is(err, repository.ErrDuplicateKey) {
		return nil, err
	}
	return user, nil
}

func (s *userAuthService) GetUser(ctx context.Context, id string) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	identities, err := s.identityRepo.ListByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Identities = identities
	return user, nil
}

func (s *userAuthService) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	previousEmail := user.Email
	if update.Email != nil {
		email := NormalizeEmail(*update.Email)
		if email == "" {
			return nil, fmt.Errorf("%w: email cannot be empty", ErrInvalidInput)
		}
		user.Email = email
	}
	if update.Name != nil {
		user.Name = optionalString(*update.Name)
	}
	if update.Bio != nil {
		user.Bio = optionalString(*update.Bio)
	}

	err = s.store.UpdateProfile(ctx, user, previousEmail)
	switch {
	case errors.Is(err, repository.ErrDuplicateEmail):
		return nil, ErrUserExists
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrUserNotFound
	case err != nil:
		return nil, err
	}

	return user, nil
}

func newIdentity(identity *oauth.Identity, now time.Time) *entity.FederatedIdentity {
	return &entity.FederatedIdentity{
		ID:                uuid.New().String(),
		Provider:          identity.Provider,
		ProviderAccountID: identity.AccountID,
		CreatedAt:         now,
	}
}

func optionalString(value string) sql.NullString {
	value = strings.TrimSpace(value)
	return sql.NullString{String: value, Valid: value != ""}
}
