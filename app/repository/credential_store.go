package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/codetrust-ai/codetrust-api/app/entity"

	"github.com/samber/oops"
)

// CredentialStore groups the multi-row writes that must apply atomically.
type CredentialStore struct {
	db *sql.DB
}

func NewCredentialStore(db *sql.DB) *CredentialStore {
	return &CredentialStore{db: db}
}

func (s *CredentialStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return oops.Code("TX_BEGIN_FAILED").Wrap(err)
	}
	defer tx.Rollback()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return oops.Code("TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

// ReplaceResetToken removes every outstanding token for the identifier and
// stores the new one.
func (s *CredentialStore) ReplaceResetToken(ctx context.Context, token *entity.ResetToken) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		repo := NewResetTokenRepository(tx)
		if err := repo.DeleteByIdentifier(ctx, token.Identifier); err != nil {
			return err
		}
		return repo.Create(ctx, token)
	})
}

// UpdatePasswordAndConsumeToken sets the new hash and deletes the redeemed
// token. Returns ErrNotFound when the user row is gone and ErrTokenConsumed
// when the token was already deleted; neither change is kept in those cases.
func (s *CredentialStore) UpdatePasswordAndConsumeToken(ctx context.Context, userID, passwordHash, identifier, token string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		updated, err := NewUserRepository(tx).UpdatePassword(ctx, userID, passwordHash)
		if err != nil {
			return err
		}
		if updated == 0 {
			return ErrNotFound
		}

		deleted, err := NewResetTokenRepository(tx).Delete(ctx, identifier, token)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return ErrTokenConsumed
		}
		return nil
	})
}

func (s *CredentialStore) CreateUserWithIdentity(ctx context.Context, user *entity.User, identity *entity.FederatedIdentity) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := NewUserRepository(tx).Create(ctx, user); err != nil {
			return err
		}
		identity.UserID = user.ID
		if err := NewFederatedIdentityRepository(tx).Create(ctx, identity); err != nil {
			return err
		}
		user.Identities = append(user.Identities, *identity)
		return nil
	})
}

// UpdateProfile persists the user and, when the email changed, drops the
// reset tokens addressed to the previous email.
func (s *CredentialStore) UpdateProfile(ctx context.Context, user *entity.User, previousEmail string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := NewUserRepository(tx).UpdateProfile(ctx, user); err != nil {
			return err
		}
		if previousEmail == "" || previousEmail == user.Email {
			return nil
		}
		return NewResetTokenRepository(tx).DeleteByIdentifier(ctx, previousEmail)
	})
}

func (s *CredentialStore) PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	return NewResetTokenRepository(s.db).DeleteExpired(ctx, now)
}

func (s *CredentialStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return oops.Code("DB_PING_FAILED").Wrap(err)
	}
	return nil
}
