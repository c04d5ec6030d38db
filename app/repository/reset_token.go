package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/codetrust-ai/codetrust-api/app/entity"

	"github.com/samber/oops"
)

type ResetTokenRepository struct {
	db DBTX
}

func NewResetTokenRepository(db DBTX) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

func (r *ResetTokenRepository) Create(ctx context.Context, token *entity.ResetToken) error {
	query := `
		INSERT INTO password_reset_tokens (identifier, token, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		token.Identifier,
		token.Token,
		token.ExpiresAt,
		token.CreatedAt,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return ErrDuplicateKey
		}
		return oops.Code("RESET_TOKEN_CREATE_FAILED").
			With("identifier", token.Identifier).
			Wrap(err)
	}
	return nil
}

func (r *ResetTokenRepository) FindByToken(ctx context.Context, token string) (*entity.ResetToken, error) {
	query := `
		SELECT identifier, token, expires_at, created_at
		FROM password_reset_tokens WHERE token = ?
	`
	rt := &entity.ResetToken{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&rt.Identifier,
		&rt.Token,
		&rt.ExpiresAt,
		&rt.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("RESET_TOKEN_FIND_FAILED").Wrap(err)
	}
	return rt, nil
}

// Delete removes a single token and reports how many rows were removed.
func (r *ResetTokenRepository) Delete(ctx context.Context, identifier, token string) (int64, error) {
	query := `DELETE FROM password_reset_tokens WHERE identifier = ? AND token = ?`
	result, err := r.db.ExecContext(ctx, query, identifier, token)
	if err != nil {
		return 0, oops.Code("RESET_TOKEN_DELETE_FAILED").
			With("identifier", identifier).
			Wrap(err)
	}
	return result.RowsAffected()
}

func (r *ResetTokenRepository) DeleteByIdentifier(ctx context.Context, identifier string) error {
	query := `DELETE FROM password_reset_tokens WHERE identifier = ?`
	if _, err := r.db.ExecContext(ctx, query, identifier); err != nil {
		return oops.Code("RESET_TOKEN_DELETE_FAILED").
			With("identifier", identifier).
			Wrap(err)
	}
	return nil
}

func (r *ResetTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM password_reset_tokens WHERE expires_at < ?`
	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, oops.Code("RESET_TOKEN_PURGE_FAILED").Wrap(err)
	}
	return result.RowsAffected()
}
