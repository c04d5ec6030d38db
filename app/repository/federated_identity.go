package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/codetrust-ai/codetrust-api/app/entity"

	"github.com/samber/oops"
)

type FederatedIdentityRepository struct {
	db DBTX
}

func NewFederatedIdentityRepository(db DBTX) *FederatedIdentityRepository {
	return &FederatedIdentityRepository{db: db}
}

func (r *FederatedIdentityRepository) Create(ctx context.Context, identity *entity.FederatedIdentity) error {
	query := `
		INSERT INTO federated_identities (id, user_id, provider, provider_account_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		identity.ID,
		identity.UserID,
		identity.Provider,
		identity.ProviderAccountID,
		identity.CreatedAt,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return ErrDuplicateKey
		}
		return oops.Code("IDENTITY_CREATE_FAILED").
			With("provider", identity.Provider).
			With("user_id", identity.UserID).
			Wrap(err)
	}
	return nil
}

func (r *FederatedIdentityRepository) FindByProviderAccount(ctx context.Context, provider, accountID string) (*entity.FederatedIdentity, error) {
	query := `
		SELECT id, user_id, provider, provider_account_id, created_at
		FROM federated_identities
		WHERE provider = ? AND provider_account_id = ?
	`
	row := r.db.QueryRowContext(ctx, query, provider, accountID)
	identity, err := scanIdentity(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("IDENTITY_FIND_FAILED").
			With("provider", provider).
			Wrap(err)
	}
	return identity, nil
}

func (r *FederatedIdentityRepository) ListByUserID(ctx context.Context, userID string) ([]entity.FederatedIdentity, error) {
	query := `
		SELECT id, user_id, provider, provider_account_id, created_at
		FROM federated_identities
		WHERE user_id = ?
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, oops.Code("IDENTITY_LIST_FAILED").With("user_id", userID).Wrap(err)
	}
	defer rows.Close()

	identities := make([]entity.FederatedIdentity, 0)
	for rows.Next() {
		identity, err := scanIdentity(rows.Scan)
		if err != nil {
			return nil, oops.Code("IDENTITY_LIST_FAILED").With("user_id", userID).Wrap(err)
		}
		identities = append(identities, *identity)
	}

	if err = rows.Err(); err != nil {
		return nil, oops.Code("IDENTITY_LIST_FAILED").With("user_id", userID).Wrap(err)
	}

	return identities, nil
}

func scanIdentity(scan rowScanner) (*entity.FederatedIdentity, error) {
	identity := &entity.FederatedIdentity{}
	if err := scan(
		&identity.ID,
		&identity.UserID,
		&identity.Provider,
		&identity.ProviderAccountID,
		&identity.CreatedAt,
	); err != nil {
		return nil, err
	}
	return identity, nil
}
