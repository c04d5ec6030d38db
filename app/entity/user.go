package entity

import (
	"database/sql"
	"time"
)

type User struct {
	ID           string
	Email        string
	PasswordHash sql.NullString
	Name         sql.NullString
	Bio          sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Identities   []FederatedIdentity
}

// HasPassword reports whether the account can sign in with credentials.
// OAuth-only accounts carry no hash.
func (u *User) HasPassword() bool {
	return u.PasswordHash.Valid && u.PasswordHash.String != ""
}

type FederatedIdentity struct {
	ID                string
	UserID            string
	Provider          string
	ProviderAccountID string
	CreatedAt         time.Time
}
