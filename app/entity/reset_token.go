package entity

import "time"

// ResetToken is a single-use password reset secret. Identifier is the owner's
// email as stored on the user row.
type ResetToken struct {
	Identifier string
	Token      string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// IsExpiredAt reports whether the token is no longer usable at t.
// A token is still valid at exactly its expiry instant.
func (t *ResetToken) IsExpiredAt(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
