package service

import (
	"errors"
	"fmt"

	"github.com/codetrust-ai/codetrust-api/config"

	"golang.org/x/crypto/bcrypt"
)

type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a bcrypt hasher. Costs below config.MinBcryptCost
// are raised to it.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < config.MinBcryptCost {
		cost = config.MinBcryptCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &PasswordHasher{cost: cost}
}

func (h *PasswordHasher) Cost() int {
	return h.cost
}

func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
		}
		return "", err
	}
	return string(digest), nil
}

// Verify compares in constant time. A malformed digest never matches.
func (h *PasswordHasher) Verify(plaintext, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
