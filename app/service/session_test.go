package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/codetrust-ai/codetrust-api/app/entity"
	"github.com/codetrust-ai/codetrust-api/app/service"

	"github.com/golang-jwt/jwt/v5"
)

func TestSessionManager_IssueAndParse(t *testing.T) {
	m := service.NewSessionManager("secret", time.Hour)
	user := &entity.User{ID: "user-1", Email: "user@example.com"}

	token, issued, err := m.Issue(user)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if issued.ID == "" || len(issued.ID) != 26 {
		t.Fatalf("expected ULID session id, got %q", issued.ID)
	}

	parsed, err := m.Parse(token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed.UserID != "user-1" || parsed.Email != "user@example.com" || parsed.ID != issued.ID {
		t.Fatalf("unexpected session: %+v", parsed)
	}
	if !parsed.ExpiresAt.Equal(issued.ExpiresAt) {
		t.Fatalf("expected expiry %v, got %v", issued.ExpiresAt, parsed.ExpiresAt)
	}
}

func TestSessionManager_RejectsWrongSecret(t *testing.T) {
	token, _, err := service.NewSessionManager("secret", time.Hour).Issue(&entity.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := service.NewSessionManager("other", time.Hour).Parse(token); !errors.Is(err, service.ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}

func TestSessionManager_RejectsExpired(t *testing.T) {
	token, _, err := service.NewSessionManager("secret", -time.Minute).Issue(&entity.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := service.NewSessionManager("secret", time.Hour).Parse(token); !errors.Is(err, service.ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}

func TestSessionManager_RejectsNonHMAC(t *testing.T) {
	claims := &service.SessionClaims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	if _, err := service.NewSessionManager("secret", time.Hour).Parse(signed); !errors.Is(err, service.ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}

func TestSessionManager_RejectsGarbage(t *testing.T) {
	if _, err := service.NewSessionManager("secret", time.Hour).Parse("not-a-token"); !errors.Is(err, service.ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}
