package service_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"sync"
	"testing"
	"time"

	"github.com/codetrust-ai/codetrust-api/app/metrics"
	"github.com/codetrust-ai/codetrust-api/config"

	"github.com/DATA-DOG/go-sqlmock"
)

var (
	userColumns = []string{
		"id",
		"email",
		"password_hash",
		"name",
		"bio",
		"created_at",
		"updated_at",
	}
	resetTokenColumns = []string{
		"identifier",
		"token",
		"expires_at",
		"created_at",
	}
	identityColumns = []string{
		"id",
		"user_id",
		"provider",
		"provider_account_id",
		"created_at",
	}
)

const (
	findUserByEmailQuery        = `(?s)SELECT id, email, password_hash, name, bio, created_at, updated_at\s+FROM users WHERE email = \?`
	findUserByIDQuery           = `(?s)SELECT id, email, password_hash, name, bio, created_at, updated_at\s+FROM users WHERE id = \?`
	insertUserQuery             = `(?s)INSERT INTO users \(id, email, password_hash, name, bio, created_at, updated_at\)\s+VALUES \(\?, \?, \?, \?, \?, \?, \?\)`
	updateProfileQuery          = `(?s)UPDATE users SET\s+email = \?,\s+name = \?,\s+bio = \?,\s+updated_at = \?\s+WHERE id = \?`
	updatePasswordQuery         = `(?s)UPDATE users SET password_hash = \?, updated_at = \? WHERE id = \?`
	insertResetTokenQuery       = `(?s)INSERT INTO password_reset_tokens \(identifier, token, expires_at, created_at\)\s+VALUES \(\?, \?, \?, \?\)`
	findResetTokenQuery         = `(?s)SELECT identifier, token, expires_at, created_at\s+FROM password_reset_tokens WHERE token = \?`
	deleteResetTokenQuery       = `(?s)DELETE FROM password_reset_tokens WHERE identifier = \? AND token = \?`
	deleteResetTokensByIDQuery  = `(?s)DELETE FROM password_reset_tokens WHERE identifier = \?$`
	insertIdentityQuery         = `(?s)INSERT INTO federated_identities \(id, user_id, provider, provider_account_id, created_at\)\s+VALUES \(\?, \?, \?, \?, \?\)`
	findIdentityByProviderQuery = `(?s)SELECT id, user_id, provider, provider_account_id, created_at\s+FROM federated_identities\s+WHERE provider = \? AND provider_account_id = \?`
	listIdentitiesByUserIDQuery = `(?s)SELECT id, user_id, provider, provider_account_id, created_at\s+FROM federated_identities\s+WHERE user_id = \?\s+ORDER BY created_at`
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func newTestConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{BaseURL: "https://codetrust.example"},
		Session: config.SessionConfig{Secret: "test-secret", TTL: 30 * 24 * time.Hour},
		Tokens:  config.TokenConfig{ResetTTL: time.Hour},
		Password: config.PasswordConfig{
			BcryptCost: config.MinBcryptCost,
			Policy:     config.PasswordPolicy{MinLength: 6},
		},
	}
}

func newTestMetrics() *metrics.Metrics {
	return metrics.New(nil)
}

// captureString matches any string argument and remembers it.
type captureString struct {
	value *string
}

func (c captureString) Match(v driver.Value) bool {
	s, ok := v.(string)
	if ok {
		*c.value = s
	}
	return ok
}

type sentReset struct {
	to       string
	resetURL string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentReset
	err  error
	done chan struct{}
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{done: make(chan struct{}, 8)}
}

func (n *recordingNotifier) SendPasswordReset(_ context.Context, to, resetURL string) error {
	n.mu.Lock()
	n.sent = append(n.sent, sentReset{to: to, resetURL: resetURL})
	n.mu.Unlock()
	n.done <- struct{}{}
	return n.err
}

func (n *recordingNotifier) Sent() []sentReset {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentReset(nil), n.sent...)
}

func syncRunner(task func()) {
	task()
}
