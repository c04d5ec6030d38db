package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/codetrust-ai/codetrust-api/app/controller"
	"github.com/codetrust-ai/codetrust-api/app/entity"
	"github.com/codetrust-ai/codetrust-api/app/metrics"
	"github.com/codetrust-ai/codetrust-api/app/middleware"
	"github.com/codetrust-ai/codetrust-api/app/repository"
	"github.com/codetrust-ai/codetrust-api/app/service"
	"github.com/codetrust-ai/codetrust-api/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
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
	findIdentityByProviderQuery = `(?s)SELECT id, user_id, provider, provider_account_id, created_at\s+FROM federated_identities\s+WHERE provider = \? AND provider_account_id = \?`
	listIdentitiesByUserIDQuery = `(?s)SELECT id, user_id, provider, provider_account_id, created_at\s+FROM federated_identities\s+WHERE user_id = \?\s+ORDER BY created_at`
)

var (
	userColumns       = []string{"id", "email", "password_hash", "name", "bio", "created_at", "updated_at"}
	resetTokenColumns = []string{"identifier", "token", "expires_at", "created_at"}
	identityColumns   = []string{"id", "user_id", "provider", "provider_account_id", "created_at"}
)

const sessionCookieName = "codetrust_session"

type harness struct {
	mock     sqlmock.Sqlmock
	cfg      *config.Config
	sessions *service.SessionManager
	notifier *recordingNotifier
	userAuth service.UserAuthService
	reset    *controller.PasswordResetController
	users    *controller.UserAuthController
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{
		App: config.AppConfig{BaseURL: "https://codetrust.example"},
		Session: config.SessionConfig{
			Secret:     "test-secret",
			TTL:        time.Hour,
			CookieName: sessionCookieName,
		},
		Tokens: config.TokenConfig{ResetTTL: time.Hour},
		Password: config.PasswordConfig{
			BcryptCost: config.MinBcryptCost,
			Policy:     config.PasswordPolicy{MinLength: 6},
		},
	}

	m := metrics.New(nil)
	users := repository.NewUserRepository(db)
	store := repository.NewCredentialStore(db)
	hasher := service.NewPasswordHasher(cfg.Password.BcryptCost)
	sessions := service.NewSessionManager(cfg.Session.Secret, cfg.Session.TTL)
	n := &recordingNotifier{}

	resetService := service.NewPasswordResetService(
		users,
		repository.NewResetTokenRepository(db),
		store,
		hasher,
		n,
		m,
		cfg,
		service.WithAsyncRunner(func(task func()) { task() }),
	)
	userAuth := service.NewUserAuthService(
		users,
		repository.NewFederatedIdentityRepository(db),
		store,
		hasher,
		sessions,
		m,
		cfg,
	)

	return &harness{
		mock:     mock,
		cfg:      cfg,
		sessions: sessions,
		notifier: n,
		userAuth: userAuth,
		reset:    controller.NewPasswordResetController(resetService),
		users:    controller.NewUserAuthController(userAuth, cfg.Session),
	}
}

// withSession attaches a session for the user as the session middleware would.
func (h *harness) withSession(t *testing.T, ctx echo.Context, user *entity.User) {
	t.Helper()
	_, session, err := h.sessions.Issue(user)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	ctx.Set(middleware.ContextKeySession, session)
}

func (h *harness) assertExpectations(t *testing.T) {
	t.Helper()
	if err := h.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func newJSONRequest(t *testing.T, method, path string, body any) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response json: %v", err)
	}
	return body
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	return string(digest)
}

func userRow(id, email string, hash any) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userColumns).AddRow(id, email, hash, "Ada", nil, now, now)
}

type recordingNotifier struct {
	mu   sync.Mutex
	urls []string
}

func (n *recordingNotifier) SendPasswordReset(_ context.Context, _, resetURL string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.urls = append(n.urls, resetURL)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.urls)
}
