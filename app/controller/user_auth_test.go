package controller_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/codetrust-ai/codetrust-api/app/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
)

func TestSignup_Success(t *testing.T) {
	h := newHarness(t)

	h.mock.ExpectQuery(findUserByEmailQuery).
		WithArgs("new@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns))
	h.mock.ExpectExec(insertUserQuery).
		WithArgs(sqlmock.AnyArg(), "new@example.com", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req, rec := newJSONRequest(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"name":     "Ada",
		"email":    "new@example.com",
		"password": "secret1",
	})
	ctx := echo.New().NewContext(req, rec)

	if err := h.users.Signup(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}

	body := decodeBody(t, rec)
	user, ok := body["user"].(map[string]any)
	if !ok || user["email"] != "new@example.com" || user["has_password"] != true {
		t.Fatalf("unexpected user payload %#v", body["user"])
	}
	if _, ok := user["password_hash"]; ok {
		t.Fatalf("password hash must not be exposed")
	}

	cookie := findCookie(rec, sessionCookieName)
	if cookie == nil || cookie.Value == "" || !cookie.HttpOnly {
		t.Fatalf("expected http-only session cookie, got %#v", cookie)
	}
	if _, err := h.sessions.Parse(cookie.Value); err != nil {
		t.Fatalf("session cookie does not parse: %v", err)
	}
	h.assertExpectations(t)
}

func TestSignup_Conflict(t *testing.T) {
	h := newHarness(t)

	h.mock.ExpectQuery(findUserByEmailQuery).
		WithArgs("taken@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns))
	h.mock.ExpectExec(insertUserQuery).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	req, rec := newJSONRequest(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    "taken@example.com",
		"password": "secret1",
	})
	ctx := echo.New().NewContext(req, rec)

	if err := h.users.Signup(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
	if findCookie(rec, sessionCookieName) != nil {
		t.Fatalf("no session cookie expected on conflict")
	}
	h.assertExpectations(t)
}

func TestSignup_WeakPassword(t *testing.T) {
	h := newHarness(t)

	h.mock.ExpectQuery(findUserByEmailQuery).
		WithArgs("new@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns))

	req, rec := newJSONRequest(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    "new@example.com",
		"password": "abc",
	})
	ctx := echo.New().NewContext(req, rec)

	if err := h.users.Signup(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	h.assertExpectations(t)
}

func TestLogin_Success(t *testing.T) {
	h := newHarness(t)

	h.mock.ExpectQuery(findUserByEmailQuery).
		WithArgs("user@example.com").
		WillReturnRows(userRow("user-1", "user@example.com", mustHash(t, "secret1")))

	req, rec := newJSONRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "user@example.com",
		"password": "secret1",
	})
	ctx := echo.New().NewContext(req, rec)

	if err := h.users.Login(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := decodeBody(t, rec)
	token, _ := body["access_token"].(string)
	session, err := h.sessions.Parse(token)
	if err != nil {
		t.Fatalf("access token does not parse: %v", err)
	}
	if session.UserID != "user-1" {
		t.Fatalf("expected user-1, got %s", session.UserID)
	}
	if body["expires_in"] != float64(time.Hour.Seconds()) {
		t.Fatalf("unexpected expires_in %v", body["expires_in"])
	}
	if cookie := findCookie(rec, sessionCookieName); cookie == nil || cookie.Value != token {
		t.Fatalf("expected session cookie carrying the access token")
	}
	h.assertExpectations(t)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	h := newHarness(t)

	h.mock.ExpectQuery(findUserByEmailQuery).
		WithArgs("user@example.com").
		WillReturnRows(userRow("user-1", "user@example.com", mustHash(t, "secret1")))

	req, rec := newJSONRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "user@example.com",
		"password": "wrong-password",
	})
	ctx := echo.New().NewContext(req, rec)

	if err := h.users.Login(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "invalid email or password" {
		t.Fatalf("unexpected error %v", body["error"])
	}
	h.assertExpectations(t)
}

func TestLogin_OAuthOnlyAccountGetsGenericError(t *testing.T) {
	h := newHarness(t)

	h.mock.ExpectQuery(findUserByEmailQuery).
		WithArgs("oauth@example.com").
		WillReturnRows(userRow("user-2", "oauth@example.com", nil))

	req, rec := newJSONRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "oauth@example.com",
		"password": "anything",
	})
	ctx := echo.New().NewContext(req, rec)

	if err := h.users.Login(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	h.assertExpectations(t)
}

func TestLogout_ClearsCookie(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	rec := httptest.NewRecorder()
	ctx := echo.New().NewContext(req, rec)

	if err := h.users.Logout(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	cookie := findCookie(rec, sessionCookieName)
	if cookie == nil || cookie.MaxAge >= 0 || cookie.Value != "" {
		t.Fatalf("expected cleared session cookie, got %#v", cookie)
	}
}

func TestSession_Anonymous(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	rec := httptest.NewRecorder()
	ctx := echo.New().NewContext(req, rec)

	if err := h.users.Session(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); len(body) != 0 {
		t.Fatalf("expected empty session, got %#v", body)
	}
}

func TestSession_SignedIn(t *testing.T) {
	h := newHarness(t)

	h.mock.ExpectQuery(findUserByIDQuery).
		WithArgs("user-1").
		WillReturnRows(userRow("user-1", "user@example.com", nil))
	h.mock.ExpectQuery(listIdentitiesByUserIDQuery).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(identityColumns).AddRow("id-1", "user-1", "github", "42", time.Now()))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	rec := httptest.NewRecorder()
	ctx := echo.New().NewContext(req, rec)
	h.withSession(t, ctx, &entity.User{ID: "user-1", Email: "user@example.com"})

	if err := h.users.Session(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := decodeBody(t, rec)
	user, ok := body["user"].(map[string]any)
	if !ok || user["id"] != "user-1" {
		t.Fatalf("unexpected user payload %#v", body["user"])
	}
	providers, ok := user["providers"].([]any)
	if !ok || len(providers) != 1 || providers[0] != "github" {
		t.Fatalf("unexpected providers %#v", user["providers"])
	}
	if _, ok := body["expires_at"]; !ok {
		t.Fatalf("expected expires_at in session payload")
	}
	h.assertExpectations(t)
}

func TestMe_Unauthorized(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	rec := httptest.NewRecorder()
	ctx := echo.New().NewContext(req, rec)

	if err := h.users.Me(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestUpdateProfile_Success(t *testing.T) {
	h := newHarness(t)

	h.mock.ExpectQuery(findUserByIDQuery).
		WithArgs("user-1").
		WillReturnRows(userRow("user-1", "old@example.com", nil))
	h.mock.ExpectBegin()
	h.mock.ExpectExec(updateProfileQuery).
		WithArgs("new@example.com", "Ada", "Reviewer", sqlmock.AnyArg(), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	h.mock.ExpectExec(deleteResetTokensByIDQuery).
		WithArgs("old@example.com").
		WillReturnResult(sqlmock.NewResult(0, 0))
	h.mock.ExpectCommit()

	req, rec := newJSONRequest(t, http.MethodPatch, "/api/user/profile", map[string]string{
		"email": "new@example.com",
		"bio":   "Reviewer",
	})
	ctx := echo.New().NewContext(req, rec)
	h.withSession(t, ctx, &entity.User{ID: "user-1", Email: "old@example.com"})

	if err := h.users.UpdateProfile(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["email"] != "new@example.com" || body["bio"] != "Reviewer" {
		t.Fatalf("unexpected profile %#v", body)
	}
	h.assertExpectations(t)
}

func TestUpdateProfile_EmailTaken(t *testing.T) {
	h := newHarness(t)

	h.mock.ExpectQuery(findUserByIDQuery).
		WithArgs("user-1").
		WillReturnRows(userRow("user-1", "old@example.com", nil))
	h.mock.ExpectBegin()
	h.mock.ExpectExec(updateProfileQuery).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	h.mock.ExpectRollback()

	req, rec := newJSONRequest(t, http.MethodPatch, "/api/user/profile", map[string]string{
		"email": "taken@example.com",
	})
	ctx := echo.New().NewContext(req, rec)
	h.withSession(t, ctx, &entity.User{ID: "user-1", Email: "old@example.com"})

	if err := h.users.UpdateProfile(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
	h.assertExpectations(t)
}

func TestUpdateProfile_EmptyBody(t *testing.T) {
	h := newHarness(t)

	req, rec := newJSONRequest(t, http.MethodPatch, "/api/user/profile", map[string]string{})
	ctx := echo.New().NewContext(req, rec)
	h.withSession(t, ctx, &entity.User{ID: "user-1", Email: "user@example.com"})

	if err := h.users.UpdateProfile(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}
