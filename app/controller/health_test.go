package controller_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codetrust-ai/codetrust-api/app/controller"
	"github.com/codetrust-ai/codetrust-api/app/entity"
	"github.com/codetrust-ai/codetrust-api/app/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
)

func TestHealthz(t *testing.T) {
	tests := []struct {
		name     string
		pingErr  error
		expected int
	}{
		{name: "database reachable", expected: http.StatusOK},
		{name: "database down", pingErr: errors.New("dial tcp: connection refused"), expected: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
			if err != nil {
				t.Fatalf("failed to create sqlmock: %v", err)
			}
			defer db.Close()

			mock.ExpectPing().WillReturnError(tt.pingErr)
			c := controller.NewHealthController(repository.NewCredentialStore(db))

			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			rec := httptest.NewRecorder()
			if err := c.Healthz(echo.New().NewContext(req, rec)); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tt.expected {
				t.Fatalf("expected status %d, got %d", tt.expected, rec.Code)
			}
		})
	}
}

func TestAppShellPage(t *testing.T) {
	h := newHarness(t)
	c := controller.NewAppShellController()

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	ctx := echo.New().NewContext(req, rec)
	ctx.SetPath("/dashboard")
	h.withSession(t, ctx, &entity.User{ID: "user-1", Email: "user@example.com"})

	if err := c.Page(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["page"] != "dashboard" || body["user_id"] != "user-1" {
		t.Fatalf("unexpected page payload %#v", body)
	}
}
