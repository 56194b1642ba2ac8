package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/abrezinsky/cuevote/internal/auth"
	"github.com/abrezinsky/cuevote/internal/handlers"
)

func TestHandleLogin_Success(t *testing.T) {
	setup := newTestSetup(t)

	rec := setup.do(t, http.MethodPost, "/admin/login", handlers.LoginRequest{Password: "test-password"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			session = c
		}
	}
	if session == nil || session.Value == "" {
		t.Fatal("expected session cookie to be set")
	}
	if !session.HttpOnly {
		t.Error("expected session cookie to be HttpOnly")
	}

	var resp handlers.LoginResponse
	decode(t, rec, &resp)
	if resp.Token != session.Value || resp.ExpiresIn != int(auth.SessionExpiry.Seconds()) {
		t.Errorf("login response = %+v", resp)
	}

	// the new session opens the admin API via cookie or bearer header
	req := httptest.NewRequest(http.MethodGet, "/api/admin/settings", nil)
	req.AddCookie(session)
	rec = httptest.NewRecorder()
	setup.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with new session, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/settings", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	rec = httptest.NewRecorder()
	setup.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with bearer token, got %d", rec.Code)
	}
}

func TestHandleLogin_WrongPassword(t *testing.T) {
	setup := newTestSetup(t)

	rec := setup.do(t, http.MethodPost, "/admin/login", handlers.LoginRequest{Password: "wrong"})
	expectError(t, rec, http.StatusUnauthorized, handlers.ErrCodeUnauthorized)

	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			t.Error("no session cookie should be set on failure")
		}
	}
}

func TestHandleLogin_EmptyBody(t *testing.T) {
	setup := newTestSetup(t)

	rec := setup.do(t, http.MethodPost, "/admin/login", nil)
	expectError(t, rec, http.StatusBadRequest, handlers.ErrCodeBadRequest)
}

func TestHandleLogout(t *testing.T) {
	setup := newTestSetup(t)

	rec := setup.admin(t, http.MethodPost, "/admin/logout", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	// the old session no longer works
	rec = setup.admin(t, http.MethodGet, "/api/admin/settings", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", rec.Code)
	}
}

func TestHandleLogout_WithoutSession(t *testing.T) {
	setup := newTestSetup(t)

	rec := setup.do(t, http.MethodPost, "/admin/logout", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
