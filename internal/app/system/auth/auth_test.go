package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeFetcher struct {
	users map[string]*SessionUser
}

func (f *fakeFetcher) FetchUser(_ context.Context, id string) *SessionUser {
	return f.users[id]
}

func newManager(t *testing.T) *SessionManager {
	t.Helper()
	sm, err := NewSessionManager(strings.Repeat("k", 32), "crewvoice-session", "", false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return sm
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestSignInRoundTrip(t *testing.T) {
	sm := newManager(t)
	sm.SetUserFetcher(&fakeFetcher{users: map[string]*SessionUser{
		"u1": {ID: "u1", Name: "Pat", Role: "employee"},
	}})

	// Sign in and capture the cookie.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/login", nil)
	if err := sm.SignIn(rec, req, "u1"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}

	// Replay the cookie through the middleware.
	req = httptest.NewRequest("GET", "/complaints", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	var got *SessionUser
	h := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = CurrentUser(r)
	}))
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.ID != "u1" || got.Name != "Pat" {
		t.Fatalf("expected fetched user u1, got %+v", got)
	}
}

func TestLoadSessionUser_NoCookie(t *testing.T) {
	sm := newManager(t)
	req := httptest.NewRequest("GET", "/", nil)
	var found bool
	h := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = CurrentUser(r)
	}))
	h.ServeHTTP(httptest.NewRecorder(), req)
	if found {
		t.Error("anonymous request should have no current user")
	}
}

func TestRequireSignedIn(t *testing.T) {
	sm := newManager(t)

	var called bool
	h := sm.RequireSignedIn(okHandler(&called))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusUnauthorized || called {
		t.Errorf("anonymous: code=%d called=%v", rec.Code, called)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON error body, got %q", ct)
	}

	rec = httptest.NewRecorder()
	req := WithTestUser(httptest.NewRequest("GET", "/", nil), &SessionUser{ID: "u1"})
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !called {
		t.Errorf("signed in: code=%d called=%v", rec.Code, called)
	}
}

func TestRequireRole(t *testing.T) {
	sm := newManager(t)

	var called bool
	h := sm.RequireRole("admin", "superadmin")(okHandler(&called))

	rec := httptest.NewRecorder()
	req := WithTestUser(httptest.NewRequest("GET", "/", nil), &SessionUser{ID: "u1", Role: "employee"})
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden || called {
		t.Errorf("wrong role: code=%d called=%v", rec.Code, called)
	}

	rec = httptest.NewRecorder()
	req = WithTestUser(httptest.NewRequest("GET", "/", nil), &SessionUser{ID: "u2", Role: "Admin"})
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !called {
		t.Errorf("admin role: code=%d called=%v", rec.Code, called)
	}
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	ti, err := NewTokenIssuer(strings.Repeat("s", 32), time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}

	raw, err := ti.Issue("u42")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	sub, err := ti.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if sub != "u42" {
		t.Errorf("subject: got %q, want u42", sub)
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	ti, err := NewTokenIssuer(strings.Repeat("s", 32), -time.Minute)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	raw, err := ti.Issue("u42")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := ti.Verify(raw); err == nil {
		t.Error("expected expired token to fail verification")
	}
}

func TestTokenIssuer_ShortSecret(t *testing.T) {
	if _, err := NewTokenIssuer("short", time.Hour); err == nil {
		t.Error("expected error for short secret")
	}
}

func TestLoadBearerUser(t *testing.T) {
	sm := newManager(t)
	sm.SetUserFetcher(&fakeFetcher{users: map[string]*SessionUser{
		"u7": {ID: "u7", Role: "employee"},
	}})
	ti, _ := NewTokenIssuer(strings.Repeat("s", 32), time.Hour)

	raw, err := ti.Issue("u7")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var got *SessionUser
	h := sm.LoadBearerUser(ti.Verify)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = CurrentUser(r)
	}))

	req := httptest.NewRequest("GET", "/complaints", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.ID != "u7" {
		t.Fatalf("expected bearer-authenticated user u7, got %+v", got)
	}

	// Garbage token stays anonymous.
	got = nil
	req = httptest.NewRequest("GET", "/complaints", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != nil {
		t.Errorf("garbage token should stay anonymous, got %+v", got)
	}
}
