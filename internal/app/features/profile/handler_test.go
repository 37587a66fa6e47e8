package profile_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/crewvoice/crewvoice/internal/app/features/profile"
	userstore "github.com/crewvoice/crewvoice/internal/app/store/users"
	"github.com/crewvoice/crewvoice/internal/domain/models"
	"github.com/crewvoice/crewvoice/internal/testutil"
	"go.uber.org/zap"
)

func TestHandleView(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	users := userstore.New(db)
	created, err := users.Create(ctx, models.User{
		FullName: "Pat Jones",
		Email:    "pat@test.com",
		Role:     "employee",
	}, "secret-password")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	h := profile.NewHandler(users, zap.NewNop())

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/", testutil.TestUser{
		ID:   created.ID.Hex(),
		Name: created.FullName,
		Role: created.Role,
	})
	rec := httptest.NewRecorder()
	h.HandleView(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		FullName   string `json:"full_name"`
		Email      string `json:"email"`
		AuthMethod string `json:"auth_method"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.FullName != "Pat Jones" {
		t.Errorf("expected full name 'Pat Jones', got %q", resp.FullName)
	}
	if resp.Email != "pat@test.com" {
		t.Errorf("expected email 'pat@test.com', got %q", resp.Email)
	}
	if resp.AuthMethod != "password" {
		t.Errorf("expected auth method 'password', got %q", resp.AuthMethod)
	}
}

func TestHandleChangePassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	users := userstore.New(db)
	created, err := users.Create(ctx, models.User{
		FullName: "Pat Jones",
		Email:    "pat@test.com",
		Role:     "employee",
	}, "old-password-1")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	h := profile.NewHandler(users, zap.NewNop())
	caller := testutil.TestUser{ID: created.ID.Hex(), Role: "employee"}

	change := func(body string) int {
		req := httptest.NewRequest(http.MethodPost, "/password", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		req = testutil.WithUser(req, caller)
		rec := httptest.NewRecorder()
		h.HandleChangePassword(rec, req)
		return rec.Code
	}

	if code := change(`{"current_password":"wrong","new_password":"new-password-1"}`); code != http.StatusForbidden {
		t.Errorf("wrong current password: expected 403, got %d", code)
	}
	if code := change(`{"current_password":"old-password-1","new_password":"short"}`); code != http.StatusBadRequest {
		t.Errorf("short new password: expected 400, got %d", code)
	}
	if code := change(`{"current_password":"old-password-1","new_password":"new-password-1"}`); code != http.StatusOK {
		t.Errorf("valid change: expected 200, got %d", code)
	}

	// Old credential no longer works, new one does.
	if _, err := users.Authenticate(ctx, "pat@test.com", "old-password-1"); err == nil {
		t.Error("expected old password to be rejected after change")
	}
	if _, err := users.Authenticate(ctx, "pat@test.com", "new-password-1"); err != nil {
		t.Errorf("expected new password to authenticate: %v", err)
	}
}

func TestHandleChangePassword_GoogleAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	users := userstore.New(db)
	created, err := users.Create(ctx, models.User{
		FullName:   "Sam Lee",
		Email:      "sam@test.com",
		AuthMethod: "google",
		Role:       "employee",
	}, "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	h := profile.NewHandler(users, zap.NewNop())

	body := `{"current_password":"anything-here","new_password":"new-password-1"}`
	req := httptest.NewRequest(http.MethodPost, "/password", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = testutil.WithUser(req, testutil.TestUser{ID: created.ID.Hex(), Role: "employee"})
	rec := httptest.NewRecorder()
	h.HandleChangePassword(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for google account, got %d", rec.Code)
	}
}
