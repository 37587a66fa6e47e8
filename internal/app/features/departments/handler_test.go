package departments_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/crewvoice/crewvoice/internal/app/features/departments"
	departmentstore "github.com/crewvoice/crewvoice/internal/app/store/departments"
	"github.com/crewvoice/crewvoice/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type env struct {
	h  *departments.Handler
	fx *testutil.Fixtures
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return &env{
		h:  departments.NewHandler(departmentstore.New(db), zap.NewNop()),
		fx: testutil.NewFixtures(t, db),
	}
}

func (e *env) create(t *testing.T, caller testutil.TestUser, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = testutil.WithUser(req, caller)
	rec := httptest.NewRecorder()
	e.h.HandleCreate(rec, req)
	return rec
}

func TestHandleCreate(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// The duplicate check relies on the unique (company_id, name_ci)
	// index that EnsureSchema creates in production.
	_, err := e.fx.DB().Collection("departments").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "company_id", Value: 1}, {Key: "name_ci", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		t.Fatalf("create index: %v", err)
	}

	company := e.fx.CreateCompany(ctx, "Acme Corp")
	admin := testutil.AdminUser(company.ID, company.Key)

	rec := e.create(t, admin, `{"name":"Human Resources","roles":["hr_manager"]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Name          string   `json:"name"`
		SanitizedName string   `json:"sanitized_name"`
		Roles         []string `json:"roles"`
		Status        string   `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SanitizedName != "human_resources" {
		t.Errorf("expected sanitized name 'human_resources', got %q", resp.SanitizedName)
	}
	if resp.Status != "active" {
		t.Errorf("expected default status 'active', got %q", resp.Status)
	}

	// Same folded name again is a conflict.
	if rec := e.create(t, admin, `{"name":"human resources"}`); rec.Code != http.StatusConflict {
		t.Errorf("duplicate name: expected 409, got %d", rec.Code)
	}
}

func TestHandleCreate_Validation(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := e.fx.CreateCompany(ctx, "Acme Corp")
	admin := testutil.AdminUser(company.ID, company.Key)

	if rec := e.create(t, admin, `{"name":"   "}`); rec.Code != http.StatusBadRequest {
		t.Errorf("blank name: expected 400, got %d", rec.Code)
	}
	if rec := e.create(t, testutil.SuperadminUser(), `{"name":"Finance"}`); rec.Code != http.StatusForbidden {
		t.Errorf("caller without company: expected 403, got %d", rec.Code)
	}
}

func TestHandleList_ActiveOnly(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := e.fx.CreateCompany(ctx, "Acme Corp")
	e.fx.CreateDepartment(ctx, "Finance", company.ID)
	retired := e.fx.CreateDepartment(ctx, "Old Guard", company.ID)

	admin := testutil.AdminUser(company.ID, company.Key)

	// Retire one department, then list.
	{
		req := httptest.NewRequest(http.MethodPatch, "/"+retired.ID.Hex(), bytes.NewBufferString(`{"status":"inactive"}`))
		req.Header.Set("Content-Type", "application/json")
		req = testutil.WithUser(req, admin)
		req = testutil.WithChiURLParam(req, "departmentID", retired.ID.Hex())
		rec := httptest.NewRecorder()
		e.h.HandleUpdate(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("retire department: expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	}

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/", admin)
	rec := httptest.NewRecorder()
	e.h.HandleList(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].Name != "Finance" {
		t.Errorf("expected only the active department, got %+v", resp)
	}
}

func TestHandleGet_CrossCompanyHidden(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	acme := e.fx.CreateCompany(ctx, "Acme Corp")
	rival := e.fx.CreateCompany(ctx, "Rival Inc")
	dept := e.fx.CreateDepartment(ctx, "Finance", acme.ID)

	rivalAdmin := testutil.AdminUser(rival.ID, rival.Key)
	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/"+dept.ID.Hex(), rivalAdmin)
	req = testutil.WithChiURLParam(req, "departmentID", dept.ID.Hex())
	rec := httptest.NewRecorder()
	e.h.HandleGet(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another company's department, got %d", rec.Code)
	}
}

func TestHandleDelete(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := e.fx.CreateCompany(ctx, "Acme Corp")
	dept := e.fx.CreateDepartment(ctx, "Finance", company.ID)
	admin := testutil.AdminUser(company.ID, company.Key)

	req := testutil.NewAuthenticatedRequest(http.MethodDelete, "/"+dept.ID.Hex(), admin)
	req = testutil.WithChiURLParam(req, "departmentID", dept.ID.Hex())
	rec := httptest.NewRecorder()
	e.h.HandleDelete(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	get := testutil.NewAuthenticatedRequest(http.MethodGet, "/"+dept.ID.Hex(), admin)
	get = testutil.WithChiURLParam(get, "departmentID", dept.ID.Hex())
	rec = httptest.NewRecorder()
	e.h.HandleGet(rec, get)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}
