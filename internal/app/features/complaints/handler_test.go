package complaints_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/crewvoice/crewvoice/internal/app/features/complaints"
	complaintstore "github.com/crewvoice/crewvoice/internal/app/store/complaints"
	departmentstore "github.com/crewvoice/crewvoice/internal/app/store/departments"
	"github.com/crewvoice/crewvoice/internal/app/system/hub"
	"github.com/crewvoice/crewvoice/internal/app/system/limits"
	"github.com/crewvoice/crewvoice/internal/app/system/notify"
	"github.com/crewvoice/crewvoice/internal/app/system/statqueue"
	"github.com/crewvoice/crewvoice/internal/domain/models"
	"github.com/crewvoice/crewvoice/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// capture records counter updates the handlers enqueue so tests can
// assert them without a live applier target.
type capture struct {
	mu      sync.Mutex
	updates []statqueue.Update
}

func (c *capture) apply(_ context.Context, u statqueue.Update) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, u)
	return nil
}

func (c *capture) collections() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.updates))
	for _, u := range c.updates {
		out = append(out, u.Collection)
	}
	return out
}

type env struct {
	h       *complaints.Handler
	fx      *testutil.Fixtures
	queue   *statqueue.Queue
	counter *capture
	company models.Company
	dept    models.Department
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db := testutil.SetupTestDB(t)
	log := zap.NewNop()

	cap := &capture{}
	q := statqueue.New(cap.apply, 64, log)
	q.Start(context.Background())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		q.Stop(ctx)
	})

	ws := hub.New(log)
	h := complaints.NewHandler(
		complaintstore.New(db, log),
		departmentstore.New(db),
		nil, "",
		q,
		notify.New(ws, log),
		ws,
		log,
	)

	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	company := fx.CreateCompany(ctx, "Acme Corp")
	dept := fx.CreateDepartment(ctx, "Technical Support", company.ID)

	return &env{h: h, fx: fx, queue: q, counter: cap, company: company, dept: dept}
}

// drainCounters stops the queue so every enqueued update has been
// applied before the test reads the capture.
func (e *env) drainCounters(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	e.queue.Stop(ctx)
}

func submitRequest(t *testing.T, user testutil.TestUser, fields map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write form field %s: %v", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return testutil.WithUser(req, user)
}

func (e *env) submit(t *testing.T, user testutil.TestUser, fields map[string]string) models.Complaint {
	t.Helper()

	rec := httptest.NewRecorder()
	e.h.HandleSubmit(rec, submitRequest(t, user, fields))
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit returned %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Complaint      models.Complaint `json:"complaint"`
		ResolutionKind string           `json:"resolution_kind"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode submit response: %v", err)
	}
	return resp.Complaint
}

func defaultFields() map[string]string {
	return map[string]string{
		"title":       "Printer keeps jamming",
		"description": "The third floor printer jams on every duplex job.",
		"category":    "Technical Support",
		"urgency":     "high",
		"is_global":   "false",
	}
}

func TestHandleSubmit_CreatesComplaint(t *testing.T) {
	e := newEnv(t)
	user := testutil.EmployeeUser(e.company.ID, e.company.Key, e.dept.Name)

	rec := httptest.NewRecorder()
	e.h.HandleSubmit(rec, submitRequest(t, user, defaultFields()))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Complaint      models.Complaint `json:"complaint"`
		ResolutionKind string           `json:"resolution_kind"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ResolutionKind != "matched" {
		t.Errorf("expected matched resolution, got %q", resp.ResolutionKind)
	}
	c := resp.Complaint
	if c.Status != models.StatusOpen {
		t.Errorf("expected status open, got %q", c.Status)
	}
	if c.AssignedDepartment.ID != e.dept.ID.Hex() {
		t.Errorf("expected assignment to %s, got %s", e.dept.ID.Hex(), c.AssignedDepartment.ID)
	}
	if c.CompanyKey != e.company.Key {
		t.Errorf("expected company key %q, got %q", e.company.Key, c.CompanyKey)
	}
	if c.Attachment.HasFile {
		t.Error("expected no attachment")
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	stored, err := e.h.Complaints.GetByID(ctx, c.ComplaintID)
	if err != nil {
		t.Fatalf("complaint not readable after submit: %v", err)
	}
	if stored.Title != "Printer keeps jamming" {
		t.Errorf("unexpected stored title %q", stored.Title)
	}
}

func TestHandleSubmit_Validation(t *testing.T) {
	e := newEnv(t)
	user := testutil.EmployeeUser(e.company.ID, e.company.Key, e.dept.Name)

	cases := []struct {
		name  string
		mutil func(map[string]string)
	}{
		{"missing title", func(f map[string]string) { f["title"] = "" }},
		{"missing description", func(f map[string]string) { f["description"] = "" }},
		{"bad urgency", func(f map[string]string) { f["urgency"] = "urgent" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fields := defaultFields()
			tc.mutil(fields)
			rec := httptest.NewRecorder()
			e.h.HandleSubmit(rec, submitRequest(t, user, fields))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandleSubmit_OversizedAttachmentRejected(t *testing.T) {
	e := newEnv(t)
	user := testutil.EmployeeUser(e.company.ID, e.company.Key, e.dept.Name)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range defaultFields() {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write form field %s: %v", k, err)
		}
	}
	fw, err := mw.CreateFormFile("attachment", "big.bin")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(bytes.Repeat([]byte{'a'}, int(limits.MaxAttachmentBytes())+1)); err != nil {
		t.Fatalf("write attachment: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = testutil.WithUser(req, user)

	rec := httptest.NewRecorder()
	e.h.HandleSubmit(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}

	// An oversized file aborts before any write: no copy in any
	// collection.
	ctx, cancel := testutil.TestContext()
	defer cancel()
	for _, coll := range []string{
		complaintstore.CanonicalCollection,
		complaintstore.FlatCollection,
		complaintstore.SearchCollection,
	} {
		n, err := e.fx.DB().Collection(coll).CountDocuments(ctx, bson.M{})
		if err != nil {
			t.Fatalf("count %s: %v", coll, err)
		}
		if n != 0 {
			t.Errorf("expected zero documents in %s, found %d", coll, n)
		}
	}
}

func TestHandleSubmit_UploadFailureIsSoft(t *testing.T) {
	e := newEnv(t) // no storage backend, so any upload attempt fails
	user := testutil.EmployeeUser(e.company.ID, e.company.Key, e.dept.Name)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range defaultFields() {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write form field %s: %v", k, err)
		}
	}
	fw, err := mw.CreateFormFile("attachment", "photo.jpg")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte("jpeg bytes")); err != nil {
		t.Fatalf("write attachment: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = testutil.WithUser(req, user)

	rec := httptest.NewRecorder()
	e.h.HandleSubmit(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 despite upload failure, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Complaint       models.Complaint `json:"complaint"`
		AttachmentError string           `json:"attachment_error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AttachmentError == "" {
		t.Error("expected attachment_error to be reported")
	}
	if resp.Complaint.Attachment.HasFile {
		t.Error("expected has_file false after failed upload")
	}

	// The complaint itself was still committed.
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if _, err := e.h.Complaints.GetByID(ctx, resp.Complaint.ComplaintID); err != nil {
		t.Errorf("expected complaint to be readable: %v", err)
	}
}

func TestHandleSubmit_NoCompany(t *testing.T) {
	e := newEnv(t)
	user := testutil.SuperadminUser() // no company membership

	rec := httptest.NewRecorder()
	e.h.HandleSubmit(rec, submitRequest(t, user, defaultFields()))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestHandleSubmit_RepeatSubmissionsAreDistinct(t *testing.T) {
	e := newEnv(t)
	user := testutil.EmployeeUser(e.company.ID, e.company.Key, e.dept.Name)

	first := e.submit(t, user, defaultFields())
	second := e.submit(t, user, defaultFields())

	if first.ComplaintID == second.ComplaintID {
		t.Fatalf("expected distinct complaint ids, both were %s", first.ComplaintID)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	n, err := e.fx.DB().Collection(complaintstore.CanonicalCollection).CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count canonical: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 canonical documents, found %d", n)
	}
}

func TestHandleSubmit_EnqueuesCounters(t *testing.T) {
	e := newEnv(t)
	user := testutil.EmployeeUser(e.company.ID, e.company.Key, e.dept.Name)

	e.submit(t, user, defaultFields())
	e.drainCounters(t)

	got := e.counter.collections()
	want := map[string]bool{"departments": false, "companies": false, "users": false}
	for _, coll := range got {
		want[coll] = true
	}
	for coll, seen := range want {
		if !seen {
			t.Errorf("expected a %s counter update, applied: %v", coll, got)
		}
	}
}

func TestHandleView_Visibility(t *testing.T) {
	e := newEnv(t)
	submitter := testutil.EmployeeUser(e.company.ID, e.company.Key, e.dept.Name)
	c := e.submit(t, submitter, defaultFields())

	view := func(user testutil.TestUser) int {
		req := testutil.NewAuthenticatedRequest(http.MethodGet, "/"+c.ComplaintID, user)
		req = testutil.WithChiURLParam(req, "complaintID", c.ComplaintID)
		rec := httptest.NewRecorder()
		e.h.HandleView(rec, req)
		return rec.Code
	}

	if code := view(submitter); code != http.StatusOK {
		t.Errorf("submitter: expected 200, got %d", code)
	}
	if code := view(testutil.AdminUser(e.company.ID, e.company.Key)); code != http.StatusOK {
		t.Errorf("company admin: expected 200, got %d", code)
	}

	sameDept := testutil.EmployeeUser(e.company.ID, e.company.Key, e.dept.Name)
	if code := view(sameDept); code != http.StatusOK {
		t.Errorf("same-department employee: expected 200, got %d", code)
	}

	otherDept := testutil.EmployeeUser(e.company.ID, e.company.Key, "Facilities")
	if code := view(otherDept); code != http.StatusNotFound {
		t.Errorf("other-department employee: expected 404, got %d", code)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	rival := e.fx.CreateCompany(ctx, "Rival Inc")
	outsider := testutil.AdminUser(rival.ID, rival.Key)
	if code := view(outsider); code != http.StatusNotFound {
		t.Errorf("other company: expected 404, got %d", code)
	}
}

func TestHandleView_GlobalVisibleAcrossDepartments(t *testing.T) {
	e := newEnv(t)
	submitter := testutil.EmployeeUser(e.company.ID, e.company.Key, e.dept.Name)

	fields := defaultFields()
	fields["is_global"] = "true"
	c := e.submit(t, submitter, fields)

	otherDept := testutil.EmployeeUser(e.company.ID, e.company.Key, "Facilities")
	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/"+c.ComplaintID, otherDept)
	req = testutil.WithChiURLParam(req, "complaintID", c.ComplaintID)
	rec := httptest.NewRecorder()
	e.h.HandleView(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for company-wide complaint, got %d", rec.Code)
	}
}

func TestHandleStatus_AdminTransition(t *testing.T) {
	e := newEnv(t)
	submitter := testutil.EmployeeUser(e.company.ID, e.company.Key, e.dept.Name)
	c := e.submit(t, submitter, defaultFields())

	admin := testutil.AdminUser(e.company.ID, e.company.Key)
	body := bytes.NewBufferString(`{"status":"resolved","reason":"replaced the rollers"}`)
	req := httptest.NewRequest(http.MethodPatch, "/"+c.ComplaintID+"/status", body)
	req.Header.Set("Content-Type", "application/json")
	req = testutil.WithUser(req, admin)
	req = testutil.WithChiURLParam(req, "complaintID", c.ComplaintID)

	rec := httptest.NewRecorder()
	e.h.HandleStatus(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var updated models.Complaint
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if updated.Status != models.StatusResolved {
		t.Errorf("expected resolved, got %q", updated.Status)
	}
	if len(updated.StatusHistory) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(updated.StatusHistory))
	}
	last := updated.StatusHistory[1]
	if last.ChangedBy != admin.ID || last.Reason != "replaced the rollers" {
		t.Errorf("unexpected history entry: %+v", last)
	}

	// open -> resolved decrements the open counters.
	e.drainCounters(t)
	sawDecrement := false
	e.counter.mu.Lock()
	for _, u := range e.counter.updates {
		if u.Collection == "departments" {
			if open, ok := u.Inc["open_complaints"].(int64); ok && open == -1 {
				sawDecrement = true
			}
		}
	}
	e.counter.mu.Unlock()
	if !sawDecrement {
		t.Error("expected a department open-counter decrement")
	}
}

func TestHandleStatus_EmployeeForbidden(t *testing.T) {
	e := newEnv(t)
	submitter := testutil.EmployeeUser(e.company.ID, e.company.Key, e.dept.Name)
	c := e.submit(t, submitter, defaultFields())

	body := bytes.NewBufferString(`{"status":"closed"}`)
	req := httptest.NewRequest(http.MethodPatch, "/"+c.ComplaintID+"/status", body)
	req.Header.Set("Content-Type", "application/json")
	req = testutil.WithUser(req, submitter)
	req = testutil.WithChiURLParam(req, "complaintID", c.ComplaintID)

	rec := httptest.NewRecorder()
	e.h.HandleStatus(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestHandleStatus_InvalidValue(t *testing.T) {
	e := newEnv(t)
	submitter := testutil.EmployeeUser(e.company.ID, e.company.Key, e.dept.Name)
	c := e.submit(t, submitter, defaultFields())

	admin := testutil.AdminUser(e.company.ID, e.company.Key)
	body := bytes.NewBufferString(`{"status":"escalated"}`)
	req := httptest.NewRequest(http.MethodPatch, "/"+c.ComplaintID+"/status", body)
	req.Header.Set("Content-Type", "application/json")
	req = testutil.WithUser(req, admin)
	req = testutil.WithChiURLParam(req, "complaintID", c.ComplaintID)

	rec := httptest.NewRecorder()
	e.h.HandleStatus(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleDelete_SubmitterAndAdmin(t *testing.T) {
	e := newEnv(t)
	submitter := testutil.EmployeeUser(e.company.ID, e.company.Key, e.dept.Name)
	c := e.submit(t, submitter, defaultFields())

	del := func(user testutil.TestUser, id string) int {
		req := testutil.NewAuthenticatedRequest(http.MethodDelete, "/"+id, user)
		req = testutil.WithChiURLParam(req, "complaintID", id)
		rec := httptest.NewRecorder()
		e.h.HandleDelete(rec, req)
		return rec.Code
	}

	// A different employee cannot delete someone else's complaint.
	other := testutil.EmployeeUser(e.company.ID, e.company.Key, e.dept.Name)
	if code := del(other, c.ComplaintID); code != http.StatusForbidden {
		t.Fatalf("other employee: expected 403, got %d", code)
	}

	if code := del(submitter, c.ComplaintID); code != http.StatusOK {
		t.Fatalf("submitter: expected 200, got %d", code)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if _, err := e.h.Complaints.GetByID(ctx, c.ComplaintID); err != complaintstore.ErrNotFound {
		t.Fatalf("expected complaint gone, got err=%v", err)
	}

	// Admins can delete any company complaint.
	c2 := e.submit(t, submitter, defaultFields())
	admin := testutil.AdminUser(e.company.ID, e.company.Key)
	if code := del(admin, c2.ComplaintID); code != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d", code)
	}
}

func TestHandleList_EmployeeScoping(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	facilities := e.fx.CreateDepartment(ctx, "Facilities", e.company.ID)

	techUser := testutil.EmployeeUser(e.company.ID, e.company.Key, e.dept.Name)
	facUser := testutil.EmployeeUser(e.company.ID, e.company.Key, facilities.Name)

	// One department complaint in each department, one company-wide.
	e.submit(t, techUser, defaultFields())

	facFields := defaultFields()
	facFields["title"] = "Broken elevator"
	facFields["category"] = "Facilities"
	e.submit(t, facUser, facFields)

	globalFields := defaultFields()
	globalFields["title"] = "Parking lot lighting"
	globalFields["is_global"] = "true"
	e.submit(t, techUser, globalFields)

	list := func(user testutil.TestUser, query string) []models.Complaint {
		req := testutil.NewAuthenticatedRequest(http.MethodGet, "/"+query, user)
		rec := httptest.NewRecorder()
		e.h.HandleList(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("list returned %d: %s", rec.Code, rec.Body.String())
		}
		var out []models.Complaint
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode list: %v", err)
		}
		return out
	}

	// Tech employee: own department complaint plus the company-wide one.
	got := list(techUser, "")
	if len(got) != 2 {
		t.Fatalf("tech employee: expected 2 visible, got %d", len(got))
	}
	for _, c := range got {
		if !c.IsGlobal && c.AssignedDepartment.SanitizedName != e.dept.SanitizedName {
			t.Errorf("tech employee sees foreign complaint %q", c.Title)
		}
	}

	// Admin sees all three.
	admin := testutil.AdminUser(e.company.ID, e.company.Key)
	if got := list(admin, ""); len(got) != 3 {
		t.Fatalf("admin: expected 3 visible, got %d", len(got))
	}

	// Scope filter narrows to company-wide only.
	if got := list(techUser, "?scope=global"); len(got) != 1 || !got[0].IsGlobal {
		t.Fatalf("scope=global: expected just the company-wide complaint, got %d", len(got))
	}
}

func TestHandleSearch_EmployeeFilter(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	facilities := e.fx.CreateDepartment(ctx, "Facilities", e.company.ID)

	techUser := testutil.EmployeeUser(e.company.ID, e.company.Key, e.dept.Name)
	facUser := testutil.EmployeeUser(e.company.ID, e.company.Key, facilities.Name)

	e.submit(t, techUser, defaultFields())

	facFields := defaultFields()
	facFields["title"] = "Printer room flooding"
	facFields["category"] = "Facilities"
	e.submit(t, facUser, facFields)

	search := func(user testutil.TestUser, q string) []models.SearchEntry {
		req := testutil.NewAuthenticatedRequest(http.MethodGet, "/search?q="+q, user)
		rec := httptest.NewRecorder()
		e.h.HandleSearch(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("search returned %d: %s", rec.Code, rec.Body.String())
		}
		var out []models.SearchEntry
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode search: %v", err)
		}
		return out
	}

	// Both complaints mention "printer", but the tech employee only sees
	// their own department's.
	got := search(techUser, "printer")
	if len(got) != 1 {
		t.Fatalf("tech employee: expected 1 hit, got %d", len(got))
	}

	admin := testutil.AdminUser(e.company.ID, e.company.Key)
	if got := search(admin, "printer"); len(got) != 2 {
		t.Fatalf("admin: expected 2 hits, got %d", len(got))
	}
}
