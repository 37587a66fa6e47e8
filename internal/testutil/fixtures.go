package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/crewvoice/crewvoice/internal/app/system/categories"
	"github.com/crewvoice/crewvoice/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateCompany creates a test company with the given name.
// Returns the created company with its generated ID.
func (f *Fixtures) CreateCompany(ctx context.Context, name string) models.Company {
	f.t.Helper()

	now := time.Now().UTC()
	company := models.Company{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Key:       categories.Sanitize(name),
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := f.db.Collection("companies").InsertOne(ctx, company)
	if err != nil {
		f.t.Fatalf("failed to create test company: %v", err)
	}

	return company
}

// CreateDepartment creates a test department in the given company.
func (f *Fixtures) CreateDepartment(ctx context.Context, name string, companyID primitive.ObjectID) models.Department {
	f.t.Helper()

	now := time.Now().UTC()
	dept := models.Department{
		ID:            primitive.NewObjectID(),
		CompanyID:     companyID,
		Name:          name,
		NameCI:        text.Fold(name),
		SanitizedName: categories.Sanitize(name),
		Roles:         []string{},
		Status:        "active",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := f.db.Collection("departments").InsertOne(ctx, dept)
	if err != nil {
		f.t.Fatalf("failed to create test department: %v", err)
	}

	return dept
}

// CreateUser creates a test user with the given role. Company and
// department are optional.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string, companyID, deptID *primitive.ObjectID) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:           primitive.NewObjectID(),
		FullName:     fullName,
		FullNameCI:   text.Fold(fullName),
		Email:        text.Fold(email),
		AuthMethod:   "password",
		Role:         role,
		Status:       "active",
		CompanyID:    companyID,
		DepartmentID: deptID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateEmployee creates a test employee in the given company and department.
func (f *Fixtures) CreateEmployee(ctx context.Context, fullName, email string, companyID, deptID primitive.ObjectID) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "employee", &companyID, &deptID)
}

// CreateAdmin creates a test admin user in the given company.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string, companyID primitive.ObjectID) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "admin", &companyID, nil)
}

// SubmitterFor builds a submitter snapshot from a fixture user.
func (f *Fixtures) SubmitterFor(user models.User, companyName, deptName string) models.SubmitterSnapshot {
	f.t.Helper()
	return models.SubmitterSnapshot{
		ID:          user.ID.Hex(),
		Name:        user.FullName,
		Email:       user.Email,
		Company:     companyName,
		Department:  deptName,
		Role:        user.Role,
		Designation: user.Designation,
	}
}
