package testutil

import (
	"net/http"
	"net/http/httptest"

	"github.com/crewvoice/crewvoice/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID         string
	Name       string
	Email      string
	Role       string
	CompanyID  string
	CompanyKey string
	Department string
}

// SuperadminUser returns a TestUser with superadmin role.
func SuperadminUser() TestUser {
	return TestUser{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Test Superadmin",
		Email: "superadmin@test.com",
		Role:  "superadmin",
	}
}

// AdminUser returns a TestUser with admin role in the given company.
func AdminUser(companyID primitive.ObjectID, companyKey string) TestUser {
	return TestUser{
		ID:         primitive.NewObjectID().Hex(),
		Name:       "Test Admin",
		Email:      "admin@test.com",
		Role:       "admin",
		CompanyID:  companyID.Hex(),
		CompanyKey: companyKey,
	}
}

// EmployeeUser returns a TestUser with employee role in the given
// company and department.
func EmployeeUser(companyID primitive.ObjectID, companyKey, department string) TestUser {
	return TestUser{
		ID:         primitive.NewObjectID().Hex(),
		Name:       "Test Employee",
		Email:      "employee@test.com",
		Role:       "employee",
		CompanyID:  companyID.Hex(),
		CompanyKey: companyKey,
		Department: department,
	}
}

// WithUser adds a user to the request context for testing authenticated handlers.
// This bypasses the session middleware and injects the user directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	sessionUser := &auth.SessionUser{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		CompanyID:  user.CompanyID,
		CompanyKey: user.CompanyKey,
		Department: user.Department,
	}
	return auth.WithTestUser(r, sessionUser)
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return WithUser(req, user)
}
