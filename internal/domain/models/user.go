// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents superadmins, company admins, and employees.
//
// PasswordHash is empty for Google-authenticated accounts (AuthMethod
// "google"). DepartmentID is nil for company admins and superadmins.
type User struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FullName     string              `bson:"full_name" json:"full_name"`
	FullNameCI   string              `bson:"full_name_ci" json:"-"`
	Email        string              `bson:"email" json:"email"`
	PasswordHash string              `bson:"password_hash,omitempty" json:"-"`
	AuthMethod   string              `bson:"auth_method,omitempty" json:"auth_method,omitempty"`
	Role         string              `bson:"role" json:"role"` // superadmin | admin | employee
	Designation  string              `bson:"designation,omitempty" json:"designation,omitempty"`
	Status       string              `bson:"status,omitempty" json:"status,omitempty"`
	CompanyID    *primitive.ObjectID `bson:"company_id,omitempty" json:"company_id,omitempty"`
	DepartmentID *primitive.ObjectID `bson:"department_id,omitempty" json:"department_id,omitempty"`

	ComplaintStats UserComplaintStats `bson:"complaint_stats" json:"complaint_stats"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// UserComplaintStats is an advisory per-user counter, incremented
// best-effort when a submission commits.
type UserComplaintStats struct {
	TotalSubmitted int64 `bson:"total_submitted" json:"total_submitted"`
}

// SubmitterSnapshot is the provenance record embedded in a complaint:
// a copy of the creating user at creation time, not a live reference.
type SubmitterSnapshot struct {
	ID          string `bson:"id" json:"id"`
	Name        string `bson:"name" json:"name"`
	Email       string `bson:"email" json:"email"`
	Company     string `bson:"company" json:"company"`
	Department  string `bson:"department,omitempty" json:"department,omitempty"`
	Role        string `bson:"role" json:"role"`
	Designation string `bson:"designation,omitempty" json:"designation,omitempty"`
}
