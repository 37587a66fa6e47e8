// internal/domain/models/department.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Department belongs to a company. SanitizedName is the lookup-safe form
// matched by the category resolver and embedded into complaint snapshots.
// The complaint writer treats departments as read-only except for the
// best-effort counter increments.
type Department struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	CompanyID     primitive.ObjectID `bson:"company_id" json:"company_id"`
	Name          string             `bson:"name" json:"name"`
	NameCI        string             `bson:"name_ci" json:"-"`
	SanitizedName string             `bson:"sanitized_name" json:"sanitized_name"`
	Roles         []string           `bson:"roles" json:"roles"`
	MemberCount   int                `bson:"member_count" json:"member_count"`
	Status        string             `bson:"status" json:"status"`

	TotalComplaints int64 `bson:"total_complaints" json:"total_complaints"`
	OpenComplaints  int64 `bson:"open_complaints" json:"open_complaints"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// DepartmentSnapshot is the frozen assignment record embedded in a
// complaint at creation time. For unmatched categories it degrades to a
// synthetic record carrying only the resolved name.
type DepartmentSnapshot struct {
	ID            string   `bson:"id" json:"id"`
	Name          string   `bson:"name" json:"name"`
	SanitizedName string   `bson:"sanitized_name" json:"sanitized_name"`
	Roles         []string `bson:"roles,omitempty" json:"roles,omitempty"`
	MemberCount   int      `bson:"member_count" json:"member_count"`
}
