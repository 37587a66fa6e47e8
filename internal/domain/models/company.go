// internal/domain/models/company.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Company is a tenant in the complaint system. Key is the sanitized,
// lookup-safe form of the name used as a path segment in complaint
// hierarchical paths; NameCI is the folded form used for search/sort.
type Company struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Name      string             `bson:"name" json:"name"`
	NameCI    string             `bson:"name_ci" json:"-"`
	Key       string             `bson:"key" json:"key"`
	Status    string             `bson:"status" json:"status"`
	Stats     CompanyStats       `bson:"stats" json:"stats"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// CompanyStats holds advisory aggregate counters. They are incremented
// best-effort after a complaint commits and may drift under failure.
type CompanyStats struct {
	TotalComplaints int64 `bson:"total_complaints" json:"total_complaints"`
	OpenComplaints  int64 `bson:"open_complaints" json:"open_complaints"`
}
