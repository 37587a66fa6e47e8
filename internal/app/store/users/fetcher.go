// internal/app/store/users/fetcher.go
package userstore

import (
	"context"

	"github.com/crewvoice/crewvoice/internal/app/system/auth"
	"github.com/crewvoice/crewvoice/internal/app/system/timeouts"
	"github.com/crewvoice/crewvoice/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher implements auth.UserFetcher, loading fresh user plus company
// and department context on each request so role changes and disabled
// accounts take effect immediately.
type Fetcher struct {
	users     *mongo.Collection
	companies *mongo.Collection
	depts     *mongo.Collection
}

// NewFetcher creates a UserFetcher backed by the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{
		users:     db.Collection("users"),
		companies: db.Collection("companies"),
		depts:     db.Collection("departments"),
	}
}

// FetchUser returns nil if the user is missing, disabled, or any error
// occurs; anonymous is the safe fallback.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var u models.User
	if err := f.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&u); err != nil {
		return nil
	}
	if u.Status == "disabled" {
		return nil
	}

	su := &auth.SessionUser{
		ID:          u.ID.Hex(),
		Name:        u.FullName,
		Email:       u.Email,
		Role:        u.Role,
		Designation: u.Designation,
	}

	if u.CompanyID != nil {
		su.CompanyID = u.CompanyID.Hex()

		var company models.Company
		proj := options.FindOne().SetProjection(bson.M{"name": 1, "key": 1})
		if err := f.companies.FindOne(ctx, bson.M{"_id": u.CompanyID}, proj).Decode(&company); err == nil {
			su.CompanyName = company.Name
			su.CompanyKey = company.Key
		}
		// A failed company read still yields a usable user.
	}

	if u.DepartmentID != nil {
		su.DepartmentID = u.DepartmentID.Hex()

		var dept models.Department
		proj := options.FindOne().SetProjection(bson.M{"name": 1})
		if err := f.depts.FindOne(ctx, bson.M{"_id": u.DepartmentID}, proj).Decode(&dept); err == nil {
			su.Department = dept.Name
		}
	}

	return su
}
