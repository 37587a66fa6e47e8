// internal/app/store/departments/departmentstore.go
package departmentstore

import (
	"context"
	"errors"
	"time"

	"github.com/crewvoice/crewvoice/internal/app/system/categories"
	"github.com/crewvoice/crewvoice/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrDuplicateDepartment = errors.New("a department with this name already exists in the company")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("departments")}
}

// Create inserts a department under a company.
func (s *Store) Create(ctx context.Context, dept models.Department) (models.Department, error) {
	now := time.Now().UTC()
	dept.ID = primitive.NewObjectID()
	dept.NameCI = text.Fold(dept.Name)
	dept.SanitizedName = categories.Sanitize(dept.Name)
	if dept.Status == "" {
		dept.Status = "active"
	}
	if dept.Roles == nil {
		dept.Roles = []string{}
	}
	dept.CreatedAt = now
	dept.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, dept); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Department{}, ErrDuplicateDepartment
		}
		return models.Department{}, err
	}
	return dept, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Department, error) {
	var dept models.Department
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&dept)
	if err != nil {
		return models.Department{}, err
	}
	return dept, nil
}

// ActiveForCompany loads the company's active departments, the list the
// category resolver matches against. Ordered by folded name so the
// fallback "first department" choice is deterministic.
func (s *Store) ActiveForCompany(ctx context.Context, companyID primitive.ObjectID) ([]models.Department, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"company_id": companyID, "status": "active"}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var depts []models.Department
	if err := cur.All(ctx, &depts); err != nil {
		return nil, err
	}
	return depts, nil
}

// Update modifies mutable fields. Renames refresh the folded and
// sanitized forms; existing complaint snapshots keep the old values by
// design (snapshots are frozen at creation).
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, dept models.Department) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if dept.Name != "" {
		set["name"] = dept.Name
		set["name_ci"] = text.Fold(dept.Name)
		set["sanitized_name"] = categories.Sanitize(dept.Name)
	}
	if dept.Status != "" {
		set["status"] = dept.Status
	}
	if dept.Roles != nil {
		set["roles"] = dept.Roles
	}
	if dept.MemberCount > 0 {
		set["member_count"] = dept.MemberCount
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil && wafflemongo.IsDup(err) {
		return ErrDuplicateDepartment
	}
	return err
}

// Delete removes a department. Returns the number of documents deleted.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// List returns departments matching the filter.
func (s *Store) List(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Department, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var depts []models.Department
	if err := cur.All(ctx, &depts); err != nil {
		return nil, err
	}
	return depts, nil
}
