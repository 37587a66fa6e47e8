// internal/app/store/companies/companystore.go
package companystore

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

var ErrDuplicateCompany = errors.New("a company with this name already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("companies")}
}

// Create inserts a company, deriving the folded name and the sanitized
// key used as the path segment in complaint hierarchical paths.
func (s *Store) Create(ctx context.Context, company models.Company) (models.Company, error) {
	now := time.Now().UTC()
	company.ID = primitive.NewObjectID()
	company.NameCI = text.Fold(company.Name)
	company.Key = categories.Sanitize(company.Name)
	if company.Status == "" {
		company.Status = "active"
	}
	company.CreatedAt = now
	company.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, company); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Company{}, ErrDuplicateCompany
		}
		return models.Company{}, err
	}
	return company, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Company, error) {
	var company models.Company
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&company)
	if err != nil {
		return models.Company{}, err
	}
	return company, nil
}

// GetByKey looks a company up by its sanitized key.
func (s *Store) GetByKey(ctx context.Context, key string) (models.Company, error) {
	var company models.Company
	err := s.c.FindOne(ctx, bson.M{"key": key}).Decode(&company)
	if err != nil {
		return models.Company{}, err
	}
	return company, nil
}

// Update modifies mutable fields and refreshes UpdatedAt. The sanitized
// key is intentionally immutable: complaint paths embed it.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, company models.Company) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if company.Name != "" {
		set["name"] = company.Name
		set["name_ci"] = text.Fold(company.Name)
	}
	if company.Status != "" {
		set["status"] = company.Status
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil && wafflemongo.IsDup(err) {
		return ErrDuplicateCompany
	}
	return err
}

// Delete removes a company. Returns the number of documents deleted.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// List returns companies matching the filter.
func (s *Store) List(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Company, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var companies []models.Company
	if err := cur.All(ctx, &companies); err != nil {
		return nil, err
	}
	return companies, nil
}
