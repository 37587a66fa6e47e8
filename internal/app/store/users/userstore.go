// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/crewvoice/crewvoice/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrDuplicateEmail = errors.New("an account with this email already exists")
	ErrNotFound       = errors.New("user not found")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// Create inserts a user. A non-empty password is hashed with bcrypt;
// Google-provisioned accounts pass an empty password and auth_method
// "google".
func (s *Store) Create(ctx context.Context, user models.User, password string) (models.User, error) {
	now := time.Now().UTC()
	user.ID = primitive.NewObjectID()
	user.FullNameCI = text.Fold(user.FullName)
	user.Email = text.Fold(user.Email)
	if user.Status == "" {
		user.Status = "active"
	}
	if user.AuthMethod == "" {
		user.AuthMethod = "password"
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return models.User{}, err
		}
		user.PasswordHash = string(hash)
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, user); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var user models.User
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := s.c.FindOne(ctx, bson.M{"email": text.Fold(email)}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Authenticate checks an email/password pair and returns the user on
// success. Disabled accounts and Google-only accounts fail.
func (s *Store) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		return models.User{}, err
	}
	if user.Status == "disabled" || user.PasswordHash == "" {
		return models.User{}, ErrNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

// Update modifies mutable profile fields.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, user models.User) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if user.FullName != "" {
		set["full_name"] = user.FullName
		set["full_name_ci"] = text.Fold(user.FullName)
	}
	if user.Role != "" {
		set["role"] = user.Role
	}
	if user.Designation != "" {
		set["designation"] = user.Designation
	}
	if user.Status != "" {
		set["status"] = user.Status
	}
	if user.DepartmentID != nil {
		set["department_id"] = user.DepartmentID
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// SetPassword replaces the stored bcrypt hash.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"password_hash": string(hash),
		"updated_at":    time.Now().UTC(),
	}})
	return err
}

// List returns users matching the filter.
func (s *Store) List(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.User, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Delete removes a user. Returns the number of documents deleted.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
