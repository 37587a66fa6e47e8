// Package oauthstatestore persists short-lived OAuth state tokens so
// the callback can verify the flow originated here.
package oauthstatestore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type record struct {
	State     string    `bson:"state"`
	ReturnURL string    `bson:"return_url"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("oauth_states")}
}

// Save stores a state token with its expiry.
func (s *Store) Save(ctx context.Context, state, returnURL string, expiresAt time.Time) error {
	_, err := s.c.InsertOne(ctx, record{
		State:     state,
		ReturnURL: returnURL,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	})
	return err
}

// Validate consumes a state token. Returns the stored return URL and
// whether the token was present and unexpired. Tokens are single-use.
func (s *Store) Validate(ctx context.Context, state string) (returnURL string, valid bool, err error) {
	var rec record
	err = s.c.FindOneAndDelete(ctx, bson.M{"state": state}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if time.Now().UTC().After(rec.ExpiresAt) {
		return "", false, nil
	}
	return rec.ReturnURL, true, nil
}
