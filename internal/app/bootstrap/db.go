// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	complaintstore "github.com/crewvoice/crewvoice/internal/app/store/complaints"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ConnectDB establishes the MongoDB connection used by every store.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase))

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates the indexes the stores rely on. Index creation
// is idempotent; existing matching indexes are left alone.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	unique := options.Index().SetUnique(true)

	indexes := map[string][]mongo.IndexModel{
		"companies": {
			{Keys: bson.D{{Key: "key", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "name_ci", Value: 1}}, Options: unique},
		},
		"departments": {
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "name_ci", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "status", Value: 1}}},
		},
		"users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "company_id", Value: 1}}},
		},
		complaintstore.CanonicalCollection: {
			{Keys: bson.D{{Key: "complaint_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "hierarchical_path", Value: 1}}},
			{Keys: bson.D{{Key: "company_key", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		complaintstore.FlatCollection: {
			{Keys: bson.D{{Key: "complaint_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "company_key", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		complaintstore.SearchCollection: {
			{Keys: bson.D{{Key: "complaint_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "company_key", Value: 1}, {Key: "search_terms", Value: 1}}},
		},
		"oauth_states": {
			{Keys: bson.D{{Key: "state", Value: 1}}, Options: unique},
			// Mongo reaps expired states; Validate also checks expiry so
			// the lazy TTL sweep cannot admit a stale state.
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}

	logger.Info("database indexes ensured")
	return nil
}
