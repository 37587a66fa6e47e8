// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/crewvoice/crewvoice/internal/app/system/hub"
	"github.com/crewvoice/crewvoice/internal/app/system/limits"
	"github.com/crewvoice/crewvoice/internal/app/system/statqueue"
	"github.com/crewvoice/crewvoice/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// runtime holds long-lived background components created during Startup
// and shared with BuildHandler and Shutdown. Their goroutines outlive
// the startup context, so they run on their own cancelable context.
var runtime struct {
	cancel context.CancelFunc
	stats  *statqueue.Queue
	hub    *hub.Hub
	relay  *hub.RedisRelay
}

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
// It seeds the superadmin account and launches the background workers:
// the advisory counter queue, the notification hub, and (when Redis is
// configured) the cross-instance relay.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	limits.SetMaxAttachmentBytes(appCfg.MaxAttachmentBytes)

	if appCfg.SuperAdminEmail != "" {
		if err := ensureSuperAdmin(ctx, deps, appCfg.SuperAdminEmail, appCfg.SuperAdminName, logger); err != nil {
			return err
		}
	}

	bg, cancel := context.WithCancel(context.Background())
	runtime.cancel = cancel

	runtime.stats = statqueue.New(
		statqueue.MongoApplier(deps.MongoDatabase),
		appCfg.StatQueueSize,
		logger,
	)
	runtime.stats.Start(bg)

	runtime.hub = hub.New(logger)
	if appCfg.RedisAddr != "" {
		relay := hub.NewRedisRelay(appCfg.RedisAddr, appCfg.RedisPassword, appCfg.RedisChannel, logger)
		if err := relay.Ping(ctx); err != nil {
			// The relay is an enhancement, not a dependency: without it
			// each instance still delivers its own events.
			logger.Warn("redis relay unreachable, running without cross-instance delivery",
				zap.String("addr", appCfg.RedisAddr), zap.Error(err))
			_ = relay.Close()
		} else {
			runtime.relay = relay
			runtime.hub.SetRelay(relay)
			logger.Info("redis relay connected", zap.String("addr", appCfg.RedisAddr))
		}
	}
	runtime.hub.Run(bg)

	return nil
}

// ensureSuperAdmin guarantees exactly the configured account holds the
// superadmin role: a missing account is created (Google sign-in, no
// password), an existing one is promoted, a current superadmin is left
// untouched.
func ensureSuperAdmin(ctx context.Context, deps DBDeps, email, name string, logger *zap.Logger) error {
	coll := deps.MongoDatabase.Collection("users")
	folded := text.Fold(email)

	var existing models.User
	err := coll.FindOne(ctx, bson.M{"email": folded}).Decode(&existing)
	if err == mongo.ErrNoDocuments {
		now := time.Now().UTC()
		user := models.User{
			ID:         primitive.NewObjectID(),
			FullName:   name,
			FullNameCI: text.Fold(name),
			Email:      folded,
			AuthMethod: "google",
			Role:       "superadmin",
			Status:     "active",
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if _, err := coll.InsertOne(ctx, user); err != nil {
			return err
		}
		logger.Info("superadmin account created", zap.String("email", folded))
		return nil
	}
	if err != nil {
		return err
	}

	if existing.Role == "superadmin" {
		return nil
	}

	update := bson.M{
		"$set": bson.M{
			"role":       "superadmin",
			"status":     "active",
			"updated_at": time.Now().UTC(),
		},
		"$unset": bson.M{
			"company_id":    "",
			"department_id": "",
		},
	}
	if _, err := coll.UpdateOne(ctx, bson.M{"_id": existing.ID}, update); err != nil {
		return err
	}
	logger.Info("existing account promoted to superadmin",
		zap.String("email", folded),
		zap.String("previous_role", existing.Role))
	return nil
}
