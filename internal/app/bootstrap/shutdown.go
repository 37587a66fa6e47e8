// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown cleanly tears down background workers and DB connections.
// The counter queue drains first so increments for already-committed
// complaints are not lost on a clean stop.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if runtime.stats != nil {
		logger.Info("draining counter queue")
		runtime.stats.Stop(ctx)
	}

	if runtime.relay != nil {
		if err := runtime.relay.Close(); err != nil {
			logger.Warn("redis relay close failed", zap.Error(err))
		}
	}

	if runtime.cancel != nil {
		runtime.cancel()
	}

	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
