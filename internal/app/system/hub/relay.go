// internal/app/system/hub/relay.go
package hub

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisRelay re-broadcasts hub events across instances through a Redis
// Pub/Sub channel, so a complaint submitted against one instance is
// observed by subscribers connected to another.
type RedisRelay struct {
	rdb     *redis.Client
	channel string
	log     *zap.Logger
}

// NewRedisRelay connects a relay to the given Redis address.
func NewRedisRelay(addr, password, channel string, logger *zap.Logger) *RedisRelay {
	return &RedisRelay{
		rdb:     redis.NewClient(&redis.Options{Addr: addr, Password: password}),
		channel: channel,
		log:     logger,
	}
}

// Client exposes the underlying Redis client for health checks.
func (r *RedisRelay) Client() *redis.Client {
	return r.rdb
}

// Ping verifies connectivity at startup.
func (r *RedisRelay) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close releases the underlying client.
func (r *RedisRelay) Close() error {
	return r.rdb.Close()
}

// Publish sends an event to the shared channel.
func (r *RedisRelay) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return r.rdb.Publish(ctx, r.channel, payload).Err()
}

// Listen consumes the shared channel until ctx is done, handing each
// decoded event to deliver. Malformed payloads are logged and skipped.
func (r *RedisRelay) Listen(ctx context.Context, deliver func(Event)) {
	pubsub := r.rdb.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				r.log.Warn("relay payload unmarshal failed", zap.Error(err))
				continue
			}
			deliver(ev)
		}
	}
}
