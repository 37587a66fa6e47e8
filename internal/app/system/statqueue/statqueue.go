// Package statqueue applies advisory counter increments off the
// complaint commit path. Counters (department totals, company totals,
// per-user submission counts) are fire-and-forget by contract: enqueue
// never blocks, a full queue drops the update, and apply failures are
// logged and discarded. The primary complaint documents are never
// affected by a counter failure, and drift under rare failure is
// accepted rather than corrected.
package statqueue

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Update is one increment-only, missing-target-tolerant counter write.
type Update struct {
	Collection string
	Filter     bson.M
	Inc        bson.M
}

// DepartmentCounters increments a department's complaint counters.
func DepartmentCounters(departmentID primitive.ObjectID, total, open int64) Update {
	return Update{
		Collection: "departments",
		Filter:     bson.M{"_id": departmentID},
		Inc:        bson.M{"total_complaints": total, "open_complaints": open},
	}
}

// CompanyCounters increments a company's aggregate complaint counters.
func CompanyCounters(companyID primitive.ObjectID, total, open int64) Update {
	return Update{
		Collection: "companies",
		Filter:     bson.M{"_id": companyID},
		Inc:        bson.M{"stats.total_complaints": total, "stats.open_complaints": open},
	}
}

// UserSubmitted increments a user's personal submission counter.
func UserSubmitted(userID primitive.ObjectID) Update {
	return Update{
		Collection: "users",
		Filter:     bson.M{"_id": userID},
		Inc:        bson.M{"complaint_stats.total_submitted": int64(1)},
	}
}

// Applier persists a single update. Split out so tests can observe
// applied updates without a database.
type Applier func(ctx context.Context, u Update) error

// MongoApplier applies updates with UpdateOne. A missing target matches
// zero documents and is a silent no-op.
func MongoApplier(db *mongo.Database) Applier {
	return func(ctx context.Context, u Update) error {
		_, err := db.Collection(u.Collection).UpdateOne(ctx, u.Filter, bson.M{"$inc": u.Inc})
		return err
	}
}

// Queue is the fire-and-forget worker.
type Queue struct {
	apply Applier
	ch    chan Update
	log   *zap.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
}

// New builds a queue with the given buffer size.
func New(apply Applier, size int, logger *zap.Logger) *Queue {
	if size <= 0 {
		size = 256
	}
	return &Queue{
		apply: apply,
		ch:    make(chan Update, size),
		log:   logger,
		done:  make(chan struct{}),
	}
}

// Start launches the worker goroutine. The worker drains remaining
// updates after Stop closes the queue.
func (q *Queue) Start(ctx context.Context) {
	q.startOnce.Do(func() {
		go func() {
			defer close(q.done)
			for u := range q.ch {
				if err := q.apply(ctx, u); err != nil {
					q.log.Warn("stat update dropped",
						zap.String("collection", u.Collection),
						zap.Error(err))
				}
			}
		}()
	})
}

// Enqueue submits updates without blocking. Updates that do not fit in
// the buffer are dropped and logged; the caller's operation has already
// succeeded and must not be held up.
func (q *Queue) Enqueue(updates ...Update) {
	for _, u := range updates {
		select {
		case q.ch <- u:
		default:
			q.log.Warn("stat queue full, dropping update",
				zap.String("collection", u.Collection))
		}
	}
}

// Stop closes the queue and waits for the worker to drain it, bounded
// by ctx.
func (q *Queue) Stop(ctx context.Context) {
	q.stopOnce.Do(func() { close(q.ch) })
	select {
	case <-q.done:
	case <-ctx.Done():
		q.log.Warn("stat queue drain timed out", zap.Error(ctx.Err()))
	}
}
