package statqueue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type recorder struct {
	mu      sync.Mutex
	applied []Update
	fail    bool
}

func (r *recorder) apply(_ context.Context, u Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("backend down")
	}
	r.applied = append(r.applied, u)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.applied)
}

func TestQueue_AppliesUpdates(t *testing.T) {
	rec := &recorder{}
	q := New(rec.apply, 16, zap.NewNop())
	q.Start(context.Background())

	deptID := primitive.NewObjectID()
	companyID := primitive.NewObjectID()
	userID := primitive.NewObjectID()

	q.Enqueue(
		DepartmentCounters(deptID, 1, 1),
		CompanyCounters(companyID, 1, 1),
		UserSubmitted(userID),
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	q.Stop(ctx)

	if got := rec.count(); got != 3 {
		t.Fatalf("applied %d updates, want 3", got)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.applied[0].Collection != "departments" {
		t.Errorf("first update collection = %q", rec.applied[0].Collection)
	}
	if rec.applied[1].Inc["stats.total_complaints"] != int64(1) {
		t.Errorf("company inc = %v", rec.applied[1].Inc)
	}
	if rec.applied[2].Inc["complaint_stats.total_submitted"] != int64(1) {
		t.Errorf("user inc = %v", rec.applied[2].Inc)
	}
}

func TestQueue_ApplyFailureIsSwallowed(t *testing.T) {
	rec := &recorder{fail: true}
	q := New(rec.apply, 4, zap.NewNop())
	q.Start(context.Background())

	// Must not panic or block even when every apply fails.
	q.Enqueue(UserSubmitted(primitive.NewObjectID()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	q.Stop(ctx)
}

func TestQueue_FullBufferDropsWithoutBlocking(t *testing.T) {
	// No worker started: the buffer fills and extra updates are dropped.
	q := New(func(context.Context, Update) error { return nil }, 2, zap.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			q.Enqueue(UserSubmitted(primitive.NewObjectID()))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}
