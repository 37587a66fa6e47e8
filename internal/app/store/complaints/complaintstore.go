// Package complaintstore is the complaint fan-out writer: it commits
// the three denormalized copies of a complaint (canonical, flat list,
// search index) in one atomic batch, serves the filtered reads behind
// the list and search screens, applies status transitions to all
// copies, and deletes all copies together.
package complaintstore

import (
	"context"
	"errors"
	"strings"

	"github.com/crewvoice/crewvoice/internal/app/system/txn"
	"github.com/crewvoice/crewvoice/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Collection names for the three complaint copies.
const (
	CanonicalCollection = "complaints"
	FlatCollection      = "complaints_all"
	SearchCollection    = "complaints_search"
)

var ErrNotFound = errors.New("complaint not found")

type Store struct {
	client    *mongo.Client
	canonical *mongo.Collection
	flat      *mongo.Collection
	search    *mongo.Collection
	log       *zap.Logger
}

func New(db *mongo.Database, logger *zap.Logger) *Store {
	return &Store{
		client:    db.Client(),
		canonical: db.Collection(CanonicalCollection),
		flat:      db.Collection(FlatCollection),
		search:    db.Collection(SearchCollection),
		log:       logger,
	}
}

// Commit writes all three copies all-or-nothing. A crash before commit
// leaves zero trace; after commit, the full set exists. Counter
// increments are not part of this batch; they ride the fire-and-forget
// stat queue.
func (s *Store) Commit(ctx context.Context, f FanOut) error {
	return txn.WithTransaction(ctx, s.client, func(ctx context.Context) error {
		if _, err := s.canonical.InsertOne(ctx, f.Canonical); err != nil {
			return err
		}
		if _, err := s.flat.InsertOne(ctx, f.Flat); err != nil {
			return err
		}
		_, err := s.search.InsertOne(ctx, f.Search)
		return err
	})
}

// GetByID loads the canonical document.
func (s *Store) GetByID(ctx context.Context, complaintID string) (models.Complaint, error) {
	var c models.Complaint
	err := s.canonical.FindOne(ctx, bson.M{"complaint_id": complaintID}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return models.Complaint{}, ErrNotFound
	}
	if err != nil {
		return models.Complaint{}, err
	}
	return c, nil
}

// GetSearchEntry loads the search-index copy, which carries the
// back-pointer to the canonical document.
func (s *Store) GetSearchEntry(ctx context.Context, complaintID string) (models.SearchEntry, error) {
	var e models.SearchEntry
	err := s.search.FindOne(ctx, bson.M{"complaint_id": complaintID}).Decode(&e)
	if err == mongo.ErrNoDocuments {
		return models.SearchEntry{}, ErrNotFound
	}
	if err != nil {
		return models.SearchEntry{}, err
	}
	return e, nil
}

// ListFilter narrows the flat-collection list query.
type ListFilter struct {
	CompanyKey string
	Scope      string // "global", "department", or "" for both
	Department string // sanitized assigned-department name
	Status     string
	Urgency    string
	Limit      int64
}

// List reads from the flat copy, newest first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Complaint, error) {
	filter := bson.M{"company_key": f.CompanyKey}
	switch f.Scope {
	case "global":
		filter["is_global"] = true
	case "department":
		filter["is_global"] = false
	}
	if f.Department != "" {
		filter["assigned_department.sanitized_name"] = f.Department
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Urgency != "" {
		filter["urgency"] = f.Urgency
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cur, err := s.flat.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var complaints []models.Complaint
	if err := cur.All(ctx, &complaints); err != nil {
		return nil, err
	}
	return complaints, nil
}

// Search runs the naive substring search against the index copy.
func (s *Store) Search(ctx context.Context, companyKey, query string, limit int64) ([]models.SearchEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	filter := bson.M{
		"company_key": companyKey,
		"search_terms": bson.M{
			"$regex":   regexQuoteMeta(query),
			"$options": "i",
		},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cur, err := s.search.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var entries []models.SearchEntry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// UpdateStatus appends a history entry and updates the current status
// on every copy in one batch. Returns the updated canonical document.
func (s *Store) UpdateStatus(ctx context.Context, complaintID string, change models.StatusChange) (models.Complaint, error) {
	// Existence check doubles as the not-found error source.
	if _, err := s.GetByID(ctx, complaintID); err != nil {
		return models.Complaint{}, err
	}

	now := change.ChangedAt
	docUpdate := bson.M{
		"$set": bson.M{
			"status":        change.Status,
			"updated_at":    now,
			"last_modified": now,
		},
		"$push": bson.M{"status_history": change},
	}
	idFilter := bson.M{"complaint_id": complaintID}

	err := txn.WithTransaction(ctx, s.client, func(ctx context.Context) error {
		if _, err := s.canonical.UpdateOne(ctx, idFilter, docUpdate); err != nil {
			return err
		}
		if _, err := s.flat.UpdateOne(ctx, idFilter, docUpdate); err != nil {
			return err
		}
		_, err := s.search.UpdateOne(ctx, idFilter, bson.M{
			"$set": bson.M{"status": change.Status},
		})
		return err
	})
	if err != nil {
		return models.Complaint{}, err
	}

	return s.GetByID(ctx, complaintID)
}

// Delete removes every copy of a complaint. The search-index entry is
// read first to recover the canonical back-pointer. Attachment blobs
// are not deleted; they remain reachable under the complaint's storage
// prefix.
func (s *Store) Delete(ctx context.Context, complaintID string) (models.Complaint, error) {
	entry, err := s.GetSearchEntry(ctx, complaintID)
	if err != nil {
		return models.Complaint{}, err
	}

	// Load the canonical copy before removal so callers can announce
	// the deletion to live subscribers.
	c, err := s.GetByID(ctx, complaintID)
	if err != nil {
		return models.Complaint{}, err
	}

	idFilter := bson.M{"complaint_id": complaintID}
	err = txn.WithTransaction(ctx, s.client, func(ctx context.Context) error {
		if _, err := s.canonical.DeleteOne(ctx, bson.M{
			"complaint_id":      complaintID,
			"hierarchical_path": entry.HierarchicalPath,
		}); err != nil {
			return err
		}
		if _, err := s.search.DeleteOne(ctx, idFilter); err != nil {
			return err
		}
		_, err := s.flat.DeleteOne(ctx, idFilter)
		return err
	})
	if err != nil {
		return models.Complaint{}, err
	}

	s.log.Info("complaint deleted",
		zap.String("complaint_id", complaintID),
		zap.String("path", entry.HierarchicalPath))
	return c, nil
}

// regexQuoteMeta escapes regex metacharacters so user queries are
// matched literally.
func regexQuoteMeta(s string) string {
	const meta = `\.+*?()|[]{}^$`
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(meta, s[i]) >= 0 {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
