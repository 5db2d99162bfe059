// internal/app/store/errorlogs/errorlogstore.go
package errorlogstore

import (
	"context"
	"time"

	"github.com/dalemusser/fieldops/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("error_logs")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "reference", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_reference")},
		{Keys: bson.D{{Key: "resolved", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_resolved_created")},
	})
	return err
}

// Insert stores one captured error.
func (s *Store) Insert(ctx context.Context, e models.ErrorLog) (models.ErrorLog, error) {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, e)
	return e, err
}

// GetByReference finds an error by the code shown to the user.
func (s *Store) GetByReference(ctx context.Context, ref string) (models.ErrorLog, error) {
	var e models.ErrorLog
	err := s.c.FindOne(ctx, bson.M{"reference": ref}).Decode(&e)
	return e, err
}

// List returns errors newest first. With unresolvedOnly set, resolved
// entries are skipped.
func (s *Store) List(ctx context.Context, unresolvedOnly bool, limit, offset int64) ([]models.ErrorLog, error) {
	filter := bson.M{}
	if unresolvedOnly {
		filter["resolved"] = false
	}
	if limit <= 0 {
		limit = 50
	}
	cur, err := s.c.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.ErrorLog
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns how many errors match the resolved filter.
func (s *Store) Count(ctx context.Context, unresolvedOnly bool) (int64, error) {
	filter := bson.M{}
	if unresolvedOnly {
		filter["resolved"] = false
	}
	return s.c.CountDocuments(ctx, filter)
}

// Resolve marks an error as handled by email.
func (s *Store) Resolve(ctx context.Context, id primitive.ObjectID, email string) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"resolved":    true,
		"resolved_by": email,
		"resolved_at": now,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// PurgeResolvedBefore deletes resolved errors older than cutoff.
func (s *Store) PurgeResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"resolved": true, "created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
