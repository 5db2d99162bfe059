// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"github.com/dalemusser/fieldops/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultLimit is used when a query does not set one.
const DefaultLimit = 100

// QueryFilter defines filters for querying audit entries.
type QueryFilter struct {
	CityIDs   []primitive.ObjectID // nil = any city
	Entity    string
	EntityID  *primitive.ObjectID
	Action    string
	UserEmail string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
	Offset    int64
}

// Store manages the append-only audit log.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_log")}
}

// EnsureIndexes creates necessary indexes for efficient querying.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "entity", Value: 1}, {Key: "entity_id", Value: 1}, {Key: "created_at", Value: -1}}},
		// History reconstruction reads deletes by the deleted record's day.
		{Keys: bson.D{{Key: "entity", Value: 1}, {Key: "action", Value: 1}, {Key: "before.date", Value: -1}}},
		{Keys: bson.D{{Key: "city_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_email", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Log appends an entry.
func (s *Store) Log(ctx context.Context, e models.AuditEntry) (models.AuditEntry, error) {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, e)
	return e, err
}

func buildQuery(f QueryFilter) bson.M {
	query := bson.M{}
	if f.CityIDs != nil {
		query["city_id"] = bson.M{"$in": f.CityIDs}
	}
	if f.Entity != "" {
		query["entity"] = f.Entity
	}
	if f.EntityID != nil {
		query["entity_id"] = *f.EntityID
	}
	if f.Action != "" {
		query["action"] = f.Action
	}
	if f.UserEmail != "" {
		query["user_email"] = f.UserEmail
	}
	if f.StartTime != nil || f.EndTime != nil {
		t := bson.M{}
		if f.StartTime != nil {
			t["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			t["$lte"] = *f.EndTime
		}
		query["created_at"] = t
	}
	return query
}

// Query retrieves entries matching the filter, newest first.
func (s *Store) Query(ctx context.Context, f QueryFilter) ([]models.AuditEntry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(f.Offset)
	return s.find(ctx, buildQuery(f), opts)
}

// CountByFilter returns the count of entries matching the filter.
func (s *Store) CountByFilter(ctx context.Context, f QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, buildQuery(f))
}

// DeletedQuery selects attendance DELETE entries by the day of the deleted
// record, both bounds inclusive. Nil slices are not filtered on.
type DeletedQuery struct {
	From    string
	To      string
	CityIDs []primitive.ObjectID
	SiteIDs []primitive.ObjectID
	Limit   int64
}

// DeletedAttendanceInRange returns DELETE entries for attendance records
// whose date falls in the range.
func (s *Store) DeletedAttendanceInRange(ctx context.Context, q DeletedQuery) ([]models.AuditEntry, error) {
	query := bson.M{
		"entity": models.EntityAttendance,
		"action": models.AuditDelete,
	}
	date := bson.M{}
	if q.From != "" {
		date["$gte"] = q.From
	}
	if q.To != "" {
		date["$lte"] = q.To
	}
	if len(date) > 0 {
		query["before.date"] = date
	}
	if q.CityIDs != nil {
		query["city_id"] = bson.M{"$in": q.CityIDs}
	}
	if q.SiteIDs != nil {
		hex := make([]string, len(q.SiteIDs))
		for i, id := range q.SiteIDs {
			hex[i] = id.Hex()
		}
		query["before.site_id"] = bson.M{"$in": hex}
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 1000
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "before.date", Value: -1}, {Key: "created_at", Value: -1}}).
		SetLimit(limit)
	return s.find(ctx, query, opts)
}

func (s *Store) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]models.AuditEntry, error) {
	cursor, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.AuditEntry
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
