// internal/app/store/attendance/attendancestore.go
package attendancestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/fieldops/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultBatchSize caps how many records one history fetch returns.
const DefaultBatchSize = 1000

// ErrAlreadyCheckedIn is returned when the worker already has a record for
// the day.
var ErrAlreadyCheckedIn = errors.New("worker already has an attendance record for this date")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("attendance")}
}

// EnsureIndexes enforces one record per worker per day.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "worker_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_worker_date"),
		},
		{
			Keys:    bson.D{{Key: "site_id", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index().SetName("idx_site_date"),
		},
		{
			Keys:    bson.D{{Key: "city_id", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index().SetName("idx_city_date"),
		},
	})
	return err
}

// Create inserts a record. ID and timestamps are assigned here.
func (s *Store) Create(ctx context.Context, rec models.AttendanceRecord) (models.AttendanceRecord, error) {
	now := time.Now().UTC()
	rec.ID = primitive.NewObjectID()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, rec); err != nil {
		if wafflemongo.IsDup(err) {
			return models.AttendanceRecord{}, ErrAlreadyCheckedIn
		}
		return models.AttendanceRecord{}, err
	}
	return rec, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	return rec, err
}

// Update sets status and notes and returns the stored record after the change.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, status, notes string) (models.AttendanceRecord, error) {
	var out models.AttendanceRecord
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "notes": notes, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	return out, err
}

// Delete removes a record and returns what was removed.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (models.AttendanceRecord, error) {
	var out models.AttendanceRecord
	err := s.c.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&out)
	return out, err
}

// RangeQuery selects records between two local dates, both inclusive.
// Nil ID slices are not filtered on; empty non-nil slices match nothing.
type RangeQuery struct {
	From     string
	To       string
	SiteIDs  []primitive.ObjectID
	CityIDs  []primitive.ObjectID
	WorkerID *primitive.ObjectID
	Limit    int64
}

// ListRange returns records in the range, newest date first. At most
// q.Limit (or DefaultBatchSize) records are returned.
func (s *Store) ListRange(ctx context.Context, q RangeQuery) ([]models.AttendanceRecord, error) {
	filter := bson.M{}
	date := bson.M{}
	if q.From != "" {
		date["$gte"] = q.From
	}
	if q.To != "" {
		date["$lte"] = q.To
	}
	if len(date) > 0 {
		filter["date"] = date
	}
	if q.SiteIDs != nil {
		if len(q.SiteIDs) == 0 {
			return nil, nil
		}
		filter["site_id"] = bson.M{"$in": q.SiteIDs}
	}
	if q.CityIDs != nil {
		if len(q.CityIDs) == 0 {
			return nil, nil
		}
		filter["city_id"] = bson.M{"$in": q.CityIDs}
	}
	if q.WorkerID != nil {
		filter["worker_id"] = *q.WorkerID
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultBatchSize
	}

	cur, err := s.c.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "checked_in_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.AttendanceRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ByWorkerForDate returns the day's records keyed by worker.
func (s *Store) ByWorkerForDate(ctx context.Context, date string, workerIDs []primitive.ObjectID) (map[primitive.ObjectID]models.AttendanceRecord, error) {
	out := make(map[primitive.ObjectID]models.AttendanceRecord, len(workerIDs))
	if len(workerIDs) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"date": date, "worker_id": bson.M{"$in": workerIDs}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var rec models.AttendanceRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, err
		}
		out[rec.WorkerID] = rec
	}
	return out, cur.Err()
}
