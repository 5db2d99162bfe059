// internal/app/store/workers/workerstore.go
package workerstore

import (
	"context"
	"regexp"
	"time"

	"github.com/dalemusser/fieldops/internal/app/system/normalize"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("workers")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "neighborhood_id", Value: 1}, {Key: "full_name_ci", Value: 1}}, Options: options.Index().SetName("idx_neighborhood_name")},
		{Keys: bson.D{{Key: "supervisor_id", Value: 1}}, Options: options.Index().SetName("idx_supervisor")},
		{Keys: bson.D{{Key: "city_id", Value: 1}}, Options: options.Index().SetName("idx_city")},
	})
	return err
}

func (s *Store) Create(ctx context.Context, w models.Worker) (models.Worker, error) {
	now := time.Now().UTC()
	w.ID = primitive.NewObjectID()
	w.FullName = normalize.Name(w.FullName)
	w.FullNameCI = text.Fold(w.FullName)
	w.Phone = normalize.Phone(w.Phone)
	if w.Status == "" {
		w.Status = models.StatusActive
	}
	w.CreatedAt = now
	w.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, w); err != nil {
		return models.Worker{}, err
	}
	return w, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Worker, error) {
	var w models.Worker
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&w)
	return w, err
}

// Update rewrites the worker's details and placement.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, w models.Worker) error {
	name := normalize.Name(w.FullName)
	set := bson.M{
		"full_name":       name,
		"full_name_ci":    text.Fold(name),
		"phone":           normalize.Phone(w.Phone),
		"position":        w.Position,
		"neighborhood_id": w.NeighborhoodID,
		"city_id":         w.CityID,
		"supervisor_id":   w.SupervisorID,
		"updated_at":      time.Now().UTC(),
	}
	if w.Status != "" {
		set["status"] = normalize.Status(w.Status)
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Query selects workers. Empty fields are not filtered on; a nil slice
// means "any" and an empty non-nil slice matches nothing.
type Query struct {
	CityIDs         []primitive.ObjectID
	NeighborhoodIDs []primitive.ObjectID
	SupervisorID    *primitive.ObjectID
	Search          string
	IncludeDisabled bool

	Skip  int64
	Limit int64 // 0 = no limit
}

func (q Query) filter() (bson.M, bool) {
	filter := bson.M{}
	if !q.IncludeDisabled {
		filter["status"] = models.StatusActive
	}
	if q.CityIDs != nil {
		if len(q.CityIDs) == 0 {
			return nil, false
		}
		filter["city_id"] = bson.M{"$in": q.CityIDs}
	}
	if q.NeighborhoodIDs != nil {
		if len(q.NeighborhoodIDs) == 0 {
			return nil, false
		}
		filter["neighborhood_id"] = bson.M{"$in": q.NeighborhoodIDs}
	}
	if q.SupervisorID != nil {
		filter["supervisor_id"] = *q.SupervisorID
	}
	if q.Search != "" {
		filter["full_name_ci"] = bson.M{"$regex": primitive.Regex{Pattern: regexp.QuoteMeta(text.Fold(q.Search))}}
	}
	return filter, true
}

// List returns workers matching q sorted by name.
func (s *Store) List(ctx context.Context, q Query) ([]models.Worker, error) {
	filter, ok := q.filter()
	if !ok {
		return nil, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(q.Skip)
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Worker
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns how many workers match q, ignoring Skip and Limit.
func (s *Store) Count(ctx context.Context, q Query) (int64, error) {
	filter, ok := q.filter()
	if !ok {
		return 0, nil
	}
	return s.c.CountDocuments(ctx, filter)
}

// CountByNeighborhood returns active worker counts keyed by neighborhood.
func (s *Store) CountByNeighborhood(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]int, error) {
	out := make(map[primitive.ObjectID]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"neighborhood_id": bson.M{"$in": ids}, "status": models.StatusActive}}},
		{{Key: "$group", Value: bson.M{"_id": "$neighborhood_id", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
			N  int                `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.N
	}
	return out, cur.Err()
}

// SetStatus enables or disables a worker.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     normalize.Status(status),
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
