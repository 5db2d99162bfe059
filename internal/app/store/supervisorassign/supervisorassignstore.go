// internal/app/store/supervisorassign/supervisorassignstore.go
package supervisorassign

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

// ErrAlreadyAssigned is returned when the supervisor is already assigned to
// the neighborhood.
var ErrAlreadyAssigned = errors.New("supervisor is already assigned to this neighborhood")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("supervisor_assignments")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "neighborhood_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_neighborhood_user"),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetName("idx_user")},
	})
	return err
}

// Create inserts a new assignment. If CreatedAt is zero, it is set to now (UTC).
func (s *Store) Create(ctx context.Context, a models.SupervisorAssignment) (models.SupervisorAssignment, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return a, ErrAlreadyAssigned
		}
		return a, err
	}
	return a, nil
}

// Remove deletes the assignment of userID to neighborhoodID.
func (s *Store) Remove(ctx context.Context, neighborhoodID, userID primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"neighborhood_id": neighborhoodID, "user_id": userID})
	return err
}

// UserIDsByNeighborhood returns the supervisors assigned to a neighborhood
// in assignment order.
func (s *Store) UserIDsByNeighborhood(ctx context.Context, neighborhoodID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.distinct(ctx, "user_id", bson.M{"neighborhood_id": neighborhoodID})
}

// NeighborhoodIDsByUser returns the neighborhoods a supervisor is assigned to.
func (s *Store) NeighborhoodIDsByUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.distinct(ctx, "neighborhood_id", bson.M{"user_id": userID})
}

// ListByNeighborhoods returns every assignment for the given neighborhoods.
func (s *Store) ListByNeighborhoods(ctx context.Context, ids []primitive.ObjectID) ([]models.SupervisorAssignment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"neighborhood_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.SupervisorAssignment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) distinct(ctx context.Context, field string, filter bson.M) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().
		SetProjection(bson.M{field: 1}).
		SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []primitive.ObjectID
	seen := map[primitive.ObjectID]bool{}
	for cur.Next(ctx) {
		var row bson.M
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		id, ok := row[field].(primitive.ObjectID)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, cur.Err()
}
