// internal/app/store/neighborhoods/neighborhoodstore.go
package neighborhoodstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/fieldops/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateNeighborhood = errors.New("a neighborhood with this name already exists in the city")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("neighborhoods")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "city_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_city_name_ci"),
		},
	})
	return err
}

func (s *Store) Create(ctx context.Context, n models.Neighborhood) (models.Neighborhood, error) {
	now := time.Now().UTC()
	n.ID = primitive.NewObjectID()
	n.NameCI = text.Fold(n.Name)
	if n.Status == "" {
		n.Status = models.StatusActive
	}
	n.CreatedAt = now
	n.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Neighborhood{}, ErrDuplicateNeighborhood
		}
		return models.Neighborhood{}, err
	}
	return n, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Neighborhood, error) {
	var n models.Neighborhood
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&n)
	return n, err
}

// GetByIDs loads multiple neighborhoods by their ObjectIDs.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Neighborhood, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// Update changes the neighborhood's name, address and city.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, n models.Neighborhood) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"name":       n.Name,
		"name_ci":    text.Fold(n.Name),
		"address":    n.Address,
		"city_id":    n.CityID,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateNeighborhood
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListByCities returns active neighborhoods of the given cities. A nil
// cityIDs means every city.
func (s *Store) ListByCities(ctx context.Context, cityIDs []primitive.ObjectID) ([]models.Neighborhood, error) {
	filter := bson.M{"status": models.StatusActive}
	if cityIDs != nil {
		if len(cityIDs) == 0 {
			return nil, nil
		}
		filter["city_id"] = bson.M{"$in": cityIDs}
	}
	return s.find(ctx, filter)
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Neighborhood, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Neighborhood
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
