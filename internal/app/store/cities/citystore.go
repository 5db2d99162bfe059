// internal/app/store/cities/citystore.go
package citystore

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

// ErrDuplicateCity is returned when the area already has a city with the name.
var ErrDuplicateCity = errors.New("a city with this name already exists in the area")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("cities")}
}

// EnsureIndexes makes city names unique per area.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "area_manager_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_area_name_ci"),
		},
	})
	return err
}

func (s *Store) Create(ctx context.Context, c models.City) (models.City, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.NameCI = text.Fold(c.Name)
	if c.Status == "" {
		c.Status = models.StatusActive
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.City{}, ErrDuplicateCity
		}
		return models.City{}, err
	}
	return c, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.City, error) {
	var c models.City
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	return c, err
}

// Update renames a city or moves it to another area.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, name, code string, areaID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"name":            name,
		"name_ci":         text.Fold(name),
		"code":            code,
		"area_manager_id": areaID,
		"updated_at":      time.Now().UTC(),
	}})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateCity
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListByAreas returns active cities of the given areas sorted by name.
// A nil areaIDs means every area.
func (s *Store) ListByAreas(ctx context.Context, areaIDs []primitive.ObjectID) ([]models.City, error) {
	filter := bson.M{"status": models.StatusActive}
	if areaIDs != nil {
		if len(areaIDs) == 0 {
			return nil, nil
		}
		filter["area_manager_id"] = bson.M{"$in": areaIDs}
	}
	return s.find(ctx, filter)
}

// GetByIDs loads multiple cities by their ObjectIDs.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.City, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.City, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.City
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByArea returns how many active cities are in areaID.
func (s *Store) CountByArea(ctx context.Context, areaID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"area_manager_id": areaID, "status": models.StatusActive})
}
