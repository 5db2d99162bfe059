// internal/app/store/areas/areastore.go
package areastore

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

var ErrDuplicateArea = errors.New("an area with this name already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("areas")}
}

// EnsureIndexes creates the unique region name index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "region_name_ci", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_region_name_ci")},
		{Keys: bson.D{{Key: "manager_id", Value: 1}}, Options: options.Index().SetName("idx_manager")},
	})
	return err
}

func (s *Store) Create(ctx context.Context, a models.Area) (models.Area, error) {
	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.RegionNameCI = text.Fold(a.RegionName)
	if a.Status == "" {
		a.Status = models.StatusActive
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Area{}, ErrDuplicateArea
		}
		return models.Area{}, err
	}
	return a, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Area, error) {
	var a models.Area
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	return a, err
}

// Update changes the region name and manager. A nil managerID clears the
// manager.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, name string, managerID *primitive.ObjectID, managerName string) error {
	set := bson.M{
		"region_name":    name,
		"region_name_ci": text.Fold(name),
		"manager_name":   managerName,
		"updated_at":     time.Now().UTC(),
	}
	update := bson.M{"$set": set}
	if managerID != nil {
		set["manager_id"] = *managerID
	} else {
		update["$unset"] = bson.M{"manager_id": ""}
	}
	res, err := s.c.UpdateByID(ctx, id, update)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateArea
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// List returns active areas sorted by name. A nil ids slice means all areas;
// an empty non-nil slice returns nothing.
func (s *Store) List(ctx context.Context, ids []primitive.ObjectID) ([]models.Area, error) {
	filter := bson.M{"status": models.StatusActive}
	if ids != nil {
		if len(ids) == 0 {
			return nil, nil
		}
		filter["_id"] = bson.M{"$in": ids}
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "region_name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Area
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByManager returns the areas managed by userID.
func (s *Store) ListByManager(ctx context.Context, userID primitive.ObjectID) ([]models.Area, error) {
	cur, err := s.c.Find(ctx, bson.M{"manager_id": userID, "status": models.StatusActive})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Area
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes an area by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
