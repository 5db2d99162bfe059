// internal/app/store/wiki/wikistore.go
package wikistore

import (
	"context"
	"time"

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
	return &Store{c: db.Collection("wiki_pages")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_slug"),
	})
	return err
}

// GetBySlug returns mongo.ErrNoDocuments when the page does not exist.
func (s *Store) GetBySlug(ctx context.Context, slug string) (models.WikiPage, error) {
	var p models.WikiPage
	err := s.c.FindOne(ctx, bson.M{"slug": slug}).Decode(&p)
	return p, err
}

// Upsert creates or replaces the page with p.Slug. The body must already
// be sanitized.
func (s *Store) Upsert(ctx context.Context, p models.WikiPage) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"slug": p.Slug},
		bson.M{
			"$set": bson.M{
				"title":           p.Title,
				"title_ci":        text.Fold(p.Title),
				"category":        p.Category,
				"body":            p.Body,
				"updated_by_name": p.UpdatedByName,
				"updated_at":      now,
			},
			"$setOnInsert": bson.M{"_id": primitive.NewObjectID(), "created_at": now},
		},
		options.Update().SetUpsert(true))
	return err
}

// List returns every page sorted by category and title.
func (s *Store) List(ctx context.Context) ([]models.WikiPage, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().
		SetProjection(bson.M{"body": 0}).
		SetSort(bson.D{{Key: "category", Value: 1}, {Key: "title_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.WikiPage
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a page by slug.
func (s *Store) Delete(ctx context.Context, slug string) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"slug": slug})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
