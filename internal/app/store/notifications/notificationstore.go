// internal/app/store/notifications/notificationstore.go
package notificationstore

import (
	"context"
	"time"

	"github.com/dalemusser/fieldops/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store holds in-app notifications and the push subscriptions they are
// delivered to.
type Store struct {
	c    *mongo.Collection
	subs *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:    db.Collection("notifications"),
		subs: db.Collection("push_subscriptions"),
	}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_user_created")},
		{Keys: bson.D{{Key: "pushed_at", Value: 1}}, Options: options.Index().SetName("idx_pushed")},
	}); err != nil {
		return err
	}
	_, err := s.subs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "endpoint", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_endpoint")},
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetName("idx_user")},
	})
	return err
}

// Create stores notifications for several users at once.
func (s *Store) Create(ctx context.Context, userIDs []primitive.ObjectID, title, body, url string) (int, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	docs := make([]any, len(userIDs))
	for i, uid := range userIDs {
		docs[i] = models.Notification{
			ID:        primitive.NewObjectID(),
			UserID:    uid,
			Title:     title,
			Body:      body,
			URL:       url,
			CreatedAt: now,
		}
	}
	res, err := s.c.InsertMany(ctx, docs)
	if err != nil {
		return 0, err
	}
	return len(res.InsertedIDs), nil
}

// ListForUser returns the user's newest notifications.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Notification
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UnreadCount returns how many notifications the user has not read.
func (s *Store) UnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
}

// MarkRead marks one notification read. Only the owner can mark it.
func (s *Store) MarkRead(ctx context.Context, userID, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "user_id": userID}, bson.M{"$set": bson.M{"read": true}})
	return err
}

// MarkAllRead marks every notification of the user read.
func (s *Store) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx, bson.M{"user_id": userID, "read": false}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Pending returns notifications not yet pushed, oldest first.
func (s *Store) Pending(ctx context.Context, limit int64) ([]models.Notification, error) {
	cur, err := s.c.Find(ctx, bson.M{"pushed_at": bson.M{"$exists": false}}, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Notification
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkPushed stamps a notification as delivered to the push sender.
func (s *Store) MarkPushed(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"pushed_at": at.UTC()}})
	return err
}

// Subscribe registers or refreshes a push endpoint for the user.
func (s *Store) Subscribe(ctx context.Context, sub models.PushSubscription) error {
	now := time.Now().UTC()
	_, err := s.subs.UpdateOne(ctx,
		bson.M{"endpoint": sub.Endpoint},
		bson.M{
			"$set": bson.M{
				"user_id":    sub.UserID,
				"p256dh":     sub.P256dh,
				"auth":       sub.Auth,
				"user_agent": sub.UserAgent,
			},
			"$setOnInsert": bson.M{"_id": primitive.NewObjectID(), "created_at": now},
		},
		options.Update().SetUpsert(true))
	return err
}

// Unsubscribe removes an endpoint.
func (s *Store) Unsubscribe(ctx context.Context, endpoint string) error {
	_, err := s.subs.DeleteOne(ctx, bson.M{"endpoint": endpoint})
	return err
}

// Subscriptions returns the push endpoints of a user.
func (s *Store) Subscriptions(ctx context.Context, userID primitive.ObjectID) ([]models.PushSubscription, error) {
	cur, err := s.subs.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.PushSubscription
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
