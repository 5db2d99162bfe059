// internal/app/store/logins/loginstore.go
package loginstore

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/fieldops/internal/app/system/auditlog"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// maxUserAgent caps the stored user agent, in characters.
const maxUserAgent = 300

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("login_records")}
}

// EnsureIndexes creates the per-user history index and the TTL index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_login_user_created"),
		},
		{
			Keys: bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().
				SetName("idx_login_ttl").
				SetExpireAfterSeconds(int32(models.LoginRecordTTL / time.Second)),
		},
	})
	return err
}

// Create inserts rec. A zero CreatedAt becomes now.
func (s *Store) Create(ctx context.Context, rec models.LoginRecord) error {
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, rec)
	return err
}

// CreateFrom records a sign-in by userID with the client address and a
// truncated user agent taken from r.
func (s *Store) CreateFrom(ctx context.Context, r *http.Request, userID primitive.ObjectID, provider string) error {
	ua := []rune(r.UserAgent())
	if len(ua) > maxUserAgent {
		ua = ua[:maxUserAgent]
	}
	return s.Create(ctx, models.LoginRecord{
		UserID:    userID,
		Provider:  provider,
		IP:        auditlog.RemoteIP(r),
		UserAgent: string(ua),
	})
}

// ListForUser returns the user's most recent sign-ins, newest first.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.LoginRecord, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, err
	}
	var recs []models.LoginRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// LastLogins maps each user in ids to their latest sign-in. Users with no
// history are absent.
func (s *Store) LastLogins(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]time.Time, error) {
	last := make(map[primitive.ObjectID]time.Time, len(ids))
	if len(ids) == 0 {
		return last, nil
	}
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": bson.M{"$in": ids}}}},
		{{Key: "$group", Value: bson.M{"_id": "$user_id", "at": bson.M{"$max": "$created_at"}}}},
	})
	if err != nil {
		return nil, err
	}
	var rows []struct {
		User primitive.ObjectID `bson:"_id"`
		At   time.Time          `bson:"at"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		last[row.User] = row.At
	}
	return last, nil
}
