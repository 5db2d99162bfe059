// internal/app/store/oauthstate/store.go
package oauthstate

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// pending is one Google sign-in that has left for the consent screen and
// not come back yet.
type pending struct {
	Token     string    `bson:"state"`
	ReturnTo  string    `bson:"return_url,omitempty"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

// Store keeps OAuth2 state tokens in the oauth_states collection. Each token
// can be redeemed once.
type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("oauth_states"), now: time.Now}
}

// EnsureIndexes makes tokens unique and lets the TTL monitor expire them.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "state", Value: 1}}, Options: options.Index().SetUnique(true).SetName("idx_oauth_state")},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_oauth_ttl")},
	})
	return err
}

// Issue records a fresh random token good for ttl and returns it.
func (s *Store) Issue(ctx context.Context, returnTo string, ttl time.Duration) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	now := s.now().UTC()
	p := pending{
		Token:     base64.RawURLEncoding.EncodeToString(raw),
		ReturnTo:  returnTo,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return "", err
	}
	return p.Token, nil
}

// Redeem deletes token and returns where the user was headed. ok is false for
// unknown, already redeemed or expired tokens.
func (s *Store) Redeem(ctx context.Context, token string) (returnTo string, ok bool, err error) {
	var p pending
	err = s.c.FindOneAndDelete(ctx, bson.M{
		"state":      token,
		"expires_at": bson.M{"$gt": s.now().UTC()},
	}).Decode(&p)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return "", false, nil
	case err != nil:
		return "", false, err
	}
	return p.ReturnTo, true, nil
}

// CleanupExpired sweeps tokens the TTL monitor has not reached yet.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": s.now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
