package userstore

import (
	"context"
	"errors"

	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/dalemusser/fieldops/internal/app/system/normalize"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher implements auth.UserFetcher to load fresh user data on each request.
type Fetcher struct {
	users *mongo.Collection
	areas *mongo.Collection
}

// NewFetcher creates a UserFetcher that queries the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{
		users: db.Collection("users"),
		areas: db.Collection("areas"),
	}
}

// FetchUser retrieves a user by ID. It returns (nil, nil) if the id is
// malformed, the user does not exist, or the user is disabled.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) (*auth.SessionUser, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var u models.User
	proj := options.FindOne().SetProjection(bson.M{
		"_id": 1, "full_name": 1, "email": 1, "role": 1, "status": 1, "area_id": 1, "city_id": 1,
	})
	if err := f.users.FindOne(ctx, bson.M{"_id": oid}, proj).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	if normalize.Status(u.Status) == models.StatusDisabled {
		return nil, nil
	}

	su := &auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  normalize.Role(u.Role),
	}
	if u.CityID != nil {
		su.CityID = u.CityID.Hex()
	}
	if u.AreaID != nil {
		su.AreaID = u.AreaID.Hex()
	} else if su.Role == models.RoleAreaManager {
		// Area managers are linked from the area side.
		var a models.Area
		if err := f.areas.FindOne(ctx, bson.M{"manager_id": oid}, options.FindOne().SetProjection(bson.M{"_id": 1})).Decode(&a); err == nil {
			su.AreaID = a.ID.Hex()
		}
	}
	return su, nil
}
