package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/fieldops/internal/app/system/normalize"
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

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "superadmin"|"area_manager"|"city_coordinator"|"activist_coordinator"`)
	errBadStatus      = errors.New(`status must be "active"|"disabled"`)
	errCityNeeded     = errors.New("coordinators must have city_id")
)

// EnsureIndexes creates the unique email index and the list indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_email")},
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "city_id", Value: 1}}, Options: options.Index().SetName("idx_role_city")},
		{Keys: bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}}, Options: options.Index().SetName("idx_name_ci")},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "email", Value: 1}}, Options: options.Index().SetName("idx_status_email")},
	})
	return err
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByIDs loads active users in the given order. Missing or disabled
// users are skipped.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}, "status": models.StatusActive})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var found []models.User
	if err := cur.All(ctx, &found); err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.User, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}
	out := make([]models.User, 0, len(found))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, u)
			delete(byID, id)
		}
	}
	return out, nil
}

// Create inserts a new user after normalizing & validating fields.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)
	if u.Status == "" {
		u.Status = models.StatusActive
	}

	switch u.Role {
	case models.RoleSuperAdmin, models.RoleAreaManager, models.RoleCityCoordinator, models.RoleActivistCoordinator:
	default:
		return models.User{}, errBadRole
	}
	if u.Status != models.StatusActive && u.Status != models.StatusDisabled {
		return models.User{}, errBadStatus
	}
	if (u.Role == models.RoleCityCoordinator || u.Role == models.RoleActivistCoordinator) && u.CityID == nil {
		return models.User{}, errCityNeeded
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// ProfileUpdate holds the fields a manager may change on a user.
type ProfileUpdate struct {
	FullName string
	Email    string
	Phone    string
	Title    string
	Status   string
}

// UpdateProfile updates a user's contact fields.
// Returns ErrDuplicateEmail if the email already exists for another user.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	name := normalize.Name(upd.FullName)
	set := bson.M{
		"full_name":    name,
		"full_name_ci": text.Fold(name),
		"email":        normalize.Email(upd.Email),
		"phone":        upd.Phone,
		"title":        upd.Title,
		"updated_at":   time.Now().UTC(),
	}
	if upd.Status != "" {
		set["status"] = normalize.Status(upd.Status)
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetPassword stores a new bcrypt hash and whether it must be changed at
// next sign-in.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, hash string, mustChange bool) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"password_hash":        hash,
		"must_change_password": mustChange,
		"updated_at":           time.Now().UTC(),
	}})
	return err
}

// ListByRole returns active users with role, optionally limited to a city.
func (s *Store) ListByRole(ctx context.Context, role string, cityID *primitive.ObjectID) ([]models.User, error) {
	filter := bson.M{"role": role, "status": models.StatusActive}
	if cityID != nil {
		filter["city_id"] = *cityID
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EmailExistsForOther checks if an email already exists for a user other than the given ID.
func (s *Store) EmailExistsForOther(ctx context.Context, email string, excludeID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"email": normalize.Email(email),
		"_id":   bson.M{"$ne": excludeID},
	}).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return false, err
}

// EnsureSuperAdmin creates a superadmin with email if no user has it yet.
// It returns true when a user was created.
func (s *Store) EnsureSuperAdmin(ctx context.Context, email, fullName string) (bool, error) {
	email = normalize.Email(email)
	if email == "" {
		return false, nil
	}
	_, err := s.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return false, err
	}
	if fullName == "" {
		fullName = email
	}
	_, err = s.Create(ctx, models.User{FullName: fullName, Email: email, Role: models.RoleSuperAdmin})
	if errors.Is(err, ErrDuplicateEmail) {
		return false, nil
	}
	return err == nil, err
}

// PromoteSuperAdmin makes an existing user an active superadmin. Org
// links are dropped since superadmins are unscoped.
func (s *Store) PromoteSuperAdmin(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"role":       models.RoleSuperAdmin,
			"status":     models.StatusActive,
			"updated_at": time.Now().UTC(),
		},
		"$unset": bson.M{"area_id": "", "city_id": ""},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListFilter narrows List and Count.
type ListFilter struct {
	Roles   []string
	CityIDs []primitive.ObjectID // nil means any city
	Status  string               // "", active or disabled
	Search  string               // prefix of the folded name or of the email
	ByEmail bool                 // match and sort on the email only
}

func (f ListFilter) query() bson.M {
	q := bson.M{}
	if len(f.Roles) > 0 {
		q["role"] = bson.M{"$in": f.Roles}
	}
	if f.CityIDs != nil {
		q["city_id"] = bson.M{"$in": f.CityIDs}
	}
	if f.Status == models.StatusActive || f.Status == models.StatusDisabled {
		q["status"] = f.Status
	}
	if f.Search != "" {
		email := strings.ToLower(strings.TrimSpace(f.Search))
		byEmail := bson.M{"email": bson.M{"$gte": email, "$lt": email + "\uffff"}}
		if f.ByEmail {
			for k, v := range byEmail {
				q[k] = v
			}
		} else {
			name := text.Fold(f.Search)
			q["$or"] = []bson.M{
				{"full_name_ci": bson.M{"$gte": name, "$lt": name + "\uffff"}},
				byEmail,
			}
		}
	}
	return q
}

// List returns one page of users matching f, ordered by name (or email
// when f.ByEmail).
func (s *Store) List(ctx context.Context, f ListFilter, skip, limit int64) ([]models.User, error) {
	sortField := "full_name_ci"
	if f.ByEmail {
		sortField = "email"
	}
	opts := options.Find().
		SetSort(bson.D{{Key: sortField, Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit).
		SetProjection(bson.M{"password_hash": 0})
	cur, err := s.c.Find(ctx, f.query(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns how many users match f.
func (s *Store) Count(ctx context.Context, f ListFilter) (int64, error) {
	return s.c.CountDocuments(ctx, f.query())
}

// SetCity moves a coordinator to another city.
func (s *Store) SetCity(ctx context.Context, id, cityID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"city_id":    cityID,
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
