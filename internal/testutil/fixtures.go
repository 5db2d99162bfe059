package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures inserts test data directly into the collections, bypassing the
// stores under test.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a Fixtures for db.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database.
func (f *Fixtures) DB() *mongo.Database { return f.db }

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("insert into %s: %v", coll, err)
	}
}

// CreateArea inserts an active area.
func (f *Fixtures) CreateArea(ctx context.Context, name string, managerID *primitive.ObjectID) models.Area {
	f.t.Helper()
	now := time.Now().UTC()
	a := models.Area{
		ID:           primitive.NewObjectID(),
		RegionName:   name,
		RegionNameCI: text.Fold(name),
		ManagerID:    managerID,
		Status:       models.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.insert(ctx, "areas", a)
	return a
}

// CreateCity inserts an active city under areaID.
func (f *Fixtures) CreateCity(ctx context.Context, name string, areaID primitive.ObjectID) models.City {
	f.t.Helper()
	now := time.Now().UTC()
	c := models.City{
		ID:            primitive.NewObjectID(),
		Name:          name,
		NameCI:        text.Fold(name),
		AreaManagerID: areaID,
		Status:        models.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	f.insert(ctx, "cities", c)
	return c
}

// CreateNeighborhood inserts an active neighborhood under cityID.
func (f *Fixtures) CreateNeighborhood(ctx context.Context, name string, cityID primitive.ObjectID) models.Neighborhood {
	f.t.Helper()
	now := time.Now().UTC()
	n := models.Neighborhood{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		CityID:    cityID,
		Status:    models.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "neighborhoods", n)
	return n
}

// CreateUser inserts an active user.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string, cityID *primitive.ObjectID) models.User {
	f.t.Helper()
	now := time.Now().UTC()
	u := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		Role:       role,
		Status:     models.StatusActive,
		CityID:     cityID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	f.insert(ctx, "users", u)
	return u
}

// CreateSupervisor inserts an activist coordinator assigned to nb.
func (f *Fixtures) CreateSupervisor(ctx context.Context, fullName, email string, nb models.Neighborhood) models.User {
	f.t.Helper()
	cityID := nb.CityID
	u := f.CreateUser(ctx, fullName, email, models.RoleActivistCoordinator, &cityID)
	f.insert(ctx, "supervisor_assignments", models.SupervisorAssignment{
		ID:             primitive.NewObjectID(),
		NeighborhoodID: nb.ID,
		UserID:         u.ID,
		CityID:         nb.CityID,
		CreatedAt:      time.Now().UTC(),
		CreatedByEmail: "fixtures@test.local",
	})
	return u
}

// CreateWorker inserts an active worker in nb under supervisorID.
func (f *Fixtures) CreateWorker(ctx context.Context, fullName string, nb models.Neighborhood, supervisorID primitive.ObjectID) models.Worker {
	f.t.Helper()
	now := time.Now().UTC()
	w := models.Worker{
		ID:             primitive.NewObjectID(),
		FullName:       fullName,
		FullNameCI:     text.Fold(fullName),
		Phone:          "050-0000000",
		NeighborhoodID: nb.ID,
		CityID:         nb.CityID,
		SupervisorID:   supervisorID,
		Status:         models.StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	f.insert(ctx, "workers", w)
	return w
}

// CreateAttendance inserts a PRESENT record for w on date.
func (f *Fixtures) CreateAttendance(ctx context.Context, w models.Worker, siteName, date string) models.AttendanceRecord {
	f.t.Helper()
	now := time.Now().UTC()
	rec := models.AttendanceRecord{
		ID:          primitive.NewObjectID(),
		Date:        date,
		WorkerID:    w.ID,
		SiteID:      w.NeighborhoodID,
		CityID:      w.CityID,
		Status:      models.AttendancePresent,
		CheckedInAt: &now,
		CheckedInBy: "fixtures@test.local",
		WorkerName:  w.FullName,
		WorkerPhone: w.Phone,
		SiteName:    siteName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.insert(ctx, "attendance", rec)
	return rec
}

// Org is a small complete hierarchy.
type Org struct {
	Area         models.Area
	City         models.City
	Neighborhood models.Neighborhood
	Supervisor   models.User
	Worker       models.Worker
}

// CreateOrg inserts one area, city, neighborhood, supervisor and worker.
func (f *Fixtures) CreateOrg(ctx context.Context) Org {
	f.t.Helper()
	var o Org
	o.Area = f.CreateArea(ctx, "צפון", nil)
	o.City = f.CreateCity(ctx, "חיפה", o.Area.ID)
	o.Neighborhood = f.CreateNeighborhood(ctx, "הדר", o.City.ID)
	o.Supervisor = f.CreateSupervisor(ctx, "רכז הדר", "hadar@test.local", o.Neighborhood)
	o.Worker = f.CreateWorker(ctx, "דנה כהן", o.Neighborhood, o.Supervisor.ID)
	return o
}
