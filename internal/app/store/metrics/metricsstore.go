package metricsstore

import (
	"context"

	"github.com/dalemusser/fieldops/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Counts is the set of totals shown on the dashboards.
type Counts struct {
	Areas         int64
	Cities        int64
	Neighborhoods int64
	Supervisors   int64
	Workers       int64

	// Attendance for one day.
	Present int64
	Absent  int64
}

// Pending is the number of active workers with no attendance record yet.
func (c Counts) Pending() int64 {
	if p := c.Workers - c.Present - c.Absent; p > 0 {
		return p
	}
	return 0
}

// RatePct is the share of present workers, rounded down.
func (c Counts) RatePct() int64 {
	if c.Workers == 0 {
		return 0
	}
	return c.Present * 100 / c.Workers
}

// Filter limits the counts to part of the organization. A nil slice means
// no limit at that level.
type Filter struct {
	AreaIDs         []primitive.ObjectID
	CityIDs         []primitive.ObjectID
	NeighborhoodIDs []primitive.ObjectID
}

func in(filter bson.M, key string, ids []primitive.ObjectID) bson.M {
	if ids != nil {
		filter[key] = bson.M{"$in": ids}
	}
	return filter
}

// FetchDashboardCounts returns the dashboard totals for f on date.
// Intentionally tolerant: on error it returns 0 for that counter.
func FetchDashboardCounts(ctx context.Context, db *mongo.Database, f Filter, date string) Counts {
	var out Counts

	count := func(coll string, filter bson.M) int64 {
		n, err := db.Collection(coll).CountDocuments(ctx, filter)
		if err != nil {
			return 0
		}
		return n
	}

	out.Areas = count("areas", in(bson.M{}, "_id", f.AreaIDs))
	out.Cities = count("cities", in(bson.M{}, "_id", f.CityIDs))
	out.Neighborhoods = count("neighborhoods", in(bson.M{}, "_id", f.NeighborhoodIDs))
	out.Supervisors = count("users", in(bson.M{
		"role":   models.RoleActivistCoordinator,
		"status": models.StatusActive,
	}, "city_id", f.CityIDs))
	out.Workers = count("workers", in(bson.M{"status": models.StatusActive}, "neighborhood_id", f.NeighborhoodIDs))

	if date != "" {
		out.Present = count("attendance", in(bson.M{"date": date, "status": models.AttendancePresent}, "site_id", f.NeighborhoodIDs))
		out.Absent = count("attendance", in(bson.M{"date": date, "status": models.AttendanceAbsent}, "site_id", f.NeighborhoodIDs))
	}
	return out
}
