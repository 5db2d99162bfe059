// internal/app/system/orgutil/dataset.go
package orgutil

import (
	"context"

	areastore "github.com/dalemusser/fieldops/internal/app/store/areas"
	citystore "github.com/dalemusser/fieldops/internal/app/store/cities"
	neighborhoodstore "github.com/dalemusser/fieldops/internal/app/store/neighborhoods"
	"github.com/dalemusser/fieldops/internal/app/store/supervisorassign"
	userstore "github.com/dalemusser/fieldops/internal/app/store/users"
	"github.com/dalemusser/fieldops/internal/app/system/cascade"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Hierarchy is the visible part of the organization, loaded once per request.
type Hierarchy struct {
	Areas         []models.Area
	Cities        []models.City
	Neighborhoods []models.Neighborhood
	Supervisors   []models.User
}

// LoadHierarchy loads every area, city, neighborhood and supervisor in scope.
func LoadHierarchy(ctx context.Context, db *mongo.Database, s Scope) (Hierarchy, error) {
	var h Hierarchy
	var err error

	if h.Areas, err = areastore.New(db).List(ctx, s.AreaFilter()); err != nil {
		return Hierarchy{}, err
	}
	areaIDs := make([]primitive.ObjectID, len(h.Areas))
	for i, a := range h.Areas {
		areaIDs[i] = a.ID
	}

	cities, err := citystore.New(db).ListByAreas(ctx, areaIDs)
	if err != nil {
		return Hierarchy{}, err
	}
	for _, c := range cities {
		if s.HasCity(c.ID) {
			h.Cities = append(h.Cities, c)
		}
	}

	nbs, err := neighborhoodstore.New(db).ListByCities(ctx, cityIDs(h.Cities))
	if err != nil {
		return Hierarchy{}, err
	}
	for _, n := range nbs {
		if s.HasNeighborhood(n.ID) {
			h.Neighborhoods = append(h.Neighborhoods, n)
		}
	}

	users := userstore.New(db)
	for _, c := range h.Cities {
		id := c.ID
		sups, err := users.ListByRole(ctx, models.RoleActivistCoordinator, &id)
		if err != nil {
			return Hierarchy{}, err
		}
		h.Supervisors = append(h.Supervisors, sups...)
	}
	return h, nil
}

// Dataset converts the hierarchy into cascade options.
func (h Hierarchy) Dataset() cascade.Dataset {
	var d cascade.Dataset
	for _, a := range h.Areas {
		d.Areas = append(d.Areas, cascade.Option{ID: a.ID.Hex(), Label: a.RegionName})
	}
	for _, c := range h.Cities {
		d.Cities = append(d.Cities, cascade.Option{ID: c.ID.Hex(), Label: c.Name, ParentID: c.AreaManagerID.Hex()})
	}
	for _, n := range h.Neighborhoods {
		d.Neighborhoods = append(d.Neighborhoods, cascade.Option{ID: n.ID.Hex(), Label: n.Name, ParentID: n.CityID.Hex()})
	}
	for _, u := range h.Supervisors {
		if u.CityID == nil {
			continue
		}
		d.Supervisors = append(d.Supervisors, SupervisorOption(u))
	}
	return d
}

// SupervisorOption renders a supervisor for a select list.
func SupervisorOption(u models.User) cascade.Option {
	o := cascade.Option{ID: u.ID.Hex(), Label: u.FullName}
	if u.CityID != nil {
		o.ParentID = u.CityID.Hex()
	}
	return o
}

// SupervisorFetcher returns the cascade fetcher that lists the active
// supervisors assigned to a neighborhood. An unassigned neighborhood
// yields an empty list, not an error.
func SupervisorFetcher(db *mongo.Database) cascade.Fetcher {
	assign := supervisorassign.New(db)
	users := userstore.New(db)
	return func(ctx context.Context, neighborhoodID string) ([]cascade.Option, error) {
		nb, err := primitive.ObjectIDFromHex(neighborhoodID)
		if err != nil {
			return nil, cascade.ErrInvalidSelection
		}
		ids, err := assign.UserIDsByNeighborhood(ctx, nb)
		if err != nil {
			return nil, err
		}
		list, err := users.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		out := make([]cascade.Option, 0, len(list))
		for _, u := range list {
			out = append(out, SupervisorOption(u))
		}
		return out, nil
	}
}
