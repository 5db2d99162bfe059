// internal/app/system/orgutil/scope.go
package orgutil

import (
	"context"
	"errors"

	areastore "github.com/dalemusser/fieldops/internal/app/store/areas"
	citystore "github.com/dalemusser/fieldops/internal/app/store/cities"
	neighborhoodstore "github.com/dalemusser/fieldops/internal/app/store/neighborhoods"
	"github.com/dalemusser/fieldops/internal/app/store/supervisorassign"
	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNoScope is returned for a user whose role grants no organization view.
var ErrNoScope = errors.New("user has no organization scope")

// Scope is the part of the hierarchy a user may see.
//
//   - superadmin: everything (All)
//   - area_manager: the areas they manage and everything below
//   - city_coordinator: their city, its area, its neighborhoods
//   - activist_coordinator: the neighborhoods assigned to them, their city
//     and its area
type Scope struct {
	All             bool
	AreaIDs         []primitive.ObjectID
	CityIDs         []primitive.ObjectID
	NeighborhoodIDs []primitive.ObjectID
}

// AreaFilter returns nil when every area is visible, otherwise the ids
// (possibly empty).
func (s Scope) AreaFilter() []primitive.ObjectID { return s.filter(s.AreaIDs) }

// CityFilter is like AreaFilter for cities.
func (s Scope) CityFilter() []primitive.ObjectID { return s.filter(s.CityIDs) }

// NeighborhoodFilter is like AreaFilter for neighborhoods.
func (s Scope) NeighborhoodFilter() []primitive.ObjectID { return s.filter(s.NeighborhoodIDs) }

func (s Scope) filter(ids []primitive.ObjectID) []primitive.ObjectID {
	if s.All {
		return nil
	}
	if ids == nil {
		return []primitive.ObjectID{}
	}
	return ids
}

// HasArea reports whether the area is visible.
func (s Scope) HasArea(id primitive.ObjectID) bool { return s.All || contains(s.AreaIDs, id) }

// HasCity reports whether the city is visible.
func (s Scope) HasCity(id primitive.ObjectID) bool { return s.All || contains(s.CityIDs, id) }

// HasNeighborhood reports whether the neighborhood is visible.
func (s Scope) HasNeighborhood(id primitive.ObjectID) bool {
	return s.All || contains(s.NeighborhoodIDs, id)
}

func contains(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// Resolve computes the scope of u.
func Resolve(ctx context.Context, db *mongo.Database, u *auth.SessionUser) (Scope, error) {
	if u == nil {
		return Scope{}, ErrNoScope
	}
	if u.Role == models.RoleSuperAdmin {
		return Scope{All: true}, nil
	}
	userID, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return Scope{}, ErrNoScope
	}

	areas := areastore.New(db)
	cities := citystore.New(db)
	nbs := neighborhoodstore.New(db)

	var s Scope
	switch u.Role {
	case models.RoleAreaManager:
		managed, err := areas.ListByManager(ctx, userID)
		if err != nil {
			return Scope{}, err
		}
		s.AreaIDs = []primitive.ObjectID{}
		for _, a := range managed {
			s.AreaIDs = append(s.AreaIDs, a.ID)
		}
		if id, err := primitive.ObjectIDFromHex(u.AreaID); err == nil && !contains(s.AreaIDs, id) {
			s.AreaIDs = append(s.AreaIDs, id)
		}
		cs, err := cities.ListByAreas(ctx, s.AreaIDs)
		if err != nil {
			return Scope{}, err
		}
		s.CityIDs = cityIDs(cs)
		ns, err := nbs.ListByCities(ctx, s.CityIDs)
		if err != nil {
			return Scope{}, err
		}
		s.NeighborhoodIDs = neighborhoodIDs(ns)

	case models.RoleCityCoordinator:
		if err := s.fromCity(ctx, cities, u.CityID); err != nil {
			return Scope{}, err
		}
		ns, err := nbs.ListByCities(ctx, s.CityIDs)
		if err != nil {
			return Scope{}, err
		}
		s.NeighborhoodIDs = neighborhoodIDs(ns)

	case models.RoleActivistCoordinator:
		if err := s.fromCity(ctx, cities, u.CityID); err != nil {
			return Scope{}, err
		}
		assigned, err := supervisorassign.New(db).NeighborhoodIDsByUser(ctx, userID)
		if err != nil {
			return Scope{}, err
		}
		s.NeighborhoodIDs = append([]primitive.ObjectID{}, assigned...)

	default:
		return Scope{}, ErrNoScope
	}
	return s, nil
}

func (s *Scope) fromCity(ctx context.Context, cities *citystore.Store, cityHex string) error {
	s.AreaIDs = []primitive.ObjectID{}
	s.CityIDs = []primitive.ObjectID{}
	id, err := primitive.ObjectIDFromHex(cityHex)
	if err != nil {
		return nil
	}
	c, err := cities.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	if err != nil {
		return err
	}
	s.CityIDs = append(s.CityIDs, c.ID)
	s.AreaIDs = append(s.AreaIDs, c.AreaManagerID)
	return nil
}

func cityIDs(cs []models.City) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

func neighborhoodIDs(ns []models.Neighborhood) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.ID)
	}
	return out
}
