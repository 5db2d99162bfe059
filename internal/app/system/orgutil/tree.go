// internal/app/system/orgutil/tree.go
package orgutil

import (
	"context"

	"github.com/dalemusser/fieldops/internal/app/store/supervisorassign"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// NeighborhoodNode is a leaf of the org tree.
type NeighborhoodNode struct {
	Neighborhood models.Neighborhood
	Supervisors  []models.User
	Workers      int64
}

// CityNode groups neighborhoods of a city.
type CityNode struct {
	City          models.City
	Neighborhoods []NeighborhoodNode
	Workers       int64
}

// AreaNode is the root of one branch.
type AreaNode struct {
	Area    models.Area
	Cities  []CityNode
	Workers int64
}

// BuildTree arranges h into Area → City → Neighborhood with supervisors
// and active worker counts.
func BuildTree(ctx context.Context, db *mongo.Database, h Hierarchy) ([]AreaNode, error) {
	nbIDs := make([]primitive.ObjectID, len(h.Neighborhoods))
	for i, n := range h.Neighborhoods {
		nbIDs[i] = n.ID
	}

	counts := map[primitive.ObjectID]int64{}
	if len(nbIDs) > 0 {
		var err error
		counts, err = CountBy(ctx, db, "workers",
			bson.M{"status": models.StatusActive, "neighborhood_id": bson.M{"$in": nbIDs}},
			"neighborhood_id")
		if err != nil {
			return nil, err
		}
	}

	assignments, err := supervisorassign.New(db).ListByNeighborhoods(ctx, nbIDs)
	if err != nil {
		return nil, err
	}
	supByID := make(map[primitive.ObjectID]models.User, len(h.Supervisors))
	for _, u := range h.Supervisors {
		supByID[u.ID] = u
	}
	supsByNb := map[primitive.ObjectID][]models.User{}
	for _, a := range assignments {
		if u, ok := supByID[a.UserID]; ok {
			supsByNb[a.NeighborhoodID] = append(supsByNb[a.NeighborhoodID], u)
		}
	}

	nbsByCity := map[primitive.ObjectID][]NeighborhoodNode{}
	for _, n := range h.Neighborhoods {
		nbsByCity[n.CityID] = append(nbsByCity[n.CityID], NeighborhoodNode{
			Neighborhood: n,
			Supervisors:  supsByNb[n.ID],
			Workers:      counts[n.ID],
		})
	}

	citiesByArea := map[primitive.ObjectID][]CityNode{}
	for _, c := range h.Cities {
		node := CityNode{City: c, Neighborhoods: nbsByCity[c.ID]}
		for _, n := range node.Neighborhoods {
			node.Workers += n.Workers
		}
		citiesByArea[c.AreaManagerID] = append(citiesByArea[c.AreaManagerID], node)
	}

	out := make([]AreaNode, 0, len(h.Areas))
	for _, a := range h.Areas {
		node := AreaNode{Area: a, Cities: citiesByArea[a.ID]}
		for _, c := range node.Cities {
			node.Workers += c.Workers
		}
		out = append(out, node)
	}
	return out, nil
}
