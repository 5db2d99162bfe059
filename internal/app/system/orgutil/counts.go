// internal/app/system/orgutil/counts.go
package orgutil

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collections is satisfied by *mongo.Database.
type Collections interface {
	Collection(name string, opts ...*options.CollectionOptions) *mongo.Collection
}

// Tally maps a parent id to how many child documents reference it.
// Parents with no children are absent, so a lookup yields zero.
type Tally map[primitive.ObjectID]int64

// CountBy tallies documents of coll that match filter by the ObjectID held in
// field, e.g. active workers per "neighborhood_id" or cities per
// "area_manager_id". Documents with the field unset fall under the zero id.
func CountBy(ctx context.Context, db Collections, coll string, filter bson.M, field string) (Tally, error) {
	cur, err := db.Collection(coll).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.M{"_id": "$" + field, "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Parent primitive.ObjectID `bson:"_id"`
		N      int64              `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	t := make(Tally, len(rows))
	for _, row := range rows {
		t[row.Parent] = row.N
	}
	return t, nil
}
