// internal/domain/models/area.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Area is the top of the field hierarchy: a region run by one area manager.
// Cities reference an area through City.AreaManagerID.
type Area struct {
	ID           primitive.ObjectID  `bson:"_id" json:"id"`
	RegionName   string              `bson:"region_name" json:"region_name"`
	RegionNameCI string              `bson:"region_name_ci" json:"-"`
	ManagerID    *primitive.ObjectID `bson:"manager_id,omitempty" json:"manager_id,omitempty"` // users._id of the area manager
	ManagerName  string              `bson:"manager_name" json:"manager_name"`
	Status       string              `bson:"status" json:"status"`
	CreatedAt    time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time           `bson:"updated_at" json:"updated_at"`
}
