// internal/domain/models/city.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// City is a city or corporation inside an Area. It is the tenant-like unit
// coordinators are scoped to.
type City struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	Name          string             `bson:"name" json:"name"`
	NameCI        string             `bson:"name_ci" json:"-"`
	Code          string             `bson:"code,omitempty" json:"code,omitempty"`
	AreaManagerID primitive.ObjectID `bson:"area_manager_id" json:"area_manager_id"` // areas._id
	Status        string             `bson:"status" json:"status"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}
