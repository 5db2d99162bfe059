// internal/domain/models/worker.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Worker is a field activist. A worker belongs to exactly one neighborhood
// and reports to one supervisor.
type Worker struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	FullName       string             `bson:"full_name" json:"full_name"`
	FullNameCI     string             `bson:"full_name_ci" json:"-"`
	Phone          string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Position       string             `bson:"position,omitempty" json:"position,omitempty"`
	NeighborhoodID primitive.ObjectID `bson:"neighborhood_id" json:"neighborhood_id"`
	CityID         primitive.ObjectID `bson:"city_id" json:"city_id"`
	SupervisorID   primitive.ObjectID `bson:"supervisor_id" json:"supervisor_id"`
	Status         string             `bson:"status" json:"status"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}
