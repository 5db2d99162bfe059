// internal/domain/models/neighborhood.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Neighborhood is a physical work site inside a City. Attendance is
// recorded per neighborhood (the "site" of an attendance record).
type Neighborhood struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Name      string             `bson:"name" json:"name"`
	NameCI    string             `bson:"name_ci" json:"-"`
	Address   string             `bson:"address,omitempty" json:"address,omitempty"`
	CityID    primitive.ObjectID `bson:"city_id" json:"city_id"`
	Status    string             `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// SupervisorAssignment links a supervisor (activist coordinator) to a
// neighborhood. A supervisor may be assigned to several neighborhoods of the
// same city.
type SupervisorAssignment struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	NeighborhoodID primitive.ObjectID `bson:"neighborhood_id" json:"neighborhood_id"`
	UserID         primitive.ObjectID `bson:"user_id" json:"user_id"`
	CityID         primitive.ObjectID `bson:"city_id" json:"city_id"`

	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	CreatedByEmail string    `bson:"created_by_email" json:"created_by_email"`
}
