// internal/domain/models/wikipage.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WikiPage is a help article. Body is sanitized HTML.
type WikiPage struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Slug          string             `bson:"slug" json:"slug"`
	Title         string             `bson:"title" json:"title"`
	TitleCI       string             `bson:"title_ci" json:"-"`
	Category      string             `bson:"category,omitempty" json:"category,omitempty"`
	Body          string             `bson:"body" json:"body"`
	UpdatedByName string             `bson:"updated_by_name,omitempty" json:"updated_by_name,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}
