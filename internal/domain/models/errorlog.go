// internal/domain/models/errorlog.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrorLog is one captured server-side failure. Reference is the short code
// shown to the user so support can find the entry.
type ErrorLog struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Reference  string             `bson:"reference" json:"reference"`
	Operation  string             `bson:"operation" json:"operation"`
	Method     string             `bson:"method,omitempty" json:"method,omitempty"`
	Path       string             `bson:"path,omitempty" json:"path,omitempty"`
	Message    string             `bson:"message" json:"message"`
	UserEmail  string             `bson:"user_email,omitempty" json:"user_email,omitempty"`
	UserAgent  string             `bson:"user_agent,omitempty" json:"-"`
	Resolved   bool               `bson:"resolved" json:"resolved"`
	ResolvedBy string             `bson:"resolved_by,omitempty" json:"resolved_by,omitempty"`
	ResolvedAt *time.Time         `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
