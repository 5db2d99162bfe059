// internal/domain/models/task.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task statuses.
const (
	TaskOpen = "open"
	TaskDone = "done"
)

// Task is a unit of work assigned by a manager to a staff user.
type Task struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	AssigneeID    primitive.ObjectID `bson:"assignee_id" json:"assignee_id"`
	AssigneeName  string             `bson:"assignee_name" json:"assignee_name"`
	CreatedByID   primitive.ObjectID `bson:"created_by_id" json:"created_by_id"`
	CreatedByName string             `bson:"created_by_name" json:"created_by_name"`
	DueDate       string             `bson:"due_date,omitempty" json:"due_date,omitempty"` // YYYY-MM-DD
	Status        string             `bson:"status" json:"status"`
	CompletedAt   *time.Time         `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}
