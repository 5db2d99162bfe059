// internal/domain/models/auditentry.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Audit actions.
const (
	AuditCreate = "CREATE"
	AuditUpdate = "UPDATE"
	AuditDelete = "DELETE"

	AuditLogin       = "LOGIN"
	AuditLoginFailed = "LOGIN_FAILED"
	AuditLogout      = "LOGOUT"
)

// Audited entity names.
const (
	EntityAttendance   = "attendance"
	EntityArea         = "area"
	EntityCity         = "city"
	EntityNeighborhood = "neighborhood"
	EntityWorker       = "worker"
	EntityUser         = "user"
	EntityTask         = "task"
	EntityWikiPage     = "wiki_page"
	EntitySession      = "session"
)

// AuditEntry is an append-only record of a mutation on a tracked entity.
// Before/After hold flat string snapshots of the entity (see
// AttendanceRecord.Snapshot); After may carry a "reason" on deletes.
type AuditEntry struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Entity    string              `bson:"entity" json:"entity"`
	EntityID  primitive.ObjectID  `bson:"entity_id" json:"entity_id"`
	Action    string              `bson:"action" json:"action"`
	Before    map[string]string   `bson:"before,omitempty" json:"before,omitempty"`
	After     map[string]string   `bson:"after,omitempty" json:"after,omitempty"`
	UserEmail string              `bson:"user_email" json:"user_email"`
	CityID    *primitive.ObjectID `bson:"city_id,omitempty" json:"city_id,omitempty"` // scope for coordinator views
	IP        string              `bson:"ip,omitempty" json:"-"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
}
