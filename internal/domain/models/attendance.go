// internal/domain/models/attendance.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Attendance statuses.
const (
	AttendancePresent = "PRESENT"
	AttendanceAbsent  = "ABSENT"
)

// DateLayout is the layout of AttendanceRecord.Date. Dates are stored as
// local calendar days so string order equals chronological order.
const DateLayout = "2006-01-02"

// AttendanceRecord is one worker's check-in for one day at one site.
// Records are never hard-deleted without a matching DELETE audit entry;
// deleted history is rebuilt from the audit log.
type AttendanceRecord struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Date        string             `bson:"date" json:"date"` // YYYY-MM-DD, local day
	WorkerID    primitive.ObjectID `bson:"worker_id" json:"worker_id"`
	SiteID      primitive.ObjectID `bson:"site_id" json:"site_id"` // neighborhoods._id
	CityID      primitive.ObjectID `bson:"city_id" json:"city_id"`
	Status      string             `bson:"status" json:"status"`
	CheckedInAt *time.Time         `bson:"checked_in_at,omitempty" json:"checked_in_at,omitempty"`
	CheckedInBy string             `bson:"checked_in_by,omitempty" json:"checked_in_by,omitempty"` // email
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`

	// Denormalized for history and export.
	WorkerName  string `bson:"worker_name" json:"worker_name"`
	WorkerPhone string `bson:"worker_phone,omitempty" json:"worker_phone,omitempty"`
	SiteName    string `bson:"site_name" json:"site_name"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Snapshot returns the audit payload for the record. The keys are the ones
// history reconstruction reads back from AuditEntry.Before.
func (a AttendanceRecord) Snapshot() map[string]string {
	s := map[string]string{
		"date":         a.Date,
		"status":       a.Status,
		"worker_id":    a.WorkerID.Hex(),
		"worker_name":  a.WorkerName,
		"worker_phone": a.WorkerPhone,
		"site_id":      a.SiteID.Hex(),
		"site_name":    a.SiteName,
		"notes":        a.Notes,
	}
	if a.CheckedInAt != nil {
		s["checked_in_at"] = a.CheckedInAt.UTC().Format(time.RFC3339)
	}
	if a.CheckedInBy != "" {
		s["checked_in_by"] = a.CheckedInBy
	}
	return s
}
