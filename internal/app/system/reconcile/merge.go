// Package reconcile builds the attendance history view: live records merged
// with records that were deleted, reconstructed from DELETE audit entries.
//
// Nothing here touches the database. Handlers fetch records and audit
// entries for a date range and hand both slices to Merge; Filter, Page and
// Summarize then operate on the merged sequence.
package reconcile

import (
	"sort"
	"time"

	"github.com/dalemusser/fieldops/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeletedView is an attendance record that no longer exists in the live
// collection, rebuilt from the Before payload of its DELETE audit entry.
type DeletedView struct {
	ID          primitive.ObjectID `json:"id"`
	Date        string             `json:"date"`
	Status      string             `json:"status"`
	WorkerID    string             `json:"worker_id,omitempty"`
	WorkerName  string             `json:"worker_name"`
	WorkerPhone string             `json:"worker_phone,omitempty"`
	SiteID      string             `json:"site_id,omitempty"`
	SiteName    string             `json:"site_name"`
	Notes       string             `json:"notes,omitempty"`
	CheckedInBy string             `json:"checked_in_by,omitempty"`
	Reason      string             `json:"reason,omitempty"`
	DeletedBy   string             `json:"deleted_by"`
	DeletedAt   time.Time          `json:"deleted_at"`
	IsDeleted   bool               `json:"is_deleted"`
}

// Entry is one row of the history. Exactly one of Record and Deleted is
// set; IsDeleted says which.
type Entry struct {
	IsDeleted bool                     `json:"is_deleted"`
	Record    *models.AttendanceRecord `json:"record,omitempty"`
	Deleted   *DeletedView             `json:"deleted,omitempty"`
}

// ID returns the attendance record id of the row.
func (e Entry) ID() primitive.ObjectID {
	if e.IsDeleted {
		return e.Deleted.ID
	}
	return e.Record.ID
}

// Date returns the YYYY-MM-DD day of the row.
func (e Entry) Date() string {
	if e.IsDeleted {
		return e.Deleted.Date
	}
	return e.Record.Date
}

// Status returns PRESENT or ABSENT as it was recorded.
func (e Entry) Status() string {
	if e.IsDeleted {
		return e.Deleted.Status
	}
	return e.Record.Status
}

// WorkerID returns the worker id as hex.
func (e Entry) WorkerID() string {
	if e.IsDeleted {
		return e.Deleted.WorkerID
	}
	return e.Record.WorkerID.Hex()
}

// SiteID returns the neighborhood id as hex.
func (e Entry) SiteID() string {
	if e.IsDeleted {
		return e.Deleted.SiteID
	}
	return e.Record.SiteID.Hex()
}

// WorkerName returns the denormalized worker name.
func (e Entry) WorkerName() string {
	if e.IsDeleted {
		return e.Deleted.WorkerName
	}
	return e.Record.WorkerName
}

// SiteName returns the denormalized neighborhood name.
func (e Entry) SiteName() string {
	if e.IsDeleted {
		return e.Deleted.SiteName
	}
	return e.Record.SiteName
}

// Notes returns the record notes.
func (e Entry) Notes() string {
	if e.IsDeleted {
		return e.Deleted.Notes
	}
	return e.Record.Notes
}

// stamp is the secondary sort key: check-in time for live rows, deletion
// time for deleted rows.
func (e Entry) stamp() time.Time {
	if e.IsDeleted {
		return e.Deleted.DeletedAt
	}
	if e.Record.CheckedInAt != nil {
		return *e.Record.CheckedInAt
	}
	return e.Record.CreatedAt
}

// Merge combines live records with deleted records reconstructed from the
// audit log. A DELETE entry whose entity id still exists among records is
// ignored, so a record deleted and later recreated under the same id is
// never counted twice. Several DELETE entries for the same id collapse to
// the most recent one.
//
// The result is sorted by date descending, then by check-in/deletion time
// descending, then by id, and does not depend on input order.
//
// A DELETE entry whose snapshot lacks a date is dated by when it was
// written, as a calendar day in loc. A nil loc means UTC.
func Merge(records []models.AttendanceRecord, audit []models.AuditEntry, loc *time.Location) []Entry {
	if loc == nil {
		loc = time.UTC
	}
	live := make(map[primitive.ObjectID]struct{}, len(records))
	out := make([]Entry, 0, len(records))
	for i := range records {
		rec := records[i]
		if _, dup := live[rec.ID]; dup {
			continue
		}
		live[rec.ID] = struct{}{}
		out = append(out, Entry{Record: &rec})
	}

	deleted := make(map[primitive.ObjectID]*DeletedView)
	for _, a := range audit {
		if a.Action != models.AuditDelete {
			continue
		}
		if a.Entity != "" && a.Entity != models.EntityAttendance {
			continue
		}
		if _, ok := live[a.EntityID]; ok {
			continue
		}
		v := deletedFromAudit(a, loc)
		if prev, ok := deleted[a.EntityID]; ok && !laterDelete(v, prev) {
			continue
		}
		deleted[a.EntityID] = v
	}
	for _, v := range deleted {
		out = append(out, Entry{IsDeleted: true, Deleted: v})
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func laterDelete(a, b *DeletedView) bool {
	if !a.DeletedAt.Equal(b.DeletedAt) {
		return a.DeletedAt.After(b.DeletedAt)
	}
	return a.DeletedBy < b.DeletedBy
}

// less orders entries newest first.
func less(a, b Entry) bool {
	if da, db := a.Date(), b.Date(); da != db {
		return da > db
	}
	if sa, sb := a.stamp(), b.stamp(); !sa.Equal(sb) {
		return sa.After(sb)
	}
	ia, ib := a.ID(), b.ID()
	if ia != ib {
		return ia.Hex() > ib.Hex()
	}
	// Same id on both sides only happens for a live row and a deleted
	// row; live wins.
	return !a.IsDeleted && b.IsDeleted
}

func deletedFromAudit(a models.AuditEntry, loc *time.Location) *DeletedView {
	before := a.Before
	if before == nil {
		before = map[string]string{}
	}
	v := &DeletedView{
		ID:          a.EntityID,
		Date:        before["date"],
		Status:      before["status"],
		WorkerID:    before["worker_id"],
		WorkerName:  before["worker_name"],
		WorkerPhone: before["worker_phone"],
		SiteID:      before["site_id"],
		SiteName:    before["site_name"],
		Notes:       before["notes"],
		CheckedInBy: before["checked_in_by"],
		DeletedBy:   a.UserEmail,
		DeletedAt:   a.CreatedAt,
		IsDeleted:   true,
	}
	if a.After != nil {
		v.Reason = a.After["reason"]
	}
	if v.Date == "" && !a.CreatedAt.IsZero() {
		v.Date = a.CreatedAt.In(loc).Format(models.DateLayout)
	}
	return v
}
