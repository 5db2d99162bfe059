package reconcile

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/dalemusser/fieldops/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func oid(t *testing.T, hex string) primitive.ObjectID {
	t.Helper()
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		t.Fatalf("bad object id %q: %v", hex, err)
	}
	return id
}

func record(id primitive.ObjectID, date, status string) models.AttendanceRecord {
	return models.AttendanceRecord{
		ID:         id,
		Date:       date,
		Status:     status,
		WorkerID:   primitive.NewObjectID(),
		SiteID:     primitive.NewObjectID(),
		WorkerName: "worker " + date,
		SiteName:   "site",
	}
}

func deleteEntry(entityID primitive.ObjectID, before map[string]string, at time.Time) models.AuditEntry {
	return models.AuditEntry{
		ID:        primitive.NewObjectID(),
		Entity:    models.EntityAttendance,
		EntityID:  entityID,
		Action:    models.AuditDelete,
		Before:    before,
		After:     map[string]string{"reason": "duplicate"},
		UserEmail: "sup@example.com",
		CreatedAt: at,
	}
}

func TestMerge_DeleteReconciliation(t *testing.T) {
	a1 := oid(t, "000000000000000000000a01")
	a2 := oid(t, "000000000000000000000a02")

	records := []models.AttendanceRecord{record(a1, "2025-01-10", models.AttendancePresent)}
	audit := []models.AuditEntry{
		deleteEntry(a2, map[string]string{"date": "2025-01-09", "worker_name": "Dana"}, time.Date(2025, 1, 9, 12, 0, 0, 0, time.UTC)),
	}

	got := Merge(records, audit, time.UTC)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].IsDeleted || got[0].ID() != a1 {
		t.Errorf("first entry = %+v, want live a1", got[0])
	}
	if !got[1].IsDeleted || got[1].ID() != a2 {
		t.Fatalf("second entry = %+v, want deleted a2", got[1])
	}
	d := got[1].Deleted
	if d.WorkerName != "Dana" || d.Date != "2025-01-09" {
		t.Errorf("deleted view = %+v", d)
	}
	if d.Reason != "duplicate" || d.DeletedBy != "sup@example.com" {
		t.Errorf("deleted metadata = reason %q by %q", d.Reason, d.DeletedBy)
	}
	if !d.IsDeleted {
		t.Error("IsDeleted flag not set on view")
	}
}

func TestMerge_NoDoubleCountingForRecreatedRecord(t *testing.T) {
	id := primitive.NewObjectID()
	records := []models.AttendanceRecord{record(id, "2025-01-10", models.AttendancePresent)}
	audit := []models.AuditEntry{
		deleteEntry(id, map[string]string{"date": "2025-01-10"}, time.Now()),
	}

	got := Merge(records, audit, time.UTC)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].IsDeleted {
		t.Error("live record replaced by deleted view")
	}
}

func TestMerge_IgnoresNonDeleteAndOtherEntities(t *testing.T) {
	id := primitive.NewObjectID()
	audit := []models.AuditEntry{
		{Entity: models.EntityAttendance, EntityID: id, Action: models.AuditUpdate, Before: map[string]string{"date": "2025-01-01"}},
		{Entity: models.EntityWorker, EntityID: primitive.NewObjectID(), Action: models.AuditDelete},
		{Entity: models.EntityAttendance, EntityID: primitive.NewObjectID(), Action: models.AuditCreate},
	}
	if got := Merge(nil, audit, time.UTC); len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestMerge_RepeatedDeletesCollapse(t *testing.T) {
	id := primitive.NewObjectID()
	t1 := time.Date(2025, 1, 9, 8, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	older := deleteEntry(id, map[string]string{"date": "2025-01-09"}, t1)
	newer := deleteEntry(id, map[string]string{"date": "2025-01-09"}, t2)
	newer.UserEmail = "second@example.com"

	got := Merge(nil, []models.AuditEntry{older, newer}, time.UTC)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Deleted.DeletedBy != "second@example.com" {
		t.Errorf("kept delete by %q, want the latest", got[0].Deleted.DeletedBy)
	}
}

func TestMerge_UndatedDeleteUsesLocalDay(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Jerusalem")
	if err != nil {
		t.Skipf("tzdata: %v", err)
	}
	at := time.Date(2025, 1, 9, 23, 30, 0, 0, time.UTC)
	del := deleteEntry(primitive.NewObjectID(), map[string]string{"worker_name": "x"}, at)

	got := Merge(nil, []models.AuditEntry{del}, loc)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if d := got[0].Date(); d != "2025-01-10" {
		t.Errorf("date = %q, want 2025-01-10", d)
	}

	if d := Merge(nil, []models.AuditEntry{del}, nil)[0].Date(); d != "2025-01-09" {
		t.Errorf("nil loc: date = %q, want 2025-01-09", d)
	}
}

func TestMerge_SortedByDateDescending(t *testing.T) {
	dates := []string{"2025-01-03", "2025-01-10", "2024-12-31", "2025-01-07", "2025-01-10"}
	var records []models.AttendanceRecord
	for _, d := range dates {
		records = append(records, record(primitive.NewObjectID(), d, models.AttendancePresent))
	}
	audit := []models.AuditEntry{
		deleteEntry(primitive.NewObjectID(), map[string]string{"date": "2025-01-08"}, time.Now()),
		deleteEntry(primitive.NewObjectID(), map[string]string{"date": "2025-01-01"}, time.Now()),
	}

	got := Merge(records, audit, time.UTC)
	for i := 1; i < len(got); i++ {
		if got[i-1].Date() < got[i].Date() {
			t.Fatalf("entry %d (%s) sorts before %d (%s)", i-1, got[i-1].Date(), i, got[i].Date())
		}
	}
}

func TestMerge_IdempotentAndOrderIndependent(t *testing.T) {
	var records []models.AttendanceRecord
	var audit []models.AuditEntry
	base := time.Date(2025, 1, 1, 7, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		day := base.AddDate(0, 0, i%5)
		r := record(primitive.NewObjectID(), day.Format(models.DateLayout), models.AttendancePresent)
		at := day.Add(time.Duration(i) * time.Minute)
		r.CheckedInAt = &at
		records = append(records, r)
		audit = append(audit, deleteEntry(primitive.NewObjectID(), map[string]string{"date": day.Format(models.DateLayout)}, at))
	}
	// One delete for a record that is still live.
	audit = append(audit, deleteEntry(records[3].ID, map[string]string{"date": records[3].Date}, base))

	first := Merge(records, audit, time.UTC)
	second := Merge(records, audit, time.UTC)
	if !reflect.DeepEqual(ids(first), ids(second)) {
		t.Fatal("Merge is not idempotent")
	}

	rng := rand.New(rand.NewSource(1))
	shuffledR := append([]models.AttendanceRecord(nil), records...)
	shuffledA := append([]models.AuditEntry(nil), audit...)
	rng.Shuffle(len(shuffledR), func(i, j int) { shuffledR[i], shuffledR[j] = shuffledR[j], shuffledR[i] })
	rng.Shuffle(len(shuffledA), func(i, j int) { shuffledA[i], shuffledA[j] = shuffledA[j], shuffledA[i] })

	third := Merge(shuffledR, shuffledA, time.UTC)
	if !reflect.DeepEqual(ids(first), ids(third)) {
		t.Fatal("Merge depends on input order")
	}
	if len(first) != 40 {
		t.Errorf("len = %d, want 40", len(first))
	}
}

func TestMerge_DoesNotAliasInput(t *testing.T) {
	records := []models.AttendanceRecord{record(primitive.NewObjectID(), "2025-01-10", models.AttendancePresent)}
	got := Merge(records, nil, time.UTC)
	got[0].Record.Notes = "changed"
	if records[0].Notes != "" {
		t.Error("Merge result aliases the input slice")
	}
}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID().Hex()
	}
	return out
}
