package tasks_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	"github.com/dalemusser/fieldops/internal/app/features/tasks"
	"github.com/dalemusser/fieldops/internal/app/store/audit"
	"github.com/dalemusser/fieldops/internal/app/system/auditlog"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/fieldops/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) (*tasks.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	al := auditlog.New(audit.New(db), logger, auditlog.Config{Auth: auditlog.Off, Admin: auditlog.DB})
	return tasks.NewHandler(db, uierrors.NewErrorLogger(logger, nil), al, nil, logger), testutil.NewFixtures(t, db)
}

// serve swallows the panic a full-page render raises without a template
// engine.
func serve(fn http.HandlerFunc, rec *httptest.ResponseRecorder, req *http.Request) {
	defer func() { _ = recover() }()
	fn(rec, req)
}

func TestCreateTask(t *testing.T) {
	h, f := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org := f.CreateOrg(ctx)
	south := f.CreateArea(ctx, "דרום", nil)
	beersheva := f.CreateCity(ctx, "באר שבע", south.ID)
	ramot := f.CreateNeighborhood(ctx, "רמות", beersheva.ID)
	outsider := f.CreateSupervisor(ctx, "רכז רמות", "ramot@test.local", ramot)
	coord := testutil.CityCoordinator(org.City.ID)

	tests := []struct {
		name     string
		assignee primitive.ObjectID
		title    string
		created  bool
	}{
		{"supervisor in city", org.Supervisor.ID, "  לבדוק נוכחות  ", true},
		{"supervisor of another city", outsider.ID, "לא אמור להיווצר", false},
		{"missing title", org.Supervisor.ID, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{"title": {tt.title}, "assignee_id": {tt.assignee.Hex()}, "due_date": {"2026-11-01"}}
			req := testutil.WithUser(testutil.NewFormRequest("/tasks", form), coord)
			rec := httptest.NewRecorder()
			serve(h.HandleCreate, rec, req)

			list, err := h.Tasks.ListAssignedTo(ctx, tt.assignee, true)
			if err != nil {
				t.Fatal(err)
			}
			if !tt.created {
				if len(list) != 0 {
					t.Errorf("tasks = %d, want 0", len(list))
				}
				return
			}
			if rec.Code != http.StatusSeeOther {
				t.Fatalf("status = %d, want 303", rec.Code)
			}
			if len(list) != 1 || list[0].Title != "לבדוק נוכחות" || list[0].AssigneeName != org.Supervisor.FullName {
				t.Fatalf("tasks = %+v", list)
			}
			if n, _ := h.Notifications.UnreadCount(ctx, tt.assignee); n != 1 {
				t.Errorf("assignee notifications = %d, want 1", n)
			}
			n, _ := f.DB().Collection("audit_log").CountDocuments(ctx, bson.M{"entity": models.EntityTask, "action": models.AuditCreate})
			if n != 1 {
				t.Errorf("audit entries = %d, want 1", n)
			}
		})
	}
}

func TestCompleteTask(t *testing.T) {
	h, f := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org := f.CreateOrg(ctx)
	creator := primitive.NewObjectID()

	task, err := h.Tasks.Create(ctx, models.Task{
		Title:        "לחלק עלונים",
		AssigneeID:   org.Supervisor.ID,
		AssigneeName: org.Supervisor.FullName,
		CreatedByID:  creator,
		Status:       models.TaskOpen,
	})
	if err != nil {
		t.Fatal(err)
	}
	post := func(user testutil.TestUser) *httptest.ResponseRecorder {
		req := testutil.WithUser(testutil.NewFormRequest("/tasks/x/complete", url.Values{}), user)
		req = testutil.WithChiURLParam(req, "id", task.ID.Hex())
		rec := httptest.NewRecorder()
		serve(h.HandleComplete, rec, req)
		return rec
	}

	post(testutil.Supervisor(primitive.NewObjectID(), org.City.ID))
	if got, _ := h.Tasks.GetByID(ctx, task.ID); got.Status != models.TaskOpen {
		t.Fatal("a stranger completed the task")
	}

	rec := post(testutil.Supervisor(org.Supervisor.ID, org.City.ID))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	got, err := h.Tasks.GetByID(ctx, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.TaskDone || got.CompletedAt == nil {
		t.Errorf("task = %+v", got)
	}
	if n, _ := h.Notifications.UnreadCount(ctx, creator); n != 1 {
		t.Errorf("creator notifications = %d, want 1", n)
	}
}
