package taskstore_test

import (
	"testing"

	taskstore "github.com/dalemusser/fieldops/internal/app/store/tasks"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/fieldops/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_AssignAndComplete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := taskstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mgr, worker := primitive.NewObjectID(), primitive.NewObjectID()
	a, err := s.Create(ctx, models.Task{Title: "לחלק עלונים", AssigneeID: worker, CreatedByID: mgr, DueDate: "2025-01-10"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Status != models.TaskOpen {
		t.Errorf("status = %q, want open", a.Status)
	}
	_, _ = s.Create(ctx, models.Task{Title: "ישיבת צוות", AssigneeID: worker, CreatedByID: mgr, DueDate: "2025-01-20"})

	mine, _ := s.ListAssignedTo(ctx, worker, false)
	if len(mine) != 2 || mine[0].ID != a.ID {
		t.Errorf("ListAssignedTo = %+v", mine)
	}

	ok, err := s.Complete(ctx, a.ID, mgr)
	if err != nil || ok {
		t.Errorf("Complete by non-assignee = %v, %v", ok, err)
	}
	ok, err = s.Complete(ctx, a.ID, worker)
	if err != nil || !ok {
		t.Fatalf("Complete = %v, %v", ok, err)
	}
	ok, _ = s.Complete(ctx, a.ID, worker)
	if ok {
		t.Error("completing twice should not match")
	}

	open, _ := s.ListAssignedTo(ctx, worker, false)
	if len(open) != 1 {
		t.Errorf("open tasks = %d, want 1", len(open))
	}
	all, _ := s.ListAssignedTo(ctx, worker, true)
	if len(all) != 2 || all[0].Status != models.TaskOpen {
		t.Errorf("all tasks = %+v", all)
	}

	created, _ := s.ListCreatedBy(ctx, mgr)
	if len(created) != 2 {
		t.Errorf("ListCreatedBy = %d", len(created))
	}

	overdue, _ := s.OverdueOpen(ctx, "2025-01-25")
	if len(overdue) != 1 {
		t.Errorf("OverdueOpen = %d, want 1", len(overdue))
	}
}
