package errorlogs_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/dalemusser/fieldops/internal/app/features/errorlogs"
	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	errorlogstore "github.com/dalemusser/fieldops/internal/app/store/errorlogs"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/fieldops/internal/testutil"
	"go.uber.org/zap"
)

func TestResolve(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	h := errorlogs.NewHandler(db, uierrors.NewErrorLogger(logger, nil), nil, logger)
	store := errorlogstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e, err := store.Insert(ctx, models.ErrorLog{Reference: "AB12CD34", Operation: "list workers failed", Message: "boom"})
	if err != nil {
		t.Fatal(err)
	}
	other, err := store.Insert(ctx, models.ErrorLog{Reference: "EF56AB78", Operation: "load hierarchy failed", Message: "boom"})
	if err != nil {
		t.Fatal(err)
	}

	req := testutil.WithUser(testutil.NewFormRequest("/errors/"+e.ID.Hex()+"/resolve", url.Values{}), testutil.SuperAdmin())
	req = testutil.WithChiURLParam(req, "id", e.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleResolve(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	got, err := store.GetByReference(ctx, "AB12CD34")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Resolved || got.ResolvedBy != "admin@test.local" || got.ResolvedAt == nil {
		t.Errorf("resolved entry = %+v", got)
	}
	if n, _ := store.Count(ctx, true); n != 1 {
		t.Errorf("open = %d, want 1", n)
	}
	if got, _ := store.GetByReference(ctx, other.Reference); got.Resolved {
		t.Error("other entry resolved too")
	}
}
