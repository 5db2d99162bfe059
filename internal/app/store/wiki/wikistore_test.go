package wikistore_test

import (
	"errors"
	"testing"

	wikistore "github.com/dalemusser/fieldops/internal/app/store/wiki"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/fieldops/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Upsert(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := wikistore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := s.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}

	if err := s.Upsert(ctx, models.WikiPage{Slug: "check-in", Title: "רישום נוכחות", Body: "<p>א</p>"}); err != nil {
		t.Fatalf("Upsert create: %v", err)
	}
	first, err := s.GetBySlug(ctx, "check-in")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if first.Title != "רישום נוכחות" || first.CreatedAt.IsZero() {
		t.Errorf("page = %+v", first)
	}

	if err := s.Upsert(ctx, models.WikiPage{Slug: "check-in", Title: "רישום נוכחות", Body: "<p>ב</p>"}); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}
	second, _ := s.GetBySlug(ctx, "check-in")
	if second.ID != first.ID || second.Body != "<p>ב</p>" {
		t.Errorf("update should keep id and replace body: %+v", second)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Error("CreatedAt changed on update")
	}

	list, _ := s.List(ctx)
	if len(list) != 1 || list[0].Body != "" {
		t.Errorf("List should omit bodies: %+v", list)
	}

	if n, _ := s.Delete(ctx, "check-in"); n != 1 {
		t.Errorf("Delete = %d", n)
	}
	if _, err := s.GetBySlug(ctx, "check-in"); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("after delete = %v", err)
	}
}
