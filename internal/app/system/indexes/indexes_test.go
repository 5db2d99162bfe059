package indexes

import (
	"errors"
	"testing"

	"github.com/dalemusser/fieldops/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := EnsureAll(ctx, db, nil); err != nil {
		t.Fatalf("first EnsureAll: %v", err)
	}
	if err := EnsureAll(ctx, db, nil); err != nil {
		t.Fatalf("second EnsureAll: %v", err)
	}

	cur, err := db.Collection("attendance").Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes: %v", err)
	}
	defer cur.Close(ctx)
	found := false
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if idx["name"] == "uniq_worker_date" && idx["unique"] == true {
			found = true
		}
	}
	if !found {
		t.Error("expected unique worker/date index on attendance")
	}
}

func TestIsOptionsConflictErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"code 85", mongo.CommandError{Code: 85}, true},
		{"code 86", mongo.CommandError{Code: 86}, true},
		{"message", errors.New("(IndexOptionsConflict) index already exists"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isOptionsConflictErr(tt.err); got != tt.want {
				t.Errorf("isOptionsConflictErr(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
