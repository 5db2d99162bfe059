package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/fieldops/internal/app/system/inputval"
	"github.com/dalemusser/fieldops/internal/app/system/timewindow"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type fakeReporter struct{ calls int }

func (f *fakeReporter) Report(r *http.Request, op string, err error) string {
	f.calls++
	return "REF-1"
}

func run(t *testing.T, rep Reporter, fn Func) (int, Result) {
	t.Helper()
	runner := NewRunner(zap.NewNop(), rep)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/x", nil)
	runner.Run(rec, req, "test", fn)

	var res Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v (%s)", err, rec.Body.String())
	}
	return rec.Code, res
}

func TestRun_Success(t *testing.T) {
	code, res := run(t, nil, func(ctx context.Context) (any, error) {
		return map[string]int{"n": 1}, nil
	})
	if code != http.StatusOK || !res.Success || res.Error != "" {
		t.Errorf("code=%d res=%+v", code, res)
	}
}

func TestRun_Classification(t *testing.T) {
	type in struct {
		Name string `validate:"required" label:"שם"`
	}

	tests := []struct {
		name       string
		err        error
		wantCode   Code
		wantStatus int
		reported   bool
	}{
		{"time window", fmt.Errorf("check-in: %w", timewindow.ErrTimeWindowViolation), CodeTimeWindowViolation, http.StatusConflict, false},
		{"not found", mongo.ErrNoDocuments, CodeNotFound, http.StatusNotFound, false},
		{"forbidden", Fail(CodeForbidden, "אין הרשאה"), CodeForbidden, http.StatusForbidden, false},
		{"validation", Invalid(CodeValidationFailure, inputval.Validate(in{})), CodeValidationFailure, http.StatusUnprocessableEntity, false},
		{"fetch", Wrap(CodeFetchFailure, "טעינה נכשלה", errors.New("db down")), CodeFetchFailure, http.StatusServiceUnavailable, true},
		{"internal", errors.New("boom"), CodeInternal, http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := &fakeReporter{}
			status, res := run(t, rep, func(ctx context.Context) (any, error) { return nil, tt.err })
			if res.Success {
				t.Error("Success should be false")
			}
			if res.Code != tt.wantCode || status != tt.wantStatus {
				t.Errorf("code=%s status=%d, want %s %d", res.Code, status, tt.wantCode, tt.wantStatus)
			}
			if res.Error == "" {
				t.Error("every failure needs a visible message")
			}
			if (rep.calls > 0) != tt.reported {
				t.Errorf("reported=%v, want %v", rep.calls > 0, tt.reported)
			}
			if tt.reported && res.Reference != "REF-1" {
				t.Errorf("reference = %q", res.Reference)
			}
		})
	}
}

func TestRun_ValidationFields(t *testing.T) {
	type in struct {
		Email string `validate:"required,emailaddr" label:"דוא\"ל"`
	}
	_, res := run(t, nil, func(ctx context.Context) (any, error) {
		return nil, Invalid(CodeQuickCreateFailure, inputval.Validate(in{Email: "x"}))
	})
	if res.Fields["Email"] == "" {
		t.Errorf("fields = %+v", res.Fields)
	}
}

func TestRun_RecoversPanic(t *testing.T) {
	status, res := run(t, nil, func(ctx context.Context) (any, error) {
		panic("kaboom")
	})
	if status != http.StatusInternalServerError || res.Code != CodeInternal {
		t.Errorf("status=%d res=%+v", status, res)
	}
}
