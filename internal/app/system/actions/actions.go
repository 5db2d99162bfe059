// Package actions is the JSON envelope shared by every /api endpoint.
//
// Each endpoint runs its work through Runner.Run. The work returns data or
// an error; Run classifies the error into a Code, reports unexpected errors
// to error telemetry and always answers with a Result, so the page can show
// a field error or a banner instead of failing silently.
package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/fieldops/internal/app/system/inputval"
	"github.com/dalemusser/fieldops/internal/app/system/timewindow"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Code classifies a failed action.
type Code string

const (
	CodeFetchFailure        Code = "FetchFailure"
	CodeValidationFailure   Code = "ValidationFailure"
	CodeTimeWindowViolation Code = "TimeWindowViolation"
	CodeQuickCreateFailure  Code = "QuickCreateFailure"
	CodeNotFound            Code = "NotFound"
	CodeForbidden           Code = "Forbidden"
	CodeInternal            Code = "Internal"
)

// Status maps a code to its HTTP status.
func (c Code) Status() int {
	switch c {
	case CodeValidationFailure, CodeQuickCreateFailure:
		return http.StatusUnprocessableEntity
	case CodeTimeWindowViolation:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeForbidden:
		return http.StatusForbidden
	case CodeFetchFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Result is the body of every action response.
type Result struct {
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Code      Code              `json:"code,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	Reference string            `json:"reference,omitempty"`
	Data      any               `json:"data,omitempty"`
}

// Error is a classified failure with a user-facing (Hebrew) message.
type Error struct {
	Code    Code
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Fail builds a classified error.
func Fail(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap classifies err under code with msg shown to the user.
func Wrap(code Code, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// Invalid turns a failed validation into a field-scoped error.
func Invalid(code Code, res inputval.Result) *Error {
	return &Error{Code: code, Message: res.First(), Fields: res.ByField()}
}

// Messages for unclassified failures.
const (
	msgTimeWindow = "דיווח נוכחות אפשרי רק בשעות הפעילות"
	msgNotFound   = "הרשומה לא נמצאה"
	msgInternal   = "אירעה שגיאה. נסו שוב מאוחר יותר"
)

// Classify maps err to a Result without reporting it.
func Classify(err error) Result {
	var ae *Error
	switch {
	case errors.As(err, &ae):
		return Result{Code: ae.Code, Error: ae.Message, Fields: ae.Fields}
	case errors.Is(err, timewindow.ErrTimeWindowViolation):
		return Result{Code: CodeTimeWindowViolation, Error: msgTimeWindow}
	case errors.Is(err, mongo.ErrNoDocuments):
		return Result{Code: CodeNotFound, Error: msgNotFound}
	default:
		return Result{Code: CodeInternal, Error: msgInternal}
	}
}

// Reporter records unexpected failures and returns a reference the user can
// quote to support.
type Reporter interface {
	Report(r *http.Request, operation string, err error) string
}

// Runner executes actions for one feature handler.
type Runner struct {
	Log      *zap.Logger
	Reporter Reporter // may be nil
}

// NewRunner builds a Runner.
func NewRunner(logger *zap.Logger, rep Reporter) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Log: logger, Reporter: rep}
}

// Func is the body of an action.
type Func func(ctx context.Context) (any, error)

// Run executes fn and writes the Result. Panics become CodeInternal.
func (a *Runner) Run(w http.ResponseWriter, r *http.Request, operation string, fn Func) {
	data, err := a.call(r.Context(), fn)
	if err == nil {
		WriteJSON(w, http.StatusOK, Result{Success: true, Data: data})
		return
	}

	res := Classify(err)
	if res.Code == CodeInternal || res.Code == CodeFetchFailure {
		a.Log.Error("action failed", zap.String("operation", operation), zap.Error(err))
		if a.Reporter != nil {
			res.Reference = a.Reporter.Report(r, operation, err)
		}
	} else {
		a.Log.Debug("action rejected",
			zap.String("operation", operation),
			zap.String("code", string(res.Code)),
			zap.Error(err))
	}
	WriteJSON(w, res.Code.Status(), res)
}

func (a *Runner) call(ctx context.Context, fn Func) (data any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn(ctx)
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
