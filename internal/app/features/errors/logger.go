// internal/app/features/errors/logger.go
package errors

import (
	"context"
	"net/http"
	"strings"
	"time"

	errorlogstore "github.com/dalemusser/fieldops/internal/app/store/errorlogs"
	"github.com/dalemusser/fieldops/internal/app/system/authz"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrorLogger logs handler failures and, for server errors, persists them
// to error_logs under a short reference the user can quote.
type ErrorLogger struct {
	Log   *zap.Logger
	Store *errorlogstore.Store // nil disables persistence
}

// NewErrorLogger constructs an ErrorLogger. store may be nil.
func NewErrorLogger(logger *zap.Logger, store *errorlogstore.Store) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{Log: logger, Store: store}
}

// NewReference returns an 8-character upper-case reference code.
func NewReference() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// LogBadRequest logs at warn level and renders a 400 page. Nothing is
// persisted; these are user mistakes, not faults.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	e.Log.Warn(msg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	renderError(w, r, http.StatusBadRequest, "בקשה לא תקינה", userMsg, "", backURL)
}

// LogServerError logs at error level, persists the failure and renders a
// 500 page showing the reference.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	ref := e.Report(r, msg, err)
	renderError(w, r, http.StatusInternalServerError, "שגיאת שרת", userMsg, ref, backURL)
}

// Report records err and returns its reference. It implements
// actions.Reporter, so JSON endpoints share the same telemetry.
func (e *ErrorLogger) Report(r *http.Request, operation string, err error) string {
	ref := NewReference()
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	e.Log.Error(operation,
		zap.String("reference", ref),
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))

	if e.Store == nil {
		return ref
	}
	// The request may already be cancelled; telemetry still gets written.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 3*time.Second)
	defer cancel()
	_, perr := e.Store.Insert(ctx, models.ErrorLog{
		Reference: ref,
		Operation: operation,
		Method:    r.Method,
		Path:      r.URL.Path,
		Message:   msg,
		UserEmail: authz.UserEmail(r),
		UserAgent: r.UserAgent(),
	})
	if perr != nil {
		e.Log.Warn("failed to persist error log", zap.String("reference", ref), zap.Error(perr))
	}
	return ref
}
