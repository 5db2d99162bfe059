// internal/app/features/attendance/handler.go
package attendance

import (
	"context"
	"errors"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	attendancestore "github.com/dalemusser/fieldops/internal/app/store/attendance"
	"github.com/dalemusser/fieldops/internal/app/store/audit"
	neighborhoodstore "github.com/dalemusser/fieldops/internal/app/store/neighborhoods"
	workerstore "github.com/dalemusser/fieldops/internal/app/store/workers"
	"github.com/dalemusser/fieldops/internal/app/system/actions"
	"github.com/dalemusser/fieldops/internal/app/system/auditlog"
	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/dalemusser/fieldops/internal/app/system/orgutil"
	"github.com/dalemusser/fieldops/internal/app/system/timewindow"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DefaultPollInterval is how often the attendance page refreshes the window
// status.
const DefaultPollInterval = 60 * time.Second

// Handler serves the attendance board, history, export and the attendance
// actions.
type Handler struct {
	DB       *mongo.Database
	Client   *mongo.Client
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Actions  *actions.Runner

	Window       timewindow.Window
	PollInterval time.Duration
	BatchSize    int64

	// Now is the clock; tests replace it.
	Now func() time.Time

	Records       *attendancestore.Store
	Audit         *audit.Store
	Workers       *workerstore.Store
	Neighborhoods *neighborhoodstore.Store
}

func NewHandler(
	db *mongo.Database,
	client *mongo.Client,
	errLog *uierrors.ErrorLogger,
	auditLog *auditlog.Logger,
	window timewindow.Window,
	pollInterval time.Duration,
	batchSize int64,
	logger *zap.Logger,
) *Handler {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if batchSize <= 0 {
		batchSize = attendancestore.DefaultBatchSize
	}
	var rep actions.Reporter
	if errLog != nil {
		rep = errLog
	}
	return &Handler{
		DB:            db,
		Client:        client,
		Log:           logger,
		ErrLog:        errLog,
		AuditLog:      auditLog,
		Actions:       actions.NewRunner(logger, rep),
		Window:        window,
		PollInterval:  pollInterval,
		BatchSize:     batchSize,
		Now:           time.Now,
		Records:       attendancestore.New(db),
		Audit:         audit.New(db),
		Workers:       workerstore.New(db),
		Neighborhoods: neighborhoodstore.New(db),
	}
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

// Messages shared by the actions.
const (
	msgBadRequest   = "נתוני הבקשה אינם תקינים"
	msgFetchFailure = "טעינת הנתונים נכשלה. נסו שוב"
	msgForbidden    = "אין לך הרשאה לפעולה זו"
)

// report records a failure the page recovers from. The user sees a banner;
// the cause still reaches error_logs under a reference.
func (h *Handler) report(r *http.Request, op string, err error) {
	if h.ErrLog != nil {
		h.ErrLog.Report(r, op, err)
		return
	}
	h.Log.Error(op, zap.Error(err))
}

// scope resolves what the signed-in user may see. A user without an
// organization scope is refused.
func (h *Handler) scope(ctx context.Context, r *http.Request) (orgutil.Scope, error) {
	u, _ := auth.CurrentUser(r)
	sc, err := orgutil.Resolve(ctx, h.DB, u)
	if errors.Is(err, orgutil.ErrNoScope) {
		return orgutil.Scope{}, actions.Fail(actions.CodeForbidden, msgForbidden)
	}
	if err != nil {
		return orgutil.Scope{}, actions.Wrap(actions.CodeFetchFailure, msgFetchFailure, err)
	}
	return sc, nil
}
