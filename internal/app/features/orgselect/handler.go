// internal/app/features/orgselect/handler.go
package orgselect

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	neighborhoodstore "github.com/dalemusser/fieldops/internal/app/store/neighborhoods"
	"github.com/dalemusser/fieldops/internal/app/store/supervisorassign"
	userstore "github.com/dalemusser/fieldops/internal/app/store/users"
	"github.com/dalemusser/fieldops/internal/app/system/actions"
	"github.com/dalemusser/fieldops/internal/app/system/auditlog"
	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/dalemusser/fieldops/internal/app/system/cascade"
	"github.com/dalemusser/fieldops/internal/app/system/normalize"
	"github.com/dalemusser/fieldops/internal/app/system/orgutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the Area → City → Neighborhood → Supervisor selects and
// the inline supervisor quick-create. Other features open their forms
// through it so every cascade is built from the same scoped dataset.
type Handler struct {
	DB       *mongo.Database
	Client   *mongo.Client
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Actions  *actions.Runner

	// Fetch loads a neighborhood's supervisors; tests replace it.
	Fetch cascade.Fetcher

	Users         *userstore.Store
	Assign        *supervisorassign.Store
	Neighborhoods *neighborhoodstore.Store
}

func NewHandler(db *mongo.Database, client *mongo.Client, errLog *uierrors.ErrorLogger, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
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
		Fetch:         orgutil.SupervisorFetcher(db),
		Users:         userstore.New(db),
		Assign:        supervisorassign.New(db),
		Neighborhoods: neighborhoodstore.New(db),
	}
}

const (
	msgBadRequest   = "נתוני הבקשה אינם תקינים"
	msgFetchFailure = "טעינת הנתונים נכשלה. נסו שוב"
	msgForbidden    = "אין לך הרשאה לפעולה זו"
)

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

// Dataset loads every option the signed-in user may pick from.
func (h *Handler) Dataset(ctx context.Context, r *http.Request) (cascade.Dataset, error) {
	sc, err := h.scope(ctx, r)
	if err != nil {
		return cascade.Dataset{}, err
	}
	hier, err := orgutil.LoadHierarchy(ctx, h.DB, sc)
	if err != nil {
		return cascade.Dataset{}, actions.Wrap(actions.CodeFetchFailure, msgFetchFailure, err)
	}
	return hier.Dataset(), nil
}

// Open returns an empty form. Create forms pre-pick a lone area and city.
func (h *Handler) Open(ctx context.Context, r *http.Request, depth cascade.Level, mode cascade.Mode) (*cascade.Form, error) {
	d, err := h.Dataset(ctx, r)
	if err != nil {
		return nil, err
	}
	f := cascade.NewForm(d, depth, mode)
	f.AutoSelect()
	return f, nil
}

// OpenEdit returns an edit form positioned on leafID. On supervisor-depth
// forms the supervisor list is fetched before returning, and supervisorID
// stays selected only if it is still assigned to the neighborhood.
func (h *Handler) OpenEdit(ctx context.Context, r *http.Request, depth, leaf cascade.Level, leafID, supervisorID string) (*cascade.Form, error) {
	d, err := h.Dataset(ctx, r)
	if err != nil {
		return nil, err
	}
	f, err := cascade.Prepopulate(d, depth, leaf, leafID)
	if err != nil {
		return nil, err
	}
	if supervisorID != "" {
		f.Preselect(supervisorID)
	}
	sess := cascade.NewSession(f, h.Fetch)
	defer sess.Close()
	if err := wait(ctx, sess.Resume(ctx)); err != nil {
		return nil, err
	}
	return f, nil
}

// Replay rebuilds a form from posted values. Levels are applied from the
// top and stop at the first empty or invalid id, or at changed, since
// anything below the level the user just changed is stale. Posted forms
// are never auto-selected.
func (h *Handler) Replay(ctx context.Context, r *http.Request, depth cascade.Level, mode cascade.Mode, values url.Values, changed cascade.Level) (*cascade.Form, error) {
	d, err := h.Dataset(ctx, r)
	if err != nil {
		return nil, err
	}
	f := cascade.NewForm(d, depth, mode)
	sess := cascade.NewSession(f, h.Fetch)
	defer sess.Close()

	for _, l := range cascade.Levels {
		if l > f.Depth {
			break
		}
		id := normalize.FilterID(values.Get(l.Key()))
		if id == "" {
			break
		}
		done, err := sess.Select(ctx, l, id)
		if err != nil {
			break
		}
		if err := wait(ctx, done); err != nil {
			return nil, err
		}
		if l == changed {
			break
		}
	}
	return f, nil
}

func wait(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// formShape reads the depth and mode fields every cascade fragment posts.
func formShape(values url.Values) (cascade.Level, cascade.Mode) {
	depth := cascade.LevelSupervisor
	if n, err := strconv.Atoi(values.Get("depth")); err == nil {
		depth = cascade.Level(n)
	}
	mode := cascade.ModeCreate
	if cascade.Mode(values.Get("mode")) == cascade.ModeEdit {
		mode = cascade.ModeEdit
	}
	return depth, mode
}
