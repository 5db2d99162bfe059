// internal/app/features/errorlogs/handler.go
package errorlogs

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	errorlogstore "github.com/dalemusser/fieldops/internal/app/store/errorlogs"
	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/dalemusser/fieldops/internal/app/system/authz"
	"github.com/dalemusser/fieldops/internal/app/system/normalize"
	"github.com/dalemusser/fieldops/internal/app/system/paging"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/app/system/viewdata"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the captured-errors console for superadmins.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
	Store  *errorlogstore.Store
	Loc    *time.Location
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, loc *time.Location, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{DB: db, Log: logger, ErrLog: errLog, Store: errorlogstore.New(db), Loc: loc}
}

type row struct {
	ID         string
	Reference  string
	When       string
	Operation  string
	Request    string
	Message    string
	UserEmail  string
	Resolved   bool
	ResolvedBy string
}

type listData struct {
	viewdata.BaseVM
	ShowAll   bool
	Reference string
	Rows      []row
	Pager     paging.Pager
	Open      int64
}

func (h *Handler) row(e models.ErrorLog) row {
	out := row{
		ID:         e.ID.Hex(),
		Reference:  e.Reference,
		When:       e.CreatedAt.In(h.Loc).Format("02/01/2006 15:04:05"),
		Operation:  e.Operation,
		Message:    e.Message,
		UserEmail:  e.UserEmail,
		Resolved:   e.Resolved,
		ResolvedBy: e.ResolvedBy,
	}
	if e.Method != "" {
		out.Request = e.Method + " " + e.Path
	}
	return out
}

// ServeList handles GET /errors[?all=1&ref=&start=]. A reference jumps
// straight to that one entry.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	data := listData{
		BaseVM:    viewdata.NewBaseVM(r, h.DB, "תקלות מערכת", "/dashboard"),
		ShowAll:   query.Get(r, "all") == "1",
		Reference: strings.ToUpper(normalize.QueryParam(query.Get(r, "ref"))),
	}

	open, err := h.Store.Count(ctx, true)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count errors failed", err, "טעינת התקלות נכשלה", "/dashboard")
		return
	}
	data.Open = open

	if data.Reference != "" {
		e, err := h.Store.GetByReference(ctx, data.Reference)
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
		case err != nil:
			h.ErrLog.LogServerError(w, r, "find error by reference failed", err, "טעינת התקלות נכשלה", "/errors")
			return
		default:
			data.Rows = []row{h.row(e)}
		}
		templates.Render(w, r, "errorlog_list", data)
		return
	}

	start := paging.ParseStart(r)
	unresolved := !data.ShowAll
	total, err := h.Store.Count(ctx, unresolved)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count errors failed", err, "טעינת התקלות נכשלה", "/dashboard")
		return
	}
	list, err := h.Store.List(ctx, unresolved, paging.LimitPlusOne(), paging.Skip(start))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list errors failed", err, "טעינת התקלות נכשלה", "/dashboard")
		return
	}
	pg := paging.TrimPage(&list, start)
	for _, e := range list {
		data.Rows = append(data.Rows, h.row(e))
	}
	data.Pager = paging.NewPager(r, start, len(list), total, pg)
	templates.Render(w, r, "errorlog_list", data)
}

// HandleResolve handles POST /errors/{id}/resolve. HTMX requests get the
// row's status cell back; plain posts are redirected to the list.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	id, ok := normalize.ObjectID(chi.URLParam(r, "id"))
	if !ok {
		uierrors.RenderNotFound(w, r, "/errors")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	email := authz.UserEmail(r)
	if err := h.Store.Resolve(ctx, id, email); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			uierrors.RenderNotFound(w, r, "/errors")
			return
		}
		h.ErrLog.LogServerError(w, r, "resolve error failed", err, "סימון התקלה נכשל", "/errors")
		return
	}
	h.Log.Info("error resolved", zap.String("id", id.Hex()), zap.String("by", email))

	if r.Header.Get("HX-Request") == "true" {
		templates.RenderSnippet(w, "errorlog_status", row{ID: id.Hex(), Resolved: true, ResolvedBy: email})
		return
	}
	http.Redirect(w, r, "/errors", http.StatusSeeOther)
}

// Routes mounts the console at /errors.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(models.RoleSuperAdmin))
	r.Get("/", h.ServeList)
	r.Post("/{id}/resolve", h.HandleResolve)
	return r
}
