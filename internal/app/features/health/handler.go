// internal/app/features/health/handler.go
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/app/system/timewindow"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type Handler struct {
	Client *mongo.Client
	Window timewindow.Window
	Log    *zap.Logger

	now func() time.Time
}

func NewHandler(client *mongo.Client, window timewindow.Window, logger *zap.Logger) *Handler {
	return &Handler{Client: client, Window: window, Log: logger, now: time.Now}
}

type report struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`

	// Reporting window as seen by the server clock.
	Date         string `json:"date"`
	WindowOpen   bool   `json:"window_open"`
	WindowBounds string `json:"window"`
}

// Serve answers GET /health with 200 when Mongo responds to a primary ping
// and 503 otherwise. The body also reports whether the reporting window is
// open on the server clock.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	st := h.Window.Status(h.now())
	rep := report{
		Status:       "ok",
		Database:     "connected",
		Date:         st.Date,
		WindowOpen:   st.Within,
		WindowBounds: st.Start + "-" + st.End,
	}
	code := http.StatusOK
	if err := h.ping(r.Context()); err != nil {
		h.Log.Error("health: mongo ping failed", zap.Error(err))
		code = http.StatusServiceUnavailable
		rep.Status, rep.Database, rep.Error = "error", "disconnected", err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(rep)
}

func (h *Handler) ping(ctx context.Context) error {
	if h.Client == nil {
		return mongo.ErrClientDisconnected
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	return h.Client.Ping(ctx, readpref.Primary())
}
