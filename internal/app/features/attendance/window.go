// internal/app/features/attendance/window.go
package attendance

import (
	"context"
	"net/http"

	"github.com/dalemusser/fieldops/internal/app/system/timewindow"
)

type windowStatus struct {
	timewindow.State
	PollIntervalMs int64 `json:"pollIntervalMs"`
}

func (h *Handler) windowStatus() windowStatus {
	return windowStatus{
		State:          h.Window.Status(h.now()),
		PollIntervalMs: h.PollInterval.Milliseconds(),
	}
}

// WindowStatus answers GET /api/attendance/window. The page polls it to
// update the clock and disable check-in controls outside the window; the
// actions re-check the window themselves.
func (h *Handler) WindowStatus(w http.ResponseWriter, r *http.Request) {
	h.Actions.Run(w, r, "windowStatus", func(ctx context.Context) (any, error) {
		return h.windowStatus(), nil
	})
}
