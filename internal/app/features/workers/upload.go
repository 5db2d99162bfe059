// internal/app/features/workers/upload.go
package workers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dalemusser/fieldops/internal/app/features/orgselect"
	"github.com/dalemusser/fieldops/internal/app/system/authz"
	"github.com/dalemusser/fieldops/internal/app/system/cascade"
	"github.com/dalemusser/fieldops/internal/app/system/csvutil"
	"github.com/dalemusser/fieldops/internal/app/system/formutil"
	"github.com/dalemusser/fieldops/internal/app/system/normalize"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/app/system/txn"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

type uploadData struct {
	formutil.Base
	Cascade  orgselect.Fields
	Imported int
}

func (h *Handler) renderUpload(w http.ResponseWriter, r *http.Request, data uploadData, f *cascade.Form) {
	formutil.SetBase(&data.Base, r, h.DB, "ייבוא פעילים", "/workers")
	data.Cascade = orgselect.NewFields(f)
	templates.Render(w, r, "worker_upload", data)
}

// ServeUpload renders GET /workers/import.
func (h *Handler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	f, err := h.Cascade.Open(ctx, r, cascade.LevelSupervisor, cascade.ModeCreate)
	if err != nil {
		h.fail(w, r, "open cascade failed", err)
		return
	}
	h.renderUpload(w, r, uploadData{}, f)
}

// HandleUpload processes POST /workers/import: a CSV of workers placed in
// one neighborhood under one supervisor. The file is checked in full
// before anything is written.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, csvutil.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(csvutil.MaxUploadSize); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse upload failed", err, "הקובץ גדול מדי או אינו תקין", "/workers/import")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	f, err := h.Cascade.Replay(ctx, r, cascade.LevelSupervisor, cascade.ModeCreate, r.PostForm, 0)
	if err != nil {
		h.fail(w, r, "rebuild cascade failed", err)
		return
	}
	var data uploadData
	if f.Validate() != nil {
		data.SetError("יש לבחור שכונה ורכז לפעילים המיובאים")
		h.renderUpload(w, r, data, f)
		return
	}

	file, _, err := r.FormFile("csv")
	if err != nil {
		data.SetError("יש לבחור קובץ CSV")
		h.renderUpload(w, r, data, f)
		return
	}
	defer file.Close()

	rows, htmlErr, err := csvutil.PreScanWorkersCSV(file)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "read csv failed", err, "קריאת הקובץ נכשלה", "/workers/import")
		return
	}
	if htmlErr != "" {
		data.Error = htmlErr
		h.renderUpload(w, r, data, f)
		return
	}
	if len(rows) == 0 {
		data.SetError("הקובץ ריק")
		h.renderUpload(w, r, data, f)
		return
	}

	cityID, _ := normalize.ObjectID(f.CityID)
	nbID, _ := normalize.ObjectID(f.NeighborhoodID)
	supID, _ := normalize.ObjectID(f.SupervisorID)

	var created []models.Worker
	err = txn.Run(ctx, h.Cascade.Client, h.Log, func(ctx context.Context) error {
		created = created[:0]
		for _, row := range rows {
			wk, err := h.Workers.Create(ctx, models.Worker{
				FullName:       row.FullName,
				Phone:          row.Phone,
				Position:       row.Position,
				CityID:         cityID,
				NeighborhoodID: nbID,
				SupervisorID:   supID,
			})
			if err != nil {
				return fmt.Errorf("line %d: %w", row.Line, err)
			}
			created = append(created, wk)
		}
		return nil
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "import workers failed", err, "ייבוא הפעילים נכשל", "/workers/import")
		return
	}

	actor := authz.UserEmail(r)
	for _, wk := range created {
		h.AuditLog.Changed(ctx, r, actor, models.EntityWorker, models.AuditCreate, wk.ID, &cityID, nil, snapshot(wk))
	}

	data.Imported = len(created)
	h.renderUpload(w, r, data, f)
}
