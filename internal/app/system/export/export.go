// Package export shapes attendance history rows for spreadsheet download
// and writes them as a right-to-left xlsx workbook.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/dalemusser/fieldops/internal/app/system/reconcile"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/xuri/excelize/v2"
)

// SheetName is the single worksheet of an attendance export.
const SheetName = "נוכחות"

// Headers are the column titles, in order.
var Headers = []string{
	"תאריך",
	"עובד",
	"טלפון",
	"שכונה",
	"סטטוס",
	"שעת דיווח",
	"דווח על ידי",
	"הערות",
	"נמחק",
	"נמחק על ידי",
	"סיבת מחיקה",
}

// StatusLabel translates a stored status for display.
func StatusLabel(status string) string {
	switch status {
	case models.AttendancePresent:
		return "נוכח"
	case models.AttendanceAbsent:
		return "נעדר"
	default:
		return status
	}
}

// Rows returns the header row and one row per entry, in entry order.
// Times are rendered in loc.
func Rows(entries []reconcile.Entry, loc *time.Location) ([]string, [][]any) {
	if loc == nil {
		loc = time.Local
	}
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		var (
			phone, checkedBy, checkedAt string
			deleted, deletedBy, reason  string
		)
		if e.IsDeleted {
			d := e.Deleted
			phone, checkedBy = d.WorkerPhone, d.CheckedInBy
			deleted = "כן"
			deletedBy, reason = d.DeletedBy, d.Reason
		} else {
			rec := e.Record
			phone, checkedBy = rec.WorkerPhone, rec.CheckedInBy
			if rec.CheckedInAt != nil {
				checkedAt = rec.CheckedInAt.In(loc).Format("15:04")
			}
		}
		rows = append(rows, []any{
			e.Date(),
			e.WorkerName(),
			phone,
			e.SiteName(),
			StatusLabel(e.Status()),
			checkedAt,
			checkedBy,
			e.Notes(),
			deleted,
			deletedBy,
			reason,
		})
	}
	return Headers, rows
}

// WriteXLSX writes headers and rows to w as a workbook with one RTL sheet
// and a frozen, bold header row.
func WriteXLSX(w io.Writer, headers []string, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	rtl := true
	if err := f.SetSheetView(SheetName, 0, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
		return fmt.Errorf("set rtl: %w", err)
	}

	head := make([]any, len(headers))
	for i, h := range headers {
		head[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &head); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &rows[i]); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if len(headers) > 0 {
		last, err := excelize.ColumnNumberToName(len(headers))
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, "A", last, 16); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}

	return f.Write(w)
}

// Filename returns the download name for a date range.
func Filename(from, to string) string {
	if from == to {
		return fmt.Sprintf("attendance-%s.xlsx", from)
	}
	return fmt.Sprintf("attendance-%s_%s.xlsx", from, to)
}
