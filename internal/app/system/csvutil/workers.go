// internal/app/system/csvutil/workers.go
package csvutil

import (
	"encoding/csv"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/dalemusser/fieldops/internal/app/system/inputval"
	"github.com/dalemusser/fieldops/internal/app/system/normalize"
)

// WorkerCSVRow is one normalized row of a worker import.
type WorkerCSVRow struct {
	Line     int
	FullName string
	Phone    string
	Position string
}

// headerNames are first-cell values that mark a header row.
var headerNames = map[string]bool{"full name": true, "name": true, "שם": true, "שם מלא": true}

// PreScanWorkersCSV reads every row of r (full name, phone, position), skips
// a header if present and validates each row. It returns either the rows
// or an HTML message describing the first few bad lines, never both.
// It does not touch the database.
func PreScanWorkersCSV(r io.Reader) (rows []WorkerCSVRow, htmlErr template.HTML, err error) {
	reader := csv.NewReader(io.LimitReader(r, MaxUploadSize))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	type rowErr struct {
		Line   int
		Name   string
		Reason string
	}
	var errs []rowErr

	line := 0
	for {
		rec, e := reader.Read()
		if e == io.EOF {
			break
		}
		line++
		if e != nil {
			return nil, template.HTML(template.HTMLEscapeString(e.Error())), nil
		}
		cell := func(i int) string {
			if i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}
		if line == 1 && headerNames[strings.ToLower(strings.TrimPrefix(cell(0), "\ufeff"))] {
			continue
		}
		row := WorkerCSVRow{
			Line:     line,
			FullName: normalize.Name(strings.TrimPrefix(cell(0), "\ufeff")),
			Phone:    normalize.Phone(cell(1)),
			Position: cell(2),
		}
		if row.FullName == "" && row.Phone == "" && row.Position == "" {
			continue
		}
		switch {
		case row.FullName == "":
			errs = append(errs, rowErr{line, row.FullName, "חסר שם מלא"})
		case row.Phone != "" && !inputval.IsValidPhone(row.Phone):
			errs = append(errs, rowErr{line, row.FullName, "מספר טלפון לא תקין"})
		case len([]rune(row.Position)) > 100:
			errs = append(errs, rowErr{line, row.FullName, "תפקיד ארוך מדי"})
		}
		rows = append(rows, row)
		if len(rows) > MaxRows {
			return nil, template.HTML(fmt.Sprintf("הקובץ מכיל יותר מ-%d שורות.", MaxRows)), nil
		}
	}

	if len(errs) > 0 {
		var b strings.Builder
		b.WriteString("הקובץ נדחה: יש שורות לא תקינות.<br>")
		b.WriteString("כל שורה חייבת לכלול שם מלא. טלפון ותפקיד אינם חובה.<br>")
		n := min(len(errs), 5)
		for _, e := range errs[:n] {
			name := e.Name
			if name == "" {
				name = "(ללא שם)"
			}
			fmt.Fprintf(&b, "• שורה %d | %s → %s<br>", e.Line, template.HTMLEscapeString(name), template.HTMLEscapeString(e.Reason))
		}
		if len(errs) > n {
			fmt.Fprintf(&b, "ועוד %d שורות.<br>", len(errs)-n)
		}
		return nil, template.HTML(b.String()), nil
	}
	return rows, "", nil
}
