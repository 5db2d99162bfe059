package reconcile

import (
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
)

// Visibility selects live rows, deleted rows, or both.
type Visibility string

const (
	ShowAll     Visibility = ""
	ShowLive    Visibility = "live"
	ShowDeleted Visibility = "deleted"
)

// Criteria narrows a merged history. Zero values match everything.
type Criteria struct {
	SiteID   string // neighborhood id, hex
	WorkerID string // hex
	Status   string // PRESENT / ABSENT
	Show     Visibility
	Search   string // matched against worker name, phone, site name and notes
}

// Filter returns the entries matching c, preserving order.
func Filter(entries []Entry, c Criteria) []Entry {
	needle := text.Fold(strings.TrimSpace(c.Search))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if c.SiteID != "" && e.SiteID() != c.SiteID {
			continue
		}
		if c.WorkerID != "" && e.WorkerID() != c.WorkerID {
			continue
		}
		if c.Status != "" && !strings.EqualFold(e.Status(), c.Status) {
			continue
		}
		switch c.Show {
		case ShowLive:
			if e.IsDeleted {
				continue
			}
		case ShowDeleted:
			if !e.IsDeleted {
				continue
			}
		}
		if needle != "" && !matches(e, needle) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func matches(e Entry, needle string) bool {
	var phone string
	if e.IsDeleted {
		phone = e.Deleted.WorkerPhone
	} else {
		phone = e.Record.WorkerPhone
	}
	for _, s := range []string{e.WorkerName(), phone, e.SiteName(), e.Notes()} {
		if s != "" && strings.Contains(text.Fold(s), needle) {
			return true
		}
	}
	return false
}
