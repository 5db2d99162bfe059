package reconcile

import "github.com/dalemusser/fieldops/internal/domain/models"

// Summary counts the rows of a merged history.
type Summary struct {
	Present      int     `json:"present"`
	Absent       int     `json:"absent"`
	Deleted      int     `json:"deleted"`
	Workers      int     `json:"workers"` // distinct workers among live rows
	Days         int     `json:"days"`    // distinct days among live rows
	PresenceRate float64 `json:"presence_rate"`
}

// Summarize computes presence statistics. Deleted rows are counted apart
// and never contribute to present, absent or the rate.
func Summarize(entries []Entry) Summary {
	var s Summary
	workers := map[string]struct{}{}
	days := map[string]struct{}{}
	for _, e := range entries {
		if e.IsDeleted {
			s.Deleted++
			continue
		}
		switch e.Record.Status {
		case models.AttendancePresent:
			s.Present++
		case models.AttendanceAbsent:
			s.Absent++
		}
		workers[e.WorkerID()] = struct{}{}
		days[e.Record.Date] = struct{}{}
	}
	s.Workers = len(workers)
	s.Days = len(days)
	if n := s.Present + s.Absent; n > 0 {
		s.PresenceRate = float64(s.Present) / float64(n)
	}
	return s
}
