// Package timewindow implements the daily check-in window.
//
// A Window is a half-open interval of local time-of-day, [Start, End).
// Handlers use Check before any attendance mutation; the attendance page
// polls Status to show the current time and disable check-in controls.
// The page-side gate is advisory only. Check is the enforcement point.
package timewindow

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrTimeWindowViolation is returned by Check when a mutation is attempted
// outside the configured hours.
var ErrTimeWindowViolation = errors.New("attendance changes are only allowed inside the check-in window")

// ClockTime is a time of day with one-second resolution.
type ClockTime struct {
	Hour, Minute, Second int
}

// Seconds returns the number of seconds since midnight.
func (c ClockTime) Seconds() int {
	return c.Hour*3600 + c.Minute*60 + c.Second
}

// String formats the time as HH:MM, or HH:MM:SS when seconds are set.
func (c ClockTime) String() string {
	if c.Second != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
	}
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ParseClock parses "HH:MM" or "HH:MM:SS" (24h). "24:00" is accepted as
// the end of the day, so a window can run until midnight.
func ParseClock(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return ClockTime{}, fmt.Errorf("timewindow: invalid time %q (want HH:MM or HH:MM:SS)", s)
	}
	vals := make([]int, 3)
	limits := []int{24, 59, 59}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > limits[i] || len(p) > 2 {
			return ClockTime{}, fmt.Errorf("timewindow: invalid time %q", s)
		}
		vals[i] = n
	}
	if vals[0] == 24 && (vals[1] != 0 || vals[2] != 0) {
		return ClockTime{}, fmt.Errorf("timewindow: invalid time %q", s)
	}
	return ClockTime{Hour: vals[0], Minute: vals[1], Second: vals[2]}, nil
}

// Window is the daily interval in which check-in mutations are permitted.
type Window struct {
	Start ClockTime
	End   ClockTime
	Loc   *time.Location // nil means time.Local
}

// New builds a Window from "HH:MM" strings. Start must be before End;
// windows that wrap midnight are not supported.
func New(start, end string, loc *time.Location) (Window, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Window{}, err
	}
	if s.Seconds() >= e.Seconds() {
		return Window{}, fmt.Errorf("timewindow: start %s must be before end %s", s, e)
	}
	return Window{Start: s, End: e, Loc: loc}, nil
}

func (w Window) location() *time.Location {
	if w.Loc == nil {
		return time.Local
	}
	return w.Loc
}

// Local converts t to the window's location.
func (w Window) Local(t time.Time) time.Time {
	return t.In(w.location())
}

// IsWithin reports whether now falls inside [Start, End) by local
// time-of-day.
func (w Window) IsWithin(now time.Time) bool {
	l := w.Local(now)
	sec := l.Hour()*3600 + l.Minute()*60 + l.Second()
	return sec >= w.Start.Seconds() && sec < w.End.Seconds()
}

// Check returns ErrTimeWindowViolation when now is outside the window.
func (w Window) Check(now time.Time) error {
	if !w.IsWithin(now) {
		return ErrTimeWindowViolation
	}
	return nil
}

// Today returns the local calendar day of now as YYYY-MM-DD.
func (w Window) Today(now time.Time) string {
	return w.Local(now).Format("2006-01-02")
}

// State is what the attendance page polls.
type State struct {
	Now     string `json:"now"` // HH:MM:SS local
	Date    string `json:"date"`
	Within  bool   `json:"within"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Message string `json:"message,omitempty"`
}

// Status describes the window at now, with a Hebrew warning when closed.
func (w Window) Status(now time.Time) State {
	l := w.Local(now)
	st := State{
		Now:    l.Format("15:04:05"),
		Date:   l.Format("2006-01-02"),
		Within: w.IsWithin(now),
		Start:  w.Start.String(),
		End:    w.End.String(),
	}
	if !st.Within {
		st.Message = fmt.Sprintf("דיווח נוכחות אפשרי רק בין השעות %s ל-%s", st.Start, st.End)
	}
	return st
}
