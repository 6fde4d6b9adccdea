package grid

import (
	"time"

	"eventplanner/internal/dates"
	"eventplanner/internal/model"
)

// DefaultDays is the window length used before any event is loaded.
const DefaultDays = 45

// Window is the span of days shown by the grid.
type Window struct {
	Start time.Time `json:"start"` // civil date
	Days  int       `json:"days"`
}

// DefaultWindow starts at today and spans DefaultDays.
func DefaultWindow(today time.Time) Window {
	return Window{Start: today, Days: DefaultDays}
}

// WindowFor spans the canonical events: from the earliest date through one
// day past the latest. Gap records are ignored. Without usable dates the
// default window at today is returned.
func WindowFor(events []model.Event, today time.Time) Window {
	var first, last time.Time
	found := false
	for _, e := range events {
		if e.IsGap {
			continue
		}
		d, err := dates.ParseISO(e.Date)
		if err != nil {
			continue
		}
		if !found || d.Before(first) {
			first = d
		}
		if !found || d.After(last) {
			last = d
		}
		found = true
	}
	if !found {
		return DefaultWindow(today)
	}
	return Window{Start: first, Days: dates.DaysBetween(first, last) + 2}
}

// Dates lists every day of the window.
func (w Window) Dates() []time.Time {
	out := make([]time.Time, 0, w.Days)
	for i := 0; i < w.Days; i++ {
		out = append(out, dates.AddDays(w.Start, i))
	}
	return out
}

// Limit truncates the window to at most n days. n <= 0 leaves it unchanged.
func (w Window) Limit(n int) Window {
	if n > 0 && w.Days > n {
		w.Days = n
	}
	return w
}
