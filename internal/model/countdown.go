package model

import (
	"time"
)

// CountdownStatus classifies how close an event is.
type CountdownStatus string

const (
	CountdownLate CountdownStatus = "late"
	CountdownSoon CountdownStatus = "soon"
	CountdownOK   CountdownStatus = "ok"
)

// soonThreshold mirrors the amber badge of the planner UI.
const soonThreshold = 48 * time.Hour

// Countdown is the remaining (or elapsed, when Status is late) time until an
// event starts, split into whole days, hours and minutes.
type Countdown struct {
	Days    int             `json:"days"`
	Hours   int             `json:"hours"`
	Minutes int             `json:"minutes"`
	Status  CountdownStatus `json:"status"`
}

// CountdownTo measures from now to start. The absolute difference is split,
// so a late event reports how long ago it started.
func CountdownTo(now, start time.Time) Countdown {
	diff := start.Sub(now)
	status := CountdownOK
	if diff < 0 {
		status = CountdownLate
		diff = -diff
	} else if diff < soonThreshold {
		status = CountdownSoon
	}

	day := 24 * time.Hour
	return Countdown{
		Days:    int(diff / day),
		Hours:   int((diff % day) / time.Hour),
		Minutes: int((diff % time.Hour) / time.Minute),
		Status:  status,
	}
}

// StartTime resolves e's date (and time, when it parses as HH:MM) in loc.
// Events with an unusable time start at local midnight.
func StartTime(e Event, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation("2006-01-02", e.Date, loc)
	if err != nil {
		return time.Time{}, err
	}
	if e.Time == "" {
		return day, nil
	}
	clock, err := time.Parse("15:04", e.Time)
	if err != nil {
		return day, nil
	}
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc), nil
}
