// Package planner holds the application state of the event planner and the
// ingestion cycle that feeds it.
package planner

import (
	"time"

	"eventplanner/internal/gaps"
	"eventplanner/internal/grid"
	"eventplanner/internal/model"
	"eventplanner/internal/records"
)

// Outcome tells how the last ingestion ended. Downstream stages treat every
// outcome the same way: a failed load is an empty event set.
type Outcome string

const (
	OutcomeNone   Outcome = ""
	OutcomeLoaded Outcome = "loaded"
	OutcomeEmpty  Outcome = "empty"
	OutcomeFailed Outcome = "failed"
)

// State is an immutable snapshot. Reduce returns a new value; slices and the
// index are rebuilt, never edited in place, so a snapshot stays valid after
// later transitions.
type State struct {
	Today time.Time `json:"today"`

	// Events is the canonical set in date order; Records adds the gaps.
	Events  []model.Event `json:"events"`
	Records []model.Event `json:"-"`
	Index   *grid.Index   `json:"-"`
	Window  grid.Window   `json:"window"`

	Selected string `json:"selected,omitempty"`

	Outcome Outcome       `json:"outcome"`
	Stats   records.Stats `json:"stats"`
	Err     string        `json:"error,omitempty"`
}

// NewState is the empty state before the first load.
func NewState(today time.Time) State {
	return rebuild(State{Today: today})
}

// Action is a state transition.
type Action interface {
	isAction()
}

// Loaded replaces the canonical set with the events of a successful load.
type Loaded struct {
	Events []model.Event
	Stats  records.Stats
}

// Failed records a failed load; the canonical set becomes empty.
type Failed struct {
	Err error
}

// Select marks one record (event or gap) as selected.
type Select struct {
	ID string
}

type ClearSelection struct{}

// Tick moves the state to a new civil day.
type Tick struct {
	Today time.Time
}

func (Loaded) isAction()         {}
func (Failed) isAction()         {}
func (Select) isAction()         {}
func (ClearSelection) isAction() {}
func (Tick) isAction()           {}

// Reduce applies a to s. Transitions that change the canonical set or the
// current day rebuild the gaps first, then the index and the window.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case Loaded:
		s.Events = append([]model.Event(nil), a.Events...)
		s.Stats = a.Stats
		s.Err = ""
		s.Outcome = OutcomeLoaded
		if len(s.Events) == 0 {
			s.Outcome = OutcomeEmpty
		}
		s.Selected = ""
		return rebuild(s)

	case Failed:
		s.Events = nil
		s.Stats = records.Stats{}
		s.Outcome = OutcomeFailed
		s.Err = ""
		if a.Err != nil {
			s.Err = a.Err.Error()
		}
		s.Selected = ""
		return rebuild(s)

	case Select:
		if _, ok := s.find(a.ID); ok {
			s.Selected = a.ID
		}
		return s

	case ClearSelection:
		s.Selected = ""
		return s

	case Tick:
		if a.Today.Equal(s.Today) {
			return s
		}
		s.Today = a.Today
		s = rebuild(s)
		// gap ids are regenerated
		if _, ok := s.find(s.Selected); !ok {
			s.Selected = ""
		}
		return s
	}
	return s
}

func rebuild(s State) State {
	s.Records = gaps.Synthesize(s.Events, s.Today, nil)
	s.Index = grid.Build(s.Records)
	s.Window = grid.WindowFor(s.Events, s.Today)
	return s
}

func (s State) find(id string) (model.Event, bool) {
	if id == "" {
		return model.Event{}, false
	}
	for _, r := range s.Records {
		if r.ID == id {
			return r, true
		}
	}
	return model.Event{}, false
}

// SelectedRecord returns the selected record, if any.
func (s State) SelectedRecord() (model.Event, bool) {
	return s.find(s.Selected)
}
