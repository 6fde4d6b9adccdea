package planner

import (
	"context"
	"sync"
	"time"

	"eventplanner/internal/dates"
	appLog "eventplanner/internal/log"
)

// Service owns the planner state and is safe for concurrent use by the web
// server, the scheduler and the file watcher. Refreshes run one at a time.
type Service struct {
	ingestor *Ingestor
	loc      *time.Location
	now      func() time.Time

	refreshMu sync.Mutex

	mu         sync.RWMutex
	state      State
	lastResult Result
	refreshed  time.Time
}

// NewService creates a service with an empty state. A nil loc uses
// time.Local; a nil now uses time.Now.
func NewService(in *Ingestor, loc *time.Location, now func() time.Time) *Service {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		ingestor: in,
		loc:      loc,
		now:      now,
		state:    NewState(dates.Today(now(), loc)),
	}
}

// Location is the timezone the service uses for "today".
func (s *Service) Location() *time.Location {
	return s.loc
}

// Now reads the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}

// Refresh runs one ingestion cycle and applies its outcome. Concurrent
// callers wait for the running cycle and then run their own.
func (s *Service) Refresh(ctx context.Context) Result {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	res := s.ingestor.Run(ctx)

	s.mu.Lock()
	s.state = Reduce(s.state, Tick{Today: dates.Today(s.now(), s.loc)})
	s.state = Reduce(s.state, res.Action())
	s.lastResult = res
	s.refreshed = s.now()
	st := s.state
	s.mu.Unlock()

	appLog.Debug("state updated", "outcome", string(st.Outcome), "events", len(st.Events), "records", len(st.Records))
	return res
}

// Dispatch applies a to the current state and returns the new state.
func (s *Service) Dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, a)
	return s.state
}

// Tick advances "today" from the service clock. It is a no-op within the
// same day.
func (s *Service) Tick() State {
	return s.Dispatch(Tick{Today: dates.Today(s.now(), s.loc)})
}

// Select marks id as selected and reports whether it exists.
func (s *Service) Select(id string) bool {
	st := s.Dispatch(Select{ID: id})
	return st.Selected == id && id != ""
}

// Snapshot returns the current state.
func (s *Service) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// LastRefresh returns the result of the latest refresh and when it ended.
// The time is zero before the first refresh.
func (s *Service) LastRefresh() (Result, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResult, s.refreshed
}
