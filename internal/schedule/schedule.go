// Package schedule runs periodic planner jobs (feed refresh, day rollover)
// on cron expressions.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	appLog "eventplanner/internal/log"
)

// Job is a scheduled unit of work. It receives the scheduler's context.
type Job func(ctx context.Context)

// Scheduler wraps a cron instance. Overlapping runs of the same job are
// skipped and panics are recovered and logged.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
	stop context.CancelFunc
	ids  map[string]cron.EntryID
}

func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	logger := cronLogger{}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		ctx:  ctx,
		stop: cancel,
		ids:  make(map[string]cron.EntryID),
	}
}

// Validate reports whether spec is a schedule Add would accept.
func Validate(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("schedule: invalid spec %q: %w", spec, err)
	}
	return nil
}

// Add registers job under name. spec is a standard five-field expression
// or a descriptor such as "@every 15m" or "@daily".
func (s *Scheduler) Add(name, spec string, job Job) error {
	if err := Validate(spec); err != nil {
		return err
	}
	id, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		appLog.Debug("job started", "job", name)
		job(s.ctx)
		appLog.Debug("job finished", "job", name, "duration", time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("schedule: add %s: %w", name, err)
	}
	s.ids[name] = id
	appLog.Info("job scheduled", "job", name, "spec", spec)
	return nil
}

// Next returns the next activation of the named job, or the zero time when
// the job is unknown or the scheduler is not running.
func (s *Scheduler) Next(name string) time.Time {
	id, ok := s.ids[name]
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to return.
func (s *Scheduler) Run(ctx context.Context) {
	s.cron.Start()
	<-ctx.Done()
	s.stop()
	<-s.cron.Stop().Done()
	appLog.Info("scheduler stopped")
}

type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...interface{}) {
	appLog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...interface{}) {
	appLog.Error("cron: "+msg, err, kv...)
}
