package planner

import (
	"context"
	"fmt"
	"time"

	"eventplanner/internal/feed"
	appLog "eventplanner/internal/log"
	"eventplanner/internal/model"
	"eventplanner/internal/records"
)

// Fetcher retrieves the raw feed body. *feed.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, src feed.Source) (feed.FetchResult, error)
}

// Sink receives every accepted event set. *store.Store implements it.
type Sink interface {
	Replace(ctx context.Context, events []model.Event) error
}

// Result is the outcome of one ingestion cycle. Events is empty unless
// Outcome is OutcomeLoaded.
type Result struct {
	Outcome   Outcome
	Events    []model.Event
	Stats     records.Stats
	Err       error
	FromCache bool
	Duration  time.Duration
}

// Action converts r into the state transition it implies.
func (r Result) Action() Action {
	if r.Outcome == OutcomeFailed {
		return Failed{Err: r.Err}
	}
	return Loaded{Events: r.Events, Stats: r.Stats}
}

// Ingestor runs fetch, parse, map, sort and persist. Sink may be nil.
type Ingestor struct {
	Fetcher Fetcher
	Source  feed.Source
	Mapper  records.Mapper
	Sink    Sink
}

// Run performs one cycle. It never returns an error: every failure becomes
// an OutcomeFailed result with an empty event set.
func (in *Ingestor) Run(ctx context.Context) Result {
	start := time.Now()
	res := in.run(ctx)
	res.Duration = time.Since(start)

	switch res.Outcome {
	case OutcomeFailed:
		appLog.Error("ingest failed", res.Err, "source", in.Source.String(), "duration", res.Duration)
	default:
		appLog.Info("ingest completed",
			"source", in.Source.String(),
			"outcome", string(res.Outcome),
			"rows", res.Stats.Rows,
			"accepted", res.Stats.Accepted,
			"discarded", res.Stats.Discarded(),
			"from_cache", res.FromCache,
			"duration", res.Duration,
		)
	}
	return res
}

func (in *Ingestor) run(ctx context.Context) Result {
	if in.Fetcher == nil {
		return failed(feed.ErrNoSource)
	}

	fetched, err := in.Fetcher.Fetch(ctx, in.Source)
	if err != nil {
		return failed(err)
	}

	rows := feed.Parse(string(fetched.Body))
	if len(rows) < 2 {
		appLog.Warn("feed has no data rows", "source", in.Source.String(), "rows", len(rows))
	}

	events, stats := in.Mapper.MapTable(rows)
	records.SortByDate(events)

	if in.Sink != nil {
		if err := in.Sink.Replace(ctx, events); err != nil {
			return failed(fmt.Errorf("persist events: %w", err))
		}
	}

	outcome := OutcomeLoaded
	if len(events) == 0 {
		outcome = OutcomeEmpty
	}
	return Result{
		Outcome:   outcome,
		Events:    events,
		Stats:     stats,
		FromCache: fetched.FromCache,
	}
}

func failed(err error) Result {
	return Result{Outcome: OutcomeFailed, Err: err}
}
