package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"eventplanner/internal/config"
	"eventplanner/internal/feed"
	appLog "eventplanner/internal/log"
	"eventplanner/internal/planner"
	"eventplanner/internal/records"
	"eventplanner/internal/store"
)

const version = "0.1.0"

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "planner",
		Short: "Event planner: spreadsheet feed to day-by-category grid",
		Long: `planner ingests the published CSV export of an event spreadsheet, fills the
days between events of each category with countdown gaps, and serves the
resulting grid over HTTP.

Examples:
  planner serve                         # API + scheduled refresh
  planner ingest                        # one ingestion cycle, print stats
  planner grid --days 30                # text grid in the terminal
  planner export --format ics > a.ics   # calendar export
  planner sync push                     # push the stored events upstream`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				appLog.SetLevel(appLog.LevelDebug)
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "/etc/planner/config.yaml",
		"Path to config file (created with defaults on first run)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug logging")
	rootCmd.Version = version
}

// app bundles what every command needs.
type app struct {
	cfg     *config.Config
	loc     *time.Location
	store   *store.Store
	fetcher *feed.Fetcher
	svc     *planner.Service
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", configPath, err)
	}

	loc, err := cfg.Location()
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", cfg.Timezone)
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	fetcher := feed.NewFetcher(cfg.Feed.CacheDir, cfg.Feed.Timeout())
	fetcher.StaleOnError = cfg.Feed.StaleOnError

	in := &planner.Ingestor{
		Fetcher: fetcher,
		Source:  feed.Source{URL: cfg.Feed.URL, Path: cfg.Feed.Path},
		Mapper:  records.Mapper{Headers: cfg.Headers, Location: loc},
		Sink:    st,
	}

	appLog.Info("effective config",
		"config_path", configPath,
		"listen", cfg.Listen,
		"timezone", loc.String(),
		"refresh", cfg.RefreshCron,
		"source", in.Source.String(),
		"store", cfg.Store.Path,
		"sync", cfg.Sync.BaseURL != "",
	)

	return &app{
		cfg:     cfg,
		loc:     loc,
		store:   st,
		fetcher: fetcher,
		svc:     planner.NewService(in, loc, nil),
	}, nil
}

// restore loads the last stored event set into the service so the grid is
// populated before the first refresh completes.
func (a *app) restore(ctx context.Context) {
	events, err := a.store.All(ctx)
	if err != nil {
		appLog.Error("restore from store failed", err)
		return
	}
	if len(events) == 0 {
		return
	}
	a.svc.Dispatch(planner.Loaded{Events: events, Stats: records.Stats{Rows: len(events), Accepted: len(events)}})
	appLog.Info("restored events from store", "events", len(events))
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		appLog.Error("store close failed", err)
	}
}

// signalContext is canceled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
