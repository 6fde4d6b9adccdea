package main

import (
	"context"
	"sync"

	"github.com/spf13/cobra"

	"eventplanner/internal/feed"
	appLog "eventplanner/internal/log"
	"eventplanner/internal/schedule"
	"eventplanner/internal/web"
)

var (
	serveListen  string
	serveNoWatch bool

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the API and refresh the feed on schedule",
		RunE:  runServe,
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "",
		"HTTP listen address (overrides config if set)")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false,
		"Do not watch feed.path for changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	appLog.Info("planner starting", "version", version)

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if serveListen != "" {
		a.cfg.Listen = serveListen
	}

	ctx, cancel := signalContext()
	defer cancel()

	a.restore(ctx)
	a.svc.Refresh(ctx)

	sched := schedule.New(a.loc)
	if err := sched.Add("refresh", a.cfg.RefreshCron, func(ctx context.Context) {
		a.svc.Refresh(ctx)
	}); err != nil {
		return err
	}
	// Leading gaps start at today, so they move at midnight.
	if err := sched.Add("rollover", "0 0 * * *", func(context.Context) {
		a.svc.Tick()
	}); err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Run(ctx)
	}()

	if a.cfg.Feed.Path != "" && !serveNoWatch {
		w, err := feed.NewWatcher(a.cfg.Feed.Path, 0)
		if err != nil {
			appLog.Error("feed watch disabled", err, "path", a.cfg.Feed.Path)
		} else {
			defer w.Close()
			wg.Add(2)
			go func() {
				defer wg.Done()
				w.Run(ctx)
			}()
			go func() {
				defer wg.Done()
				for {
					select {
					case <-ctx.Done():
						return
					case <-w.Changes():
						appLog.Info("feed file changed", "path", a.cfg.Feed.Path)
						a.svc.Refresh(ctx)
					}
				}
			}()
		}
	}

	srv := web.NewServer(a.cfg, a.svc)
	err = srv.Serve(ctx)
	cancel()
	wg.Wait()

	appLog.Info("planner exiting")
	return err
}
