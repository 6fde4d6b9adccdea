package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"eventplanner/internal/model"
	"eventplanner/internal/syncclient"
)

var (
	syncSince string

	syncCmd = &cobra.Command{
		Use:   "sync",
		Short: "Exchange events with the remote planner API",
	}

	syncPushCmd = &cobra.Command{
		Use:   "push",
		Short: "Push the stored events",
		RunE:  runSyncPush,
	}

	syncPullCmd = &cobra.Command{
		Use:   "pull",
		Short: "Pull remote changes and print them as JSON",
		RunE:  runSyncPull,
	}
)

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.AddCommand(syncPushCmd, syncPullCmd)
	syncPullCmd.Flags().StringVar(&syncSince, "since", "",
		"Only changes after this RFC3339 timestamp")
}

type pushPayload struct {
	Events []model.Event `json:"events"`
	SentAt time.Time     `json:"sent_at"`
}

func runSyncPush(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	events, err := a.store.All(ctx)
	if err != nil {
		return err
	}

	client := syncclient.New(a.cfg.Sync.BaseURL, a.cfg.Feed.Timeout())
	res, err := client.Push(ctx, pushPayload{Events: events, SentAt: time.Now().UTC()})
	if errors.Is(err, syncclient.ErrSkipped) {
		fmt.Fprintln(cmd.OutOrStdout(), "sync skipped: no base url (set sync.base_url or PLANNER_SYNC_URL)")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "pushed %d events, ok=%t\n", len(events), res.OK)
	return nil
}

func runSyncPull(cmd *cobra.Command, args []string) error {
	var since *time.Time
	if syncSince != "" {
		t, err := time.Parse(time.RFC3339, syncSince)
		if err != nil {
			return fmt.Errorf("--since: %w", err)
		}
		since = &t
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	client := syncclient.New(a.cfg.Sync.BaseURL, a.cfg.Feed.Timeout())
	res, err := client.Pull(ctx, since)
	if errors.Is(err, syncclient.ErrSkipped) {
		fmt.Fprintln(cmd.OutOrStdout(), "sync skipped: no base url (set sync.base_url or PLANNER_SYNC_URL)")
		return nil
	}
	if err != nil {
		return err
	}

	data, err := sonic.ConfigStd.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
