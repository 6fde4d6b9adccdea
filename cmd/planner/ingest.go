package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"eventplanner/internal/planner"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one ingestion cycle and print what happened",
	RunE:  runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	res := a.svc.Refresh(ctx)
	st := a.svc.Snapshot()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "outcome:    %s\n", res.Outcome)
	fmt.Fprintf(out, "rows:       %d\n", res.Stats.Rows)
	fmt.Fprintf(out, "accepted:   %d\n", res.Stats.Accepted)
	fmt.Fprintf(out, "discarded:  %d (no name %d, no date %d, bad date %d, gap rows %d)\n",
		res.Stats.Discarded(), res.Stats.MissingName, res.Stats.MissingDate, res.Stats.BadDate, res.Stats.Gaps)
	fmt.Fprintf(out, "gaps:       %d\n", len(st.Records)-len(st.Events))
	fmt.Fprintf(out, "rows/grid:  %d\n", len(st.Index.Rows()))
	fmt.Fprintf(out, "from cache: %t\n", res.FromCache)

	if res.Outcome == planner.OutcomeFailed {
		return fmt.Errorf("ingest failed: %w", res.Err)
	}
	return nil
}
