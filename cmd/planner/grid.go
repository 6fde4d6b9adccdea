package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"eventplanner/internal/grid"
)

var (
	gridDays    int
	gridWidth   int
	gridOffline bool

	gridCmd = &cobra.Command{
		Use:   "grid",
		Short: "Print the day-by-category grid",
		RunE:  runGrid,
	}
)

func init() {
	rootCmd.AddCommand(gridCmd)
	gridCmd.Flags().IntVar(&gridDays, "days", grid.DefaultDays,
		"Number of days to show (0 = the whole window)")
	gridCmd.Flags().IntVar(&gridWidth, "width", 0,
		"Output width (default: terminal width)")
	gridCmd.Flags().BoolVar(&gridOffline, "offline", false,
		"Use the stored events instead of fetching the feed")
}

func runGrid(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if gridOffline {
		a.restore(ctx)
	} else {
		a.svc.Refresh(ctx)
	}

	width := gridWidth
	if width <= 0 {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width = w
		}
	}

	st := a.svc.Snapshot()
	return grid.Render(cmd.OutOrStdout(), st.Index, st.Window.Limit(gridDays), width)
}
