package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"eventplanner/internal/export"
)

var (
	exportFormat  string
	exportOutput  string
	exportGaps    bool
	exportOffline bool

	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Export events as ics, csv or json",
		RunE:  runExport,
	}
)

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "ics",
		"Output format (ics, csv, json)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "",
		"Output file (default: stdout)")
	exportCmd.Flags().BoolVar(&exportGaps, "gaps", false,
		"Include gap records (default from export.include_gaps)")
	exportCmd.Flags().BoolVar(&exportOffline, "offline", false,
		"Use the stored events instead of fetching the feed")
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if exportOffline {
		a.restore(ctx)
	} else {
		a.svc.Refresh(ctx)
	}

	includeGaps := a.cfg.Export.IncludeGaps
	if cmd.Flags().Changed("gaps") {
		includeGaps = exportGaps
	}

	st := a.svc.Snapshot()
	list := st.Events
	if includeGaps {
		list = st.Records
	}

	out := cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOutput, err)
		}
		defer f.Close()
		out = f
	}

	return export.Write(out, format, list, export.Options{
		IncludeGaps: includeGaps,
		Location:    a.loc,
		Now:         a.svc.Now(),
	})
}
