package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vidbits/internal/catalog"
	"vidbits/internal/services"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var pruneDays int

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show encode and decode history, or one run in detail",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := catalog.Open(cmd.Context(), cfg.Paths.CatalogPath)
			if err != nil {
				if errors.Is(err, catalog.ErrDisabled) {
					return services.Wrap(services.ErrConfiguration, "runs", "open catalog", "set paths.catalog_path to record history", err)
				}
				return services.Wrap(services.ErrTransient, "runs", "open catalog", "", err)
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if run == nil {
					return services.Wrap(services.ErrNotFound, "runs", "get", "no run "+args[0], nil)
				}
				fmt.Fprintln(out, renderSummary("Run", runDetailRows(run)))
				return nil
			}
			if pruneDays > 0 {
				removed, err := store.Prune(cmd.Context(), time.Now().AddDate(0, 0, -pruneDays))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Pruned %s runs older than %d days\n", formatCount(removed), pruneDays)
			}

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.StartedAt.Local().Format("2006-01-02 15:04:05"),
					run.Direction,
					run.Status,
					run.Resolution,
					run.Transducer,
					formatCount(run.Frames),
					formatCount(run.Skipped),
					formatCount(run.Held),
					formatCount(run.Dropped),
					formatDuration(run.Duration()),
					run.Output,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Started", "Direction", "Status", "Grid", "Transducer", "Frames", "Skipped", "Held", "Dropped", "Elapsed", "Output"},
				rows, 6, 7, 8, 9, 10,
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	cmd.Flags().IntVar(&pruneDays, "prune-days", 0, "Delete finished runs older than this many days first")
	return cmd
}

func runDetailRows(run *catalog.Run) [][]string {
	rows := [][]string{
		{"Run", run.RunID},
		{"Direction", run.Direction},
		{"Status", run.Status},
		{"Input", run.Input},
		{"Output", run.Output},
		{"Transducer", run.Transducer},
		{"Grid", run.Resolution},
		{"Frames", formatCount(run.Frames)},
		{"Skipped", formatCount(run.Skipped)},
		{"Held", formatCount(run.Held)},
		{"Dropped", formatCount(run.Dropped)},
		{"Truncated", formatCount(run.Truncated)},
		{"Started", run.StartedAt.Local().Format("2006-01-02 15:04:05")},
		{"Elapsed", formatDuration(run.Duration())},
	}
	if run.Error != "" {
		rows = append(rows, []string{"Error", run.Error})
	}
	return rows
}
