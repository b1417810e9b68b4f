package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"vidbits/internal/pipeline"
	"vidbits/internal/services"
	"vidbits/internal/workflow"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var chartPath string
	var showFrames bool

	cmd := &cobra.Command{
		Use:   "analyze <video>",
		Short: "Profile how the similarity gate treats a frame stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cfg)
			if err != nil {
				return err
			}
			result, err := workflow.NewRunner(cfg, logger).Analyze(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printProfileSummary(out, result)
			if showFrames {
				printProfileFrames(out, result.Profile)
			}
			if chartPath != "" {
				if err := writeChartFile(chartPath, result.Profile); err != nil {
					return services.Wrap(services.ErrValidation, "analyze", "chart", "", err)
				}
				fmt.Fprintf(out, "Wrote similarity chart to %s\n", chartPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&chartPath, "chart", "", "Write a PNG similarity chart to this path")
	cmd.Flags().BoolVar(&showFrames, "frames", false, "List every frame")
	return cmd
}

func printProfileSummary(out io.Writer, result workflow.AnalyzeResult) {
	profile := result.Profile
	var minAdj, maxAdj, sumAdj float64
	for i, pt := range profile.Points {
		if i == 0 {
			continue
		}
		if i == 1 || pt.Adjacent < minAdj {
			minAdj = pt.Adjacent
		}
		if pt.Adjacent > maxAdj {
			maxAdj = pt.Adjacent
		}
		sumAdj += pt.Adjacent
	}
	rows := [][]string{
		{"Resolution", result.Resolution.String()},
		{"Frames", formatCount(len(profile.Points))},
		{"Threshold", formatPercent(profile.Threshold)},
		{"Would skip", formatCount(profile.Skipped())},
	}
	if n := len(profile.Points) - 1; n > 0 {
		rows = append(rows,
			[]string{"Adjacent min", formatPercent(minAdj)},
			[]string{"Adjacent mean", formatPercent(sumAdj / float64(n))},
			[]string{"Adjacent max", formatPercent(maxAdj)},
		)
	}
	fmt.Fprintln(out, renderSummary("Analyze", rows))
}

func printProfileFrames(out io.Writer, profile pipeline.Profile) {
	rows := make([][]string, 0, len(profile.Points))
	for _, pt := range profile.Points {
		rows = append(rows, []string{
			strconv.Itoa(pt.Index),
			formatPercent(pt.Adjacent),
			formatPercent(pt.Reference),
			yesNo(pt.Skipped),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Frame", "Adjacent", "Reference", "Skipped"},
		rows, 1, 2, 3,
	))
}

func writeChartFile(path string, profile pipeline.Profile) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	if err := renderSimilarityChart(f, profile); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}
