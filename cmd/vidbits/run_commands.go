package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"vidbits/internal/config"
	"vidbits/internal/services"
	"vidbits/internal/workflow"
)

// runFlags are the per-run overrides shared by encode and decode.
type runFlags struct {
	transducer  string
	container   string
	orientation string
	choice      int
	readAhead   int
	noProgress  bool
}

func (f *runFlags) register(cmd *cobra.Command, encode bool) {
	cmd.Flags().StringVar(&f.transducer, "transducer", "", "Override codec.transducer (pcm, zstd, s2)")
	cmd.Flags().StringVar(&f.container, "container", "", "Override video.container (auto, archive, ffmpeg)")
	cmd.Flags().IntVar(&f.readAhead, "read-ahead", -1, "Override pipeline.read_ahead")
	cmd.Flags().BoolVar(&f.noProgress, "no-progress", false, "Disable the progress bar")
	if encode {
		cmd.Flags().StringVar(&f.orientation, "orientation", "", "Override codec.orientation (default, vertical, horizontal)")
		cmd.Flags().IntVar(&f.choice, "choice", 0, "Override codec.choice (1-based candidate from `vidbits plan`)")
	}
}

func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) (*config.Config, error) {
	next, err := cfg.Override(func(c *config.Config) {
		if f.transducer != "" {
			c.Codec.Transducer = f.transducer
		}
		if f.container != "" {
			c.Video.Container = f.container
		}
		if f.orientation != "" {
			c.Codec.Orientation = f.orientation
		}
		if cmd.Flags().Changed("choice") {
			c.Codec.Choice = f.choice
		}
		if f.readAhead >= 0 {
			c.Pipeline.ReadAhead = f.readAhead
		}
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, cmd.Name(), "flags", "", err)
	}
	return next, nil
}

func newEncodeCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "encode <input.wav> <output>",
		Short: "Encode a 16-bit PCM WAV into a frame stream",
		Long: "Encode a 16-bit PCM WAV into a lossless frame stream. Outputs ending in .vbf use the built-in\n" +
			"archive container; anything else is written through ffmpeg. A .vidbits.toml manifest is written\n" +
			"next to the output so decode can reuse the parameters.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg, err := flags.apply(cmd, base)
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cfg)
			if err != nil {
				return err
			}

			progress := newFrameProgress(cmd.ErrOrStderr(), "encode", !flags.noProgress)
			runner := workflow.NewRunner(cfg, logger, workflow.WithObserver(progress.observer()))
			result, err := runner.Encode(cmd.Context(), args[0], args[1])
			progress.finish()
			if err != nil {
				return err
			}
			printEncodeSummary(cmd.OutOrStdout(), result)
			return nil
		},
	}
	flags.register(cmd, true)
	return cmd
}

func newDecodeCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "decode <input> <output.wav>",
		Short: "Recover a WAV from a frame stream",
		Long: "Recover a WAV from a frame stream. Parameters come from the .vidbits.toml manifest next to the\n" +
			"input when present; otherwise the grid is derived from the frame size and codec.scale.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg, err := flags.apply(cmd, base)
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cfg)
			if err != nil {
				return err
			}

			progress := newFrameProgress(cmd.ErrOrStderr(), "decode", !flags.noProgress)
			runner := workflow.NewRunner(cfg, logger, workflow.WithObserver(progress.observer()))
			result, err := runner.Decode(cmd.Context(), args[0], args[1])
			progress.finish()
			if err != nil {
				return err
			}
			printDecodeSummary(cmd.OutOrStdout(), result)
			return nil
		},
	}
	flags.register(cmd, false)
	return cmd
}

func printEncodeSummary(out io.Writer, result workflow.EncodeResult) {
	stats := result.Stats
	rows := [][]string{
		{"Run", result.RunID},
		{"Resolution", result.Resolution.String()},
		{"Container", result.Container},
		{"Frames", formatCount(stats.Frames)},
		{"Samples", formatCount(stats.Samples)},
		{"Padded samples", formatCount(stats.PaddedSamples)},
		{"Payload bytes", formatCount(stats.PayloadBytes)},
		{"Largest unit", formatCount(stats.MaxPayloadBytes) + " bytes"},
		{"Truncated frames", formatCount(stats.TruncatedFrames)},
		{"Elapsed", formatDuration(stats.Duration)},
		{"Manifest", result.ManifestPath},
	}
	if result.LogPath != "" {
		rows = append(rows, []string{"Log", result.LogPath})
	}
	fmt.Fprintln(out, renderSummary("Encode", rows))
}

func printDecodeSummary(out io.Writer, result workflow.DecodeResult) {
	stats := result.Stats
	source := "manifest"
	if !result.FromManifest {
		source = "frame size"
	}
	rows := [][]string{
		{"Run", result.RunID},
		{"Resolution", fmt.Sprintf("%s (from %s)", result.Resolution, source)},
		{"Frames", formatCount(stats.Frames)},
		{"Written", formatCount(stats.Written)},
		{"Skipped", formatCount(stats.Skipped)},
		{"Held", formatCount(stats.Held)},
		{"Dropped", formatCount(stats.Dropped)},
		{"Samples", formatCount(stats.Samples)},
		{"Audio", formatDuration(result.AudioDuration)},
		{"Elapsed", formatDuration(stats.Duration)},
	}
	if result.LogPath != "" {
		rows = append(rows, []string{"Log", result.LogPath})
	}
	fmt.Fprintln(out, renderSummary("Decode", rows))
}
