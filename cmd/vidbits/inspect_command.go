package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/image/bmp"

	"vidbits/internal/raster"
	"vidbits/internal/services"
	"vidbits/internal/workflow"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var rawProbe bool
	var snapshotPath string
	var snapshotFrame int
	cmd := &cobra.Command{
		Use:   "inspect <video>",
		Short: "Show frame geometry, manifest and container details",
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
			runner := workflow.NewRunner(cfg, logger)
			info, err := runner.Inspect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if snapshotPath != "" {
				frame, err := runner.Snapshot(cmd.Context(), args[0], snapshotFrame)
				if err != nil {
					return err
				}
				if err := writeSnapshot(snapshotPath, frame); err != nil {
					return services.Wrap(services.ErrValidation, "inspect", "snapshot", "", err)
				}
				fmt.Fprintf(out, "Wrote frame %d to %s\n", snapshotFrame, snapshotPath)
			}
			if rawProbe && info.Probe != nil {
				_, err := out.Write(info.Probe.RawJSON())
				return err
			}
			printInspection(out, info)
			return nil
		},
	}
	cmd.Flags().BoolVar(&rawProbe, "probe-json", false, "Print raw ffprobe JSON for ffmpeg containers")
	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "Write one frame as a BMP image to this path")
	cmd.Flags().IntVar(&snapshotFrame, "frame", 0, "Frame index for --snapshot")
	return cmd
}

func printInspection(out io.Writer, info workflow.Inspection) {
	frames := "unknown"
	if info.Stream.Frames >= 0 {
		frames = formatCount(info.Stream.Frames)
	}
	rows := [][]string{
		{"Path", info.Path},
		{"Container", info.Backend},
		{"Frame size", fmt.Sprintf("%dx%d", info.Stream.Width, info.Stream.Height)},
		{"Frame rate", strconv.FormatFloat(info.Stream.FPS, 'f', -1, 64)},
		{"Frames", frames},
	}
	if p := info.Probe; p != nil {
		if vs, ok := p.VideoStream(); ok {
			rows = append(rows, []string{"Video codec", vs.CodecName}, []string{"Pixel format", vs.PixelFormat})
		}
		if n := p.VideoStreamCount(); n > 1 {
			rows = append(rows, []string{"Video streams", strconv.Itoa(n) + " (first is decoded)"})
		}
		rows = append(rows,
			[]string{"Duration", fmt.Sprintf("%.2fs", p.DurationSeconds())},
			[]string{"Size", formatCount(p.SizeBytes()) + " bytes"},
		)
	}
	rows = append(rows, []string{"Manifest", yesNo(info.Manifest != nil)})
	if m := info.Manifest; m != nil {
		rows = append(rows,
			[]string{"Run", m.RunID},
			[]string{"Created", m.CreatedAt.Local().Format("2006-01-02 15:04:05")},
			[]string{"Source", m.Source},
			[]string{"Resolution", fmt.Sprintf("%s x%d", m.Codec.Resolution, m.Codec.Scale)},
			[]string{"Transducer", m.Codec.Transducer},
			[]string{"Audio", fmt.Sprintf("%d Hz x %d, %s samples per frame", m.Audio.SampleRate, m.Audio.Channels, formatCount(m.Audio.ChunkSamples))},
			[]string{"Encoded samples", formatCount(m.Audio.Samples)},
			[]string{"Padded samples", formatCount(m.Audio.PaddedSamples)},
		)
	}
	fmt.Fprintln(out, renderSummary("Inspect", rows))
}

func writeSnapshot(path string, frame *raster.Raster) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := bmp.Encode(f, frame); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return f.Close()
}
