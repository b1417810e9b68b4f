package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"vidbits/internal/config"
	"vidbits/internal/resolution"
	"vidbits/internal/services"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var bitrate, frameMs int
	var orientation string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "List candidate grid resolutions for the configured capacity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg, err := base.Override(func(c *config.Config) {
				if bitrate > 0 {
					c.Codec.Bitrate = bitrate
				}
				if frameMs > 0 {
					c.Codec.FrameDurationMs = frameMs
				}
				if orientation != "" {
					c.Codec.Orientation = orientation
				}
			})
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "plan", "flags", "", err)
			}

			capacity := resolution.Capacity(cfg.Codec.Bitrate, cfg.Codec.FrameDurationMs)
			orient := resolution.ParseOrientation(cfg.Codec.Orientation)
			candidates, err := resolution.Candidates(capacity, orient)
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "plan", "candidates", "", err)
			}
			selected, err := resolution.Plan(capacity, orient, cfg.Codec.Choice)
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "plan", "select", "", err)
			}

			rows := make([][]string, 0, len(candidates))
			for i, res := range candidates {
				scaled := res.Scaled(cfg.Codec.Scale)
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					strconv.Itoa(res.Width),
					strconv.Itoa(res.Height),
					scaled.String(),
					marker(res == selected),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Capacity: %s bits per frame (%s bps x %d ms), orientation %s\n",
				formatCount(capacity), formatCount(cfg.Codec.Bitrate), cfg.Codec.FrameDurationMs, orient)
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Width", "Height", "Frame", "Selected"},
				rows, 1, 2, 3,
			))
			return nil
		},
	}
	cmd.Flags().IntVar(&bitrate, "bitrate", 0, "Override codec.bitrate")
	cmd.Flags().IntVar(&frameMs, "frame-ms", 0, "Override codec.frame_duration_ms")
	cmd.Flags().StringVar(&orientation, "orientation", "", "Override codec.orientation")
	return cmd
}

func marker(selected bool) string {
	if selected {
		return "*"
	}
	return ""
}
