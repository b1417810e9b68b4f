package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vidbits/internal/deps"
	"vidbits/internal/preflight"
	"vidbits/internal/services"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external binaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := preflight.CheckSystemDeps(cfg)
			rows := make([][]string, 0, len(statuses)+1)
			for _, s := range statuses {
				state := "ok"
				detail := s.Command
				if !s.Available {
					state = "missing"
					if s.Optional {
						state = "missing (optional)"
					}
					detail = s.Detail
				}
				rows = append(rows, []string{s.Name, state, detail, s.Description})
			}

			ffmpeg := statuses[0]
			if ffmpeg.Available {
				ok, err := deps.HasEncoder(cmd.Context(), ffmpeg.Command, cfg.Video.Codec)
				state := "ok"
				detail := "encoder available"
				switch {
				case err != nil:
					state, detail = "unknown", err.Error()
				case !ok:
					state, detail = "missing", "ffmpeg was built without this encoder"
				}
				rows = append(rows, []string{"Encoder " + cfg.Video.Codec, state, detail, "Lossless video codec for ffmpeg outputs"})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Dependency", "Status", "Detail", "Purpose"}, rows))
			if missing := deps.Missing(statuses); len(missing) > 0 {
				return services.Wrap(services.ErrExternalTool, "deps", "check", fmt.Sprintf("%d required dependencies missing", len(missing)), nil)
			}
			return nil
		},
	}
}
