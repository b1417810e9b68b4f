package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"

	"vidbits/internal/logging"
	"vidbits/internal/manifest"
	"vidbits/internal/media/ffprobe"
	"vidbits/internal/media/video"
	"vidbits/internal/pipeline"
	"vidbits/internal/raster"
	"vidbits/internal/resolution"
	"vidbits/internal/services"
)

// AnalyzeResult is the similarity profile of a frame stream.
type AnalyzeResult struct {
	Resolution   resolution.Resolution
	FromManifest bool
	Profile      pipeline.Profile
}

// Analyze profiles how the similarity gate treats the frames at input.
func (r *Runner) Analyze(ctx context.Context, input string) (AnalyzeResult, error) {
	ctx = services.WithStage(ctx, "analyze")
	logger := logging.WithContext(ctx, r.logger)

	reader, err := video.Open(ctx, input, r.videoOptions())
	if err != nil {
		return AnalyzeResult{}, services.Wrap(services.ErrExternalTool, "analyze", "open input", "", err)
	}
	defer reader.Close()

	p, fromManifest, err := r.decodeParams(logger, input, reader.Info())
	if err != nil {
		return AnalyzeResult{}, err
	}
	p.Pipeline.Logger = logger

	profile, err := pipeline.Analyze(ctx, p.Pipeline, reader)
	if err != nil {
		return AnalyzeResult{}, classifyRunError("analyze", err)
	}
	logger.Info("analysis finished",
		logging.Int("frames", len(profile.Points)),
		logging.Int("skipped", profile.Skipped()),
	)
	return AnalyzeResult{Resolution: p.Pipeline.Resolution, FromManifest: fromManifest, Profile: profile}, nil
}

// Inspection describes a frame stream on disk.
type Inspection struct {
	Path     string
	Backend  string
	Stream   video.StreamInfo
	Manifest *manifest.Manifest
	Probe    *ffprobe.Result
}

// Inspect reports the container geometry, the manifest when present and,
// for ffmpeg containers, the ffprobe view of the file.
func (r *Runner) Inspect(ctx context.Context, path string) (Inspection, error) {
	opts := r.videoOptions()
	backend, err := video.Backend(path, opts)
	if err != nil {
		return Inspection{}, services.Wrap(services.ErrConfiguration, "inspect", "select container", "", err)
	}
	out := Inspection{Path: path, Backend: backend}

	reader, err := video.Open(ctx, path, opts)
	if err != nil {
		return Inspection{}, services.Wrap(services.ErrExternalTool, "inspect", "open input", "", err)
	}
	out.Stream = reader.Info()
	_ = reader.Close()

	m, err := manifest.ForVideo(path)
	switch {
	case err == nil:
		out.Manifest = &m
	case errors.Is(err, manifest.ErrNotFound):
	default:
		return Inspection{}, services.Wrap(services.ErrValidation, "inspect", "read manifest", "", err)
	}

	if backend == video.ContainerFFmpeg {
		probe, err := ffprobe.Inspect(ctx, r.cfg.Video.FFprobeBinary, path)
		if err != nil {
			return Inspection{}, services.Wrap(services.ErrExternalTool, "inspect", "ffprobe", "", err)
		}
		out.Probe = &probe
	}
	return out, nil
}

// Snapshot returns frame index (0-based) of the stream at path.
func (r *Runner) Snapshot(ctx context.Context, path string, index int) (*raster.Raster, error) {
	if index < 0 {
		return nil, services.Wrap(services.ErrValidation, "snapshot", "frame index", fmt.Sprintf("invalid frame %d", index), nil)
	}
	reader, err := video.Open(ctx, path, r.videoOptions())
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "snapshot", "open input", "", err)
	}
	defer reader.Close()

	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame, err := reader.ReadFrame()
		if errors.Is(err, io.EOF) {
			return nil, services.Wrap(services.ErrNotFound, "snapshot", "seek", fmt.Sprintf("stream has only %d frames", i), nil)
		}
		if err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "snapshot", "read frame", "", err)
		}
		if i == index {
			return frame, nil
		}
	}
}
