package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"vidbits/internal/catalog"
	"vidbits/internal/logging"
	"vidbits/internal/manifest"
	"vidbits/internal/media/video"
	"vidbits/internal/media/wavio"
	"vidbits/internal/pipeline"
	"vidbits/internal/preflight"
	"vidbits/internal/resolution"
	"vidbits/internal/services"
	"vidbits/internal/transducer"
)

// EncodeResult describes a finished encode.
type EncodeResult struct {
	RunID        string
	Resolution   resolution.Resolution
	Container    string
	ManifestPath string
	LogPath      string
	Stats        pipeline.EncodeStats
}

// Encode turns the WAV at input into a frame stream at output and writes the
// manifest sidecar next to it.
func (r *Runner) Encode(ctx context.Context, input, output string) (EncodeResult, error) {
	s, err := r.begin(ctx, DirectionEncode, r.cfg.Codec.Transducer, preflight.Run{Input: input, Output: output, Video: output})
	if err != nil {
		return EncodeResult{}, err
	}
	result, err := r.encode(s, input, output)
	s.finish(catalog.Counters{Frames: result.Stats.Frames, Truncated: result.Stats.TruncatedFrames}, err)
	result.RunID = s.runID
	result.LogPath = s.logPath
	return result, err
}

func (r *Runner) encode(s *session, input, output string) (EncodeResult, error) {
	var result EncodeResult

	wav, err := wavio.Open(input)
	if err != nil {
		return result, services.Wrap(services.ErrValidation, DirectionEncode, "open input", "", err)
	}
	defer wav.Close()

	format := wav.Format()
	if format.SampleRate != r.cfg.Audio.SampleRate || format.Channels != r.cfg.Audio.Channels {
		return result, services.Wrap(services.ErrValidation, DirectionEncode, "check input",
			fmt.Sprintf("input is %d Hz x %d, configuration expects %d Hz x %d; resample the input or change [audio]",
				format.SampleRate, format.Channels, r.cfg.Audio.SampleRate, r.cfg.Audio.Channels), nil)
	}

	p, err := r.encodeParams(format)
	if err != nil {
		return result, err
	}
	result.Resolution = p.Pipeline.Resolution
	s.recordResolution(p.Pipeline.Resolution.String())

	tx, err := p.newTransducer()
	if err != nil {
		return result, services.Wrap(services.ErrConfiguration, DirectionEncode, "create transducer", "", err)
	}
	defer tx.Close()

	total := wav.TotalSamples()
	chunk := int64(p.Pipeline.ChunkSamples)
	p.Pipeline.TotalFrames = int((total + chunk - 1) / chunk)
	p.Pipeline.Logger = s.logger
	p.Pipeline.Observer = r.observer

	opts := r.videoOptions()
	backend, err := video.Backend(output, opts)
	if err != nil {
		return result, services.Wrap(services.ErrConfiguration, DirectionEncode, "select container", "", err)
	}
	result.Container = backend

	scaled := p.Pipeline.Resolution.Scaled(p.Pipeline.Scale)
	info := video.StreamInfo{Width: scaled.Width, Height: scaled.Height, FPS: r.cfg.Codec.FPS, Frames: p.Pipeline.TotalFrames}
	writer, err := video.Create(s.ctx, output, info, opts)
	if err != nil {
		return result, services.Wrap(services.ErrExternalTool, DirectionEncode, "create output", "", err)
	}

	enc, err := pipeline.NewEncoder(p.Pipeline, tx)
	if err != nil {
		_ = writer.Close()
		return result, services.Wrap(services.ErrConfiguration, DirectionEncode, "configure encoder", "", err)
	}

	stats, runErr := enc.Run(s.ctx, wav, writer)
	result.Stats = stats
	closeErr := writer.Close()
	if runErr == nil && closeErr != nil {
		runErr = services.Wrap(services.ErrExternalTool, DirectionEncode, "finalize output", "", closeErr)
	}
	if runErr != nil {
		if removeErr := os.Remove(output); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			s.logger.Warn("remove partial output failed", logging.Error(removeErr))
		}
		return result, classifyRunError(DirectionEncode, runErr)
	}

	m := manifest.Manifest{
		RunID:     s.runID,
		CreatedAt: time.Now().UTC(),
		Source:    input,
		Codec: manifest.Codec{
			Resolution:      p.Pipeline.Resolution,
			Scale:           p.Pipeline.Scale,
			Bitrate:         r.cfg.Codec.Bitrate,
			FrameDurationMs: r.cfg.Codec.FrameDurationMs,
			FPS:             r.cfg.Codec.FPS,
			Orientation:     r.cfg.Codec.Orientation,
			Choice:          r.cfg.Codec.Choice,
			Transducer:      tx.Name(),
		},
		Audio: manifest.Audio{
			SampleRate:    format.SampleRate,
			Channels:      format.Channels,
			ChunkSamples:  p.Pipeline.ChunkSamples,
			Samples:       stats.Samples,
			PaddedSamples: stats.PaddedSamples,
		},
		Video: manifest.Video{
			Container: backend,
			Frames:    stats.Frames,
			Width:     scaled.Width,
			Height:    scaled.Height,
		},
	}
	result.ManifestPath = manifest.PathFor(output)
	if err := manifest.Write(result.ManifestPath, m); err != nil {
		return result, services.Wrap(services.ErrTransient, DirectionEncode, "write manifest", "", err)
	}
	return result, nil
}

func (r *Runner) encodeParams(format wavio.Format) (params, error) {
	capacity := resolution.Capacity(r.cfg.Codec.Bitrate, r.cfg.Codec.FrameDurationMs)
	res, err := resolution.Plan(capacity, resolution.ParseOrientation(r.cfg.Codec.Orientation), r.cfg.Codec.Choice)
	if err != nil {
		return params{}, services.Wrap(services.ErrConfiguration, DirectionEncode, "plan resolution", "check codec.bitrate and codec.frame_duration_ms", err)
	}
	chunk := r.cfg.ChunkFrames() * format.Channels
	return params{
		Pipeline: pipeline.Config{
			Resolution:            res,
			Scale:                 r.cfg.Codec.Scale,
			ChunkSamples:          chunk,
			SimilarityThreshold:   r.cfg.Codec.SimilarityThreshold,
			BinarizationThreshold: r.cfg.Codec.BinarizationThreshold,
			ReadAhead:             r.cfg.Pipeline.ReadAhead,
		},
		Transducer: r.cfg.Codec.Transducer,
		Audio: transducer.Options{
			SampleRate:      format.SampleRate,
			Channels:        format.Channels,
			ChunkSamples:    chunk,
			Bitrate:         r.cfg.Codec.Bitrate,
			MaxPayloadBytes: capacity / 8,
		},
	}, nil
}

// classifyRunError tags pipeline errors that carry no marker yet.
func classifyRunError(direction string, err error) error {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrConfiguration),
		errors.Is(err, services.ErrExternalTool),
		errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrTransient):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, pipeline.ErrPayloadEncode):
		return services.Wrap(services.ErrValidation, direction, "transduce", "payload does not fit the transducer", err)
	default:
		return services.Wrap(services.ErrTransient, direction, "run", "", err)
	}
}
