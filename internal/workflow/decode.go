package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
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

// DecodeResult describes a finished decode.
type DecodeResult struct {
	RunID        string
	Resolution   resolution.Resolution
	FromManifest bool
	LogPath      string
	Stats        pipeline.DecodeStats

	// AudioDuration is the playback length of the written WAV.
	AudioDuration time.Duration
}

// Decode turns the frame stream at input back into a WAV at output.
func (r *Runner) Decode(ctx context.Context, input, output string) (DecodeResult, error) {
	s, err := r.begin(ctx, DirectionDecode, r.cfg.Codec.Transducer, preflight.Run{Input: input, Output: output, Video: input})
	if err != nil {
		return DecodeResult{}, err
	}
	result, err := r.decode(s, input, output)
	s.finish(catalog.Counters{
		Frames:  result.Stats.Frames,
		Skipped: result.Stats.Skipped,
		Held:    result.Stats.Held,
		Dropped: result.Stats.Dropped,
	}, err)
	result.RunID = s.runID
	result.LogPath = s.logPath
	return result, err
}

func (r *Runner) decode(s *session, input, output string) (DecodeResult, error) {
	var result DecodeResult

	reader, err := video.Open(s.ctx, input, r.videoOptions())
	if err != nil {
		return result, services.Wrap(services.ErrExternalTool, DirectionDecode, "open input", "", err)
	}
	defer reader.Close()

	p, fromManifest, err := r.decodeParams(s.logger, input, reader.Info())
	if err != nil {
		return result, err
	}
	result.Resolution = p.Pipeline.Resolution
	result.FromManifest = fromManifest
	s.recordResolution(p.Pipeline.Resolution.String())

	tx, err := p.newTransducer()
	if err != nil {
		return result, services.Wrap(services.ErrConfiguration, DirectionDecode, "create transducer", "", err)
	}
	defer tx.Close()

	p.Pipeline.Logger = s.logger
	p.Pipeline.Observer = r.observer
	dec, err := pipeline.NewDecoder(p.Pipeline, tx)
	if err != nil {
		return result, services.Wrap(services.ErrConfiguration, DirectionDecode, "configure decoder", "", err)
	}

	writer, err := wavio.Create(output, wavio.Format{SampleRate: p.Audio.SampleRate, Channels: p.Audio.Channels})
	if err != nil {
		return result, services.Wrap(services.ErrValidation, DirectionDecode, "create output", "", err)
	}

	stats, runErr := dec.Run(s.ctx, reader, writer)
	result.Stats = stats
	result.AudioDuration = time.Duration(writer.Samples()) * time.Second /
		time.Duration(p.Audio.SampleRate*p.Audio.Channels)
	if closeErr := writer.Close(); runErr == nil && closeErr != nil {
		runErr = services.Wrap(services.ErrTransient, DirectionDecode, "finalize output", "", closeErr)
	}
	if runErr != nil {
		return result, classifyRunError(DirectionDecode, runErr)
	}
	return result, nil
}

// decodeParams prefers the manifest sidecar and falls back to deriving the
// grid from the frame size and configured scale.
func (r *Runner) decodeParams(logger *slog.Logger, input string, info video.StreamInfo) (params, bool, error) {
	m, err := manifest.ForVideo(input)
	switch {
	case err == nil:
		return params{
			Pipeline: pipeline.Config{
				Resolution:            m.Codec.Resolution,
				Scale:                 m.Codec.Scale,
				ChunkSamples:          m.Audio.ChunkSamples,
				SimilarityThreshold:   r.cfg.Codec.SimilarityThreshold,
				BinarizationThreshold: r.cfg.Codec.BinarizationThreshold,
				ReadAhead:             r.cfg.Pipeline.ReadAhead,
				TotalFrames:           info.Frames,
			},
			Transducer: m.Codec.Transducer,
			Audio: transducer.Options{
				SampleRate:      m.Audio.SampleRate,
				Channels:        m.Audio.Channels,
				ChunkSamples:    m.Audio.ChunkSamples,
				Bitrate:         m.Codec.Bitrate,
				MaxPayloadBytes: m.Codec.Resolution.Capacity() / 8,
			},
		}, true, nil
	case errors.Is(err, manifest.ErrNotFound):
		scale := r.cfg.Codec.Scale
		res := resolution.Resolution{Width: info.Width / scale, Height: info.Height / scale}
		if res.Capacity() <= 0 {
			return params{}, false, services.Wrap(services.ErrValidation, DirectionDecode, "derive resolution",
				fmt.Sprintf("frames are %dx%d, smaller than scale %d", info.Width, info.Height, scale), resolution.ErrInvalidCapacity)
		}
		logging.WarnWithContext(logger, "manifest missing; deriving grid from frame size", "manifest_missing",
			logging.String("resolution", res.String()),
		)
		chunk := r.cfg.ChunkFrames() * r.cfg.Audio.Channels
		return params{
			Pipeline: pipeline.Config{
				Resolution:            res,
				Scale:                 scale,
				ChunkSamples:          chunk,
				SimilarityThreshold:   r.cfg.Codec.SimilarityThreshold,
				BinarizationThreshold: r.cfg.Codec.BinarizationThreshold,
				ReadAhead:             r.cfg.Pipeline.ReadAhead,
				TotalFrames:           info.Frames,
			},
			Transducer: r.cfg.Codec.Transducer,
			Audio: transducer.Options{
				SampleRate:      r.cfg.Audio.SampleRate,
				Channels:        r.cfg.Audio.Channels,
				ChunkSamples:    chunk,
				Bitrate:         r.cfg.Codec.Bitrate,
				MaxPayloadBytes: res.Capacity() / 8,
			},
		}, false, nil
	default:
		return params{}, false, services.Wrap(services.ErrValidation, DirectionDecode, "read manifest", "", err)
	}
}
