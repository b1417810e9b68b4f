package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"vidbits/internal/bitgrid"
	"vidbits/internal/logging"
	"vidbits/internal/raster"
)

// EncodeStats summarizes an encode run.
type EncodeStats struct {
	Frames          int
	Samples         int64
	PaddedSamples   int
	PayloadBytes    int64
	MaxPayloadBytes int
	TruncatedFrames int
	Duration        time.Duration
}

// Encoder writes one frame per PCM chunk.
type Encoder struct {
	cfg     Config
	payload PayloadEncoder
}

// NewEncoder validates cfg for the encode direction.
func NewEncoder(cfg Config, payload PayloadEncoder) (*Encoder, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.ChunkSamples <= 0 {
		return nil, fmt.Errorf("invalid chunk size %d", cfg.ChunkSamples)
	}
	if payload == nil {
		return nil, fmt.Errorf("encoder: payload encoder is required")
	}
	return &Encoder{cfg: cfg, payload: payload}, nil
}

type pcmChunk struct {
	samples []int16
	padded  int
}

// Run encodes src into dst until src is exhausted. Every chunk yields exactly
// one frame; a final short chunk is zero-padded first.
func (e *Encoder) Run(ctx context.Context, src SampleSource, dst FrameSink) (EncodeStats, error) {
	logger := logging.NewComponentLogger(logging.WithContext(ctx, e.cfg.Logger), "encoder")
	sampler := logging.NewFrameSampler(10)
	capacity := e.cfg.Resolution.Capacity()
	started := time.Now()
	var stats EncodeStats

	logger.Info("encode started",
		logging.String("resolution", e.cfg.Resolution.String()),
		logging.Int("capacity_bits", capacity),
		logging.Int("scale", e.cfg.Scale),
		logging.Int("chunk_samples", e.cfg.ChunkSamples),
	)

	finished := false
	next := func() (pcmChunk, error) {
		if finished {
			return pcmChunk{}, io.EOF
		}
		buf := make([]int16, e.cfg.ChunkSamples)
		n, err := src.ReadChunk(buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return pcmChunk{}, err
			}
			return pcmChunk{}, fmt.Errorf("%s: %w", StageReading, err)
		}
		if n < len(buf) {
			finished = true
		}
		return pcmChunk{samples: buf, padded: len(buf) - n}, nil
	}

	index := 0
	consume := func(chunk pcmChunk) error {
		unit, err := e.payload.Encode(chunk.samples)
		if err != nil {
			return fmt.Errorf("%w: frame %d: %w", ErrPayloadEncode, index, err)
		}

		truncated := len(unit)*8 > capacity
		if truncated {
			stats.TruncatedFrames++
			logging.WarnWithContext(logger, "payload truncated to frame capacity", "payload_truncated",
				logging.Int(logging.FieldFrame, index),
				logging.Int("payload_bits", len(unit)*8),
				logging.Int("capacity_bits", capacity),
				logging.String(logging.FieldErrorHint, "raise codec.bitrate or pick a more compact transducer"),
				logging.String(logging.FieldImpact, "the frame will not decode and playback repeats the previous chunk"),
			)
		}
		grid, err := bitgrid.New(unit, e.cfg.Resolution.Width, e.cfg.Resolution.Height)
		if err != nil {
			return fmt.Errorf("frame %d: %s: %w", index, StageGridding, err)
		}

		frame, err := raster.Rasterize(grid, e.cfg.Scale)
		if err != nil {
			return fmt.Errorf("frame %d: %s: %w", index, StageRasterizing, err)
		}

		if err := dst.WriteFrame(frame); err != nil {
			return fmt.Errorf("frame %d: %s: %w", index, StageWriting, err)
		}

		stats.Frames++
		stats.Samples += int64(len(chunk.samples) - chunk.padded)
		stats.PaddedSamples += chunk.padded
		stats.PayloadBytes += int64(len(unit))
		stats.MaxPayloadBytes = max(stats.MaxPayloadBytes, len(unit))

		e.cfg.report(logger, sampler, "encode", FrameEvent{Index: index, Outcome: OutcomeWritten, PayloadBytes: len(unit), Truncated: truncated})
		index++
		return nil
	}

	err := runOrdered(ctx, e.cfg.ReadAhead, next, consume)
	stats.Duration = time.Since(started)
	if err != nil {
		return stats, err
	}

	logger.Info("encode finished",
		logging.Int("frames", stats.Frames),
		logging.Int64("samples", stats.Samples),
		logging.Int("padded_samples", stats.PaddedSamples),
		logging.Int("truncated_frames", stats.TruncatedFrames),
		logging.Duration("elapsed", stats.Duration),
	)
	return stats, nil
}
