package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"vidbits/internal/guard"
	"vidbits/internal/logging"
	"vidbits/internal/raster"
)

// DecodeStats summarizes a decode run.
type DecodeStats struct {
	Frames   int
	Written  int
	Skipped  int
	Held     int
	Dropped  int
	Samples  int64
	Duration time.Duration
}

// DecoderState is the memory a decode run carries between frames: the last
// accepted bit block and the last successfully decoded chunk.
type DecoderState struct {
	Gate *guard.Gate
	Hold *guard.Hold
}

// NewDecoderState returns empty state for a gate with the given threshold.
func NewDecoderState(similarityThreshold float64) *DecoderState {
	return &DecoderState{Gate: guard.NewGate(similarityThreshold), Hold: guard.NewHold()}
}

// Reset clears both the gate reference and the held chunk.
func (s *DecoderState) Reset() {
	s.Gate.Reset()
	s.Hold.Reset()
}

// Decoder turns frames back into PCM.
type Decoder struct {
	cfg     Config
	payload PayloadDecoder
	state   *DecoderState
}

// NewDecoder validates cfg for the decode direction.
func NewDecoder(cfg Config, payload PayloadDecoder) (*Decoder, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, fmt.Errorf("decoder: payload decoder is required")
	}
	return &Decoder{cfg: cfg, payload: payload, state: NewDecoderState(cfg.SimilarityThreshold)}, nil
}

type gridBlock struct {
	bits []byte
}

// Run decodes src into dst until src is exhausted. State is reset at the
// start of each run. Frames that fail to decode never stop the run; sink
// failures do.
func (d *Decoder) Run(ctx context.Context, src FrameSource, dst SampleSink) (DecodeStats, error) {
	logger := logging.NewComponentLogger(logging.WithContext(ctx, d.cfg.Logger), "decoder")
	sampler := logging.NewFrameSampler(10)
	started := time.Now()
	var stats DecodeStats
	d.state.Reset()

	logger.Info("decode started",
		logging.String("resolution", d.cfg.Resolution.String()),
		logging.Float64("similarity_threshold", d.cfg.SimilarityThreshold),
		logging.Int("binarization_threshold", d.cfg.BinarizationThreshold),
	)

	var warnGeometry sync.Once
	readIndex := 0
	next := func() (gridBlock, error) {
		frame, err := src.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return gridBlock{}, err
			}
			return gridBlock{}, fmt.Errorf("frame %d: %s: %w", readIndex, StageReading, err)
		}
		if frame.Width%d.cfg.Resolution.Width != 0 || frame.Height%d.cfg.Resolution.Height != 0 {
			warnGeometry.Do(func() {
				logging.WarnWithContext(logger, "frame size is not a multiple of the grid", "frame_geometry_mismatch",
					logging.Int("frame_width", frame.Width),
					logging.Int("frame_height", frame.Height),
					logging.String("resolution", d.cfg.Resolution.String()),
					logging.String(logging.FieldErrorHint, "check the manifest or pass the resolution used to encode"),
					logging.String(logging.FieldImpact, "cells may be sampled off-center and decode may fail"),
				)
			})
		}
		grid, err := raster.Derasterize(frame, d.cfg.Resolution.Width, d.cfg.Resolution.Height, d.cfg.BinarizationThreshold)
		if err != nil {
			return gridBlock{}, fmt.Errorf("frame %d: %s: %w", readIndex, StageDerasterizing, err)
		}
		readIndex++
		return gridBlock{bits: grid.Bytes()}, nil
	}

	index := 0
	consume := func(block gridBlock) error {
		defer func() { index++ }()
		stats.Frames++

		skip, similarity := d.state.Gate.Check(block.bits)
		evt := FrameEvent{Index: index, Similarity: similarity, PayloadBytes: len(block.bits)}
		if skip {
			stats.Skipped++
			logger.Debug("frame skipped",
				logging.Int(logging.FieldFrame, index),
				logging.Float64("similarity", similarity),
			)
			evt.Outcome = OutcomeSkipped
			d.cfg.report(logger, sampler, "decode", evt)
			return nil
		}

		samples, held, err := d.state.Hold.Decode(block.bits, d.payload.Decode)
		if err != nil {
			decodeErr := fmt.Errorf("%w: frame %d: %w", ErrPayloadDecode, index, err)
			impact := "previous chunk repeated"
			if !held {
				impact = "chunk dropped, nothing decoded yet"
			}
			logging.WarnWithContext(logger, "payload did not decode", "payload_decode_failed",
				logging.Int(logging.FieldFrame, index),
				logging.Error(decodeErr),
				logging.String(logging.FieldErrorHint, "frame may be damaged or thresholded wrongly"),
				logging.String(logging.FieldImpact, impact),
			)
		}
		switch {
		case held:
			stats.Held++
			evt.Outcome = OutcomeHeld
		case err != nil:
			stats.Dropped++
			evt.Outcome = OutcomeDropped
			d.cfg.report(logger, sampler, "decode", evt)
			return nil
		default:
			evt.Outcome = OutcomeWritten
		}

		if len(samples) > 0 {
			if err := dst.WriteChunk(samples); err != nil {
				return fmt.Errorf("frame %d: %s: %w", index, StageEmit, err)
			}
			stats.Written++
			stats.Samples += int64(len(samples))
		}
		d.cfg.report(logger, sampler, "decode", evt)
		return nil
	}

	err := runOrdered(ctx, d.cfg.ReadAhead, next, consume)
	stats.Duration = time.Since(started)
	if err != nil {
		return stats, err
	}

	logger.Info("decode finished",
		logging.Int("frames", stats.Frames),
		logging.Int("written", stats.Written),
		logging.Int("skipped", stats.Skipped),
		logging.Int("held", stats.Held),
		logging.Int("dropped", stats.Dropped),
		logging.Duration("elapsed", stats.Duration),
	)
	return stats, nil
}
