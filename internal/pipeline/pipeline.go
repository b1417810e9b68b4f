package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"vidbits/internal/logging"
	"vidbits/internal/raster"
	"vidbits/internal/resolution"
)

var (
	// ErrPayloadEncode marks a transducer failure while encoding. It ends the run.
	ErrPayloadEncode = errors.New("payload encode failed")
	// ErrPayloadDecode marks a transducer failure while decoding. The frame
	// hold recovers from it and the run continues.
	ErrPayloadDecode = errors.New("payload decode failed")
)

// Stage names the step a frame is in when an error or event is reported.
type Stage string

const (
	StageReading       Stage = "reading"
	StageTransducing   Stage = "transducing"
	StageGridding      Stage = "gridding"
	StageRasterizing   Stage = "rasterizing"
	StageWriting       Stage = "writing"
	StageDerasterizing Stage = "derasterizing"
	StageGateCheck     Stage = "gate_check"
	StageEmit          Stage = "emit"
)

// Outcome is what happened to a frame.
type Outcome string

const (
	// OutcomeWritten means the frame produced output.
	OutcomeWritten Outcome = "written"
	// OutcomeSkipped means the similarity gate dropped the frame.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeHeld means the unit failed to decode and the last good chunk was repeated.
	OutcomeHeld Outcome = "held"
	// OutcomeDropped means the unit failed to decode before any chunk decoded.
	OutcomeDropped Outcome = "dropped"
)

// FrameEvent reports progress for one frame.
type FrameEvent struct {
	Index        int
	Total        int
	Outcome      Outcome
	Similarity   float64
	PayloadBytes int
	Truncated    bool
}

// Percent returns progress through the stream, or -1 when Total is unknown.
func (e FrameEvent) Percent() float64 {
	if e.Total <= 0 {
		return -1
	}
	return float64(e.Index+1) / float64(e.Total) * 100
}

// Observer receives frame events in order from the goroutine running the
// transducer. It must not block for long.
type Observer func(FrameEvent)

// Config carries the per-run parameters shared by both directions.
type Config struct {
	Resolution resolution.Resolution
	Scale      int
	// ChunkSamples is the number of interleaved PCM values per frame.
	ChunkSamples          int
	SimilarityThreshold   float64
	BinarizationThreshold int
	ReadAhead             int
	// TotalFrames is the expected frame count, or <= 0 when unknown.
	TotalFrames int
	Observer    Observer
	Logger      *slog.Logger
}

func (c Config) validate() error {
	if c.Resolution.Width <= 0 || c.Resolution.Height <= 0 {
		return fmt.Errorf("%w: resolution %s", resolution.ErrInvalidCapacity, c.Resolution)
	}
	if c.Scale < 1 {
		return fmt.Errorf("invalid scale %d", c.Scale)
	}
	if c.ReadAhead < 0 {
		return fmt.Errorf("invalid read-ahead %d", c.ReadAhead)
	}
	return nil
}

// report hands evt to the observer and logs sampled progress.
func (c Config) report(logger *slog.Logger, sampler *logging.FrameSampler, direction string, evt FrameEvent) {
	evt.Total = c.TotalFrames
	if c.Observer != nil {
		c.Observer(evt)
	}
	if !sampler.Due(evt.Index, evt.Total) {
		return
	}
	attrs := []any{logging.Int(logging.FieldFrame, evt.Index)}
	if pct := evt.Percent(); pct >= 0 {
		attrs = append(attrs, logging.Float64("percent", pct))
	}
	logger.Info(direction+" progress", attrs...)
}

// PayloadEncoder turns a PCM chunk into a payload unit.
type PayloadEncoder interface {
	Encode(samples []int16) ([]byte, error)
}

// PayloadDecoder turns a payload unit back into PCM.
type PayloadDecoder interface {
	Decode(payload []byte) ([]int16, error)
}

// SampleSource yields interleaved PCM. A short read marks the last chunk and
// io.EOF is returned once nothing remains.
type SampleSource interface {
	ReadChunk(dst []int16) (int, error)
}

// SampleSink receives decoded PCM.
type SampleSink interface {
	WriteChunk(samples []int16) error
}

// FrameSource yields frames in order and io.EOF after the last one.
type FrameSource interface {
	ReadFrame() (*raster.Raster, error)
}

// FrameSink receives encoded frames.
type FrameSink interface {
	WriteFrame(frame *raster.Raster) error
}
