package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"vidbits/internal/guard"
	"vidbits/internal/raster"
)

// ProfilePoint is the similarity record for one frame.
type ProfilePoint struct {
	Index int
	// Adjacent is the similarity to the immediately preceding frame.
	Adjacent float64
	// Reference is the similarity to the last frame the gate accepted.
	Reference float64
	Skipped   bool
}

// Profile summarizes how the similarity gate would treat a frame stream.
type Profile struct {
	Points    []ProfilePoint
	Threshold float64
}

// Skipped counts frames the gate would drop.
func (p Profile) Skipped() int {
	n := 0
	for _, pt := range p.Points {
		if pt.Skipped {
			n++
		}
	}
	return n
}

// Analyze thresholds every frame of src and records its similarity to the
// previous frame and to the gate's reference, without decoding payloads.
func Analyze(ctx context.Context, cfg Config, src FrameSource) (Profile, error) {
	if err := cfg.validate(); err != nil {
		return Profile{}, err
	}
	gate := guard.NewGate(cfg.SimilarityThreshold)
	profile := Profile{Threshold: cfg.SimilarityThreshold}

	readIndex := 0
	next := func() ([]byte, error) {
		frame, err := src.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, err
			}
			return nil, fmt.Errorf("frame %d: %s: %w", readIndex, StageReading, err)
		}
		grid, err := raster.Derasterize(frame, cfg.Resolution.Width, cfg.Resolution.Height, cfg.BinarizationThreshold)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %s: %w", readIndex, StageDerasterizing, err)
		}
		readIndex++
		return grid.Bytes(), nil
	}

	var previous []byte
	consume := func(block []byte) error {
		pt := ProfilePoint{Index: len(profile.Points)}
		if previous != nil {
			pt.Adjacent = guard.Similarity(block, previous)
		}
		pt.Skipped, pt.Reference = gate.Check(block)
		previous = block
		profile.Points = append(profile.Points, pt)
		if cfg.Observer != nil {
			outcome := OutcomeWritten
			if pt.Skipped {
				outcome = OutcomeSkipped
			}
			cfg.Observer(FrameEvent{Index: pt.Index, Total: cfg.TotalFrames, Outcome: outcome, Similarity: pt.Reference})
		}
		return nil
	}

	if err := runOrdered(ctx, cfg.ReadAhead, next, consume); err != nil {
		return profile, err
	}
	return profile, nil
}
