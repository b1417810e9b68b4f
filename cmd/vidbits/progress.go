package main

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"vidbits/internal/pipeline"
)

// frameProgress drives a terminal progress bar from pipeline frame events.
type frameProgress struct {
	bar *progressbar.ProgressBar
}

// newFrameProgress returns nil when w is not a terminal or progress is
// disabled, so callers can pass its observer unconditionally.
func newFrameProgress(w io.Writer, description string, enabled bool) *frameProgress {
	if !enabled || !isTerminal(w) {
		return nil
	}
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("frames"),
		progressbar.OptionShowIts(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return &frameProgress{bar: bar}
}

func (p *frameProgress) observer() pipeline.Observer {
	if p == nil {
		return nil
	}
	return func(evt pipeline.FrameEvent) {
		if evt.Total > 0 && p.bar.GetMax() != evt.Total {
			p.bar.ChangeMax(evt.Total)
		}
		_ = p.bar.Set(evt.Index + 1)
	}
}

func (p *frameProgress) finish() {
	if p == nil {
		return
	}
	_ = p.bar.Finish()
}
