package workflow

import (
	"log/slog"

	"vidbits/internal/config"
	"vidbits/internal/logging"
	"vidbits/internal/media/video"
	"vidbits/internal/pipeline"
	"vidbits/internal/transducer"
)

// Runner executes runs against one configuration.
type Runner struct {
	cfg      *config.Config
	logger   *slog.Logger
	observer pipeline.Observer
}

// Option configures optional Runner behavior.
type Option func(*Runner)

// WithObserver receives a FrameEvent for every frame of encode and decode runs.
func WithObserver(observer pipeline.Observer) Option {
	return func(r *Runner) {
		r.observer = observer
	}
}

// NewRunner constructs a runner. A nil logger discards output.
func NewRunner(cfg *config.Config, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) videoOptions() video.Options {
	return video.Options{
		Container:     r.cfg.Video.Container,
		FFmpegBinary:  r.cfg.Video.FFmpegBinary,
		FFprobeBinary: r.cfg.Video.FFprobeBinary,
		VideoCodec:    r.cfg.Video.Codec,
		PixelFormat:   r.cfg.Video.PixelFormat,
	}
}

// params is everything the pipeline and transducer need for one stream.
type params struct {
	Pipeline   pipeline.Config
	Transducer string
	Audio      transducer.Options
}

func (p params) newTransducer() (transducer.Transducer, error) {
	return transducer.New(p.Transducer, p.Audio)
}
