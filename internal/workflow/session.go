package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"vidbits/internal/catalog"
	"vidbits/internal/fileutil"
	"vidbits/internal/logging"
	"vidbits/internal/preflight"
	"vidbits/internal/services"
)

// Direction values used for sessions, context and history.
const (
	DirectionEncode = "encode"
	DirectionDecode = "decode"
)

type session struct {
	runID     string
	direction string
	ctx       context.Context
	logger    *slog.Logger
	lock      *fileutil.Lock
	store     *catalog.Store
	logCloser io.Closer
	logPath   string
}

func (r *Runner) begin(ctx context.Context, direction, transducerName string, run preflight.Run) (*session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	ctx = services.WithStage(ctx, direction)
	ctx = services.WithDirection(ctx, direction)

	s := &session{runID: runID, direction: direction, ctx: ctx}
	s.logger = logging.WithContext(ctx, r.logger)

	if failed := preflight.Failed(preflight.RunAll(ctx, r.cfg, run)); len(failed) > 0 {
		return nil, preflightError(direction, failed)
	}

	lock, err := fileutil.LockPath(run.Output)
	if err != nil {
		if errors.Is(err, fileutil.ErrLocked) {
			return nil, services.Wrap(services.ErrValidation, direction, "lock output", "another run is writing this output", err)
		}
		return nil, services.Wrap(services.ErrConfiguration, direction, "lock output", "could not lock output", err)
	}
	s.lock = lock

	if r.cfg.Logging.RunLogs {
		handler, closer, path, err := logging.RunLogHandler(r.cfg, runID)
		if err != nil {
			logging.WarnWithContext(s.logger, "run log unavailable", "run_log_unavailable",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check paths.log_dir permissions"),
				logging.String(logging.FieldImpact, "this run has no log file"),
			)
		} else {
			s.logger = logging.WithContext(ctx, logging.TeeLogger(r.logger, handler))
			s.logCloser = closer
			s.logPath = path
		}
	}

	if strings.TrimSpace(r.cfg.Paths.CatalogPath) != "" {
		store, err := catalog.Open(ctx, r.cfg.Paths.CatalogPath)
		if err == nil {
			_, err = store.Start(ctx, catalog.Run{
				RunID:      runID,
				Direction:  direction,
				Input:      run.Input,
				Output:     run.Output,
				Transducer: transducerName,
			})
			if err != nil {
				_ = store.Close()
			}
		}
		if err != nil {
			logging.WarnWithContext(s.logger, "run catalog unavailable", "catalog_unavailable",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check paths.catalog_path or delete the catalog to reset it"),
				logging.String(logging.FieldImpact, "this run is not recorded in history"),
			)
		} else {
			s.store = store
		}
	}

	s.logger.Info(direction+" session started",
		logging.String(logging.FieldEventType, "session_start"),
		logging.String("input", run.Input),
		logging.String("output", run.Output),
		logging.String("log_file", s.logPath),
		logging.String("lock_file", s.lock.Path()),
	)
	return s, nil
}

func (s *session) recordResolution(resolution string) {
	if s.store == nil {
		return
	}
	if err := s.store.SetResolution(s.ctx, s.runID, resolution); err != nil {
		s.logger.Debug("record resolution failed", logging.Error(err))
	}
}

// finish records the outcome and releases everything begin acquired.
func (s *session) finish(counters catalog.Counters, runErr error) {
	if runErr != nil {
		s.logger.Error(s.direction+" session failed",
			logging.String(logging.FieldEventType, "session_failed"),
			logging.Error(runErr),
		)
	} else {
		s.logger.Info(s.direction+" session finished",
			logging.String(logging.FieldEventType, "session_finished"),
			logging.Int("frames", counters.Frames),
		)
	}

	if s.store != nil {
		// The run context may already be cancelled; history still needs the row.
		if err := s.store.Finish(context.WithoutCancel(s.ctx), s.runID, counters, runErr); err != nil {
			s.logger.Warn("record run failed", logging.Error(err))
		}
		_ = s.store.Close()
	}
	if err := s.lock.Release(); err != nil {
		s.logger.Warn("release output lock failed", logging.Error(err))
	}
	if s.logCloser != nil {
		_ = s.logCloser.Close()
	}
}

func preflightError(direction string, failed []preflight.Result) error {
	parts := make([]string, 0, len(failed))
	marker := services.ErrValidation
	for _, f := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Name, f.Detail))
		if f.Name == "FFmpeg" || f.Name == "FFprobe" {
			marker = services.ErrExternalTool
		}
	}
	return services.Wrap(marker, direction, "preflight", "checks failed", errors.New(strings.Join(parts, "; ")))
}
