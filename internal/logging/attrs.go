package logging

import (
	"context"
	"log/slog"
	"slices"
	"time"
)

type Attr = slog.Attr

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Float64(key string, value float64) Attr { return slog.Float64(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

// Error records err under "error"; a nil error is written as "<nil>".
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger tags logger with component. A nil logger yields a nop.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

type warningDefaults struct {
	hint   string
	impact string
}

// knownWarnings holds the fallback hint and impact for warning events the
// codec emits. Callers can still override either field.
var knownWarnings = map[string]warningDefaults{
	"payload_truncated":       {"lower bitrate or raise the resolution choice", "trailing payload bits dropped from the frame"},
	"payload_decode_failed":   {"check the video for lossy re-encoding", "previous chunk repeated in the output"},
	"frame_geometry_mismatch": {"check the scale setting matches the encoder", "frame cropped to the nearest whole grid"},
	"manifest_missing":        {"keep the .vidbits.toml sidecar next to the video", "decode parameters taken from config"},
	"run_log_unavailable":     {"check logs for details", "run continued without a per-run log"},
	"catalog_unavailable":     {"check logs for details", "run not recorded in history"},
}

// WarnWithContext logs a warning that always carries event_type, error_hint
// and impact, filling whichever the caller left out.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	defaults, ok := knownWarnings[eventType]
	if !ok {
		defaults = warningDefaults{hint: "check logs for details", impact: "run continued with warnings"}
	}
	attrs = withDefault(attrs, FieldEventType, eventType)
	attrs = withDefault(attrs, FieldErrorHint, defaults.hint)
	attrs = withDefault(attrs, FieldImpact, defaults.impact)
	logger.Warn(msg, attrsToArgs(attrs)...)
}

func withDefault(attrs []Attr, key, value string) []Attr {
	if slices.ContainsFunc(attrs, func(a Attr) bool { return a.Key == key }) {
		return attrs
	}
	return append(attrs, String(key, value))
}

func attrsToArgs(attrs []Attr) []any {
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}
	return args
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }

func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }

func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }
