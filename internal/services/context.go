package services

import "context"

type contextKey string

const (
	runIDKey     contextKey = "run_id"
	stageKey     contextKey = "stage"
	directionKey contextKey = "direction"
)

// WithRunID annotates context with the run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithDirection annotates context with the run direction (encode/decode).
func WithDirection(ctx context.Context, direction string) context.Context {
	if direction == "" {
		return ctx
	}
	return context.WithValue(ctx, directionKey, direction)
}

// DirectionFromContext returns the run direction if present.
func DirectionFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(directionKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}
