package logger

import (
	"context"
	"log/slog"
)

type ContextKey string

const (
	// Business context keys propagated through the aggregation pipeline.
	RunIDKey    ContextKey = "run.id"
	UserIDKey   ContextKey = "user.id"
	PlatformKey ContextKey = "source.platform"
	StageKey    ContextKey = "pipeline.stage"
)

// WithContext returns the logger enriched with any pipeline fields present
// in ctx.
func WithContext(ctx context.Context, log *slog.Logger) *slog.Logger {
	var fields []any

	if runID := ctx.Value(RunIDKey); runID != nil {
		fields = append(fields, string(RunIDKey), runID)
	}
	if userID := ctx.Value(UserIDKey); userID != nil {
		fields = append(fields, string(UserIDKey), userID)
	}
	if platform := ctx.Value(PlatformKey); platform != nil {
		fields = append(fields, string(PlatformKey), platform)
	}
	if stage := ctx.Value(StageKey); stage != nil {
		fields = append(fields, string(StageKey), stage)
	}

	if len(fields) > 0 {
		return log.With(fields...)
	}
	return log
}

// WithRunID adds the aggregation run ID to context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// WithUserID adds the requesting user ID to context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// WithPlatform adds the source platform to context.
func WithPlatform(ctx context.Context, platform string) context.Context {
	return context.WithValue(ctx, PlatformKey, platform)
}

// WithStage adds the pipeline stage (fetch, curate, digest) to context.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, StageKey, stage)
}
