package transition

import (
	"context"
	"log/slog"
	"time"
)

// Reasons reported to Logger.TransitionSkipped.
const (
	SkipInapplicable  = "inapplicable"
	SkipGuardRejected = "guard_rejected"
)

// Logger provides logging hooks for transition execution.
type Logger interface {
	TransitionSkipped(ctx context.Context, machineID, transition, state, reason string)
	TransitionStarted(ctx context.Context, machineID, transition, from, to string)
	TransitionCommitted(ctx context.Context, machineID, transition, from, to string, duration time.Duration)
	TransitionFailed(ctx context.Context, machineID, transition string, duration time.Duration, err error)
	WaitCompleted(ctx context.Context, machineID, state string, duration time.Duration, outcome string)
}

// DefaultLogger implements Logger using slog.
type DefaultLogger struct {
	logger *slog.Logger
}

// NewDefaultLogger creates a logger backed by slog.Default().
func NewDefaultLogger() *DefaultLogger {
	return NewSlogLogger(slog.Default())
}

// NewSlogLogger creates a logger backed by the given slog.Logger.
func NewSlogLogger(logger *slog.Logger) *DefaultLogger {
	if logger == nil {
		logger = slog.Default()
	}

	return &DefaultLogger{logger: logger}
}

func (l *DefaultLogger) TransitionSkipped(ctx context.Context, machineID, transition, state, reason string) {
	l.logger.DebugContext(ctx, "Transition skipped",
		withTrace(ctx,
			"machine_id", machineID,
			"transition", transition,
			"state", state,
			"reason", reason,
		)...)
}

func (l *DefaultLogger) TransitionStarted(ctx context.Context, machineID, transition, from, to string) {
	l.logger.DebugContext(ctx, "Transition started",
		withTrace(ctx,
			"machine_id", machineID,
			"transition", transition,
			"from", from,
			"to", to,
		)...)
}

func (l *DefaultLogger) TransitionCommitted(
	ctx context.Context, machineID, transition, from, to string, duration time.Duration,
) {
	l.logger.InfoContext(ctx, "Transition committed",
		withTrace(ctx,
			"machine_id", machineID,
			"transition", transition,
			"from", from,
			"to", to,
			"duration_ms", duration.Milliseconds(),
		)...)
}

func (l *DefaultLogger) TransitionFailed(
	ctx context.Context, machineID, transition string, duration time.Duration, err error,
) {
	fields := []any{
		"machine_id", machineID,
		"transition", transition,
		"duration_ms", duration.Milliseconds(),
		"error", err,
	}

	if phase, ok := PhaseOf(err); ok {
		fields = append(fields, "phase", string(phase))
	}

	l.logger.ErrorContext(ctx, "Transition failed", withTrace(ctx, fields...)...)
}

func (l *DefaultLogger) WaitCompleted(
	ctx context.Context, machineID, state string, duration time.Duration, outcome string,
) {
	l.logger.DebugContext(ctx, "Wait for state completed",
		withTrace(ctx,
			"machine_id", machineID,
			"state", state,
			"outcome", outcome,
			"duration_ms", duration.Milliseconds(),
		)...)
}

// withTrace appends trace and span IDs when ctx carries a valid span.
func withTrace(ctx context.Context, fields ...any) []any {
	traceID, spanID := extractTraceContext(ctx)
	if traceID == "" {
		return fields
	}

	return append(fields, "trace_id", traceID, "span_id", spanID)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) TransitionSkipped(context.Context, string, string, string, string) {}
func (NopLogger) TransitionStarted(context.Context, string, string, string, string) {}
func (NopLogger) TransitionCommitted(context.Context, string, string, string, string, time.Duration) {}
func (NopLogger) TransitionFailed(context.Context, string, string, time.Duration, error) {}
func (NopLogger) WaitCompleted(context.Context, string, string, time.Duration, string) {}
