package transition

import (
	"context"
	"strconv"

	"github.com/zeebo/xxh3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "transition"

// startTransitionSpan creates a span for one transition attempt.
// The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller
func startTransitionSpan[S comparable](
	ctx context.Context,
	tracer trace.Tracer,
	m *Machine[S],
	t *Spec[S],
	from string,
	to string,
) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "transition."+t.Name())
	span.SetAttributes(
		attribute.String("transition", t.Name()),
		attribute.String("machine_id_hash", hashID(m.ID())),
		attribute.String("sources", t.sources.String()),
		attribute.String("from", from),
		attribute.String("to", to),
	)

	return ctx, span
}

// startWaitSpan creates a span covering a blocking wait.
// The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller
func startWaitSpan(ctx context.Context, tracer trace.Tracer, machineID, state string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "transition.wait")
	span.SetAttributes(
		attribute.String("machine_id_hash", hashID(machineID)),
		attribute.String("state", state),
	)

	return ctx, span
}

// newTracer returns the global tracer, or a no-op tracer when disabled.
func newTracer(enabled bool) trace.Tracer { //nolint:ireturn
	if !enabled {
		return noop.NewTracerProvider().Tracer(tracerName)
	}

	return otel.Tracer(tracerName)
}

// hashID creates a short hash of an ID for span attributes.
func hashID(id string) string {
	if id == "" {
		return ""
	}

	return strconv.FormatUint(xxh3.HashString(id), 16)
}

// extractTraceContext extracts trace ID and span ID from context for logging.
func extractTraceContext(ctx context.Context) (traceID, spanID string) {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()

		return spanCtx.TraceID().String(), spanCtx.SpanID().String()
	}

	return "", ""
}
