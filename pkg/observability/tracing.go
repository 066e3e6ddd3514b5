package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope used for pipeline spans.
const TracerName = "github.com/matzehuels/gestalt/pipeline"

// TracingHooks records compose and advisory stages as OpenTelemetry spans.
// Normalization and repairs become events on the active span.
type TracingHooks struct {
	tracer trace.Tracer
}

// NewTracingHooks uses the global tracer provider.
func NewTracingHooks() *TracingHooks {
	return NewTracingHooksWithProvider(otel.GetTracerProvider())
}

// NewTracingHooksWithProvider uses tp.
func NewTracingHooksWithProvider(tp trace.TracerProvider) *TracingHooks {
	return &TracingHooks{tracer: tp.Tracer(TracerName)}
}

func (h *TracingHooks) OnNormalize(ctx context.Context, blocks int, duration time.Duration, err error) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent("normalize", trace.WithAttributes(
		attribute.Int("gestalt.blocks", blocks),
		attribute.Int64("gestalt.duration_us", duration.Microseconds()),
	))
	if err != nil {
		span.RecordError(err)
	}
}

func (h *TracingHooks) OnComposeStart(ctx context.Context, fingerprint string, blocks int) context.Context {
	ctx, _ = h.tracer.Start(ctx, "gestalt.compose", trace.WithAttributes(
		attribute.String("gestalt.fingerprint", fingerprint),
		attribute.Int("gestalt.blocks", blocks),
	))
	return ctx
}

func (h *TracingHooks) OnComposeComplete(ctx context.Context, pages int, _ time.Duration, err error) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.Int("gestalt.pages", pages))
	end(span, err)
}

func (h *TracingHooks) OnRepair(ctx context.Context, headings int) {
	trace.SpanFromContext(ctx).AddEvent("repair", trace.WithAttributes(
		attribute.Int("gestalt.orphans", headings),
	))
}

func (h *TracingHooks) OnAdvisoryStart(ctx context.Context, requestID string) context.Context {
	ctx, _ = h.tracer.Start(ctx, "gestalt.advisory", trace.WithAttributes(
		attribute.String("gestalt.request_id", requestID),
	))
	return ctx
}

func (h *TracingHooks) OnAdvisoryComplete(ctx context.Context, applied, dropped int, _ time.Duration, err error) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.Int("gestalt.applied", applied),
		attribute.Int("gestalt.dropped", dropped),
	)
	end(span, err)
}

func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

var _ PipelineHooks = (*TracingHooks)(nil)
