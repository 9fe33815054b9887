package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/xraph/smsrelay"

// Tracer provides OpenTelemetry tracing for the relay.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a tracer from the global provider.
func NewTracer() *Tracer {
	return NewTracerFromProvider(otel.GetTracerProvider())
}

// NewTracerFromProvider creates a tracer from an explicit provider.
func NewTracerFromProvider(tp trace.TracerProvider) *Tracer {
	return &Tracer{
		tracer: tp.Tracer(tracerName),
	}
}

// StartForwardSpan starts the span covering one forward operation.
func (t *Tracer) StartForwardSpan(ctx context.Context, messageID, sender string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "smsrelay.forward",
		trace.WithAttributes(
			attribute.String("smsrelay.message_id", messageID),
			attribute.String("smsrelay.sender", sender),
		),
	)
}

// EndForwardSpan ends a forward span with the terminal status.
func (t *Tracer) EndForwardSpan(span trace.Span, status string, err error) {
	span.SetAttributes(attribute.String("smsrelay.status", status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// StartDispatchSpan starts a span for one delivery attempt.
func (t *Tracer) StartDispatchSpan(ctx context.Context, messageID, kind, host string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "smsrelay.dispatch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("smsrelay.message_id", messageID),
			attribute.String("smsrelay.transport", kind),
			attribute.String("server.address", host),
		),
	)
}

// EndDispatchSpan ends a dispatch span with result attributes.
func (t *Tracer) EndDispatchSpan(span trace.Span, status string, latencyMs int, detail string) {
	span.SetAttributes(
		attribute.String("smsrelay.status", status),
		attribute.Int("smsrelay.latency_ms", latencyMs),
	)
	if status != "sent" && detail != "" {
		span.SetStatus(codes.Error, detail)
	}
	span.End()
}
