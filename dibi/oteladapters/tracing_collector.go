package oteladapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/orbnauticus/dibi-go/dibi"
)

// TracingCollector implements dibi.TracingCollector with an OpenTelemetry tracer.
// Engine operations become client spans.
type TracingCollector struct {
	tracer trace.Tracer
}

var _ dibi.TracingCollector = (*TracingCollector)(nil)

func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

func (t *TracingCollector) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, dibi.SpanContext) {
	ctx, span := t.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attributes(attrs)...),
	)

	return ctx, &OTelSpanContext{span: span}
}

// FinishSpan adds attrs, sets the status and ends the span. Spans from other collectors are ignored.
func (t *TracingCollector) FinishSpan(spanCtx dibi.SpanContext, status string, attrs map[string]string) {
	otelSpan, ok := spanCtx.(*OTelSpanContext)
	if !ok {
		return
	}

	otelSpan.span.SetAttributes(attributes(attrs)...)
	otelSpan.SetStatus(status)
	otelSpan.span.End()
}

// OTelSpanContext wraps an OpenTelemetry span.
type OTelSpanContext struct {
	span trace.Span
}

var _ dibi.SpanContext = (*OTelSpanContext)(nil)

// SetStatus maps "success" to codes.Ok and "error" to codes.Error.
// Other values are kept as a "status" attribute.
func (s *OTelSpanContext) SetStatus(status string) {
	switch status {
	case "success", "ok":
		s.span.SetStatus(codes.Ok, "")
	case "error", "failure":
		s.span.SetStatus(codes.Error, "operation failed")
	default:
		s.span.SetAttributes(attribute.String("status", status))
	}
}

func (s *OTelSpanContext) AddAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

// Span returns the underlying OpenTelemetry span.
func (s *OTelSpanContext) Span() trace.Span {
	return s.span
}
