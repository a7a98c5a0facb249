package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/orbnauticus/dibi-go/dibi/oteladapters"
)

func newTracer() (*tracetest.InMemoryExporter, trace.Tracer) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	return exporter, provider.Tracer("dibi-test")
}

func spanAttribute(span tracetest.SpanStub, key string) (string, bool) {
	for _, kv := range span.Attributes {
		if kv.Key == attribute.Key(key) {
			return kv.Value.AsString(), true
		}
	}

	return "", false
}

func Test_TracingCollector_ShouldExportSpanWithStartAndFinishAttributes(t *testing.T) {
	// arrange
	exporter, tracer := newTracer()
	collector := oteladapters.NewTracingCollector(tracer)

	// act
	_, span := collector.StartSpan(context.Background(), "dibi.insert", map[string]string{
		"operation": "insert",
		"table":     "orders",
	})
	collector.FinishSpan(span, "success", map[string]string{"rows_affected": "1"})

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "dibi.insert", spans[0].Name)
	assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)

	table, ok := spanAttribute(spans[0], "table")
	assert.True(t, ok)
	assert.Equal(t, "orders", table)

	rows, ok := spanAttribute(spans[0], "rows_affected")
	assert.True(t, ok)
	assert.Equal(t, "1", rows)
}

func Test_TracingCollector_ShouldMarkFailedSpansAsError(t *testing.T) {
	// arrange
	exporter, tracer := newTracer()
	collector := oteladapters.NewTracingCollector(tracer)

	// act
	_, span := collector.StartSpan(context.Background(), "dibi.select", nil)
	collector.FinishSpan(span, "error", map[string]string{"error_type": "NoSuchTable"})

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)

	errorType, _ := spanAttribute(spans[0], "error_type")
	assert.Equal(t, "NoSuchTable", errorType)
}

func Test_TracingCollector_ShouldKeepUnknownStatusAsAttribute(t *testing.T) {
	// arrange
	exporter, tracer := newTracer()
	collector := oteladapters.NewTracingCollector(tracer)

	// act
	_, span := collector.StartSpan(context.Background(), "dibi.ping", nil)
	collector.FinishSpan(span, "skipped", nil)

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)

	status, ok := spanAttribute(spans[0], "status")
	assert.True(t, ok)
	assert.Equal(t, "skipped", status)
}

func Test_TracingCollector_ShouldPropagateSpanThroughContext(t *testing.T) {
	// arrange
	_, tracer := newTracer()
	collector := oteladapters.NewTracingCollector(tracer)

	// act
	ctx, span := collector.StartSpan(context.Background(), "dibi.update", nil)
	defer collector.FinishSpan(span, "success", nil)

	// assert
	assert.True(t, trace.SpanContextFromContext(ctx).IsValid())
}
