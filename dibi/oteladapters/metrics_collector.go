package oteladapters

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/orbnauticus/dibi-go/dibi"
)

// MetricsCollector implements dibi.ContextualMetricsCollector with OpenTelemetry instruments:
//   - RecordDuration -> Float64Histogram in seconds
//   - IncrementCounter -> Int64Counter
//   - RecordValue -> Float64Histogram, since affected row counts are a distribution
//
// Instruments are created on first use and cached by name.
type MetricsCollector struct {
	meter     metric.Meter
	mu        sync.Mutex
	durations map[string]metric.Float64Histogram
	counters  map[string]metric.Int64Counter
	values    map[string]metric.Float64Histogram
	onError   func(error)
}

var _ dibi.ContextualMetricsCollector = (*MetricsCollector)(nil)

// MetricsOption configures a MetricsCollector.
type MetricsOption func(*MetricsCollector)

// WithInstrumentErrorHandler receives errors from instrument creation. They are dropped otherwise.
func WithInstrumentErrorHandler(handler func(error)) MetricsOption {
	return func(m *MetricsCollector) {
		m.onError = handler
	}
}

// NewMetricsCollector creates a collector on meter, typically obtained from a MeterProvider.
func NewMetricsCollector(meter metric.Meter, options ...MetricsOption) *MetricsCollector {
	m := &MetricsCollector{
		meter:     meter,
		durations: make(map[string]metric.Float64Histogram),
		counters:  make(map[string]metric.Int64Counter),
		values:    make(map[string]metric.Float64Histogram),
		onError:   func(error) {},
	}

	for _, option := range options {
		option(m)
	}

	return m
}

func (m *MetricsCollector) RecordDuration(name string, duration time.Duration, labels map[string]string) {
	m.RecordDurationContext(context.Background(), name, duration, labels)
}

func (m *MetricsCollector) RecordDurationContext(ctx context.Context, name string, duration time.Duration, labels map[string]string) {
	if histogram := m.duration(name); histogram != nil {
		histogram.Record(ctx, duration.Seconds(), metric.WithAttributes(attributes(labels)...))
	}
}

func (m *MetricsCollector) IncrementCounter(name string, labels map[string]string) {
	m.IncrementCounterContext(context.Background(), name, labels)
}

func (m *MetricsCollector) IncrementCounterContext(ctx context.Context, name string, labels map[string]string) {
	if counter := m.counter(name); counter != nil {
		counter.Add(ctx, 1, metric.WithAttributes(attributes(labels)...))
	}
}

func (m *MetricsCollector) RecordValue(name string, value float64, labels map[string]string) {
	m.RecordValueContext(context.Background(), name, value, labels)
}

func (m *MetricsCollector) RecordValueContext(ctx context.Context, name string, value float64, labels map[string]string) {
	if histogram := m.value(name); histogram != nil {
		histogram.Record(ctx, value, metric.WithAttributes(attributes(labels)...))
	}
}

func (m *MetricsCollector) duration(name string) metric.Float64Histogram {
	m.mu.Lock()
	defer m.mu.Unlock()

	if histogram, ok := m.durations[name]; ok {
		return histogram
	}

	histogram, err := m.meter.Float64Histogram(name,
		metric.WithDescription("dibi statement duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		m.onError(err)
		return nil
	}
	m.durations[name] = histogram

	return histogram
}

func (m *MetricsCollector) counter(name string) metric.Int64Counter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if counter, ok := m.counters[name]; ok {
		return counter
	}

	counter, err := m.meter.Int64Counter(name, metric.WithDescription("dibi error count"))
	if err != nil {
		m.onError(err)
		return nil
	}
	m.counters[name] = counter

	return counter
}

func (m *MetricsCollector) value(name string) metric.Float64Histogram {
	m.mu.Lock()
	defer m.mu.Unlock()

	if histogram, ok := m.values[name]; ok {
		return histogram
	}

	histogram, err := m.meter.Float64Histogram(name, metric.WithDescription("dibi rows affected"))
	if err != nil {
		m.onError(err)
		return nil
	}
	m.values[name] = histogram

	return histogram
}

func attributes(labels map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for key, value := range labels {
		attrs = append(attrs, attribute.String(key, value))
	}

	return attrs
}
