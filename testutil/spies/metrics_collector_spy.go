package spies

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/orbnauticus/dibi-go/dibi"
)

// MetricRecord is one call a MetricsCollectorSpy received.
type MetricRecord struct {
	Kind     MetricKind
	Metric   string
	Duration time.Duration
	Value    float64
	Labels   map[string]string
	Context  bool
}

type MetricKind string

const (
	MetricKindDuration MetricKind = "duration"
	MetricKindCounter  MetricKind = "counter"
	MetricKindValue    MetricKind = "value"
)

// MetricsCollectorSpy records the metrics an engine emits.
// It implements dibi.ContextualMetricsCollector; wrap it with AsPlainCollector to test the fallback path.
type MetricsCollectorSpy struct {
	records     []MetricRecord
	mu          sync.Mutex
	recordCalls bool
}

var _ dibi.ContextualMetricsCollector = (*MetricsCollectorSpy)(nil)

// NewMetricsCollectorSpy creates a spy. Without recordCalls it accepts calls and records nothing,
// which suits benchmarks.
func NewMetricsCollectorSpy(recordCalls bool) *MetricsCollectorSpy {
	return &MetricsCollectorSpy{recordCalls: recordCalls}
}

func (s *MetricsCollectorSpy) record(r MetricRecord) {
	if !s.recordCalls {
		return
	}

	r.Labels = maps.Clone(r.Labels)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, r)
}

func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.record(MetricRecord{Kind: MetricKindDuration, Metric: metric, Duration: duration, Labels: labels})
}

func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.record(MetricRecord{Kind: MetricKindCounter, Metric: metric, Labels: labels})
}

func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.record(MetricRecord{Kind: MetricKindValue, Metric: metric, Value: value, Labels: labels})
}

func (s *MetricsCollectorSpy) RecordDurationContext(_ context.Context, metric string, duration time.Duration, labels map[string]string) {
	s.record(MetricRecord{Kind: MetricKindDuration, Metric: metric, Duration: duration, Labels: labels, Context: true})
}

func (s *MetricsCollectorSpy) IncrementCounterContext(_ context.Context, metric string, labels map[string]string) {
	s.record(MetricRecord{Kind: MetricKindCounter, Metric: metric, Labels: labels, Context: true})
}

func (s *MetricsCollectorSpy) RecordValueContext(_ context.Context, metric string, value float64, labels map[string]string) {
	s.record(MetricRecord{Kind: MetricKindValue, Metric: metric, Value: value, Labels: labels, Context: true})
}

func (s *MetricsCollectorSpy) Records() []MetricRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]MetricRecord, len(s.records))
	copy(records, s.records)

	return records
}

func (s *MetricsCollectorSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
}

// AsPlainCollector hides the context-aware methods of the spy.
func (s *MetricsCollectorSpy) AsPlainCollector() dibi.MetricsCollector {
	return plainCollector{spy: s}
}

type plainCollector struct {
	spy *MetricsCollectorSpy
}

func (p plainCollector) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	p.spy.RecordDuration(metric, duration, labels)
}

func (p plainCollector) IncrementCounter(metric string, labels map[string]string) {
	p.spy.IncrementCounter(metric, labels)
}

func (p plainCollector) RecordValue(metric string, value float64, labels map[string]string) {
	p.spy.RecordValue(metric, value, labels)
}

func (s *MetricsCollectorSpy) HasDurationRecordForMetric(metric string) *MetricRecordMatcher {
	return s.match(MetricKindDuration, metric)
}

func (s *MetricsCollectorSpy) HasCounterRecordForMetric(metric string) *MetricRecordMatcher {
	return s.match(MetricKindCounter, metric)
}

func (s *MetricsCollectorSpy) HasValueRecordForMetric(metric string) *MetricRecordMatcher {
	return s.match(MetricKindValue, metric)
}

func (s *MetricsCollectorSpy) match(kind MetricKind, metric string) *MetricRecordMatcher {
	return &MetricRecordMatcher{spy: s, kind: kind, metric: metric, labels: map[string]string{}}
}

// MetricRecordMatcher narrows down the records a MetricsCollectorSpy has seen.
type MetricRecordMatcher struct {
	spy        *MetricsCollectorSpy
	kind       MetricKind
	metric     string
	labels     map[string]string
	value      *float64
	viaContext *bool
}

func (m *MetricRecordMatcher) WithOperation(operation string) *MetricRecordMatcher {
	return m.WithLabel("operation", operation)
}

func (m *MetricRecordMatcher) WithStatus(status string) *MetricRecordMatcher {
	return m.WithLabel("status", status)
}

func (m *MetricRecordMatcher) WithErrorType(errorType string) *MetricRecordMatcher {
	return m.WithLabel("error_type", errorType)
}

func (m *MetricRecordMatcher) WithLabel(key, value string) *MetricRecordMatcher {
	m.labels[key] = value
	return m
}

func (m *MetricRecordMatcher) WithValue(value float64) *MetricRecordMatcher {
	m.value = &value
	return m
}

// ViaContext requires the record to have arrived through a context-aware method, or not.
func (m *MetricRecordMatcher) ViaContext(viaContext bool) *MetricRecordMatcher {
	m.viaContext = &viaContext
	return m
}

func (m *MetricRecordMatcher) Assert() bool {
	return m.Count() > 0
}

// Count returns how many records satisfy every condition.
func (m *MetricRecordMatcher) Count() int {
	n := 0
	for _, record := range m.spy.Records() {
		if m.matches(record) {
			n++
		}
	}

	return n
}

func (m *MetricRecordMatcher) matches(record MetricRecord) bool {
	if record.Kind != m.kind || record.Metric != m.metric {
		return false
	}

	if m.value != nil && record.Value != *m.value {
		return false
	}

	if m.viaContext != nil && record.Context != *m.viaContext {
		return false
	}

	for key, value := range m.labels {
		if record.Labels[key] != value {
			return false
		}
	}

	return true
}
