package spies

import (
	"context"
	"maps"
	"sync"

	"github.com/orbnauticus/dibi-go/dibi"
)

// SpySpan is the span handed out by TracingCollectorSpy.
type SpySpan struct {
	name       string
	status     string
	attributes map[string]string
	mu         sync.Mutex
}

var _ dibi.SpanContext = (*SpySpan)(nil)

func (s *SpySpan) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

func (s *SpySpan) AddAttribute(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attributes[key] = value
}

func (s *SpySpan) Name() string {
	return s.name
}

func (s *SpySpan) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *SpySpan) Attributes() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.attributes)
}

// SpanRecord is a finished span.
type SpanRecord struct {
	Name            string
	Status          string
	StartAttributes map[string]string
	EndAttributes   map[string]string
	Span            *SpySpan
}

// TracingCollectorSpy records the spans an engine starts and finishes.
type TracingCollectorSpy struct {
	started     map[*SpySpan]map[string]string
	records     []SpanRecord
	mu          sync.Mutex
	recordCalls bool
}

var _ dibi.TracingCollector = (*TracingCollectorSpy)(nil)

func NewTracingCollectorSpy(recordCalls bool) *TracingCollectorSpy {
	return &TracingCollectorSpy{started: map[*SpySpan]map[string]string{}, recordCalls: recordCalls}
}

func (s *TracingCollectorSpy) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, dibi.SpanContext) {
	span := &SpySpan{name: name, attributes: maps.Clone(attrs)}
	if span.attributes == nil {
		span.attributes = map[string]string{}
	}

	if s.recordCalls {
		s.mu.Lock()
		s.started[span] = maps.Clone(attrs)
		s.mu.Unlock()
	}

	return ctx, span
}

func (s *TracingCollectorSpy) FinishSpan(spanCtx dibi.SpanContext, status string, attrs map[string]string) {
	if !s.recordCalls {
		return
	}

	span, ok := spanCtx.(*SpySpan)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, SpanRecord{
		Name:            span.name,
		Status:          status,
		StartAttributes: s.started[span],
		EndAttributes:   maps.Clone(attrs),
		Span:            span,
	})
	delete(s.started, span)
}

func (s *TracingCollectorSpy) Records() []SpanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]SpanRecord, len(s.records))
	copy(records, s.records)

	return records
}

// OpenSpanCount returns how many started spans were never finished.
func (s *TracingCollectorSpy) OpenSpanCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.started)
}

func (s *TracingCollectorSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.started = map[*SpySpan]map[string]string{}
}

func (s *TracingCollectorSpy) HasSpanRecordForName(name string) *SpanRecordMatcher {
	return &SpanRecordMatcher{spy: s, name: name, start: map[string]string{}, end: map[string]string{}}
}

// SpanRecordMatcher narrows down the spans a TracingCollectorSpy has seen.
type SpanRecordMatcher struct {
	spy    *TracingCollectorSpy
	name   string
	status string
	start  map[string]string
	end    map[string]string
	keys   []string
}

func (m *SpanRecordMatcher) WithStatus(status string) *SpanRecordMatcher {
	m.status = status
	return m
}

func (m *SpanRecordMatcher) WithStartAttribute(key, value string) *SpanRecordMatcher {
	m.start[key] = value
	return m
}

func (m *SpanRecordMatcher) WithEndAttribute(key, value string) *SpanRecordMatcher {
	m.end[key] = value
	return m
}

// WithEndAttributeKey requires the finished span to carry key, whatever its value.
func (m *SpanRecordMatcher) WithEndAttributeKey(key string) *SpanRecordMatcher {
	m.keys = append(m.keys, key)
	return m
}

func (m *SpanRecordMatcher) Assert() bool {
	for _, record := range m.spy.Records() {
		if m.matches(record) {
			return true
		}
	}

	return false
}

func (m *SpanRecordMatcher) matches(record SpanRecord) bool {
	if record.Name != m.name {
		return false
	}

	if m.status != "" && record.Status != m.status {
		return false
	}

	for key, value := range m.start {
		if record.StartAttributes[key] != value {
			return false
		}
	}

	for key, value := range m.end {
		if record.EndAttributes[key] != value {
			return false
		}
	}

	for _, key := range m.keys {
		if _, ok := record.EndAttributes[key]; !ok {
			return false
		}
	}

	return true
}
