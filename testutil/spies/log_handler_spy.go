package spies

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

// LogHandlerSpy is a slog.Handler that records every record it handles.
// Pass it to slog.New and hand the logger to an engine to assert on what was logged.
type LogHandlerSpy struct {
	records      []slog.Record
	mu           sync.Mutex
	mirror       slog.Handler
	minimumLevel slog.Level
}

// NewLogHandlerSpy creates a spy that accepts records from Debug level upwards.
// With logToStdout every record is also written to stdout as text.
func NewLogHandlerSpy(logToStdout bool) *LogHandlerSpy {
	spy := &LogHandlerSpy{minimumLevel: slog.LevelDebug}
	if logToStdout {
		spy.mirror = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}

	return spy
}

// WithMinimumLevel drops records below level.
func (s *LogHandlerSpy) WithMinimumLevel(level slog.Level) *LogHandlerSpy {
	s.minimumLevel = level
	return s
}

func (s *LogHandlerSpy) Enabled(_ context.Context, level slog.Level) bool {
	return level >= s.minimumLevel
}

func (s *LogHandlerSpy) Handle(ctx context.Context, record slog.Record) error {
	s.mu.Lock()
	s.records = append(s.records, record.Clone())
	s.mu.Unlock()

	if s.mirror != nil {
		return s.mirror.Handle(ctx, record)
	}

	return nil
}

// WithAttrs and WithGroup return the spy itself so that derived loggers record into the same spy.
func (s *LogHandlerSpy) WithAttrs(_ []slog.Attr) slog.Handler {
	return s
}

func (s *LogHandlerSpy) WithGroup(_ string) slog.Handler {
	return s
}

func (s *LogHandlerSpy) RecordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

func (s *LogHandlerSpy) Records() []slog.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]slog.Record, len(s.records))
	copy(records, s.records)

	return records
}

func (s *LogHandlerSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
}

// HasLog starts a matcher for records at level whose message equals msg.
func (s *LogHandlerSpy) HasLog(level slog.Level, msg string) *LogRecordMatcher {
	return &LogRecordMatcher{spy: s, level: level, message: msg, attrs: map[string]string{}}
}

func (s *LogHandlerSpy) HasDebugLog(msg string) *LogRecordMatcher {
	return s.HasLog(slog.LevelDebug, msg)
}

func (s *LogHandlerSpy) HasInfoLog(msg string) *LogRecordMatcher {
	return s.HasLog(slog.LevelInfo, msg)
}

func (s *LogHandlerSpy) HasErrorLog(msg string) *LogRecordMatcher {
	return s.HasLog(slog.LevelError, msg)
}

// LogRecordMatcher narrows down the records a LogHandlerSpy has seen.
type LogRecordMatcher struct {
	spy     *LogHandlerSpy
	level   slog.Level
	message string
	keys    []string
	attrs   map[string]string
}

// WithKey requires the record to carry an attribute named key, whatever its value.
func (m *LogRecordMatcher) WithKey(key string) *LogRecordMatcher {
	m.keys = append(m.keys, key)
	return m
}

// WithAttr requires the record to carry key with the given string representation.
func (m *LogRecordMatcher) WithAttr(key, value string) *LogRecordMatcher {
	m.attrs[key] = value
	return m
}

func (m *LogRecordMatcher) WithDurationMS() *LogRecordMatcher {
	return m.WithKey("duration_ms")
}

func (m *LogRecordMatcher) WithQuery() *LogRecordMatcher {
	return m.WithKey("query")
}

// Assert reports whether at least one record satisfies every condition.
func (m *LogRecordMatcher) Assert() bool {
	for _, record := range m.spy.Records() {
		if record.Level == m.level && record.Message == m.message && m.matchesAttrs(record) {
			return true
		}
	}

	return false
}

func (m *LogRecordMatcher) matchesAttrs(record slog.Record) bool {
	found := make(map[string]string, record.NumAttrs())
	record.Attrs(func(attr slog.Attr) bool {
		found[attr.Key] = attr.Value.String()
		return true
	})

	for _, key := range m.keys {
		if _, ok := found[key]; !ok {
			return false
		}
	}

	for key, value := range m.attrs {
		if found[key] != value {
			return false
		}
	}

	return true
}
