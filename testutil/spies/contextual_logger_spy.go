package spies

import (
	"context"
	"slices"
	"sync"

	"github.com/orbnauticus/dibi-go/dibi"
)

// ContextualLogRecord is one call a ContextualLoggerSpy received.
type ContextualLogRecord struct {
	Level   string
	Message string
	Args    []any
	Context context.Context
}

// ContextualLoggerSpy records calls to the context-aware logging methods.
type ContextualLoggerSpy struct {
	records []ContextualLogRecord
	mu      sync.Mutex
}

var _ dibi.ContextualLogger = (*ContextualLoggerSpy)(nil)

func NewContextualLoggerSpy() *ContextualLoggerSpy {
	return &ContextualLoggerSpy{}
}

func (s *ContextualLoggerSpy) DebugContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "debug", msg, args)
}

func (s *ContextualLoggerSpy) InfoContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "info", msg, args)
}

func (s *ContextualLoggerSpy) WarnContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "warn", msg, args)
}

func (s *ContextualLoggerSpy) ErrorContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "error", msg, args)
}

func (s *ContextualLoggerSpy) record(ctx context.Context, level, msg string, args []any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, ContextualLogRecord{
		Level:   level,
		Message: msg,
		Args:    slices.Clone(args),
		Context: ctx,
	})
}

// RecordsAt returns the records logged at level ("debug", "info", "warn" or "error").
func (s *ContextualLoggerSpy) RecordsAt(level string) []ContextualLogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []ContextualLogRecord
	for _, record := range s.records {
		if record.Level == level {
			records = append(records, record)
		}
	}

	return records
}

// HasLog reports whether msg was logged at level.
func (s *ContextualLoggerSpy) HasLog(level, msg string) bool {
	for _, record := range s.RecordsAt(level) {
		if record.Message == msg {
			return true
		}
	}

	return false
}

func (s *ContextualLoggerSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
}
