package sqlengine

import (
	"github.com/orbnauticus/dibi-go/dibi"
)

// Option defines a functional option for configuring an Engine.
type Option func(*Engine) error

// WithLogger sets the logger for the Engine.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL statements with execution timing (development use)
// Info level: Completed operations with durations and affected rows (production-safe)
// Error level: Failures that cause operations to fail.
func WithLogger(logger dibi.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// WithContextualLogger sets a logger that receives the operation context with every message,
// enabling trace correlation when tracing is enabled.
func WithContextualLogger(logger dibi.ContextualLogger) Option {
	return func(e *Engine) error {
		e.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Engine.
// It receives statement durations, affected row counts and database errors.
func WithMetrics(collector dibi.MetricsCollector) Option {
	return func(e *Engine) error {
		e.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Engine. One span is started per operation.
func WithTracing(collector dibi.TracingCollector) Option {
	return func(e *Engine) error {
		e.tracingCollector = collector
		return nil
	}
}

// WithFeatures declares the optional capabilities of the connection.
func WithFeatures(features ...dibi.Feature) Option {
	return func(e *Engine) error {
		e.features = append(e.features, features...)
		return nil
	}
}

// WithTemporaryTables makes CreateTable create TEMPORARY tables that vanish with the connection.
func WithTemporaryTables() Option {
	return func(e *Engine) error {
		e.temporaryTables = true
		return nil
	}
}

// WithTableSuffix appends suffix to every CREATE TABLE statement, e.g. "ENGINE=InnoDB".
// The suffix is inserted verbatim and must not come from untrusted input.
func WithTableSuffix(suffix string) Option {
	return func(e *Engine) error {
		e.tableSuffix = suffix
		return nil
	}
}
