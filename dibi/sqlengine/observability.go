package sqlengine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/orbnauticus/dibi-go/dibi"
)

const (
	metricStatementDuration = "dibi_statement_duration_seconds"
	metricDatabaseErrors    = "dibi_database_errors_total"
	metricRowsAffected      = "dibi_rows_affected"
	spanNamePrefix          = "dibi."
	spanAttrOperation       = "operation"
	spanAttrBackend         = "backend"
	spanAttrTable           = "table"
	spanAttrErrorType       = "error_type"
	spanAttrRowsAffected    = "rows_affected"
	spanAttrDurationMS      = "duration_ms"
	statusSuccess           = "success"
	statusError             = "error"
	errorTypeDatabase       = "database_error"
	logMsgSQLExecuted       = "executed sql for: "
	logMsgOperation         = "dibi operation: "
	logMsgOperationFailed   = "dibi operation failed: "
	logMsgRollbackFailed    = "failed to roll back transaction"
	logAttrError            = "error"
	logAttrQuery            = "query"
	logAttrBackend          = "backend"
	logAttrTable            = "table"
	logAttrDurationMS       = "duration_ms"
	logAttrRowsAffected     = "rows_affected"
)

// logQueryWithDuration logs SQL statements with execution time at debug level.
func (e *Engine) logQueryWithDuration(ctx context.Context, query string, action string, duration time.Duration) {
	if e.logger != nil {
		e.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, toMilliseconds(duration), logAttrQuery, query)
	}

	if e.contextualLogger != nil {
		e.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, logAttrDurationMS, toMilliseconds(duration), logAttrQuery, query)
	}
}

// logOperation logs completed operations at info level.
func (e *Engine) logOperation(ctx context.Context, action string, args ...any) {
	if e.logger != nil {
		e.logger.Info(logMsgOperation+action, args...)
	}

	if e.contextualLogger != nil {
		e.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	}
}

// logError logs failures at error level.
func (e *Engine) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if e.logger != nil {
		e.logger.Error(message, allArgs...)
	}

	if e.contextualLogger != nil {
		e.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

// errorType names the classified kind of err for metrics labels and span attributes.
func errorType(err error) string {
	if name := dibi.KindName(err); name != "" {
		return name
	}

	return errorTypeDatabase
}

// recordDurationMetrics records duration metrics with context if the collector supports it.
func (e *Engine) recordDurationMetrics(ctx context.Context, duration time.Duration, operation, status string) {
	if e.metricsCollector == nil {
		return
	}

	labels := map[string]string{spanAttrOperation: operation, "status": status}

	if contextualCollector, ok := e.metricsCollector.(dibi.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metricStatementDuration, duration, labels)
	} else {
		e.metricsCollector.RecordDuration(metricStatementDuration, duration, labels)
	}
}

// recordRowsAffectedMetrics records the number of affected rows of a write.
func (e *Engine) recordRowsAffectedMetrics(ctx context.Context, rows int64, operation string) {
	if e.metricsCollector == nil {
		return
	}

	labels := map[string]string{spanAttrOperation: operation, "status": statusSuccess}

	if contextualCollector, ok := e.metricsCollector.(dibi.ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ctx, metricRowsAffected, float64(rows), labels)
	} else {
		e.metricsCollector.RecordValue(metricRowsAffected, float64(rows), labels)
	}
}

// recordErrorMetrics counts database errors by operation and error type.
func (e *Engine) recordErrorMetrics(ctx context.Context, operation, errType string) {
	if e.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		"status":          statusError,
		spanAttrErrorType: errType,
	}

	if contextualCollector, ok := e.metricsCollector.(dibi.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metricDatabaseErrors, labels)
	} else {
		e.metricsCollector.IncrementCounter(metricDatabaseErrors, labels)
	}
}

// === Operation Observer Pattern ===
// An observer wraps one engine operation with a span, metrics and logging.

type operationObserver struct {
	e         *Engine
	ctx       context.Context
	span      dibi.SpanContext
	operation string
	table     string
	start     time.Time
}

// startOperation starts observing an operation. The returned context carries the span.
func (e *Engine) startOperation(ctx context.Context, operation, table string) (*operationObserver, context.Context) {
	attrs := map[string]string{
		spanAttrOperation: operation,
		spanAttrBackend:   e.dialect.Name(),
	}
	if table != "" {
		attrs[spanAttrTable] = table
	}

	var span dibi.SpanContext
	if e.tracingCollector != nil {
		ctx, span = e.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, attrs)
	}

	return &operationObserver{
		e:         e,
		ctx:       ctx,
		span:      span,
		operation: operation,
		table:     table,
		start:     time.Now(),
	}, ctx
}

// finishSuccess completes a successful operation. A negative rowsAffected means not applicable.
func (o *operationObserver) finishSuccess(rowsAffected int64) {
	duration := time.Since(o.start)

	o.e.recordDurationMetrics(o.ctx, duration, o.operation, statusSuccess)
	if rowsAffected >= 0 {
		o.e.recordRowsAffectedMetrics(o.ctx, rowsAffected, o.operation)
	}

	attrs := map[string]string{spanAttrDurationMS: formatDuration(duration)}
	if rowsAffected >= 0 {
		attrs[spanAttrRowsAffected] = fmt.Sprintf("%d", rowsAffected)
	}
	o.finishSpan(statusSuccess, attrs)

	args := []any{logAttrBackend, o.e.dialect.Name(), logAttrDurationMS, toMilliseconds(duration)}
	if o.table != "" {
		args = append(args, logAttrTable, o.table)
	}
	if rowsAffected >= 0 {
		args = append(args, logAttrRowsAffected, rowsAffected)
	}
	o.e.logOperation(o.ctx, o.operation, args...)
}

// finishError completes a failed operation and hands err back.
func (o *operationObserver) finishError(err error) error {
	duration := time.Since(o.start)
	errType := errorType(err)

	o.e.recordDurationMetrics(o.ctx, duration, o.operation, statusError)
	o.e.recordErrorMetrics(o.ctx, o.operation, errType)

	o.finishSpan(statusError, map[string]string{
		spanAttrErrorType:  errType,
		spanAttrDurationMS: formatDuration(duration),
	})

	args := []any{logAttrBackend, o.e.dialect.Name()}
	if o.table != "" {
		args = append(args, logAttrTable, o.table)
	}
	o.e.logError(o.ctx, logMsgOperationFailed+o.operation, err, args...)

	return err
}

// finish completes the operation according to err.
func (o *operationObserver) finish(rowsAffected int64, err error) error {
	if err != nil {
		return o.finishError(err)
	}

	o.finishSuccess(rowsAffected)

	return nil
}

func (o *operationObserver) finishSpan(status string, attrs map[string]string) {
	if o.span == nil {
		return
	}

	o.span.SetStatus(status)
	for key, value := range attrs {
		o.span.AddAttribute(key, value)
	}

	o.e.tracingCollector.FinishSpan(o.span, status, attrs)
}

func formatDuration(duration time.Duration) string {
	return fmt.Sprintf("%.2f", toMilliseconds(duration))
}
