package oteladapters_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/embedded"

	"github.com/orbnauticus/dibi-go/dibi/oteladapters"
)

func Test_SlogBridgeLoggerWithHandler_ShouldWriteEveryLevel(t *testing.T) {
	// arrange
	var buf bytes.Buffer
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(
		slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	// act
	logger.DebugContext(ctx, "executed sql for: insert", "query", "INSERT INTO t DEFAULT VALUES")
	logger.InfoContext(ctx, "dibi operation: insert", "rows_affected", 1)
	logger.WarnContext(ctx, "slow statement")
	logger.ErrorContext(ctx, "dibi operation failed: insert", "error", "no such table")

	// assert
	output := buf.String()
	assert.Contains(t, output, `"level":"DEBUG"`)
	assert.Contains(t, output, `"level":"INFO"`)
	assert.Contains(t, output, `"level":"WARN"`)
	assert.Contains(t, output, `"level":"ERROR"`)
	assert.Contains(t, output, `"query":"INSERT INTO t DEFAULT VALUES"`)
	assert.Contains(t, output, `"rows_affected":1`)
}

func Test_NewSlogBridgeLogger_ShouldNotPanicWithoutProvider(t *testing.T) {
	// arrange
	logger := oteladapters.NewSlogBridgeLogger("dibi-test")

	// act & assert
	assert.NotPanics(t, func() {
		logger.InfoContext(context.Background(), "dibi operation: select")
	})
}

type recordingLogger struct {
	embedded.Logger
	records []log.Record
}

func (l *recordingLogger) Emit(_ context.Context, record log.Record) {
	l.records = append(l.records, record)
}

func (l *recordingLogger) Enabled(context.Context, log.EnabledParameters) bool {
	return true
}

func Test_OTelLogger_ShouldEmitRecordsWithSeverityAndAttributes(t *testing.T) {
	// arrange
	sink := &recordingLogger{}
	logger := oteladapters.NewOTelLogger(sink)

	// act
	logger.ErrorContext(context.Background(), "dibi operation failed: select",
		"backend", "sqlite", "duration_ms", 1.5, "dangling")

	// assert
	require.Len(t, sink.records, 1)
	record := sink.records[0]
	assert.Equal(t, log.SeverityError, record.Severity())
	assert.Equal(t, "dibi operation failed: select", record.Body().AsString())

	attrs := map[string]log.Value{}
	record.WalkAttributes(func(kv log.KeyValue) bool {
		attrs[kv.Key] = kv.Value
		return true
	})
	assert.Len(t, attrs, 2)
	assert.Equal(t, "sqlite", attrs["backend"].AsString())
	assert.InDelta(t, 1.5, attrs["duration_ms"].AsFloat64(), 0.0001)
}
