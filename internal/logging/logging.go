// Package logging sets up the structured logger of the command line tools.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Logger is the process-wide logger. It discards everything until Setup is called.
var Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Setup installs a text or JSON handler writing to w, stderr when w is nil.
// Verbose lowers the level from Info to Debug.
func Setup(verbose bool, jsonOutput bool, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if w == nil {
		w = os.Stderr
	}

	if jsonOutput {
		Logger = slog.New(slog.NewJSONHandler(w, opts))
	} else {
		Logger = slog.New(slog.NewTextHandler(w, opts))
	}

	return Logger
}
