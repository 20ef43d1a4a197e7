package app

import (
	"io"
	"log/slog"
)

// newLogger builds the application's own logger instance, leaving the
// process-wide default untouched. The level arrives already typed: the CLI
// boundary validates and translates the user's level string.
func newLogger(level slog.Level, format string, outW io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}
