// Package logging builds the structured loggers used across workgraph.
package logging

import (
	"io"
	"log/slog"
)

// New returns a text logger writing records at or above level to w.
// Development builds additionally forward every record to the local mcplogd
// socket.
func New(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(withSink(handler, level))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OrDiscard returns logger, or a discarding logger when it is nil.
func OrDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return Discard()
	}
	return logger
}
