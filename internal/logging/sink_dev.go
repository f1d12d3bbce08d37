//go:build dev

package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"
)

const defaultSocket = "/tmp/mcplogd.sock"
const appName = "workgraph"

type entry struct {
	App       string         `json:"app"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Timestamp string         `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func withSink(h slog.Handler, level slog.Level) slog.Handler {
	return fanout{primary: h, sink: &mcplogdHandler{socket: defaultSocket, level: level}}
}

type fanout struct {
	primary slog.Handler
	sink    slog.Handler
}

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	return f.primary.Enabled(ctx, level) || f.sink.Enabled(ctx, level)
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	if f.sink.Enabled(ctx, r.Level) {
		_ = f.sink.Handle(ctx, r.Clone())
	}
	if f.primary.Enabled(ctx, r.Level) {
		return f.primary.Handle(ctx, r)
	}
	return nil
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return fanout{primary: f.primary.WithAttrs(attrs), sink: f.sink.WithAttrs(attrs)}
}

func (f fanout) WithGroup(name string) slog.Handler {
	return fanout{primary: f.primary.WithGroup(name), sink: f.sink.WithGroup(name)}
}

// mcplogdHandler writes one JSON line per record to the mcplogd socket.
// Records are dropped when nothing listens.
type mcplogdHandler struct {
	socket string
	level  slog.Level
	prefix string
	attrs  map[string]any
}

func (h *mcplogdHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *mcplogdHandler) Handle(_ context.Context, r slog.Record) error {
	metadata := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for k, v := range h.attrs {
		metadata[k] = v
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(metadata, h.prefix, a)
		return true
	})

	conn, err := net.DialTimeout("unix", h.socket, 100*time.Millisecond)
	if err != nil {
		return nil
	}
	defer conn.Close()

	e := entry{
		App:       appName,
		Level:     strings.ToLower(r.Level.String()),
		Message:   r.Message,
		Timestamp: r.Time.UTC().Format(time.RFC3339Nano),
		Metadata:  metadata,
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(conn, "%s\n", data)
	return err
}

func (h *mcplogdHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make(map[string]any, len(h.attrs)+len(attrs))
	for k, v := range h.attrs {
		next.attrs[k] = v
	}
	for _, a := range attrs {
		addAttr(next.attrs, h.prefix, a)
	}
	return &next
}

func (h *mcplogdHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func addAttr(dst map[string]any, prefix string, a slog.Attr) {
	value := a.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if a.Key != "" {
			groupPrefix += a.Key + "."
		}
		for _, ga := range value.Group() {
			addAttr(dst, groupPrefix, ga)
		}
		return
	}
	dst[prefix+a.Key] = value.Any()
}
