package applog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// WebviewEvent is the event name log records are emitted under.
const WebviewEvent = "log://log"

// Emitter sends an event to the front end.
type Emitter func(ctx context.Context, event string, data ...interface{})

// WebviewRecord is the payload the front end receives for each record.
type WebviewRecord struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// webviewSink holds the Wails context shared by every webviewHandler derived
// from the same logger. Records logged before Attach are dropped.
type webviewSink struct {
	emit Emitter

	mu  sync.RWMutex
	ctx context.Context
}

func newWebviewSink(emit Emitter) *webviewSink {
	if emit == nil {
		emit = wailsRuntime.EventsEmit
	}
	return &webviewSink{emit: emit}
}

func (s *webviewSink) attach(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
}

func (s *webviewSink) send(rec WebviewRecord) {
	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()
	if ctx == nil {
		return
	}
	s.emit(ctx, WebviewEvent, rec)
}

// webviewHandler is a slog.Handler that forwards records to the webview as
// "message key=value ..." lines.
type webviewHandler struct {
	sink   *webviewSink
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string // group prefix, "a.b."
}

func (h *webviewHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *webviewHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.prefix, a)
		return true
	})
	h.sink.send(WebviewRecord{Level: LevelName(r.Level), Message: b.String()})
	return nil
}

func (h *webviewHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		// The run id only matters in files shared between instances
		if h.prefix == "" && a.Key == "run" {
			continue
		}
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		next.attrs = append(next.attrs, a)
	}
	return &next
}

func (h *webviewHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			writeAttr(b, p, ga)
		}
		return
	}
	fmt.Fprintf(b, " %s%s=%v", prefix, a.Key, a.Value.Any())
}
