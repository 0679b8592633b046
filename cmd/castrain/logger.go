package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// CastrainHandler is a human-friendly log handler for the cohort generator.
type CastrainHandler struct {
	mu     sync.Mutex
	out    io.Writer
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

// NewCastrainHandler creates a new human-friendly log handler.
func NewCastrainHandler(out io.Writer, level slog.Level) *CastrainHandler {
	return &CastrainHandler{
		out:   out,
		level: level,
	}
}

func (h *CastrainHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *CastrainHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	buf.WriteString(r.Time.Format("15:04:05"))
	buf.WriteString(" ")

	buf.WriteString(glyph(r.Level, r.Message))
	buf.WriteString(" ")

	buf.WriteString(r.Message)

	var attrs []string
	for _, a := range h.attrs {
		if s := formatAttr(a); s != "" {
			attrs = append(attrs, s)
		}
	}
	r.Attrs(func(a slog.Attr) bool {
		if s := formatAttr(a); s != "" {
			attrs = append(attrs, s)
		}
		return true
	})

	if len(attrs) > 0 {
		buf.WriteString(" (")
		buf.WriteString(strings.Join(attrs, ", "))
		buf.WriteString(")")
	}

	buf.WriteString("\n")

	_, err := h.out.Write([]byte(buf.String()))
	return err
}

func (h *CastrainHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := &CastrainHandler{
		out:    h.out,
		level:  h.level,
		attrs:  make([]slog.Attr, len(h.attrs)+len(attrs)),
		groups: h.groups,
	}
	copy(h2.attrs, h.attrs)
	copy(h2.attrs[len(h.attrs):], attrs)
	return h2
}

func (h *CastrainHandler) WithGroup(name string) slog.Handler {
	return &CastrainHandler{
		out:    h.out,
		level:  h.level,
		attrs:  h.attrs,
		groups: append(h.groups, name),
	}
}

func glyph(level slog.Level, msg string) string {
	if level == slog.LevelError {
		return "[err]"
	}
	if level == slog.LevelWarn {
		return "[warn]"
	}

	msgLower := strings.ToLower(msg)

	switch {
	case strings.Contains(msgLower, "completed"):
		return "[done]"
	case strings.Contains(msgLower, "loaded"), strings.Contains(msgLower, "parsed"):
		return "[load]"
	case strings.Contains(msgLower, "generating"), strings.Contains(msgLower, "started"):
		return "[gen]"
	case strings.Contains(msgLower, "cancel"), strings.Contains(msgLower, "interrupt"):
		return "[stop]"
	case strings.Contains(msgLower, "triage"), strings.Contains(msgLower, "casualty"), strings.Contains(msgLower, "patient"):
		return "[tri]"
	case strings.Contains(msgLower, "sink"), strings.Contains(msgLower, "wrote"), strings.Contains(msgLower, "flush"):
		return "[out]"
	case strings.Contains(msgLower, "validation"):
		return "[cfg]"
	default:
		if level == slog.LevelDebug {
			return "[dbg]"
		}
		return "[info]"
	}
}

func formatAttr(a slog.Attr) string {
	key := a.Key
	val := a.Value

	if val.Kind() == slog.KindString && val.String() == "" {
		return ""
	}

	switch val.Kind() {
	case slog.KindDuration:
		d := val.Duration()
		if d < time.Second {
			return fmt.Sprintf("%s=%dms", key, d.Milliseconds())
		}
		return fmt.Sprintf("%s=%s", key, d.Round(time.Millisecond))
	case slog.KindTime:
		return fmt.Sprintf("%s=%s", key, val.Time().Format("15:04:05"))
	case slog.KindInt64:
		return fmt.Sprintf("%s=%d", key, val.Int64())
	case slog.KindString:
		s := val.String()
		if !strings.Contains(s, " ") && !strings.Contains(s, ",") {
			return fmt.Sprintf("%s=%s", key, s)
		}
		return fmt.Sprintf("%s=%q", key, s)
	default:
		return fmt.Sprintf("%s=%v", key, val.Any())
	}
}
