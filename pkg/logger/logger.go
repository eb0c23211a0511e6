// Package logger builds the slog loggers used across the application.
//
// Console output is one line per record: time, colored level tag, message and
// key=value attributes. Colors are only used when writing to stdout or stderr.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// ParseLevel parses "debug", "info", "warn" or "error".
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// New returns a logger writing console lines to w.
func New(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(NewConsoleHandler(w, level))
}

// NewTerminal returns a logger for a writer that ends up on the terminal, such
// as a readline prompt writer. Colors follow color.NoColor.
func NewTerminal(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(newConsoleHandler(w, level, !color.NoColor))
}

// ConsoleHandler is a slog.Handler producing human readable lines.
type ConsoleHandler struct {
	w      io.Writer
	mu     *sync.Mutex
	level  slog.Leveler
	attrs  string // Preformatted attributes from WithAttrs
	prefix string // Group prefix from WithGroup
	colors map[slog.Level]*color.Color
}

// NewConsoleHandler creates a console handler.
func NewConsoleHandler(w io.Writer, level slog.Leveler) *ConsoleHandler {
	f, ok := w.(*os.File)
	return newConsoleHandler(w, level, ok && (f == os.Stdout || f == os.Stderr))
}

func newConsoleHandler(w io.Writer, level slog.Leveler, colored bool) *ConsoleHandler {
	if level == nil {
		level = slog.LevelInfo
	}

	colors := map[slog.Level]*color.Color{
		slog.LevelDebug: color.New(color.FgCyan),
		slog.LevelInfo:  color.New(color.FgGreen),
		slog.LevelWarn:  color.New(color.FgYellow),
		slog.LevelError: color.New(color.FgRed),
	}
	// Do not emit escape codes into files or buffers
	if !colored {
		for _, c := range colors {
			c.DisableColor()
		}
	}

	return &ConsoleHandler{
		w:      w,
		mu:     &sync.Mutex{},
		level:  level,
		colors: colors,
	}
}

// Enabled reports whether level is logged.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes one record.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	if !r.Time.IsZero() {
		b.WriteString(r.Time.Format("15:04:05.000"))
		b.WriteByte(' ')
	}
	b.WriteString(h.levelTag(r.Level))
	b.WriteByte(' ')
	b.WriteString(r.Message)
	b.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&b, h.prefix, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

// WithAttrs returns a handler that always adds attrs.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		appendAttr(&b, h.prefix, a)
	}

	h2 := *h
	h2.attrs = b.String()
	return &h2
}

// WithGroup returns a handler that qualifies later attribute keys with name.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix = h.prefix + name + "."
	return &h2
}

func (h *ConsoleHandler) levelTag(level slog.Level) string {
	tag := "[" + level.String() + "]"
	c, ok := h.colors[level]
	if !ok {
		return tag
	}
	return c.Sprint(tag)
}

func appendAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			appendAttr(b, p, ga)
		}
		return
	}

	b.WriteByte(' ')
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteByte('=')
	s := a.Value.String()
	if strings.ContainsAny(s, " \t\"=") {
		s = fmt.Sprintf("%q", s)
	}
	b.WriteString(s)
}

// Compile-time interface satisfaction check.
var _ slog.Handler = (*ConsoleHandler)(nil)
