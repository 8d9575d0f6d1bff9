package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
)

const (
	ansiReset     = "\033[0m"
	ansiRed       = "\033[31m"
	ansiGreen     = "\033[32m"
	ansiYellow    = "\033[33m"
	ansiCyan      = "\033[36m"
	ansiGray      = "\033[90m"
	ansiUnderline = "\033[4m"
)

//nolint:gochecknoglobals
var levelColors = map[slog.Level]string{
	slog.LevelDebug: ansiCyan,
	slog.LevelInfo:  ansiGreen,
	slog.LevelWarn:  ansiYellow,
	slog.LevelError: ansiRed,
}

// ConsoleHandler implements slog.Handler with colored, human-readable output
// suitable for development environments. Logger names can be filtered to
// their own minimum levels via LoggerLevels.
type ConsoleHandler struct {
	output       io.Writer
	level        slog.Leveler
	loggerLevels map[string]slog.Level

	attrs  []slog.Attr
	groups []string
}

var _ slog.Handler = (*ConsoleHandler)(nil)

// NewConsoleHandler creates a ConsoleHandler writing to output with the given
// minimum level and optional per-logger level overrides.
func NewConsoleHandler(output io.Writer, level slog.Leveler, loggerLevels map[string]slog.Level) *ConsoleHandler {
	return &ConsoleHandler{
		output:       output,
		level:        level,
		loggerLevels: loggerLevels,
	}
}

// Handle implements slog.Handler by formatting the record with colors,
// a timestamp, and the caller position.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	var attrs []slog.Attr

	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)

		return true
	})

	attrs = append(attrs, h.attrs...)

	if !h.loggerEnabled(loggerName(attrs), r.Level) {
		return nil
	}

	line := ansiGray + r.Time.Format("15:04:05.000") + ansiReset
	line += " " + levelColors[r.Level] + "[" + r.Level.String() + "]" + ansiReset
	line += " " + r.Message

	var prefix string
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}

	if len(attrs) > 0 {
		line += " " + ansiGray + "|" + ansiReset + h.renderAttrs(prefix, attrs)
	}

	if frames := runtime.CallersFrames([]uintptr{r.PC}); frames != nil {
		frame, _ := frames.Next()
		if frame.File != "" {
			line += "\n-> " + ansiGray + ansiUnderline +
				frame.File + ":" + strconv.Itoa(frame.Line) + ansiReset
		}
	}

	_, err := fmt.Fprintln(h.output, line)

	return err
}

// loggerEnabled resolves the effective level for a logger name, walking the
// dotted name from most to least specific ("svc.apiclient" before "svc").
func (h *ConsoleHandler) loggerEnabled(name string, level slog.Level) bool {
	parts := strings.Split(name, ".")

	for i := len(parts); i >= 0; i-- {
		minLevel, ok := h.loggerLevels[strings.Join(parts[:i], ".")]
		if !ok {
			continue
		}

		return level >= minLevel
	}

	return true
}

func loggerName(attrs []slog.Attr) string {
	for _, attr := range attrs {
		if attr.Key == "logger" {
			return attr.Value.String()
		}
	}

	return ""
}

func (h *ConsoleHandler) renderAttrs(prefix string, attrs []slog.Attr) (out string) {
	for _, attr := range attrs {
		if attr.Value.Kind() == slog.KindGroup {
			out += h.renderAttrs(prefix+attr.Key+".", attr.Value.Group())

			continue
		}

		out += " " + prefix + attr.Key + "=" + ansiGray + attr.Value.String() + ansiReset
	}

	return
}

// WithAttrs implements slog.Handler.WithAttrs.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) Handler {
	return &ConsoleHandler{
		output:       h.output,
		level:        h.level,
		loggerLevels: h.loggerLevels,
		attrs:        append(h.attrs, attrs...),
		groups:       h.groups,
	}
}

// WithGroup implements slog.Handler.WithGroup.
func (h *ConsoleHandler) WithGroup(name string) Handler {
	return &ConsoleHandler{
		output:       h.output,
		level:        h.level,
		loggerLevels: h.loggerLevels,
		attrs:        h.attrs,
		groups:       append(h.groups, name),
	}
}

// Enabled implements slog.Handler.Enabled.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.level.Level() <= level
}
