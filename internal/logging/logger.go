// Package logging builds the structured loggers and trace sinks used by the
// loader and the CLI.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// New creates a logger for the given level string writing to w. Terminals
// get a text handler and everything else JSON. Unknown levels mean info.
// The "error" attribute key is normalized to "err".
func New(level string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}
	return slog.New(newHandler(w, isTerminal(w), opts))
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newHandler(w io.Writer, tty bool, opts *slog.HandlerOptions) slog.Handler {
	if tty {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// Tracer records labelled document snapshots at debug level.
type Tracer struct {
	logger *slog.Logger
}

// NewTracer returns a Tracer logging through logger.
func NewTracer(logger *slog.Logger) *Tracer {
	if logger == nil {
		logger = NewNop()
	}
	return &Tracer{logger: logger}
}

// Verbose logs content under label with numbered lines. Nothing is formatted
// unless debug logging is enabled.
func (t *Tracer) Verbose(label, content string) {
	if t == nil || !t.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	t.logger.Debug(label, "content", Numbered(content))
}

// Numbered frames content with a rule and prefixes each line with its
// 1-based number.
func Numbered(content string) string {
	var b strings.Builder
	rule := strings.Repeat("*", 80)
	b.WriteString(rule)
	b.WriteByte('\n')
	content = strings.TrimSuffix(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	for i, line := range strings.Split(content, "\n") {
		fmt.Fprintf(&b, "%4d: %s\n", i+1, line)
	}
	b.WriteString(rule)
	return b.String()
}
