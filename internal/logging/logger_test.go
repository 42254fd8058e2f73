package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewWritesJSONWithErrKey(t *testing.T) {
	var buf bytes.Buffer
	logger := New("info", &buf)
	logger.Debug("hidden")
	logger.Info("loaded", "error", errors.New("boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "loaded", entry["msg"])
	assert.Equal(t, "boom", entry["err"])
	assert.NotContains(t, entry, "error")
}

func TestNewNopDiscards(t *testing.T) {
	assert.False(t, NewNop().Enabled(context.Background(), slog.LevelDebug))
}

func TestTracerNumbersLines(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTracer(New("debug", &buf))
	tr.Verbose("ci.yml after template evaluation", "steps:\r\n  - import: src\n")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ci.yml after template evaluation", entry["msg"])
	content := entry["content"].(string)
	assert.Contains(t, content, "   1: steps:\n")
	assert.Contains(t, content, "   2:   - import: src\n")
	assert.NotContains(t, content, "   3:")
}

func TestTracerSkipsWhenDebugDisabled(t *testing.T) {
	var buf bytes.Buffer
	NewTracer(New("info", &buf)).Verbose("label", "content")
	assert.Empty(t, buf.String())

	var nilTracer *Tracer
	nilTracer.Verbose("label", "content")
}
