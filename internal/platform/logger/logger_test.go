package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/phrazzld/coursegen/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  slog.Level
		ok    bool
	}{
		{"debug", "debug", slog.LevelDebug, true},
		{"upper case", "INFO", slog.LevelInfo, true},
		{"warn", "warn", slog.LevelWarn, true},
		{"warning alias", "warning", slog.LevelWarn, true},
		{"error", "error", slog.LevelError, true},
		{"fatal maps to error", "fatal", slog.LevelError, true},
		{"padded", "  debug ", slog.LevelDebug, true},
		{"unknown", "verbose", slog.LevelInfo, false},
		{"empty", "", slog.LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := logger.ParseLevel(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("writes json at level", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		l := logger.New(&buf, "warn")

		l.Info("dropped")
		l.Warn("kept", "task_id", "task-1")

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 1)

		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
		assert.Equal(t, "kept", entry["msg"])
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "task-1", entry["task_id"])
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		l := logger.New(&buf, "chatty")

		l.Debug("hidden")
		l.Info("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})
}

func TestFromContextOrDefault(t *testing.T) {
	t.Parallel()

	fallback := slog.New(slog.NewTextHandler(io.Discard, nil))
	custom := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name string
		ctx  context.Context
		want *slog.Logger
	}{
		{"nil context", nil, fallback},
		{"no logger", context.Background(), fallback},
		{"context logger", logger.WithLogger(context.Background(), custom), custom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Same(t, tt.want, logger.FromContextOrDefault(tt.ctx, fallback))
		})
	}
}

func TestWithLogger(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := logger.WithLogger(context.Background(), custom)
	assert.Same(t, custom, logger.FromContext(ctx))

	assert.Panics(t, func() {
		logger.WithLogger(context.Background(), nil)
	})
}
