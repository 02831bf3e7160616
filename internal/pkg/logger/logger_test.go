package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, &LogConfig{
		Level:       "info",
		Format:      "json",
		ServiceName: "boxwise-api",
		Environment: "test",
	})

	l.Debug("hidden")
	l.Info("item created", slog.String("item_id", "abc"))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "item created", lines[0]["msg"])
	assert.Equal(t, "INFO", lines[0]["severity"])
	assert.Equal(t, "boxwise-api", lines[0]["service"])
	assert.Equal(t, "test", lines[0]["env"])
	assert.Equal(t, "abc", lines[0]["item_id"])
}

func TestContextHandler_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, &LogConfig{Level: "debug", Format: "json"})

	ctx := WithRequestID(context.Background(), "req-123")
	l.InfoContext(ctx, "handled")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "req-123", lines[0]["request_id"])
	assert.Equal(t, "req-123", RequestIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestSanitizationHandler(t *testing.T) {
	tests := []struct {
		name     string
		log      func(l *Logger)
		key      string
		expected string
	}{
		{
			name:     "blacklisted_key",
			log:      func(l *Logger) { l.Info("login", slog.String("password", "hunter2")) },
			key:      "password",
			expected: "***REDACTED***",
		},
		{
			name:     "email_in_value",
			log:      func(l *Logger) { l.Info("contact", slog.String("note", "mail bob@example.com")) },
			key:      "note",
			expected: "mail ***REDACTED***",
		},
		{
			name:     "secret_in_with_attrs",
			log:      func(l *Logger) { l.With(slog.String("api_key", "k-1")).Info("call") },
			key:      "api_key",
			expected: "***REDACTED***",
		},
		{
			name:     "plain_value_untouched",
			log:      func(l *Logger) { l.Info("item", slog.String("name", "Drill")) },
			key:      "name",
			expected: "Drill",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewWithWriter(&buf, &LogConfig{Level: "info", Format: "json"})

			tt.log(l)

			lines := decodeLines(t, &buf)
			require.Len(t, lines, 1)
			assert.Equal(t, tt.expected, lines[0][tt.key])
		})
	}
}

func TestPrettyTextHandler(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	l := slog.New(h).With(slog.String("component", "search")).WithGroup("query")

	l.Debug("dropped")
	l.Info("searching", slog.String("text", "drill"))

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "searching")
	assert.Contains(t, out, "component=search")
	assert.Contains(t, out, "query.text=drill")
	assert.NotContains(t, out, "dropped")
}

func TestSamplingHandler_AlwaysKeepsWarnings(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	l := slog.New(NewSamplingHandler(base, 0))

	for range 10 {
		l.Info("sampled out")
	}
	l.Warn("kept")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "kept", lines[0]["msg"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input).Level())
		})
	}
}
