package utils

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("json output", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LoggerOptions{Level: "info", Format: "json", Output: &buf})

		logger.Info().Str("stage", "fetching").Msg("working")

		var event map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
		assert.Equal(t, "working", event["message"])
		assert.Equal(t, "fetching", event["stage"])
		assert.NotEmpty(t, event["time"])
	})

	t.Run("pretty output", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LoggerOptions{Level: "info", Format: "pretty", Output: &buf})

		logger.Info().Msg("hello")
		assert.Contains(t, buf.String(), "hello")
	})

	t.Run("level filters lower events", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LoggerOptions{Level: "warn", Format: "json", Output: &buf})

		logger.Info().Msg("dropped")
		logger.Warn().Msg("kept")

		assert.NotContains(t, buf.String(), "dropped")
		assert.Contains(t, buf.String(), "kept")
	})

	t.Run("verbose overrides level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LoggerOptions{Level: "error", Format: "json", Output: &buf, Verbose: true})

		logger.Debug().Msg("debug event")
		assert.Contains(t, buf.String(), "debug event")
	})

	t.Run("default logger", func(t *testing.T) {
		assert.NotNil(t, NewDefaultLogger())
	})
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"WARN", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run("level "+tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestLoggerWithComponent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(LoggerOptions{Level: "info", Format: "json", Output: &buf})

	logger.WithComponent("classifier").Info().Msg("probing")

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "classifier", event["component"])
}

func TestLoggerWithURL(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(LoggerOptions{Level: "info", Format: "json", Output: &buf})

	logger.WithURL("https://example.com/docs").Info().Msg("ingesting")

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "https://example.com/docs", event["url"])
}

func TestLoggerChaining(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(LoggerOptions{Level: "info", Format: "json", Output: &buf})

	logger.WithComponent("pipeline").WithURL("https://example.com").Info().Msg("event")

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "pipeline", event["component"])
	assert.Equal(t, "https://example.com", event["url"])
}
