package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/zara-stock-tracker/pkg/logger"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{name: "debug", input: "debug", want: slog.LevelDebug},
		{name: "info", input: "info", want: slog.LevelInfo},
		{name: "warn", input: "warn", want: slog.LevelWarn},
		{name: "error", input: "error", want: slog.LevelError},
		{name: "empty defaults to info", input: "", want: slog.LevelInfo},
		{name: "unknown defaults to info", input: "verbose", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, logger.ParseLevel(tt.input))
		})
	}
}

func TestNewWithWriter_Formats(t *testing.T) {
	t.Parallel()

	var text bytes.Buffer
	logger.NewWithWriter(&text, "info", "text").Info("stock check")
	assert.Contains(t, text.String(), "level=INFO")
	assert.Contains(t, text.String(), "stock check")

	var js bytes.Buffer
	logger.NewWithWriter(&js, "info", "json").Info("stock check")
	assert.Contains(t, js.String(), `"level":"INFO"`)
	assert.Contains(t, js.String(), `"msg":"stock check"`)
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := logger.NewWithWriter(&buf, "warn", "text")

	l.Info("suppressed")
	assert.Empty(t, buf.String())

	l.Warn("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	l := logger.Discard()
	require.NotNil(t, l)
	l.Error("nobody hears this")
}
