package util

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level string, format LogFormat) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := &Logger{
		level:  ParseLogLevel(level),
		fields: map[string]interface{}{},
	}
	logger.AddOutput(NewConsoleOutput(buf, format))
	return logger, buf
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"nonsense", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLogLevel(tt.input))
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger("warn", FormatText)

	logger.Debug("hidden debug")
	logger.Info("hidden info")
	logger.Warn("visible warn")
	logger.Errorf("visible %s", "error")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] visible warn")
	assert.Contains(t, out, "[ERROR] visible error")
}

func TestLogger_TextFieldsAreSorted(t *testing.T) {
	logger, buf := newBufferLogger("info", FormatText)

	logger.Info("poll", String("team", "sales"), Int("seq", 3), Err(errors.New("boom")))

	line := strings.TrimSpace(buf.String())
	assert.True(t, strings.HasSuffix(line, "poll error=boom seq=3 team=sales"), line)
}

func TestLogger_JSONFormat(t *testing.T) {
	logger, buf := newBufferLogger("info", FormatJSON)

	logger.With(String("component", "history")).Info("snapshot loaded", Int("count", 4))

	var entry LogEntry
	require.NoError(t, sonic.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "snapshot loaded", entry.Message)
	assert.Equal(t, "history", entry.Fields["component"])
	assert.EqualValues(t, 4, entry.Fields["count"])
}

func TestLogger_WithContext(t *testing.T) {
	logger, buf := newBufferLogger("debug", FormatText)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, TeamKey, "demo")
	logger.WithContext(ctx).Debug("request sent")

	out := buf.String()
	assert.Contains(t, out, "request_id=req-1")
	assert.Contains(t, out, "team=demo")
}

func TestNewLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	logger, err := NewLogger("info", path, false, FormatText)
	require.NoError(t, err)
	logger.Info("written to file")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestLogCtx_WithoutGlobalLogger(t *testing.T) {
	SetLogger(nil)

	assert.NotPanics(t, func() {
		LogCtx(context.Background()).Info("dropped")
		LogInfo("dropped")
	})
}

func TestTruncateAndPad(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab…", Truncate("abcdef", 3))
	assert.Equal(t, "", Truncate("abc", 0))
	assert.Equal(t, "ab   ", PadRight("ab", 5))
	assert.Equal(t, 4, GetDisplayWidth("日本"))
}
