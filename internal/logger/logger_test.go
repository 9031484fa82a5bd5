package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, opts Options) (*DefaultLogger, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	opts.Stdout = &stdout
	opts.Stderr = &stderr
	opts.NoColor = true

	l := NewWithOptions(opts)
	t.Cleanup(func() { _ = l.Close() })
	return l, &stdout, &stderr
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidFormat(t *testing.T) {
	assert.True(t, ValidFormat(""))
	assert.True(t, ValidFormat("text"))
	assert.True(t, ValidFormat("JSON"))
	assert.False(t, ValidFormat("xml"))
}

func TestStreamHandlerWritesToStderr(t *testing.T) {
	l, stdout, stderr := newTestLogger(t, Options{Level: "debug", Handler: HandlerStream})

	l.Debug(" > %s", "get_current_branch")
	l.Info("Committed changes with message: %s", "[T-1] Fix")

	assert.Contains(t, stderr.String(), "get_current_branch")
	assert.Contains(t, stderr.String(), "level=DEBUG")
	assert.Contains(t, stderr.String(), "[T-1] Fix")
	assert.Empty(t, stdout.String())
}

func TestLevelFiltering(t *testing.T) {
	l, _, stderr := newTestLogger(t, Options{Level: "warn"})

	l.Debug("debug message")
	l.Info("info message")
	l.Warning("warning message")

	out := stderr.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warning message")
}

func TestJSONFormat(t *testing.T) {
	l, _, stderr := newTestLogger(t, Options{Level: "info", Format: FormatJSON})

	l.Info("hello %d", 42)

	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(stderr.Bytes()), &record))
	assert.Equal(t, "hello 42", record["msg"])
	assert.Equal(t, "INFO", record["level"])
}

func TestFileHandler(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "nested", "periodic-commit.log")

	l, _, stderr := newTestLogger(t, Options{Level: "info", Handler: HandlerFile, File: logFile})

	l.Info("Test info message")
	l.Warning("Test warning message")
	l.Error("Test error message")
	require.NoError(t, l.Close())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	logContent := string(content)
	assert.Contains(t, logContent, "Test info message")
	assert.Contains(t, logContent, "Test warning message")
	assert.Contains(t, logContent, "Test error message")

	// Errors are echoed to stderr when the structured log is not already there.
	assert.Contains(t, stderr.String(), "❌ Test error message")
}

func TestHandlerAsPath(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "custom.log")

	l, _, _ := newTestLogger(t, Options{Handler: logFile})
	l.Info("written to custom path")
	require.NoError(t, l.Close())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "written to custom path")
}

func TestUnopenableLogFileFallsBackToStderr(t *testing.T) {
	dir := t.TempDir()
	// A directory cannot be opened as a log file.
	l, _, stderr := newTestLogger(t, Options{Handler: HandlerFile, File: dir})

	l.Info("still logged")

	assert.Contains(t, stderr.String(), "Failed to open log file")
	assert.Contains(t, stderr.String(), "still logged")
}

func TestUserMessages(t *testing.T) {
	l, stdout, _ := newTestLogger(t, Options{Level: "error"})

	l.InfoToUser("info %s", "one")
	l.Success("committed %s", "two")
	l.WarningToUser("careful %s", "three")
	l.StatusMessage("status %s", "four")

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "ℹ️  info one", lines[0])
	assert.Equal(t, "✅ committed two", lines[1])
	assert.Equal(t, "⚠️  careful three", lines[2])
	assert.Equal(t, "status four", lines[3])
}

func TestWarningRespectsVerbose(t *testing.T) {
	quiet, quietOut, _ := newTestLogger(t, Options{Verbose: false})
	quiet.Warning("hidden")
	assert.Empty(t, quietOut.String())

	verbose, verboseOut, _ := newTestLogger(t, Options{Verbose: true})
	verbose.Warning("shown")
	assert.Contains(t, verboseOut.String(), "shown")
}

func TestCloseIsIdempotent(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "close.log")
	l, _, _ := newTestLogger(t, Options{Handler: HandlerFile, File: logFile})

	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
}
