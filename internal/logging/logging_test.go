package logging_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/go-task-export/internal/logging"
)

func TestNew_WritesDayKeyedBracketLines(t *testing.T) {
	dir := t.TempDir()
	logger, closeLogs, err := logging.New(dir, "info", "taskexport")
	require.NoError(t, err)

	logger.Info("export committed", slog.Int("count", 3), slog.String("version", "v2026.08.24.1030"))
	logger.Warn("retention cleanup failed, continuing")
	require.NoError(t, closeLogs())

	raw, err := os.ReadFile(filepath.Join(dir, logging.FileName(time.Now())))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 2)

	assert.Regexp(t, `^\[\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z\] \[INFO\] export committed`, lines[0])
	assert.Contains(t, lines[0], "service=taskexport")
	assert.Contains(t, lines[0], "count=3")
	assert.Contains(t, lines[0], "version=v2026.08.24.1030")
	assert.Regexp(t, `\[WARN\] retention cleanup failed`, lines[1])
}

func TestNew_AppendsAcrossLoggerLifetimes(t *testing.T) {
	dir := t.TempDir()

	for i := 0; i < 2; i++ {
		logger, closeLogs, err := logging.New(dir, "info", "taskexport")
		require.NoError(t, err)
		logger.Info("run finished")
		require.NoError(t, closeLogs())
	}

	raw, err := os.ReadFile(filepath.Join(dir, logging.FileName(time.Now())))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(raw), "run finished"),
		"the day file is append-only across process lifetimes")
}

func TestNew_RespectsLevel(t *testing.T) {
	dir := t.TempDir()
	logger, closeLogs, err := logging.New(dir, "warn", "taskexport")
	require.NoError(t, err)

	logger.Info("too quiet to record")
	logger.Error("loud enough")
	require.NoError(t, closeLogs())

	raw, err := os.ReadFile(filepath.Join(dir, logging.FileName(time.Now())))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "too quiet")
	assert.Contains(t, string(raw), "loud enough")
}

func TestFileName(t *testing.T) {
	at := time.Date(2026, 8, 24, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "export-2026-08-24.log", logging.FileName(at))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, logging.ParseLevel(tt.in), "ParseLevel(%q)", tt.in)
	}
}
