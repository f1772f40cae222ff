package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/pyexercise/internal/config"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"WARNING", slog.LevelWarn},
		{"warn", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{" critical ", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("LOUD")
	require.Error(t, err)
}

func TestNew_TextFiltersByLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger, closer, err := New(config.LoggingConfig{Level: "WARNING"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("shown", slog.String("target", "double"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "target=double")
}

func TestNew_JSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger, closer, err := New(config.LoggingConfig{Level: "DEBUG", Format: "json"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	logger.Debug("parsed", slog.Int("symbols", 3))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "parsed", rec["msg"])
	assert.Equal(t, "DEBUG", rec["level"])
	assert.EqualValues(t, 3, rec["symbols"])
}

func TestNew_TeesToFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "run.log")
	var buf bytes.Buffer
	logger, closer, err := New(config.LoggingConfig{Level: "INFO", File: path}, &buf)
	require.NoError(t, err)

	logger.Info("written twice")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written twice")
	assert.Contains(t, buf.String(), "written twice")
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()
	_, _, err := New(config.LoggingConfig{Level: "nope"}, &bytes.Buffer{})
	require.Error(t, err)

	_, _, err = New(config.LoggingConfig{Format: "xml"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")

	_, _, err = New(config.LoggingConfig{File: filepath.Join(t.TempDir(), "missing", "dir", "x.log")}, &bytes.Buffer{})
	require.Error(t, err)
}
