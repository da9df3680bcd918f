package logger_test

import (
	"os"
	"testing"

	"malti-dashboard/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_WritesECSJSON(t *testing.T) {
	tempFile, err := os.CreateTemp(t.TempDir(), "logger-")
	require.NoError(t, err)
	defer tempFile.Close()

	l, err := logger.New(logger.WithOutputPaths(tempFile.Name()))
	require.NoError(t, err)

	l.Info("dashboard built", zap.Int("buckets", 60))
	l.Debug("hidden")
	require.NoError(t, l.Sync())

	contents, err := os.ReadFile(tempFile.Name())
	require.NoError(t, err)

	assert.Contains(t, string(contents), `"message":"dashboard built"`)
	assert.Contains(t, string(contents), `"buckets":60`)
	assert.Contains(t, string(contents), `"ecs.version"`)
	assert.NotContains(t, string(contents), "hidden")
}

func TestNew_WithLevel(t *testing.T) {
	tempFile, err := os.CreateTemp(t.TempDir(), "logger-")
	require.NoError(t, err)
	defer tempFile.Close()

	l, err := logger.New(logger.WithOutputPaths(tempFile.Name()), logger.WithLevel(zapcore.DebugLevel))
	require.NoError(t, err)

	l.Debug("visible")
	require.NoError(t, l.Sync())

	contents, err := os.ReadFile(tempFile.Name())
	require.NoError(t, err)
	assert.Contains(t, string(contents), "visible")
}

func TestParseLogLevel(t *testing.T) {
	testCases := []struct {
		level    string
		expected zapcore.Level
		hasErr   bool
	}{
		{level: "trace", expected: zapcore.DebugLevel},
		{level: "DEBUG", expected: zapcore.DebugLevel},
		{level: "", expected: zapcore.InfoLevel},
		{level: "info", expected: zapcore.InfoLevel},
		{level: "warning", expected: zapcore.WarnLevel},
		{level: "error", expected: zapcore.ErrorLevel},
		{level: "critical", expected: zapcore.FatalLevel},
		{level: "off", expected: zapcore.FatalLevel + 1},
		{level: "verbose", expected: zapcore.InfoLevel, hasErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			level, err := logger.ParseLogLevel(tc.level)
			if tc.hasErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.expected, level)
		})
	}
}
