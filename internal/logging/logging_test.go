package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "metatable.log")

	logger, err := New(Options{Level: "warn", File: file})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", zap.String("key", "/home"))
	_ = logger.Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), `"msg":"kept"`)
	assert.Contains(t, string(data), `"key":"/home"`)
}

func TestNew_Verbose(t *testing.T) {
	logger, err := New(Options{Level: "error", File: filepath.Join(t.TempDir(), "x.log"), Verbose: true})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNew_NoSinks(t *testing.T) {
	logger, err := New(Options{})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.ErrorLevel))
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(Options{Level: "chatty"})
	assert.ErrorContains(t, err, "invalid log level")
}
