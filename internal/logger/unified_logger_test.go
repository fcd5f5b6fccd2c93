package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", DEBUG.String())
	assert.Equal(t, "INFO", INFO.String())
	assert.Equal(t, "WARN", WARN.String())
	assert.Equal(t, "ERROR", ERROR.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestFileOutputAndLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dbinit.log")
	log := NewUnifiedLogger("dbinit", "test", path, "warn")

	log.Info("connection established")
	log.Warn("retrying connection")
	log.Errorf("rebuild failed after %d statements", 7)
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	// Messages below the configured level are dropped entirely
	assert.NotContains(t, out, "connection established")

	assert.Contains(t, out, "[dbinit]")
	assert.Contains(t, out, "[WARN] retrying connection")
	assert.Contains(t, out, "[ERROR] rebuild failed after 7 statements")

	// The file copy carries no ANSI escape sequences
	assert.NotContains(t, out, "\033[")
}

func TestUnknownLevelDefaultsToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dbinit.log")
	log := NewUnifiedLogger("dbinit", "test", path, "verbose")

	log.Debug("dropping table usage")
	log.Info("created table tenants")
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.NotContains(t, out, "DEBUG")
	assert.Contains(t, out, "[INFO] created table tenants")
}

func TestLogFileDirectoryIsCreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "nested", "dbinit.log")
	log := NewUnifiedLogger("dbinit", "test", path, "info")

	log.Error("boom")
	require.NoError(t, log.Close())

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestCloseWithoutFile(t *testing.T) {
	log := NewUnifiedLogger("dbinit", "test", "", "info")
	assert.NoError(t, log.Close())
}

func TestImplementsLoggerInterfaces(t *testing.T) {
	log := NewUnifiedLogger("dbinit", "test", "", "error")
	assert.Implements(t, (*LoggerInterface)(nil), log)
	assert.Implements(t, (*UnifiedLoggerInterface)(nil), log)
}
