package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test that the defaults match a stock local PostgreSQL setup
func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "testcase_db", cfg.Database.Name)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, "password", cfg.Database.Password)
	assert.Equal(t, 10, cfg.Database.ConnectTimeoutSeconds)

	assert.False(t, cfg.Keyring.Enabled)
	assert.Equal(t, "reqtrace", cfg.Keyring.Service)
	assert.Equal(t, "database-password", cfg.Keyring.User)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Logging.File)

	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `database:
  host: db.internal
  port: 5433
  name: reqtrace
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "reqtrace", cfg.Database.Name)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Unset fields fall back to the defaults
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, 10, cfg.Database.ConnectTimeoutSeconds)
	assert.Equal(t, "reqtrace", cfg.Keyring.Service)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: ["), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

// Test that environment variables win over defaults and file values
func TestApplyEnvironment(t *testing.T) {
	t.Setenv(EnvHost, "pg.example.com")
	t.Setenv(EnvPort, "15432")
	t.Setenv(EnvName, "tracedb")
	t.Setenv(EnvUser, "svc")
	t.Setenv(EnvPassword, "hunter2")

	cfg := Default()
	cfg.ApplyEnvironment()

	assert.Equal(t, "pg.example.com", cfg.Database.Host)
	assert.Equal(t, 15432, cfg.Database.Port)
	assert.Equal(t, "tracedb", cfg.Database.Name)
	assert.Equal(t, "svc", cfg.Database.User)
	assert.Equal(t, "hunter2", cfg.Database.Password)
}

func TestApplyEnvironmentIgnoresBadPort(t *testing.T) {
	t.Setenv(EnvPort, "not-a-number")

	cfg := Default()
	cfg.ApplyEnvironment()
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestValidate(t *testing.T) {
	t.Run("port out of range", func(t *testing.T) {
		cfg := Default()
		cfg.Database.Port = 70000
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.port")
	})

	t.Run("missing database name", func(t *testing.T) {
		cfg := Default()
		cfg.Database.Name = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.name")
	})

	t.Run("missing user", func(t *testing.T) {
		cfg := Default()
		cfg.Database.User = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.user")
	})

	t.Run("unknown log level", func(t *testing.T) {
		cfg := Default()
		cfg.Logging.Level = "verbose"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "logging.level")
	})
}
