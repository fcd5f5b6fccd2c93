package initialize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqtrace/reqtrace/internal/config"
	"github.com/reqtrace/reqtrace/internal/logger"
)

func newTestLogger() logger.LoggerInterface {
	return logger.NewUnifiedLogger("dbinit-test", "test", "", "error")
}

func TestNewWithVersion(t *testing.T) {
	cfg := config.Default()
	init := NewWithVersion(newTestLogger(), cfg, "1.2.3")

	assert.Equal(t, "1.2.3", init.version)
	assert.Equal(t, os.Stdin, init.reader)

	// Keyring access is opt-in
	assert.Nil(t, init.credentials)

	cfg.Keyring.Enabled = true
	init = NewWithVersion(newTestLogger(), cfg, "1.2.3")
	assert.NotNil(t, init.credentials)
}

func TestNewDefaultsVersion(t *testing.T) {
	init := New(newTestLogger(), config.Default())
	assert.Equal(t, "unknown", init.version)
}

func TestCredentialsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Database.User = "svc"
	cfg.Database.Password = "hunter2"
	cfg.Database.Host = "pg.internal"
	cfg.Database.Port = 5433
	cfg.Database.Name = "tracedb"

	init := New(newTestLogger(), cfg)
	creds := init.credentialsFromConfig()

	assert.Equal(t, "svc", creds.User)
	assert.Equal(t, "hunter2", creds.Password)
	assert.Equal(t, "pg.internal", creds.Host)
	assert.Equal(t, 5433, creds.Port)
	assert.Equal(t, "tracedb", creds.Database)
}

// Test prompt helpers with a scripted reader
func TestPromptYesNo(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"yes\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"no\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		init := New(newTestLogger(), config.Default())
		init.reader = strings.NewReader(tt.input)
		assert.Equal(t, tt.want, init.promptYesNo("Store the database password in the system keyring?"), "input %q", tt.input)
	}
}

func TestReadInputTrimsWhitespace(t *testing.T) {
	init := New(newTestLogger(), config.Default())
	init.reader = strings.NewReader("  testcase_db  \n")
	assert.Equal(t, "testcase_db", init.readInput())
}

func TestReadPasswordFallsBackForNonTerminalReaders(t *testing.T) {
	init := New(newTestLogger(), config.Default())
	init.reader = strings.NewReader("secret\n")

	password, err := init.readPassword()
	require.NoError(t, err)
	assert.Equal(t, "secret", password)
}

func TestStatementError(t *testing.T) {
	inner := errors.New("relation already exists")
	err := &StatementError{Object: "tenants", SQL: createTenantsTable, Err: inner}

	assert.Contains(t, err.Error(), "tenants")
	assert.ErrorIs(t, err, inner)

	// Callers unwrap through fmt.Errorf wrapping
	var stmtErr *StatementError
	wrapped := fmt.Errorf("schema rebuild failed: %w", err)
	require.ErrorAs(t, wrapped, &stmtErr)
	assert.Equal(t, createTenantsTable, stmtErr.SQL)
}

func TestHeadlessConnectivityErrorNamesEnvVars(t *testing.T) {
	cfg := config.Default()
	cfg.Database.ConnectTimeoutSeconds = 1
	init := New(newTestLogger(), cfg)

	// Nothing listens on port 1, so the probe fails immediately
	creds := &DatabaseCredentials{User: "nobody", Password: "none", Host: "127.0.0.1", Port: 1, Database: "none"}
	_, err := init.checkDatabaseConnectivityHeadless(context.Background(), creds)
	require.Error(t, err)

	for _, envVar := range []string{config.EnvUser, config.EnvPassword, config.EnvHost, config.EnvPort, config.EnvName} {
		assert.Contains(t, err.Error(), envVar)
	}
}

// integrationConfig builds a config from REQTRACE_TEST_DATABASE_URL, or
// skips the test when the variable is unset.
func integrationConfig(t *testing.T) *config.Config {
	t.Helper()

	url := os.Getenv("REQTRACE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("REQTRACE_TEST_DATABASE_URL not set")
	}

	connConfig, err := pgx.ParseConfig(url)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Database.Host = connConfig.Host
	cfg.Database.Port = int(connConfig.Port)
	cfg.Database.Name = connConfig.Database
	cfg.Database.User = connConfig.User
	cfg.Database.Password = connConfig.Password
	return cfg
}

func TestRunRebuildsDatabase(t *testing.T) {
	cfg := integrationConfig(t)
	init := NewWithVersion(newTestLogger(), cfg, "test")
	ctx := context.Background()

	// Rebuilding twice must converge to the same state
	require.NoError(t, init.Run(ctx, Options{NoPrompt: true}))
	require.NoError(t, init.Run(ctx, Options{NoPrompt: true}))

	conn, err := init.connect(ctx, init.credentialsFromConfig())
	require.NoError(t, err)
	defer conn.Close(ctx)

	var tenants, plans int
	require.NoError(t, conn.QueryRow(ctx, "SELECT COUNT(*) FROM tenants").Scan(&tenants))
	require.NoError(t, conn.QueryRow(ctx, "SELECT COUNT(*) FROM plans").Scan(&plans))
	assert.Equal(t, 1, tenants)
	assert.Equal(t, len(defaultPlans), plans)

	// updated_at advances on UPDATE without the caller touching it
	var created, updated time.Time
	require.NoError(t, conn.QueryRow(ctx,
		"UPDATE tenants SET tenant_name = tenant_name WHERE tenant_id = $1 RETURNING created_at, updated_at",
		DefaultTenantID).Scan(&created, &updated))
	assert.True(t, updated.After(created), "updated_at %v should be after created_at %v", updated, created)

	// Two rows with the same (requirement_id, version) are rejected
	var labelID int
	require.NoError(t, conn.QueryRow(ctx,
		"INSERT INTO requirement_labels (tenant_id, requirement_label) VALUES ($1, $2) RETURNING label_id",
		DefaultTenantID, "REQ-SMOKE").Scan(&labelID))

	insertRequirement := `INSERT INTO requirements (requirement_id, tenant_id, label_id, title, version, requirement_detail)
		VALUES ($1, $2, $3, $4, $5, '{}')`
	requirementID := uuid.New()
	_, err = conn.Exec(ctx, insertRequirement, requirementID, DefaultTenantID, labelID, "smoke", 1)
	require.NoError(t, err)
	_, err = conn.Exec(ctx, insertRequirement, requirementID, DefaultTenantID, labelID, "smoke", 1)
	assert.Error(t, err, "duplicate (requirement_id, version) must violate the unique constraint")

	// A credential without any auth method is rejected by the check constraint
	var integrationID uuid.UUID
	require.NoError(t, conn.QueryRow(ctx,
		"INSERT INTO tcm_integrations (tenant_id, integrator_type, name) VALUES ($1, 'testrail', 'smoke') RETURNING integration_id",
		DefaultTenantID).Scan(&integrationID))
	_, err = conn.Exec(ctx,
		"INSERT INTO tcm_credentials (integration_id, base_url) VALUES ($1, 'https://example.testrail.io')",
		integrationID)
	assert.Error(t, err, "credential without api key or username/password must violate check_auth_method")
}
