package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqtrace/reqtrace/internal/logger"
)

// newValidationStore returns a store whose database is never reached. Only
// code paths that fail validation before touching the pool may use it.
func newValidationStore() *Store {
	return New(nil, logger.NewUnifiedLogger("store-test", "test", "", "error"))
}

func TestAddCredentialRequiresAuthMethod(t *testing.T) {
	s := newValidationStore()
	ctx := context.Background()

	tests := []struct {
		name     string
		apiKey   string
		username string
		password string
	}{
		{"no auth at all", "", "", ""},
		{"username without password", "", "svc", ""},
		{"password without username", "", "", "hunter2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.AddCredential(ctx, uuid.New(), "https://example.testrail.io", tt.apiKey, tt.username, tt.password)
			assert.ErrorIs(t, err, ErrInvalidCredential)
		})
	}
}

func TestCreateIntegrationRejectsUnknownTool(t *testing.T) {
	s := newValidationStore()
	_, err := s.CreateIntegration(context.Background(), uuid.New(), "polarion", "legacy", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "polarion")
}

func TestMapTestcaseRejectsUnknownTool(t *testing.T) {
	s := newValidationStore()
	_, err := s.MapTestcase(context.Background(), uuid.New(), "jira", "EXT-1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jira")
}

func TestCreateTenantRejectsUnknownType(t *testing.T) {
	s := newValidationStore()
	_, err := s.CreateTenant(context.Background(), "acme", "TEAM", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEAM")
}

func TestNullableText(t *testing.T) {
	assert.Nil(t, nullableText(""))

	value := nullableText("testrail")
	require.NotNil(t, value)
	assert.Equal(t, "testrail", *value)
}

func TestNextResetDate(t *testing.T) {
	now := time.Now().UTC()

	assert.WithinDuration(t, now.AddDate(0, 1, 0), nextResetDate("monthly"), time.Minute)
	assert.WithinDuration(t, now.AddDate(1, 0, 0), nextResetDate("yearly"), time.Minute)

	// Lifetime plans never reset
	assert.True(t, nextResetDate("lifetime").After(now.AddDate(99, 0, 0)))
}
