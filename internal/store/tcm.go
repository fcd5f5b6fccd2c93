package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const integrationColumns = `integration_id, tenant_id, integrator_type, name, description, is_active, created_at, updated_at`

const credentialColumns = `credential_id, integration_id, base_url, api_key, username, password, created_at, updated_at`

const mappingColumns = `mapping_id, testcase_id, tcm_tool, external_testcase_id, sync_direction, last_synced_at`

func scanIntegration(row pgx.Row) (*TCMIntegration, error) {
	var in TCMIntegration
	err := row.Scan(
		&in.IntegrationID,
		&in.TenantID,
		&in.Type,
		&in.Name,
		&in.Description,
		&in.IsActive,
		&in.CreatedAt,
		&in.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

func scanMapping(row pgx.Row) (*TestcaseMapping, error) {
	var m TestcaseMapping
	err := row.Scan(
		&m.MappingID,
		&m.TestcaseID,
		&m.Tool,
		&m.ExternalTestcaseID,
		&m.SyncDirection,
		&m.LastSyncedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateIntegration registers an external test management tool instance for
// a tenant.
func (s *Store) CreateIntegration(ctx context.Context, tenantID uuid.UUID, integratorType, name, description string) (*TCMIntegration, error) {
	switch integratorType {
	case ToolTestRail, ToolZephyr, ToolXray:
	default:
		return nil, fmt.Errorf("unsupported integrator type %q", integratorType)
	}

	s.logger.Infof("Creating %s integration %q for tenant %s", integratorType, name, tenantID)

	row := s.db.Pool().QueryRow(ctx, `
		INSERT INTO tcm_integrations (tenant_id, integrator_type, name, description)
		VALUES ($1, $2, $3, $4)
		RETURNING `+integrationColumns,
		tenantID, integratorType, name, nullableText(description))

	integration, err := scanIntegration(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create integration: %w", err)
	}
	return integration, nil
}

// GetIntegration retrieves one integration by ID.
func (s *Store) GetIntegration(ctx context.Context, integrationID uuid.UUID) (*TCMIntegration, error) {
	row := s.db.Pool().QueryRow(ctx, `
		SELECT `+integrationColumns+`
		FROM tcm_integrations
		WHERE integration_id = $1
	`, integrationID)

	integration, err := scanIntegration(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get integration: %w", err)
	}
	return integration, nil
}

// SetIntegrationActive enables or disables an integration.
func (s *Store) SetIntegrationActive(ctx context.Context, integrationID uuid.UUID, active bool) error {
	tag, err := s.db.Pool().Exec(ctx, `
		UPDATE tcm_integrations
		SET is_active = $2
		WHERE integration_id = $1
	`, integrationID, active)
	if err != nil {
		return fmt.Errorf("failed to update integration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddCredential stores connection secrets for an integration. A credential
// must carry an API key or a full username and password pair; anything less
// yields ErrInvalidCredential before the database is touched.
func (s *Store) AddCredential(ctx context.Context, integrationID uuid.UUID, baseURL, apiKey, username, password string) (*TCMCredential, error) {
	if apiKey == "" && (username == "" || password == "") {
		return nil, ErrInvalidCredential
	}

	row := s.db.Pool().QueryRow(ctx, `
		INSERT INTO tcm_credentials (integration_id, base_url, api_key, username, password)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+credentialColumns,
		integrationID, baseURL, nullableText(apiKey), nullableText(username), nullableText(password))

	var cred TCMCredential
	err := row.Scan(
		&cred.CredentialID,
		&cred.IntegrationID,
		&cred.BaseURL,
		&cred.APIKey,
		&cred.Username,
		&cred.Password,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add credential: %w", err)
	}
	return &cred, nil
}

// MapTestcase binds a testcase to its counterpart in an external tool. Each
// testcase has at most one mapping per tool; remapping replaces the external
// ID and direction.
func (s *Store) MapTestcase(ctx context.Context, testcaseID uuid.UUID, tool, externalID, direction string) (*TestcaseMapping, error) {
	switch tool {
	case ToolTestRail, ToolZephyr, ToolXray:
	default:
		return nil, fmt.Errorf("unsupported TCM tool %q", tool)
	}
	if direction == "" {
		direction = SyncDirectionBidirectional
	}

	row := s.db.Pool().QueryRow(ctx, `
		INSERT INTO tcm_testcase_mappings (testcase_id, tcm_tool, external_testcase_id, sync_direction)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (testcase_id, tcm_tool) DO UPDATE
		SET external_testcase_id = EXCLUDED.external_testcase_id, sync_direction = EXCLUDED.sync_direction
		RETURNING `+mappingColumns,
		testcaseID, tool, externalID, direction)

	mapping, err := scanMapping(row)
	if err != nil {
		return nil, fmt.Errorf("failed to map testcase: %w", err)
	}
	return mapping, nil
}

// UnmapTestcase removes the mapping between a testcase and a tool. The
// database cascades this into the testcase's section links for sections that
// originated from the same tool; links into internal sections survive.
func (s *Store) UnmapTestcase(ctx context.Context, testcaseID uuid.UUID, tool string) error {
	tag, err := s.db.Pool().Exec(ctx, `
		DELETE FROM tcm_testcase_mappings
		WHERE testcase_id = $1 AND tcm_tool = $2
	`, testcaseID, tool)
	if err != nil {
		return fmt.Errorf("failed to unmap testcase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkMappingSynced stamps the mapping's last sync time.
func (s *Store) MarkMappingSynced(ctx context.Context, testcaseID uuid.UUID, tool string) error {
	tag, err := s.db.Pool().Exec(ctx, `
		UPDATE tcm_testcase_mappings
		SET last_synced_at = CURRENT_TIMESTAMP
		WHERE testcase_id = $1 AND tcm_tool = $2
	`, testcaseID, tool)
	if err != nil {
		return fmt.Errorf("failed to mark mapping synced: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListMappings retrieves every tool mapping of a testcase.
func (s *Store) ListMappings(ctx context.Context, testcaseID uuid.UUID) ([]*TestcaseMapping, error) {
	rows, err := s.db.Pool().Query(ctx, `
		SELECT `+mappingColumns+`
		FROM tcm_testcase_mappings
		WHERE testcase_id = $1
		ORDER BY tcm_tool
	`, testcaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mappings: %w", err)
	}
	defer rows.Close()

	var mappings []*TestcaseMapping
	for rows.Next() {
		mapping, err := scanMapping(rows)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, mapping)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return mappings, nil
}
