package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const requirementColumns = `requirement_id, row_id, tenant_id, label_id, title, version, raw_text, requirement_detail, testcase_generation_status, created_at, updated_at, meta_info`

func scanRequirement(row pgx.Row) (*Requirement, error) {
	var r Requirement
	err := row.Scan(
		&r.RequirementID,
		&r.RowID,
		&r.TenantID,
		&r.LabelID,
		&r.Title,
		&r.Version,
		&r.RawText,
		&r.Detail,
		&r.GenerationStatus,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.MetaInfo,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// EnsureLabel returns the label ID for the given tenant and label text,
// creating the label if it does not exist yet.
func (s *Store) EnsureLabel(ctx context.Context, tenantID uuid.UUID, label string) (int, error) {
	var id int
	err := s.db.Pool().QueryRow(ctx, `
		INSERT INTO requirement_labels (tenant_id, requirement_label)
		VALUES ($1, $2)
		ON CONFLICT (tenant_id, requirement_label) DO UPDATE SET requirement_label = EXCLUDED.requirement_label
		RETURNING label_id
	`, tenantID, label).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to ensure requirement label: %w", err)
	}
	return id, nil
}

// CreateRequirement inserts version 1 of a new requirement.
func (s *Store) CreateRequirement(ctx context.Context, tenantID uuid.UUID, labelID int, title, rawText string, detail json.RawMessage) (*Requirement, error) {
	s.logger.Infof("Creating requirement %q for tenant %s", title, tenantID)

	row := s.db.Pool().QueryRow(ctx, `
		INSERT INTO requirements (requirement_id, tenant_id, label_id, title, version, raw_text, requirement_detail)
		VALUES ($1, $2, $3, $4, 1, $5, $6)
		RETURNING `+requirementColumns,
		uuid.New(), tenantID, labelID, title, nullableText(rawText), detail)

	requirement, err := scanRequirement(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create requirement: %w", err)
	}
	return requirement, nil
}

// AppendRequirementVersion writes the next version of an existing
// requirement. The tenant and label carry over from the head version; title,
// raw text and detail replace it. Earlier versions stay untouched. Two
// concurrent appends race on the (requirement_id, version) uniqueness and
// the loser gets a constraint error.
func (s *Store) AppendRequirementVersion(ctx context.Context, requirementID uuid.UUID, title, rawText string, detail json.RawMessage) (*Requirement, error) {
	tx, err := s.db.Pool().Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var tenantID uuid.UUID
	var labelID, headVersion int
	err = tx.QueryRow(ctx, `
		SELECT tenant_id, label_id, version
		FROM requirements
		WHERE requirement_id = $1
		ORDER BY version DESC
		LIMIT 1
	`, requirementID).Scan(&tenantID, &labelID, &headVersion)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read requirement head: %w", err)
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO requirements (requirement_id, tenant_id, label_id, title, version, raw_text, requirement_detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+requirementColumns,
		requirementID, tenantID, labelID, title, headVersion+1, nullableText(rawText), detail)

	requirement, err := scanRequirement(row)
	if err != nil {
		return nil, fmt.Errorf("failed to append requirement version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Infof("Appended version %d of requirement %s", requirement.Version, requirementID)
	return requirement, nil
}

// GetRequirement retrieves the head version of a requirement.
func (s *Store) GetRequirement(ctx context.Context, requirementID uuid.UUID) (*Requirement, error) {
	row := s.db.Pool().QueryRow(ctx, `
		SELECT `+requirementColumns+`
		FROM requirements
		WHERE requirement_id = $1
		ORDER BY version DESC
		LIMIT 1
	`, requirementID)

	requirement, err := scanRequirement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get requirement: %w", err)
	}
	return requirement, nil
}

// GetRequirementVersion retrieves one specific version of a requirement.
func (s *Store) GetRequirementVersion(ctx context.Context, requirementID uuid.UUID, version int) (*Requirement, error) {
	row := s.db.Pool().QueryRow(ctx, `
		SELECT `+requirementColumns+`
		FROM requirements
		WHERE requirement_id = $1 AND version = $2
	`, requirementID, version)

	requirement, err := scanRequirement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get requirement version: %w", err)
	}
	return requirement, nil
}

// ListRequirementVersions retrieves every version of a requirement, oldest
// first.
func (s *Store) ListRequirementVersions(ctx context.Context, requirementID uuid.UUID) ([]*Requirement, error) {
	rows, err := s.db.Pool().Query(ctx, `
		SELECT `+requirementColumns+`
		FROM requirements
		WHERE requirement_id = $1
		ORDER BY version
	`, requirementID)
	if err != nil {
		return nil, fmt.Errorf("failed to list requirement versions: %w", err)
	}
	defer rows.Close()

	var requirements []*Requirement
	for rows.Next() {
		requirement, err := scanRequirement(rows)
		if err != nil {
			return nil, err
		}
		requirements = append(requirements, requirement)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return requirements, nil
}

// ListRequirements retrieves the head version of every requirement for a
// tenant.
func (s *Store) ListRequirements(ctx context.Context, tenantID uuid.UUID) ([]*Requirement, error) {
	rows, err := s.db.Pool().Query(ctx, `
		SELECT DISTINCT ON (requirement_id) `+requirementColumns+`
		FROM requirements
		WHERE tenant_id = $1
		ORDER BY requirement_id, version DESC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list requirements: %w", err)
	}
	defer rows.Close()

	var requirements []*Requirement
	for rows.Next() {
		requirement, err := scanRequirement(rows)
		if err != nil {
			return nil, err
		}
		requirements = append(requirements, requirement)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return requirements, nil
}

// SetGenerationStatus updates the testcase generation state of the given
// version, which must be the head. Past versions are immutable and yield
// ErrPastVersion.
func (s *Store) SetGenerationStatus(ctx context.Context, requirementID uuid.UUID, version int, status string) error {
	tag, err := s.db.Pool().Exec(ctx, `
		UPDATE requirements
		SET testcase_generation_status = $3
		WHERE requirement_id = $1 AND version = $2
		  AND version = (SELECT MAX(version) FROM requirements WHERE requirement_id = $1)
	`, requirementID, version, status)
	if err != nil {
		return fmt.Errorf("failed to update generation status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Distinguish a missing requirement from a stale version
		var exists bool
		err := s.db.Pool().QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM requirements WHERE requirement_id = $1)",
			requirementID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check requirement existence: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrPastVersion
	}

	return nil
}
