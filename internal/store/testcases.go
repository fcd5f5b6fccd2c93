package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const testcaseColumns = `testcase_id, row_id, requirement_id, title, steps, expected_result, status, sync_status, version, priority, derived_from_row_id, created_at, updated_at, meta_info`

func scanTestcase(row pgx.Row) (*Testcase, error) {
	var t Testcase
	err := row.Scan(
		&t.TestcaseID,
		&t.RowID,
		&t.RequirementID,
		&t.Title,
		&t.Steps,
		&t.ExpectedResult,
		&t.Status,
		&t.SyncStatus,
		&t.Version,
		&t.Priority,
		&t.DerivedFromRowID,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.MetaInfo,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTestcase inserts version 1 of a new testcase for a requirement.
func (s *Store) CreateTestcase(ctx context.Context, requirementID uuid.UUID, title string, steps json.RawMessage, expectedResult, status, priority string) (*Testcase, error) {
	s.logger.Infof("Creating testcase %q for requirement %s", title, requirementID)

	if priority == "" {
		priority = PriorityMedium
	}

	row := s.db.Pool().QueryRow(ctx, `
		INSERT INTO testcases (testcase_id, requirement_id, title, steps, expected_result, status, version, priority)
		VALUES ($1, $2, $3, $4, $5, $6, 1, $7)
		RETURNING `+testcaseColumns,
		uuid.New(), requirementID, title, steps, expectedResult, status, priority)

	testcase, err := scanTestcase(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create testcase: %w", err)
	}
	return testcase, nil
}

// AppendTestcaseVersion writes the next version of an existing testcase.
// The requirement and priority carry over from the head version, and the new
// version starts in the UPDATED sync state since any external copy is now
// stale.
func (s *Store) AppendTestcaseVersion(ctx context.Context, testcaseID uuid.UUID, title string, steps json.RawMessage, expectedResult, status string) (*Testcase, error) {
	tx, err := s.db.Pool().Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var requirementID uuid.UUID
	var priority string
	var headVersion int
	err = tx.QueryRow(ctx, `
		SELECT requirement_id, priority, version
		FROM testcases
		WHERE testcase_id = $1
		ORDER BY version DESC
		LIMIT 1
	`, testcaseID).Scan(&requirementID, &priority, &headVersion)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read testcase head: %w", err)
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO testcases (testcase_id, requirement_id, title, steps, expected_result, status, sync_status, version, priority)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+testcaseColumns,
		testcaseID, requirementID, title, steps, expectedResult, status, SyncStatusUpdated, headVersion+1, priority)

	testcase, err := scanTestcase(row)
	if err != nil {
		return nil, fmt.Errorf("failed to append testcase version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Infof("Appended version %d of testcase %s", testcase.Version, testcaseID)
	return testcase, nil
}

// DeriveTestcase creates a new testcase whose content starts from an
// existing testcase version. The new testcase records the source row as a
// plain back-reference; deleting the derived testcase never cascades into
// the source.
func (s *Store) DeriveTestcase(ctx context.Context, sourceID uuid.UUID, sourceVersion int) (*Testcase, error) {
	row := s.db.Pool().QueryRow(ctx, `
		INSERT INTO testcases (testcase_id, requirement_id, title, steps, expected_result, status, version, priority, derived_from_row_id, meta_info)
		SELECT $2, requirement_id, title, steps, expected_result, status, 1, priority, row_id, meta_info
		FROM testcases
		WHERE testcase_id = $1 AND version = $3
		RETURNING `+testcaseColumns,
		sourceID, uuid.New(), sourceVersion)

	testcase, err := scanTestcase(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to derive testcase: %w", err)
	}

	s.logger.Infof("Derived testcase %s from %s version %d", testcase.TestcaseID, sourceID, sourceVersion)
	return testcase, nil
}

// TestcaseProvenance walks the derived-from chain starting at the given row.
// The first element is the row itself and the last is the root it ultimately
// descends from. Sources always predate their derivatives, so the walk
// terminates.
func (s *Store) TestcaseProvenance(ctx context.Context, rowID int64) ([]*Testcase, error) {
	rows, err := s.db.Pool().Query(ctx, `
		WITH RECURSIVE chain AS (
			SELECT `+testcaseColumns+`, 0 AS depth
			FROM testcases
			WHERE row_id = $1
			UNION ALL
			SELECT t.testcase_id, t.row_id, t.requirement_id, t.title, t.steps, t.expected_result,
			       t.status, t.sync_status, t.version, t.priority, t.derived_from_row_id,
			       t.created_at, t.updated_at, t.meta_info, chain.depth + 1
			FROM testcases t
			JOIN chain ON t.row_id = chain.derived_from_row_id
		)
		SELECT `+testcaseColumns+`
		FROM chain
		ORDER BY depth
	`, rowID)
	if err != nil {
		return nil, fmt.Errorf("failed to walk testcase provenance: %w", err)
	}
	defer rows.Close()

	var testcases []*Testcase
	for rows.Next() {
		testcase, err := scanTestcase(rows)
		if err != nil {
			return nil, err
		}
		testcases = append(testcases, testcase)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(testcases) == 0 {
		return nil, ErrNotFound
	}
	return testcases, nil
}

// GetTestcase retrieves the head version of a testcase.
func (s *Store) GetTestcase(ctx context.Context, testcaseID uuid.UUID) (*Testcase, error) {
	row := s.db.Pool().QueryRow(ctx, `
		SELECT `+testcaseColumns+`
		FROM testcases
		WHERE testcase_id = $1
		ORDER BY version DESC
		LIMIT 1
	`, testcaseID)

	testcase, err := scanTestcase(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get testcase: %w", err)
	}
	return testcase, nil
}

// GetTestcaseVersion retrieves one specific version of a testcase.
func (s *Store) GetTestcaseVersion(ctx context.Context, testcaseID uuid.UUID, version int) (*Testcase, error) {
	row := s.db.Pool().QueryRow(ctx, `
		SELECT `+testcaseColumns+`
		FROM testcases
		WHERE testcase_id = $1 AND version = $2
	`, testcaseID, version)

	testcase, err := scanTestcase(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get testcase version: %w", err)
	}
	return testcase, nil
}

// ListTestcaseVersions retrieves every version of a testcase, oldest first.
func (s *Store) ListTestcaseVersions(ctx context.Context, testcaseID uuid.UUID) ([]*Testcase, error) {
	rows, err := s.db.Pool().Query(ctx, `
		SELECT `+testcaseColumns+`
		FROM testcases
		WHERE testcase_id = $1
		ORDER BY version
	`, testcaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list testcase versions: %w", err)
	}
	defer rows.Close()

	var testcases []*Testcase
	for rows.Next() {
		testcase, err := scanTestcase(rows)
		if err != nil {
			return nil, err
		}
		testcases = append(testcases, testcase)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return testcases, nil
}

// ListTestcasesForRequirement retrieves the head version of every testcase
// belonging to a requirement.
func (s *Store) ListTestcasesForRequirement(ctx context.Context, requirementID uuid.UUID) ([]*Testcase, error) {
	rows, err := s.db.Pool().Query(ctx, `
		SELECT DISTINCT ON (testcase_id) `+testcaseColumns+`
		FROM testcases
		WHERE requirement_id = $1
		ORDER BY testcase_id, version DESC
	`, requirementID)
	if err != nil {
		return nil, fmt.Errorf("failed to list testcases: %w", err)
	}
	defer rows.Close()

	var testcases []*Testcase
	for rows.Next() {
		testcase, err := scanTestcase(rows)
		if err != nil {
			return nil, err
		}
		testcases = append(testcases, testcase)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return testcases, nil
}

// SetSyncStatus updates the sync state of the given version, which must be
// the head. Past versions are immutable and yield ErrPastVersion.
func (s *Store) SetSyncStatus(ctx context.Context, testcaseID uuid.UUID, version int, status string) error {
	tag, err := s.db.Pool().Exec(ctx, `
		UPDATE testcases
		SET sync_status = $3
		WHERE testcase_id = $1 AND version = $2
		  AND version = (SELECT MAX(version) FROM testcases WHERE testcase_id = $1)
	`, testcaseID, version, status)
	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		err := s.db.Pool().QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM testcases WHERE testcase_id = $1)",
			testcaseID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check testcase existence: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrPastVersion
	}

	return nil
}
