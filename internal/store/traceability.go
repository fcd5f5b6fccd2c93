package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const traceabilityColumns = `matrix_id, requirement_id, version, status, traceability_data, created_at, updated_at`

func scanTraceability(row pgx.Row) (*TraceabilityEntry, error) {
	var e TraceabilityEntry
	err := row.Scan(
		&e.MatrixID,
		&e.RequirementID,
		&e.Version,
		&e.Status,
		&e.Data,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// UpsertTraceability records the analysis state for one requirement version.
// There is one entry per (requirement, version); rerunning the analysis
// replaces it.
func (s *Store) UpsertTraceability(ctx context.Context, requirementID uuid.UUID, version int, status string, data json.RawMessage) (*TraceabilityEntry, error) {
	row := s.db.Pool().QueryRow(ctx, `
		INSERT INTO traceability_matrix (requirement_id, version, status, traceability_data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (requirement_id, version) DO UPDATE
		SET status = EXCLUDED.status, traceability_data = EXCLUDED.traceability_data
		RETURNING `+traceabilityColumns,
		requirementID, version, status, data)

	entry, err := scanTraceability(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert traceability entry: %w", err)
	}
	return entry, nil
}

// GetTraceability retrieves the analysis state for one requirement version.
func (s *Store) GetTraceability(ctx context.Context, requirementID uuid.UUID, version int) (*TraceabilityEntry, error) {
	row := s.db.Pool().QueryRow(ctx, `
		SELECT `+traceabilityColumns+`
		FROM traceability_matrix
		WHERE requirement_id = $1 AND version = $2
	`, requirementID, version)

	entry, err := scanTraceability(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get traceability entry: %w", err)
	}
	return entry, nil
}
