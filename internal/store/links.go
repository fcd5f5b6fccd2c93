package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const sectionColumns = `section_id, tenant_id, section_name, source, external_section_id, external_suite_id, description, created_at`

func scanSection(row pgx.Row) (*Section, error) {
	var sec Section
	err := row.Scan(
		&sec.SectionID,
		&sec.TenantID,
		&sec.Name,
		&sec.Source,
		&sec.ExternalSectionID,
		&sec.ExternalSuiteID,
		&sec.Description,
		&sec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sec, nil
}

// EnsureSection returns the section with the given name for a tenant,
// creating it if it does not exist. Section names are unique per tenant.
func (s *Store) EnsureSection(ctx context.Context, tenantID uuid.UUID, name, source string) (*Section, error) {
	if source == "" {
		source = SectionSourceInternal
	}

	row := s.db.Pool().QueryRow(ctx, `
		INSERT INTO sections (tenant_id, section_name, source)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id, section_name) DO UPDATE SET section_name = EXCLUDED.section_name
		RETURNING `+sectionColumns,
		tenantID, name, source)

	section, err := scanSection(row)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure section: %w", err)
	}
	return section, nil
}

// LinkTestcaseToSection places a testcase version into a section. A testcase
// appears in a section at most once; relinking at a newer version moves the
// existing link forward.
func (s *Store) LinkTestcaseToSection(ctx context.Context, testcaseID uuid.UUID, version int, sectionID uuid.UUID) error {
	_, err := s.db.Pool().Exec(ctx, `
		INSERT INTO testcase_section_map (testcase_id, section_id, linked_at_version)
		VALUES ($1, $2, $3)
		ON CONFLICT (testcase_id, section_id) DO UPDATE SET linked_at_version = EXCLUDED.linked_at_version
	`, testcaseID, sectionID, version)
	if err != nil {
		return fmt.Errorf("failed to link testcase to section: %w", err)
	}
	return nil
}

// UnlinkTestcaseFromSection removes a testcase from a section.
func (s *Store) UnlinkTestcaseFromSection(ctx context.Context, testcaseID, sectionID uuid.UUID) error {
	tag, err := s.db.Pool().Exec(ctx, `
		DELETE FROM testcase_section_map
		WHERE testcase_id = $1 AND section_id = $2
	`, testcaseID, sectionID)
	if err != nil {
		return fmt.Errorf("failed to unlink testcase from section: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LinkRequirementToTestcase records that a testcase version covers a
// requirement version. Both versions must exist; the link is stamped with
// the requirement version it was made at. Relinking the same pair is a
// no-op.
func (s *Store) LinkRequirementToTestcase(ctx context.Context, requirementID uuid.UUID, requirementVersion int, testcaseID uuid.UUID, testcaseVersion int) error {
	_, err := s.db.Pool().Exec(ctx, `
		INSERT INTO requirement_testcase_map (requirement_id, requirement_version, testcase_id, testcase_version, linked_at_version)
		VALUES ($1, $2, $3, $4, $2)
		ON CONFLICT (requirement_id, requirement_version, testcase_id, testcase_version) DO NOTHING
	`, requirementID, requirementVersion, testcaseID, testcaseVersion)
	if err != nil {
		return fmt.Errorf("failed to link requirement to testcase: %w", err)
	}
	return nil
}

// UnlinkRequirementFromTestcase removes the coverage link between one
// requirement version and one testcase version.
func (s *Store) UnlinkRequirementFromTestcase(ctx context.Context, requirementID uuid.UUID, requirementVersion int, testcaseID uuid.UUID, testcaseVersion int) error {
	tag, err := s.db.Pool().Exec(ctx, `
		DELETE FROM requirement_testcase_map
		WHERE requirement_id = $1 AND requirement_version = $2 AND testcase_id = $3 AND testcase_version = $4
	`, requirementID, requirementVersion, testcaseID, testcaseVersion)
	if err != nil {
		return fmt.Errorf("failed to unlink requirement from testcase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RequirementSections reports which sections a requirement's linked
// testcases appear in, via the requirement_sections_v view.
func (s *Store) RequirementSections(ctx context.Context, requirementID uuid.UUID) ([]*RequirementSection, error) {
	rows, err := s.db.Pool().Query(ctx, `
		SELECT requirement_id, section_id, section_name
		FROM requirement_sections_v
		WHERE requirement_id = $1
		ORDER BY section_name
	`, requirementID)
	if err != nil {
		return nil, fmt.Errorf("failed to query requirement sections: %w", err)
	}
	defer rows.Close()

	var sections []*RequirementSection
	for rows.Next() {
		var rs RequirementSection
		if err := rows.Scan(&rs.RequirementID, &rs.SectionID, &rs.SectionName); err != nil {
			return nil, err
		}
		sections = append(sections, &rs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sections, nil
}

// SectionsForTenant retrieves every section of a tenant ordered by name.
func (s *Store) SectionsForTenant(ctx context.Context, tenantID uuid.UUID) ([]*Section, error) {
	rows, err := s.db.Pool().Query(ctx, `
		SELECT `+sectionColumns+`
		FROM sections
		WHERE tenant_id = $1
		ORDER BY section_name
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	defer rows.Close()

	var sections []*Section
	for rows.Next() {
		section, err := scanSection(rows)
		if err != nil {
			return nil, err
		}
		sections = append(sections, section)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sections, nil
}

// GetSection retrieves one section by ID.
func (s *Store) GetSection(ctx context.Context, sectionID uuid.UUID) (*Section, error) {
	row := s.db.Pool().QueryRow(ctx, `
		SELECT `+sectionColumns+`
		FROM sections
		WHERE section_id = $1
	`, sectionID)

	section, err := scanSection(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get section: %w", err)
	}
	return section, nil
}
