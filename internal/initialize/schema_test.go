package initialize

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var referencesPattern = regexp.MustCompile(`REFERENCES\s+(\w+)\s*\(`)

// referencedTables extracts the tables a CREATE TABLE statement points at.
func referencedTables(sql string) []string {
	var tables []string
	for _, match := range referencesPattern.FindAllStringSubmatch(sql, -1) {
		tables = append(tables, match[1])
	}
	return tables
}

func TestTableBuildOrderCoversEveryManagedTable(t *testing.T) {
	build := tableBuildOrder()
	require.Len(t, build, len(tableDropOrder))

	// Build and drop lists manage the same set of tables
	dropSet := make(map[string]bool, len(tableDropOrder))
	for _, table := range tableDropOrder {
		dropSet[table] = true
	}

	seen := make(map[string]bool, len(build))
	for _, stmt := range build {
		assert.True(t, dropSet[stmt.object], "table %s is created but never dropped", stmt.object)
		assert.False(t, seen[stmt.object], "table %s appears twice in build order", stmt.object)
		seen[stmt.object] = true
	}
}

func TestTableBuildOrderSatisfiesForeignKeys(t *testing.T) {
	build := tableBuildOrder()
	position := make(map[string]int, len(build))
	for i, stmt := range build {
		position[stmt.object] = i
	}

	for _, stmt := range build {
		for _, ref := range referencedTables(stmt.sql) {
			refPos, ok := position[ref]
			require.True(t, ok, "table %s references unmanaged table %s", stmt.object, ref)
			assert.LessOrEqual(t, refPos, position[stmt.object],
				"table %s is created before %s which it references", stmt.object, ref)
		}
	}
}

func TestDropOrderRemovesDependentsFirst(t *testing.T) {
	position := make(map[string]int, len(tableDropOrder))
	for i, table := range tableDropOrder {
		position[table] = i
	}

	for _, stmt := range tableBuildOrder() {
		for _, ref := range referencedTables(stmt.sql) {
			if ref == stmt.object {
				continue
			}
			assert.Less(t, position[stmt.object], position[ref],
				"table %s must be dropped before %s", stmt.object, ref)
		}
	}

	// IF EXISTS keeps teardown clean on an empty database
	for _, stmt := range dropStatements() {
		assert.Equal(t, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE;", stmt.object), stmt.sql)
	}
}

func TestVersionedTablesShareCompositeKeys(t *testing.T) {
	// Appends insert a new row per version; links point at the composite key
	assert.Contains(t, createRequirementsTable, "UNIQUE(requirement_id, version)")
	assert.Contains(t, createTestcasesTable, "UNIQUE(testcase_id, version)")

	assert.Contains(t, createTestcaseSectionMapTable,
		"REFERENCES testcases(testcase_id, version) ON DELETE CASCADE")
	assert.Contains(t, createRequirementTestcaseMapTable,
		"REFERENCES requirements(requirement_id, version) ON DELETE CASCADE")
	assert.Contains(t, createRequirementTestcaseMapTable,
		"REFERENCES testcases(testcase_id, version) ON DELETE CASCADE")
}

func TestDerivedFromIsAPlainBackReference(t *testing.T) {
	for _, line := range strings.Split(createTestcasesTable, "\n") {
		if !strings.Contains(line, "derived_from_row_id") {
			continue
		}
		assert.Contains(t, line, "REFERENCES testcases(row_id)")
		assert.NotContains(t, line, "ON DELETE", "deleting a source row must not delete derived testcases")
		return
	}
	t.Fatal("derived_from_row_id column not found in testcases table")
}

func TestCredentialTableEnforcesAuthMethod(t *testing.T) {
	assert.Contains(t, createTCMCredentialsTable, "CONSTRAINT check_auth_method")
	assert.Contains(t, createTCMCredentialsTable, "api_key IS NOT NULL AND api_key != ''")
	assert.Contains(t, createTCMCredentialsTable,
		"username IS NOT NULL AND username != '' AND password IS NOT NULL AND password != ''")
}

func TestIndexStatements(t *testing.T) {
	statements := indexStatements()
	require.Len(t, statements, len(schemaIndexes)+len(schemaUniqueIndexes))

	managed := make(map[string]bool)
	for _, stmt := range tableBuildOrder() {
		managed[stmt.object] = true
	}

	t.Run("every index targets a managed table", func(t *testing.T) {
		for _, stmt := range statements {
			onPos := strings.Index(stmt.sql, " ON ")
			require.Positive(t, onPos, "index %s has no target", stmt.object)
			target := stmt.sql[onPos+4:]
			parenPos := strings.Index(target, "(")
			require.Positive(t, parenPos, "index %s has no column list", stmt.object)
			table := strings.TrimSpace(target[:parenPos])
			assert.True(t, managed[table], "index %s targets unmanaged table %q", stmt.object, table)
		}
	})

	t.Run("index names are unique", func(t *testing.T) {
		seen := make(map[string]bool, len(statements))
		for _, stmt := range statements {
			assert.False(t, seen[stmt.object], "duplicate index name %s", stmt.object)
			seen[stmt.object] = true
		}
	})

	t.Run("natural keys use unique indexes", func(t *testing.T) {
		unique := make(map[string]string)
		for _, stmt := range statements {
			if strings.HasPrefix(stmt.sql, "CREATE UNIQUE INDEX") {
				unique[stmt.object] = stmt.sql
			}
		}
		require.Len(t, unique, len(schemaUniqueIndexes))

		// Partial indexes only constrain rows that carry the optional value
		assert.Contains(t, unique["ux_tenants_primary_domain"], "WHERE primary_domain IS NOT NULL")
		assert.Contains(t, unique["ux_users_provider_subject"], "WHERE external_subject IS NOT NULL")
		assert.Contains(t, unique["ux_sections_tenant_name"], "sections(tenant_id, section_name)")
		assert.Contains(t, unique["ux_tcm_tc_map_testcase_tool"], "tcm_testcase_mappings(testcase_id, tcm_tool)")
	})
}

func TestUpdatedAtTriggersCoverAuditedTables(t *testing.T) {
	audited := make(map[string]bool, len(updatedAtTables))
	for _, table := range updatedAtTables {
		audited[table] = true
	}

	// A table carries the trigger exactly when it has an updated_at column
	for _, stmt := range tableBuildOrder() {
		hasColumn := strings.Contains(stmt.sql, "updated_at")
		assert.Equal(t, hasColumn, audited[stmt.object],
			"table %s: updated_at column and trigger list disagree", stmt.object)
	}

	statements := triggerStatements()
	require.Equal(t, "update_updated_at_column function", statements[0].object)
	assert.Contains(t, statements[0].sql, "NEW.updated_at = CURRENT_TIMESTAMP")

	for i, table := range updatedAtTables {
		stmt := statements[i+1]
		assert.Contains(t, stmt.sql, fmt.Sprintf("CREATE TRIGGER update_%s_updated_at", table))
		assert.Contains(t, stmt.sql, fmt.Sprintf("BEFORE UPDATE ON %s ", table))
	}
}

func TestCascadeTriggerOnlyRemovesSameToolLinks(t *testing.T) {
	assert.Contains(t, cascadeSectionLinksFunction, "m.testcase_id = OLD.testcase_id")
	assert.Contains(t, cascadeSectionLinksFunction, "s.source = OLD.tcm_tool")

	assert.Contains(t, cascadeSectionLinksTrigger, "DROP TRIGGER IF EXISTS trg_cascade_tcm_mapping_delete")
	assert.Contains(t, cascadeSectionLinksTrigger, "AFTER DELETE ON tcm_testcase_mappings")

	statements := triggerStatements()
	last := statements[len(statements)-1]
	assert.Equal(t, "trg_cascade_tcm_mapping_delete trigger", last.object)
}

func TestRequirementSectionsViewJoinsThroughLinkTables(t *testing.T) {
	views := viewStatements()
	require.Len(t, views, 1)

	sql := views[0].sql
	assert.Contains(t, sql, "CREATE OR REPLACE VIEW requirement_sections_v")
	assert.Contains(t, sql, "SELECT DISTINCT")
	assert.Contains(t, sql, "JOIN testcase_section_map tsm ON tsm.testcase_id = rtm.testcase_id")
	assert.Contains(t, sql, "JOIN sections s ON s.section_id = tsm.section_id")
}

func TestUUIDPrimaryKeysUseServerSideGeneration(t *testing.T) {
	assert.Contains(t, pgcryptoExtension, "IF NOT EXISTS")

	sqlByTable := make(map[string]string)
	for _, stmt := range tableBuildOrder() {
		sqlByTable[stmt.object] = stmt.sql
	}

	for _, table := range []string{"tenants", "users", "sections", "tcm_integrations", "tcm_credentials", "traceability_matrix"} {
		assert.Contains(t, sqlByTable[table], "DEFAULT gen_random_uuid()", "table %s", table)
	}
}
