package initialize

import "fmt"

// The schema is embedded directly in the code to avoid security risks of
// external SQL files. Statements are kept individually named so a failed
// rebuild can report exactly which object and which SQL text failed.

// statement is a single named schema statement.
type statement struct {
	object string
	sql    string
}

// pgcryptoExtension provides gen_random_uuid() for the UUID column defaults.
const pgcryptoExtension = `CREATE EXTENSION IF NOT EXISTS pgcrypto;`

// tableDropOrder lists every managed table, dependents first. Teardown uses
// CASCADE so any order would clean up, but the reverse build order is kept.
var tableDropOrder = []string{
	"usage",
	"subscriptions",
	"plans",
	"traceability_matrix",
	"tcm_testcase_mappings",
	"testcase_section_map",
	"sections",
	"xray_projects",
	"zephyr_projects",
	"testrail_suites",
	"testrail_projects",
	"tcm_credentials",
	"tcm_integrations",
	"requirement_testcase_map",
	"testcases",
	"requirements",
	"requirement_labels",
	"users",
	"tenants",
}

// dropStatements returns the teardown statements. Absent tables are
// tolerated by IF EXISTS.
func dropStatements() []statement {
	statements := make([]statement, 0, len(tableDropOrder))
	for _, table := range tableDropOrder {
		statements = append(statements, statement{
			object: table,
			sql:    fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE;", table),
		})
	}
	return statements
}

// =============================================================================
// TENANCY AND IAM TABLES
// =============================================================================

const createTenantsTable = `
CREATE TABLE tenants (
    tenant_id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    tenant_name TEXT NOT NULL,
    tenant_type TEXT NOT NULL CHECK (tenant_type IN ('PERSONAL','ORGANIZATION')),
    tenant_state TEXT NOT NULL DEFAULT 'ACTIVE' CHECK (tenant_state IN ('ACTIVE','PENDING')),
    primary_domain TEXT,
    created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP NOT NULL,
    updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP NOT NULL
);`

const createUsersTable = `
CREATE TABLE users (
    user_id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    tenant_id UUID NOT NULL REFERENCES tenants(tenant_id) ON DELETE CASCADE,
    email TEXT NOT NULL UNIQUE,
    name TEXT,
    auth_provider TEXT NOT NULL DEFAULT 'GOOGLE' CHECK (auth_provider IN ('GOOGLE','LINKEDIN','LDAP','SAML','LOCAL','EMBEDDED')),
    external_subject TEXT,
    state TEXT NOT NULL DEFAULT 'ACTIVE' CHECK (state IN ('ACTIVE','PENDING')),
    created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP NOT NULL,
    updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP NOT NULL
);`

// =============================================================================
// VERSIONED REQUIREMENT AND TESTCASE TABLES
// =============================================================================

const createRequirementLabelsTable = `
CREATE TABLE requirement_labels (
    label_id SERIAL PRIMARY KEY,
    tenant_id UUID NOT NULL REFERENCES tenants(tenant_id) ON DELETE CASCADE,
    requirement_label VARCHAR(255) NOT NULL,
    created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(tenant_id, requirement_label)
);`

// Requirement rows are append-only: one row per (requirement_id, version).
const createRequirementsTable = `
CREATE TABLE requirements (
    requirement_id UUID NOT NULL,
    row_id BIGSERIAL PRIMARY KEY,
    tenant_id UUID NOT NULL REFERENCES tenants(tenant_id) ON DELETE CASCADE,
    label_id INTEGER NOT NULL REFERENCES requirement_labels(label_id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    version INTEGER NOT NULL,
    raw_text TEXT,
    requirement_detail JSON NOT NULL,
    testcase_generation_status TEXT CHECK (
        testcase_generation_status IN ('NOT_STARTED', 'IN_PROGRESS', 'COMPLETED', 'FAILED', 'SYNCHED')
    ) DEFAULT 'NOT_STARTED',
    created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
    meta_info JSON,
    UNIQUE(requirement_id, version)
);`

// derived_from_row_id records which prior testcase row this one was derived
// from. It carries no ON DELETE action: derivation history survives the
// deletion of its source row.
const createTestcasesTable = `
CREATE TABLE testcases (
    testcase_id UUID NOT NULL,
    row_id BIGSERIAL PRIMARY KEY,
    requirement_id UUID NOT NULL,
    title TEXT NOT NULL,
    steps JSON NOT NULL,
    expected_result TEXT NOT NULL,
    status TEXT NOT NULL,
    sync_status TEXT CHECK (sync_status IN ('NEW','UPDATED','SYNCHED')) DEFAULT 'NEW',
    version INTEGER NOT NULL,
    priority TEXT DEFAULT 'MEDIUM',
    derived_from_row_id BIGINT REFERENCES testcases(row_id),
    created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
    meta_info JSON,
    UNIQUE(testcase_id, version)
);`

// =============================================================================
// SECTIONS AND LINK TABLES
// =============================================================================

const createSectionsTable = `
CREATE TABLE sections (
    section_id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    tenant_id UUID NOT NULL REFERENCES tenants(tenant_id) ON DELETE CASCADE,
    section_name TEXT NOT NULL,
    source TEXT CHECK (source IN ('internal','testrail','zephyr','xray')) DEFAULT 'internal',
    external_section_id TEXT,
    external_suite_id TEXT,
    description TEXT,
    created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(tenant_id, section_name)
);`

// Links reference the (testcase_id, version) composite unique constraint, so
// a link can never point at a testcase version that does not exist.
const createTestcaseSectionMapTable = `
CREATE TABLE testcase_section_map (
    map_id SERIAL PRIMARY KEY,
    testcase_id UUID NOT NULL,
    section_id UUID NOT NULL REFERENCES sections(section_id) ON DELETE CASCADE,
    linked_at_version INTEGER NOT NULL,
    created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(testcase_id, section_id, linked_at_version),
    FOREIGN KEY (testcase_id, linked_at_version)
        REFERENCES testcases(testcase_id, version) ON DELETE CASCADE
);`

const createRequirementTestcaseMapTable = `
CREATE TABLE requirement_testcase_map (
    id SERIAL PRIMARY KEY,
    requirement_id UUID NOT NULL,
    requirement_version INTEGER NOT NULL,
    testcase_id UUID NOT NULL,
    testcase_version INTEGER NOT NULL,
    linked_at_version INTEGER NOT NULL,
    created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(requirement_id, requirement_version, testcase_id, testcase_version),
    FOREIGN KEY (requirement_id, requirement_version)
        REFERENCES requirements(requirement_id, version) ON DELETE CASCADE,
    FOREIGN KEY (testcase_id, testcase_version)
        REFERENCES testcases(testcase_id, version) ON DELETE CASCADE
);`

// =============================================================================
// TCM INTEGRATION TABLES
// =============================================================================

const createTCMIntegrationsTable = `
CREATE TABLE tcm_integrations (
    integration_id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    tenant_id UUID NOT NULL REFERENCES tenants(tenant_id) ON DELETE CASCADE,
    integrator_type VARCHAR(50) NOT NULL CHECK (integrator_type IN ('testrail', 'zephyr', 'xray')),
    name VARCHAR(255) NOT NULL,
    description TEXT,
    is_active BOOLEAN DEFAULT TRUE,
    created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP NOT NULL,
    updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP NOT NULL
);`

// check_auth_method: a credential must carry an API key or a full
// username/password pair.
const createTCMCredentialsTable = `
CREATE TABLE tcm_credentials (
    credential_id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    integration_id UUID NOT NULL REFERENCES tcm_integrations(integration_id) ON DELETE CASCADE,
    base_url TEXT NOT NULL,
    api_key TEXT,
    username TEXT,
    password TEXT,
    created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP NOT NULL,
    updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP NOT NULL,
    CONSTRAINT check_auth_method CHECK (
        (api_key IS NOT NULL AND api_key != '') OR
        (username IS NOT NULL AND username != '' AND password IS NOT NULL AND password != '')
    )
);`

const createTCMTestcaseMappingsTable = `
CREATE TABLE tcm_testcase_mappings (
    mapping_id SERIAL PRIMARY KEY,
    testcase_id UUID NOT NULL,
    tcm_tool TEXT CHECK (tcm_tool IN ('testrail','zephyr','xray')) NOT NULL,
    external_testcase_id TEXT NOT NULL,
    sync_direction TEXT CHECK (sync_direction IN ('PUSH','PULL','BIDIRECTIONAL')) DEFAULT 'BIDIRECTIONAL',
    last_synced_at TIMESTAMPTZ,
    UNIQUE(testcase_id, tcm_tool)
);`

const createTestRailProjectsTable = `
CREATE TABLE testrail_projects (
    project_id SERIAL PRIMARY KEY,
    integration_id UUID NOT NULL REFERENCES tcm_integrations(integration_id) ON DELETE CASCADE,
    external_project_id INTEGER NOT NULL,
    project_name VARCHAR(255) NOT NULL,
    project_description TEXT,
    project_mode INTEGER DEFAULT 0,
    is_active BOOLEAN DEFAULT TRUE NOT NULL,
    created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP NOT NULL,
    last_synced_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP NOT NULL
);`

const createTestRailSuitesTable = `
CREATE TABLE testrail_suites (
    suite_id SERIAL PRIMARY KEY,
    project_id INTEGER NOT NULL REFERENCES testrail_projects(project_id) ON DELETE CASCADE,
    external_suite_id INTEGER NOT NULL,
    suite_name VARCHAR(255) NOT NULL,
    suite_description TEXT,
    is_active BOOLEAN DEFAULT FALSE NOT NULL,
    created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP NOT NULL,
    last_synced_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP NOT NULL,
    UNIQUE(project_id, external_suite_id)
);`

const createZephyrProjectsTable = `
CREATE TABLE zephyr_projects (
    project_id SERIAL PRIMARY KEY,
    integration_id UUID NOT NULL REFERENCES tcm_integrations(integration_id) ON DELETE CASCADE,
    project_key VARCHAR(50) NOT NULL,
    project_name VARCHAR(255) NOT NULL,
    project_lead VARCHAR(255),
    created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP NOT NULL,
    last_synced_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP NOT NULL
);`

const createXrayProjectsTable = `
CREATE TABLE xray_projects (
    project_id SERIAL PRIMARY KEY,
    integration_id UUID NOT NULL REFERENCES tcm_integrations(integration_id) ON DELETE CASCADE,
    project_key VARCHAR(50) NOT NULL,
    project_name VARCHAR(255) NOT NULL,
    project_type VARCHAR(50),
    created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP NOT NULL,
    last_synced_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP NOT NULL
);`

// =============================================================================
// TRACEABILITY AND SUBSCRIPTION TABLES
// =============================================================================

const createTraceabilityMatrixTable = `
CREATE TABLE traceability_matrix (
    matrix_id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    requirement_id UUID NOT NULL,
    version INTEGER NOT NULL,
    status TEXT CHECK (status IN ('NOT_STARTED', 'IN_PROGRESS', 'COMPLETED', 'FAILED')) DEFAULT 'NOT_STARTED',
    traceability_data JSON,
    created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP NOT NULL,
    updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP NOT NULL,
    UNIQUE(requirement_id, version)
);`

const createPlansTable = `
CREATE TABLE plans (
    plan_id SERIAL PRIMARY KEY,
    name VARCHAR(100) NOT NULL UNIQUE,
    description TEXT,
    price VARCHAR(20) NOT NULL DEFAULT '0.00',
    duration VARCHAR(20) NOT NULL DEFAULT 'monthly',
    limits JSON NOT NULL,
    is_active BOOLEAN DEFAULT TRUE NOT NULL,
    created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP NOT NULL,
    updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP NOT NULL
);`

const createSubscriptionsTable = `
CREATE TABLE subscriptions (
    subscription_id SERIAL PRIMARY KEY,
    tenant_id UUID NOT NULL REFERENCES tenants(tenant_id) ON DELETE CASCADE,
    plan_id INTEGER NOT NULL REFERENCES plans(plan_id),
    status VARCHAR(20) NOT NULL DEFAULT 'ACTIVE' CHECK (status IN ('ACTIVE', 'SUSPENDED', 'CANCELLED', 'EXPIRED')),
    start_date TIMESTAMPTZ NOT NULL,
    end_date TIMESTAMPTZ,
    auto_renew BOOLEAN DEFAULT TRUE NOT NULL,
    created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP NOT NULL,
    updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP NOT NULL,
    UNIQUE(tenant_id)
);`

const createUsageTable = `
CREATE TABLE usage (
    usage_id SERIAL PRIMARY KEY,
    subscription_id INTEGER NOT NULL REFERENCES subscriptions(subscription_id) ON DELETE CASCADE,
    metric VARCHAR(50) NOT NULL,
    used INTEGER NOT NULL DEFAULT 0,
    "limit" INTEGER NOT NULL,
    reset_date TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP NOT NULL,
    updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP NOT NULL,
    UNIQUE(subscription_id, metric)
);`

// tableBuildOrder returns the CREATE TABLE statements in foreign key
// dependency order: every referenced table precedes its dependents.
func tableBuildOrder() []statement {
	return []statement{
		{"tenants", createTenantsTable},
		{"requirement_labels", createRequirementLabelsTable},
		{"requirements", createRequirementsTable},
		{"testcases", createTestcasesTable},
		{"sections", createSectionsTable},
		{"testcase_section_map", createTestcaseSectionMapTable},
		{"requirement_testcase_map", createRequirementTestcaseMapTable},
		{"users", createUsersTable},
		{"tcm_integrations", createTCMIntegrationsTable},
		{"tcm_credentials", createTCMCredentialsTable},
		{"tcm_testcase_mappings", createTCMTestcaseMappingsTable},
		{"testrail_projects", createTestRailProjectsTable},
		{"testrail_suites", createTestRailSuitesTable},
		{"zephyr_projects", createZephyrProjectsTable},
		{"xray_projects", createXrayProjectsTable},
		{"traceability_matrix", createTraceabilityMatrixTable},
		{"plans", createPlansTable},
		{"subscriptions", createSubscriptionsTable},
		{"usage", createUsageTable},
	}
}

// =============================================================================
// INDEXES
// =============================================================================

// schemaIndexes pairs each index name with its target expression.
var schemaIndexes = []struct {
	name   string
	target string
}{
	// Requirement label indexes
	{"idx_requirement_labels_tenant_id", "requirement_labels(tenant_id)"},
	{"idx_requirement_labels_name", "requirement_labels(requirement_label)"},

	// Requirement indexes
	{"idx_requirements_requirement_id", "requirements(requirement_id)"},
	{"idx_requirements_label_id", "requirements(label_id)"},
	{"idx_requirements_tenant_id", "requirements(tenant_id)"},
	{"idx_requirements_version", "requirements(requirement_id, version)"},
	{"idx_requirements_label_id_version", "requirements(label_id, version)"},

	// Testcase indexes
	{"idx_testcases_testcase_id", "testcases(testcase_id)"},
	{"idx_testcases_requirement_id", "testcases(requirement_id)"},
	{"idx_testcases_version", "testcases(testcase_id, version)"},
	{"idx_testcases_derived_from", "testcases(derived_from_row_id)"},
	{"idx_testcases_req_id_version", "testcases(requirement_id, version)"},

	// Section and link indexes
	{"idx_sections_tenant_id", "sections(tenant_id)"},
	{"idx_sections_name", "sections(section_name)"},
	{"idx_tsm_testcase_id", "testcase_section_map(testcase_id)"},
	{"idx_tsm_section_id", "testcase_section_map(section_id)"},

	{"idx_map_requirement_id", "requirement_testcase_map(requirement_id)"},
	{"idx_map_testcase_id", "requirement_testcase_map(testcase_id)"},
	{"idx_map_requirement_version", "requirement_testcase_map(requirement_id, requirement_version)"},
	{"idx_map_testcase_version", "requirement_testcase_map(testcase_id, testcase_version)"},

	// IAM indexes
	{"idx_users_tenant_id", "users(tenant_id)"},
	{"idx_users_email", "users(email)"},
	{"idx_users_auth_provider", "users(auth_provider)"},

	// TCM integration indexes
	{"idx_tcm_integrations_tenant_id", "tcm_integrations(tenant_id)"},
	{"idx_tcm_integrations_integrator_type", "tcm_integrations(integrator_type)"},
	{"idx_tcm_credentials_integration_id", "tcm_credentials(integration_id)"},

	// TestRail project indexes
	{"idx_testrail_projects_integration_id", "testrail_projects(integration_id)"},
	{"idx_testrail_projects_external_id", "testrail_projects(external_project_id)"},
	{"idx_testrail_projects_is_active", "testrail_projects(is_active)"},
	{"idx_testrail_projects_mode", "testrail_projects(project_mode)"},

	// TestRail suite indexes
	{"idx_testrail_suites_project_id", "testrail_suites(project_id)"},
	{"idx_testrail_suites_external_id", "testrail_suites(external_suite_id)"},
	{"idx_testrail_suites_is_active", "testrail_suites(is_active)"},

	// Zephyr project indexes
	{"idx_zephyr_projects_integration_id", "zephyr_projects(integration_id)"},
	{"idx_zephyr_projects_project_key", "zephyr_projects(project_key)"},

	// Xray project indexes
	{"idx_xray_projects_integration_id", "xray_projects(integration_id)"},
	{"idx_xray_projects_project_key", "xray_projects(project_key)"},

	// TCM testcase mapping indexes
	{"idx_tcm_tc_mappings_tool", "tcm_testcase_mappings(tcm_tool)"},
	{"idx_tcm_tc_mappings_external", "tcm_testcase_mappings(external_testcase_id)"},

	// Traceability matrix indexes
	{"idx_traceability_matrix_requirement_id", "traceability_matrix(requirement_id)"},
	{"idx_traceability_matrix_version", "traceability_matrix(version)"},
	{"idx_traceability_matrix_status", "traceability_matrix(status)"},

	// Subscription indexes
	{"idx_plans_name", "plans(name)"},
	{"idx_plans_is_active", "plans(is_active)"},
	{"idx_subscriptions_tenant_id", "subscriptions(tenant_id)"},
	{"idx_subscriptions_plan_id", "subscriptions(plan_id)"},
	{"idx_subscriptions_status", "subscriptions(status)"},
	{"idx_usage_subscription_id", "usage(subscription_id)"},
	{"idx_usage_metric", "usage(metric)"},
	{"idx_usage_reset_date", "usage(reset_date)"},
}

// schemaUniqueIndexes covers the natural keys that need tenant- or
// tool-scoped uniqueness, including the partial indexes.
var schemaUniqueIndexes = []struct {
	name   string
	target string
}{
	{"ux_tenants_primary_domain", "tenants(primary_domain) WHERE primary_domain IS NOT NULL"},
	{"ux_users_provider_subject", "users(auth_provider, external_subject) WHERE external_subject IS NOT NULL"},
	{"ux_sections_tenant_name", "sections(tenant_id, section_name)"},
	{"ux_tsm_testcase_section", "testcase_section_map(testcase_id, section_id)"},
	{"ux_tcm_tc_map_testcase_tool", "tcm_testcase_mappings(testcase_id, tcm_tool)"},
}

func indexStatements() []statement {
	statements := make([]statement, 0, len(schemaIndexes)+len(schemaUniqueIndexes))
	for _, idx := range schemaIndexes {
		statements = append(statements, statement{
			object: idx.name,
			sql:    fmt.Sprintf("CREATE INDEX %s ON %s;", idx.name, idx.target),
		})
	}
	for _, idx := range schemaUniqueIndexes {
		statements = append(statements, statement{
			object: idx.name,
			sql:    fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s;", idx.name, idx.target),
		})
	}
	return statements
}

// =============================================================================
// TRIGGERS
// =============================================================================

// updatedAtFunction stamps updated_at on every UPDATE so callers never set
// the column themselves.
const updatedAtFunction = `
CREATE OR REPLACE FUNCTION update_updated_at_column()
RETURNS TRIGGER AS $$
BEGIN
    NEW.updated_at = CURRENT_TIMESTAMP;
    RETURN NEW;
END;
$$ language 'plpgsql';`

// updatedAtTables is the fixed set of audited tables.
var updatedAtTables = []string{
	"requirement_labels",
	"requirements",
	"testcases",
	"tenants",
	"users",
	"tcm_integrations",
	"tcm_credentials",
	"traceability_matrix",
	"plans",
	"subscriptions",
	"usage",
}

// cascadeSectionLinksFunction removes a testcase's section links when its TCM
// mapping is deleted, but only for sections originating from the same tool.
// Links into internally created sections are left untouched.
const cascadeSectionLinksFunction = `
CREATE OR REPLACE FUNCTION cascade_delete_section_links_for_tcm()
RETURNS TRIGGER AS $$
BEGIN
    -- Remove links only for sections that originated from the same TCM tool
    DELETE FROM testcase_section_map m
    USING sections s
    WHERE m.section_id = s.section_id
      AND m.testcase_id = OLD.testcase_id
      AND s.source = OLD.tcm_tool;
    RETURN NULL; -- AFTER DELETE trigger
END;
$$ LANGUAGE plpgsql;`

const cascadeSectionLinksTrigger = `
DROP TRIGGER IF EXISTS trg_cascade_tcm_mapping_delete ON tcm_testcase_mappings;
CREATE TRIGGER trg_cascade_tcm_mapping_delete
AFTER DELETE ON tcm_testcase_mappings
FOR EACH ROW
EXECUTE FUNCTION cascade_delete_section_links_for_tcm();`

func triggerStatements() []statement {
	statements := []statement{
		{"update_updated_at_column function", updatedAtFunction},
	}
	for _, table := range updatedAtTables {
		statements = append(statements, statement{
			object: fmt.Sprintf("update_%s_updated_at trigger", table),
			sql: fmt.Sprintf(
				"CREATE TRIGGER update_%s_updated_at BEFORE UPDATE ON %s FOR EACH ROW EXECUTE FUNCTION update_updated_at_column();",
				table, table),
		})
	}
	statements = append(statements,
		statement{"cascade_delete_section_links_for_tcm function", cascadeSectionLinksFunction},
		statement{"trg_cascade_tcm_mapping_delete trigger", cascadeSectionLinksTrigger},
	)
	return statements
}

// =============================================================================
// VIEWS
// =============================================================================

// requirementSectionsView answers "which sections does a requirement's test
// content touch" without callers writing the three-way join.
const requirementSectionsView = `
CREATE OR REPLACE VIEW requirement_sections_v AS
SELECT DISTINCT rtm.requirement_id, s.section_id, s.section_name
FROM requirement_testcase_map rtm
JOIN testcase_section_map tsm ON tsm.testcase_id = rtm.testcase_id
JOIN sections s ON s.section_id = tsm.section_id;`

func viewStatements() []statement {
	return []statement{
		{"requirement_sections_v view", requirementSectionsView},
	}
}
