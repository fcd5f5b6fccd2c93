package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Tenant types
const (
	TenantTypePersonal     = "PERSONAL"
	TenantTypeOrganization = "ORGANIZATION"
)

// Lifecycle states shared by tenants and users
const (
	StateActive  = "ACTIVE"
	StatePending = "PENDING"
)

// Authentication providers
const (
	AuthProviderGoogle   = "GOOGLE"
	AuthProviderLinkedIn = "LINKEDIN"
	AuthProviderLDAP     = "LDAP"
	AuthProviderSAML     = "SAML"
	AuthProviderLocal    = "LOCAL"
	AuthProviderEmbedded = "EMBEDDED"
)

// Testcase generation states of a requirement version
const (
	GenerationNotStarted = "NOT_STARTED"
	GenerationInProgress = "IN_PROGRESS"
	GenerationCompleted  = "COMPLETED"
	GenerationFailed     = "FAILED"
	GenerationSynched    = "SYNCHED"
)

// Testcase sync states
const (
	SyncStatusNew     = "NEW"
	SyncStatusUpdated = "UPDATED"
	SyncStatusSynched = "SYNCHED"
)

// Testcase priorities. The column is free text; these are the conventional
// values.
const (
	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
	PriorityLow    = "LOW"
)

// External test case management tools
const (
	ToolTestRail = "testrail"
	ToolZephyr   = "zephyr"
	ToolXray     = "xray"
)

// Section sources. Externally synced sections use the tool name as source.
const (
	SectionSourceInternal = "internal"
)

// Mapping sync directions
const (
	SyncDirectionPush          = "PUSH"
	SyncDirectionPull          = "PULL"
	SyncDirectionBidirectional = "BIDIRECTIONAL"
)

// Subscription states
const (
	SubscriptionActive    = "ACTIVE"
	SubscriptionSuspended = "SUSPENDED"
	SubscriptionCancelled = "CANCELLED"
	SubscriptionExpired   = "EXPIRED"
)

// Tenant is one isolated customer of the platform.
type Tenant struct {
	TenantID      uuid.UUID
	Name          string
	Type          string
	State         string
	PrimaryDomain *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// User is a member of a tenant, authenticated by an external provider.
type User struct {
	UserID          uuid.UUID
	TenantID        uuid.UUID
	Email           string
	Name            *string
	AuthProvider    string
	ExternalSubject *string
	State           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RequirementLabel is a tenant-scoped grouping key for requirements.
type RequirementLabel struct {
	ID        int
	TenantID  uuid.UUID
	Label     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Requirement is one version of a requirement. RequirementID is stable
// across versions; RowID identifies this exact row.
type Requirement struct {
	RequirementID    uuid.UUID
	RowID            int64
	TenantID         uuid.UUID
	LabelID          int
	Title            string
	Version          int
	RawText          *string
	Detail           json.RawMessage
	GenerationStatus string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	MetaInfo         json.RawMessage
}

// Testcase is one version of a testcase. DerivedFromRowID is a back-reference
// to the row this testcase was derived from, if any.
type Testcase struct {
	TestcaseID       uuid.UUID
	RowID            int64
	RequirementID    uuid.UUID
	Title            string
	Steps            json.RawMessage
	ExpectedResult   string
	Status           string
	SyncStatus       string
	Version          int
	Priority         string
	DerivedFromRowID *int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
	MetaInfo         json.RawMessage
}

// Section is a tenant-scoped grouping of testcases, either created internally
// or mirrored from an external tool.
type Section struct {
	SectionID         uuid.UUID
	TenantID          uuid.UUID
	Name              string
	Source            string
	ExternalSectionID *string
	ExternalSuiteID   *string
	Description       *string
	CreatedAt         time.Time
}

// RequirementSection is one row of the requirement_sections_v view.
type RequirementSection struct {
	RequirementID uuid.UUID
	SectionID     uuid.UUID
	SectionName   string
}

// TCMIntegration is one configured external tool instance for a tenant.
type TCMIntegration struct {
	IntegrationID uuid.UUID
	TenantID      uuid.UUID
	Type          string
	Name          string
	Description   *string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TCMCredential holds the connection secrets for an integration.
type TCMCredential struct {
	CredentialID  uuid.UUID
	IntegrationID uuid.UUID
	BaseURL       string
	APIKey        *string
	Username      *string
	Password      *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TestcaseMapping binds an internal testcase to its counterpart in an
// external tool. At most one mapping exists per testcase and tool.
type TestcaseMapping struct {
	MappingID          int
	TestcaseID         uuid.UUID
	Tool               string
	ExternalTestcaseID string
	SyncDirection      string
	LastSyncedAt       *time.Time
}

// TraceabilityEntry is the analysis state for one requirement version.
type TraceabilityEntry struct {
	MatrixID      uuid.UUID
	RequirementID uuid.UUID
	Version       int
	Status        string
	Data          json.RawMessage
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Plan is a subscription plan. Limits is raw JSON mapping metric names to
// integer limits; -1 means unlimited.
type Plan struct {
	PlanID      int
	Name        string
	Description *string
	Price       string
	Duration    string
	Limits      json.RawMessage
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Subscription binds a tenant to a plan. A tenant has at most one.
type Subscription struct {
	SubscriptionID int
	TenantID       uuid.UUID
	PlanID         int
	Status         string
	StartDate      time.Time
	EndDate        *time.Time
	AutoRenew      bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Usage tracks consumption of one metric under a subscription.
type Usage struct {
	UsageID        int
	SubscriptionID int
	Metric         string
	Used           int
	Limit          int
	ResetDate      time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
