package initialize

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DefaultTenantID is the well-known tenant every deployment starts with.
// Rows that predate tenant separation land here.
var DefaultTenantID = uuid.Nil

// defaultTenant is the seed row for the default tenant.
var defaultTenant = struct {
	Name          string
	Type          string
	State         string
	PrimaryDomain string
}{
	Name:          "Default Tenant",
	Type:          "ORGANIZATION",
	State:         "ACTIVE",
	PrimaryDomain: "default.testcase-platform.com",
}

// planFixture is one seed subscription plan. Limits is raw JSON; -1 means
// unlimited for that metric.
type planFixture struct {
	Name        string
	Description string
	Price       string
	Duration    string
	Limits      string
	IsActive    bool
}

var defaultPlans = []planFixture{
	{
		Name:        "Free",
		Description: "Default free plan with limited features",
		Price:       "0.00",
		Duration:    "monthly",
		Limits:      `{"uploads": 5, "testcases": 50, "api_calls": 1000}`,
		IsActive:    true,
	},
	{
		Name:        "Pro",
		Description: "Professional plan with enhanced features",
		Price:       "99.00",
		Duration:    "monthly",
		Limits:      `{"uploads": 500, "testcases": 5000, "api_calls": 100000}`,
		IsActive:    true,
	},
	{
		Name:        "Unlimited",
		Description: "Standalone unlimited plan",
		Price:       "0.00",
		Duration:    "lifetime",
		Limits:      `{"uploads": -1, "testcases": -1, "api_calls": -1}`,
		IsActive:    true,
	},
}

const insertDefaultTenantSQL = `
INSERT INTO tenants (tenant_id, tenant_name, tenant_type, tenant_state, primary_domain)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (tenant_id) DO NOTHING;`

const insertPlanSQL = `
INSERT INTO plans (name, description, price, duration, limits, is_active)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (name) DO NOTHING;`

// seedDefaultTenant inserts the default tenant if it does not already exist.
func (i *Initializer) seedDefaultTenant(ctx context.Context, conn *pgx.Conn) error {
	_, err := conn.Exec(ctx, insertDefaultTenantSQL,
		DefaultTenantID,
		defaultTenant.Name,
		defaultTenant.Type,
		defaultTenant.State,
		defaultTenant.PrimaryDomain,
	)
	if err != nil {
		return fmt.Errorf("failed to seed default tenant: %w", err)
	}
	i.logger.Info("Seeded default tenant")
	return nil
}

// seedDefaultPlans inserts the built-in subscription plans if missing.
func (i *Initializer) seedDefaultPlans(ctx context.Context, conn *pgx.Conn) error {
	for _, plan := range defaultPlans {
		_, err := conn.Exec(ctx, insertPlanSQL,
			plan.Name,
			plan.Description,
			plan.Price,
			plan.Duration,
			plan.Limits,
			plan.IsActive,
		)
		if err != nil {
			return fmt.Errorf("failed to seed plan %s: %w", plan.Name, err)
		}
	}
	i.logger.Infof("Seeded %d default subscription plans", len(defaultPlans))
	return nil
}
