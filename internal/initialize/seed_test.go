package initialize

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTenantFixture(t *testing.T) {
	// The default tenant occupies the nil UUID so rows created before tenant
	// separation have a well-known home
	assert.Equal(t, uuid.Nil, DefaultTenantID)
	assert.Equal(t, "00000000-0000-0000-0000-000000000000", DefaultTenantID.String())

	assert.Equal(t, "Default Tenant", defaultTenant.Name)
	assert.Equal(t, "ORGANIZATION", defaultTenant.Type)
	assert.Equal(t, "ACTIVE", defaultTenant.State)
	assert.Equal(t, "default.testcase-platform.com", defaultTenant.PrimaryDomain)

	// Reseeding an already-seeded database must not duplicate the tenant
	assert.Contains(t, insertDefaultTenantSQL, "ON CONFLICT (tenant_id) DO NOTHING")
}

func TestDefaultPlanFixtures(t *testing.T) {
	require.Len(t, defaultPlans, 3)

	limitsFor := func(plan planFixture) map[string]int {
		var limits map[string]int
		require.NoError(t, json.Unmarshal([]byte(plan.Limits), &limits),
			"plan %s carries invalid limits JSON", plan.Name)
		return limits
	}

	free := defaultPlans[0]
	assert.Equal(t, "Free", free.Name)
	assert.Equal(t, "0.00", free.Price)
	assert.Equal(t, "monthly", free.Duration)
	assert.Equal(t, map[string]int{"uploads": 5, "testcases": 50, "api_calls": 1000}, limitsFor(free))

	pro := defaultPlans[1]
	assert.Equal(t, "Pro", pro.Name)
	assert.Equal(t, "99.00", pro.Price)
	assert.Equal(t, "monthly", pro.Duration)
	assert.Equal(t, map[string]int{"uploads": 500, "testcases": 5000, "api_calls": 100000}, limitsFor(pro))

	unlimited := defaultPlans[2]
	assert.Equal(t, "Unlimited", unlimited.Name)
	assert.Equal(t, "0.00", unlimited.Price)
	assert.Equal(t, "lifetime", unlimited.Duration)
	// -1 lifts the cap on a metric
	assert.Equal(t, map[string]int{"uploads": -1, "testcases": -1, "api_calls": -1}, limitsFor(unlimited))

	for _, plan := range defaultPlans {
		assert.True(t, plan.IsActive, "plan %s should seed active", plan.Name)
	}

	assert.Contains(t, insertPlanSQL, "ON CONFLICT (name) DO NOTHING")
}
