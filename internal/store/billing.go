package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const planColumns = `plan_id, name, description, price, duration, limits, is_active, created_at, updated_at`

const subscriptionColumns = `subscription_id, tenant_id, plan_id, status, start_date, end_date, auto_renew, created_at, updated_at`

func scanPlan(row pgx.Row) (*Plan, error) {
	var p Plan
	err := row.Scan(
		&p.PlanID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Duration,
		&p.Limits,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var sub Subscription
	err := row.Scan(
		&sub.SubscriptionID,
		&sub.TenantID,
		&sub.PlanID,
		&sub.Status,
		&sub.StartDate,
		&sub.EndDate,
		&sub.AutoRenew,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func scanUsage(row pgx.Row) (*Usage, error) {
	var u Usage
	err := row.Scan(
		&u.UsageID,
		&u.SubscriptionID,
		&u.Metric,
		&u.Used,
		&u.Limit,
		&u.ResetDate,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// PlanByName retrieves a plan by its unique name.
func (s *Store) PlanByName(ctx context.Context, name string) (*Plan, error) {
	row := s.db.Pool().QueryRow(ctx, `
		SELECT `+planColumns+`
		FROM plans
		WHERE name = $1
	`, name)

	plan, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return plan, nil
}

// ListPlans retrieves every plan.
func (s *Store) ListPlans(ctx context.Context) ([]*Plan, error) {
	rows, err := s.db.Pool().Query(ctx, `
		SELECT `+planColumns+`
		FROM plans
		ORDER BY plan_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []*Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return plans, nil
}

// Subscribe puts a tenant on the named plan and seeds one usage counter per
// metric from the plan's limits. A tenant has at most one subscription;
// subscribing again switches the plan, reactivates the subscription, and
// resets the counters' limits.
func (s *Store) Subscribe(ctx context.Context, tenantID uuid.UUID, planName string) (*Subscription, error) {
	plan, err := s.PlanByName(ctx, planName)
	if err != nil {
		return nil, err
	}

	var limits map[string]int
	if err := json.Unmarshal(plan.Limits, &limits); err != nil {
		return nil, fmt.Errorf("failed to parse limits of plan %s: %w", plan.Name, err)
	}

	tx, err := s.db.Pool().Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO subscriptions (tenant_id, plan_id, start_date)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (tenant_id) DO UPDATE
		SET plan_id = EXCLUDED.plan_id, status = 'ACTIVE', start_date = EXCLUDED.start_date
		RETURNING `+subscriptionColumns,
		tenantID, plan.PlanID)

	subscription, err := scanSubscription(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	resetDate := nextResetDate(plan.Duration)
	for metric, limit := range limits {
		_, err := tx.Exec(ctx, `
			INSERT INTO usage (subscription_id, metric, "limit", reset_date)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (subscription_id, metric) DO UPDATE
			SET "limit" = EXCLUDED."limit", reset_date = EXCLUDED.reset_date
		`, subscription.SubscriptionID, metric, limit, resetDate)
		if err != nil {
			return nil, fmt.Errorf("failed to seed usage counter for %s: %w", metric, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Infof("Subscribed tenant %s to plan %s", tenantID, plan.Name)
	return subscription, nil
}

// nextResetDate returns when usage counters roll over. Lifetime plans never
// reset and get a far-future date.
func nextResetDate(duration string) time.Time {
	now := time.Now().UTC()
	switch duration {
	case "monthly":
		return now.AddDate(0, 1, 0)
	case "yearly":
		return now.AddDate(1, 0, 0)
	default:
		return now.AddDate(100, 0, 0)
	}
}

// GetSubscription retrieves a tenant's subscription.
func (s *Store) GetSubscription(ctx context.Context, tenantID uuid.UUID) (*Subscription, error) {
	row := s.db.Pool().QueryRow(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE tenant_id = $1
	`, tenantID)

	subscription, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return subscription, nil
}

// SetSubscriptionStatus moves a subscription between lifecycle states.
func (s *Store) SetSubscriptionStatus(ctx context.Context, tenantID uuid.UUID, status string) error {
	tag, err := s.db.Pool().Exec(ctx, `
		UPDATE subscriptions
		SET status = $2
		WHERE tenant_id = $1
	`, tenantID, status)
	if err != nil {
		return fmt.Errorf("failed to update subscription status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordUsage adds amount to a tenant's usage counter for a metric. A
// negative limit means unlimited. If the addition would push the counter
// past its limit nothing is recorded and ErrLimitExceeded is returned.
func (s *Store) RecordUsage(ctx context.Context, tenantID uuid.UUID, metric string, amount int) (*Usage, error) {
	row := s.db.Pool().QueryRow(ctx, `
		UPDATE usage u
		SET used = u.used + $3
		FROM subscriptions sub
		WHERE u.subscription_id = sub.subscription_id
		  AND sub.tenant_id = $1
		  AND u.metric = $2
		  AND (u."limit" < 0 OR u.used + $3 <= u."limit")
		RETURNING u.usage_id, u.subscription_id, u.metric, u.used, u."limit", u.reset_date, u.created_at, u.updated_at
	`, tenantID, metric, amount)

	usage, err := scanUsage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Distinguish a missing counter from an exhausted one
			var exists bool
			checkErr := s.db.Pool().QueryRow(ctx, `
				SELECT EXISTS(
					SELECT 1 FROM usage u
					JOIN subscriptions sub ON sub.subscription_id = u.subscription_id
					WHERE sub.tenant_id = $1 AND u.metric = $2
				)
			`, tenantID, metric).Scan(&exists)
			if checkErr != nil {
				return nil, fmt.Errorf("failed to check usage counter: %w", checkErr)
			}
			if !exists {
				return nil, ErrNotFound
			}
			return nil, ErrLimitExceeded
		}
		return nil, fmt.Errorf("failed to record usage: %w", err)
	}

	return usage, nil
}

// ListUsage retrieves every usage counter of a tenant's subscription.
func (s *Store) ListUsage(ctx context.Context, tenantID uuid.UUID) ([]*Usage, error) {
	rows, err := s.db.Pool().Query(ctx, `
		SELECT u.usage_id, u.subscription_id, u.metric, u.used, u."limit", u.reset_date, u.created_at, u.updated_at
		FROM usage u
		JOIN subscriptions sub ON sub.subscription_id = u.subscription_id
		WHERE sub.tenant_id = $1
		ORDER BY u.metric
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage: %w", err)
	}
	defer rows.Close()

	var usages []*Usage
	for rows.Next() {
		usage, err := scanUsage(rows)
		if err != nil {
			return nil, err
		}
		usages = append(usages, usage)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return usages, nil
}
