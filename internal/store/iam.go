package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const tenantColumns = `tenant_id, tenant_name, tenant_type, tenant_state, primary_domain, created_at, updated_at`

const userColumns = `user_id, tenant_id, email, name, auth_provider, external_subject, state, created_at, updated_at`

func scanTenant(row pgx.Row) (*Tenant, error) {
	var t Tenant
	err := row.Scan(
		&t.TenantID,
		&t.Name,
		&t.Type,
		&t.State,
		&t.PrimaryDomain,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.UserID,
		&u.TenantID,
		&u.Email,
		&u.Name,
		&u.AuthProvider,
		&u.ExternalSubject,
		&u.State,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateTenant creates a new tenant. The primary domain is optional and
// unique across tenants when set.
func (s *Store) CreateTenant(ctx context.Context, name, tenantType, primaryDomain string) (*Tenant, error) {
	switch tenantType {
	case TenantTypePersonal, TenantTypeOrganization:
	default:
		return nil, fmt.Errorf("unsupported tenant type %q", tenantType)
	}

	s.logger.Infof("Creating tenant %q", name)

	row := s.db.Pool().QueryRow(ctx, `
		INSERT INTO tenants (tenant_name, tenant_type, primary_domain)
		VALUES ($1, $2, $3)
		RETURNING `+tenantColumns,
		name, tenantType, nullableText(primaryDomain))

	tenant, err := scanTenant(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}
	return tenant, nil
}

// GetTenant retrieves one tenant by ID.
func (s *Store) GetTenant(ctx context.Context, tenantID uuid.UUID) (*Tenant, error) {
	row := s.db.Pool().QueryRow(ctx, `
		SELECT `+tenantColumns+`
		FROM tenants
		WHERE tenant_id = $1
	`, tenantID)

	tenant, err := scanTenant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return tenant, nil
}

// CreateUser adds a user to a tenant. Email is unique across the platform;
// the provider defaults to GOOGLE and the external subject, when set, is
// unique per provider.
func (s *Store) CreateUser(ctx context.Context, tenantID uuid.UUID, email, name, authProvider, externalSubject string) (*User, error) {
	if authProvider == "" {
		authProvider = AuthProviderGoogle
	}

	s.logger.Infof("Creating user %s in tenant %s", email, tenantID)

	row := s.db.Pool().QueryRow(ctx, `
		INSERT INTO users (tenant_id, email, name, auth_provider, external_subject)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		tenantID, email, nullableText(name), authProvider, nullableText(externalSubject))

	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves one user by email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.Pool().QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, email)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
