package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQL represents a PostgreSQL database connection
type PostgreSQL struct {
	pool *pgxpool.Pool
}

type PostgreSQLConfig struct {
	User              string
	Password          string
	Host              string
	Port              int
	Database          string
	SSLMode           string
	MaxConnections    int32
	ConnectionTimeout time.Duration
}

// New creates a new PostgreSQL instance
func New(ctx context.Context, cfg PostgreSQLConfig) (*PostgreSQL, error) {
	// Validate required configuration
	if cfg.Database == "" {
		return nil, fmt.Errorf("database name is required")
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("database host is required")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("database user is required")
	}

	// Use pgxpool.ParseConfig to handle special characters in passwords
	poolConfig, err := pgxpool.ParseConfig("")
	if err != nil {
		return nil, fmt.Errorf("failed to create connection config: %w", err)
	}

	// Set connection parameters individually to avoid URL parsing issues
	poolConfig.ConnConfig.Host = cfg.Host
	poolConfig.ConnConfig.Port = uint16(cfg.Port)
	poolConfig.ConnConfig.Database = cfg.Database
	poolConfig.ConnConfig.User = cfg.User
	poolConfig.ConnConfig.Password = cfg.Password
	poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectionTimeout

	// Set SSL mode through TLS config
	switch cfg.SSLMode {
	case "disable":
		poolConfig.ConnConfig.TLSConfig = nil
	case "require", "prefer":
		// pgx will handle the TLS negotiation automatically
	default:
		// For other SSL modes, use default behavior
	}

	// Set pool configuration
	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = cfg.MaxConnections
	}
	poolConfig.MaxConnIdleTime = cfg.ConnectionTimeout

	// Create the connection pool
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgreSQL{pool: pool}, nil
}

// Pool returns the underlying connection pool
func (db *PostgreSQL) Pool() *pgxpool.Pool {
	return db.pool
}

// Close closes the database connection
func (db *PostgreSQL) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// CreateDatabase connects to the administrative "postgres" database with the
// same credentials and creates cfg.Database if it does not exist yet.
func CreateDatabase(ctx context.Context, cfg PostgreSQLConfig) error {
	if cfg.Database == "" {
		return fmt.Errorf("database name is required")
	}

	adminCfg := cfg
	adminCfg.Database = "postgres"

	poolConfig, err := pgxpool.ParseConfig("")
	if err != nil {
		return fmt.Errorf("failed to create connection config: %w", err)
	}

	poolConfig.ConnConfig.Host = adminCfg.Host
	poolConfig.ConnConfig.Port = uint16(adminCfg.Port)
	poolConfig.ConnConfig.Database = adminCfg.Database
	poolConfig.ConnConfig.User = adminCfg.User
	poolConfig.ConnConfig.Password = adminCfg.Password
	poolConfig.ConnConfig.ConnectTimeout = adminCfg.ConnectionTimeout
	if adminCfg.SSLMode == "disable" {
		poolConfig.ConnConfig.TLSConfig = nil
	}

	adminPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to default database: %w", err)
	}
	defer adminPool.Close()

	_, err = adminPool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", cfg.Database))
	if err != nil {
		// Tolerate a database that already exists so the flag is re-runnable
		if strings.Contains(err.Error(), "already exists") {
			return nil
		}
		return fmt.Errorf("failed to create database: %w", err)
	}

	return nil
}
