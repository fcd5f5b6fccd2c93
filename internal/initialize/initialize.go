package initialize

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/term"

	"github.com/reqtrace/reqtrace/internal/config"
	"github.com/reqtrace/reqtrace/internal/logger"
	"github.com/reqtrace/reqtrace/pkg/database"
)

// Initializer rebuilds the traceability database schema from scratch and
// seeds the default tenant and subscription plans.
type Initializer struct {
	logger      logger.LoggerInterface
	reader      io.Reader
	cfg         *config.Config
	credentials *DatabaseCredentialsManager
	version     string
}

// DatabaseCredentials holds the connection parameters for one attempt.
type DatabaseCredentials struct {
	User     string
	Password string
	Host     string
	Port     int
	Database string
}

// Options controls optional initialization behavior.
type Options struct {
	// CreateDatabase creates the target database first if it does not exist.
	CreateDatabase bool
	// NoPrompt disables all interactive prompts; connectivity failures are
	// fatal instead of prompting for credentials.
	NoPrompt bool
}

// New creates a new initializer instance.
func New(log logger.LoggerInterface, cfg *config.Config) *Initializer {
	return NewWithVersion(log, cfg, "unknown")
}

// NewWithVersion creates a new initializer instance with version information.
func NewWithVersion(log logger.LoggerInterface, cfg *config.Config, version string) *Initializer {
	var credentials *DatabaseCredentialsManager
	if cfg.Keyring.Enabled {
		credentials = NewDatabaseCredentialsManager(cfg.Keyring.Service, cfg.Keyring.User)
	}

	return &Initializer{
		logger:      log,
		reader:      os.Stdin,
		cfg:         cfg,
		credentials: credentials,
		version:     version,
	}
}

// Run performs the complete database initialization: connectivity check,
// drop-and-recreate of every managed object, seeding, and verification.
func (i *Initializer) Run(ctx context.Context, opts Options) error {
	i.logger.Infof("Starting database initialization (version %s)...", i.version)

	// Step 1: Resolve working database credentials
	configuredCreds := i.credentialsFromConfig()

	var workingCreds *DatabaseCredentials
	var err error
	if opts.NoPrompt {
		workingCreds, err = i.checkDatabaseConnectivityHeadless(ctx, configuredCreds)
	} else {
		workingCreds, err = i.checkDatabaseConnectivity(ctx, configuredCreds)
	}
	if err != nil {
		return fmt.Errorf("failed to establish database connectivity: %w", err)
	}

	// Step 2: Optionally create the target database
	if opts.CreateDatabase {
		if err := i.createTargetDatabase(ctx, workingCreds); err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
	}

	// Step 3: Connect for schema work
	conn, err := i.connect(ctx, workingCreds)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close(ctx)

	// Step 4: Rebuild the schema
	if err := i.rebuildSchema(ctx, conn); err != nil {
		return err
	}

	// Step 5: Seed default data
	if err := i.seedDefaultTenant(ctx, conn); err != nil {
		return err
	}
	if err := i.seedDefaultPlans(ctx, conn); err != nil {
		return err
	}

	// Step 6: Verify the rebuilt schema
	if err := i.verifySchema(ctx, conn); err != nil {
		return fmt.Errorf("schema verification failed: %w", err)
	}

	i.logger.Info("Database initialization completed successfully!")
	i.logger.Info("You can now start the platform services normally.")

	return nil
}

// rebuildSchema drops every managed object and recreates it from the
// embedded definitions. Each statement runs in its own implicit transaction
// so a failure leaves earlier objects in place and reports exactly where it
// stopped.
func (i *Initializer) rebuildSchema(ctx context.Context, conn *pgx.Conn) error {
	i.logger.Info("Rebuilding database schema...")

	// Step 1: Ensure gen_random_uuid() is available
	if err := i.execute(ctx, conn, statement{"pgcrypto extension", pgcryptoExtension}); err != nil {
		return err
	}
	i.logger.Info("Enabled pgcrypto")

	// Step 2: Drop existing tables, dependents first
	for _, stmt := range dropStatements() {
		if err := i.execute(ctx, conn, stmt); err != nil {
			return err
		}
	}
	i.logger.Infof("Dropped %d existing tables", len(tableDropOrder))

	// Step 3: Create tables in foreign key dependency order
	for _, stmt := range tableBuildOrder() {
		if err := i.execute(ctx, conn, stmt); err != nil {
			return err
		}
		i.logger.Infof("Created table %s", stmt.object)
	}

	// Step 4: Create indexes
	for _, stmt := range indexStatements() {
		if err := i.execute(ctx, conn, stmt); err != nil {
			return err
		}
	}
	i.logger.Infof("Created %d indexes", len(schemaIndexes)+len(schemaUniqueIndexes))

	// Step 5: Create trigger functions and triggers
	for _, stmt := range triggerStatements() {
		if err := i.execute(ctx, conn, stmt); err != nil {
			return err
		}
		i.logger.Infof("Created %s", stmt.object)
	}

	// Step 6: Create views
	for _, stmt := range viewStatements() {
		if err := i.execute(ctx, conn, stmt); err != nil {
			return err
		}
		i.logger.Infof("Created %s", stmt.object)
	}

	return nil
}

// execute runs one schema statement. On failure it logs the offending SQL so
// the operator sees exactly what the database rejected, then returns a
// StatementError wrapping the driver error.
func (i *Initializer) execute(ctx context.Context, conn *pgx.Conn, stmt statement) error {
	if _, err := conn.Exec(ctx, stmt.sql); err != nil {
		i.logger.Errorf("Statement failed for %s: %v", stmt.object, err)
		i.logger.Errorf("Failing SQL: %s", strings.TrimSpace(stmt.sql))
		return &StatementError{Object: stmt.object, SQL: stmt.sql, Err: err}
	}
	return nil
}

// verifySchema confirms every managed table exists and the seed rows landed.
func (i *Initializer) verifySchema(ctx context.Context, conn *pgx.Conn) error {
	i.logger.Info("Verifying database schema...")

	for _, stmt := range tableBuildOrder() {
		var exists bool
		err := conn.QueryRow(ctx, `SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = $1
		)`, stmt.object).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check table %s: %w", stmt.object, err)
		}
		if !exists {
			return fmt.Errorf("table %s is missing after rebuild", stmt.object)
		}
	}

	var tenantCount int
	if err := conn.QueryRow(ctx, "SELECT COUNT(*) FROM tenants").Scan(&tenantCount); err != nil {
		return fmt.Errorf("failed to count tenants: %w", err)
	}
	if tenantCount != 1 {
		return fmt.Errorf("expected exactly 1 seeded tenant, found %d", tenantCount)
	}

	var planCount int
	if err := conn.QueryRow(ctx, "SELECT COUNT(*) FROM plans").Scan(&planCount); err != nil {
		return fmt.Errorf("failed to count plans: %w", err)
	}
	if planCount != len(defaultPlans) {
		return fmt.Errorf("expected %d seeded plans, found %d", len(defaultPlans), planCount)
	}

	i.logger.Infof("Verified %d tables, %d tenant, %d plans", len(tableBuildOrder()), tenantCount, planCount)
	return nil
}

// credentialsFromConfig builds the starting credentials from configuration.
// Environment variable overrides have already been applied by the config
// layer.
func (i *Initializer) credentialsFromConfig() *DatabaseCredentials {
	return &DatabaseCredentials{
		User:     i.cfg.Database.User,
		Password: i.cfg.Database.Password,
		Host:     i.cfg.Database.Host,
		Port:     i.cfg.Database.Port,
		Database: i.cfg.Database.Name,
	}
}

// checkDatabaseConnectivity finds working credentials, trying the configured
// ones first, then the keyring, then prompting the operator.
func (i *Initializer) checkDatabaseConnectivity(ctx context.Context, defaultCreds *DatabaseCredentials) (*DatabaseCredentials, error) {
	i.logger.Info("Checking database connectivity...")

	// Try configured credentials first
	if err := i.testDatabaseConnection(ctx, defaultCreds); err == nil {
		i.logger.Info("Successfully connected to database with configured credentials")
		return defaultCreds, nil
	}

	// Try a previously stored keyring password before prompting
	if i.credentials != nil {
		if password, err := i.credentials.GetDatabasePassword(); err == nil {
			keyringCreds := *defaultCreds
			keyringCreds.Password = password
			if err := i.testDatabaseConnection(ctx, &keyringCreds); err == nil {
				i.logger.Info("Successfully connected to database with keyring credentials")
				return &keyringCreds, nil
			}
		}
	}

	i.logger.Warn("Could not connect with configured credentials, prompting for custom credentials...")

	// Prompt for custom credentials
	creds := &DatabaseCredentials{
		Host:     defaultCreds.Host,
		Port:     defaultCreds.Port,
		Database: defaultCreds.Database,
	}

	fmt.Printf("Enter PostgreSQL username [%s]: ", defaultCreds.User)
	if username := i.readInput(); username != "" {
		creds.User = username
	} else {
		creds.User = defaultCreds.User
	}

	fmt.Print("Enter PostgreSQL password: ")
	password, err := i.readPassword()
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	creds.Password = password

	fmt.Printf("Enter PostgreSQL host [%s]: ", defaultCreds.Host)
	if host := i.readInput(); host != "" {
		creds.Host = host
	}

	fmt.Printf("Enter PostgreSQL port [%d]: ", defaultCreds.Port)
	if portStr := i.readInput(); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			creds.Port = port
		}
	}

	if err := i.testDatabaseConnection(ctx, creds); err != nil {
		return nil, fmt.Errorf("failed to connect with provided credentials: %w", err)
	}

	i.logger.Info("Successfully connected to database with provided credentials")

	if i.credentials != nil && i.promptYesNo("Store the database password in the system keyring?") {
		if err := i.credentials.StoreDatabasePassword(creds.Password); err != nil {
			i.logger.Warnf("Could not store database password in keyring: %v", err)
		} else {
			i.logger.Info("Stored database password in system keyring")
		}
	}

	return creds, nil
}

// checkDatabaseConnectivityHeadless performs the connectivity check without
// any prompts. Configured and keyring credentials are tried; if neither
// works the error names the environment variables to set.
func (i *Initializer) checkDatabaseConnectivityHeadless(ctx context.Context, defaultCreds *DatabaseCredentials) (*DatabaseCredentials, error) {
	i.logger.Info("Checking database connectivity (headless mode)...")

	if err := i.testDatabaseConnection(ctx, defaultCreds); err == nil {
		i.logger.Info("Successfully connected to database with configured credentials")
		return defaultCreds, nil
	}

	if i.credentials != nil {
		if password, err := i.credentials.GetDatabasePassword(); err == nil {
			keyringCreds := *defaultCreds
			keyringCreds.Password = password
			if err := i.testDatabaseConnection(ctx, &keyringCreds); err == nil {
				i.logger.Info("Successfully connected to database with keyring credentials")
				return &keyringCreds, nil
			}
		}
	}

	return nil, fmt.Errorf("failed to connect with database credentials in headless mode. Please ensure PostgreSQL is running and configure database connection via environment variables: %s, %s, %s, %s, %s",
		config.EnvUser, config.EnvPassword, config.EnvHost, config.EnvPort, config.EnvName)
}

// testDatabaseConnection tests if we can connect to the database.
func (i *Initializer) testDatabaseConnection(ctx context.Context, creds *DatabaseCredentials) error {
	// Use pgxpool.ParseConfig to handle special characters in passwords
	poolConfig, err := pgxpool.ParseConfig("")
	if err != nil {
		return err
	}

	poolConfig.ConnConfig.Host = creds.Host
	poolConfig.ConnConfig.Port = uint16(creds.Port)
	poolConfig.ConnConfig.Database = creds.Database
	poolConfig.ConnConfig.User = creds.User
	poolConfig.ConnConfig.Password = creds.Password
	poolConfig.ConnConfig.ConnectTimeout = time.Duration(i.cfg.Database.ConnectTimeoutSeconds) * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return err
	}
	defer pool.Close()

	return pool.Ping(ctx)
}

// createTargetDatabase creates the configured database if it is missing.
func (i *Initializer) createTargetDatabase(ctx context.Context, creds *DatabaseCredentials) error {
	i.logger.Infof("Ensuring database %s exists...", creds.Database)

	return database.CreateDatabase(ctx, database.PostgreSQLConfig{
		User:              creds.User,
		Password:          creds.Password,
		Host:              creds.Host,
		Port:              creds.Port,
		Database:          creds.Database,
		ConnectionTimeout: time.Duration(i.cfg.Database.ConnectTimeoutSeconds) * time.Second,
	})
}

// connect opens the single connection used for schema work.
func (i *Initializer) connect(ctx context.Context, creds *DatabaseCredentials) (*pgx.Conn, error) {
	// Use pgx.ParseConfig to handle special characters in passwords
	connConfig, err := pgx.ParseConfig("")
	if err != nil {
		return nil, fmt.Errorf("failed to create connection config: %w", err)
	}

	connConfig.Host = creds.Host
	connConfig.Port = uint16(creds.Port)
	connConfig.Database = creds.Database
	connConfig.User = creds.User
	connConfig.Password = creds.Password
	connConfig.ConnectTimeout = time.Duration(i.cfg.Database.ConnectTimeoutSeconds) * time.Second

	return pgx.ConnectConfig(ctx, connConfig)
}

// promptYesNo asks a yes/no question, defaulting to no.
func (i *Initializer) promptYesNo(question string) bool {
	fmt.Printf("%s (y/N): ", question)
	response := strings.ToLower(strings.TrimSpace(i.readInput()))
	return response == "y" || response == "yes"
}

// readInput reads a line of input from the reader.
func (i *Initializer) readInput() string {
	scanner := bufio.NewScanner(i.reader)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}

// readPassword reads a password from stdin with masking.
func (i *Initializer) readPassword() (string, error) {
	// Check if we're reading from stdin (not a test reader)
	if i.reader != os.Stdin {
		// For testing, fall back to regular input
		return i.readInput(), nil
	}

	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println() // Print newline after password input
	return string(bytePassword), nil
}
