package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/joho/godotenv"

	"github.com/reqtrace/reqtrace/internal/config"
	"github.com/reqtrace/reqtrace/internal/initialize"
	"github.com/reqtrace/reqtrace/internal/logger"
)

var (
	Version   = "dev"     // Default version for development
	GitCommit = "unknown" // Git commit hash
	BuildTime = "unknown" // Build timestamp
)

var (
	configFile   = flag.String("config", "", "Configuration file path")
	envFile      = flag.String("env-file", "", "Load environment variables from this file before reading configuration")
	logFile      = flag.String("log-file", "", "Log file path (in addition to console output)")
	logLevel     = flag.String("log-level", "", "Log level (debug, info, warn, error)")
	createDB     = flag.Bool("create-db", false, "Create the target database first if it does not exist")
	keyringFlag  = flag.Bool("keyring", false, "Use the system keyring for the database password")
	noPromptFlag = flag.Bool("no-prompt", false, "Never prompt for credentials (for Docker/headless environments)")
	versionFlag  = flag.Bool("version", false, "Show version information and exit")
)

func printVersionInfo() {
	fmt.Printf("reqtrace dbinit %s\n", Version)
	fmt.Printf("Built: %s, from commit: %s\n", BuildTime, GitCommit)
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

func main() {
	flag.Parse()

	// Handle version flag
	if *versionFlag {
		printVersionInfo()
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load a dotenv file before the config layer reads the environment. A
	// missing default .env is fine; a named one must exist.
	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load env file: %v\n", err)
			os.Exit(1)
		}
	} else {
		_ = godotenv.Load()
	}

	// Load configuration
	var cfg *config.Config
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}
	cfg.ApplyEnvironment()

	// Command line flags win over config file and environment
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logFile != "" {
		cfg.Logging.File = *logFile
	}
	if *keyringFlag {
		cfg.Keyring.Enabled = true
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	var log logger.LoggerInterface = logger.NewUnifiedLogger("dbinit", Version, cfg.Logging.File, cfg.Logging.Level)
	defer func() {
		// Close logger if it supports it
		if unifiedLogger, ok := log.(logger.UnifiedLoggerInterface); ok {
			unifiedLogger.Close()
		}
	}()

	// Create a timeout context for initialization (10 minutes should be enough)
	initCtx, initCancel := context.WithTimeout(ctx, 10*time.Minute)
	defer initCancel()

	initializer := initialize.NewWithVersion(log, cfg, Version)

	if err := initializer.Run(initCtx, initialize.Options{
		CreateDatabase: *createDB,
		NoPrompt:       *noPromptFlag,
	}); err != nil {
		log.Fatalf("Database initialization failed: %v", err)
	}
}
