package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Environment variable names recognized by ApplyEnvironment. These are the
// operational contract of the bootstrap tool and must not change.
const (
	EnvHost     = "DB_HOST"
	EnvPort     = "DB_PORT"
	EnvName     = "DB_NAME"
	EnvUser     = "DB_USER"
	EnvPassword = "DB_PASSWORD"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Keyring  KeyringConfig  `yaml:"keyring"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type DatabaseConfig struct {
	Host                  string `yaml:"host"`
	Port                  int    `yaml:"port"`
	Name                  string `yaml:"name"`
	User                  string `yaml:"user"`
	Password              string `yaml:"password"`
	ConnectTimeoutSeconds int    `yaml:"connect_timeout_seconds"`
}

type KeyringConfig struct {
	Enabled bool   `yaml:"enabled"`
	Service string `yaml:"service"`
	User    string `yaml:"user"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the configuration used when no config file is given.
// The database defaults match a stock local PostgreSQL setup.
func Default() *Config {
	config := &Config{}
	config.applyDefaults()
	return config
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyDefaults()

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Host == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.Name == "" {
		c.Database.Name = "testcase_db"
	}
	if c.Database.User == "" {
		c.Database.User = "postgres"
	}
	if c.Database.Password == "" {
		c.Database.Password = "password"
	}
	if c.Database.ConnectTimeoutSeconds == 0 {
		c.Database.ConnectTimeoutSeconds = 10
	}
	if c.Keyring.Service == "" {
		c.Keyring.Service = "reqtrace"
	}
	if c.Keyring.User == "" {
		c.Keyring.User = "database-password"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// ApplyEnvironment overrides database settings from the environment.
// Environment variables win over both defaults and the config file.
func (c *Config) ApplyEnvironment() {
	if host := os.Getenv(EnvHost); host != "" {
		c.Database.Host = host
	}
	if port := os.Getenv(EnvPort); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Database.Port = p
		}
	}
	if name := os.Getenv(EnvName); name != "" {
		c.Database.Name = name
	}
	if user := os.Getenv(EnvUser); user != "" {
		c.Database.User = user
	}
	if password := os.Getenv(EnvPassword); password != "" {
		c.Database.Password = password
	}
}

func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required in configuration")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("database.port %d is out of range", c.Database.Port)
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required in configuration")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required in configuration")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}
