// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported storage drivers
const (
	DriverSQLite   = "sqlite"
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
)

// Supported intake sources
const (
	SourceFiles     = "files"
	SourceSnowflake = "snowflake"
)

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Config represents the application configuration
type Config struct {
	// Storage
	StoreDriver string          `yaml:"store_driver"`
	StorePath   string          `yaml:"store_path"`
	Postgres    *PostgresConfig `yaml:"postgres,omitempty"`

	// Intake
	IntakeSource      string           `yaml:"intake_source"`
	DataDir           string           `yaml:"data_dir"`
	MarketingFile     string           `yaml:"marketing_file"`
	SubscriptionsFile string           `yaml:"subscriptions_file"`
	EventsFile        string           `yaml:"events_file"`
	Snowflake         *SnowflakeConfig `yaml:"snowflake,omitempty"`

	// Pipeline settings
	RawPrefix        string        `yaml:"raw_prefix"`
	BotThreshold     int           `yaml:"bot_threshold"`
	ChunkSize        int           `yaml:"chunk_size"`
	StatementTimeout time.Duration `yaml:"statement_timeout"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// LoadConfig loads configuration from a .env file (if present), environment variables,
// and the YAML file named by LAKEHOUSE_CONFIG (if set). Keys in the YAML file win.
func LoadConfig() (*Config, error) {
	// A missing .env file is normal outside local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		// Default values
		StoreDriver:       getEnv("STORE_DRIVER", DriverSQLite),
		StorePath:         getEnv("STORE_PATH", "lakehouse.db"),
		IntakeSource:      getEnv("INTAKE_SOURCE", SourceFiles),
		DataDir:           getEnv("DATA_DIR", "data"),
		MarketingFile:     getEnv("MARKETING_FILE", "marketing_spend.csv"),
		SubscriptionsFile: getEnv("SUBSCRIPTIONS_FILE", "subscriptions.json"),
		EventsFile:        getEnv("EVENTS_FILE", "events.ndjson"),
		RawPrefix:         getEnv("RAW_PREFIX", "raw"),
		BotThreshold:      getEnvAsInt("BOT_THRESHOLD", 20),
		ChunkSize:         getEnvAsInt("CHUNK_SIZE", 5000),
		StatementTimeout:  time.Duration(getEnvAsInt("STATEMENT_TIMEOUT_SECONDS", 300)) * time.Second,
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
	}

	// Database credentials are only demanded by the driver/source that needs them
	if cfg.StoreDriver == DriverPostgres {
		pgConfig, err := LoadPostgresConfig()
		if err != nil {
			return nil, errors.New("failed to load PostgreSQL configuration: " + err.Error())
		}
		cfg.Postgres = pgConfig
	}
	if cfg.IntakeSource == SourceSnowflake {
		snowConfig, err := LoadSnowflakeConfig()
		if err != nil {
			return nil, errors.New("failed to load Snowflake configuration: " + err.Error())
		}
		cfg.Snowflake = snowConfig
	}

	if path := os.Getenv("LAKEHOUSE_CONFIG"); path != "" {
		if err := cfg.MergeFile(path); err != nil {
			return nil, err
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MergeFile overlays the keys present in a YAML file onto the configuration
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverSQLite, DriverDuckDB:
		if c.StorePath == "" {
			return fmt.Errorf("store path is required for driver %s", c.StoreDriver)
		}
	case DriverPostgres:
		if c.Postgres == nil {
			return errors.New("postgreSQL configuration is required when store driver is postgres")
		}
	default:
		return fmt.Errorf("unsupported store driver: %q", c.StoreDriver)
	}

	switch c.IntakeSource {
	case SourceFiles:
		if c.MarketingFile == "" || c.SubscriptionsFile == "" || c.EventsFile == "" {
			return errors.New("marketing, subscriptions and events files are required")
		}
	case SourceSnowflake:
		if c.Snowflake == nil {
			return errors.New("snowflake configuration is required when intake source is snowflake")
		}
	default:
		return fmt.Errorf("unsupported intake source: %q", c.IntakeSource)
	}

	if !identifierPattern.MatchString(c.RawPrefix) {
		return fmt.Errorf("raw prefix %q must be a lowercase identifier", c.RawPrefix)
	}

	if c.BotThreshold < 1 {
		return errors.New("bot threshold must be positive")
	}

	if c.ChunkSize <= 0 {
		return errors.New("chunk size must be positive")
	}

	if c.StatementTimeout <= 0 {
		return errors.New("statement timeout must be positive")
	}

	return nil
}

// IntakePaths returns the marketing, subscriptions and events file paths,
// resolving relative names against DataDir
func (c *Config) IntakePaths() (marketing, subscriptions, events string) {
	return c.resolve(c.MarketingFile), c.resolve(c.SubscriptionsFile), c.resolve(c.EventsFile)
}

func (c *Config) resolve(name string) string {
	if filepath.IsAbs(name) || c.DataDir == "" {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
