package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/snowflakedb/gosnowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("LAKEHOUSE_CONFIG", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "lakehouse.db", cfg.StorePath)
	assert.Equal(t, SourceFiles, cfg.IntakeSource)
	assert.Equal(t, "raw", cfg.RawPrefix)
	assert.Equal(t, 20, cfg.BotThreshold)
	assert.Equal(t, 5000, cfg.ChunkSize)
	assert.Equal(t, 300*time.Second, cfg.StatementTimeout)
	assert.Nil(t, cfg.Postgres)
	assert.Nil(t, cfg.Snowflake)

	marketing, subs, events := cfg.IntakePaths()
	assert.Equal(t, filepath.Join("data", "marketing_spend.csv"), marketing)
	assert.Equal(t, filepath.Join("data", "subscriptions.json"), subs)
	assert.Equal(t, filepath.Join("data", "events.ndjson"), events)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("LAKEHOUSE_CONFIG", "")
	t.Setenv("BOT_THRESHOLD", "5")
	t.Setenv("RAW_PREFIX", "bronze")
	t.Setenv("CHUNK_SIZE", "not-a-number")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.BotThreshold)
	assert.Equal(t, "bronze", cfg.RawPrefix)
	assert.Equal(t, 5000, cfg.ChunkSize, "unparseable ints fall back to the default")
}

func TestLoadConfig_PostgresRequiresCredentials(t *testing.T) {
	t.Setenv("LAKEHOUSE_CONFIG", "")
	t.Setenv("STORE_DRIVER", DriverPostgres)
	t.Setenv("POSTGRES_USER", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_USER")
}

func TestLoadConfig_Postgres(t *testing.T) {
	t.Setenv("LAKEHOUSE_CONFIG", "")
	t.Setenv("STORE_DRIVER", DriverPostgres)
	t.Setenv("POSTGRES_USER", "lake")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "lakehouse")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg.Postgres)
	assert.Equal(t, "host=localhost port=5432 user=lake password=secret dbname=lakehouse sslmode=disable",
		cfg.Postgres.ConnectionString())
}

func TestLoadConfig_YAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lakehouse.yaml")
	content := `store_driver: duckdb
store_path: /tmp/lake.duckdb
bot_threshold: 50
data_dir: /srv/data
events_file: /abs/events.ndjson
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("LAKEHOUSE_CONFIG", path)
	t.Setenv("BOT_THRESHOLD", "7")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DriverDuckDB, cfg.StoreDriver)
	assert.Equal(t, "/tmp/lake.duckdb", cfg.StorePath)
	assert.Equal(t, 50, cfg.BotThreshold, "file keys win over environment")

	marketing, _, events := cfg.IntakePaths()
	assert.Equal(t, filepath.Join("/srv/data", "marketing_spend.csv"), marketing)
	assert.Equal(t, "/abs/events.ndjson", events)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lakehouse.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store_driver: [sqlite"), 0o644))
	t.Setenv("LAKEHOUSE_CONFIG", path)

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			StoreDriver:       DriverSQLite,
			StorePath:         "x.db",
			IntakeSource:      SourceFiles,
			MarketingFile:     "m.csv",
			SubscriptionsFile: "s.json",
			EventsFile:        "e.ndjson",
			RawPrefix:         "raw",
			BotThreshold:      20,
			ChunkSize:         100,
			StatementTimeout:  time.Second,
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"unknown driver", func(c *Config) { c.StoreDriver = "oracle" }, "unsupported store driver"},
		{"missing path", func(c *Config) { c.StorePath = "" }, "store path"},
		{"postgres without config", func(c *Config) { c.StoreDriver = DriverPostgres }, "postgreSQL"},
		{"unknown source", func(c *Config) { c.IntakeSource = "s3" }, "unsupported intake source"},
		{"snowflake without config", func(c *Config) { c.IntakeSource = SourceSnowflake }, "snowflake"},
		{"bad prefix", func(c *Config) { c.RawPrefix = "raw; DROP" }, "raw prefix"},
		{"zero threshold", func(c *Config) { c.BotThreshold = 0 }, "bot threshold"},
		{"zero chunk", func(c *Config) { c.ChunkSize = 0 }, "chunk size"},
		{"missing file", func(c *Config) { c.EventsFile = "" }, "files are required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestParseAuthenticator(t *testing.T) {
	assert.Equal(t, gosnowflake.AuthTypeJwt, ParseAuthenticator("jwt"))
	assert.Equal(t, gosnowflake.AuthTypeOAuth, ParseAuthenticator("oauth"))
	assert.Equal(t, gosnowflake.AuthTypeSnowflake, ParseAuthenticator("unknown"))
}

func TestQualifiedTable(t *testing.T) {
	cfg := &SnowflakeConfig{Schema: "STAGING", TablePrefix: "BRONZE"}
	assert.Equal(t, "STAGING.BRONZE_EVENTS", cfg.QualifiedTable("EVENTS"))
}
