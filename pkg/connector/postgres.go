// pkg/connector/postgres.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"go.uber.org/zap"

	"github.com/David-Botos/event-lakehouse/pkg/config"
)

// PostgresConnector implements the DatabaseConnector interface for PostgreSQL
type PostgresConnector struct {
	baseConnector
	cfg *config.PostgresConfig
}

// NewPostgresConnector creates and initializes a new PostgreSQL connector.
// A positive statementTimeout is applied to every pooled session.
func NewPostgresConnector(
	ctx context.Context,
	cfg *config.PostgresConfig,
	statementTimeout time.Duration,
	logger *zap.Logger,
) (*PostgresConnector, error) {
	logger = logger.Named("postgres-connector")

	// Log connection attempt
	logger.Info("Connecting to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User))

	// Unknown keys in the DSN are passed through as runtime parameters by pgx,
	// so the timeout holds for every connection the pool opens
	connStr := cfg.ConnectionString()
	if statementTimeout > 0 {
		connStr += fmt.Sprintf(" statement_timeout=%d", statementTimeout.Milliseconds())
	}

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL connection: %w", err)
	}

	// Configure connection pool
	ApplyConnectionSettings(
		db,
		cfg.MaxOpenConns,
		cfg.MaxIdleConns,
		cfg.ConnMaxLifetime,
		cfg.ConnMaxIdleTime,
	)

	// Verify connection
	if err := PingWithTimeout(ctx, db, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	connector := &PostgresConnector{
		baseConnector: baseConnector{db: db, driver: "pgx", name: cfg.Database, logger: logger},
		cfg:           cfg,
	}

	LogConnectionStats(logger, cfg.Database, db)
	return connector, nil
}

// Validate checks the server answers and the user may create tables in its schema
func (c *PostgresConnector) Validate(ctx context.Context) error {
	var version string
	if err := c.db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return fmt.Errorf("failed to query PostgreSQL version: %w", err)
	}
	c.logger.Info("Connected to PostgreSQL", zap.String("version", version))

	// The store drops and recreates its tables in the current schema
	var schema string
	var canCreate bool
	err := c.db.QueryRowContext(ctx,
		"SELECT current_schema(), has_schema_privilege(current_schema(), 'CREATE')").Scan(&schema, &canCreate)
	if err != nil {
		return fmt.Errorf("failed to check schema privileges: %w", err)
	}
	if !canCreate {
		return fmt.Errorf("user %s cannot create tables in schema %s", c.cfg.User, schema)
	}

	c.logger.Info("PostgreSQL connection validated",
		zap.String("database", c.cfg.Database),
		zap.String("schema", schema))

	return nil
}
