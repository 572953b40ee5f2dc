// pkg/connector/duckdb.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"
	"go.uber.org/zap"
)

// DuckDBConnector implements the DatabaseConnector interface for an embedded DuckDB file
type DuckDBConnector struct {
	baseConnector
	path string
}

// NewDuckDBConnector opens (creating if needed) the DuckDB database at path
func NewDuckDBConnector(ctx context.Context, path string, logger *zap.Logger) (*DuckDBConnector, error) {
	logger = logger.Named("duckdb-connector")
	logger.Info("Opening DuckDB store", zap.String("path", path))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize DuckDB connection: %w", err)
	}

	ApplyConnectionSettings(db, 1, 1, 0, 0)

	if err := PingWithTimeout(ctx, db, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open DuckDB store: %w", err)
	}

	return &DuckDBConnector{
		baseConnector: baseConnector{db: db, driver: "duckdb", name: path, logger: logger},
		path:          path,
	}, nil
}

// Validate verifies the DuckDB connection
func (c *DuckDBConnector) Validate(ctx context.Context) error {
	var version string
	if err := c.db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return fmt.Errorf("failed to query DuckDB version: %w", err)
	}
	c.logger.Info("Connected to DuckDB", zap.String("version", version), zap.String("path", c.path))
	return nil
}
