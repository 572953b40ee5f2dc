// pkg/connector/sqlite.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteConnector implements the DatabaseConnector interface for an embedded SQLite file
type SQLiteConnector struct {
	baseConnector
	path string
}

// NewSQLiteConnector opens (creating if needed) the SQLite database at path
func NewSQLiteConnector(ctx context.Context, path string, logger *zap.Logger) (*SQLiteConnector, error) {
	logger = logger.Named("sqlite-connector")
	logger.Info("Opening SQLite store", zap.String("path", path))

	// Ensure directory exists
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite connection: %w", err)
	}

	// A single connection gives the single-writer replace semantics the pipeline relies on
	ApplyConnectionSettings(db, 1, 1, 0, 0)

	if err := PingWithTimeout(ctx, db, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open SQLite store: %w", err)
	}

	return &SQLiteConnector{
		baseConnector: baseConnector{db: db, driver: "sqlite", name: path, logger: logger},
		path:          path,
	}, nil
}

// Validate verifies the SQLite connection
func (c *SQLiteConnector) Validate(ctx context.Context) error {
	var version string
	if err := c.db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&version); err != nil {
		return fmt.Errorf("failed to query SQLite version: %w", err)
	}
	c.logger.Info("Connected to SQLite", zap.String("version", version), zap.String("path", c.path))
	return nil
}
