// pkg/connector/factory.go
package connector

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/event-lakehouse/pkg/config"
)

// ConnectorFactory creates database connectors
type ConnectorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewConnectorFactory creates a new connector factory
func NewConnectorFactory(cfg *config.Config, logger *zap.Logger) *ConnectorFactory {
	return &ConnectorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateStoreConnector opens the table store selected by STORE_DRIVER
func (f *ConnectorFactory) CreateStoreConnector(ctx context.Context) (DatabaseConnector, error) {
	f.logger.Info("Creating store connector", zap.String("driver", f.cfg.StoreDriver))

	var (
		conn DatabaseConnector
		err  error
	)
	switch f.cfg.StoreDriver {
	case config.DriverSQLite:
		conn, err = NewSQLiteConnector(ctx, f.cfg.StorePath, f.logger)
	case config.DriverDuckDB:
		conn, err = NewDuckDBConnector(ctx, f.cfg.StorePath, f.logger)
	case config.DriverPostgres:
		if f.cfg.Postgres == nil {
			return nil, errors.New("postgres store selected but no PostgreSQL configuration loaded")
		}
		conn, err = NewPostgresConnector(ctx, f.cfg.Postgres, f.cfg.StatementTimeout, f.logger)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", f.cfg.StoreDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s store connector: %w", f.cfg.StoreDriver, err)
	}

	if err := conn.Validate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store validation failed: %w", err)
	}

	return conn, nil
}

// CreateSnowflakeConnector creates a new Snowflake connector
func (f *ConnectorFactory) CreateSnowflakeConnector(ctx context.Context) (*SnowflakeConnector, error) {
	f.logger.Info("Creating Snowflake connector")

	if f.cfg.Snowflake == nil {
		return nil, errors.New("snowflake intake selected but no Snowflake configuration loaded")
	}

	conn, err := NewSnowflakeConnector(ctx, f.cfg.Snowflake, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Snowflake connector: %w", err)
	}

	if err := conn.Validate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("snowflake validation failed: %w", err)
	}

	return conn, nil
}
