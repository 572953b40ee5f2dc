// pkg/intake/source.go
package intake

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/event-lakehouse/pkg/config"
	"github.com/David-Botos/event-lakehouse/pkg/connector"
	"github.com/David-Botos/event-lakehouse/pkg/model"
)

// Batch is the staged content of one record kind. Each row follows the kind's raw
// column order (without row_num); nil is NULL.
type Batch struct {
	Kind    model.Kind
	Rows    [][]*string
	Dropped int
}

// Source reads raw records of one kind from wherever they live
type Source interface {
	Name() string
	Read(ctx context.Context, kind model.Kind) (*Batch, error)
}

// OpenSource builds the source selected by cfg. The returned close function
// releases any connection the source holds.
func OpenSource(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Source, func() error, error) {
	switch cfg.IntakeSource {
	case config.SourceFiles:
		marketing, subscriptions, events := cfg.IntakePaths()
		return NewFileSource(marketing, subscriptions, events, logger), func() error { return nil }, nil
	case config.SourceSnowflake:
		conn, err := connector.NewConnectorFactory(cfg, logger).CreateSnowflakeConnector(ctx)
		if err != nil {
			return nil, nil, err
		}
		return NewSnowflakeSource(conn, logger), conn.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported intake source: %q", cfg.IntakeSource)
	}
}

// rawColumns returns the text column names of kind's raw table
func rawColumns(kind model.Kind) []string {
	schema := model.RawSchema("", kind)
	return schema.ColumnNames()[1:]
}
