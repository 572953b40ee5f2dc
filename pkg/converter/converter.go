// pkg/converter/converter.go
package converter

import (
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/event-lakehouse/pkg/model"
)

// TypeConverter maps logical column types and Go values onto one storage driver
type TypeConverter struct {
	driver string
	logger *zap.Logger
}

// NewTypeConverter creates a new TypeConverter for driver
func NewTypeConverter(driver string, logger *zap.Logger) *TypeConverter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TypeConverter{
		driver: driver,
		logger: logger,
	}
}

// Driver returns the storage driver name this converter targets
func (c *TypeConverter) Driver() string {
	return c.driver
}

// GenerateColumnDefinitions creates column definitions for a CREATE TABLE statement
func (c *TypeConverter) GenerateColumnDefinitions(metadata *model.TableMetadata) ([]string, error) {
	definitions := make([]string, 0, len(metadata.Columns))

	for _, col := range metadata.Columns {
		sqlType, err := c.MapColumnType(col.Type)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name, err)
		}

		definitions = append(definitions, fmt.Sprintf("%s %s", QuoteIdentifier(col.Name), sqlType))
	}

	return definitions, nil
}

// QuoteIdentifier properly quotes and escapes a table or column identifier
func QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}
