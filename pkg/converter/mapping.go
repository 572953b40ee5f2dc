// pkg/converter/mapping.go
package converter

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/event-lakehouse/pkg/config"
	"github.com/David-Botos/event-lakehouse/pkg/model"
)

// Text layouts used by drivers without native temporal types
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05.999999"
)

var typeMappings = map[string]map[model.ColumnType]string{
	config.DriverSQLite: {
		model.TypeText:      "TEXT",
		model.TypeDouble:    "REAL",
		model.TypeBigInt:    "INTEGER",
		model.TypeBoolean:   "INTEGER",
		model.TypeDate:      "TEXT",
		model.TypeTimestamp: "TEXT",
	},
	config.DriverDuckDB: {
		model.TypeText:      "VARCHAR",
		model.TypeDouble:    "DOUBLE",
		model.TypeBigInt:    "BIGINT",
		model.TypeBoolean:   "BOOLEAN",
		model.TypeDate:      "DATE",
		model.TypeTimestamp: "TIMESTAMP",
	},
	config.DriverPostgres: {
		model.TypeText:      "TEXT",
		model.TypeDouble:    "DOUBLE PRECISION",
		model.TypeBigInt:    "BIGINT",
		model.TypeBoolean:   "BOOLEAN",
		model.TypeDate:      "DATE",
		model.TypeTimestamp: "TIMESTAMP",
	},
}

// MapColumnType converts a logical column type to the driver's SQL type
func (c *TypeConverter) MapColumnType(colType model.ColumnType) (string, error) {
	mapping, ok := typeMappings[c.driver]
	if !ok {
		return "", fmt.Errorf("unsupported driver: %s", c.driver)
	}

	sqlType, ok := mapping[colType]
	if !ok {
		// Log unexpected type and fall back to text
		c.logger.Warn("Unknown column type encountered",
			zap.String("driver", c.driver),
			zap.String("columnType", string(colType)))
		return mapping[model.TypeText], fmt.Errorf("unknown column type: %s", colType)
	}

	return sqlType, nil
}

// storesTemporalAsText reports whether DATE/TIMESTAMP/BOOLEAN values must be encoded by hand
func (c *TypeConverter) storesTemporalAsText() bool {
	return c.driver == config.DriverSQLite
}
