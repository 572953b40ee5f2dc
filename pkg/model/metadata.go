// pkg/model/metadata.go
package model

// ColumnType is a logical column type; the converter maps it to a concrete SQL type per driver
type ColumnType string

const (
	TypeText      ColumnType = "TEXT"
	TypeDouble    ColumnType = "DOUBLE"
	TypeBigInt    ColumnType = "BIGINT"
	TypeBoolean   ColumnType = "BOOLEAN"
	TypeDate      ColumnType = "DATE"
	TypeTimestamp ColumnType = "TIMESTAMP"
)

// TableMetadata contains the structure information for a pipeline table
type TableMetadata struct {
	Table   string   // Table name
	Columns []Column // Column definitions, in insert order
}

// Column represents metadata about a table column
type Column struct {
	Name string     // Column name
	Type ColumnType // Logical type
}

// ColumnNames returns the column names in declaration order
func (tm *TableMetadata) ColumnNames() []string {
	names := make([]string, len(tm.Columns))
	for i, col := range tm.Columns {
		names[i] = col.Name
	}
	return names
}

// WithColumn returns a copy of the metadata renamed to table with col appended
func (tm TableMetadata) WithColumn(table string, col Column) TableMetadata {
	columns := make([]Column, 0, len(tm.Columns)+1)
	columns = append(columns, tm.Columns...)
	columns = append(columns, col)
	return TableMetadata{Table: table, Columns: columns}
}
