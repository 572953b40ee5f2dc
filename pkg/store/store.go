// pkg/store/store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/event-lakehouse/pkg/config"
	"github.com/David-Botos/event-lakehouse/pkg/connector"
	"github.com/David-Botos/event-lakehouse/pkg/converter"
	"github.com/David-Botos/event-lakehouse/pkg/model"
)

// maxBindParams stays under the lowest bind-variable limit of the supported drivers
const maxBindParams = 30000

// ErrTableNotFound is returned when a named table does not exist in the store
var ErrTableNotFound = errors.New("table not found")

// Options tunes how the store writes and waits
type Options struct {
	ChunkSize        int
	StatementTimeout time.Duration
}

// Store is the shared tabular store every stage reads from and writes to
type Store struct {
	conn      connector.DatabaseConnector
	db        *sqlx.DB
	converter *converter.TypeConverter
	opts      Options
	logger    *zap.Logger
}

// TableInfo describes one table in the store inventory
type TableInfo struct {
	Name    string
	Columns int
}

// Open connects to the store selected by cfg
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Store, error) {
	conn, err := connector.NewConnectorFactory(cfg, logger).CreateStoreConnector(ctx)
	if err != nil {
		return nil, err
	}

	return New(conn, cfg.StoreDriver, Options{
		ChunkSize:        cfg.ChunkSize,
		StatementTimeout: cfg.StatementTimeout,
	}, logger), nil
}

// New wraps an open connector. storeDriver is one of the config.Driver* names.
func New(conn connector.DatabaseConnector, storeDriver string, opts Options, logger *zap.Logger) *Store {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 5000
	}
	if opts.StatementTimeout <= 0 {
		opts.StatementTimeout = 5 * time.Minute
	}

	return &Store{
		conn:      conn,
		db:        sqlx.NewDb(conn.DB(), conn.DriverName()),
		converter: converter.NewTypeConverter(storeDriver, logger),
		opts:      opts,
		logger:    logger.Named("store"),
	}
}

// Driver returns the configured store driver name
func (s *Store) Driver() string {
	return s.converter.Driver()
}

// Close closes the underlying connection
func (s *Store) Close() error {
	return s.conn.Close()
}

// ReplaceTable drops table (if present), recreates it from meta and inserts rows,
// all inside one transaction. Each row must follow meta's column order.
func (s *Store) ReplaceTable(ctx context.Context, meta model.TableMetadata, rows [][]interface{}) (int64, error) {
	start := time.Now()

	columnDefs, err := s.converter.GenerateColumnDefinitions(&meta)
	if err != nil {
		return 0, fmt.Errorf("failed to build schema for %s: %w", meta.Table, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.StatementTimeout)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction for %s: %w", meta.Table, err)
	}
	defer tx.Rollback()

	tableName := pq.QuoteIdentifier(meta.Table)
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+tableName); err != nil {
		return 0, fmt.Errorf("failed to drop table %s: %w", meta.Table, err)
	}

	createSQL := fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", tableName, strings.Join(columnDefs, ",\n\t"))
	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		return 0, fmt.Errorf("failed to create table %s: %w", meta.Table, err)
	}

	inserted, err := s.insertChunks(ctx, tx, meta, rows)
	if err != nil {
		return inserted, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit table %s: %w", meta.Table, err)
	}

	s.logger.Debug("Replaced table",
		zap.String("table", meta.Table),
		zap.Int64("rows", inserted),
		zap.Duration("duration", time.Since(start)))

	return inserted, nil
}

// insertChunks writes rows as multi-row INSERT statements
func (s *Store) insertChunks(ctx context.Context, tx *sqlx.Tx, meta model.TableMetadata, rows [][]interface{}) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	columns := meta.ColumnNames()
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = pq.QuoteIdentifier(c)
	}

	chunkSize := s.opts.ChunkSize
	if limit := maxBindParams / len(columns); chunkSize > limit {
		chunkSize = limit
	}

	rowPlaceholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", pq.QuoteIdentifier(meta.Table), strings.Join(quoted, ", "))

	var total int64
	for i := 0; i < len(rows); i += chunkSize {
		end := i + chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[i:end]

		placeholders := make([]string, len(batch))
		args := make([]interface{}, 0, len(batch)*len(columns))
		for j, row := range batch {
			if len(row) != len(columns) {
				return total, fmt.Errorf("row %d of %s has %d values, expected %d",
					i+j, meta.Table, len(row), len(columns))
			}
			for k, val := range row {
				encoded, err := s.converter.EncodeValue(val, meta.Columns[k].Type)
				if err != nil {
					return total, fmt.Errorf("row %d column %s of %s: %w", i+j, columns[k], meta.Table, err)
				}
				args = append(args, encoded)
			}
			placeholders[j] = rowPlaceholder
		}

		query := tx.Rebind(prefix + strings.Join(placeholders, ", "))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return total, fmt.Errorf("batch insert into %s failed at row %d: %w", meta.Table, i, err)
		}
		total += int64(len(batch))
	}

	return total, nil
}

// ReadTable returns every row of table as column-name keyed maps, ordered by orderBy columns
func (s *Store) ReadTable(ctx context.Context, table string, orderBy ...string) ([]map[string]interface{}, error) {
	if err := s.requireTable(ctx, table); err != nil {
		return nil, err
	}

	query := "SELECT * FROM " + pq.QuoteIdentifier(table)
	if len(orderBy) > 0 {
		quoted := make([]string, len(orderBy))
		for i, c := range orderBy {
			quoted[i] = pq.QuoteIdentifier(c)
		}
		query += " ORDER BY " + strings.Join(quoted, ", ")
	}

	rows, err := s.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", table, err)
	}
	return rows, nil
}

// Query runs a read-only query written with ? placeholders and returns its rows
func (s *Store) Query(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.StatementTimeout)
	defer cancel()

	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []map[string]interface{}
	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for k, v := range row {
			// Some drivers hand back text as []byte
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return result, nil
}

// CountRows returns the number of rows in table
func (s *Store) CountRows(ctx context.Context, table string) (int64, error) {
	if err := s.requireTable(ctx, table); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.StatementTimeout)
	defer cancel()

	var count int64
	if err := s.db.QueryRowxContext(ctx, "SELECT COUNT(*) FROM "+pq.QuoteIdentifier(table)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", table, err)
	}
	return count, nil
}

// ListTables returns every table in the store with its column count, ordered by name
func (s *Store) ListTables(ctx context.Context) ([]TableInfo, error) {
	var query string
	switch s.Driver() {
	case config.DriverSQLite:
		query = `
			SELECT m.name AS table_name, COUNT(p.name) AS column_count
			FROM sqlite_master m JOIN pragma_table_info(m.name) p
			WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%'
			GROUP BY m.name
			ORDER BY m.name`
	default:
		query = `
			SELECT table_name, COUNT(*) AS column_count
			FROM information_schema.columns
			WHERE table_schema = current_schema()
			GROUP BY table_name
			ORDER BY table_name`
	}

	rows, err := s.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	tables := make([]TableInfo, 0, len(rows))
	for _, row := range rows {
		columns, err := converter.ToInt(row["column_count"])
		if err != nil {
			return nil, fmt.Errorf("unexpected column count for %v: %w", row["table_name"], err)
		}
		tables = append(tables, TableInfo{
			Name:    converter.ToString(row["table_name"]),
			Columns: int(columns),
		})
	}
	return tables, nil
}

// TableExists reports whether table is present in the store
func (s *Store) TableExists(ctx context.Context, table string) (bool, error) {
	tables, err := s.ListTables(ctx)
	if err != nil {
		return false, err
	}
	for _, t := range tables {
		if t.Name == table {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) requireTable(ctx context.Context, table string) error {
	exists, err := s.TableExists(ctx, table)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return nil
}
