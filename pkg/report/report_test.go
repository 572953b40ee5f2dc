// pkg/report/report_test.go
package report

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/event-lakehouse/pkg/config"
	"github.com/David-Botos/event-lakehouse/pkg/connector"
	"github.com/David-Botos/event-lakehouse/pkg/model"
	"github.com/David-Botos/event-lakehouse/pkg/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	conn, err := connector.NewSQLiteConnector(context.Background(), filepath.Join(t.TempDir(), "report.db"), zap.NewNop())
	require.NoError(t, err)
	st := store.New(conn, config.DriverSQLite, store.Options{StatementTimeout: time.Minute}, zap.NewNop())
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func metricSchema(t *testing.T, table string) model.TableMetadata {
	t.Helper()
	schema, ok := model.MetricSchema(table)
	require.True(t, ok)
	return schema
}

func TestDiagnostics(t *testing.T) {
	color.NoColor = true
	ctx := context.Background()
	st := newTestStore(t)

	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	_, err := st.ReplaceTable(ctx, model.CleanSchema(model.KindEvents), [][]interface{}{
		{"e1", "u1", "purchase", day(1), 10.0, "USD", nil, false},
		{"e2", "u2", "purchase", day(1), 5.0, "USD", nil, true},
		{"e3", "u2", "purchase", day(1), 5.0, "USD", nil, true},
	})
	require.NoError(t, err)

	var net [][]interface{}
	for d := 1; d <= 7; d++ {
		net = append(net, []interface{}{day(d), float64(d * 10)})
	}
	_, err = st.ReplaceTable(ctx, metricSchema(t, model.DailyRevenueNetTable), net)
	require.NoError(t, err)

	_, err = st.ReplaceTable(ctx, metricSchema(t, model.MRRMonthlyTable), nil)
	require.NoError(t, err)

	_, err = st.ReplaceTable(ctx, metricSchema(t, model.LTVCACRatioTable), [][]interface{}{
		{123.456, 50.0, 2.46912345},
	})
	require.NoError(t, err)

	_, err = st.ReplaceTable(ctx, model.QuarantineSchema("raw", model.KindEvents), [][]interface{}{
		{int64(4), "e4", nil, "purchase", "2024-01-02", "ten", "USD", nil, string(model.ReasonInvalidAmount)},
	})
	require.NoError(t, err)

	var out bytes.Buffer
	err = NewReporter(st, zap.NewNop()).Diagnostics(ctx, &out)

	// quarantine_marketing was never written
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QUARANTINE: REJECTED MARKETING")

	text := out.String()
	assert.Contains(t, text, "=============== CLEAN: BOT DETECTION SUMMARY ===============")
	assert.Contains(t, text, "is_bot  event_count  user_count")
	assert.Contains(t, text, "2024-01-07  70")
	assert.NotContains(t, text, "2024-01-02  20")
	assert.Contains(t, text, "123.46   50       2.4691")
	assert.Contains(t, text, "e4        purchase    ten     "+string(model.ReasonInvalidAmount))
	assert.Contains(t, text, "No records found.")
	assert.Contains(t, text, "Error querying QUARANTINE: REJECTED MARKETING")
}

func TestInventory(t *testing.T) {
	color.NoColor = true
	ctx := context.Background()
	st := newTestStore(t)

	_, err := st.ReplaceTable(ctx, model.RawSchema("raw", model.KindMarketing), [][]interface{}{
		{int64(1), "2024-01-01", "google", "100"},
		{int64(2), "2024-01-02", "meta", "50"},
	})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, NewReporter(st, zap.NewNop()).Inventory(ctx, &out))

	text := out.String()
	assert.Contains(t, text, "LAKEHOUSE INVENTORY")
	assert.Contains(t, text, "table_name     column_count  row_count")
	assert.Contains(t, text, "raw_marketing  4             2")
}

func TestInventoryEmptyStore(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	require.NoError(t, NewReporter(newTestStore(t), zap.NewNop()).Inventory(context.Background(), &out))
	assert.Contains(t, out.String(), "No tables found.")
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "NULL", formatValue(nil, 0))
	assert.Equal(t, "2024-03-01", formatValue(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 0))
	assert.Equal(t, "2024-03-01T10:30:00Z", formatValue(time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC), 0))
	assert.Equal(t, "0.3333", formatValue(1.0/3.0, 4))
	assert.Equal(t, "12.5", formatValue(12.5, 0))
	assert.Equal(t, "7", formatValue(int64(7), 0))
}
