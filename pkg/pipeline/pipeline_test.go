// pkg/pipeline/pipeline_test.go
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/David-Botos/event-lakehouse/pkg/config"
	"github.com/David-Botos/event-lakehouse/pkg/intake"
	"github.com/David-Botos/event-lakehouse/pkg/model"
	"github.com/David-Botos/event-lakehouse/pkg/store"
)

func TestMain(m *testing.M) {
	// gosnowflake's keyring dependency opens a dbus session at init
	goleak.VerifyTestMain(m, goleak.IgnoreAnyFunction("github.com/godbus/dbus.(*Conn).inWorker"))
}

const (
	marketingCSV = "date,channel,spend\n" +
		"2024-01-01,google,100\n" +
		"2024-01-01,google,100\n" +
		"2024-01-02,meta,ten\n"

	subscriptionsJSON = `[
  {"subscription_id": "s1", "price": 50, "created_at": "2024-01-05T00:00:00Z", "status": "active"},
  {"subscription_id": "s2", "price": null, "created_at": "2024-01-06T00:00:00Z", "status": "active"}
]`

	eventsNDJSON = `{"event_id":"e1","user_id":"u1","event_type":"signup","timestamp":"2024-01-01T09:00:00Z"}
{"event_id":"e2","user_id":"u1","event_type":"purchase","timestamp":"2024-01-01T10:00:00Z","amount":100,"currency":"USD"}
{"event_id":"e3","user_id":"u1","event_type":"refund","timestamp":"2024-01-02T10:00:00Z","amount":20,"currency":"USD","refers_to_event_id":"e2"}
{"event_id":"e4","user_id":null,"event_type":"purchase","timestamp":"2024-01-02T11:00:00Z","amount":5}
not json
`
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"marketing_spend.csv": marketingCSV,
		"subscriptions.json":  subscriptionsJSON,
		"events.ndjson":       eventsNDJSON,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	return &config.Config{
		StoreDriver:       config.DriverSQLite,
		StorePath:         filepath.Join(dir, "lakehouse.db"),
		IntakeSource:      config.SourceFiles,
		DataDir:           dir,
		MarketingFile:     "marketing_spend.csv",
		SubscriptionsFile: "subscriptions.json",
		EventsFile:        "events.ndjson",
		RawPrefix:         "raw",
		BotThreshold:      20,
		ChunkSize:         100,
		StatementTimeout:  time.Minute,
	}
}

func newTestRunner(t *testing.T, cfg *config.Config) (*Runner, *store.Store) {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	source, closeSource, err := intake.OpenSource(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeSource() })

	runner, err := NewRunner(cfg, st, source, zap.NewNop())
	require.NoError(t, err)
	return runner, st
}

func dumpTables(t *testing.T, st *store.Store) map[string][]map[string]interface{} {
	t.Helper()
	ctx := context.Background()

	tables, err := st.ListTables(ctx)
	require.NoError(t, err)

	dump := make(map[string][]map[string]interface{}, len(tables))
	for _, table := range tables {
		rows, err := st.ReadTable(ctx, table.Name)
		require.NoError(t, err)
		dump[table.Name] = rows
	}
	return dump
}

func TestRunEndToEnd(t *testing.T) {
	ctx := context.Background()
	runner, st := newTestRunner(t, newTestConfig(t))

	metrics, err := runner.Run(ctx)
	require.NoError(t, err)
	require.True(t, metrics.Succeeded())
	require.Len(t, metrics.Stages, 3)
	assert.Equal(t, StageIntake, metrics.Stages[0].Stage)
	assert.Equal(t, StageCleaning, metrics.Stages[1].Stage)
	assert.Equal(t, StageAnalytics, metrics.Stages[2].Stage)
	assert.NotEmpty(t, metrics.RunID)

	assert.Equal(t, []model.IntakeSummary{
		{Kind: model.KindMarketing, Table: "raw_marketing", Loaded: 3},
		{Kind: model.KindSubscriptions, Table: "raw_subscriptions", Loaded: 2},
		{Kind: model.KindEvents, Table: "raw_events", Loaded: 4, Dropped: 1},
	}, metrics.Intake)
	assert.Equal(t, 1, metrics.DroppedRows())

	assert.Equal(t, []model.CleaningSummary{
		{Kind: model.KindMarketing, Raw: 3, Clean: 1, Quarantined: 1, Duplicates: 1},
		{Kind: model.KindSubscriptions, Raw: 2, Clean: 1, Quarantined: 1},
		{Kind: model.KindEvents, Raw: 4, Clean: 3, Quarantined: 1},
	}, metrics.Cleaning)

	require.Len(t, metrics.Metrics, 8)

	reasons, err := st.Query(ctx, "SELECT rejection_reason FROM quarantine_events")
	require.NoError(t, err)
	require.Len(t, reasons, 1)
	assert.Equal(t, string(model.ReasonMissingUserID), reasons[0]["rejection_reason"])

	net, err := st.ReadTable(ctx, model.DailyRevenueNetTable, "date")
	require.NoError(t, err)
	require.Len(t, net, 2)
	assert.InDelta(t, 100.0, net[0]["net_revenue"], 1e-9)
	assert.InDelta(t, -20.0, net[1]["net_revenue"], 1e-9)

	ratio, err := st.ReadTable(ctx, model.LTVCACRatioTable)
	require.NoError(t, err)
	require.Len(t, ratio, 1)
	assert.InDelta(t, 80.0, ratio[0]["avg_ltv"], 1e-9)
	assert.InDelta(t, 100.0, ratio[0]["avg_cac"], 1e-9)
	assert.InDelta(t, 0.8, ratio[0]["ltv_cac_ratio"], 1e-9)

	mrr, err := st.ReadTable(ctx, model.MRRMonthlyTable)
	require.NoError(t, err)
	require.Len(t, mrr, 1)
	assert.InDelta(t, 50.0, mrr[0]["mrr"], 1e-9)
}

func TestTransformIsIdempotent(t *testing.T) {
	ctx := context.Background()
	runner, st := newTestRunner(t, newTestConfig(t))

	_, err := runner.Run(ctx)
	require.NoError(t, err)
	first := dumpTables(t, st)

	metrics, err := runner.Transform(ctx)
	require.NoError(t, err)
	require.Len(t, metrics.Stages, 2)
	second := dumpTables(t, st)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("tables changed after re-running transform (-first +second):\n%s", diff)
	}
}

func TestTransformWithoutRawTables(t *testing.T) {
	cfg := newTestConfig(t)
	runner, _ := newTestRunner(t, cfg)

	metrics, err := runner.Transform(context.Background())
	require.Error(t, err)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageCleaning, stageErr.Stage)
	assert.Equal(t, ErrorCategorySchema, stageErr.Category)
	assert.True(t, errors.Is(err, store.ErrTableNotFound))

	assert.False(t, metrics.Succeeded())
	assert.Equal(t, 1, metrics.ErrorCounts[ErrorCategorySchema])
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	runner, _ := newTestRunner(t, newTestConfig(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	metrics, err := runner.Run(ctx)
	require.Error(t, err)
	assert.Equal(t, ErrorCategoryFatal, CategorizeError(err))
	require.Len(t, metrics.Stages, 1)
	assert.False(t, metrics.Stages[0].Success)
}

func TestRunRequiresSource(t *testing.T) {
	cfg := newTestConfig(t)
	st, err := store.Open(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer st.Close()

	runner, err := NewRunner(cfg, st, nil, zap.NewNop())
	require.NoError(t, err)

	_, err = runner.Run(context.Background())
	assert.EqualError(t, err, "run requires an intake source")
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"nil", nil, ErrorCategoryNone},
		{"cancelled", fmt.Errorf("reading: %w", context.Canceled), ErrorCategoryFatal},
		{"missing table", fmt.Errorf("failed to read raw_events: %w", store.ErrTableNotFound), ErrorCategorySchema},
		{"verification", fmt.Errorf("%w: clean_events holds 1 rows", ErrVerification), ErrorCategoryValidation},
		{"unbalanced", errors.New("events rows do not reconcile: raw=3"), ErrorCategoryValidation},
		{"bad input", errors.New("failed to parse CSV header"), ErrorCategoryParseLevel},
		{"locked", errors.New("database is locked"), ErrorCategoryStorage},
		{"stage wrapped", newStageError(StageAnalytics, errors.New("database is locked")), ErrorCategoryStorage},
		{"unknown", errors.New("boom"), ErrorCategoryFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategorizeError(tt.err))
		})
	}
}

func TestStageErrorMessage(t *testing.T) {
	err := newStageError(StageIntake, errors.New("failed to parse CSV header"))
	assert.Equal(t, "intake stage failed [ParseLevel]: failed to parse CSV header", err.Error())
}

func TestRunMetricsReport(t *testing.T) {
	metrics := NewRunMetrics("run-1", zap.NewNop())
	metrics.Intake = []model.IntakeSummary{
		{Kind: model.KindEvents, Table: "raw_events", Loaded: 4, Dropped: 1},
	}
	metrics.Cleaning = []model.CleaningSummary{
		{Kind: model.KindEvents, Raw: 4, Clean: 3, Quarantined: 1},
	}

	stage := NewStageResult(StageCleaning)
	stage.Tables = []model.TableSummary{{Table: "clean_events", Rows: 3}, {Table: "quarantine_events", Rows: 1}}
	stage.Complete(nil)
	metrics.RecordStage(stage)

	failed := NewStageResult(StageAnalytics)
	failed.Complete(newStageError(StageAnalytics, fmt.Errorf("%w: ltv_per_user", ErrVerification)))
	metrics.RecordStage(failed)
	metrics.RecordError(ErrorCategoryValidation)
	metrics.Complete()

	report := metrics.GenerateReport()
	assert.Contains(t, report, "Run ID:                  run-1")
	assert.Contains(t, report, "Status:                  FAILED")
	assert.Contains(t, report, "- raw_events: 4 loaded, 1 malformed dropped")
	assert.Contains(t, report, "- events: 4 raw, 3 clean, 1 quarantined, 0 duplicates")
	assert.Contains(t, report, "- Validation: 1")
	assert.Equal(t, int64(4), metrics.TotalRowsWritten())

	data, err := metrics.ToJSON()
	require.NoError(t, err)

	var decoded struct {
		RunID       string         `json:"runId"`
		Success     bool           `json:"success"`
		DroppedRows int            `json:"droppedRows"`
		Errors      map[string]int `json:"errors"`
		Stages      []struct {
			Stage   string `json:"stage"`
			Success bool   `json:"success"`
			Rows    int64  `json:"rowsWritten"`
		} `json:"stages"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.False(t, decoded.Success)
	assert.Equal(t, 1, decoded.DroppedRows)
	assert.Equal(t, map[string]int{"Validation": 1}, decoded.Errors)
	require.Len(t, decoded.Stages, 2)
	assert.Equal(t, "cleaning", decoded.Stages[0].Stage)
	assert.Equal(t, int64(4), decoded.Stages[0].Rows)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1.50s", formatDuration(1500*time.Millisecond))
	assert.Equal(t, "2m 5s", formatDuration(125*time.Second))
	assert.Equal(t, "1h 0m 1s", formatDuration(time.Hour+time.Second))
}
