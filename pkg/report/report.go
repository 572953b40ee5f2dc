// pkg/report/report.go
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/David-Botos/event-lakehouse/pkg/converter"
	"github.com/David-Botos/event-lakehouse/pkg/model"
	"github.com/David-Botos/event-lakehouse/pkg/store"
)

// Reporter prints read-only views of a populated store
type Reporter struct {
	store  *store.Store
	logger *zap.Logger
}

// NewReporter creates a new Reporter
func NewReporter(st *store.Store, logger *zap.Logger) *Reporter {
	return &Reporter{store: st, logger: logger.Named("report")}
}

// section is one titled query in the diagnostics output
type section struct {
	title   string
	query   string
	columns []string       // output order; map scans lose it
	digits  map[string]int // columns rounded for display
}

func diagnosticSections() []section {
	return []section{
		{
			title: "CLEAN: BOT DETECTION SUMMARY",
			query: "SELECT is_bot, COUNT(*) AS event_count, COUNT(DISTINCT user_id) AS user_count " +
				"FROM " + model.CleanTableName(model.KindEvents) + " GROUP BY is_bot ORDER BY is_bot",
			columns: []string{"is_bot", "event_count", "user_count"},
		},
		{
			title:   "METRICS: DAILY NET REVENUE (HUMANS ONLY)",
			query:   "SELECT date, net_revenue FROM " + model.DailyRevenueNetTable + " ORDER BY date DESC LIMIT 5",
			columns: []string{"date", "net_revenue"},
		},
		{
			title:   "METRICS: MRR MONTHLY",
			query:   "SELECT month, mrr FROM " + model.MRRMonthlyTable + " ORDER BY month DESC",
			columns: []string{"month", "mrr"},
		},
		{
			title:   "METRICS: LTV & CAC RATIO",
			query:   "SELECT avg_ltv, avg_cac, ltv_cac_ratio FROM " + model.LTVCACRatioTable,
			columns: []string{"avg_ltv", "avg_cac", "ltv_cac_ratio"},
			digits:  map[string]int{"avg_ltv": 2, "avg_cac": 2, "ltv_cac_ratio": 4},
		},
		{
			title: "QUARANTINE: REJECTED EVENTS SAMPLE",
			query: "SELECT event_id, event_type, amount, rejection_reason FROM " +
				model.QuarantineTableName(model.KindEvents) + " ORDER BY " + model.RowNumColumn + " LIMIT 3",
			columns: []string{"event_id", "event_type", "amount", "rejection_reason"},
		},
		{
			title: "QUARANTINE: REJECTED MARKETING",
			query: "SELECT date, channel, spend, rejection_reason FROM " +
				model.QuarantineTableName(model.KindMarketing) + " ORDER BY " + model.RowNumColumn,
			columns: []string{"date", "channel", "spend", "rejection_reason"},
		},
	}
}

// Diagnostics prints the bot summary, recent revenue, MRR, the LTV/CAC ratio and
// quarantine samples. A failing section is reported inline and the rest still print;
// the failures are returned joined.
func (r *Reporter) Diagnostics(ctx context.Context, w io.Writer) error {
	var errs []error
	for _, s := range diagnosticSections() {
		printHeader(w, s.title)

		rows, err := r.store.Query(ctx, s.query)
		if err != nil {
			r.logger.Warn("Diagnostics query failed", zap.String("section", s.title), zap.Error(err))
			fmt.Fprintln(w, color.RedString("Error querying %s: %v", s.title, err))
			errs = append(errs, fmt.Errorf("%s: %w", s.title, err))
			continue
		}
		if len(rows) == 0 {
			fmt.Fprintln(w, "No records found.")
			continue
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(s.columns, "\t"))
		for _, row := range rows {
			cells := make([]string, len(s.columns))
			for i, col := range s.columns {
				cells[i] = formatValue(row[col], s.digits[col])
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return errors.Join(errs...)
}

// Inventory prints every table with its column and row counts
func (r *Reporter) Inventory(ctx context.Context, w io.Writer) error {
	tables, err := r.store.ListTables(ctx)
	if err != nil {
		return fmt.Errorf("listing tables: %w", err)
	}

	printHeader(w, "LAKEHOUSE INVENTORY")
	if len(tables) == 0 {
		fmt.Fprintln(w, "No tables found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "table_name\tcolumn_count\trow_count")
	for _, t := range tables {
		count, err := r.store.CountRows(ctx, t.Name)
		if err != nil {
			return fmt.Errorf("counting %s: %w", t.Name, err)
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\n", t.Name, t.Columns, count)
	}
	return tw.Flush()
}

func printHeader(w io.Writer, title string) {
	bar := strings.Repeat("=", 15)
	_, _ = color.New(color.Bold).Fprintf(w, "\n%s %s %s\n", bar, title, bar)
}

// formatValue renders a scanned value; digits > 0 rounds floats
func formatValue(v interface{}, digits int) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format(converter.DateLayout)
		}
		return val.Format(time.RFC3339)
	case float64:
		if digits > 0 {
			scale := math.Pow(10, float64(digits))
			return strconv.FormatFloat(math.Round(val*scale)/scale, 'f', -1, 64)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return converter.ToString(val)
	}
}
