// pkg/model/tables.go
package model

// Kind identifies one of the three record kinds flowing through the pipeline
type Kind string

const (
	KindMarketing     Kind = "marketing"
	KindSubscriptions Kind = "subscriptions"
	KindEvents        Kind = "events"
)

// Kinds lists the record kinds in processing order
var Kinds = []Kind{KindMarketing, KindSubscriptions, KindEvents}

// Metric table names
const (
	DailyActiveUsersTable      = "daily_active_users"
	DailyRevenueGrossTable     = "daily_revenue_gross"
	DailyRevenueNetTable       = "daily_revenue_net"
	MRRMonthlyTable            = "mrr_monthly"
	WeeklyCohortRetentionTable = "weekly_cohort_retention"
	CACByChannelTable          = "cac_by_channel"
	LTVPerUserTable            = "ltv_per_user"
	LTVCACRatioTable           = "ltv_cac_ratio"
)

// RowNumColumn is the intake-assigned input ordinal carried by raw and quarantine tables
const RowNumColumn = "row_num"

// RawTableName returns the staged table name for kind, e.g. raw_events
func RawTableName(prefix string, kind Kind) string {
	return prefix + "_" + string(kind)
}

// CleanTableName returns the clean table name for kind, e.g. clean_events
func CleanTableName(kind Kind) string {
	return "clean_" + string(kind)
}

// QuarantineTableName returns the quarantine table name for kind, e.g. quarantine_events
func QuarantineTableName(kind Kind) string {
	return "quarantine_" + string(kind)
}

// RawSchema returns the staged table layout for kind
func RawSchema(prefix string, kind Kind) TableMetadata {
	cols := []Column{{Name: RowNumColumn, Type: TypeBigInt}}
	var names []string
	switch kind {
	case KindMarketing:
		names = []string{"date", "channel", "spend"}
	case KindSubscriptions:
		names = []string{"subscription_id", "price", "created_at", "status"}
	case KindEvents:
		names = EventColumns
	}
	for _, name := range names {
		cols = append(cols, Column{Name: name, Type: TypeText})
	}
	return TableMetadata{Table: RawTableName(prefix, kind), Columns: cols}
}

// EventColumns is the fixed column set every staged event must map onto
var EventColumns = []string{
	"event_id", "user_id", "event_type", "timestamp", "amount", "currency", "refers_to_event_id",
}

// QuarantineSchema returns the quarantine table layout for kind: the raw row plus its reason
func QuarantineSchema(prefix string, kind Kind) TableMetadata {
	return RawSchema(prefix, kind).WithColumn(QuarantineTableName(kind), RejectionColumn)
}

// CleanSchema returns the clean table layout for kind
func CleanSchema(kind Kind) TableMetadata {
	var cols []Column
	switch kind {
	case KindMarketing:
		cols = []Column{
			{Name: "date", Type: TypeDate},
			{Name: "channel", Type: TypeText},
			{Name: "spend", Type: TypeDouble},
		}
	case KindSubscriptions:
		cols = []Column{
			{Name: "subscription_id", Type: TypeText},
			{Name: "price", Type: TypeDouble},
			{Name: "created_at", Type: TypeTimestamp},
			{Name: "status", Type: TypeText},
		}
	case KindEvents:
		cols = []Column{
			{Name: "event_id", Type: TypeText},
			{Name: "user_id", Type: TypeText},
			{Name: "event_type", Type: TypeText},
			{Name: "event_ts", Type: TypeTimestamp},
			{Name: "amount", Type: TypeDouble},
			{Name: "currency", Type: TypeText},
			{Name: "refers_to_event_id", Type: TypeText},
			{Name: "is_bot", Type: TypeBoolean},
		}
	}
	return TableMetadata{Table: CleanTableName(kind), Columns: cols}
}

// MetricSchemas returns the layouts of the eight metric tables in derivation order
func MetricSchemas() []TableMetadata {
	return []TableMetadata{
		{Table: DailyActiveUsersTable, Columns: []Column{
			{Name: "date", Type: TypeDate}, {Name: "dau", Type: TypeBigInt}}},
		{Table: DailyRevenueGrossTable, Columns: []Column{
			{Name: "date", Type: TypeDate}, {Name: "gross_revenue", Type: TypeDouble}}},
		{Table: DailyRevenueNetTable, Columns: []Column{
			{Name: "date", Type: TypeDate}, {Name: "net_revenue", Type: TypeDouble}}},
		{Table: MRRMonthlyTable, Columns: []Column{
			{Name: "month", Type: TypeDate}, {Name: "mrr", Type: TypeDouble}}},
		{Table: WeeklyCohortRetentionTable, Columns: []Column{
			{Name: "signup_week", Type: TypeDate},
			{Name: "week_number", Type: TypeBigInt},
			{Name: "active_users", Type: TypeBigInt}}},
		{Table: CACByChannelTable, Columns: []Column{
			{Name: "channel", Type: TypeText}, {Name: "cac", Type: TypeDouble}}},
		{Table: LTVPerUserTable, Columns: []Column{
			{Name: "user_id", Type: TypeText}, {Name: "user_ltv", Type: TypeDouble}}},
		{Table: LTVCACRatioTable, Columns: []Column{
			{Name: "avg_ltv", Type: TypeDouble},
			{Name: "avg_cac", Type: TypeDouble},
			{Name: "ltv_cac_ratio", Type: TypeDouble}}},
	}
}

// MetricSchema returns the layout of one metric table; ok is false for unknown names
func MetricSchema(table string) (TableMetadata, bool) {
	for _, schema := range MetricSchemas() {
		if schema.Table == table {
			return schema, true
		}
	}
	return TableMetadata{}, false
}
