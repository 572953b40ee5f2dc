// pkg/analytics/deriver.go
package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/event-lakehouse/pkg/converter"
	"github.com/David-Botos/event-lakehouse/pkg/model"
	"github.com/David-Botos/event-lakehouse/pkg/store"
)

// Deriver computes the metric tables from the clean tables
type Deriver struct {
	store  *store.Store
	logger *zap.Logger
}

// NewDeriver creates a new Deriver
func NewDeriver(st *store.Store, logger *zap.Logger) (*Deriver, error) {
	if st == nil {
		return nil, errors.New("store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Deriver{store: st, logger: logger.Named("analytics")}, nil
}

// Metrics holds every derived table for one run
type Metrics struct {
	DailyActiveUsers      []model.DailyActiveUsers
	DailyRevenueGross     []model.DailyRevenue
	DailyRevenueNet       []model.DailyRevenue
	MRRMonthly            []model.MonthlyRecurringRevenue
	WeeklyCohortRetention []model.CohortRetention
	CACByChannel          []model.ChannelCAC
	LTVPerUser            []model.UserLTV
	LTVCACRatio           model.LTVCACRatio
}

// Compute derives every metric from clean inputs
func Compute(marketing []model.Marketing, subscriptions []model.Subscription, events []model.Event) Metrics {
	m := Metrics{
		DailyActiveUsers:      DailyActiveUsers(events),
		DailyRevenueGross:     DailyRevenueGross(events),
		DailyRevenueNet:       DailyRevenueNet(events),
		MRRMonthly:            MRRMonthly(subscriptions),
		WeeklyCohortRetention: WeeklyCohortRetention(events),
		CACByChannel:          CACByChannel(marketing, events),
		LTVPerUser:            LTVPerUser(events),
	}
	m.LTVCACRatio = LTVCACRatio(m.LTVPerUser, m.CACByChannel)
	return m
}

// tables renders the metrics as insert rows keyed by table name
func (m Metrics) tables() map[string][][]interface{} {
	return map[string][][]interface{}{
		model.DailyActiveUsersTable:      model.RowsOf(m.DailyActiveUsers),
		model.DailyRevenueGrossTable:     model.RowsOf(m.DailyRevenueGross),
		model.DailyRevenueNetTable:       model.RowsOf(m.DailyRevenueNet),
		model.MRRMonthlyTable:            model.RowsOf(m.MRRMonthly),
		model.WeeklyCohortRetentionTable: model.RowsOf(m.WeeklyCohortRetention),
		model.CACByChannelTable:          model.RowsOf(m.CACByChannel),
		model.LTVPerUserTable:            model.RowsOf(m.LTVPerUser),
		model.LTVCACRatioTable:           {m.LTVCACRatio.Values()},
	}
}

// Run reads the clean tables and replaces the eight metric tables
func (d *Deriver) Run(ctx context.Context) ([]model.TableSummary, error) {
	marketing, err := d.loadMarketing(ctx)
	if err != nil {
		return nil, err
	}
	subscriptions, err := d.loadSubscriptions(ctx)
	if err != nil {
		return nil, err
	}
	events, err := d.loadEvents(ctx)
	if err != nil {
		return nil, err
	}

	rowsByTable := Compute(marketing, subscriptions, events).tables()

	schemas := model.MetricSchemas()
	summaries := make([]model.TableSummary, 0, len(schemas))
	for _, schema := range schemas {
		start := time.Now()
		n, err := d.store.ReplaceTable(ctx, schema, rowsByTable[schema.Table])
		if err != nil {
			return summaries, fmt.Errorf("failed to write %s: %w", schema.Table, err)
		}
		summaries = append(summaries, model.TableSummary{Table: schema.Table, Rows: int(n)})

		d.logger.Info("Derived metric table",
			zap.String("table", schema.Table),
			zap.Int64("rows", n),
			zap.Duration("duration", time.Since(start)))
	}
	return summaries, nil
}

func (d *Deriver) loadMarketing(ctx context.Context) ([]model.Marketing, error) {
	rows, err := d.store.ReadTable(ctx, model.CleanTableName(model.KindMarketing), "date", "channel", "spend")
	if err != nil {
		return nil, fmt.Errorf("failed to read clean marketing: %w", err)
	}

	out := make([]model.Marketing, 0, len(rows))
	for i, r := range rows {
		date, err := converter.ToTime(r["date"])
		if err != nil {
			return nil, fmt.Errorf("clean_marketing row %d: date: %w", i, err)
		}
		spend, err := converter.ToFloat(r["spend"])
		if err != nil {
			return nil, fmt.Errorf("clean_marketing row %d: spend: %w", i, err)
		}
		out = append(out, model.Marketing{
			Date:    date,
			Channel: converter.ToNullableString(r["channel"]),
			Spend:   spend,
		})
	}
	return out, nil
}

func (d *Deriver) loadSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	rows, err := d.store.ReadTable(ctx, model.CleanTableName(model.KindSubscriptions), "subscription_id")
	if err != nil {
		return nil, fmt.Errorf("failed to read clean subscriptions: %w", err)
	}

	out := make([]model.Subscription, 0, len(rows))
	for i, r := range rows {
		price, err := converter.ToFloat(r["price"])
		if err != nil {
			return nil, fmt.Errorf("clean_subscriptions row %d: price: %w", i, err)
		}
		sub := model.Subscription{
			SubscriptionID: converter.ToString(r["subscription_id"]),
			Price:          price,
			Status:         converter.ToNullableString(r["status"]),
		}
		if r["created_at"] != nil {
			t, err := converter.ToTime(r["created_at"])
			if err != nil {
				return nil, fmt.Errorf("clean_subscriptions row %d: created_at: %w", i, err)
			}
			sub.CreatedAt = &t
		}
		out = append(out, sub)
	}
	return out, nil
}

func (d *Deriver) loadEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := d.store.ReadTable(ctx, model.CleanTableName(model.KindEvents), "event_ts", "event_id")
	if err != nil {
		return nil, fmt.Errorf("failed to read clean events: %w", err)
	}

	out := make([]model.Event, 0, len(rows))
	for i, r := range rows {
		ts, err := converter.ToTime(r["event_ts"])
		if err != nil {
			return nil, fmt.Errorf("clean_events row %d: event_ts: %w", i, err)
		}
		amount, err := converter.ToFloat(r["amount"])
		if err != nil {
			return nil, fmt.Errorf("clean_events row %d: amount: %w", i, err)
		}
		isBot, err := converter.ToBool(r["is_bot"])
		if err != nil {
			return nil, fmt.Errorf("clean_events row %d: is_bot: %w", i, err)
		}
		out = append(out, model.Event{
			EventID:         converter.ToNullableString(r["event_id"]),
			UserID:          converter.ToString(r["user_id"]),
			EventType:       converter.ToNullableString(r["event_type"]),
			EventTS:         ts,
			Amount:          amount,
			Currency:        converter.ToNullableString(r["currency"]),
			RefersToEventID: converter.ToNullableString(r["refers_to_event_id"]),
			IsBot:           isBot,
		})
	}
	return out, nil
}
