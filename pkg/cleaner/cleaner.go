// pkg/cleaner/cleaner.go
package cleaner

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

// DataCleaner splits the raw tables into clean and quarantine tables
type DataCleaner struct {
	store        *store.Store
	rawPrefix    string
	botThreshold int
	logger       *zap.Logger
}

// NewDataCleaner creates a new DataCleaner instance
func NewDataCleaner(st *store.Store, rawPrefix string, botThreshold int, logger *zap.Logger) (*DataCleaner, error) {
	if st == nil {
		return nil, errors.New("store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if botThreshold <= 0 {
		botThreshold = DefaultBotThreshold
	}

	return &DataCleaner{
		store:        st,
		rawPrefix:    rawPrefix,
		botThreshold: botThreshold,
		logger:       logger.Named("cleaner"),
	}, nil
}

// Run cleans every record kind and replaces the six clean/quarantine tables
func (c *DataCleaner) Run(ctx context.Context) ([]model.CleaningSummary, error) {
	steps := []func(context.Context) (model.CleaningSummary, error){
		c.cleanMarketing,
		c.cleanSubscriptions,
		c.cleanEvents,
	}

	summaries := make([]model.CleaningSummary, 0, len(steps))
	for _, step := range steps {
		summary, err := step(ctx)
		if err != nil {
			return summaries, err
		}
		if !summary.Balanced() {
			return summaries, fmt.Errorf("%s rows do not reconcile: raw=%d clean=%d quarantined=%d duplicates=%d",
				summary.Kind, summary.Raw, summary.Clean, summary.Quarantined, summary.Duplicates)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (c *DataCleaner) cleanMarketing(ctx context.Context) (model.CleaningSummary, error) {
	raw, err := c.readRaw(ctx, model.KindMarketing)
	if err != nil {
		return model.CleaningSummary{}, err
	}

	rows := make([]model.RawMarketing, len(raw))
	for i, r := range raw {
		rows[i] = model.RawMarketing{
			RowNum:  rowNum(r),
			Date:    converter.ToNullableString(r["date"]),
			Channel: converter.ToNullableString(r["channel"]),
			Spend:   converter.ToNullableString(r["spend"]),
		}
	}

	result := CleanMarketing(rows)
	summary := model.CleaningSummary{
		Kind:        model.KindMarketing,
		Raw:         len(rows),
		Clean:       len(result.Clean),
		Quarantined: len(result.Quarantined),
		Duplicates:  result.Duplicates,
	}
	return summary, c.write(ctx, model.KindMarketing, model.RowsOf(result.Clean), model.RowsOf(result.Quarantined), summary)
}

func (c *DataCleaner) cleanSubscriptions(ctx context.Context) (model.CleaningSummary, error) {
	raw, err := c.readRaw(ctx, model.KindSubscriptions)
	if err != nil {
		return model.CleaningSummary{}, err
	}

	rows := make([]model.RawSubscription, len(raw))
	for i, r := range raw {
		rows[i] = model.RawSubscription{
			RowNum:         rowNum(r),
			SubscriptionID: converter.ToNullableString(r["subscription_id"]),
			Price:          converter.ToNullableString(r["price"]),
			CreatedAt:      converter.ToNullableString(r["created_at"]),
			Status:         converter.ToNullableString(r["status"]),
		}
	}

	result := CleanSubscriptions(rows)
	summary := model.CleaningSummary{
		Kind:        model.KindSubscriptions,
		Raw:         len(rows),
		Clean:       len(result.Clean),
		Quarantined: len(result.Quarantined),
		Duplicates:  result.Duplicates,
	}
	return summary, c.write(ctx, model.KindSubscriptions, model.RowsOf(result.Clean), model.RowsOf(result.Quarantined), summary)
}

func (c *DataCleaner) cleanEvents(ctx context.Context) (model.CleaningSummary, error) {
	raw, err := c.readRaw(ctx, model.KindEvents)
	if err != nil {
		return model.CleaningSummary{}, err
	}

	rows := make([]model.RawEvent, len(raw))
	for i, r := range raw {
		rows[i] = model.RawEvent{
			RowNum:          rowNum(r),
			EventID:         converter.ToNullableString(r["event_id"]),
			UserID:          converter.ToNullableString(r["user_id"]),
			EventType:       converter.ToNullableString(r["event_type"]),
			Timestamp:       converter.ToNullableString(r["timestamp"]),
			Amount:          converter.ToNullableString(r["amount"]),
			Currency:        converter.ToNullableString(r["currency"]),
			RefersToEventID: converter.ToNullableString(r["refers_to_event_id"]),
		}
	}

	result := CleanEvents(rows, c.botThreshold)
	summary := model.CleaningSummary{
		Kind:        model.KindEvents,
		Raw:         len(rows),
		Clean:       len(result.Clean),
		Quarantined: len(result.Quarantined),
		Duplicates:  result.Duplicates,
	}
	if result.Bots > 0 {
		c.logger.Info("Flagged bot traffic",
			zap.Int("bot_events", result.Bots),
			zap.Int("threshold", c.botThreshold))
	}
	return summary, c.write(ctx, model.KindEvents, model.RowsOf(result.Clean), model.RowsOf(result.Quarantined), summary)
}

// readRaw loads the raw table for kind in input order
func (c *DataCleaner) readRaw(ctx context.Context, kind model.Kind) ([]map[string]interface{}, error) {
	table := model.RawTableName(c.rawPrefix, kind)
	rows, err := c.store.ReadTable(ctx, table, model.RowNumColumn)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}
	return rows, nil
}

// write replaces the clean and quarantine tables for kind
func (c *DataCleaner) write(
	ctx context.Context,
	kind model.Kind,
	clean, quarantined [][]interface{},
	summary model.CleaningSummary,
) error {
	start := time.Now()

	if _, err := c.store.ReplaceTable(ctx, model.CleanSchema(kind), clean); err != nil {
		return fmt.Errorf("failed to write clean %s: %w", kind, err)
	}
	if _, err := c.store.ReplaceTable(ctx, model.QuarantineSchema(c.rawPrefix, kind), quarantined); err != nil {
		return fmt.Errorf("failed to write quarantine %s: %w", kind, err)
	}

	c.logger.Info("Cleaned records",
		zap.String("kind", string(kind)),
		zap.Int("raw", summary.Raw),
		zap.Int("clean", summary.Clean),
		zap.Int("quarantined", summary.Quarantined),
		zap.Int("duplicates", summary.Duplicates),
		zap.Duration("duration", time.Since(start)))
	return nil
}

func rowNum(row map[string]interface{}) int64 {
	n, err := converter.ToInt(row[model.RowNumColumn])
	if err != nil {
		return 0
	}
	return n
}
