// pkg/cleaner/cleaner_test.go
package cleaner

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/event-lakehouse/pkg/config"
	"github.com/David-Botos/event-lakehouse/pkg/connector"
	"github.com/David-Botos/event-lakehouse/pkg/model"
	"github.com/David-Botos/event-lakehouse/pkg/store"
)

var s = model.StringPtr

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		in   *string
		want float64
		ok   bool
	}{
		{s("100"), 100, true},
		{s(" 12.50 "), 12.5, true},
		{s("-50"), -50, true},
		{s("1e3"), 1000, true},
		{s("ten"), 0, false},
		{s(""), 0, false},
		{s("NaN"), 0, false},
		{s("Inf"), 0, false},
		{s("0x1p4"), 0, false},
		{s("0X10"), 0, false},
		{s("1_0"), 0, false},
		{s("+5"), 5, true},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := parseNumeric(tt.in)
		assert.Equal(t, tt.ok, ok)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	for _, in := range []string{
		"2024-01-15T10:30:00Z",
		"2024-01-15T12:30:00+02:00",
		"2024-01-15 10:30:00",
		"2024-01-15T10:30:00",
	} {
		got, ok := parseTimestamp(s(in))
		require.True(t, ok, in)
		assert.True(t, got.Equal(want), in)
		assert.Equal(t, time.UTC, got.Location())
	}

	got, ok := parseTimestamp(s("2024-01-15T10:30:00.250Z"))
	require.True(t, ok)
	assert.Equal(t, 250*time.Millisecond, time.Duration(got.Nanosecond()))

	got, ok = parseTimestamp(s("2024-01-15"))
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), got)

	for _, in := range []string{"yesterday", "15/01/2024", ""} {
		_, ok := parseTimestamp(s(in))
		assert.False(t, ok, in)
	}
}

func TestCleanMarketing(t *testing.T) {
	rows := []model.RawMarketing{
		{RowNum: 1, Date: s("2024-01-02"), Channel: s("google"), Spend: s("100")},
		{RowNum: 2, Date: s("2024-01-01"), Channel: s("meta"), Spend: s("-50")},
		{RowNum: 3, Date: s("2024-01-01"), Channel: s("meta"), Spend: s("ten")},
		{RowNum: 4, Date: s("2024-01-02"), Channel: s("google"), Spend: s("100.0")},
		{RowNum: 5, Date: s("2024-01-01"), Channel: s("tiktok"), Spend: s("20")},
		{RowNum: 6, Date: s("not a date"), Channel: s("tiktok"), Spend: s("20")},
		{RowNum: 7, Date: s("2024-01-01"), Channel: nil, Spend: nil},
		{RowNum: 8, Date: s("2024-01-01"), Channel: s("google"), Spend: s("100")},
	}

	result := CleanMarketing(rows)

	require.Len(t, result.Quarantined, 4)
	assert.Equal(t, model.ReasonNegativeSpend, result.Quarantined[0].Reason)
	assert.Equal(t, int64(2), result.Quarantined[0].RowNum)
	assert.Equal(t, model.ReasonNonNumericSpend, result.Quarantined[1].Reason)
	assert.Equal(t, model.ReasonInvalidDate, result.Quarantined[2].Reason)
	assert.Equal(t, model.ReasonNonNumericSpend, result.Quarantined[3].Reason)

	// 100 and 100.0 on the same day and channel collapse
	assert.Equal(t, 1, result.Duplicates)
	require.Len(t, result.Clean, 3)
	assert.Equal(t, "tiktok", *result.Clean[0].Channel)
	assert.Equal(t, "google", *result.Clean[1].Channel)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), result.Clean[1].Date)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), result.Clean[2].Date)

	assert.Equal(t, len(rows), len(result.Clean)+len(result.Quarantined)+result.Duplicates)
}

func TestCleanSubscriptions(t *testing.T) {
	rows := []model.RawSubscription{
		{RowNum: 1, SubscriptionID: s("s1"), Price: s("10"), CreatedAt: s("2024-01-01 00:00:00"), Status: s("trial")},
		{RowNum: 2, SubscriptionID: s("s1"), Price: s("20"), CreatedAt: s("2024-02-01 00:00:00"), Status: s("active")},
		{RowNum: 3, SubscriptionID: s("s1"), Price: s("30"), CreatedAt: s("2024-01-15 00:00:00"), Status: s("cancelled")},
		{RowNum: 4, SubscriptionID: nil, Price: s("5")},
		{RowNum: 5, SubscriptionID: s("s2"), Price: nil},
		{RowNum: 6, SubscriptionID: s("s3"), Price: s("abc")},
		{RowNum: 7, SubscriptionID: s("s4"), Price: s("7"), CreatedAt: nil},
		{RowNum: 8, SubscriptionID: s("s4"), Price: s("8"), CreatedAt: s("garbage")},
		{RowNum: 9, SubscriptionID: s("s5"), Price: s("1"), CreatedAt: s("2024-03-01")},
		{RowNum: 10, SubscriptionID: s("s5"), Price: s("2"), CreatedAt: s("2024-03-01")},
	}

	result := CleanSubscriptions(rows)

	require.Len(t, result.Quarantined, 3)
	for _, q := range result.Quarantined {
		assert.Equal(t, model.ReasonMissingIDOrPrice, q.Reason)
	}

	require.Len(t, result.Clean, 3)
	assert.Equal(t, "s1", result.Clean[0].SubscriptionID)
	assert.Equal(t, 20.0, result.Clean[0].Price)
	assert.Equal(t, "active", *result.Clean[0].Status)

	// Neither s4 row has a usable created_at: the earlier row wins
	assert.Equal(t, 7.0, result.Clean[1].Price)
	assert.Nil(t, result.Clean[1].CreatedAt)

	// Equal created_at: the earlier row wins
	assert.Equal(t, 1.0, result.Clean[2].Price)

	assert.Equal(t, 4, result.Duplicates)
	assert.Equal(t, len(rows), len(result.Clean)+len(result.Quarantined)+result.Duplicates)
}

func TestCleanEventsValidation(t *testing.T) {
	rows := []model.RawEvent{
		{RowNum: 1, EventID: s("e1"), UserID: s("u1"), EventType: s("purchase"), Timestamp: s("2024-01-01T10:00:00Z"), Amount: s("ten")},
		{RowNum: 2, EventID: s("e2"), UserID: nil, EventType: s("purchase"), Timestamp: s("2024-01-01T10:00:00Z"), Amount: s("ten")},
		{RowNum: 3, EventID: s("e3"), UserID: s("u3"), EventType: s("signup"), Timestamp: s("2024-01-01 10:00:00"), Amount: nil},
		{RowNum: 4, EventID: s("e4"), UserID: s("u4"), EventType: s("signup"), Timestamp: s("soon"), Amount: nil},
		{RowNum: 5, EventID: s("e5"), UserID: s("u5"), EventType: s("purchase"), Timestamp: nil, Amount: s("5")},
	}

	result := CleanEvents(rows, DefaultBotThreshold)

	require.Len(t, result.Quarantined, 4)
	assert.Equal(t, model.ReasonInvalidAmount, result.Quarantined[0].Reason)
	assert.Contains(t, string(result.Quarantined[0].Reason), "Invalid numeric amount")
	assert.Equal(t, model.ReasonMissingUserID, result.Quarantined[1].Reason)
	assert.Equal(t, model.ReasonUnparseableTimestamp, result.Quarantined[2].Reason)
	assert.Equal(t, model.ReasonUnparseableTimestamp, result.Quarantined[3].Reason)

	require.Len(t, result.Clean, 1)
	assert.Equal(t, "e3", *result.Clean[0].EventID)
	assert.Zero(t, result.Clean[0].Amount)
	assert.False(t, result.Clean[0].IsBot)
}

func TestCleanRejectsNonDecimalNumbers(t *testing.T) {
	marketing := CleanMarketing([]model.RawMarketing{
		{RowNum: 1, Date: s("2024-01-01"), Channel: s("google"), Spend: s("0x1p4")},
		{RowNum: 2, Date: s("2024-01-01"), Channel: s("meta"), Spend: s("1_000")},
	})
	assert.Empty(t, marketing.Clean)
	require.Len(t, marketing.Quarantined, 2)
	for _, q := range marketing.Quarantined {
		assert.Equal(t, model.ReasonNonNumericSpend, q.Reason)
	}

	events := CleanEvents([]model.RawEvent{
		{RowNum: 1, EventID: s("e1"), UserID: s("u1"), EventType: s("purchase"), Timestamp: s("2024-01-01T10:00:00Z"), Amount: s("1_0")},
	}, DefaultBotThreshold)
	assert.Empty(t, events.Clean)
	require.Len(t, events.Quarantined, 1)
	assert.Equal(t, model.ReasonInvalidAmount, events.Quarantined[0].Reason)
}

func burst(user, ts string, n, startRow int) []model.RawEvent {
	rows := make([]model.RawEvent, n)
	for i := range rows {
		rows[i] = model.RawEvent{
			RowNum:    int64(startRow + i),
			EventID:   s(fmt.Sprintf("%s-%d", user, startRow+i)),
			UserID:    s(user),
			EventType: s("page_view"),
			Timestamp: s(ts),
		}
	}
	return rows
}

func TestCleanEventsBotFlagging(t *testing.T) {
	var rows []model.RawEvent
	rows = append(rows, burst("bot", "2024-01-01T10:00:00Z", 25, 1)...)
	rows = append(rows, burst("human", "2024-01-01T10:00:00Z", 20, 100)...)
	// Same instant, different raw strings: not one burst
	rows = append(rows, burst("mixed", "2024-01-01T10:00:00Z", 15, 200)...)
	rows = append(rows, burst("mixed", "2024-01-01 10:00:00", 15, 300)...)

	result := CleanEvents(rows, DefaultBotThreshold)
	require.Empty(t, result.Quarantined)

	var bots, humans int
	for _, e := range result.Clean {
		if e.IsBot {
			bots++
			assert.Equal(t, "bot", e.UserID)
		} else {
			humans++
		}
	}
	assert.Equal(t, 25, bots)
	assert.Equal(t, 25, result.Bots)
	assert.Equal(t, 20+15+15, humans)
}

func TestCleanEventsDedup(t *testing.T) {
	rows := []model.RawEvent{
		{RowNum: 1, EventID: s("e1"), UserID: s("u1"), Timestamp: s("2024-01-01T10:00:00Z"), Amount: s("1")},
		{RowNum: 2, EventID: s("e1"), UserID: s("u1"), Timestamp: s("2024-01-02T10:00:00Z"), Amount: s("2")},
		{RowNum: 3, EventID: s("e1"), UserID: s("u1"), Timestamp: s("2024-01-02 10:00:00"), Amount: s("3")},
		{RowNum: 4, EventID: s("e0"), UserID: s("u2"), Timestamp: s("2024-01-02T10:00:00Z"), Amount: s("4")},
	}

	result := CleanEvents(rows, DefaultBotThreshold)

	assert.Equal(t, 2, result.Duplicates)
	require.Len(t, result.Clean, 2)

	// Equal event_ts: ordered by event_id
	assert.Equal(t, "e0", *result.Clean[0].EventID)
	assert.Equal(t, "e1", *result.Clean[1].EventID)
	// Latest wins; the earlier row breaks the tie
	assert.Equal(t, 2.0, result.Clean[1].Amount)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	conn, err := connector.NewSQLiteConnector(context.Background(), filepath.Join(t.TempDir(), "clean.db"), zap.NewNop())
	require.NoError(t, err)
	st := store.New(conn, config.DriverSQLite, store.Options{ChunkSize: 50, StatementTimeout: time.Minute}, zap.NewNop())
	t.Cleanup(func() { st.Close() })
	return st
}

func TestDataCleanerRun(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	marketing := []model.RawMarketing{
		{RowNum: 1, Date: s("2024-01-01"), Channel: s("google"), Spend: s("100")},
		{RowNum: 2, Date: s("2024-01-01"), Channel: s("google"), Spend: s("100")},
		{RowNum: 3, Date: s("2024-01-01"), Channel: s("meta"), Spend: s("-50")},
	}
	subs := []model.RawSubscription{
		{RowNum: 1, SubscriptionID: s("s1"), Price: s("50"), CreatedAt: s("2024-01-03 00:00:00"), Status: s("active")},
	}
	events := append(burst("bot", "2024-01-01T00:00:01Z", 25, 1),
		model.RawEvent{RowNum: 26, EventID: s("x"), UserID: s("u1"), Timestamp: s("2024-01-01T00:00:00Z"), Amount: s("ten")},
	)

	_, err := st.ReplaceTable(ctx, model.RawSchema("raw", model.KindMarketing), model.RowsOf(marketing))
	require.NoError(t, err)
	_, err = st.ReplaceTable(ctx, model.RawSchema("raw", model.KindSubscriptions), model.RowsOf(subs))
	require.NoError(t, err)
	_, err = st.ReplaceTable(ctx, model.RawSchema("raw", model.KindEvents), model.RowsOf(events))
	require.NoError(t, err)

	c, err := NewDataCleaner(st, "raw", 0, zap.NewNop())
	require.NoError(t, err)

	summaries, err := c.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.CleaningSummary{
		{Kind: model.KindMarketing, Raw: 3, Clean: 1, Quarantined: 1, Duplicates: 1},
		{Kind: model.KindSubscriptions, Raw: 1, Clean: 1},
		{Kind: model.KindEvents, Raw: 26, Clean: 25, Quarantined: 1},
	}, summaries)

	quarantine, err := st.ReadTable(ctx, "quarantine_marketing")
	require.NoError(t, err)
	require.Len(t, quarantine, 1)
	assert.Equal(t, "Negative spend", quarantine[0]["rejection_reason"])
	assert.Equal(t, "-50", quarantine[0]["spend"])
	assert.Equal(t, int64(3), quarantine[0][model.RowNumColumn])

	clean, err := st.Query(ctx, `SELECT COUNT(*) AS n FROM clean_events WHERE is_bot = 1`)
	require.NoError(t, err)
	assert.Equal(t, int64(25), clean[0]["n"])

	qe, err := st.ReadTable(ctx, "quarantine_events")
	require.NoError(t, err)
	require.Len(t, qe, 1)
	assert.Equal(t, "ten", qe[0]["amount"])
}

func TestDataCleanerMissingRawTable(t *testing.T) {
	c, err := NewDataCleaner(newTestStore(t), "raw", 20, zap.NewNop())
	require.NoError(t, err)

	_, err = c.Run(context.Background())
	assert.ErrorIs(t, err, store.ErrTableNotFound)
}

func TestNewDataCleanerRequiresDependencies(t *testing.T) {
	_, err := NewDataCleaner(nil, "raw", 20, zap.NewNop())
	assert.Error(t, err)
}
