// pkg/analytics/revenue.go
package analytics

import (
	"sort"
	"time"

	"github.com/David-Botos/event-lakehouse/pkg/model"
)

// DailyActiveUsers counts distinct human users per event day
func DailyActiveUsers(events []model.Event) []model.DailyActiveUsers {
	users := make(map[time.Time]map[string]struct{})
	for _, e := range humanEvents(events) {
		day := dayOf(e.EventTS)
		if users[day] == nil {
			users[day] = make(map[string]struct{})
		}
		users[day][e.UserID] = struct{}{}
	}

	rows := make([]model.DailyActiveUsers, 0, len(users))
	for _, day := range sortedDays(users) {
		rows = append(rows, model.DailyActiveUsers{Date: day, DAU: int64(len(users[day]))})
	}
	return rows
}

// DailyRevenueGross sums human purchase amounts per day. Days without purchases are absent.
func DailyRevenueGross(events []model.Event) []model.DailyRevenue {
	totals := make(map[time.Time]float64)
	for _, e := range humanEvents(events) {
		if e.Type() == EventPurchase {
			totals[dayOf(e.EventTS)] += e.Amount
		}
	}
	return revenueRows(totals)
}

// DailyRevenueNet is purchases minus refunds per day, with a row for every day
// that has any human event
func DailyRevenueNet(events []model.Event) []model.DailyRevenue {
	totals := make(map[time.Time]float64)
	for _, e := range humanEvents(events) {
		totals[dayOf(e.EventTS)] += signedAmount(e)
	}
	return revenueRows(totals)
}

func revenueRows(totals map[time.Time]float64) []model.DailyRevenue {
	rows := make([]model.DailyRevenue, 0, len(totals))
	for _, day := range sortedDays(totals) {
		rows = append(rows, model.DailyRevenue{Date: day, Revenue: totals[day]})
	}
	return rows
}

// MRRMonthly sums the price of active subscriptions by created_at month.
// Subscriptions without a created_at are skipped.
func MRRMonthly(subscriptions []model.Subscription) []model.MonthlyRecurringRevenue {
	totals := make(map[time.Time]float64)
	for _, s := range subscriptions {
		if s.Status == nil || *s.Status != "active" || s.CreatedAt == nil {
			continue
		}
		totals[monthOf(*s.CreatedAt)] += s.Price
	}

	rows := make([]model.MonthlyRecurringRevenue, 0, len(totals))
	for _, month := range sortedDays(totals) {
		rows = append(rows, model.MonthlyRecurringRevenue{Month: month, MRR: totals[month]})
	}
	return rows
}

// LTVPerUser nets purchases against refunds for every human user,
// ordered by value descending then user_id
func LTVPerUser(events []model.Event) []model.UserLTV {
	totals := make(map[string]float64)
	for _, e := range humanEvents(events) {
		totals[e.UserID] += signedAmount(e)
	}

	rows := make([]model.UserLTV, 0, len(totals))
	for user, ltv := range totals {
		rows = append(rows, model.UserLTV{UserID: user, LTV: ltv})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].LTV != rows[j].LTV {
			return rows[i].LTV > rows[j].LTV
		}
		return rows[i].UserID < rows[j].UserID
	})
	return rows
}

func sortTimes(times []time.Time) {
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
}
