// pkg/analytics/calendar.go
package analytics

import (
	"math"
	"time"

	"github.com/David-Botos/event-lakehouse/pkg/model"
)

// Event types that carry revenue
const (
	EventPurchase = "purchase"
	EventRefund   = "refund"
	EventSignup   = "signup"
)

// dayOf truncates t to its UTC calendar day
func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// weekOf returns the Monday starting t's UTC week
func weekOf(t time.Time) time.Time {
	day := dayOf(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// monthOf returns the first day of t's UTC month
func monthOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// weeksBetween returns the whole number of weeks from a to b (both week starts)
func weeksBetween(a, b time.Time) int64 {
	days := math.Round(b.Sub(a).Hours() / 24)
	return int64(days) / 7
}

// humanEvents drops events flagged as bot traffic
func humanEvents(events []model.Event) []model.Event {
	humans := make([]model.Event, 0, len(events))
	for _, e := range events {
		if !e.IsBot {
			humans = append(humans, e)
		}
	}
	return humans
}

// signedAmount is the event's contribution to net revenue
func signedAmount(e model.Event) float64 {
	switch e.Type() {
	case EventPurchase:
		return e.Amount
	case EventRefund:
		return -e.Amount
	default:
		return 0
	}
}

// sortedDays returns the keys of a day-bucketed map in ascending order
func sortedDays[V any](m map[time.Time]V) []time.Time {
	days := make([]time.Time, 0, len(m))
	for d := range m {
		days = append(days, d)
	}
	sortTimes(days)
	return days
}
