// pkg/cleaner/subscriptions.go
package cleaner

import (
	"strings"
	"time"

	"github.com/David-Botos/event-lakehouse/pkg/model"
)

// SubscriptionResult is the clean/quarantine split of the raw subscription rows
type SubscriptionResult struct {
	Clean       []model.Subscription
	Quarantined []model.QuarantinedSubscription
	Duplicates  int
}

// CleanSubscriptions quarantines rows without an id or a numeric price and keeps the
// latest created_at per subscription_id. A missing or unparseable created_at ranks below
// any parsed one; equal rankings keep the earlier row. Clean rows come out in the order
// their subscription_id first appeared.
func CleanSubscriptions(rows []model.RawSubscription) SubscriptionResult {
	var result SubscriptionResult

	best := make(map[string]int) // subscription_id -> index into result.Clean
	candidates := 0

	for _, raw := range rows {
		price, ok := parseNumeric(raw.Price)
		if raw.SubscriptionID == nil || strings.TrimSpace(*raw.SubscriptionID) == "" || !ok {
			result.Quarantined = append(result.Quarantined, model.QuarantinedSubscription{
				RawSubscription: raw, Reason: model.ReasonMissingIDOrPrice})
			continue
		}
		candidates++

		var createdAt *time.Time
		if t, ok := parseTimestamp(raw.CreatedAt); ok {
			createdAt = &t
		}

		sub := model.Subscription{
			SubscriptionID: *raw.SubscriptionID,
			Price:          price,
			CreatedAt:      createdAt,
			Status:         raw.Status,
		}

		idx, exists := best[sub.SubscriptionID]
		if !exists {
			best[sub.SubscriptionID] = len(result.Clean)
			result.Clean = append(result.Clean, sub)
			continue
		}
		if laterCreated(sub.CreatedAt, result.Clean[idx].CreatedAt) {
			result.Clean[idx] = sub
		}
	}

	result.Duplicates = candidates - len(result.Clean)
	return result
}

// laterCreated reports whether a strictly outranks b
func laterCreated(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.After(*b)
	}
}
