// pkg/cleaner/events.go
package cleaner

import (
	"sort"
	"time"

	"github.com/David-Botos/event-lakehouse/pkg/model"
)

// DefaultBotThreshold is the group size above which same-second events are flagged as bots
const DefaultBotThreshold = 20

// EventResult is the clean/quarantine split of the raw event rows
type EventResult struct {
	Clean       []model.Event
	Quarantined []model.QuarantinedEvent
	Duplicates  int
	Bots        int // surviving clean rows flagged is_bot
}

type eventCandidate struct {
	raw    model.RawEvent
	ts     time.Time
	amount float64
	isBot  bool
}

// CleanEvents validates events, flags bursts of more than botThreshold events sharing a
// user and raw timestamp, and keeps the latest event per event_id (earlier row on ties).
// Rows must be in row_num order.
func CleanEvents(rows []model.RawEvent, botThreshold int) EventResult {
	var result EventResult

	candidates := make([]*eventCandidate, 0, len(rows))
	for _, raw := range rows {
		if reason, rejected := rejectEvent(raw); rejected {
			result.Quarantined = append(result.Quarantined, model.QuarantinedEvent{RawEvent: raw, Reason: reason})
			continue
		}

		ts, _ := parseTimestamp(raw.Timestamp)
		amount, ok := parseNumeric(raw.Amount)
		if !ok {
			amount = 0 // amount was NULL
		}
		candidates = append(candidates, &eventCandidate{raw: raw, ts: ts, amount: amount})
	}

	flagBots(candidates, botThreshold)

	// Dedup by event_id; NULL ids share one group
	best := make(map[string]*eventCandidate)
	var order []string
	for _, c := range candidates {
		key := nullKey(c.raw.EventID)
		current, exists := best[key]
		if !exists {
			best[key] = c
			order = append(order, key)
			continue
		}
		if c.ts.After(current.ts) {
			best[key] = c
		}
	}
	result.Duplicates = len(candidates) - len(best)

	result.Clean = make([]model.Event, 0, len(best))
	for _, key := range order {
		c := best[key]
		if c.isBot {
			result.Bots++
		}
		result.Clean = append(result.Clean, model.Event{
			EventID:         c.raw.EventID,
			UserID:          *c.raw.UserID,
			EventType:       c.raw.EventType,
			EventTS:         c.ts,
			Amount:          c.amount,
			Currency:        c.raw.Currency,
			RefersToEventID: c.raw.RefersToEventID,
			IsBot:           c.isBot,
		})
	}

	sort.SliceStable(result.Clean, func(i, j int) bool {
		a, b := result.Clean[i], result.Clean[j]
		if !a.EventTS.Equal(b.EventTS) {
			return a.EventTS.Before(b.EventTS)
		}
		return nullKey(a.EventID) < nullKey(b.EventID)
	})

	return result
}

// rejectEvent applies the event rules in precedence order
func rejectEvent(raw model.RawEvent) (model.RejectionReason, bool) {
	if raw.UserID == nil {
		return model.ReasonMissingUserID, true
	}
	if raw.Amount != nil {
		if _, ok := parseNumeric(raw.Amount); !ok {
			return model.ReasonInvalidAmount, true
		}
	}
	if _, ok := parseTimestamp(raw.Timestamp); !ok {
		return model.ReasonUnparseableTimestamp, true
	}
	return "", false
}

// flagBots marks every candidate in a (user_id, raw timestamp) group larger than threshold
func flagBots(candidates []*eventCandidate, threshold int) {
	groups := make(map[string][]*eventCandidate)
	for _, c := range candidates {
		key := *c.raw.UserID + "\x00" + *c.raw.Timestamp
		groups[key] = append(groups[key], c)
	}
	for _, members := range groups {
		if len(members) <= threshold {
			continue
		}
		for _, c := range members {
			c.isBot = true
		}
	}
}
