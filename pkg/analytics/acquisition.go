// pkg/analytics/acquisition.go
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/David-Botos/event-lakehouse/pkg/model"
)

// SafeDivide returns numerator/denominator, or nil when either side is nil, the
// denominator is zero, or the quotient is not finite
func SafeDivide(numerator, denominator *float64) *float64 {
	if numerator == nil || denominator == nil || *denominator == 0 {
		return nil
	}
	q := *numerator / *denominator
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return nil
	}
	return &q
}

// CACByChannel divides each channel's total spend by the distinct human users who
// signed up on any of that channel's spend dates. Channels with no matching signup get
// a nil CAC. Rows are ordered by CAC descending with nils last, then by channel.
func CACByChannel(marketing []model.Marketing, events []model.Event) []model.ChannelCAC {
	signupsByDay := make(map[time.Time]map[string]struct{})
	for _, e := range humanEvents(events) {
		if e.Type() != EventSignup {
			continue
		}
		day := dayOf(e.EventTS)
		if signupsByDay[day] == nil {
			signupsByDay[day] = make(map[string]struct{})
		}
		signupsByDay[day][e.UserID] = struct{}{}
	}

	type channelTotals struct {
		channel *string
		spend   float64
		users   map[string]struct{}
	}
	byChannel := make(map[string]*channelTotals)
	var order []string
	for _, m := range marketing {
		key := channelKey(m.Channel)
		totals, ok := byChannel[key]
		if !ok {
			totals = &channelTotals{channel: m.Channel, users: make(map[string]struct{})}
			byChannel[key] = totals
			order = append(order, key)
		}
		totals.spend += m.Spend
		for user := range signupsByDay[dayOf(m.Date)] {
			totals.users[user] = struct{}{}
		}
	}

	rows := make([]model.ChannelCAC, 0, len(byChannel))
	for _, key := range order {
		totals := byChannel[key]
		spend := totals.spend
		signups := float64(len(totals.users))
		rows = append(rows, model.ChannelCAC{
			Channel: totals.channel,
			CAC:     SafeDivide(&spend, &signups),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch {
		case a.CAC == nil && b.CAC == nil:
			return lessChannel(a.Channel, b.Channel)
		case a.CAC == nil:
			return false
		case b.CAC == nil:
			return true
		case *a.CAC != *b.CAC:
			return *a.CAC > *b.CAC
		default:
			return lessChannel(a.Channel, b.Channel)
		}
	})
	return rows
}

// LTVCACRatio averages LTV over users and CAC over channels with a defined CAC,
// then divides them
func LTVCACRatio(ltv []model.UserLTV, cac []model.ChannelCAC) model.LTVCACRatio {
	var result model.LTVCACRatio

	if len(ltv) > 0 {
		var sum float64
		for _, u := range ltv {
			sum += u.LTV
		}
		avg := sum / float64(len(ltv))
		result.AvgLTV = &avg
	}

	var (
		sum     float64
		defined int
	)
	for _, c := range cac {
		if c.CAC != nil {
			sum += *c.CAC
			defined++
		}
	}
	if defined > 0 {
		avg := sum / float64(defined)
		result.AvgCAC = &avg
	}

	result.Ratio = SafeDivide(result.AvgLTV, result.AvgCAC)
	return result
}

func channelKey(channel *string) string {
	if channel == nil {
		return "\x00"
	}
	return "\x01" + *channel
}

// lessChannel orders channels by name with a NULL channel last
func lessChannel(a, b *string) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a < *b
	}
}
