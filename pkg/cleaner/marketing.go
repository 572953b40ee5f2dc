// pkg/cleaner/marketing.go
package cleaner

import (
	"sort"

	"github.com/David-Botos/event-lakehouse/pkg/model"
)

// MarketingResult is the clean/quarantine split of the raw marketing rows
type MarketingResult struct {
	Clean       []model.Marketing
	Quarantined []model.QuarantinedMarketing
	Duplicates  int
}

// CleanMarketing validates spend and date, then collapses exact (date, channel, spend)
// duplicates keeping the first occurrence. Rows must be in row_num order.
func CleanMarketing(rows []model.RawMarketing) MarketingResult {
	var result MarketingResult

	type dedupKey struct {
		date    string
		channel string
		spend   float64
	}
	seen := make(map[dedupKey]bool)

	for _, raw := range rows {
		spend, ok := parseNumeric(raw.Spend)
		if !ok {
			result.Quarantined = append(result.Quarantined, model.QuarantinedMarketing{
				RawMarketing: raw, Reason: model.ReasonNonNumericSpend})
			continue
		}
		if spend < 0 {
			result.Quarantined = append(result.Quarantined, model.QuarantinedMarketing{
				RawMarketing: raw, Reason: model.ReasonNegativeSpend})
			continue
		}
		date, ok := parseDate(raw.Date)
		if !ok {
			result.Quarantined = append(result.Quarantined, model.QuarantinedMarketing{
				RawMarketing: raw, Reason: model.ReasonInvalidDate})
			continue
		}

		key := dedupKey{date: date.Format("2006-01-02"), channel: nullKey(raw.Channel), spend: spend}
		if seen[key] {
			result.Duplicates++
			continue
		}
		seen[key] = true

		result.Clean = append(result.Clean, model.Marketing{
			Date:    date,
			Channel: raw.Channel,
			Spend:   spend,
		})
	}

	// Date order; first occurrence breaks ties
	sort.SliceStable(result.Clean, func(i, j int) bool {
		return result.Clean[i].Date.Before(result.Clean[j].Date)
	})

	return result
}
