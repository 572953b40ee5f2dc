// pkg/analytics/retention.go
package analytics

import (
	"sort"
	"time"

	"github.com/David-Botos/event-lakehouse/pkg/model"
)

// WeeklyCohortRetention buckets each human user by the week of their first signup and
// counts, per cohort, the users active N weeks later. Activity before the signup week
// yields a negative week_number.
func WeeklyCohortRetention(events []model.Event) []model.CohortRetention {
	humans := humanEvents(events)

	signups := make(map[string]time.Time)
	for _, e := range humans {
		if e.Type() != EventSignup {
			continue
		}
		if first, ok := signups[e.UserID]; !ok || e.EventTS.Before(first) {
			signups[e.UserID] = e.EventTS
		}
	}

	type cohortKey struct {
		signupWeek time.Time
		weekNumber int64
	}
	type activityKey struct {
		user string
		week time.Time
	}

	seen := make(map[activityKey]bool)
	counts := make(map[cohortKey]int64)
	for _, e := range humans {
		signup, ok := signups[e.UserID]
		if !ok {
			continue
		}
		activity := activityKey{user: e.UserID, week: weekOf(e.EventTS)}
		if seen[activity] {
			continue
		}
		seen[activity] = true

		signupWeek := weekOf(signup)
		counts[cohortKey{signupWeek: signupWeek, weekNumber: weeksBetween(signupWeek, activity.week)}]++
	}

	rows := make([]model.CohortRetention, 0, len(counts))
	for key, users := range counts {
		rows = append(rows, model.CohortRetention{
			SignupWeek:  key.signupWeek,
			WeekNumber:  key.weekNumber,
			ActiveUsers: users,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].SignupWeek.Equal(rows[j].SignupWeek) {
			return rows[i].SignupWeek.Before(rows[j].SignupWeek)
		}
		return rows[i].WeekNumber < rows[j].WeekNumber
	})
	return rows
}
