// pkg/cleaner/operations.go
package cleaner

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// eventTimestampFormats are tried in order; the first layout that parses wins
var eventTimestampFormats = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseNumeric parses a raw text value as a finite decimal float64.
// NULL, blank, NaN, infinities, hex literals and digit separators all fail.
func parseNumeric(raw *string) (float64, bool) {
	if raw == nil {
		return 0, false
	}
	cleaned := strings.TrimSpace(*raw)
	if cleaned == "" || strings.ContainsAny(cleaned, "xX_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseTimestamp normalizes a raw timestamp to a UTC instant
func parseTimestamp(raw *string) (time.Time, bool) {
	if raw == nil {
		return time.Time{}, false
	}
	cleaned := strings.TrimSpace(*raw)
	if cleaned == "" {
		return time.Time{}, false
	}
	for _, layout := range eventTimestampFormats {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseDate parses a raw value as a calendar day (UTC midnight)
func parseDate(raw *string) (time.Time, bool) {
	t, ok := parseTimestamp(raw)
	if !ok {
		return time.Time{}, false
	}
	return truncateDay(t), true
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// nullKey renders a nullable string as a grouping key in which NULL forms its own group
func nullKey(s *string) string {
	if s == nil {
		return "\x00"
	}
	return "\x01" + *s
}
