// pkg/model/summary.go
package model

// IntakeSummary reports how many rows of one kind reached its raw table
type IntakeSummary struct {
	Kind    Kind
	Table   string
	Loaded  int
	Dropped int // parse-level malformed rows, excluded before cleaning
}

// CleaningSummary reports the clean/quarantine split for one kind
type CleaningSummary struct {
	Kind        Kind
	Raw         int
	Clean       int
	Quarantined int
	Duplicates  int // candidates collapsed by deduplication
}

// Balanced reports whether clean, quarantine and collapsed duplicates account for every raw row
func (s CleaningSummary) Balanced() bool {
	return s.Clean+s.Quarantined+s.Duplicates == s.Raw
}

// TableSummary reports the row count written to one output table
type TableSummary struct {
	Table string
	Rows  int
}
