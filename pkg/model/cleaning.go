// pkg/model/cleaning.go
package model

// RejectionReason is the enumerated reason a raw row was routed to quarantine
type RejectionReason string

const (
	// Marketing spend
	ReasonNonNumericSpend RejectionReason = "Non-numeric spend"
	ReasonNegativeSpend   RejectionReason = "Negative spend"
	ReasonInvalidDate     RejectionReason = "Invalid date"

	// Subscriptions
	ReasonMissingIDOrPrice RejectionReason = "Missing ID or price"

	// Events
	ReasonMissingUserID        RejectionReason = "Missing user_id"
	ReasonInvalidAmount        RejectionReason = "Invalid numeric amount (e.g. ten)"
	ReasonUnparseableTimestamp RejectionReason = "Unparseable timestamp"
)

// RejectionColumn is appended to a raw table schema to form its quarantine table
var RejectionColumn = Column{Name: "rejection_reason", Type: TypeText}

// QuarantinedMarketing is a rejected marketing row with its reason
type QuarantinedMarketing struct {
	RawMarketing
	Reason RejectionReason
}

// Values returns the row in quarantine_marketing column order
func (q QuarantinedMarketing) Values() []interface{} {
	return append(q.RawMarketing.Values(), string(q.Reason))
}

// QuarantinedSubscription is a rejected subscription row with its reason
type QuarantinedSubscription struct {
	RawSubscription
	Reason RejectionReason
}

// Values returns the row in quarantine_subscriptions column order
func (q QuarantinedSubscription) Values() []interface{} {
	return append(q.RawSubscription.Values(), string(q.Reason))
}

// QuarantinedEvent is a rejected event row with its reason
type QuarantinedEvent struct {
	RawEvent
	Reason RejectionReason
}

// Values returns the row in quarantine_events column order
func (q QuarantinedEvent) Values() []interface{} {
	return append(q.RawEvent.Values(), string(q.Reason))
}
