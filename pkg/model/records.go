// pkg/model/records.go
package model

import "time"

// RawMarketing is one staged marketing-spend row; every field is untyped text
type RawMarketing struct {
	RowNum  int64
	Date    *string
	Channel *string
	Spend   *string
}

// Values returns the row in raw marketing column order
func (r RawMarketing) Values() []interface{} {
	return []interface{}{r.RowNum, nullableString(r.Date), nullableString(r.Channel), nullableString(r.Spend)}
}

// RawSubscription is one staged subscription row
type RawSubscription struct {
	RowNum         int64
	SubscriptionID *string
	Price          *string
	CreatedAt      *string
	Status         *string
}

// Values returns the row in raw subscription column order
func (r RawSubscription) Values() []interface{} {
	return []interface{}{
		r.RowNum,
		nullableString(r.SubscriptionID),
		nullableString(r.Price),
		nullableString(r.CreatedAt),
		nullableString(r.Status),
	}
}

// RawEvent is one staged behavioural event with the fixed textual column set
type RawEvent struct {
	RowNum          int64
	EventID         *string
	UserID          *string
	EventType       *string
	Timestamp       *string
	Amount          *string
	Currency        *string
	RefersToEventID *string
}

// Values returns the row in raw event column order
func (r RawEvent) Values() []interface{} {
	return []interface{}{
		r.RowNum,
		nullableString(r.EventID),
		nullableString(r.UserID),
		nullableString(r.EventType),
		nullableString(r.Timestamp),
		nullableString(r.Amount),
		nullableString(r.Currency),
		nullableString(r.RefersToEventID),
	}
}

// Marketing is a validated marketing-spend row
type Marketing struct {
	Date    time.Time // UTC midnight
	Channel *string
	Spend   float64
}

// Values returns the row in clean_marketing column order
func (m Marketing) Values() []interface{} {
	return []interface{}{m.Date, nullableString(m.Channel), m.Spend}
}

// Subscription is the surviving row for one subscription_id
type Subscription struct {
	SubscriptionID string
	Price          float64
	CreatedAt      *time.Time
	Status         *string
}

// Values returns the row in clean_subscriptions column order
func (s Subscription) Values() []interface{} {
	var createdAt interface{}
	if s.CreatedAt != nil {
		createdAt = *s.CreatedAt
	}
	return []interface{}{s.SubscriptionID, s.Price, createdAt, nullableString(s.Status)}
}

// Event is the surviving row for one event_id
type Event struct {
	EventID         *string
	UserID          string
	EventType       *string
	EventTS         time.Time
	Amount          float64
	Currency        *string
	RefersToEventID *string
	IsBot           bool
}

// Values returns the row in clean_events column order
func (e Event) Values() []interface{} {
	return []interface{}{
		nullableString(e.EventID),
		e.UserID,
		nullableString(e.EventType),
		e.EventTS,
		e.Amount,
		nullableString(e.Currency),
		nullableString(e.RefersToEventID),
		e.IsBot,
	}
}

// Type returns the event type, or "" when it is null
func (e Event) Type() string {
	if e.EventType == nil {
		return ""
	}
	return *e.EventType
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nullableFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

// Valuer is a record that renders itself in its table's column order
type Valuer interface {
	Values() []interface{}
}

// RowsOf renders records as insert rows
func RowsOf[T Valuer](records []T) [][]interface{} {
	rows := make([][]interface{}, len(records))
	for i, r := range records {
		rows[i] = r.Values()
	}
	return rows
}
