// pkg/model/metrics.go
package model

import "time"

// DailyActiveUsers is one row of daily_active_users
type DailyActiveUsers struct {
	Date time.Time
	DAU  int64
}

// Values returns the row in table column order
func (r DailyActiveUsers) Values() []interface{} { return []interface{}{r.Date, r.DAU} }

// DailyRevenue is one row of daily_revenue_gross or daily_revenue_net
type DailyRevenue struct {
	Date    time.Time
	Revenue float64
}

// Values returns the row in table column order
func (r DailyRevenue) Values() []interface{} { return []interface{}{r.Date, r.Revenue} }

// MonthlyRecurringRevenue is one row of mrr_monthly
type MonthlyRecurringRevenue struct {
	Month time.Time // first day of the month
	MRR   float64
}

// Values returns the row in table column order
func (r MonthlyRecurringRevenue) Values() []interface{} { return []interface{}{r.Month, r.MRR} }

// CohortRetention is one row of weekly_cohort_retention
type CohortRetention struct {
	SignupWeek  time.Time // Monday of the signup week
	WeekNumber  int64
	ActiveUsers int64
}

// Values returns the row in table column order
func (r CohortRetention) Values() []interface{} {
	return []interface{}{r.SignupWeek, r.WeekNumber, r.ActiveUsers}
}

// ChannelCAC is one row of cac_by_channel; CAC is nil when no signups matched
type ChannelCAC struct {
	Channel *string
	CAC     *float64
}

// Values returns the row in table column order
func (r ChannelCAC) Values() []interface{} {
	return []interface{}{nullableString(r.Channel), nullableFloat(r.CAC)}
}

// UserLTV is one row of ltv_per_user
type UserLTV struct {
	UserID string
	LTV    float64
}

// Values returns the row in table column order
func (r UserLTV) Values() []interface{} { return []interface{}{r.UserID, r.LTV} }

// LTVCACRatio is the single row of ltv_cac_ratio
type LTVCACRatio struct {
	AvgLTV *float64
	AvgCAC *float64
	Ratio  *float64
}

// Values returns the row in table column order
func (r LTVCACRatio) Values() []interface{} {
	return []interface{}{nullableFloat(r.AvgLTV), nullableFloat(r.AvgCAC), nullableFloat(r.Ratio)}
}
