package models

import "time"

// RecurrenceInterval is how often a recurring template produces an instance.
type RecurrenceInterval string

const (
	IntervalDaily     RecurrenceInterval = "daily"
	IntervalWeekly    RecurrenceInterval = "weekly"
	IntervalBiweekly  RecurrenceInterval = "biweekly"
	IntervalMonthly   RecurrenceInterval = "monthly"
	IntervalQuarterly RecurrenceInterval = "quarterly"
	IntervalYearly    RecurrenceInterval = "yearly"
)

// Valid reports whether i is a supported interval.
func (i RecurrenceInterval) Valid() bool {
	switch i {
	case IntervalDaily, IntervalWeekly, IntervalBiweekly, IntervalMonthly, IntervalQuarterly, IntervalYearly:
		return true
	}
	return false
}

// Label returns the display label for the interval.
func (i RecurrenceInterval) Label() string {
	switch i {
	case IntervalDaily:
		return "Daily"
	case IntervalWeekly:
		return "Weekly"
	case IntervalBiweekly:
		return "Every 2 weeks"
	case IntervalMonthly:
		return "Monthly"
	case IntervalQuarterly:
		return "Quarterly"
	case IntervalYearly:
		return "Yearly"
	}
	return string(i)
}

// RecurringInfo describes the schedule of a recurring template.
// Stored as a JSON column on the transaction row.
type RecurringInfo struct {
	IsRecurring       bool               `json:"is_recurring"`
	Interval          RecurrenceInterval `json:"interval"`
	StartDate         time.Time          `json:"start_date"`
	EndDate           *time.Time         `json:"end_date,omitempty"`
	LastProcessedDate *time.Time         `json:"last_processed_date,omitempty"`
	// ExpiredAt is the processing day that first found the template past EndDate.
	ExpiredAt *time.Time `json:"expired_at,omitempty"`
}
