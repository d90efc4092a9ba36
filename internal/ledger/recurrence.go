package ledger

import (
	"time"

	"debtbook/internal/models"
)

// RecurrenceState is the scheduling state of a recurring template.
type RecurrenceState string

const (
	StateNotDue  RecurrenceState = "not-due"
	StateDue     RecurrenceState = "due"
	StateExpired RecurrenceState = "expired"
)

// Occurrence is a single planned materialization of a template.
type Occurrence struct {
	Template models.Transaction
	Date     time.Time
}

// calendarZone is the zone day and month boundaries are drawn in. It matches
// the zone dates are stored in, whatever zone callers pass "now" in.
var calendarZone = time.UTC

// startOfDay truncates t to midnight in loc.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// addMonths moves d by n calendar months, clamping the day to the last day of
// the target month (Jan 31 + 1 month = Feb 28/29).
func addMonths(d time.Time, n int) time.Time {
	first := time.Date(d.Year(), d.Month()+time.Month(n), 1, d.Hour(), d.Minute(), d.Second(), d.Nanosecond(), d.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	day := d.Day()
	if day > lastDay {
		day = lastDay
	}
	return first.AddDate(0, 0, day-1)
}

// AdvanceDate returns the next occurrence after d for the interval.
// An unknown interval leaves d unchanged.
func AdvanceDate(d time.Time, interval models.RecurrenceInterval) time.Time {
	switch interval {
	case models.IntervalDaily:
		return d.AddDate(0, 0, 1)
	case models.IntervalWeekly:
		return d.AddDate(0, 0, 7)
	case models.IntervalBiweekly:
		return d.AddDate(0, 0, 14)
	case models.IntervalMonthly:
		return addMonths(d, 1)
	case models.IntervalQuarterly:
		return addMonths(d, 3)
	case models.IntervalYearly:
		return addMonths(d, 12)
	}
	return d
}

// NextDueDate is the date the template next produces an instance: one interval
// after its last processed date, or after its start date if never processed.
func NextDueDate(template models.Transaction) (time.Time, bool) {
	if !template.IsTemplate() || !template.Recurring.Interval.Valid() {
		return time.Time{}, false
	}
	r := template.Recurring
	anchor := r.StartDate
	if r.LastProcessedDate != nil {
		anchor = *r.LastProcessedDate
	}
	return AdvanceDate(anchor, r.Interval), true
}

// EvaluateRecurrence classifies a template at day granularity relative to today.
// Non-templates are never due.
func EvaluateRecurrence(template models.Transaction, today time.Time) RecurrenceState {
	next, ok := NextDueDate(template)
	if !ok {
		return StateNotDue
	}
	loc := calendarZone
	day := startOfDay(today, loc)

	if end := template.Recurring.EndDate; end != nil && startOfDay(*end, loc).Before(day) {
		return StateExpired
	}
	if startOfDay(next, loc).After(day) {
		return StateNotDue
	}
	return StateDue
}

// IsTransactionDue reports whether the template should materialize an instance today.
func IsTransactionDue(template models.Transaction, today time.Time) bool {
	return EvaluateRecurrence(template, today) == StateDue
}

// MaterializeInstance builds the concrete transaction a template produces for
// occurrenceDate. The instance links back to the template and is never itself
// recurring. Its ID is left empty for the persistence layer to assign.
func MaterializeInstance(template models.Transaction, occurrenceDate time.Time) models.Transaction {
	parentID := template.ID
	instance := models.Transaction{
		UserID:              template.UserID,
		CounterpartyID:      template.CounterpartyID,
		Amount:              template.Amount,
		Description:         template.Description,
		Date:                occurrenceDate,
		Type:                template.Type,
		ParentTransactionID: &parentID,
	}
	if template.Category != nil {
		cat := *template.Category
		instance.Category = &cat
	}
	return instance
}

// AdvanceTemplate returns a copy of template whose lastProcessedDate is
// occurrenceDate. The input template is left untouched.
func AdvanceTemplate(template models.Transaction, occurrenceDate time.Time) models.Transaction {
	if template.Recurring == nil {
		return template
	}
	r := *template.Recurring
	processed := occurrenceDate
	r.LastProcessedDate = &processed
	template.Recurring = &r
	return template
}

// MarkExpired returns a copy of template recording the day it was first found
// expired. Templates already marked keep their original day.
func MarkExpired(template models.Transaction, today time.Time) models.Transaction {
	if template.Recurring == nil || template.Recurring.ExpiredAt != nil {
		return template
	}
	r := *template.Recurring
	at := startOfDay(today, calendarZone)
	r.ExpiredAt = &at
	template.Recurring = &r
	return template
}

// PlanOccurrences returns at most one occurrence per due template, dated today.
// Missed intervals are not back-filled: a template that is several intervals
// behind still yields a single instance per pass.
func PlanOccurrences(transactions []models.Transaction, today time.Time) []Occurrence {
	day := startOfDay(today, calendarZone)
	plan := make([]Occurrence, 0)
	for _, tx := range transactions {
		if IsTransactionDue(tx, today) {
			plan = append(plan, Occurrence{Template: tx, Date: day})
		}
	}
	return plan
}
