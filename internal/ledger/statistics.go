package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"debtbook/internal/models"
)

// DefaultMonthsBack is the window used when callers pass a non-positive count.
const DefaultMonthsBack = 6

const monthKeyLayout = "2006-01"

var hundred = decimal.NewFromInt(100)

// MonthlyStats aggregates one calendar month.
type MonthlyStats struct {
	Month            string          `json:"month"`
	Label            string          `json:"label"`
	Start            time.Time       `json:"start"`
	End              time.Time       `json:"end"`
	TotalBorrowed    decimal.Decimal `json:"total_borrowed"`
	TotalLent        decimal.Decimal `json:"total_lent"`
	TotalPayments    decimal.Decimal `json:"total_payments"`
	NetBalance       decimal.Decimal `json:"net_balance"`
	TransactionCount int             `json:"transaction_count"`
}

// FriendMonthlyStats aggregates one counterparty within one calendar month.
type FriendMonthlyStats struct {
	CounterpartyID   string          `json:"counterparty_id"`
	CounterpartyName string          `json:"counterparty_name"`
	Month            string          `json:"month"`
	TotalBorrowed    decimal.Decimal `json:"total_borrowed"`
	TotalLent        decimal.Decimal `json:"total_lent"`
	TotalPayments    decimal.Decimal `json:"total_payments"`
	NetBalance       decimal.Decimal `json:"net_balance"`
	TransactionCount int             `json:"transaction_count"`
}

// CategoryOptions selects which transactions CategoryStatistics groups.
// An empty TransactionType means every non-expense type.
type CategoryOptions struct {
	TransactionType models.TransactionType
}

// CategoryStats aggregates transactions sharing a category.
type CategoryStats struct {
	Category       models.Category `json:"category"`
	Label          string          `json:"label"`
	Color          string          `json:"color"`
	Count          int             `json:"count"`
	BorrowedAmount decimal.Decimal `json:"borrowed_amount"`
	LentAmount     decimal.Decimal `json:"lent_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

// ExpenseOptions bounds SummarizeExpenses to an inclusive date window.
type ExpenseOptions struct {
	StartDate *time.Time
	EndDate   *time.Time
}

// CategoryExpense is one category's share of total expenses.
type CategoryExpense struct {
	Category   models.Category `json:"category"`
	Label      string          `json:"label"`
	Color      string          `json:"color"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage float64         `json:"percentage"`
}

// ExpenseSummary is the expense breakdown over a window.
type ExpenseSummary struct {
	TotalExpenses decimal.Decimal   `json:"total_expenses"`
	ByCategory    []CategoryExpense `json:"by_category"`
}

// monthBounds returns the first and last instant of the month containing t,
// offset by the given number of months.
func monthBounds(t time.Time, offset int) (time.Time, time.Time) {
	t = t.In(calendarZone)
	start := time.Date(t.Year(), t.Month()+time.Month(offset), 1, 0, 0, 0, 0, calendarZone)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}

func within(d, start, end time.Time) bool {
	return !d.Before(start) && !d.After(end)
}

// MonthlyStatistics returns monthsBack entries; index 0 is the month containing
// now and the last entry is the oldest.
func MonthlyStatistics(transactions []models.Transaction, now time.Time, monthsBack int) []MonthlyStats {
	if monthsBack <= 0 {
		monthsBack = DefaultMonthsBack
	}

	stats := make([]MonthlyStats, 0, monthsBack)
	for i := 0; i < monthsBack; i++ {
		start, end := monthBounds(now, -i)

		var totals typeTotals
		for j := range transactions {
			if within(transactions[j].Date, start, end) {
				totals.add(&transactions[j])
			}
		}

		stats = append(stats, MonthlyStats{
			Month:            start.Format(monthKeyLayout),
			Label:            start.Format("Jan 2006"),
			Start:            start,
			End:              end,
			TotalBorrowed:    totals.borrowed,
			TotalLent:        totals.lent,
			TotalPayments:    totals.payments,
			NetBalance:       totals.basicBalance(),
			TransactionCount: totals.count,
		})
	}
	return stats
}

// FriendStatisticsByMonth returns one row per counterparty, in input order, for
// the calendar month containing month. Counterparties without activity get zero rows.
func FriendStatisticsByMonth(transactions []models.Transaction, counterparties []models.Counterparty, month time.Time) []FriendMonthlyStats {
	start, end := monthBounds(month, 0)

	totals := make(map[string]*typeTotals, len(counterparties))
	for _, cp := range counterparties {
		totals[cp.ID] = &typeTotals{}
	}
	for i := range transactions {
		tx := &transactions[i]
		t, ok := totals[tx.CounterpartyID]
		if !ok || !within(tx.Date, start, end) {
			continue
		}
		t.add(tx)
	}

	rows := make([]FriendMonthlyStats, 0, len(counterparties))
	for _, cp := range counterparties {
		t := totals[cp.ID]
		rows = append(rows, FriendMonthlyStats{
			CounterpartyID:   cp.ID,
			CounterpartyName: cp.Name,
			Month:            start.Format(monthKeyLayout),
			TotalBorrowed:    t.borrowed,
			TotalLent:        t.lent,
			TotalPayments:    t.payments,
			NetBalance:       t.basicBalance(),
			TransactionCount: t.count,
		})
	}
	return rows
}

// CategoryStatistics groups transactions by category. In expense mode the
// TotalAmount is the absolute expense sum; otherwise it is borrowed - lent.
// Results are ordered by absolute TotalAmount, largest first.
func CategoryStatistics(transactions []models.Transaction, opts CategoryOptions) []CategoryStats {
	expenseMode := opts.TransactionType == models.TransactionTypeExpense

	byCategory := make(map[models.Category]*CategoryStats)
	for _, tx := range transactions {
		switch {
		case opts.TransactionType != "":
			if tx.Type != opts.TransactionType {
				continue
			}
		case tx.Type == models.TransactionTypeExpense:
			continue
		}

		cat := tx.CategoryOrDefault()
		s, ok := byCategory[cat]
		if !ok {
			s = &CategoryStats{Category: cat, Label: cat.Label(), Color: cat.Color()}
			byCategory[cat] = s
		}
		s.Count++

		switch tx.Type {
		case models.TransactionTypeBorrowed:
			s.BorrowedAmount = s.BorrowedAmount.Add(tx.Amount)
		case models.TransactionTypeLent:
			s.LentAmount = s.LentAmount.Add(tx.Amount)
		}
		if expenseMode {
			s.TotalAmount = s.TotalAmount.Add(tx.Amount.Abs())
		} else {
			s.TotalAmount = s.BorrowedAmount.Sub(s.LentAmount)
		}
	}

	stats := make([]CategoryStats, 0, len(byCategory))
	for _, cat := range orderedCategories(byCategory) {
		stats = append(stats, *byCategory[cat])
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].TotalAmount.Abs().GreaterThan(stats[j].TotalAmount.Abs())
	})
	return stats
}

// SummarizeExpenses totals expense transactions inside the optional window and
// breaks them down by category, largest first.
func SummarizeExpenses(transactions []models.Transaction, opts ExpenseOptions) ExpenseSummary {
	total := decimal.Zero
	amounts := make(map[models.Category]decimal.Decimal)
	for _, tx := range transactions {
		if tx.Type != models.TransactionTypeExpense {
			continue
		}
		if opts.StartDate != nil && tx.Date.Before(*opts.StartDate) {
			continue
		}
		if opts.EndDate != nil && tx.Date.After(*opts.EndDate) {
			continue
		}
		cat := tx.CategoryOrDefault()
		amounts[cat] = amounts[cat].Add(tx.Amount)
		total = total.Add(tx.Amount)
	}

	rows := make([]CategoryExpense, 0, len(amounts))
	for _, cat := range orderedCategories(amounts) {
		amount := amounts[cat]
		rows = append(rows, CategoryExpense{
			Category:   cat,
			Label:      cat.Label(),
			Color:      cat.Color(),
			Amount:     amount,
			Percentage: percentage(amount, total),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Amount.GreaterThan(rows[j].Amount)
	})

	return ExpenseSummary{TotalExpenses: total, ByCategory: rows}
}

// percentage is part/total in percent, rounded to two places; zero when total is zero.
func percentage(part, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	return part.Div(total).Mul(hundred).Round(2).InexactFloat64()
}

// orderedCategories returns the keys of m in the declared category order, with
// any unknown categories appended alphabetically so output stays deterministic.
func orderedCategories[V any](m map[models.Category]V) []models.Category {
	keys := make([]models.Category, 0, len(m))
	for _, cat := range models.Categories {
		if _, ok := m[cat]; ok {
			keys = append(keys, cat)
		}
	}
	var unknown []models.Category
	for cat := range m {
		if !cat.Valid() {
			unknown = append(unknown, cat)
		}
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })
	return append(keys, unknown...)
}
