package ledger

import (
	"github.com/shopspring/decimal"

	"debtbook/internal/models"
)

// DebtSummary holds per-counterparty totals.
// A positive Balance means the counterparty owes the user.
type DebtSummary struct {
	CounterpartyID   string               `json:"counterparty_id"`
	CounterpartyName string               `json:"counterparty_name"`
	TotalBorrowed    decimal.Decimal      `json:"total_borrowed"`
	TotalLent        decimal.Decimal      `json:"total_lent"`
	TotalPayments    decimal.Decimal      `json:"total_payments"`
	Balance          decimal.Decimal      `json:"balance"`
	Transactions     []models.Transaction `json:"transactions"`
}

// ExtendedDebtSummary adds the debt threads of a counterparty. Its Balance also
// subtracts partial payments, unlike the plain DebtSummary balance.
type ExtendedDebtSummary struct {
	DebtSummary
	TotalPartialPayments   decimal.Decimal `json:"total_partial_payments"`
	OutstandingDebts       []DebtDetail    `json:"outstanding_debts"`
	TotalOutstandingAmount decimal.Decimal `json:"total_outstanding_amount"`
}

// DebtTotals is the user-wide position across all counterparties.
type DebtTotals struct {
	TotalOwed  decimal.Decimal `json:"total_owed"`
	TotalOwing decimal.Decimal `json:"total_owing"`
	NetBalance decimal.Decimal `json:"net_balance"`
}

type typeTotals struct {
	borrowed decimal.Decimal
	lent     decimal.Decimal
	payments decimal.Decimal
	partial  decimal.Decimal
	expenses decimal.Decimal
	count    int
}

func (t *typeTotals) add(tx *models.Transaction) {
	t.count++
	switch tx.Type {
	case models.TransactionTypeBorrowed:
		t.borrowed = t.borrowed.Add(tx.Amount)
	case models.TransactionTypeLent:
		t.lent = t.lent.Add(tx.Amount)
	case models.TransactionTypePayment:
		t.payments = t.payments.Add(tx.Amount)
	case models.TransactionTypePartialPayment:
		t.partial = t.partial.Add(tx.Amount)
	case models.TransactionTypeExpense:
		t.expenses = t.expenses.Add(tx.Amount)
	}
}

// basicBalance ignores partial payments and expenses.
func (t *typeTotals) basicBalance() decimal.Decimal {
	return t.borrowed.Sub(t.lent).Sub(t.payments)
}

func (t *typeTotals) extendedBalance() decimal.Decimal {
	return t.basicBalance().Sub(t.partial)
}

func groupByCounterparty(transactions []models.Transaction) map[string][]models.Transaction {
	grouped := make(map[string][]models.Transaction)
	for _, tx := range transactions {
		grouped[tx.CounterpartyID] = append(grouped[tx.CounterpartyID], tx)
	}
	return grouped
}

func totalsOf(transactions []models.Transaction) typeTotals {
	var t typeTotals
	for i := range transactions {
		t.add(&transactions[i])
	}
	return t
}

// ComputeSummaries returns one summary per counterparty, in input order, using
// balance = borrowed - lent - payments.
func ComputeSummaries(counterparties []models.Counterparty, transactions []models.Transaction) []DebtSummary {
	grouped := groupByCounterparty(transactions)
	summaries := make([]DebtSummary, 0, len(counterparties))
	for _, cp := range counterparties {
		summaries = append(summaries, summarize(cp, grouped[cp.ID]))
	}
	return summaries
}

func summarize(cp models.Counterparty, txs []models.Transaction) DebtSummary {
	totals := totalsOf(txs)
	own := make([]models.Transaction, len(txs))
	copy(own, txs)
	return DebtSummary{
		CounterpartyID:   cp.ID,
		CounterpartyName: cp.Name,
		TotalBorrowed:    totals.borrowed,
		TotalLent:        totals.lent,
		TotalPayments:    totals.payments,
		Balance:          totals.basicBalance(),
		Transactions:     own,
	}
}

// ComputeExtendedSummaries returns one extended summary per counterparty, using
// balance = borrowed - lent - payments - partial payments.
func ComputeExtendedSummaries(counterparties []models.Counterparty, transactions []models.Transaction) []ExtendedDebtSummary {
	grouped := groupByCounterparty(transactions)
	payments := indexPartialPayments(transactions)

	out := make([]ExtendedDebtSummary, 0, len(counterparties))
	for _, cp := range counterparties {
		txs := grouped[cp.ID]
		totals := totalsOf(txs)

		base := summarize(cp, txs)
		base.Balance = totals.extendedBalance()

		debts := resolveDebts(txs, payments)
		outstanding := decimal.Zero
		for _, d := range debts {
			outstanding = outstanding.Add(d.RemainingBalance)
		}

		out = append(out, ExtendedDebtSummary{
			DebtSummary:            base,
			TotalPartialPayments:   totals.partial,
			OutstandingDebts:       debts,
			TotalOutstandingAmount: outstanding,
		})
	}
	return out
}

// TotalDebt folds summaries into owed (positive balances) and owing (negative balances).
func TotalDebt(summaries []DebtSummary) DebtTotals {
	owed, owing := decimal.Zero, decimal.Zero
	for _, s := range summaries {
		switch {
		case s.Balance.IsPositive():
			owed = owed.Add(s.Balance)
		case s.Balance.IsNegative():
			owing = owing.Add(s.Balance.Abs())
		}
	}
	return DebtTotals{
		TotalOwed:  owed,
		TotalOwing: owing,
		NetBalance: owed.Sub(owing),
	}
}
