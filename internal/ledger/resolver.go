package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"debtbook/internal/models"
)

// DebtDetail is one debt thread: an originating borrowed/lent transaction and
// the partial payments applied against it.
type DebtDetail struct {
	ID                  string               `json:"id"`
	OriginalTransaction models.Transaction   `json:"original_transaction"`
	OriginalAmount      decimal.Decimal      `json:"original_amount"`
	RemainingBalance    decimal.Decimal      `json:"remaining_balance"`
	PartialPayments     []models.Transaction `json:"partial_payments"`
	CreatedDate         time.Time            `json:"created_date"`
	LastPaymentDate     *time.Time           `json:"last_payment_date,omitempty"`
	IsFullyPaid         bool                 `json:"is_fully_paid"`
}

// ResolveDebtDetail reconstructs the running state of debt from the partial
// payments in allTransactions that reference it.
func ResolveDebtDetail(debt models.Transaction, allTransactions []models.Transaction) DebtDetail {
	var payments []models.Transaction
	for _, tx := range allTransactions {
		if isPaymentFor(tx, debt.ID) {
			payments = append(payments, tx)
		}
	}
	sortByDate(payments)
	return buildDetail(debt, payments)
}

// ResolveOutstanding resolves every borrowed/lent transaction of a counterparty.
// Unpaid debts come first; within each group the most recently created is first.
func ResolveOutstanding(counterpartyID string, allTransactions []models.Transaction) []DebtDetail {
	var own []models.Transaction
	for _, tx := range allTransactions {
		if tx.CounterpartyID == counterpartyID {
			own = append(own, tx)
		}
	}
	return resolveDebts(own, indexPartialPayments(allTransactions))
}

// OrphanedPartialPayments returns the partial payments whose originalDebtId does
// not point at a borrowed or lent transaction in the set. These never appear in
// any debt thread.
func OrphanedPartialPayments(allTransactions []models.Transaction) []models.Transaction {
	debts := make(map[string]struct{})
	for _, tx := range allTransactions {
		if tx.Type.IsDebt() {
			debts[tx.ID] = struct{}{}
		}
	}

	orphans := make([]models.Transaction, 0)
	for _, tx := range allTransactions {
		if tx.Type != models.TransactionTypePartialPayment {
			continue
		}
		if tx.OriginalDebtID == nil {
			orphans = append(orphans, tx)
			continue
		}
		if _, ok := debts[*tx.OriginalDebtID]; !ok {
			orphans = append(orphans, tx)
		}
	}
	return orphans
}

func isPaymentFor(tx models.Transaction, debtID string) bool {
	return tx.Type == models.TransactionTypePartialPayment &&
		tx.OriginalDebtID != nil &&
		*tx.OriginalDebtID == debtID
}

// indexPartialPayments groups partial payments by the debt they reference,
// each group sorted ascending by date.
func indexPartialPayments(transactions []models.Transaction) map[string][]models.Transaction {
	index := make(map[string][]models.Transaction)
	for _, tx := range transactions {
		if tx.Type != models.TransactionTypePartialPayment || tx.OriginalDebtID == nil {
			continue
		}
		index[*tx.OriginalDebtID] = append(index[*tx.OriginalDebtID], tx)
	}
	for id := range index {
		sortByDate(index[id])
	}
	return index
}

func resolveDebts(transactions []models.Transaction, payments map[string][]models.Transaction) []DebtDetail {
	details := make([]DebtDetail, 0)
	for _, tx := range transactions {
		if !tx.Type.IsDebt() {
			continue
		}
		details = append(details, buildDetail(tx, payments[tx.ID]))
	}
	sortDebtDetails(details)
	return details
}

func buildDetail(debt models.Transaction, payments []models.Transaction) DebtDetail {
	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}
	unpaid := debt.Amount.Sub(paid)

	own := make([]models.Transaction, len(payments))
	copy(own, payments)

	detail := DebtDetail{
		ID:                  debt.ID,
		OriginalTransaction: debt,
		OriginalAmount:      debt.Amount,
		RemainingBalance:    decimal.Max(decimal.Zero, unpaid),
		PartialPayments:     own,
		CreatedDate:         debt.Date,
		IsFullyPaid:         !unpaid.IsPositive(),
	}
	if n := len(own); n > 0 {
		last := own[n-1].Date
		detail.LastPaymentDate = &last
	}
	return detail
}

func sortByDate(txs []models.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.Before(txs[j].Date)
	})
}

func sortDebtDetails(details []DebtDetail) {
	sort.SliceStable(details, func(i, j int) bool {
		if details[i].IsFullyPaid != details[j].IsFullyPaid {
			return !details[i].IsFullyPaid
		}
		return details[i].CreatedDate.After(details[j].CreatedDate)
	})
}
