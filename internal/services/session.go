package services

import (
	"time"

	apperrors "debtbook/internal/errors"
	"debtbook/internal/ledger"
	"debtbook/internal/models"
)

// Session is one user's records as fetched at LoadedAt. Every method
// recomputes from these lists; nothing is cached between calls.
type Session struct {
	UserID         string
	Counterparties []models.Counterparty
	Transactions   []models.Transaction
	LoadedAt       time.Time
}

// Counterparty looks up a counterparty loaded in the session.
func (s *Session) Counterparty(id string) (*models.Counterparty, error) {
	for i := range s.Counterparties {
		if s.Counterparties[i].ID == id {
			return &s.Counterparties[i], nil
		}
	}
	return nil, apperrors.ErrCounterpartyNotFound
}

func (s *Session) Summaries() []ledger.DebtSummary {
	return ledger.ComputeSummaries(s.Counterparties, s.Transactions)
}

func (s *Session) ExtendedSummaries() []ledger.ExtendedDebtSummary {
	return ledger.ComputeExtendedSummaries(s.Counterparties, s.Transactions)
}

func (s *Session) TotalDebt() ledger.DebtTotals {
	return ledger.TotalDebt(s.Summaries())
}

// Outstanding returns the debt threads of one counterparty, unpaid first.
func (s *Session) Outstanding(counterpartyID string) ([]ledger.DebtDetail, error) {
	if _, err := s.Counterparty(counterpartyID); err != nil {
		return nil, err
	}
	return ledger.ResolveOutstanding(counterpartyID, s.Transactions), nil
}

// DebtDetail resolves a single borrowed or lent transaction.
func (s *Session) DebtDetail(debtID string) (*ledger.DebtDetail, error) {
	for _, tx := range s.Transactions {
		if tx.ID != debtID {
			continue
		}
		if !tx.Type.IsDebt() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidDebtReference, "transaction is not a borrowed or lent debt")
		}
		detail := ledger.ResolveDebtDetail(tx, s.Transactions)
		return &detail, nil
	}
	return nil, apperrors.ErrTransactionNotFound
}

// OrphanedPartialPayments lists partial payments whose debt reference is dangling.
func (s *Session) OrphanedPartialPayments() []models.Transaction {
	return ledger.OrphanedPartialPayments(s.Transactions)
}

func (s *Session) MonthlyStatistics(now time.Time, monthsBack int) []ledger.MonthlyStats {
	return ledger.MonthlyStatistics(s.Transactions, now, monthsBack)
}

func (s *Session) FriendStatisticsByMonth(month time.Time) []ledger.FriendMonthlyStats {
	return ledger.FriendStatisticsByMonth(s.Transactions, s.Counterparties, month)
}

func (s *Session) CategoryStatistics(opts ledger.CategoryOptions) []ledger.CategoryStats {
	return ledger.CategoryStatistics(s.Transactions, opts)
}

func (s *Session) ExpenseSummary(opts ledger.ExpenseOptions) ledger.ExpenseSummary {
	return ledger.SummarizeExpenses(s.Transactions, opts)
}
