package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"debtbook/internal/models"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func cp(id, name string) models.Counterparty {
	return models.Counterparty{Base: models.Base{ID: id}, Name: name}
}

func tx(id, counterpartyID string, txType models.TransactionType, amount string, date time.Time) models.Transaction {
	return models.Transaction{
		Base:           models.Base{ID: id},
		UserID:         "user-1",
		CounterpartyID: counterpartyID,
		Amount:         dec(amount),
		Date:           date,
		Type:           txType,
	}
}

func partial(id, counterpartyID, debtID, amount string, date time.Time) models.Transaction {
	t := tx(id, counterpartyID, models.TransactionTypePartialPayment, amount, date)
	t.OriginalDebtID = &debtID
	return t
}

func withCategory(t models.Transaction, c models.Category) models.Transaction {
	t.Category = &c
	return t
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("expected %s %s, got %s", name, want, got.String())
	}
}
