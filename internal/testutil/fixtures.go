package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"debtbook/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// NewUserID returns an opaque user id unique within the test run.
func NewUserID() string {
	return fmt.Sprintf("user-%d", nextID())
}

// CreateTestCounterparty creates a counterparty with a unique name.
func CreateTestCounterparty(t *testing.T, db *gorm.DB, userID string) *models.Counterparty {
	t.Helper()
	return CreateTestCounterpartyWithName(t, db, userID, fmt.Sprintf("Friend %d", nextID()))
}

// CreateTestCounterpartyWithName creates a counterparty with the given name.
func CreateTestCounterpartyWithName(t *testing.T, db *gorm.DB, userID, name string) *models.Counterparty {
	t.Helper()

	cp := &models.Counterparty{UserID: userID, Name: name}
	if err := db.Create(cp).Error; err != nil {
		t.Fatalf("failed to create test counterparty: %v", err)
	}
	return cp
}

// CreateTestTransaction creates a transaction dated today.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, counterpartyID string, txType models.TransactionType, amount string) *models.Transaction {
	t.Helper()
	return CreateTestTransactionOn(t, db, userID, counterpartyID, txType, amount, time.Now().UTC())
}

// CreateTestTransactionOn creates a transaction on the given date.
func CreateTestTransactionOn(t *testing.T, db *gorm.DB, userID, counterpartyID string, txType models.TransactionType, amount string, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:         userID,
		CounterpartyID: counterpartyID,
		Amount:         decimal.RequireFromString(amount),
		Description:    fmt.Sprintf("Test %s", txType),
		Date:           date,
		Type:           txType,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestPartialPayment creates a partial payment against debt.
func CreateTestPartialPayment(t *testing.T, db *gorm.DB, debt *models.Transaction, amount string, date time.Time) *models.Transaction {
	t.Helper()

	debtID := debt.ID
	tx := &models.Transaction{
		UserID:         debt.UserID,
		CounterpartyID: debt.CounterpartyID,
		Amount:         decimal.RequireFromString(amount),
		Description:    "Test partial payment",
		Date:           date,
		Type:           models.TransactionTypePartialPayment,
		OriginalDebtID: &debtID,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test partial payment: %v", err)
	}
	return tx
}

// CreateTestTemplate creates a recurring template starting at start.
func CreateTestTemplate(t *testing.T, db *gorm.DB, userID, counterpartyID string, interval models.RecurrenceInterval, start time.Time) *models.Transaction {
	t.Helper()

	category := models.CategoryUtilities
	tx := &models.Transaction{
		UserID:         userID,
		CounterpartyID: counterpartyID,
		Amount:         decimal.RequireFromString("25"),
		Description:    "Test subscription",
		Date:           start,
		Type:           models.TransactionTypeExpense,
		Category:       &category,
		Recurring: &models.RecurringInfo{
			IsRecurring: true,
			Interval:    interval,
			StartDate:   start,
		},
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test template: %v", err)
	}
	return tx
}
