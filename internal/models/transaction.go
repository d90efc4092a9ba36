package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	// TransactionTypeBorrowed means the counterparty borrowed from the user (they owe).
	TransactionTypeBorrowed TransactionType = "borrowed"
	// TransactionTypeLent means the counterparty lent to the user (the user owes).
	TransactionTypeLent TransactionType = "lent"
	// TransactionTypePayment settles against the aggregate balance.
	TransactionTypePayment TransactionType = "payment"
	// TransactionTypePartialPayment settles against one originating debt.
	TransactionTypePartialPayment TransactionType = "partial-payment"
	// TransactionTypeExpense is personal spending with no settlement semantics.
	TransactionTypeExpense TransactionType = "expense"
)

// TransactionTypes lists every supported transaction type.
var TransactionTypes = []TransactionType{
	TransactionTypeBorrowed,
	TransactionTypeLent,
	TransactionTypePayment,
	TransactionTypePartialPayment,
	TransactionTypeExpense,
}

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeBorrowed, TransactionTypeLent, TransactionTypePayment,
		TransactionTypePartialPayment, TransactionTypeExpense:
		return true
	}
	return false
}

// IsDebt reports whether the type originates a debt thread.
func (t TransactionType) IsDebt() bool {
	return t == TransactionTypeBorrowed || t == TransactionTypeLent
}

// Label returns the display label for the type.
func (t TransactionType) Label() string {
	switch t {
	case TransactionTypeBorrowed:
		return "Borrowed"
	case TransactionTypeLent:
		return "Lent"
	case TransactionTypePayment:
		return "Payment"
	case TransactionTypePartialPayment:
		return "Partial payment"
	case TransactionTypeExpense:
		return "Expense"
	}
	return string(t)
}

// Color returns the hex color used for the type in charts.
func (t TransactionType) Color() string {
	switch t {
	case TransactionTypeBorrowed:
		return "#16a34a"
	case TransactionTypeLent:
		return "#dc2626"
	case TransactionTypePayment:
		return "#2563eb"
	case TransactionTypePartialPayment:
		return "#7c3aed"
	case TransactionTypeExpense:
		return "#ea580c"
	}
	return "#6b7280"
}

// Transaction is an immutable financial event between the user and a counterparty.
// Direction is carried by Type; Amount is always positive.
type Transaction struct {
	Base
	UserID              string          `gorm:"not null;index" json:"user_id"`
	CounterpartyID      string          `gorm:"type:uuid;not null;index" json:"counterparty_id"`
	Amount              decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Description         string          `json:"description"`
	Date                time.Time       `gorm:"not null;index" json:"date"`
	Type                TransactionType `gorm:"not null;index" json:"type"`
	Category            *Category       `json:"category,omitempty"`
	OriginalDebtID      *string         `gorm:"type:uuid;index" json:"original_debt_id,omitempty"`
	ParentTransactionID *string         `gorm:"type:uuid;index" json:"parent_transaction_id,omitempty"`
	Recurring           *RecurringInfo  `gorm:"serializer:json" json:"recurring,omitempty"`
}

// IsTemplate reports whether the transaction generates recurring instances.
func (t *Transaction) IsTemplate() bool {
	return t.Recurring != nil && t.Recurring.IsRecurring && t.ParentTransactionID == nil
}

// CategoryOrDefault returns the transaction's category, or CategoryOther when unset.
func (t *Transaction) CategoryOrDefault() Category {
	if t.Category == nil || *t.Category == "" {
		return CategoryOther
	}
	return *t.Category
}
