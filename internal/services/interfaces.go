package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"debtbook/internal/ledger"
	"debtbook/internal/models"
	"debtbook/internal/pagination"
)

// CounterpartyServicer defines the contract for counterparty persistence.
type CounterpartyServicer interface {
	CreateCounterparty(userID, name string) (*models.Counterparty, error)
	GetUserCounterparties(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Counterparty], error)
	GetCounterpartyByID(userID, counterpartyID string) (*models.Counterparty, error)
	UpdateCounterparty(userID, counterpartyID, name string) (*models.Counterparty, error)
	DeleteCounterparty(userID, counterpartyID string) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate       *time.Time
	ToDate         *time.Time
	Type           *models.TransactionType
	Category       *models.Category
	CounterpartyID *string
	TemplatesOnly  bool
}

// CreateTransactionInput carries the fields a caller may set on a new transaction.
type CreateTransactionInput struct {
	CounterpartyID string
	Type           models.TransactionType
	Amount         decimal.Decimal
	Description    string
	Date           time.Time
	Category       *models.Category
	OriginalDebtID *string
	Recurring      *models.RecurringInfo
}

// UpdateTransactionInput carries an edit. Nil fields are left unchanged;
// ClearRecurring turns a template back into a plain transaction.
type UpdateTransactionInput struct {
	Amount         *decimal.Decimal
	Description    *string
	Date           *time.Time
	Category       *models.Category
	Recurring      *models.RecurringInfo
	ClearRecurring bool
}

// TransactionServicer defines the contract for transaction persistence.
type TransactionServicer interface {
	CreateTransaction(userID string, input CreateTransactionInput) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, input UpdateTransactionInput) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
}

// TemplateStatus pairs a recurring template with its scheduling state.
type TemplateStatus struct {
	Template    models.Transaction     `json:"template"`
	State       ledger.RecurrenceState `json:"state"`
	NextDueDate *time.Time             `json:"next_due_date,omitempty"`
}

// RecurringRunResult reports what one processing pass did for a user.
type RecurringRunResult struct {
	UserID       string               `json:"user_id"`
	Evaluated    int                  `json:"evaluated"`
	Materialized []models.Transaction `json:"materialized"`
	Expired      []string             `json:"expired"`
	Skipped      int                  `json:"skipped"`
}

// LedgerServicer loads a user's records and runs the ledger engine over them.
type LedgerServicer interface {
	LoadSession(ctx context.Context, userID string) (*Session, error)
	GetRecurringTemplates(ctx context.Context, userID string, today time.Time) ([]TemplateStatus, error)
	ProcessRecurring(ctx context.Context, userID string, today time.Time) (*RecurringRunResult, error)
	UsersWithTemplates(ctx context.Context) ([]string, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
