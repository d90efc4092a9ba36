package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "debtbook/internal/errors"
	"debtbook/internal/ledger"
	"debtbook/internal/logger"
	"debtbook/internal/models"
	"debtbook/internal/pagination"
	"debtbook/internal/uuid"
)

const maxDescriptionLength = 500

// transactionService handles transaction persistence and write-time validation.
type transactionService struct {
	db                  *gorm.DB
	counterpartyService CounterpartyServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, counterpartyService CounterpartyServicer) TransactionServicer {
	return &transactionService{
		db:                  db,
		counterpartyService: counterpartyService,
	}
}

// CreateTransaction records a new transaction against one of the user's counterparties.
func (s *transactionService) CreateTransaction(userID string, input CreateTransactionInput) (*models.Transaction, error) {
	if !input.Type.Valid() {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if err := validateAmount(input.Amount); err != nil {
		return nil, err
	}
	if err := validateDetails(input.Description, input.Category); err != nil {
		return nil, err
	}
	if input.Type != models.TransactionTypePartialPayment && input.OriginalDebtID != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "original_debt_id is only allowed on partial payments")
	}

	date := input.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	recurring, err := normalizeRecurring(input.Type, input.Recurring, date)
	if err != nil {
		return nil, err
	}

	counterparty, err := s.counterpartyService.GetCounterpartyByID(userID, input.CounterpartyID)
	if err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		UserID:         userID,
		CounterpartyID: counterparty.ID,
		Amount:         input.Amount,
		Description:    input.Description,
		Date:           date,
		Type:           input.Type,
		Category:       input.Category,
		OriginalDebtID: input.OriginalDebtID,
		Recurring:      recurring,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if transaction.Type == models.TransactionTypePartialPayment {
			if err := checkPartialPayment(tx, transaction); err != nil {
				return err
			}
		}
		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// GetUserTransactions retrieves a paginated, filtered list of the user's transactions, newest first.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	base = applyTransactionFilters(base, filter).Session(&gorm.Session{})

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("date DESC").
		Order("created_at DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", *f.ToDate)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	if f.CounterpartyID != nil {
		q = q.Where("counterparty_id = ?", *f.CounterpartyID)
	}
	if f.TemplatesOnly {
		q = q.Scopes(templatesScope)
	}
	return q
}

// templatesScope keeps rows that may be recurring templates. Callers still
// check IsTemplate since a stored recurrence can be disabled.
func templatesScope(q *gorm.DB) *gorm.DB {
	return q.Where("recurring IS NOT NULL AND parent_transaction_id IS NULL")
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	return findTransaction(s.db, userID, transactionID)
}

func findTransaction(db *gorm.DB, userID, transactionID string) (*models.Transaction, error) {
	if !uuid.IsValid(transactionID) {
		return nil, apperrors.ErrTransactionNotFound
	}
	var transaction models.Transaction
	if err := db.Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction edits a transaction in place. Type, counterparty and debt
// reference are fixed at creation.
func (s *transactionService) UpdateTransaction(userID, transactionID string, input UpdateTransactionInput) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}

	if input.Amount != nil {
		if err := validateAmount(*input.Amount); err != nil {
			return nil, err
		}
		transaction.Amount = *input.Amount
	}
	if input.Description != nil {
		transaction.Description = *input.Description
	}
	if input.Date != nil && !input.Date.IsZero() {
		transaction.Date = *input.Date
	}
	if input.Category != nil {
		category := *input.Category
		transaction.Category = &category
	}
	if err := validateDetails(transaction.Description, transaction.Category); err != nil {
		return nil, err
	}

	switch {
	case input.ClearRecurring:
		transaction.Recurring = nil
	case input.Recurring != nil:
		if transaction.ParentTransactionID != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidRecurrence, "generated instances cannot be made recurring")
		}
		recurring, err := normalizeRecurring(transaction.Type, input.Recurring, transaction.Date)
		if err != nil {
			return nil, err
		}
		if recurring != nil && recurring.LastProcessedDate == nil && transaction.Recurring != nil {
			recurring.LastProcessedDate = transaction.Recurring.LastProcessedDate
		}
		transaction.Recurring = recurring
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if transaction.Type == models.TransactionTypePartialPayment && input.Amount != nil {
			if err := checkPartialPayment(tx, transaction); err != nil {
				return err
			}
		}
		if err := tx.Save(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// DeleteTransaction deletes a transaction. Deleting a debt also deletes the
// partial payments recorded against it; instances generated from a template
// keep their parent reference.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if transaction.Type.IsDebt() {
			res := tx.Where("user_id = ? AND original_debt_id = ?", userID, transaction.ID).
				Delete(&models.Transaction{})
			if res.Error != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
			}
			if res.RowsAffected > 0 {
				logger.Get().Infow("deleted partial payments with their debt",
					"debt_id", transaction.ID,
					"count", res.RowsAffected,
				)
			}
		}
		if err := tx.Delete(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if !amount.Equal(amount.Round(2)) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must have at most two decimal places")
	}
	return nil
}

func validateDetails(description string, category *models.Category) error {
	if len(description) > maxDescriptionLength {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "description is too long")
	}
	if category != nil && !category.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown category")
	}
	return nil
}

// normalizeRecurring validates recurrence settings for a transaction of type
// txType dated date. A disabled recurrence is stored as nil.
func normalizeRecurring(txType models.TransactionType, r *models.RecurringInfo, date time.Time) (*models.RecurringInfo, error) {
	if r == nil || !r.IsRecurring {
		return nil, nil
	}
	if txType == models.TransactionTypePartialPayment {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidRecurrence, "partial payments cannot recur")
	}
	if !r.Interval.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidRecurrence, "unknown recurrence interval")
	}

	out := *r
	if out.StartDate.IsZero() {
		out.StartDate = date
	}
	if out.EndDate != nil && out.EndDate.Before(out.StartDate) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidRecurrence, "end date must not be before start date")
	}
	return &out, nil
}

// checkPartialPayment verifies that payment references a borrowed or lent
// transaction of the same user and counterparty, and that it does not exceed
// the debt's remaining balance once the other partial payments are applied.
func checkPartialPayment(tx *gorm.DB, payment *models.Transaction) error {
	if payment.OriginalDebtID == nil || !uuid.IsValid(*payment.OriginalDebtID) {
		return apperrors.ErrInvalidDebtReference
	}

	debt, err := findTransaction(tx, payment.UserID, *payment.OriginalDebtID)
	if err != nil {
		if errors.Is(err, apperrors.ErrTransactionNotFound) {
			return apperrors.ErrInvalidDebtReference
		}
		return err
	}
	if !debt.Type.IsDebt() || debt.CounterpartyID != payment.CounterpartyID {
		return apperrors.ErrInvalidDebtReference
	}

	q := tx.Where("user_id = ? AND original_debt_id = ? AND type = ?",
		payment.UserID, debt.ID, models.TransactionTypePartialPayment)
	if payment.ID != "" {
		q = q.Where("id <> ?", payment.ID)
	}
	var others []models.Transaction
	if err := q.Find(&others).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	detail := ledger.ResolveDebtDetail(*debt, others)
	if payment.Amount.GreaterThan(detail.RemainingBalance) {
		return apperrors.WithMessage(apperrors.ErrOverpayment,
			"payment exceeds the remaining balance of "+detail.RemainingBalance.StringFixed(2))
	}
	return nil
}
