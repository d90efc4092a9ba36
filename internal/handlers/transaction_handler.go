package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "debtbook/internal/errors"
	"debtbook/internal/models"
	"debtbook/internal/pagination"
	"debtbook/internal/services"
	"debtbook/internal/uuid"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// RecurringRequest describes the schedule of a recurring template.
type RecurringRequest struct {
	Interval  string  `json:"interval" binding:"required,recurrence_interval"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
}

// CreateTransactionRequest represents the request payload for creating a transaction.
// Amounts are decimal strings such as "12.50".
type CreateTransactionRequest struct {
	CounterpartyID string            `json:"counterparty_id" binding:"required,uuid"`
	Type           string            `json:"type" binding:"required,transaction_type"`
	Amount         string            `json:"amount" binding:"required,decimal_amount"`
	Description    string            `json:"description" binding:"max=500"`
	Date           *string           `json:"date"`
	Category       *string           `json:"category" binding:"omitempty,category"`
	OriginalDebtID *string           `json:"original_debt_id" binding:"omitempty,uuid"`
	Recurring      *RecurringRequest `json:"recurring"`
}

// UpdateTransactionRequest represents the request payload for editing a transaction.
type UpdateTransactionRequest struct {
	Amount         *string           `json:"amount" binding:"omitempty,decimal_amount"`
	Description    *string           `json:"description" binding:"omitempty,max=500"`
	Date           *string           `json:"date"`
	Category       *string           `json:"category" binding:"omitempty,category"`
	Recurring      *RecurringRequest `json:"recurring"`
	ClearRecurring bool              `json:"clear_recurring"`
}

func (r *RecurringRequest) toModel() (*models.RecurringInfo, error) {
	if r == nil {
		return nil, nil
	}
	info := &models.RecurringInfo{IsRecurring: true, Interval: models.RecurrenceInterval(r.Interval)}
	start, err := parseOptionalTime(r.StartDate)
	if err != nil {
		return nil, err
	}
	if start != nil {
		info.StartDate = *start
	}
	if info.EndDate, err = parseOptionalTime(r.EndDate); err != nil {
		return nil, err
	}
	return info, nil
}

func categoryPtr(s *string) *models.Category {
	if s == nil || *s == "" {
		return nil
	}
	category := models.Category(*s)
	return &category
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Record a borrowed, lent, payment, partial-payment or expense transaction. A partial payment must reference a borrowed or lent transaction of the same counterparty via original_debt_id and may not exceed its remaining balance.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input, bad debt reference or overpayment"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Counterparty not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input := services.CreateTransactionInput{
		CounterpartyID: req.CounterpartyID,
		Type:           models.TransactionType(req.Type),
		Amount:         decimal.RequireFromString(req.Amount),
		Description:    req.Description,
		Category:       categoryPtr(req.Category),
		OriginalDebtID: req.OriginalDebtID,
	}

	date, err := parseOptionalTime(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if date != nil {
		input.Date = *date
	}
	if input.Recurring, err = req.Recurring.toModel(); err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.CreateTransaction(userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.ActionCreateTransaction, services.ResourceTransaction, transaction.ID, c.ClientIP(),
		map[string]any{"type": transaction.Type, "amount": transaction.Amount.String(), "counterparty_id": transaction.CounterpartyID})

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// GetUserTransactions handles the retrieval of all transactions for the authenticated user
// @Summary     Get user transactions
// @Description Get a paginated list of transactions, newest first, with optional filters
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       page            query int    false "Page number (default 1)"
// @Param       page_size       query int    false "Items per page (default 20, max 100)"
// @Param       from_date       query string false "Filter by start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date         query string false "Filter by end date (RFC3339 or YYYY-MM-DD)"
// @Param       type            query string false "Filter by transaction type"
// @Param       category        query string false "Filter by category"
// @Param       counterparty_id query string false "Filter by counterparty"
// @Param       templates       query bool   false "Only recurring templates"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) GetUserTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetUserTransactions(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	if v := c.Query("from_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.FromDate = &t
	}

	if v := c.Query("to_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.ToDate = &t
	}

	if v := c.Query("type"); v != "" {
		txType := models.TransactionType(v)
		if !txType.Valid() {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid type, must be borrowed, lent, payment, partial-payment, or expense")
		}
		filter.Type = &txType
	}

	if v := c.Query("category"); v != "" {
		category := models.Category(v)
		if !category.Valid() {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid category")
		}
		filter.Category = &category
	}

	if v := c.Query("counterparty_id"); v != "" {
		if !uuid.IsValid(v) {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid counterparty_id")
		}
		filter.CounterpartyID = &v
	}

	filter.TemplatesOnly = c.Query("templates") == "true"

	return filter, nil
}

// GetTransactionByID handles the retrieval of a specific transaction
// @Summary     Get transaction by ID
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction details"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// UpdateTransaction handles editing an existing transaction
// @Summary     Update transaction
// @Description Edit amount, description, date, category or recurrence. Type and counterparty are fixed once recorded.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to update"
// @Success     200 {object} models.Transaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input or overpayment"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	txID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input := services.UpdateTransactionInput{
		Description:    req.Description,
		Category:       categoryPtr(req.Category),
		ClearRecurring: req.ClearRecurring,
	}
	if req.Amount != nil {
		amount := decimal.RequireFromString(*req.Amount)
		input.Amount = &amount
	}
	if input.Date, err = parseOptionalTime(req.Date); err != nil {
		respondWithError(c, err)
		return
	}
	if input.Recurring, err = req.Recurring.toModel(); err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.UpdateTransaction(userID, txID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.ActionUpdateTransaction, services.ResourceTransaction, transaction.ID, c.ClientIP(),
		map[string]any{"amount": transaction.Amount.String(), "recurring": transaction.Recurring != nil})

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction handles deleting a transaction
// @Summary     Delete transaction
// @Description Delete a transaction. Deleting a borrowed or lent transaction also deletes its partial payments.
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} map[string]string "Transaction deleted"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.ActionDeleteTransaction, services.ResourceTransaction, transactionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}
