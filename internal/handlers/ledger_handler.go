package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "debtbook/internal/errors"
	"debtbook/internal/ledger"
	"debtbook/internal/models"
	"debtbook/internal/services"
)

const monthLayout = "2006-01"

// LedgerHandler serves the read-only views computed by the ledger engine.
type LedgerHandler struct {
	ledgerService  services.LedgerServicer
	currencySymbol string
	monthsBack     int
	now            func() time.Time
}

// NewLedgerHandler creates a new LedgerHandler. monthsBack is the default
// window of the monthly statistics endpoint.
func NewLedgerHandler(ledgerService services.LedgerServicer, currencySymbol string, monthsBack int) *LedgerHandler {
	return &LedgerHandler{
		ledgerService:  ledgerService,
		currencySymbol: currencySymbol,
		monthsBack:     monthsBack,
		now:            utcNow,
	}
}

// DebtSummaryResponse is a DebtSummary with its balance formatted for display.
type DebtSummaryResponse struct {
	ledger.DebtSummary
	FormattedBalance string `json:"formatted_balance"`
}

// ExtendedSummaryResponse is an ExtendedDebtSummary with formatted amounts.
type ExtendedSummaryResponse struct {
	ledger.ExtendedDebtSummary
	FormattedBalance     string `json:"formatted_balance"`
	FormattedOutstanding string `json:"formatted_outstanding"`
}

// TotalsResponse is the user-wide position with formatted amounts.
type TotalsResponse struct {
	ledger.DebtTotals
	FormattedOwed       string `json:"formatted_owed"`
	FormattedOwing      string `json:"formatted_owing"`
	FormattedNetBalance string `json:"formatted_net_balance"`
}

func (h *LedgerHandler) session(c *gin.Context) (*services.Session, bool) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return nil, false
	}
	session, err := h.ledgerService.LoadSession(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return nil, false
	}
	return session, true
}

// GetSummaries returns one summary per counterparty
// @Summary     Debt summaries
// @Description Per-counterparty totals with balance = borrowed - lent - payments. Positive balances mean the counterparty owes the user.
// @Tags        ledger
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  DebtSummaryResponse "Summaries"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /ledger/summaries [get]
func (h *LedgerHandler) GetSummaries(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	summaries := session.Summaries()
	resp := make([]DebtSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, DebtSummaryResponse{
			DebtSummary:      s,
			FormattedBalance: ledger.FormatCurrency(s.Balance, h.currencySymbol),
		})
	}

	c.JSON(http.StatusOK, gin.H{"summaries": resp})
}

// GetExtendedSummaries returns summaries including debt threads
// @Summary     Extended debt summaries
// @Description Summaries whose balance also subtracts partial payments, with every debt thread resolved. Partial payments referencing a missing debt are listed under orphaned_partial_payments.
// @Tags        ledger
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  ExtendedSummaryResponse "Extended summaries"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /ledger/summaries/extended [get]
func (h *LedgerHandler) GetExtendedSummaries(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	summaries := session.ExtendedSummaries()
	resp := make([]ExtendedSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, ExtendedSummaryResponse{
			ExtendedDebtSummary:  s,
			FormattedBalance:     ledger.FormatCurrency(s.Balance, h.currencySymbol),
			FormattedOutstanding: ledger.FormatCurrency(s.TotalOutstandingAmount, h.currencySymbol),
		})
	}

	orphans := session.OrphanedPartialPayments()
	if orphans == nil {
		orphans = []models.Transaction{}
	}

	c.JSON(http.StatusOK, gin.H{
		"summaries":                 resp,
		"orphaned_partial_payments": orphans,
	})
}

// GetTotals returns the aggregate position across all counterparties
// @Summary     Total debt
// @Tags        ledger
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} TotalsResponse "Totals"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /ledger/totals [get]
func (h *LedgerHandler) GetTotals(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	totals := session.TotalDebt()
	c.JSON(http.StatusOK, gin.H{"totals": TotalsResponse{
		DebtTotals:          totals,
		FormattedOwed:       ledger.FormatCurrency(totals.TotalOwed, h.currencySymbol),
		FormattedOwing:      ledger.FormatCurrency(totals.TotalOwing, h.currencySymbol),
		FormattedNetBalance: ledger.FormatCurrency(totals.NetBalance, h.currencySymbol),
	}})
}

// GetOutstanding returns the debt threads of one counterparty
// @Summary     Outstanding debts
// @Description Every borrowed or lent transaction of the counterparty with its partial payments. Unpaid debts come first, newest first within each group.
// @Tags        ledger
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Counterparty ID"
// @Success     200 {array}  ledger.DebtDetail "Debt threads"
// @Failure     400 {object} ErrorResponse "Invalid counterparty ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Counterparty not found"
// @Router      /counterparties/{id}/outstanding [get]
func (h *LedgerHandler) GetOutstanding(c *gin.Context) {
	counterpartyID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	session, ok := h.session(c)
	if !ok {
		return
	}

	debts, err := session.Outstanding(counterpartyID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"debts": debts})
}

// GetDebtDetail resolves a single debt thread
// @Summary     Debt detail
// @Tags        ledger
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Borrowed or lent transaction ID"
// @Success     200 {object} ledger.DebtDetail "Debt thread"
// @Failure     400 {object} ErrorResponse "Not a borrowed or lent transaction"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id}/debt [get]
func (h *LedgerHandler) GetDebtDetail(c *gin.Context) {
	debtID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	session, ok := h.session(c)
	if !ok {
		return
	}

	detail, err := session.DebtDetail(debtID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"debt": detail})
}

// GetMonthlyStatistics returns per-month totals, current month first
// @Summary     Monthly statistics
// @Tags        statistics
// @Produce     json
// @Security    BearerAuth
// @Param       months query int false "Number of months including the current one (default from configuration)"
// @Success     200 {array}  ledger.MonthlyStats "Monthly statistics"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /statistics/monthly [get]
func (h *LedgerHandler) GetMonthlyStatistics(c *gin.Context) {
	monthsBack := h.monthsBack
	if v := c.Query("months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 120 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "months must be between 1 and 120"))
			return
		}
		monthsBack = n
	}

	session, ok := h.session(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"months": session.MonthlyStatistics(h.now(), monthsBack)})
}

// GetFriendStatistics returns one row per counterparty for a month
// @Summary     Counterparty statistics by month
// @Tags        statistics
// @Produce     json
// @Security    BearerAuth
// @Param       month query string false "Month as YYYY-MM (default current month)"
// @Success     200 {array}  ledger.FriendMonthlyStats "Per-counterparty statistics"
// @Failure     400 {object} ErrorResponse "Invalid month"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /statistics/counterparties [get]
func (h *LedgerHandler) GetFriendStatistics(c *gin.Context) {
	month := h.now()
	if v := c.Query("month"); v != "" {
		parsed, err := time.ParseInLocation(monthLayout, v, month.Location())
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be formatted as YYYY-MM"))
			return
		}
		month = parsed
	}

	session, ok := h.session(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"counterparties": session.FriendStatisticsByMonth(month)})
}

// GetCategoryStatistics groups transactions by category
// @Summary     Category statistics
// @Description Without a type, every non-expense transaction is grouped with borrowed and lent amounts split. With a type, only that type is counted.
// @Tags        statistics
// @Produce     json
// @Security    BearerAuth
// @Param       type query string false "Restrict to one transaction type"
// @Success     200 {array}  ledger.CategoryStats "Category statistics"
// @Failure     400 {object} ErrorResponse "Invalid type"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /statistics/categories [get]
func (h *LedgerHandler) GetCategoryStatistics(c *gin.Context) {
	var opts ledger.CategoryOptions
	if v := c.Query("type"); v != "" {
		txType := models.TransactionType(v)
		if !txType.Valid() {
			respondWithError(c, apperrors.ErrInvalidTransactionType)
			return
		}
		opts.TransactionType = txType
	}

	session, ok := h.session(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": session.CategoryStatistics(opts)})
}

// GetExpenseSummary returns expenses broken down by category
// @Summary     Expense summary
// @Tags        statistics
// @Produce     json
// @Security    BearerAuth
// @Param       start_date query string false "Inclusive start (RFC3339 or YYYY-MM-DD)"
// @Param       end_date   query string false "Inclusive end (RFC3339 or YYYY-MM-DD)"
// @Success     200 {object} ledger.ExpenseSummary "Expense summary"
// @Failure     400 {object} ErrorResponse "Invalid date"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /statistics/expenses [get]
func (h *LedgerHandler) GetExpenseSummary(c *gin.Context) {
	var opts ledger.ExpenseOptions
	var err error

	start, end := c.Query("start_date"), c.Query("end_date")
	if opts.StartDate, err = parseOptionalTime(&start); err != nil {
		respondWithError(c, err)
		return
	}
	if opts.EndDate, err = parseOptionalTime(&end); err != nil {
		respondWithError(c, err)
		return
	}
	if opts.EndDate != nil && len(end) == len(dateLayout) {
		// a plain date covers the whole day
		endOfDay := opts.EndDate.AddDate(0, 0, 1).Add(-time.Nanosecond)
		opts.EndDate = &endOfDay
	}

	session, ok := h.session(c)
	if !ok {
		return
	}

	summary := session.ExpenseSummary(opts)
	c.JSON(http.StatusOK, gin.H{
		"summary":         summary,
		"formatted_total": ledger.FormatCurrency(summary.TotalExpenses, h.currencySymbol),
	})
}
