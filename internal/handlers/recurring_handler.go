package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"debtbook/internal/services"
)

// RecurringRunner processes recurring templates for every user.
type RecurringRunner interface {
	ProcessAll(ctx context.Context, now time.Time) (int, error)
}

// RecurringHandler exposes recurring templates and on-demand materialization.
type RecurringHandler struct {
	ledgerService services.LedgerServicer
	runner        RecurringRunner
	now           func() time.Time
}

// NewRecurringHandler creates a new RecurringHandler.
func NewRecurringHandler(ledgerService services.LedgerServicer, runner RecurringRunner) *RecurringHandler {
	return &RecurringHandler{ledgerService: ledgerService, runner: runner, now: utcNow}
}

// GetTemplates lists the user's recurring templates
// @Summary     List recurring templates
// @Description Every recurring template with its state (due, not-due, expired) as of today and the next due date.
// @Tags        recurring
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  services.TemplateStatus "Templates"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recurring [get]
func (h *RecurringHandler) GetTemplates(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	templates, err := h.ledgerService.GetRecurringTemplates(c.Request.Context(), userID, h.now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

// ProcessRecurring materializes the user's due templates now
// @Summary     Process recurring templates
// @Description Creates at most one instance per due template and advances each template.
// @Tags        recurring
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.RecurringRunResult "Run result"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recurring/process [post]
func (h *RecurringHandler) ProcessRecurring(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.ledgerService.ProcessRecurring(c.Request.Context(), userID, h.now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// RunAll processes recurring templates for every user
// @Summary     Run recurring processing for all users
// @Description Operator endpoint for external schedulers. Requires the X-API-Key header.
// @Tags        internal
// @Produce     json
// @Param       X-API-Key header string true "Service API key"
// @Success     200 {object} map[string]int "Number of instances created"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /internal/recurring/run [post]
func (h *RecurringHandler) RunAll(c *gin.Context) {
	created, err := h.runner.ProcessAll(c.Request.Context(), h.now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"created": created})
}
