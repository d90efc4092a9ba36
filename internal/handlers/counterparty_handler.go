package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "debtbook/internal/errors"
	"debtbook/internal/pagination"
	"debtbook/internal/services"
)

// CounterpartyHandler handles counterparty-related requests.
type CounterpartyHandler struct {
	counterpartyService services.CounterpartyServicer
	auditService        services.AuditServicer
}

// NewCounterpartyHandler creates a new CounterpartyHandler.
func NewCounterpartyHandler(counterpartyService services.CounterpartyServicer, auditService services.AuditServicer) *CounterpartyHandler {
	return &CounterpartyHandler{counterpartyService: counterpartyService, auditService: auditService}
}

// CounterpartyRequest is the payload for creating or renaming a counterparty.
type CounterpartyRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// CreateCounterparty handles the creation of a new counterparty
// @Summary     Create a counterparty
// @Description Add a person the user tracks debts against
// @Tags        counterparties
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CounterpartyRequest true "Counterparty details"
// @Success     201 {object} models.Counterparty "Counterparty created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /counterparties [post]
func (h *CounterpartyHandler) CreateCounterparty(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CounterpartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	counterparty, err := h.counterpartyService.CreateCounterparty(userID, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.ActionCreateCounterparty, services.ResourceCounterparty, counterparty.ID, c.ClientIP(),
		map[string]any{"name": counterparty.Name})

	c.JSON(http.StatusCreated, gin.H{"counterparty": counterparty})
}

// GetUserCounterparties lists the user's counterparties
// @Summary     List counterparties
// @Description Get a paginated list of counterparties ordered by name
// @Tags        counterparties
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Counterparty] "Paginated counterparties"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /counterparties [get]
func (h *CounterpartyHandler) GetUserCounterparties(c *gin.Context) {
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

	result, err := h.counterpartyService.GetUserCounterparties(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCounterpartyByID returns one counterparty
// @Summary     Get counterparty by ID
// @Tags        counterparties
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Counterparty ID"
// @Success     200 {object} models.Counterparty "Counterparty details"
// @Failure     400 {object} ErrorResponse "Invalid counterparty ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Counterparty not found"
// @Router      /counterparties/{id} [get]
func (h *CounterpartyHandler) GetCounterpartyByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	counterpartyID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	counterparty, err := h.counterpartyService.GetCounterpartyByID(userID, counterpartyID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"counterparty": counterparty})
}

// UpdateCounterparty renames a counterparty
// @Summary     Rename counterparty
// @Tags        counterparties
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Counterparty ID"
// @Param       request body CounterpartyRequest true "New name"
// @Success     200 {object} models.Counterparty "Updated counterparty"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Counterparty not found"
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Router      /counterparties/{id} [put]
func (h *CounterpartyHandler) UpdateCounterparty(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	counterpartyID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CounterpartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	counterparty, err := h.counterpartyService.UpdateCounterparty(userID, counterpartyID, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.ActionUpdateCounterparty, services.ResourceCounterparty, counterparty.ID, c.ClientIP(),
		map[string]any{"name": counterparty.Name})

	c.JSON(http.StatusOK, gin.H{"counterparty": counterparty})
}

// DeleteCounterparty deletes a counterparty and its transactions
// @Summary     Delete counterparty
// @Description Delete a counterparty together with every transaction recorded against it
// @Tags        counterparties
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Counterparty ID"
// @Success     200 {object} map[string]string "Counterparty deleted"
// @Failure     400 {object} ErrorResponse "Invalid counterparty ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Counterparty not found"
// @Router      /counterparties/{id} [delete]
func (h *CounterpartyHandler) DeleteCounterparty(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	counterpartyID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.counterpartyService.DeleteCounterparty(userID, counterpartyID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.ActionDeleteCounterparty, services.ResourceCounterparty, counterpartyID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Counterparty deleted successfully"})
}
