package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/services"
)

// RecurringHandler handles recurring transaction templates.
type RecurringHandler struct {
	recurringService services.RecurringServicer
	auditService     services.AuditServicer
	advancer         advancer
}

// NewRecurringHandler creates a new RecurringHandler. advanceTimeout bounds
// the advancer run that follows every template change.
func NewRecurringHandler(recurringService services.RecurringServicer, auditService services.AuditServicer, advanceTimeout time.Duration) *RecurringHandler {
	return &RecurringHandler{
		recurringService: recurringService,
		auditService:     auditService,
		advancer:         advancer{recurringService: recurringService, timeout: advanceTimeout},
	}
}

// CreateRecurringRequest represents the request payload for creating a template
type CreateRecurringRequest struct {
	Description string                 `json:"description" binding:"required,min=1,max=500"`
	Amount      decimal.Decimal        `json:"amount" swaggertype:"string" example:"1200.00"`
	Type        models.TransactionType `json:"type" binding:"required,transaction_type"`
	AccountID   string                 `json:"account_id"`
	CategoryID  string                 `json:"category_id"`
	Frequency   models.Frequency       `json:"frequency" binding:"required,frequency"`
	StartDate   string                 `json:"start_date" binding:"required" example:"2025-01-31"`
	EndDate     *string                `json:"end_date"`
	AutoCreate  bool                   `json:"auto_create"`
}

// UpdateRecurringRequest represents the request payload for updating a template.
// An empty end_date removes the end of the schedule.
type UpdateRecurringRequest struct {
	Description *string                 `json:"description" binding:"omitempty,min=1,max=500"`
	Amount      *decimal.Decimal        `json:"amount" swaggertype:"string"`
	Type        *models.TransactionType `json:"type" binding:"omitempty,transaction_type"`
	AccountID   *string                 `json:"account_id"`
	CategoryID  *string                 `json:"category_id"`
	Frequency   *models.Frequency       `json:"frequency" binding:"omitempty,frequency"`
	StartDate   *string                 `json:"start_date"`
	EndDate     *string                 `json:"end_date"`
	AutoCreate  *bool                   `json:"auto_create"`
	IsActive    *bool                   `json:"is_active"`
}

// RecurringListQuery holds the list filters
type RecurringListQuery struct {
	pagination.PageRequest
	IsActive *bool `form:"is_active"`
}

// RecurringResponse wraps a template with any advancer notices.
type RecurringResponse struct {
	Recurring *models.RecurringTransaction `json:"recurring"`
	Notices   []Notice                     `json:"notices"`
}

// refresh re-reads a template after the advancer ran so the response carries
// its current next_occurrence. The given copy is returned if the read fails.
func (h *RecurringHandler) refresh(c *gin.Context, userID string, rt *models.RecurringTransaction) *models.RecurringTransaction {
	fresh, err := h.recurringService.GetRecurringByID(c.Request.Context(), userID, rt.ID)
	if err != nil {
		return rt
	}
	return fresh
}

// CreateRecurring handles the creation of a recurring template
// @Summary     Create a recurring transaction
// @Description Create a template whose first occurrence is its start date. Due occurrences are materialized right away; advancer problems come back as notices.
// @Tags        recurring
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateRecurringRequest true "Template details"
// @Success     201 {object} RecurringResponse "Template created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account or category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recurring [post]
func (h *RecurringHandler) CreateRecurring(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	in := services.RecurringInput{
		Description: req.Description,
		Type:        req.Type,
		Frequency:   req.Frequency,
		AutoCreate:  req.AutoCreate,
	}
	if in.Amount, err = toCents("amount", req.Amount); err != nil {
		respondWithError(c, err)
		return
	}
	if in.AccountID, err = parseOptionalID("account_id", req.AccountID); err != nil {
		respondWithError(c, err)
		return
	}
	if in.CategoryID, err = parseOptionalID("category_id", req.CategoryID); err != nil {
		respondWithError(c, err)
		return
	}
	if in.StartDate, err = parseFlexibleTime(req.StartDate); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid start_date: "+err.Error()))
		return
	}
	if in.EndDate, err = parseOptionalDate("end_date", req.EndDate); err != nil {
		respondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	rt, err := h.recurringService.CreateRecurring(ctx, userID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_RECURRING", "recurring_transaction", rt.ID, c.ClientIP(),
		map[string]interface{}{"frequency": req.Frequency, "amount": in.Amount})

	notices := h.advancer.run(ctx, userID)

	c.JSON(http.StatusCreated, RecurringResponse{Recurring: h.refresh(c, userID, rt), Notices: notices})
}

// GetUserRecurring lists templates ordered by next occurrence
// @Summary     List recurring transactions
// @Description Get a paginated list of templates ordered by next occurrence
// @Tags        recurring
// @Produce     json
// @Security    BearerAuth
// @Param       is_active query bool false "Filter by active flag"
// @Param       page      query int  false "Page number (default 1)"
// @Param       page_size query int  false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.RecurringTransaction] "Paginated templates"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recurring [get]
func (h *RecurringHandler) GetUserRecurring(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q RecurringListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.recurringService.GetUserRecurring(c.Request.Context(), userID, q.PageRequest, q.IsActive)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetRecurringByID returns a single template
// @Summary     Get recurring transaction
// @Tags        recurring
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Recurring transaction ID"
// @Success     200 {object} models.RecurringTransaction "Template"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /recurring/{id} [get]
func (h *RecurringHandler) GetRecurringByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	recurringID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	rt, err := h.recurringService.GetRecurringByID(c.Request.Context(), userID, recurringID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recurring": rt})
}

// UpdateRecurring edits a template
// @Summary     Update recurring transaction
// @Description Edit a template. The next occurrence is never changed by an edit; a start date past it is rejected.
// @Tags        recurring
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                 true "Recurring transaction ID"
// @Param       request body UpdateRecurringRequest true "Fields to update"
// @Success     200 {object} RecurringResponse "Updated template"
// @Failure     400 {object} ErrorResponse "Invalid input or schedule conflict"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recurring/{id} [put]
func (h *RecurringHandler) UpdateRecurring(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	recurringID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	in := services.RecurringUpdate{
		Description: req.Description,
		Type:        req.Type,
		Frequency:   req.Frequency,
		AutoCreate:  req.AutoCreate,
		IsActive:    req.IsActive,
	}
	if in.Amount, err = toCentsPtr("amount", req.Amount); err != nil {
		respondWithError(c, err)
		return
	}
	if req.AccountID != nil {
		if in.AccountID, err = parseOptionalID("account_id", *req.AccountID); err != nil {
			respondWithError(c, err)
			return
		}
	}
	if req.CategoryID != nil {
		if in.CategoryID, err = parseOptionalID("category_id", *req.CategoryID); err != nil {
			respondWithError(c, err)
			return
		}
	}
	if in.StartDate, err = parseOptionalDate("start_date", req.StartDate); err != nil {
		respondWithError(c, err)
		return
	}
	if req.EndDate != nil && *req.EndDate == "" {
		in.ClearEnd = true
	} else if in.EndDate, err = parseOptionalDate("end_date", req.EndDate); err != nil {
		respondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	rt, err := h.recurringService.UpdateRecurring(ctx, userID, recurringID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_RECURRING", "recurring_transaction", recurringID, c.ClientIP(), nil)

	notices := h.advancer.run(ctx, userID)

	c.JSON(http.StatusOK, RecurringResponse{Recurring: h.refresh(c, userID, rt), Notices: notices})
}

// DeleteRecurring deletes a template
// @Summary     Delete recurring transaction
// @Description Delete a template. Transactions it already produced are kept.
// @Tags        recurring
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Recurring transaction ID"
// @Success     200 {object} map[string]interface{} "Template deleted, with advancer notices"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recurring/{id} [delete]
func (h *RecurringHandler) DeleteRecurring(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	recurringID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.recurringService.DeleteRecurring(ctx, userID, recurringID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_RECURRING", "recurring_transaction", recurringID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{
		"message": "Recurring transaction deleted successfully",
		"notices": h.advancer.run(ctx, userID),
	})
}

// GetUpcoming lists the next scheduled occurrences
// @Summary     Upcoming recurring transactions
// @Description The next occurrences of active templates, on or after today, soonest first
// @Tags        recurring
// @Produce     json
// @Security    BearerAuth
// @Param       limit query int false "Number of occurrences (default 5, max 50)"
// @Success     200 {object} map[string][]services.UpcomingOccurrence "Upcoming occurrences"
// @Failure     400 {object} ErrorResponse "Invalid limit"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recurring/upcoming [get]
func (h *RecurringHandler) GetUpcoming(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q struct {
		Limit int `form:"limit" binding:"omitempty,min=1,max=50"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	upcoming, err := h.recurringService.GetUpcoming(c.Request.Context(), userID, q.Limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"upcoming": upcoming})
}

// Advance brings the user's templates up to date
// @Summary     Advance recurring transactions
// @Description Materialize every due occurrence for the authenticated user. Safe to call repeatedly; a second call on the same day changes nothing.
// @Tags        recurring
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.AdvanceResult "Advance summary, including per-template errors"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recurring/advance [post]
func (h *RecurringHandler) Advance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.recurringService.Advance(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
