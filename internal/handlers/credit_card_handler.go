package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/services"
)

// CreditCardHandler handles credit card requests.
type CreditCardHandler struct {
	creditCardService services.CreditCardServicer
	auditService      services.AuditServicer
}

// NewCreditCardHandler creates a new CreditCardHandler.
func NewCreditCardHandler(creditCardService services.CreditCardServicer, auditService services.AuditServicer) *CreditCardHandler {
	return &CreditCardHandler{creditCardService: creditCardService, auditService: auditService}
}

// CreateCreditCardRequest represents the request payload for adding a card
type CreateCreditCardRequest struct {
	Name                string           `json:"name" binding:"required,min=1,max=100"`
	LastFour            string           `json:"last_four" binding:"omitempty,last_four"`
	Issuer              string           `json:"issuer" binding:"max=100"`
	CreditLimit         decimal.Decimal  `json:"credit_limit" swaggertype:"string" example:"5000.00"`
	CurrentBalance      decimal.Decimal  `json:"current_balance" swaggertype:"string" example:"1200.00"`
	APR                 *decimal.Decimal `json:"apr" swaggertype:"string" example:"19.99"`
	PaymentDueDay       *int             `json:"payment_due_day" binding:"omitempty,min=1,max=31"`
	StatementClosingDay *int             `json:"statement_closing_day" binding:"omitempty,min=1,max=31"`
	Color               string           `json:"color" binding:"omitempty,hex_color"`
}

// UpdateCreditCardRequest represents the request payload for updating a card
type UpdateCreditCardRequest struct {
	Name                *string          `json:"name" binding:"omitempty,min=1,max=100"`
	LastFour            *string          `json:"last_four" binding:"omitempty,last_four"`
	Issuer              *string          `json:"issuer" binding:"omitempty,max=100"`
	CreditLimit         *decimal.Decimal `json:"credit_limit" swaggertype:"string"`
	CurrentBalance      *decimal.Decimal `json:"current_balance" swaggertype:"string"`
	APR                 *decimal.Decimal `json:"apr" swaggertype:"string"`
	PaymentDueDay       *int             `json:"payment_due_day" binding:"omitempty,min=1,max=31"`
	StatementClosingDay *int             `json:"statement_closing_day" binding:"omitempty,min=1,max=31"`
	Color               *string          `json:"color" binding:"omitempty,hex_color"`
	IsActive            *bool            `json:"is_active"`
}

// CreditCardResponse adds the derived utilization to a card.
type CreditCardResponse struct {
	*models.CreditCard
	Utilization     float64 `json:"utilization"`
	HighUtilization bool    `json:"high_utilization"`
}

func newCreditCardResponse(card *models.CreditCard) CreditCardResponse {
	return CreditCardResponse{
		CreditCard:      card,
		Utilization:     card.Utilization(),
		HighUtilization: card.HighUtilization(),
	}
}

func aprPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

// CreateCreditCard handles adding a credit card
// @Summary     Create a credit card
// @Tags        credit-cards
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateCreditCardRequest true "Card details"
// @Success     201 {object} CreditCardResponse "Card created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /credit-cards [post]
func (h *CreditCardHandler) CreateCreditCard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateCreditCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	in := services.CreditCardInput{
		Name:                req.Name,
		LastFour:            req.LastFour,
		Issuer:              req.Issuer,
		APR:                 aprPtr(req.APR),
		PaymentDueDay:       req.PaymentDueDay,
		StatementClosingDay: req.StatementClosingDay,
		Color:               req.Color,
	}
	if in.CreditLimit, err = toCents("credit_limit", req.CreditLimit); err != nil {
		respondWithError(c, err)
		return
	}
	if in.CurrentBalance, err = toCents("current_balance", req.CurrentBalance); err != nil {
		respondWithError(c, err)
		return
	}

	card, err := h.creditCardService.CreateCreditCard(userID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_CREDIT_CARD", "credit_card", card.ID, c.ClientIP(),
		map[string]interface{}{"name": card.Name, "credit_limit": card.CreditLimit})

	c.JSON(http.StatusCreated, gin.H{"credit_card": newCreditCardResponse(card)})
}

// GetUserCreditCards lists the user's cards
// @Summary     List credit cards
// @Tags        credit-cards
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[CreditCardResponse] "Paginated cards"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /credit-cards [get]
func (h *CreditCardHandler) GetUserCreditCards(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.creditCardService.GetUserCreditCards(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, pagination.Map(*result, newCreditCardResponse))
}

// GetCreditCardByID returns a single card
// @Summary     Get credit card
// @Tags        credit-cards
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Card ID"
// @Success     200 {object} CreditCardResponse "Card"
// @Failure     400 {object} ErrorResponse "Invalid card ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Card not found"
// @Router      /credit-cards/{id} [get]
func (h *CreditCardHandler) GetCreditCardByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cardID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	card, err := h.creditCardService.GetCreditCardByID(userID, cardID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"credit_card": newCreditCardResponse(card)})
}

// UpdateCreditCard edits a card
// @Summary     Update credit card
// @Tags        credit-cards
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                  true "Card ID"
// @Param       request body UpdateCreditCardRequest true "Fields to update"
// @Success     200 {object} CreditCardResponse "Updated card"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Card not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /credit-cards/{id} [put]
func (h *CreditCardHandler) UpdateCreditCard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cardID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCreditCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	in := services.CreditCardUpdate{
		Name:                req.Name,
		LastFour:            req.LastFour,
		Issuer:              req.Issuer,
		APR:                 aprPtr(req.APR),
		PaymentDueDay:       req.PaymentDueDay,
		StatementClosingDay: req.StatementClosingDay,
		Color:               req.Color,
		IsActive:            req.IsActive,
	}
	if in.CreditLimit, err = toCentsPtr("credit_limit", req.CreditLimit); err != nil {
		respondWithError(c, err)
		return
	}
	if in.CurrentBalance, err = toCentsPtr("current_balance", req.CurrentBalance); err != nil {
		respondWithError(c, err)
		return
	}

	card, err := h.creditCardService.UpdateCreditCard(userID, cardID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_CREDIT_CARD", "credit_card", cardID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"credit_card": newCreditCardResponse(card)})
}

// DeleteCreditCard removes a card
// @Summary     Delete credit card
// @Tags        credit-cards
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Card ID"
// @Success     200 {object} map[string]string "Card deleted"
// @Failure     400 {object} ErrorResponse "Invalid card ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Card not found"
// @Router      /credit-cards/{id} [delete]
func (h *CreditCardHandler) DeleteCreditCard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cardID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.creditCardService.DeleteCreditCard(userID, cardID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_CREDIT_CARD", "credit_card", cardID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Credit card deleted successfully"})
}

// GetCreditCardSummary aggregates utilization across active cards
// @Summary     Credit card summary
// @Tags        credit-cards
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.CreditCardSummary "Summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /credit-cards/summary [get]
func (h *CreditCardHandler) GetCreditCardSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.creditCardService.GetCreditCardSummary(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
