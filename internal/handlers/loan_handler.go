package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/services"
)

// IdempotencyKeyHeader lets clients retry a payment without recording it twice.
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLen = 128

// LoanHandler handles loans and their payment ledger.
type LoanHandler struct {
	loanService  services.LoanServicer
	auditService services.AuditServicer
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(loanService services.LoanServicer, auditService services.AuditServicer) *LoanHandler {
	return &LoanHandler{loanService: loanService, auditService: auditService}
}

// CreateLoanRequest represents the request payload for creating a loan
type CreateLoanRequest struct {
	Name             string           `json:"name" binding:"required,min=1,max=100"`
	Type             models.LoanType  `json:"type" binding:"omitempty,loan_type"`
	OriginalAmount   decimal.Decimal  `json:"original_amount" swaggertype:"string" example:"25000.00"`
	CurrentBalance   *decimal.Decimal `json:"current_balance" swaggertype:"string" example:"18000.00"`
	InterestRate     float64          `json:"interest_rate" binding:"gte=0,lte=100"`
	PaymentAmount    decimal.Decimal  `json:"payment_amount" swaggertype:"string" example:"450.00"`
	PaymentFrequency models.Frequency `json:"payment_frequency" binding:"omitempty,loan_frequency"`
	StartDate        *string          `json:"start_date"`
	EndDate          *string          `json:"end_date"`
	NextPaymentDate  *string          `json:"next_payment_date"`
	Lender           string           `json:"lender" binding:"max=100"`
	Color            string           `json:"color" binding:"omitempty,hex_color"`
}

// UpdateLoanRequest represents the request payload for updating a loan.
// Amounts owed only change by recording payments.
type UpdateLoanRequest struct {
	Name             *string            `json:"name" binding:"omitempty,min=1,max=100"`
	Type             *models.LoanType   `json:"type" binding:"omitempty,loan_type"`
	InterestRate     *float64           `json:"interest_rate" binding:"omitempty,gte=0,lte=100"`
	PaymentAmount    *decimal.Decimal   `json:"payment_amount" swaggertype:"string"`
	PaymentFrequency *models.Frequency  `json:"payment_frequency" binding:"omitempty,loan_frequency"`
	EndDate          *string            `json:"end_date"`
	NextPaymentDate  *string            `json:"next_payment_date"`
	Lender           *string            `json:"lender" binding:"omitempty,max=100"`
	Color            *string            `json:"color" binding:"omitempty,hex_color"`
	Status           *models.LoanStatus `json:"status" binding:"omitempty,loan_status"`
}

// RecordPaymentRequest represents a loan payment. Principal plus interest must
// equal the amount exactly.
type RecordPaymentRequest struct {
	Amount          decimal.Decimal `json:"amount" swaggertype:"string" example:"250.00"`
	PrincipalAmount decimal.Decimal `json:"principal_amount" swaggertype:"string" example:"200.00"`
	InterestAmount  decimal.Decimal `json:"interest_amount" swaggertype:"string" example:"50.00"`
	PaymentDate     *string         `json:"payment_date"`
	AccountID       string          `json:"account_id"`
	Notes           string          `json:"notes" binding:"max=1000"`
}

// LoanListQuery holds the list filters
type LoanListQuery struct {
	pagination.PageRequest
	Status string `form:"status" binding:"omitempty,loan_status"`
}

// CreateLoan handles the creation of a loan
// @Summary     Create a loan
// @Description Create a loan. The current balance defaults to the original amount.
// @Tags        loans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateLoanRequest true "Loan details"
// @Success     201 {object} models.Loan "Loan created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loans [post]
func (h *LoanHandler) CreateLoan(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	in := services.LoanInput{
		Name:             req.Name,
		Type:             req.Type,
		InterestRate:     req.InterestRate,
		PaymentFrequency: req.PaymentFrequency,
		Lender:           req.Lender,
		Color:            req.Color,
	}
	if in.OriginalAmount, err = toCents("original_amount", req.OriginalAmount); err != nil {
		respondWithError(c, err)
		return
	}
	if in.CurrentBalance, err = toCentsPtr("current_balance", req.CurrentBalance); err != nil {
		respondWithError(c, err)
		return
	}
	if in.PaymentAmount, err = toCents("payment_amount", req.PaymentAmount); err != nil {
		respondWithError(c, err)
		return
	}
	start, err := parseOptionalDate("start_date", req.StartDate)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if start != nil {
		in.StartDate = *start
	}
	if in.EndDate, err = parseOptionalDate("end_date", req.EndDate); err != nil {
		respondWithError(c, err)
		return
	}
	if in.NextPaymentDate, err = parseOptionalDate("next_payment_date", req.NextPaymentDate); err != nil {
		respondWithError(c, err)
		return
	}

	loan, err := h.loanService.CreateLoan(c.Request.Context(), userID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_LOAN", "loan", loan.ID, c.ClientIP(),
		map[string]interface{}{"name": loan.Name, "original_amount": loan.OriginalAmount})

	c.JSON(http.StatusCreated, gin.H{"loan": loan})
}

// GetUserLoans lists the user's loans
// @Summary     List loans
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Param       status    query string false "Filter by status (active, paid_off, defaulted)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Loan] "Paginated loans"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loans [get]
func (h *LoanHandler) GetUserLoans(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q LoanListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	var status *models.LoanStatus
	if q.Status != "" {
		s := models.LoanStatus(q.Status)
		status = &s
	}

	result, err := h.loanService.GetUserLoans(c.Request.Context(), userID, q.PageRequest, status)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetLoanByID returns a loan with its payment history
// @Summary     Get loan
// @Description Get a loan with its payments, newest first
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Loan ID"
// @Success     200 {object} models.Loan "Loan with payments"
// @Failure     400 {object} ErrorResponse "Invalid loan ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Loan not found"
// @Router      /loans/{id} [get]
func (h *LoanHandler) GetLoanByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	loanID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	loan, err := h.loanService.GetLoanByID(c.Request.Context(), userID, loanID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loan": loan})
}

// UpdateLoan edits a loan's terms
// @Summary     Update loan
// @Description Edit a loan. The original amount and current balance cannot be edited.
// @Tags        loans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "Loan ID"
// @Param       request body UpdateLoanRequest true "Fields to update"
// @Success     200 {object} models.Loan "Updated loan"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Loan not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loans/{id} [put]
func (h *LoanHandler) UpdateLoan(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	loanID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	in := services.LoanUpdate{
		Name:             req.Name,
		Type:             req.Type,
		InterestRate:     req.InterestRate,
		PaymentFrequency: req.PaymentFrequency,
		Lender:           req.Lender,
		Color:            req.Color,
		Status:           req.Status,
	}
	if in.PaymentAmount, err = toCentsPtr("payment_amount", req.PaymentAmount); err != nil {
		respondWithError(c, err)
		return
	}
	if in.EndDate, err = parseOptionalDate("end_date", req.EndDate); err != nil {
		respondWithError(c, err)
		return
	}
	if in.NextPaymentDate, err = parseOptionalDate("next_payment_date", req.NextPaymentDate); err != nil {
		respondWithError(c, err)
		return
	}

	loan, err := h.loanService.UpdateLoan(c.Request.Context(), userID, loanID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_LOAN", "loan", loanID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"loan": loan})
}

// DeleteLoan deletes a loan
// @Summary     Delete loan
// @Description Delete a loan. Its payment ledger is kept.
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Loan ID"
// @Success     200 {object} map[string]string "Loan deleted"
// @Failure     400 {object} ErrorResponse "Invalid loan ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Loan not found"
// @Router      /loans/{id} [delete]
func (h *LoanHandler) DeleteLoan(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	loanID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.loanService.DeleteLoan(c.Request.Context(), userID, loanID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_LOAN", "loan", loanID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Loan deleted successfully"})
}

// GetLoanSummary aggregates the user's active loans
// @Summary     Loan summary
// @Description Total original amount, remaining balance, amount paid and progress across active loans
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.LoanSummary "Loan summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loans/summary [get]
func (h *LoanHandler) GetLoanSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.loanService.GetLoanSummary(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// RecordPayment records a payment against a loan
// @Summary     Record loan payment
// @Description Record a payment, reduce the balance by its principal and, with an account, post the matching expense. All writes happen in one transaction. Send an Idempotency-Key header to make retries safe.
// @Tags        loans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id              path   string               true  "Loan ID"
// @Param       Idempotency-Key header string               false "Client-chosen key, max 128 characters"
// @Param       request         body   RecordPaymentRequest true  "Payment details"
// @Success     201 {object} models.LoanPayment "Payment recorded"
// @Failure     400 {object} ErrorResponse "Invalid input, split mismatch, balance exceeded or loan not active"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Loan or account not found"
// @Failure     409 {object} ErrorResponse "Concurrent modification"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loans/{id}/payments [post]
func (h *LoanHandler) RecordPayment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	loanID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	key := c.GetHeader(IdempotencyKeyHeader)
	if len(key) > maxIdempotencyKeyLen {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Idempotency-Key must be at most 128 characters"))
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	in := services.PaymentInput{Notes: req.Notes, IdempotencyKey: key}
	if in.Amount, err = toCents("amount", req.Amount); err != nil {
		respondWithError(c, err)
		return
	}
	if in.PrincipalAmount, err = toCents("principal_amount", req.PrincipalAmount); err != nil {
		respondWithError(c, err)
		return
	}
	if in.InterestAmount, err = toCents("interest_amount", req.InterestAmount); err != nil {
		respondWithError(c, err)
		return
	}
	if in.PaymentDate, err = parseOptionalDate("payment_date", req.PaymentDate); err != nil {
		respondWithError(c, err)
		return
	}
	if in.AccountID, err = parseOptionalID("account_id", req.AccountID); err != nil {
		respondWithError(c, err)
		return
	}

	payment, err := h.loanService.RecordPayment(c.Request.Context(), userID, loanID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "RECORD_LOAN_PAYMENT", "loan", loanID, c.ClientIP(),
		map[string]interface{}{"payment_id": payment.ID, "amount": payment.Amount})

	c.JSON(http.StatusCreated, gin.H{"payment": payment})
}

// GetLoanPayments lists a loan's payments
// @Summary     List loan payments
// @Description Payments for a loan, newest first
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Loan ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.LoanPayment] "Paginated payments"
// @Failure     400 {object} ErrorResponse "Invalid loan ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Loan not found"
// @Router      /loans/{id}/payments [get]
func (h *LoanHandler) GetLoanPayments(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	loanID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.loanService.GetLoanPayments(c.Request.Context(), userID, loanID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
