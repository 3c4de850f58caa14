package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "moneta/internal/errors"
	"moneta/internal/services"
)

// ReportHandler serves the dashboard and the reporting aggregates.
type ReportHandler struct {
	reportService services.ReportServicer
	advancer      advancer
}

// NewReportHandler creates a new ReportHandler. The dashboard brings
// recurring templates up to date before summarizing.
func NewReportHandler(reportService services.ReportServicer, recurringService services.RecurringServicer, advanceTimeout time.Duration) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		advancer:      advancer{recurringService: recurringService, timeout: advanceTimeout},
	}
}

// TrendsQuery selects how many months of history to return.
type TrendsQuery struct {
	Months int `form:"months" binding:"omitempty,min=1,max=24"`
}

// SpendingQuery bounds the spending breakdown window.
type SpendingQuery struct {
	FromDate string `form:"from_date"`
	ToDate   string `form:"to_date"`
}

// DashboardResponse is the dashboard summary plus any advancement notices.
type DashboardResponse struct {
	Summary *services.DashboardSummary `json:"summary"`
	Notices []Notice                   `json:"notices"`
}

// GetDashboard returns the landing-page summary
// @Summary     Dashboard summary
// @Description Balances, credit utilization, this month's cash flow, projected recurring totals, upcoming occurrences, recent transactions and budget progress. Due recurring templates are materialized first; failures come back as notices.
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} DashboardResponse "Dashboard"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /dashboard [get]
func (h *ReportHandler) GetDashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	notices := h.advancer.run(c.Request.Context(), userID)

	summary, err := h.reportService.GetDashboardSummary(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, DashboardResponse{Summary: summary, Notices: notices})
}

// GetMonthlyTrends returns completed income and expenses per month
// @Summary     Monthly trends
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       months query int false "Number of months, oldest first (default 6, max 24)"
// @Success     200 {array}  services.MonthlyTrend "Trends"
// @Failure     400 {object} ErrorResponse "Invalid months"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/trends [get]
func (h *ReportHandler) GetMonthlyTrends(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q TrendsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	trends, err := h.reportService.GetMonthlyTrends(c.Request.Context(), userID, q.Months)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trends": trends})
}

// GetSpendingByCategory breaks down completed expenses by category
// @Summary     Spending by category
// @Description Top categories by completed expense in the window, with their share of the total. Defaults to the last month.
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       from_date query string false "Window start (RFC3339 or YYYY-MM-DD)"
// @Param       to_date   query string false "Window end (RFC3339 or YYYY-MM-DD)"
// @Success     200 {array}  services.CategorySpending "Spending"
// @Failure     400 {object} ErrorResponse "Invalid dates"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/spending [get]
func (h *ReportHandler) GetSpendingByCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q SpendingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	var from, to time.Time
	if q.FromDate != "" {
		if from, err = parseFlexibleTime(q.FromDate); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from_date: "+err.Error()))
			return
		}
	}
	if q.ToDate != "" {
		if to, err = parseFlexibleTime(q.ToDate); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to_date: "+err.Error()))
			return
		}
	}

	spending, err := h.reportService.GetSpendingByCategory(c.Request.Context(), userID, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"spending": spending})
}

// GetNetWorth returns current net worth and its monthly history
// @Summary     Net worth
// @Description Assets minus credit card and active loan debt, with the last recorded snapshot of each month
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.NetWorthReport "Net worth"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/net-worth [get]
func (h *ReportHandler) GetNetWorth(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.reportService.GetNetWorth(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
