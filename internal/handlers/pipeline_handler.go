package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"moneta/internal/logger"
	"moneta/internal/services"
)

// PipelineHandler serves the machine-to-machine endpoints driven by the sweeper.
type PipelineHandler struct {
	recurringService services.RecurringServicer
	reportService    services.ReportServicer
}

// NewPipelineHandler creates a new PipelineHandler.
func NewPipelineHandler(recurringService services.RecurringServicer, reportService services.ReportServicer) *PipelineHandler {
	return &PipelineHandler{recurringService: recurringService, reportService: reportService}
}

// RecordSnapshotsRequest represents the request payload for recording net worth snapshots.
type RecordSnapshotsRequest struct {
	RecordedAt time.Time `json:"recorded_at" binding:"required"`
}

// AdvanceAll materializes due occurrences for every user
// @Summary     Advance all recurring templates
// @Description Run the occurrence advancer for every active template (pipeline endpoint). Per-template failures are listed in errors.
// @Tags        pipeline
// @Produce     json
// @Param       X-API-Key header   string                 true "Pipeline API key"
// @Success     200       {object} services.AdvanceResult "Advance summary"
// @Failure     401       {object} ErrorResponse          "Invalid API key"
// @Failure     500       {object} ErrorResponse          "Server error"
// @Failure     503       {object} ErrorResponse          "Pipeline not configured"
// @Router      /pipeline/recurring/advance [post]
func (h *PipelineHandler) AdvanceAll(c *gin.Context) {
	result, err := h.recurringService.AdvanceAll(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := result.Err(); err != nil {
		logger.Named("pipeline").Warnw("recurring sweep incomplete", "failed", len(result.Errors), "error", err)
	}

	c.JSON(http.StatusOK, result)
}

// RecordSnapshots records one net worth snapshot per user
// @Summary     Record net worth snapshots
// @Description Compute and upsert a net worth snapshot for every user (pipeline endpoint)
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Param       X-API-Key header   string                 true "Pipeline API key"
// @Param       request   body     RecordSnapshotsRequest true "Snapshot parameters"
// @Success     200       {object} map[string]int         "Snapshots recorded count"
// @Failure     400       {object} ErrorResponse          "Invalid input"
// @Failure     401       {object} ErrorResponse          "Invalid API key"
// @Failure     503       {object} ErrorResponse          "Pipeline not configured"
// @Router      /pipeline/snapshots [post]
func (h *PipelineHandler) RecordSnapshots(c *gin.Context) {
	var req RecordSnapshotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	count, err := h.reportService.RecordSnapshots(c.Request.Context(), req.RecordedAt)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"snapshots_recorded": count})
}
