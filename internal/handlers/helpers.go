package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "moneta/internal/errors"
	"moneta/internal/logger"
	"moneta/internal/middleware"
	"moneta/internal/money"
	"moneta/internal/services"
	"moneta/internal/uuid"
)

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID, ok := c.Get("userID")
	if !ok {
		return "", apperrors.ErrUnauthorized
	}
	id, ok := userID.(string)
	if !ok || id == "" {
		return "", apperrors.ErrUnauthorized
	}
	return id, nil
}

// parsePathID reads a UUID path parameter.
//
//nolint:unparam // param is intentionally generic for reuse across handlers with different path params
func parsePathID(c *gin.Context, param string) (string, error) {
	id := c.Param(param)
	if !uuid.IsValid(id) {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// parseOptionalID validates an optional UUID reference from a request body
// or query string. Empty strings are treated as absent.
func parseOptionalID(field, v string) (*string, error) {
	if v == "" {
		return nil, nil
	}
	if !uuid.IsValid(v) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+field)
	}
	return &v, nil
}

// respondWithError writes a consistent JSON error response.
func respondWithError(c *gin.Context, err error) {
	middleware.RespondError(c, err)
}

// bindError reports a request body or query that failed to bind.
func bindError(err error) error {
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}

// parseFlexibleTime accepts RFC3339 timestamps or plain YYYY-MM-DD dates.
func parseFlexibleTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use RFC3339 or YYYY-MM-DD", s)
	}
	return t, nil
}

func parseOptionalDate(field string, s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := parseFlexibleTime(*s)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+field+": "+err.Error())
	}
	return &t, nil
}

// toCents converts a request amount to cents.
func toCents(field string, d decimal.Decimal) (int64, error) {
	cents, err := money.ToCents(d)
	if err != nil {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, field+": "+err.Error())
	}
	return cents, nil
}

func toCentsPtr(field string, d *decimal.Decimal) (*int64, error) {
	if d == nil {
		return nil, nil
	}
	cents, err := toCents(field, *d)
	if err != nil {
		return nil, err
	}
	return &cents, nil
}

// Notice is a non-blocking message attached to an otherwise successful response.
type Notice struct {
	Type        string `json:"type"`
	RecurringID string `json:"recurring_id,omitempty"`
	Message     string `json:"message"`
}

// advancer runs the recurring occurrence advancer inline with a request.
// Failures never fail the request; they come back as notices.
type advancer struct {
	recurringService services.RecurringServicer
	timeout          time.Duration
}

func (a advancer) run(ctx context.Context, userID string) []Notice {
	notices := []Notice{}
	if a.recurringService == nil {
		return notices
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	result, err := a.recurringService.Advance(ctx, userID)
	if err != nil {
		logger.Named("recurring").Warnw("recurring advance failed", "user_id", userID, "error", err)
		return append(notices, Notice{Type: "advance", Message: "Recurring transactions could not be brought up to date"})
	}
	if result == nil {
		return notices
	}
	if err := result.Err(); err != nil {
		logger.Named("recurring").Warnw("recurring advance incomplete",
			"user_id", userID,
			"failed", len(result.Errors),
			"error", err,
		)
	}
	for _, e := range result.Errors {
		notices = append(notices, Notice{Type: "advance", RecurringID: e.RecurringID, Message: e.Message})
	}
	return notices
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
