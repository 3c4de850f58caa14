package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/logger"
	"moneta/internal/models"
	"moneta/internal/money"
	"moneta/internal/pagination"
	"moneta/internal/schedule"
)

var (
	loanTracer = otel.Tracer("moneta/loans")
	loanMeter  = otel.Meter("moneta/loans")

	loanPaymentsRecorded, _ = loanMeter.Int64Counter("loan.payments.recorded",
		metric.WithDescription("Loan payments written to the ledger"),
	)
	loanPaymentsRejected, _ = loanMeter.Int64Counter("loan.payments.rejected",
		metric.WithDescription("Loan payments rejected by validation"),
	)
)

const loanPaymentDescription = "Loan Payment"

// loanService handles loans and their payment ledger.
type loanService struct {
	db             *gorm.DB
	accountService AccountServicer
	clock          Clock
}

// NewLoanService creates a new LoanServicer.
func NewLoanService(db *gorm.DB, accountService AccountServicer, clock Clock) LoanServicer {
	return &loanService{db: db, accountService: accountService, clock: clock}
}

// CreateLoan creates a loan. The current balance defaults to the original amount.
func (s *loanService) CreateLoan(ctx context.Context, userID string, in LoanInput) (*models.Loan, error) {
	if in.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "loan name is required")
	}
	if in.OriginalAmount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "original amount must be greater than zero")
	}
	balance := in.OriginalAmount
	if in.CurrentBalance != nil {
		balance = *in.CurrentBalance
	}
	if balance < 0 || balance > in.OriginalAmount {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "current balance must be between zero and the original amount")
	}
	if in.Type == "" {
		in.Type = models.LoanTypeOther
	}
	if in.PaymentFrequency == "" {
		in.PaymentFrequency = models.FrequencyMonthly
	}
	if !in.PaymentFrequency.Valid() || in.PaymentFrequency == models.FrequencyDaily {
		return nil, apperrors.ErrInvalidFrequency
	}
	if in.StartDate.IsZero() {
		in.StartDate = s.clock.Today()
	}

	loan := &models.Loan{
		UserID:           userID,
		Name:             in.Name,
		Type:             in.Type,
		OriginalAmount:   in.OriginalAmount,
		CurrentBalance:   balance,
		InterestRate:     in.InterestRate,
		PaymentAmount:    in.PaymentAmount,
		PaymentFrequency: in.PaymentFrequency,
		StartDate:        schedule.Date(in.StartDate),
		EndDate:          datePtr(in.EndDate),
		NextPaymentDate:  datePtr(in.NextPaymentDate),
		Lender:           in.Lender,
		Color:            in.Color,
		Status:           models.LoanStatusActive,
	}
	if balance == 0 {
		loan.Status = models.LoanStatusPaidOff
	}

	if err := s.db.WithContext(ctx).Create(loan).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return loan, nil
}

// GetUserLoans lists a user's loans, optionally filtered by status.
func (s *loanService) GetUserLoans(ctx context.Context, userID string, page pagination.PageRequest, status *models.LoanStatus) (*pagination.PageResponse[models.Loan], error) {
	query := s.db.WithContext(ctx).Model(&models.Loan{}).Where("user_id = ?", userID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	result, err := pagination.Find[models.Loan](query, page, "created_at DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &result, nil
}

// GetLoanByID returns a loan with its payment history, newest first.
func (s *loanService) GetLoanByID(ctx context.Context, userID, loanID string) (*models.Loan, error) {
	var loan models.Loan
	if err := s.db.WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("payment_date DESC, created_at DESC")
		}).
		Where("id = ? AND user_id = ?", loanID, userID).
		First(&loan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLoanNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &loan, nil
}

func findLoan(db *gorm.DB, userID, loanID string) (*models.Loan, error) {
	var loan models.Loan
	if err := db.Where("id = ? AND user_id = ?", loanID, userID).First(&loan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLoanNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &loan, nil
}

// UpdateLoan edits descriptive and scheduling fields. Amounts owed only move
// through RecordPayment.
func (s *loanService) UpdateLoan(ctx context.Context, userID, loanID string, in LoanUpdate) (*models.Loan, error) {
	db := s.db.WithContext(ctx)
	loan, err := findLoan(db, userID, loanID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if in.Name != nil && *in.Name != "" {
		updates["name"] = *in.Name
	}
	if in.Type != nil {
		updates["type"] = *in.Type
	}
	if in.InterestRate != nil {
		updates["interest_rate"] = *in.InterestRate
	}
	if in.PaymentAmount != nil {
		updates["payment_amount"] = *in.PaymentAmount
	}
	if in.PaymentFrequency != nil {
		if !in.PaymentFrequency.Valid() || *in.PaymentFrequency == models.FrequencyDaily {
			return nil, apperrors.ErrInvalidFrequency
		}
		updates["payment_frequency"] = *in.PaymentFrequency
	}
	if in.EndDate != nil {
		updates["end_date"] = schedule.Date(*in.EndDate)
	}
	if in.NextPaymentDate != nil {
		updates["next_payment_date"] = schedule.Date(*in.NextPaymentDate)
	}
	if in.Lender != nil {
		updates["lender"] = *in.Lender
	}
	if in.Color != nil {
		updates["color"] = *in.Color
	}
	if in.Status != nil {
		if *in.Status == models.LoanStatusPaidOff && loan.CurrentBalance > 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "a loan with an outstanding balance cannot be marked paid off")
		}
		updates["status"] = *in.Status
	}

	if len(updates) > 0 {
		if err := db.Model(loan).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.GetLoanByID(ctx, userID, loanID)
}

// DeleteLoan soft-deletes a loan. Its payments remain in the ledger.
func (s *loanService) DeleteLoan(ctx context.Context, userID, loanID string) error {
	db := s.db.WithContext(ctx)
	loan, err := findLoan(db, userID, loanID)
	if err != nil {
		return err
	}
	if err := db.Delete(loan).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetLoanSummary totals the user's active loans.
func (s *loanService) GetLoanSummary(ctx context.Context, userID string) (*LoanSummary, error) {
	var row struct {
		TotalOriginal  int64
		TotalRemaining int64
		ActiveLoans    int
	}
	if err := s.db.WithContext(ctx).Model(&models.Loan{}).
		Select("COALESCE(SUM(original_amount), 0) AS total_original, COALESCE(SUM(current_balance), 0) AS total_remaining, COUNT(*) AS active_loans").
		Where("user_id = ? AND status = ?", userID, models.LoanStatusActive).
		Scan(&row).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	paid := row.TotalOriginal - row.TotalRemaining
	return &LoanSummary{
		TotalOriginal:   row.TotalOriginal,
		TotalRemaining:  row.TotalRemaining,
		TotalPaid:       paid,
		ProgressPercent: money.Percent(paid, row.TotalOriginal),
		ActiveLoans:     row.ActiveLoans,
	}, nil
}

// RecordPayment appends a payment to the loan ledger. Validation happens
// before any write. The payment row, the balance decrement, the paid-off
// transition and the optional account expense commit together or not at all.
// Replaying an idempotency key returns the original payment.
func (s *loanService) RecordPayment(ctx context.Context, userID, loanID string, in PaymentInput) (*models.LoanPayment, error) {
	ctx, span := loanTracer.Start(ctx, "loan.RecordPayment", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("loan.id", loanID),
	))
	defer span.End()

	payment, err := s.recordPayment(ctx, userID, loanID, in)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.StatusCode < 500 {
			loanPaymentsRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("code", appErr.Code)))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "record payment")
		return nil, err
	}
	return payment, nil
}

func (s *loanService) recordPayment(ctx context.Context, userID, loanID string, in PaymentInput) (*models.LoanPayment, error) {
	if in.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if in.PrincipalAmount < 0 || in.InterestAmount < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "principal and interest cannot be negative")
	}
	if in.PrincipalAmount+in.InterestAmount != in.Amount {
		return nil, apperrors.ErrPaymentSplitMismatch
	}

	db := s.db.WithContext(ctx)

	if in.IdempotencyKey != "" {
		var existing models.LoanPayment
		err := db.Where("user_id = ? AND idempotency_key = ?", userID, in.IdempotencyKey).First(&existing).Error
		if err == nil {
			if existing.LoanID != loanID {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "idempotency key was already used for another loan")
			}
			return &existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	loan, err := findLoan(db, userID, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != models.LoanStatusActive {
		return nil, apperrors.ErrLoanNotActive
	}
	if in.PrincipalAmount > loan.CurrentBalance {
		return nil, apperrors.ErrPaymentExceedsBalance
	}

	var account *models.Account
	if in.AccountID != nil {
		if account, err = findAccount(db, userID, *in.AccountID); err != nil {
			return nil, err
		}
	}

	paymentDate := s.clock.Today()
	if in.PaymentDate != nil {
		paymentDate = schedule.Date(*in.PaymentDate)
	}

	payment := &models.LoanPayment{
		UserID:          userID,
		LoanID:          loan.ID,
		AccountID:       in.AccountID,
		Amount:          in.Amount,
		PrincipalAmount: in.PrincipalAmount,
		InterestAmount:  in.InterestAmount,
		PaymentDate:     paymentDate,
		Notes:           in.Notes,
	}
	if in.IdempotencyKey != "" {
		key := in.IdempotencyKey
		payment.IdempotencyKey = &key
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if account != nil {
			categoryID, err := loanPaymentCategoryID(tx, userID)
			if err != nil {
				return err
			}
			expense := &models.Transaction{
				UserID:      userID,
				AccountID:   &account.ID,
				CategoryID:  categoryID,
				Type:        models.TransactionTypeExpense,
				Amount:      in.Amount,
				Description: loanPaymentDescription,
				Date:        paymentDate,
				Status:      models.TransactionStatusCompleted,
				Notes: fmt.Sprintf("Payment for loan. Principal: %s, Interest: %s",
					money.Format(in.PrincipalAmount), money.Format(in.InterestAmount)),
			}
			if err := tx.Create(expense).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if err := s.accountService.UpdateAccountBalance(tx, account, expense.Type, expense.Amount); err != nil {
				return err
			}
			payment.TransactionID = &expense.ID
		}

		if err := tx.Create(payment).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.ErrConcurrentModification
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		newBalance := loan.CurrentBalance - in.PrincipalAmount
		updates := map[string]interface{}{"current_balance": newBalance}
		if newBalance == 0 {
			updates["status"] = models.LoanStatusPaidOff
		}
		if loan.NextPaymentDate != nil && !paymentDate.Before(*loan.NextPaymentDate) {
			next, err := schedule.Next(loan.PaymentFrequency, loan.StartDate, *loan.NextPaymentDate)
			if err == nil && !next.IsZero() {
				updates["next_payment_date"] = next
			}
		}

		res := tx.Model(&models.Loan{}).
			Where("id = ? AND current_balance = ? AND status = ?", loan.ID, loan.CurrentBalance, models.LoanStatusActive).
			Updates(updates)
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrConcurrentModification
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	loanPaymentsRecorded.Add(ctx, 1)
	logger.Named("loans").Infow("loan payment recorded",
		"loan_id", loan.ID,
		"payment_id", payment.ID,
		"principal", payment.PrincipalAmount,
		"interest", payment.InterestAmount,
	)
	return payment, nil
}

// loanPaymentCategoryID returns the user's "Loan Payment" system category, if any.
func loanPaymentCategoryID(tx *gorm.DB, userID string) (*string, error) {
	var ids []string
	err := tx.Model(&models.Category{}).
		Where("user_id = ? AND name = ? AND is_system = ?", userID, loanPaymentDescription, true).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return &ids[0], nil
}

// GetLoanPayments lists a loan's payments, newest first.
func (s *loanService) GetLoanPayments(ctx context.Context, userID, loanID string, page pagination.PageRequest) (*pagination.PageResponse[models.LoanPayment], error) {
	db := s.db.WithContext(ctx)

	if _, err := findLoan(db, userID, loanID); err != nil {
		return nil, err
	}

	query := db.Model(&models.LoanPayment{}).Where("user_id = ? AND loan_id = ?", userID, loanID)
	result, err := pagination.Find[models.LoanPayment](query, page, "payment_date DESC, created_at DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &result, nil
}

func datePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := schedule.Date(*t)
	return &d
}
