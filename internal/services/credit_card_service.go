package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/money"
	"moneta/internal/pagination"
)

// creditCardService handles credit card business logic.
type creditCardService struct {
	db *gorm.DB
}

// NewCreditCardService creates a new CreditCardServicer.
func NewCreditCardService(db *gorm.DB) CreditCardServicer {
	return &creditCardService{db: db}
}

// CreateCreditCard creates a new credit card for a user
func (s *creditCardService) CreateCreditCard(userID string, in CreditCardInput) (*models.CreditCard, error) {
	if in.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "card name is required")
	}
	if in.CreditLimit < 0 || in.CurrentBalance < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "credit limit and balance cannot be negative")
	}
	if err := validateCardDays(in.PaymentDueDay, in.StatementClosingDay); err != nil {
		return nil, err
	}

	card := &models.CreditCard{
		UserID:              userID,
		Name:                in.Name,
		LastFour:            in.LastFour,
		Issuer:              in.Issuer,
		CreditLimit:         in.CreditLimit,
		CurrentBalance:      in.CurrentBalance,
		APR:                 in.APR,
		PaymentDueDay:       in.PaymentDueDay,
		StatementClosingDay: in.StatementClosingDay,
		Color:               in.Color,
		IsActive:            true,
	}
	if err := s.db.Create(card).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return card, nil
}

func validateCardDays(days ...*int) error {
	for _, d := range days {
		if d != nil && (*d < 1 || *d > 31) {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "day of month must be between 1 and 31")
		}
	}
	return nil
}

// GetUserCreditCards lists a user's credit cards.
func (s *creditCardService) GetUserCreditCards(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.CreditCard], error) {
	query := s.db.Model(&models.CreditCard{}).Where("user_id = ?", userID)

	result, err := pagination.Find[models.CreditCard](query, page, "name ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &result, nil
}

// GetCreditCardByID retrieves a credit card owned by the user.
func (s *creditCardService) GetCreditCardByID(userID, cardID string) (*models.CreditCard, error) {
	var card models.CreditCard
	if err := s.db.Where("id = ? AND user_id = ?", cardID, userID).First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCreditCardNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &card, nil
}

// UpdateCreditCard updates a credit card
func (s *creditCardService) UpdateCreditCard(userID, cardID string, in CreditCardUpdate) (*models.CreditCard, error) {
	card, err := s.GetCreditCardByID(userID, cardID)
	if err != nil {
		return nil, err
	}
	if err := validateCardDays(in.PaymentDueDay, in.StatementClosingDay); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if in.Name != nil && *in.Name != "" {
		updates["name"] = *in.Name
	}
	if in.LastFour != nil {
		updates["last_four"] = *in.LastFour
	}
	if in.Issuer != nil {
		updates["issuer"] = *in.Issuer
	}
	if in.CreditLimit != nil {
		if *in.CreditLimit < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "credit limit cannot be negative")
		}
		updates["credit_limit"] = *in.CreditLimit
	}
	if in.CurrentBalance != nil {
		if *in.CurrentBalance < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "balance cannot be negative")
		}
		updates["current_balance"] = *in.CurrentBalance
	}
	if in.APR != nil {
		updates["apr"] = *in.APR
	}
	if in.PaymentDueDay != nil {
		updates["payment_due_day"] = *in.PaymentDueDay
	}
	if in.StatementClosingDay != nil {
		updates["statement_closing_day"] = *in.StatementClosingDay
	}
	if in.Color != nil {
		updates["color"] = *in.Color
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(card).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.GetCreditCardByID(userID, cardID)
}

// DeleteCreditCard soft-deletes a credit card.
func (s *creditCardService) DeleteCreditCard(userID, cardID string) error {
	card, err := s.GetCreditCardByID(userID, cardID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(card).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetCreditCardSummary totals balances and limits across active cards.
func (s *creditCardService) GetCreditCardSummary(userID string) (*CreditCardSummary, error) {
	var row struct {
		TotalUsed  int64
		TotalLimit int64
		CardCount  int
	}
	if err := s.db.Model(&models.CreditCard{}).
		Select("COALESCE(SUM(current_balance), 0) AS total_used, COALESCE(SUM(credit_limit), 0) AS total_limit, COUNT(*) AS card_count").
		Where("user_id = ? AND is_active = ?", userID, true).
		Scan(&row).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	utilization := money.Percent(row.TotalUsed, row.TotalLimit)
	return &CreditCardSummary{
		TotalUsed:       row.TotalUsed,
		TotalLimit:      row.TotalLimit,
		Utilization:     utilization,
		HighUtilization: utilization > models.HighUtilizationThreshold,
		CardCount:       row.CardCount,
	}, nil
}
