package services

import (
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/money"
	"moneta/internal/pagination"
	"moneta/internal/schedule"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db    *gorm.DB
	clock Clock
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, clock Clock) BudgetServicer {
	return &budgetService{db: db, clock: clock}
}

// CreateBudget creates a new budget. A nil category tracks all expenses.
func (s *budgetService) CreateBudget(
	userID string,
	categoryID *string,
	name string,
	amount int64,
	period models.BudgetPeriod,
	startDate time.Time,
	endDate *time.Time,
	alertPercentage int,
) (*models.Budget, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if categoryID != nil {
		category, err := findCategory(s.db, userID, *categoryID)
		if err != nil {
			return nil, err
		}
		if category.Type != models.CategoryTypeExpense {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budgets can only track expense categories")
		}
	}
	if startDate.IsZero() {
		startDate = s.clock.Today()
	}
	start := schedule.Date(startDate)
	end := datePtr(endDate)
	if end != nil && end.Before(start) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "end date cannot be before start date")
	}
	if alertPercentage == 0 {
		alertPercentage = 80
	}

	budget := &models.Budget{
		UserID:          userID,
		CategoryID:      categoryID,
		Name:            name,
		Amount:          amount,
		Period:          period,
		StartDate:       start,
		EndDate:         end,
		AlertPercentage: alertPercentage,
		IsActive:        true,
	}

	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return budget, nil
}

// GetUserBudgets returns a paginated list of budgets for the user with optional filters.
func (s *budgetService) GetUserBudgets(
	userID string,
	page pagination.PageRequest,
	isActive *bool,
	period *models.BudgetPeriod,
) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)
	if isActive != nil {
		base = base.Where("is_active = ?", *isActive)
	}
	if period != nil {
		base = base.Where("period = ?", *period)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Preload("Category").Order("name ASC").Scopes(pagination.Paginate(page)).Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget updates an existing budget's fields.
func (s *budgetService) UpdateBudget(userID, budgetID string, in BudgetUpdate) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if in.Name != nil && *in.Name != "" {
		updates["name"] = *in.Name
	}
	if in.Amount != nil {
		if *in.Amount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		updates["amount"] = *in.Amount
	}
	if in.Period != nil {
		updates["period"] = *in.Period
	}
	if in.EndDate != nil {
		end := schedule.Date(*in.EndDate)
		if end.Before(budget.StartDate) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "end date cannot be before start date")
		}
		updates["end_date"] = end
	}
	if in.AlertPercentage != nil {
		updates["alert_percentage"] = *in.AlertPercentage
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(budget).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.GetBudgetByID(userID, budgetID)
}

// DeleteBudget soft-deletes a budget.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetBudgetProgress calculates spending vs budget for the current period.
func (s *budgetService) GetBudgetProgress(userID, budgetID string) (*BudgetProgress, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}
	return s.progress(budget)
}

// ListBudgetProgress returns progress for every active budget, highest
// percentage first.
func (s *budgetService) ListBudgetProgress(userID string) ([]BudgetProgress, error) {
	var budgets []models.Budget
	if err := s.db.Where("user_id = ? AND is_active = ?", userID, true).Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	out := make([]BudgetProgress, 0, len(budgets))
	for i := range budgets {
		p, err := s.progress(&budgets[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Percentage > out[j].Percentage })
	return out, nil
}

// progress sums completed expenses in the budget's current period.
func (s *budgetService) progress(budget *models.Budget) (*BudgetProgress, error) {
	periodStart, periodEnd := budgetPeriod(budget.Period, s.clock.Today())

	q := s.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND type = ? AND status = ? AND date BETWEEN ? AND ?",
			budget.UserID, models.TransactionTypeExpense, models.TransactionStatusCompleted, periodStart, periodEnd)
	if budget.CategoryID != nil {
		q = q.Where("category_id = ?", *budget.CategoryID)
	}

	var spent int64
	if err := q.Scan(&spent).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	percentage := money.Percent(spent, budget.Amount)
	return &BudgetProgress{
		BudgetID:    budget.ID,
		Name:        budget.Name,
		Budgeted:    budget.Amount,
		Spent:       spent,
		Remaining:   budget.Amount - spent,
		Percentage:  percentage,
		AlertHit:    percentage >= float64(budget.AlertPercentage),
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	}, nil
}

// budgetPeriod returns the first and last day of the period containing today.
func budgetPeriod(period models.BudgetPeriod, today time.Time) (time.Time, time.Time) {
	if period == models.BudgetPeriodYearly {
		start := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, -1)
	}
	start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}
