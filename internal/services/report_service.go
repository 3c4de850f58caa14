package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/money"
	"moneta/internal/schedule"
)

var reportTracer = otel.Tracer("moneta/reports")

const (
	defaultTrendMonths = 6
	maxTrendMonths     = 24
	topSpendingSlices  = 8
	dashboardListSize  = 5
	uncategorizedLabel = "Uncategorized"
)

// DashboardSummary is the landing-page aggregate for one user.
type DashboardSummary struct {
	TotalBalance      int64                `json:"total_balance"`
	AccountCount      int                  `json:"account_count"`
	CreditUsed        int64                `json:"credit_used"`
	CreditLimit       int64                `json:"credit_limit"`
	CreditUtilization float64              `json:"credit_utilization"`
	MonthlyIncome     int64                `json:"monthly_income"`
	MonthlyExpenses   int64                `json:"monthly_expenses"`
	MonthlyNet        int64                `json:"monthly_net"`
	ProjectedIncome   int64                `json:"projected_income"`
	ProjectedExpenses int64                `json:"projected_expenses"`
	Upcoming          []UpcomingOccurrence `json:"upcoming"`
	RecentActivity    []models.Transaction `json:"recent_transactions"`
	Budgets           []BudgetProgress     `json:"budgets"`
}

// MonthlyTrend is the completed income and expense total of one calendar month.
type MonthlyTrend struct {
	Month    string `json:"month"`
	Income   int64  `json:"income"`
	Expenses int64  `json:"expenses"`
	Net      int64  `json:"net"`
}

// CategorySpending is one slice of the spending breakdown.
type CategorySpending struct {
	Category   string  `json:"category"`
	Amount     int64   `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// NetWorthPoint is the last recorded snapshot of a month.
type NetWorthPoint struct {
	Month      string    `json:"month"`
	RecordedAt time.Time `json:"recorded_at"`
	NetWorth   int64     `json:"net_worth"`
}

// NetWorthReport is the current net worth and its monthly history.
type NetWorthReport struct {
	Assets         int64           `json:"assets"`
	CreditCardDebt int64           `json:"credit_card_debt"`
	LoanDebt       int64           `json:"loan_debt"`
	NetWorth       int64           `json:"net_worth"`
	History        []NetWorthPoint `json:"history"`
}

// reportService computes display aggregates and records net worth snapshots.
type reportService struct {
	db               *gorm.DB
	recurringService RecurringServicer
	budgetService    BudgetServicer
	clock            Clock
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB, recurringService RecurringServicer, budgetService BudgetServicer, clock Clock) ReportServicer {
	return &reportService{
		db:               db,
		recurringService: recurringService,
		budgetService:    budgetService,
		clock:            clock,
	}
}

// GetDashboardSummary gathers balances, this month's cash flow, recurring
// projections and the short lists shown on the dashboard.
func (s *reportService) GetDashboardSummary(ctx context.Context, userID string) (*DashboardSummary, error) {
	ctx, span := reportTracer.Start(ctx, "reports.Dashboard",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	summary, err := s.dashboard(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dashboard")
		return nil, err
	}
	return summary, nil
}

func (s *reportService) dashboard(ctx context.Context, userID string) (*DashboardSummary, error) {
	db := s.db.WithContext(ctx)
	summary := &DashboardSummary{}

	var accounts struct {
		Total int64
		Count int
	}
	if err := db.Model(&models.Account{}).
		Select("COALESCE(SUM(balance), 0) AS total, COUNT(*) AS count").
		Where("user_id = ? AND is_active = ?", userID, true).
		Scan(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	summary.TotalBalance = accounts.Total
	summary.AccountCount = accounts.Count

	var cards struct {
		Used        int64
		CreditLimit int64
	}
	if err := db.Model(&models.CreditCard{}).
		Select("COALESCE(SUM(current_balance), 0) AS used, COALESCE(SUM(credit_limit), 0) AS credit_limit").
		Where("user_id = ? AND is_active = ?", userID, true).
		Scan(&cards).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	summary.CreditUsed = cards.Used
	summary.CreditLimit = cards.CreditLimit
	summary.CreditUtilization = money.Percent(cards.Used, cards.CreditLimit)

	today := s.clock.Today()
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	income, expenses, err := s.cashFlow(db, userID, monthStart, monthStart.AddDate(0, 1, -1))
	if err != nil {
		return nil, err
	}
	summary.MonthlyIncome = income
	summary.MonthlyExpenses = expenses
	summary.MonthlyNet = income - expenses

	templates, err := s.recurringService.GetActiveRecurring(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range templates {
		num, den, ok := schedule.MonthlyFactor(templates[i].Frequency)
		if !ok {
			continue
		}
		projected := money.Scale(templates[i].Amount, num, den)
		if templates[i].Type == models.TransactionTypeIncome {
			summary.ProjectedIncome += projected
		} else {
			summary.ProjectedExpenses += projected
		}
	}

	if summary.Upcoming, err = s.recurringService.GetUpcoming(ctx, userID, dashboardListSize); err != nil {
		return nil, err
	}

	summary.RecentActivity = []models.Transaction{}
	if err := db.Preload("Category").Preload("Account").
		Where("user_id = ?", userID).
		Order("date DESC, created_at DESC").
		Limit(dashboardListSize).
		Find(&summary.RecentActivity).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	budgets, err := s.budgetService.ListBudgetProgress(userID)
	if err != nil {
		return nil, err
	}
	if len(budgets) > dashboardListSize {
		budgets = budgets[:dashboardListSize]
	}
	summary.Budgets = budgets

	return summary, nil
}

// cashFlow sums completed income and expenses dated within [from, to].
func (s *reportService) cashFlow(db *gorm.DB, userID string, from, to time.Time) (income, expenses int64, err error) {
	var rows []struct {
		Type  models.TransactionType
		Total int64
	}
	if err := db.Model(&models.Transaction{}).
		Select("type, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND status = ? AND date BETWEEN ? AND ?", userID, models.TransactionStatusCompleted, from, to).
		Group("type").
		Scan(&rows).Error; err != nil {
		return 0, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, r := range rows {
		switch r.Type {
		case models.TransactionTypeIncome:
			income = r.Total
		case models.TransactionTypeExpense:
			expenses = r.Total
		}
	}
	return income, expenses, nil
}

// GetMonthlyTrends returns one entry per calendar month, oldest first, ending
// with the current month.
func (s *reportService) GetMonthlyTrends(ctx context.Context, userID string, months int) ([]MonthlyTrend, error) {
	if months <= 0 {
		months = defaultTrendMonths
	}
	if months > maxTrendMonths {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "months cannot exceed 24")
	}
	ctx, span := reportTracer.Start(ctx, "reports.MonthlyTrends",
		trace.WithAttributes(attribute.Int("report.months", months)))
	defer span.End()

	today := s.clock.Today()
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	last := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)

	trends := make([]MonthlyTrend, months)
	index := make(map[string]int, months)
	for i := range trends {
		key := first.AddDate(0, i, 0).Format("2006-01")
		trends[i].Month = key
		index[key] = i
	}

	var txns []models.Transaction
	if err := s.db.WithContext(ctx).
		Select("type", "amount", "date").
		Where("user_id = ? AND status = ? AND date BETWEEN ? AND ?", userID, models.TransactionStatusCompleted, first, last).
		Find(&txns).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load transactions")
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range txns {
		idx, ok := index[txns[i].Date.UTC().Format("2006-01")]
		if !ok {
			continue
		}
		if txns[i].Type == models.TransactionTypeIncome {
			trends[idx].Income += txns[i].Amount
		} else {
			trends[idx].Expenses += txns[i].Amount
		}
	}
	for i := range trends {
		trends[i].Net = trends[i].Income - trends[i].Expenses
	}
	return trends, nil
}

// GetSpendingByCategory groups completed expenses in [from, to] by category
// name, largest first. A zero from defaults to one month before today and a
// zero to defaults to today.
func (s *reportService) GetSpendingByCategory(ctx context.Context, userID string, from, to time.Time) ([]CategorySpending, error) {
	today := s.clock.Today()
	if to.IsZero() {
		to = today
	}
	if from.IsZero() {
		from = today.AddDate(0, -1, 0)
	}
	from, to = schedule.Date(from), schedule.Date(to)
	if to.Before(from) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "end date cannot be before start date")
	}

	ctx, span := reportTracer.Start(ctx, "reports.SpendingByCategory")
	defer span.End()

	var rows []struct {
		Category string
		Amount   int64
	}
	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("COALESCE(categories.name, ?) AS category, SUM(transactions.amount) AS amount", uncategorizedLabel).
		Joins("LEFT JOIN categories ON categories.id = transactions.category_id").
		Where("transactions.user_id = ? AND transactions.type = ? AND transactions.status = ? AND transactions.date BETWEEN ? AND ?",
			userID, models.TransactionTypeExpense, models.TransactionStatusCompleted, from, to).
		Group("categories.name").
		Order("amount DESC").
		Scan(&rows).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "group spending")
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var total int64
	for _, r := range rows {
		total += r.Amount
	}
	if len(rows) > topSpendingSlices {
		rows = rows[:topSpendingSlices]
	}

	out := make([]CategorySpending, 0, len(rows))
	for _, r := range rows {
		out = append(out, CategorySpending{
			Category:   r.Category,
			Amount:     r.Amount,
			Percentage: money.Percent(r.Amount, total),
		})
	}
	return out, nil
}

// GetNetWorth returns the user's current net worth and the last recorded
// snapshot of every month.
func (s *reportService) GetNetWorth(ctx context.Context, userID string) (*NetWorthReport, error) {
	ctx, span := reportTracer.Start(ctx, "reports.NetWorth",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	current, err := s.computeSnapshot(s.db.WithContext(ctx), userID, time.Time{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "compute net worth")
		return nil, err
	}

	var snapshots []models.NetWorthSnapshot
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("recorded_at ASC").
		Find(&snapshots).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	history := make([]NetWorthPoint, 0, len(snapshots))
	for i := range snapshots {
		month := snapshots[i].RecordedAt.UTC().Format("2006-01")
		point := NetWorthPoint{Month: month, RecordedAt: snapshots[i].RecordedAt, NetWorth: snapshots[i].TotalNetWorth}
		if n := len(history); n > 0 && history[n-1].Month == month {
			history[n-1] = point
			continue
		}
		history = append(history, point)
	}

	return &NetWorthReport{
		Assets:         current.Assets,
		CreditCardDebt: current.CreditCardDebt,
		LoanDebt:       current.LoanDebt,
		NetWorth:       current.TotalNetWorth,
		History:        history,
	}, nil
}

// RecordSnapshots computes and stores a net worth snapshot for every user
// with an active account, card or loan. A second call with the same
// recordedAt overwrites the earlier snapshot.
func (s *reportService) RecordSnapshots(ctx context.Context, recordedAt time.Time) (int, error) {
	ctx, span := reportTracer.Start(ctx, "reports.RecordSnapshots")
	defer span.End()
	db := s.db.WithContext(ctx)

	userIDs, err := s.snapshotUsers(db)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load users")
		return 0, err
	}

	count := 0
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return count, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		snapshot, err := s.computeSnapshot(db, userID, recordedAt)
		if err != nil {
			return count, err
		}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "recorded_at"}},
			DoUpdates: clause.AssignmentColumns([]string{"total_net_worth", "assets", "credit_card_debt", "loan_debt"}),
		}).Create(snapshot).Error; err != nil {
			return count, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		count++
	}

	span.SetAttributes(attribute.Int("reports.snapshots", count))
	return count, nil
}

func (s *reportService) snapshotUsers(db *gorm.DB) ([]string, error) {
	seen := make(map[string]bool)
	var userIDs []string
	sources := []struct {
		model interface{}
		where string
		arg   interface{}
	}{
		{&models.Account{}, "is_active = ?", true},
		{&models.CreditCard{}, "is_active = ?", true},
		{&models.Loan{}, "status = ?", models.LoanStatusActive},
	}
	for _, src := range sources {
		var ids []string
		if err := db.Model(src.model).Where(src.where, src.arg).Distinct("user_id").Pluck("user_id", &ids).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				userIDs = append(userIDs, id)
			}
		}
	}
	return userIDs, nil
}

// computeSnapshot calculates assets minus card and active loan debt.
func (s *reportService) computeSnapshot(db *gorm.DB, userID string, recordedAt time.Time) (*models.NetWorthSnapshot, error) {
	var assets, cardDebt, loanDebt int64
	sums := []struct {
		model  interface{}
		column string
		where  string
		arg    interface{}
		dest   *int64
	}{
		{&models.Account{}, "balance", "is_active = ?", true, &assets},
		{&models.CreditCard{}, "current_balance", "is_active = ?", true, &cardDebt},
		{&models.Loan{}, "current_balance", "status = ?", models.LoanStatusActive, &loanDebt},
	}
	for _, sum := range sums {
		if err := db.Model(sum.model).
			Select("COALESCE(SUM("+sum.column+"), 0)").
			Where("user_id = ?", userID).
			Where(sum.where, sum.arg).
			Scan(sum.dest).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return &models.NetWorthSnapshot{
		UserID:         userID,
		RecordedAt:     recordedAt,
		TotalNetWorth:  assets - cardDebt - loanDebt,
		Assets:         assets,
		CreditCardDebt: cardDebt,
		LoanDebt:       loanDebt,
	}, nil
}
