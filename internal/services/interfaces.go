package services

//go:generate mockgen -destination=mocks/mock_services.go -package=mock_services moneta/internal/services RecurringServicer,ReportServicer

import (
	"context"
	"time"

	"gorm.io/gorm"

	"moneta/internal/models"
	"moneta/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// AccountUpdateFields holds the optional fields of an account update.
type AccountUpdateFields struct {
	Name        *string
	Institution *string
	Color       *string
	IsActive    *bool
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(userID, name string, accountType models.AccountType, currency, institution, color string, initialBalance int64) (*models.Account, error)
	GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(userID, accountID string) (*models.Account, error)
	UpdateAccount(userID, accountID string, fields AccountUpdateFields) (*models.Account, error)
	DeactivateAccount(userID, accountID string) error
	UpdateAccountBalance(tx *gorm.DB, account *models.Account, transactionType models.TransactionType, amount int64) error
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, name string, categoryType models.CategoryType, color, icon string) (*models.Category, error)
	GetUserCategories(userID string, categoryType *models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID string, name, color, icon *string) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	Status     *models.TransactionStatus
	CategoryID *string
	AccountID  *string
	MinAmount  *int64
	MaxAmount  *int64
}

// TransactionInput carries the fields of a new transaction.
type TransactionInput struct {
	AccountID   *string
	CategoryID  *string
	Type        models.TransactionType
	Status      models.TransactionStatus
	Amount      int64
	Description string
	Payee       string
	Notes       string
	Date        time.Time
}

// TransactionUpdate holds the optional fields of a transaction update.
// Clearing the account or category is done with the Clear flags.
type TransactionUpdate struct {
	AccountID     *string
	ClearAccount  bool
	CategoryID    *string
	ClearCategory bool
	Type          *models.TransactionType
	Status        *models.TransactionStatus
	Amount        *int64
	Description   *string
	Payee         *string
	Notes         *string
	Date          *time.Time
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID string, in TransactionInput) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, in TransactionUpdate) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
}

// RecurringInput carries the fields of a new recurring template.
type RecurringInput struct {
	Description string
	Amount      int64
	Type        models.TransactionType
	AccountID   *string
	CategoryID  *string
	Frequency   models.Frequency
	StartDate   time.Time
	EndDate     *time.Time
	AutoCreate  bool
}

// RecurringUpdate holds the optional fields of a recurring template update.
// NextOccurrence is deliberately absent: only the advancer moves it.
type RecurringUpdate struct {
	Description *string
	Amount      *int64
	Type        *models.TransactionType
	AccountID   *string
	CategoryID  *string
	Frequency   *models.Frequency
	StartDate   *time.Time
	EndDate     *time.Time
	ClearEnd    bool
	AutoCreate  *bool
	IsActive    *bool
}

// UpcomingOccurrence is a scheduled, not yet materialized, occurrence.
type UpcomingOccurrence struct {
	RecurringID string                 `json:"recurring_id"`
	Description string                 `json:"description"`
	Amount      int64                  `json:"amount"`
	Type        models.TransactionType `json:"type"`
	Frequency   models.Frequency       `json:"frequency"`
	Date        time.Time              `json:"date"`
}

// RecurringServicer defines the contract for recurring templates and the
// occurrence advancer.
type RecurringServicer interface {
	CreateRecurring(ctx context.Context, userID string, in RecurringInput) (*models.RecurringTransaction, error)
	GetUserRecurring(ctx context.Context, userID string, page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[models.RecurringTransaction], error)
	GetRecurringByID(ctx context.Context, userID, recurringID string) (*models.RecurringTransaction, error)
	UpdateRecurring(ctx context.Context, userID, recurringID string, in RecurringUpdate) (*models.RecurringTransaction, error)
	DeleteRecurring(ctx context.Context, userID, recurringID string) error
	GetUpcoming(ctx context.Context, userID string, limit int) ([]UpcomingOccurrence, error)
	GetActiveRecurring(ctx context.Context, userID string) ([]models.RecurringTransaction, error)
	Advance(ctx context.Context, userID string) (*AdvanceResult, error)
	AdvanceAll(ctx context.Context) (*AdvanceResult, error)
}

// LoanInput carries the fields of a new loan.
type LoanInput struct {
	Name             string
	Type             models.LoanType
	OriginalAmount   int64
	CurrentBalance   *int64
	InterestRate     float64
	PaymentAmount    int64
	PaymentFrequency models.Frequency
	StartDate        time.Time
	EndDate          *time.Time
	NextPaymentDate  *time.Time
	Lender           string
	Color            string
}

// LoanUpdate holds the optional fields of a loan update. Amounts owed are
// changed only by recording payments.
type LoanUpdate struct {
	Name             *string
	Type             *models.LoanType
	InterestRate     *float64
	PaymentAmount    *int64
	PaymentFrequency *models.Frequency
	EndDate          *time.Time
	NextPaymentDate  *time.Time
	Lender           *string
	Color            *string
	Status           *models.LoanStatus
}

// PaymentInput carries a loan payment. PaymentDate defaults to today.
type PaymentInput struct {
	Amount          int64
	PrincipalAmount int64
	InterestAmount  int64
	PaymentDate     *time.Time
	AccountID       *string
	Notes           string
	IdempotencyKey  string
}

// LoanSummary aggregates a user's active loans.
type LoanSummary struct {
	TotalOriginal   int64   `json:"total_original"`
	TotalRemaining  int64   `json:"total_remaining"`
	TotalPaid       int64   `json:"total_paid"`
	ProgressPercent float64 `json:"progress_percent"`
	ActiveLoans     int     `json:"active_loans"`
}

// LoanServicer defines the contract for loans and the payment ledger.
type LoanServicer interface {
	CreateLoan(ctx context.Context, userID string, in LoanInput) (*models.Loan, error)
	GetUserLoans(ctx context.Context, userID string, page pagination.PageRequest, status *models.LoanStatus) (*pagination.PageResponse[models.Loan], error)
	GetLoanByID(ctx context.Context, userID, loanID string) (*models.Loan, error)
	UpdateLoan(ctx context.Context, userID, loanID string, in LoanUpdate) (*models.Loan, error)
	DeleteLoan(ctx context.Context, userID, loanID string) error
	GetLoanSummary(ctx context.Context, userID string) (*LoanSummary, error)
	RecordPayment(ctx context.Context, userID, loanID string, in PaymentInput) (*models.LoanPayment, error)
	GetLoanPayments(ctx context.Context, userID, loanID string, page pagination.PageRequest) (*pagination.PageResponse[models.LoanPayment], error)
}

// CreditCardInput carries the fields of a new credit card.
type CreditCardInput struct {
	Name                string
	LastFour            string
	Issuer              string
	CreditLimit         int64
	CurrentBalance      int64
	APR                 *float64
	PaymentDueDay       *int
	StatementClosingDay *int
	Color               string
}

// CreditCardUpdate holds the optional fields of a credit card update.
type CreditCardUpdate struct {
	Name                *string
	LastFour            *string
	Issuer              *string
	CreditLimit         *int64
	CurrentBalance      *int64
	APR                 *float64
	PaymentDueDay       *int
	StatementClosingDay *int
	Color               *string
	IsActive            *bool
}

// CreditCardSummary aggregates a user's active cards.
type CreditCardSummary struct {
	TotalUsed       int64   `json:"total_used"`
	TotalLimit      int64   `json:"total_limit"`
	Utilization     float64 `json:"utilization"`
	HighUtilization bool    `json:"high_utilization"`
	CardCount       int     `json:"card_count"`
}

// CreditCardServicer defines the contract for credit card business logic.
type CreditCardServicer interface {
	CreateCreditCard(userID string, in CreditCardInput) (*models.CreditCard, error)
	GetUserCreditCards(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.CreditCard], error)
	GetCreditCardByID(userID, cardID string) (*models.CreditCard, error)
	UpdateCreditCard(userID, cardID string, in CreditCardUpdate) (*models.CreditCard, error)
	DeleteCreditCard(userID, cardID string) error
	GetCreditCardSummary(userID string) (*CreditCardSummary, error)
}

// BudgetProgress contains spending vs budget data for a budget's current period.
type BudgetProgress struct {
	BudgetID    string    `json:"budget_id"`
	Name        string    `json:"name"`
	Budgeted    int64     `json:"budgeted"`
	Spent       int64     `json:"spent"`
	Remaining   int64     `json:"remaining"`
	Percentage  float64   `json:"percentage"`
	AlertHit    bool      `json:"alert_hit"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
}

// BudgetUpdate holds the optional fields of a budget update.
type BudgetUpdate struct {
	Name            *string
	Amount          *int64
	Period          *models.BudgetPeriod
	EndDate         *time.Time
	AlertPercentage *int
	IsActive        *bool
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID string, categoryID *string, name string, amount int64, period models.BudgetPeriod, startDate time.Time, endDate *time.Time, alertPercentage int) (*models.Budget, error)
	GetUserBudgets(userID string, page pagination.PageRequest, isActive *bool, period *models.BudgetPeriod) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	UpdateBudget(userID, budgetID string, in BudgetUpdate) (*models.Budget, error)
	DeleteBudget(userID, budgetID string) error
	GetBudgetProgress(userID, budgetID string) (*BudgetProgress, error)
	ListBudgetProgress(userID string) ([]BudgetProgress, error)
}

// ReportServicer defines the contract for dashboard and reporting aggregates.
type ReportServicer interface {
	GetDashboardSummary(ctx context.Context, userID string) (*DashboardSummary, error)
	GetMonthlyTrends(ctx context.Context, userID string, months int) ([]MonthlyTrend, error)
	GetSpendingByCategory(ctx context.Context, userID string, from, to time.Time) ([]CategorySpending, error)
	GetNetWorth(ctx context.Context, userID string) (*NetWorthReport, error)
	RecordSnapshots(ctx context.Context, recordedAt time.Time) (int, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
