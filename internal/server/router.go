// Package server assembles the HTTP API: services, handlers, middleware and routes.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "moneta/internal/docs" // swagger docs
	"moneta/internal/handlers"
	"moneta/internal/middleware"
	"moneta/internal/services"
)

// Services bundles the business services behind the API.
type Services struct {
	User        services.UserServicer
	Account     services.AccountServicer
	Category    services.CategoryServicer
	Transaction services.TransactionServicer
	Recurring   services.RecurringServicer
	Loan        services.LoanServicer
	CreditCard  services.CreditCardServicer
	Budget      services.BudgetServicer
	Report      services.ReportServicer
	Audit       services.AuditServicer
}

// NewServices wires every service over db. opts.Clock is shared so that all
// of them agree on what "today" is.
func NewServices(db *gorm.DB, opts services.RecurringOptions) *Services {
	accountService := services.NewAccountService(db)
	recurringService := services.NewRecurringService(db, accountService, opts)
	budgetService := services.NewBudgetService(db, opts.Clock)

	return &Services{
		User:        services.NewUserService(db),
		Account:     accountService,
		Category:    services.NewCategoryService(db),
		Transaction: services.NewTransactionService(db, accountService, opts.Clock),
		Recurring:   recurringService,
		Loan:        services.NewLoanService(db, accountService, opts.Clock),
		CreditCard:  services.NewCreditCardService(db),
		Budget:      budgetService,
		Report:      services.NewReportService(db, recurringService, budgetService, opts.Clock),
		Audit:       services.NewAuditService(db),
	}
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the router.
type Options struct {
	PipelineAPIKey string
	AdvanceTimeout time.Duration
	Health         Pinger
}

// NewRouter builds the Gin engine serving /api/v1.
func NewRouter(svc *Services, opts Options) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.User, svc.Audit)
	accountHandler := handlers.NewAccountHandler(svc.Account, svc.Audit)
	categoryHandler := handlers.NewCategoryHandler(svc.Category, svc.Audit)
	transactionHandler := handlers.NewTransactionHandler(svc.Transaction, svc.Audit)
	recurringHandler := handlers.NewRecurringHandler(svc.Recurring, svc.Audit, opts.AdvanceTimeout)
	loanHandler := handlers.NewLoanHandler(svc.Loan, svc.Audit)
	creditCardHandler := handlers.NewCreditCardHandler(svc.CreditCard, svc.Audit)
	budgetHandler := handlers.NewBudgetHandler(svc.Budget, svc.Audit)
	reportHandler := handlers.NewReportHandler(svc.Report, svc.Recurring, opts.AdvanceTimeout)
	pipelineHandler := handlers.NewPipelineHandler(svc.Recurring, svc.Report)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.Tracing())
	router.Use(middleware.ErrorHandler())
	router.Use(cors())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/api/health", health(opts.Health))

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(opts.PipelineAPIKey))
	pipeline.POST("/recurring/advance", pipelineHandler.AdvanceAll)
	pipeline.POST("/snapshots", pipelineHandler.RecordSnapshots)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.GET("/dashboard", reportHandler.GetDashboard)

	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetUserAccounts)
	accounts.GET("/:id", accountHandler.GetAccountByID)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeactivateAccount)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetUserCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	recurring := protected.Group("/recurring")
	recurring.POST("", recurringHandler.CreateRecurring)
	recurring.GET("", recurringHandler.GetUserRecurring)
	recurring.GET("/upcoming", recurringHandler.GetUpcoming)
	recurring.POST("/advance", recurringHandler.Advance)
	recurring.GET("/:id", recurringHandler.GetRecurringByID)
	recurring.PUT("/:id", recurringHandler.UpdateRecurring)
	recurring.DELETE("/:id", recurringHandler.DeleteRecurring)

	loans := protected.Group("/loans")
	loans.POST("", loanHandler.CreateLoan)
	loans.GET("", loanHandler.GetUserLoans)
	loans.GET("/summary", loanHandler.GetLoanSummary)
	loans.GET("/:id", loanHandler.GetLoanByID)
	loans.PUT("/:id", loanHandler.UpdateLoan)
	loans.DELETE("/:id", loanHandler.DeleteLoan)
	loans.POST("/:id/payments", loanHandler.RecordPayment)
	loans.GET("/:id/payments", loanHandler.GetLoanPayments)

	cards := protected.Group("/credit-cards")
	cards.POST("", creditCardHandler.CreateCreditCard)
	cards.GET("", creditCardHandler.GetUserCreditCards)
	cards.GET("/summary", creditCardHandler.GetCreditCardSummary)
	cards.GET("/:id", creditCardHandler.GetCreditCardByID)
	cards.PUT("/:id", creditCardHandler.UpdateCreditCard)
	cards.DELETE("/:id", creditCardHandler.DeleteCreditCard)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/progress", budgetHandler.ListBudgetProgress)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)
	budgets.GET("/:id/progress", budgetHandler.GetBudgetProgress)

	reports := protected.Group("/reports")
	reports.GET("/trends", reportHandler.GetMonthlyTrends)
	reports.GET("/spending", reportHandler.GetSpendingByCategory)
	reports.GET("/net-worth", reportHandler.GetNetWorth)

	return router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Idempotency-Key, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func health(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
