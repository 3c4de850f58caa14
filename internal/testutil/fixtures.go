package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"moneta/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Date returns midnight UTC for the given calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAccount creates a checking account with the given balance (in cents).
func CreateTestAccount(t *testing.T, db *gorm.DB, userID string, balance int64) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:   userID,
		Name:     fmt.Sprintf("Test Account %d", nextID()),
		Type:     models.AccountTypeChecking,
		Balance:  balance,
		Currency: "USD",
		IsActive: true,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestCategory creates a category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Type:   categoryType,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction creates a completed transaction dated on date. The
// account balance is not adjusted.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID string, accountID *string, txType models.TransactionType, amount int64, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:      userID,
		AccountID:   accountID,
		Type:        txType,
		Amount:      amount,
		Description: fmt.Sprintf("Test Transaction %d", nextID()),
		Date:        date,
		Status:      models.TransactionStatusCompleted,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestRecurring creates an active recurring template whose next
// occurrence equals its start date.
func CreateTestRecurring(t *testing.T, db *gorm.DB, userID string, freq models.Frequency, start time.Time, autoCreate bool) *models.RecurringTransaction {
	t.Helper()

	rt := &models.RecurringTransaction{
		UserID:         userID,
		Description:    fmt.Sprintf("Test Recurring %d", nextID()),
		Amount:         10000, // $100.00
		Type:           models.TransactionTypeExpense,
		Frequency:      freq,
		StartDate:      start,
		NextOccurrence: start,
		AutoCreate:     autoCreate,
		IsActive:       true,
	}
	if err := db.Create(rt).Error; err != nil {
		t.Fatalf("failed to create test recurring transaction: %v", err)
	}
	return rt
}

// CreateTestLoan creates an active loan with the given original and current balance.
func CreateTestLoan(t *testing.T, db *gorm.DB, userID string, original, balance int64) *models.Loan {
	t.Helper()

	loan := &models.Loan{
		UserID:           userID,
		Name:             fmt.Sprintf("Test Loan %d", nextID()),
		Type:             models.LoanTypePersonal,
		OriginalAmount:   original,
		CurrentBalance:   balance,
		InterestRate:     5.5,
		PaymentAmount:    25000,
		PaymentFrequency: models.FrequencyMonthly,
		StartDate:        Date(2024, time.January, 1),
		Status:           models.LoanStatusActive,
	}
	if err := db.Create(loan).Error; err != nil {
		t.Fatalf("failed to create test loan: %v", err)
	}
	return loan
}

// CreateTestCreditCard creates an active credit card.
func CreateTestCreditCard(t *testing.T, db *gorm.DB, userID string, limit, balance int64) *models.CreditCard {
	t.Helper()

	card := &models.CreditCard{
		UserID:         userID,
		Name:           fmt.Sprintf("Test Card %d", nextID()),
		LastFour:       "4242",
		CreditLimit:    limit,
		CurrentBalance: balance,
		IsActive:       true,
	}
	if err := db.Create(card).Error; err != nil {
		t.Fatalf("failed to create test credit card: %v", err)
	}
	return card
}

// CreateTestBudget creates a monthly budget for the given category.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID string, categoryID *string) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:          userID,
		CategoryID:      categoryID,
		Name:            fmt.Sprintf("Test Budget %d", nextID()),
		Amount:          10000, // $100.00
		Period:          models.BudgetPeriodMonthly,
		StartDate:       Date(2024, time.January, 1),
		AlertPercentage: 80,
		IsActive:        true,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}
