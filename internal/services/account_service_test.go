package services

import (
	"testing"

	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/testutil"
)

const missingID = "0190a1b2-0000-7000-8000-000000000000"

func TestCreateAccount(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		account, err := svc.CreateAccount(user.ID, "Savings", models.AccountTypeSavings, "EUR", "Big Bank", "#22c55e", 0)
		testutil.AssertNoError(t, err)

		if account.ID == "" {
			t.Fatal("expected account ID to be set")
		}
		if account.Name != "Savings" {
			t.Errorf("expected name Savings, got %s", account.Name)
		}
		if account.Type != models.AccountTypeSavings {
			t.Errorf("expected type savings, got %s", account.Type)
		}
		if account.Currency != "EUR" {
			t.Errorf("expected currency EUR, got %s", account.Currency)
		}
		if !account.IsActive {
			t.Error("expected account to be active")
		}
	})

	t.Run("opening_balance_without_transaction", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		account, err := svc.CreateAccount(user.ID, "Checking", "", "", "", "", 500000)
		testutil.AssertNoError(t, err)

		if account.Balance != 500000 {
			t.Errorf("expected balance 500000, got %d", account.Balance)
		}

		var txCount int64
		db.Model(&models.Transaction{}).Where("account_id = ?", account.ID).Count(&txCount)
		if txCount != 0 {
			t.Errorf("expected no transactions for an opening balance, got %d", txCount)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		account, err := svc.CreateAccount(user.ID, "Wallet", "", "", "", "", 0)
		testutil.AssertNoError(t, err)

		if account.Type != models.AccountTypeChecking {
			t.Errorf("expected default type checking, got %s", account.Type)
		}
		if account.Currency != "USD" {
			t.Errorf("expected default currency USD, got %s", account.Currency)
		}
	})

	t.Run("empty_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateAccount(user.ID, "", models.AccountTypeCash, "USD", "", "", 0)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetUserAccounts(t *testing.T) {
	t.Run("returns_user_accounts_only", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)

		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)

		testutil.CreateTestAccount(t, db, user1.ID, 0)
		testutil.CreateTestAccount(t, db, user1.ID, 0)
		testutil.CreateTestAccount(t, db, user2.ID, 0)

		page := pagination.PageRequest{Page: 1, PageSize: 20}
		result, err := svc.GetUserAccounts(user1.ID, page)
		testutil.AssertNoError(t, err)

		if result.TotalItems != 2 {
			t.Errorf("expected 2 accounts for user1, got %d", result.TotalItems)
		}
		if len(result.Data) != 2 {
			t.Errorf("expected 2 accounts in data, got %d", len(result.Data))
		}
	})

	t.Run("excludes_inactive", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		active := testutil.CreateTestAccount(t, db, user.ID, 0)
		inactive := testutil.CreateTestAccount(t, db, user.ID, 0)
		db.Model(inactive).Update("is_active", false)

		page := pagination.PageRequest{Page: 1, PageSize: 20}
		result, err := svc.GetUserAccounts(user.ID, page)
		testutil.AssertNoError(t, err)

		if result.TotalItems != 1 {
			t.Fatalf("expected 1 active account, got %d", result.TotalItems)
		}
		if result.Data[0].ID != active.ID {
			t.Errorf("expected active account ID %s, got %s", active.ID, result.Data[0].ID)
		}
	})
}

func TestGetAccountByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		created := testutil.CreateTestAccount(t, db, user.ID, 0)

		account, err := svc.GetAccountByID(user.ID, created.ID)
		testutil.AssertNoError(t, err)

		if account.Name != created.Name {
			t.Errorf("expected name %s, got %s", created.Name, account.Name)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.GetAccountByID(user.ID, missingID)
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})

	t.Run("wrong_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)

		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user1.ID, 0)

		_, err := svc.GetAccountByID(user2.ID, account.ID)
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}

func TestUpdateAccount(t *testing.T) {
	t.Run("updates_descriptive_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID, 1000)

		name := "Renamed"
		institution := "Credit Union"
		updated, err := svc.UpdateAccount(user.ID, account.ID, AccountUpdateFields{
			Name:        &name,
			Institution: &institution,
		})
		testutil.AssertNoError(t, err)

		if updated.Name != "Renamed" {
			t.Errorf("expected name Renamed, got %s", updated.Name)
		}
		if updated.Institution != "Credit Union" {
			t.Errorf("expected institution Credit Union, got %s", updated.Institution)
		}
		if updated.Balance != 1000 {
			t.Errorf("expected balance untouched at 1000, got %d", updated.Balance)
		}
	})

	t.Run("empty_name_ignored", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID, 0)

		empty := ""
		updated, err := svc.UpdateAccount(user.ID, account.ID, AccountUpdateFields{Name: &empty})
		testutil.AssertNoError(t, err)

		if updated.Name != account.Name {
			t.Errorf("expected name %s to be kept, got %s", account.Name, updated.Name)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		name := "x"
		_, err := svc.UpdateAccount(user.ID, missingID, AccountUpdateFields{Name: &name})
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}

func TestDeactivateAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAccountService(db)
	user := testutil.CreateTestUser(t, db)
	account := testutil.CreateTestAccount(t, db, user.ID, 0)

	err := svc.DeactivateAccount(user.ID, account.ID)
	testutil.AssertNoError(t, err)

	got, err := svc.GetAccountByID(user.ID, account.ID)
	testutil.AssertNoError(t, err)
	if got.IsActive {
		t.Error("expected account to be inactive")
	}

	result, err := svc.GetUserAccounts(user.ID, pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if result.TotalItems != 0 {
		t.Errorf("expected deactivated account to be hidden, got %d", result.TotalItems)
	}
}

func TestUpdateAccountBalance(t *testing.T) {
	t.Run("income_adds", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID, 1000)

		err := svc.UpdateAccountBalance(db, account, models.TransactionTypeIncome, 500)
		testutil.AssertNoError(t, err)

		if account.Balance != 1500 {
			t.Errorf("expected balance 1500 after income, got %d", account.Balance)
		}

		var dbAccount models.Account
		db.Where("id = ?", account.ID).First(&dbAccount)
		if dbAccount.Balance != 1500 {
			t.Errorf("expected DB balance 1500, got %d", dbAccount.Balance)
		}
	})

	t.Run("expense_subtracts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID, 1000)

		err := svc.UpdateAccountBalance(db, account, models.TransactionTypeExpense, 300)
		testutil.AssertNoError(t, err)

		if account.Balance != 700 {
			t.Errorf("expected balance 700 after expense, got %d", account.Balance)
		}
	})

	t.Run("stale_copy_does_not_lose_updates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID, 1000)
		stale := *account

		testutil.AssertNoError(t, svc.UpdateAccountBalance(db, account, models.TransactionTypeIncome, 200))
		testutil.AssertNoError(t, svc.UpdateAccountBalance(db, &stale, models.TransactionTypeIncome, 300))

		if stale.Balance != 1500 {
			t.Errorf("expected both increments to land (1500), got %d", stale.Balance)
		}
	})

	t.Run("invalid_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID, 1000)

		err := svc.UpdateAccountBalance(db, account, models.TransactionType("transfer"), 300)
		testutil.AssertAppError(t, err, "INVALID_TRANSACTION_TYPE")
	})
}
