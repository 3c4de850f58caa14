package services

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"moneta/internal/models"
	"moneta/internal/testutil"
)

func TestCreateUser(t *testing.T) {
	t.Run("stores_normalized_email_and_hash", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		user, err := svc.CreateUser("  Alice@Example.COM ", "s3cret-pass", "Alice", "Smith")
		testutil.AssertNoError(t, err)

		if user.Email != "alice@example.com" {
			t.Errorf("expected normalized email, got %q", user.Email)
		}
		if !user.IsActive {
			t.Error("expected new users to be active")
		}
		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("s3cret-pass")) != nil {
			t.Error("expected a bcrypt hash of the password")
		}

		var stored models.User
		if err := db.Where("id = ?", user.ID).First(&stored).Error; err != nil {
			t.Fatalf("failed to load user: %v", err)
		}
		if stored.Email != "alice@example.com" {
			t.Errorf("expected normalized email in the database, got %q", stored.Email)
		}
	})

	t.Run("required_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		tests := []struct {
			name     string
			email    string
			password string
		}{
			{"empty_email", "", "password123"},
			{"blank_email", "   ", "password123"},
			{"empty_password", "someone@example.com", ""},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.CreateUser(tt.email, tt.password, "", "")
				testutil.AssertAppError(t, err, "INVALID_INPUT")
			})
		}
		if n := testutil.CountRows(t, db, &models.User{}, "1 = 1"); n != 0 {
			t.Errorf("expected no users, got %d", n)
		}
	})

	t.Run("duplicate_after_normalization", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.CreateUser("bob@example.com", "password123", "", "")
		testutil.AssertNoError(t, err)

		_, err = svc.CreateUser(" BOB@example.com", "password456", "", "")
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	t.Run("deleted_user_email_hits_unique_key", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		first, err := svc.CreateUser("carol@example.com", "password123", "", "")
		testutil.AssertNoError(t, err)
		if err := db.Delete(first).Error; err != nil {
			t.Fatalf("failed to delete user: %v", err)
		}

		_, err = svc.CreateUser("carol@example.com", "password123", "", "")
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")

		if n := testutil.CountRows(t, db.Unscoped(), &models.User{}, "email = ?", "carol@example.com"); n != 1 {
			t.Errorf("expected a single user row, got %d", n)
		}
		if n := testutil.CountRows(t, db, &models.Category{}, "1 = 1"); n != int64(len(systemCategories)) {
			t.Errorf("expected categories of the first user only, got %d", n)
		}
	})

	t.Run("seeds_system_categories", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		user, err := svc.CreateUser("seed@example.com", "password123", "", "")
		testutil.AssertNoError(t, err)

		n := testutil.CountRows(t, db, &models.Category{}, "user_id = ? AND is_system = ?", user.ID, true)
		if n != int64(len(systemCategories)) {
			t.Errorf("expected %d system categories, got %d", len(systemCategories), n)
		}

		var loanPayment models.Category
		if err := db.Where("user_id = ? AND name = ?", user.ID, "Loan Payment").First(&loanPayment).Error; err != nil {
			t.Fatalf("expected Loan Payment category: %v", err)
		}
		if loanPayment.Type != models.CategoryTypeExpense {
			t.Errorf("expected Loan Payment to be an expense category, got %s", loanPayment.Type)
		}
	})

	t.Run("seeding_failure_rolls_back_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		err := db.Callback().Create().Before("gorm:create").Register("fail_category_seed", func(d *gorm.DB) {
			if d.Statement.Table == "categories" {
				_ = d.AddError(errors.New("categories unavailable"))
			}
		})
		if err != nil {
			t.Fatalf("failed to register callback: %v", err)
		}

		_, err = svc.CreateUser("dave@example.com", "password123", "", "")
		testutil.AssertAppError(t, err, "INTERNAL_ERROR")

		if n := testutil.CountRows(t, db, &models.User{}, "email = ?", "dave@example.com"); n != 0 {
			t.Errorf("expected the user insert to roll back, got %d rows", n)
		}
	})
}

func TestGetUserByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	created := testutil.CreateTestUserWithEmail(t, db, "erin@example.com")
	inactive := testutil.CreateTestUserWithEmail(t, db, "frank@example.com")
	db.Model(inactive).Update("is_active", false)

	user, err := svc.GetUserByEmail("  ERIN@example.com")
	testutil.AssertNoError(t, err)
	if user.ID != created.ID {
		t.Errorf("expected user %s, got %s", created.ID, user.ID)
	}

	tests := []struct {
		name  string
		email string
	}{
		{"unknown", "nobody@example.com"},
		{"inactive", "frank@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetUserByEmail(tt.email)
			testutil.AssertAppError(t, err, "USER_NOT_FOUND")
		})
	}
}

func TestGetUserByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	live := testutil.CreateTestUser(t, db)
	deleted := testutil.CreateTestUser(t, db)
	db.Delete(deleted)

	user, err := svc.GetUserByID(live.ID)
	testutil.AssertNoError(t, err)
	if user.Email != live.Email {
		t.Errorf("expected email %s, got %s", live.Email, user.Email)
	}

	_, err = svc.GetUserByID(deleted.ID)
	testutil.AssertAppError(t, err, "USER_NOT_FOUND")

	_, err = svc.GetUserByID("0190a1b2-0000-7000-8000-000000000000")
	testutil.AssertAppError(t, err, "USER_NOT_FOUND")
}

func TestAttemptLogin(t *testing.T) {
	t.Run("success_is_case_insensitive_and_resets_attempts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		created, err := svc.CreateUser("grace@example.com", "password123", "", "")
		testutil.AssertNoError(t, err)
		db.Model(created).Update("failed_login_attempts", 3)

		_, err = svc.AttemptLogin("Grace@Example.com", "password123")
		testutil.AssertNoError(t, err)

		stored, err := svc.GetUserByID(created.ID)
		testutil.AssertNoError(t, err)
		if stored.FailedLoginAttempts != 0 {
			t.Errorf("expected attempts reset, got %d", stored.FailedLoginAttempts)
		}
		if stored.LastLoginAt == nil {
			t.Error("expected last_login_at to be recorded")
		}
	})

	t.Run("unknown_email_matches_wrong_password", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.CreateUser("heidi@example.com", "password123", "", "")
		testutil.AssertNoError(t, err)

		_, err = svc.AttemptLogin("nobody@example.com", "password123")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")

		_, err = svc.AttemptLogin("heidi@example.com", "wrong")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")

		stored, _ := svc.GetUserByEmail("heidi@example.com")
		if stored.FailedLoginAttempts != 1 {
			t.Errorf("expected 1 failed attempt, got %d", stored.FailedLoginAttempts)
		}
	})

	t.Run("lockout_after_5_failures", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.CreateUser("lockout@example.com", "password123", "", "")
		testutil.AssertNoError(t, err)

		for i := 0; i < maxFailedLoginAttempts-1; i++ {
			_, err = svc.AttemptLogin("lockout@example.com", "wrong")
			testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
		}
		_, err = svc.AttemptLogin("lockout@example.com", "wrong")
		testutil.AssertAppError(t, err, "ACCOUNT_LOCKED")

		// the right password is refused while locked
		_, err = svc.AttemptLogin("lockout@example.com", "password123")
		testutil.AssertAppError(t, err, "ACCOUNT_LOCKED")

		user, _ := svc.GetUserByEmail("lockout@example.com")
		if user.LockedUntil == nil {
			t.Fatal("expected locked_until to be set")
		}
		remaining := time.Until(*user.LockedUntil)
		if remaining <= 0 || remaining > lockoutDuration {
			t.Errorf("expected lock within %v, got %v", lockoutDuration, remaining)
		}
	})

	t.Run("expired_lock_allows_login", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		created, err := svc.CreateUser("ivan@example.com", "password123", "", "")
		testutil.AssertNoError(t, err)
		db.Model(created).Update("locked_until", time.Now().Add(-time.Minute))

		_, err = svc.AttemptLogin("ivan@example.com", "password123")
		testutil.AssertNoError(t, err)

		stored, err := svc.GetUserByID(created.ID)
		testutil.AssertNoError(t, err)
		if stored.LockedUntil != nil {
			t.Error("expected locked_until to be cleared")
		}
	})
}

func TestRefreshTokenHash(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	user := testutil.CreateTestUser(t, db)

	testutil.AssertNoError(t, svc.StoreRefreshTokenHash(user.ID, "first"))
	testutil.AssertNoError(t, svc.StoreRefreshTokenHash(user.ID, "second"))

	got, err := svc.GetRefreshTokenHash(user.ID)
	testutil.AssertNoError(t, err)
	if got != "second" {
		t.Errorf("expected only the latest hash to be kept, got %q", got)
	}

	err = svc.StoreRefreshTokenHash("0190a1b2-0000-7000-8000-000000000000", "x")
	testutil.AssertAppError(t, err, "USER_NOT_FOUND")
}
