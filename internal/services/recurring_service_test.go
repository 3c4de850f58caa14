package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"moneta/internal/config"
	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/testutil"
)

func newTestRecurringService(db *gorm.DB, clock Clock, policy config.CatchUpPolicy, maxCatchUp int) RecurringServicer {
	return NewRecurringService(db, NewAccountService(db), RecurringOptions{
		Clock:      clock,
		CatchUp:    policy,
		MaxCatchUp: maxCatchUp,
	})
}

func materializedDates(t *testing.T, db *gorm.DB, recurringID string) []time.Time {
	t.Helper()
	var txns []models.Transaction
	if err := db.Where("recurring_id = ?", recurringID).Order("date ASC").Find(&txns).Error; err != nil {
		t.Fatalf("failed to load transactions: %v", err)
	}
	dates := make([]time.Time, len(txns))
	for i := range txns {
		dates[i] = txns[i].Date.UTC()
	}
	return dates
}

func reloadRecurring(t *testing.T, db *gorm.DB, id string) models.RecurringTransaction {
	t.Helper()
	var rt models.RecurringTransaction
	if err := db.Where("id = ?", id).First(&rt).Error; err != nil {
		t.Fatalf("failed to reload recurring transaction: %v", err)
	}
	return rt
}

func assertDate(t *testing.T, label string, got, want time.Time) {
	t.Helper()
	if !got.UTC().Equal(want) {
		t.Errorf("%s: expected %s, got %s", label, want.Format("2006-01-02"), got.UTC().Format("2006-01-02"))
	}
}

func TestCreateRecurring(t *testing.T) {
	t.Run("next_occurrence_is_start_date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestRecurringService(db, fixedClock(2025, time.January, 1), config.CatchUpBackfill, 60)
		user := testutil.CreateTestUser(t, db)

		rt, err := svc.CreateRecurring(context.Background(), user.ID, RecurringInput{
			Description: "Rent",
			Amount:      150000,
			Type:        models.TransactionTypeExpense,
			Frequency:   models.FrequencyMonthly,
			StartDate:   time.Date(2025, time.March, 1, 15, 30, 0, 0, time.UTC),
		})
		testutil.AssertNoError(t, err)

		assertDate(t, "start_date", rt.StartDate, testutil.Date(2025, time.March, 1))
		assertDate(t, "next_occurrence", rt.NextOccurrence, testutil.Date(2025, time.March, 1))
		if !rt.IsActive {
			t.Error("expected template to be active")
		}
	})

	t.Run("validation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestRecurringService(db, fixedClock(2025, time.January, 1), config.CatchUpBackfill, 60)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		foreign := testutil.CreateTestAccount(t, db, other.ID, 0)

		start := testutil.Date(2025, time.January, 10)
		before := testutil.Date(2025, time.January, 9)
		valid := RecurringInput{Description: "Gym", Amount: 5000, Type: models.TransactionTypeExpense, Frequency: models.FrequencyMonthly, StartDate: start}

		tests := []struct {
			name   string
			mutate func(in *RecurringInput)
			code   string
		}{
			{"missing_description", func(in *RecurringInput) { in.Description = "" }, "INVALID_INPUT"},
			{"negative_amount", func(in *RecurringInput) { in.Amount = -1 }, "INVALID_INPUT"},
			{"bad_type", func(in *RecurringInput) { in.Type = "transfer" }, "INVALID_TRANSACTION_TYPE"},
			{"bad_frequency", func(in *RecurringInput) { in.Frequency = "fortnightly" }, "INVALID_FREQUENCY"},
			{"missing_start", func(in *RecurringInput) { in.StartDate = time.Time{} }, "INVALID_INPUT"},
			{"end_before_start", func(in *RecurringInput) { in.EndDate = &before }, "INVALID_INPUT"},
			{"foreign_account", func(in *RecurringInput) { in.AccountID = &foreign.ID }, "ACCOUNT_NOT_FOUND"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				in := valid
				tt.mutate(&in)
				_, err := svc.CreateRecurring(context.Background(), user.ID, in)
				testutil.AssertAppError(t, err, tt.code)
			})
		}
	})

	t.Run("zero_amount_allowed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestRecurringService(db, fixedClock(2025, time.January, 1), config.CatchUpBackfill, 60)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateRecurring(context.Background(), user.ID, RecurringInput{
			Description: "Variable bill",
			Type:        models.TransactionTypeExpense,
			Frequency:   models.FrequencyMonthly,
			StartDate:   testutil.Date(2025, time.January, 1),
		})
		testutil.AssertNoError(t, err)
	})
}

func TestGetUserRecurring(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestRecurringService(db, fixedClock(2025, time.January, 1), config.CatchUpBackfill, 60)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)

	later := testutil.CreateTestRecurring(t, db, user.ID, models.FrequencyMonthly, testutil.Date(2025, time.March, 1), false)
	sooner := testutil.CreateTestRecurring(t, db, user.ID, models.FrequencyWeekly, testutil.Date(2025, time.January, 5), false)
	paused := testutil.CreateTestRecurring(t, db, user.ID, models.FrequencyWeekly, testutil.Date(2025, time.January, 2), false)
	db.Model(paused).Update("is_active", false)
	testutil.CreateTestRecurring(t, db, other.ID, models.FrequencyWeekly, testutil.Date(2025, time.January, 1), false)

	page := pagination.PageRequest{Page: 1, PageSize: 20}
	result, err := svc.GetUserRecurring(context.Background(), user.ID, page, nil)
	testutil.AssertNoError(t, err)
	if result.TotalItems != 3 {
		t.Fatalf("expected 3 templates, got %d", result.TotalItems)
	}
	if result.Data[0].ID != paused.ID || result.Data[1].ID != sooner.ID || result.Data[2].ID != later.ID {
		t.Error("expected templates ordered by next occurrence")
	}

	active := true
	result, err = svc.GetUserRecurring(context.Background(), user.ID, page, &active)
	testutil.AssertNoError(t, err)
	if result.TotalItems != 2 {
		t.Errorf("expected 2 active templates, got %d", result.TotalItems)
	}
}

func TestUpdateRecurring(t *testing.T) {
	t.Run("never_moves_next_occurrence", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestRecurringService(db, fixedClock(2025, time.January, 1), config.CatchUpBackfill, 60)
		user := testutil.CreateTestUser(t, db)
		rt := testutil.CreateTestRecurring(t, db, user.ID, models.FrequencyMonthly, testutil.Date(2025, time.March, 1), false)

		weekly := models.FrequencyWeekly
		earlier := testutil.Date(2025, time.February, 1)
		amount := int64(2500)
		updated, err := svc.UpdateRecurring(context.Background(), user.ID, rt.ID, RecurringUpdate{
			Frequency: &weekly,
			StartDate: &earlier,
			Amount:    &amount,
		})
		testutil.AssertNoError(t, err)

		assertDate(t, "next_occurrence", updated.NextOccurrence, testutil.Date(2025, time.March, 1))
		assertDate(t, "start_date", updated.StartDate, earlier)
		if updated.Frequency != models.FrequencyWeekly || updated.Amount != 2500 {
			t.Errorf("expected frequency and amount to change, got %s %d", updated.Frequency, updated.Amount)
		}
	})

	t.Run("start_past_next_occurrence_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestRecurringService(db, fixedClock(2025, time.January, 1), config.CatchUpBackfill, 60)
		user := testutil.CreateTestUser(t, db)
		rt := testutil.CreateTestRecurring(t, db, user.ID, models.FrequencyMonthly, testutil.Date(2025, time.March, 1), false)

		later := testutil.Date(2025, time.April, 1)
		_, err := svc.UpdateRecurring(context.Background(), user.ID, rt.ID, RecurringUpdate{StartDate: &later})
		testutil.AssertAppError(t, err, "RECURRING_SCHEDULE_CONFLICT")

		got := reloadRecurring(t, db, rt.ID)
		assertDate(t, "start_date", got.StartDate, testutil.Date(2025, time.March, 1))
	})

	t.Run("end_date_rules", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestRecurringService(db, fixedClock(2025, time.January, 1), config.CatchUpBackfill, 60)
		user := testutil.CreateTestUser(t, db)
		rt := testutil.CreateTestRecurring(t, db, user.ID, models.FrequencyMonthly, testutil.Date(2025, time.March, 1), false)

		before := testutil.Date(2025, time.February, 1)
		_, err := svc.UpdateRecurring(context.Background(), user.ID, rt.ID, RecurringUpdate{EndDate: &before})
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		end := testutil.Date(2025, time.December, 31)
		updated, err := svc.UpdateRecurring(context.Background(), user.ID, rt.ID, RecurringUpdate{EndDate: &end})
		testutil.AssertNoError(t, err)
		if updated.EndDate == nil {
			t.Fatal("expected end date to be set")
		}

		updated, err = svc.UpdateRecurring(context.Background(), user.ID, rt.ID, RecurringUpdate{ClearEnd: true})
		testutil.AssertNoError(t, err)
		if updated.EndDate != nil {
			t.Error("expected end date to be cleared")
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestRecurringService(db, fixedClock(2025, time.January, 1), config.CatchUpBackfill, 60)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.UpdateRecurring(context.Background(), user.ID, missingID, RecurringUpdate{})
		testutil.AssertAppError(t, err, "RECURRING_NOT_FOUND")
	})
}

func TestDeleteRecurring(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	clock := fixedClock(2025, time.January, 1)
	svc := newTestRecurringService(db, clock, config.CatchUpBackfill, 60)
	user := testutil.CreateTestUser(t, db)
	rt := testutil.CreateTestRecurring(t, db, user.ID, models.FrequencyWeekly, testutil.Date(2025, time.January, 1), true)

	_, err := svc.Advance(context.Background(), user.ID)
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, svc.DeleteRecurring(context.Background(), user.ID, rt.ID))

	_, err = svc.GetRecurringByID(context.Background(), user.ID, rt.ID)
	testutil.AssertAppError(t, err, "RECURRING_NOT_FOUND")
	if n := len(materializedDates(t, db, rt.ID)); n != 1 {
		t.Errorf("expected materialized transaction to survive delete, got %d", n)
	}
}

func TestGetUpcoming(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestRecurringService(db, fixedClock(2025, time.January, 10), config.CatchUpBackfill, 60)
	user := testutil.CreateTestUser(t, db)

	weekly := testutil.CreateTestRecurring(t, db, user.ID, models.FrequencyWeekly, testutil.Date(2025, time.January, 15), false)
	monthly := testutil.CreateTestRecurring(t, db, user.ID, models.FrequencyMonthly, testutil.Date(2025, time.January, 20), false)
	ended := testutil.CreateTestRecurring(t, db, user.ID, models.FrequencyDaily, testutil.Date(2025, time.January, 11), false)
	endDate := testutil.Date(2025, time.January, 12)
	db.Model(ended).Update("end_date", endDate)
	paused := testutil.CreateTestRecurring(t, db, user.ID, models.FrequencyDaily, testutil.Date(2025, time.January, 10), false)
	db.Model(paused).Update("is_active", false)

	upcoming, err := svc.GetUpcoming(context.Background(), user.ID, 5)
	testutil.AssertNoError(t, err)

	want := []struct {
		id   string
		date time.Time
	}{
		{ended.ID, testutil.Date(2025, time.January, 11)},
		{ended.ID, testutil.Date(2025, time.January, 12)},
		{weekly.ID, testutil.Date(2025, time.January, 15)},
		{monthly.ID, testutil.Date(2025, time.January, 20)},
		{weekly.ID, testutil.Date(2025, time.January, 22)},
	}
	if len(upcoming) != len(want) {
		t.Fatalf("expected %d upcoming occurrences, got %d", len(want), len(upcoming))
	}
	for i, w := range want {
		if upcoming[i].RecurringID != w.id {
			t.Errorf("occurrence %d: expected template %s, got %s", i, w.id, upcoming[i].RecurringID)
		}
		assertDate(t, "upcoming", upcoming[i].Date, w.date)
	}
}

func TestAdvance_MonthlyAnchorClamp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestRecurringService(db, fixedClock(2024, time.April, 30), config.CatchUpBackfill, 60)
	user := testutil.CreateTestUser(t, db)
	rt := testutil.CreateTestRecurring(t, db, user.ID, models.FrequencyMonthly, testutil.Date(2024, time.January, 31), true)

	result, err := svc.Advance(context.Background(), user.ID)
	testutil.AssertNoError(t, err)

	if result.Materialized != 4 {
		t.Fatalf("expected 4 materialized occurrences, got %d", result.Materialized)
	}
	want := []time.Time{
		testutil.Date(2024, time.January, 31),
		testutil.Date(2024, time.February, 29),
		testutil.Date(2024, time.March, 31),
		testutil.Date(2024, time.April, 30),
	}
	got := materializedDates(t, db, rt.ID)
	for i := range want {
		assertDate(t, "occurrence", got[i], want[i])
	}
	assertDate(t, "next_occurrence", reloadRecurring(t, db, rt.ID).NextOccurrence, testutil.Date(2024, time.May, 31))
}

func TestAdvance_IdempotentWithinDay(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestRecurringService(db, fixedClock(2025, time.January, 20), config.CatchUpBackfill, 60)
	user := testutil.CreateTestUser(t, db)
	account := testutil.CreateTestAccount(t, db, user.ID, 100000)
	rt := testutil.CreateTestRecurring(t, db, user.ID, models.FrequencyWeekly, testutil.Date(2025, time.January, 1), true)
	db.Model(rt).Update("account_id", account.ID)

	first, err := svc.Advance(context.Background(), user.ID)
	testutil.AssertNoError(t, err)
	if first.Materialized != 3 || first.Processed != 1 {
		t.Fatalf("expected 3 materialized from 1 template, got %d from %d", first.Materialized, first.Processed)
	}
	afterFirst := reloadRecurring(t, db, rt.ID)

	second, err := svc.Advance(context.Background(), user.ID)
	testutil.AssertNoError(t, err)
	if second.Materialized != 0 || second.Processed != 0 {
		t.Errorf("expected second run to be a no-op, got %+v", second)
	}

	afterSecond := reloadRecurring(t, db, rt.ID)
	assertDate(t, "next_occurrence", afterSecond.NextOccurrence, afterFirst.NextOccurrence.UTC())
	if n := len(materializedDates(t, db, rt.ID)); n != 3 {
		t.Errorf("expected 3 transactions, got %d", n)
	}
	if got := testutil.AccountBalance(t, db, account.ID); got != 70000 {
		t.Errorf("expected balance 70000, got %d", got)
	}
	if afterSecond.LastAdvancedOn == nil {
		t.Error("expected last_advanced_on watermark to be set")
	}
}

func TestAdvance_WeeklyFromPreviousRun(t *testing.T) {
	t.Run("backfill", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		rt := testutil.CreateTestRecurring(t, db, user.ID, models.FrequencyWeekly, testutil.Date(2025, time.January, 1), true)

		day1 := newTestRecurringService(db, fixedClock(2025, time.January, 1), config.CatchUpBackfill, 60)
		_, err := day1.Advance(context.Background(), user.ID)
		testutil.AssertNoError(t, err)
		assertDate(t, "next after first run", reloadRecurring(t, db, rt.ID).NextOccurrence, testutil.Date(2025, time.January, 8))

		day8 := newTestRecurringService(db, fixedClock(2025, time.January, 8), config.CatchUpBackfill, 60)
		result, err := day8.Advance(context.Background(), user.ID)
		testutil.AssertNoError(t, err)

		if result.Materialized != 1 {
			t.Errorf("expected exactly one transaction from the run, got %d", result.Materialized)
		}
		assertDate(t, "next_occurrence", reloadRecurring(t, db, rt.ID).NextOccurrence, testutil.Date(2025, time.January, 15))
		dates := materializedDates(t, db, rt.ID)
		assertDate(t, "latest occurrence", dates[len(dates)-1], testutil.Date(2025, time.January, 8))
	})

	t.Run("latest_policy", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		rt := testutil.CreateTestRecurring(t, db, user.ID, models.FrequencyWeekly, testutil.Date(2025, time.January, 1), true)

		svc := newTestRecurringService(db, fixedClock(2025, time.January, 8), config.CatchUpLatest, 60)
		result, err := svc.Advance(context.Background(), user.ID)
		testutil.AssertNoError(t, err)

		if result.Materialized != 1 {
			t.Errorf("expected exactly one transaction, got %d", result.Materialized)
		}
		assertDate(t, "next_occurrence", reloadRecurring(t, db, rt.ID).NextOccurrence, testutil.Date(2025, time.January, 15))
		dates := materializedDates(t, db, rt.ID)
		if len(dates) != 1 {
			t.Fatalf("expected 1 transaction, got %d", len(dates))
		}
		assertDate(t, "occurrence", dates[0], testutil.Date(2025, time.January, 8))
	})
}

func TestAdvance_EndDateDeactivates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestRecurringService(db, fixedClock(2025, time.January, 31), config.CatchUpBackfill, 60)
	user := testutil.CreateTestUser(t, db)
	rt := testutil.CreateTestRecurring(t, db, user.ID, models.FrequencyWeekly, testutil.Date(2025, time.January, 1), true)
	end := testutil.Date(2025, time.January, 10)
	db.Model(rt).Update("end_date", end)

	result, err := svc.Advance(context.Background(), user.ID)
	testutil.AssertNoError(t, err)

	if result.Deactivated != 1 {
		t.Errorf("expected template to be deactivated, got %d", result.Deactivated)
	}
	dates := materializedDates(t, db, rt.ID)
	if len(dates) != 2 {
		t.Fatalf("expected 2 occurrences before the end date, got %d", len(dates))
	}
	for _, d := range dates {
		if d.After(end) {
			t.Errorf("materialized occurrence %s past end date", d.Format("2006-01-02"))
		}
	}
	got := reloadRecurring(t, db, rt.ID)
	if got.IsActive {
		t.Error("expected template to be inactive")
	}

	again, err := svc.Advance(context.Background(), user.ID)
	testutil.AssertNoError(t, err)
	if again.Processed != 0 {
		t.Errorf("expected inactive template to be skipped, got %d processed", again.Processed)
	}
}

func TestAdvance_EndDateOnOccurrence(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestRecurringService(db, fixedClock(2025, time.January, 8), config.CatchUpBackfill, 60)
	user := testutil.CreateTestUser(t, db)
	rt := testutil.CreateTestRecurring(t, db, user.ID, models.FrequencyWeekly, testutil.Date(2025, time.January, 1), true)
	db.Model(rt).Update("end_date", testutil.Date(2025, time.January, 8))

	result, err := svc.Advance(context.Background(), user.ID)
	testutil.AssertNoError(t, err)

	if result.Materialized != 2 {
		t.Errorf("expected the end date occurrence to be included, got %d", result.Materialized)
	}
	if result.Deactivated != 1 {
		t.Errorf("expected deactivation once next passes the end date, got %d", result.Deactivated)
	}
}

func TestAdvance_BackfillCapDefers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestRecurringService(db, fixedClock(2025, time.January, 10), config.CatchUpBackfill, 3)
	user := testutil.CreateTestUser(t, db)
	rt := testutil.CreateTestRecurring(t, db, user.ID, models.FrequencyDaily, testutil.Date(2025, time.January, 1), true)

	result, err := svc.Advance(context.Background(), user.ID)
	testutil.AssertNoError(t, err)

	if result.Materialized != 3 || result.Deferred != 1 {
		t.Fatalf("expected 3 materialized and 1 deferred, got %+v", result)
	}
	assertDate(t, "next_occurrence", reloadRecurring(t, db, rt.ID).NextOccurrence, testutil.Date(2025, time.January, 4))

	for i := 0; i < 3; i++ {
		_, err = svc.Advance(context.Background(), user.ID)
		testutil.AssertNoError(t, err)
	}
	if n := len(materializedDates(t, db, rt.ID)); n != 10 {
		t.Errorf("expected the backlog to drain to 10 transactions, got %d", n)
	}
	assertDate(t, "next_occurrence", reloadRecurring(t, db, rt.ID).NextOccurrence, testutil.Date(2025, time.January, 11))
}

func TestAdvance_SkipsWithoutAutoCreate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestRecurringService(db, fixedClock(2025, time.January, 20), config.CatchUpBackfill, 60)
	user := testutil.CreateTestUser(t, db)
	manual := testutil.CreateTestRecurring(t, db, user.ID, models.FrequencyWeekly, testutil.Date(2025, time.January, 1), false)
	zero := testutil.CreateTestRecurring(t, db, user.ID, models.FrequencyWeekly, testutil.Date(2025, time.January, 1), true)
	db.Model(zero).Update("amount", 0)

	result, err := svc.Advance(context.Background(), user.ID)
	testutil.AssertNoError(t, err)

	if result.Processed != 2 || result.Materialized != 0 {
		t.Errorf("expected 2 processed and none materialized, got %+v", result)
	}
	for _, id := range []string{manual.ID, zero.ID} {
		assertDate(t, "next_occurrence", reloadRecurring(t, db, id).NextOccurrence, testutil.Date(2025, time.January, 22))
	}
}

func TestAdvance_LostRaceIsSkipped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestRecurringService(db, fixedClock(2025, time.January, 8), config.CatchUpBackfill, 60)
	user := testutil.CreateTestUser(t, db)
	rt := testutil.CreateTestRecurring(t, db, user.ID, models.FrequencyWeekly, testutil.Date(2025, time.January, 1), true)

	// Another writer moves next_occurrence between the locked read and the
	// compare-and-swap.
	raced := false
	err := db.Callback().Update().Before("gorm:update").Register("test:concurrent_advance", func(tx *gorm.DB) {
		if raced || tx.Statement.Table != "recurring_transactions" {
			return
		}
		raced = true
		tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE recurring_transactions SET next_occurrence = ? WHERE id = ?", testutil.Date(2025, time.January, 15), rt.ID)
	})
	testutil.AssertNoError(t, err)

	result, err := svc.Advance(context.Background(), user.ID)
	testutil.AssertNoError(t, err)

	if !raced {
		t.Fatal("expected the concurrent writer to run")
	}
	if len(result.Errors) != 0 {
		t.Errorf("expected a lost race to be skipped, not failed: %+v", result.Errors)
	}
	if result.Processed != 0 || result.Materialized != 0 {
		t.Errorf("expected nothing recorded for the lost template, got %+v", result)
	}
	if n := len(materializedDates(t, db, rt.ID)); n != 0 {
		t.Errorf("expected the losing transaction to roll back, got %d transactions", n)
	}
}

func TestAdvance_IsolatesFailures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestRecurringService(db, fixedClock(2025, time.January, 1), config.CatchUpBackfill, 60)
	user := testutil.CreateTestUser(t, db)

	account := testutil.CreateTestAccount(t, db, user.ID, 0)
	broken := testutil.CreateTestRecurring(t, db, user.ID, models.FrequencyWeekly, testutil.Date(2025, time.January, 1), true)
	db.Model(broken).Update("account_id", account.ID)
	db.Delete(account)
	healthy := testutil.CreateTestRecurring(t, db, user.ID, models.FrequencyWeekly, testutil.Date(2025, time.January, 1), true)

	result, err := svc.Advance(context.Background(), user.ID)
	testutil.AssertNoError(t, err)

	if len(result.Errors) != 1 || result.Errors[0].RecurringID != broken.ID {
		t.Fatalf("expected one error for the broken template, got %+v", result.Errors)
	}
	if result.Errors[0].Message != apperrors.ErrAccountNotFound.Message {
		t.Errorf("expected account not found message, got %q", result.Errors[0].Message)
	}
	if result.Err() == nil {
		t.Error("expected Err to report the failure")
	}
	if n := len(materializedDates(t, db, healthy.ID)); n != 1 {
		t.Errorf("expected the healthy template to advance, got %d transactions", n)
	}
	if n := len(materializedDates(t, db, broken.ID)); n != 0 {
		t.Errorf("expected the broken template to roll back, got %d transactions", n)
	}
	assertDate(t, "broken next_occurrence", reloadRecurring(t, db, broken.ID).NextOccurrence, testutil.Date(2025, time.January, 1))
}

func TestAdvanceAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestRecurringService(db, fixedClock(2025, time.January, 1), config.CatchUpBackfill, 60)
	alice := testutil.CreateTestUser(t, db)
	bob := testutil.CreateTestUser(t, db)
	testutil.CreateTestRecurring(t, db, alice.ID, models.FrequencyMonthly, testutil.Date(2025, time.January, 1), true)
	testutil.CreateTestRecurring(t, db, bob.ID, models.FrequencyMonthly, testutil.Date(2025, time.January, 1), true)
	testutil.CreateTestRecurring(t, db, bob.ID, models.FrequencyMonthly, testutil.Date(2025, time.February, 1), true)

	result, err := svc.AdvanceAll(context.Background())
	testutil.AssertNoError(t, err)

	if result.Processed != 2 || result.Materialized != 2 {
		t.Errorf("expected 2 processed and 2 materialized, got %+v", result)
	}
}

func TestAdvanceResult_Messages(t *testing.T) {
	r := newAdvanceResult()
	r.addError("a", errors.New("pq: connection reset by peer"))
	r.addError("b", apperrors.ErrLoanNotActive)
	r.addError("c", context.DeadlineExceeded)

	if r.Errors[0].Message != apperrors.ErrInternalServer.Message {
		t.Errorf("expected internal details to be hidden, got %q", r.Errors[0].Message)
	}
	if r.Errors[1].Message != apperrors.ErrLoanNotActive.Message {
		t.Errorf("expected app error message, got %q", r.Errors[1].Message)
	}
	if !strings.HasPrefix(r.Errors[2].Message, "Advance interrupted") {
		t.Errorf("expected interrupted message, got %q", r.Errors[2].Message)
	}
	if !errors.Is(r.Err(), context.DeadlineExceeded) {
		t.Errorf("expected Err to wrap the last error, got %v", r.Err())
	}
}
