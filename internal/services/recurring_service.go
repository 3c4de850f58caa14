package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"moneta/internal/config"
	apperrors "moneta/internal/errors"
	"moneta/internal/logger"
	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/schedule"
)

var (
	recurringTracer = otel.Tracer("moneta/recurring")
	recurringMeter  = otel.Meter("moneta/recurring")

	advanceMaterialized, _ = recurringMeter.Int64Counter("recurring.advance.materialized",
		metric.WithDescription("Transactions materialized from recurring templates"),
	)
	advanceFailures, _ = recurringMeter.Int64Counter("recurring.advance.failures",
		metric.WithDescription("Recurring templates that failed to advance"),
	)
	advanceDuration, _ = recurringMeter.Float64Histogram("recurring.advance.duration",
		metric.WithDescription("Duration of one advancer run in seconds"),
		metric.WithUnit("s"),
	)
)

// errLostRace marks a template that another writer advanced first.
var errLostRace = errors.New("recurring template advanced concurrently")

// RecurringOptions configures the occurrence advancer.
type RecurringOptions struct {
	Clock      Clock
	CatchUp    config.CatchUpPolicy
	MaxCatchUp int
}

// AdvanceError reports a template that could not be advanced.
type AdvanceError struct {
	RecurringID string `json:"recurring_id"`
	Message     string `json:"message"`
	err         error
}

// AdvanceResult summarizes one advancer run.
type AdvanceResult struct {
	Processed    int            `json:"processed"`
	Materialized int            `json:"materialized"`
	Deactivated  int            `json:"deactivated"`
	Deferred     int            `json:"deferred"`
	Errors       []AdvanceError `json:"errors"`
}

func newAdvanceResult() *AdvanceResult {
	return &AdvanceResult{Errors: []AdvanceError{}}
}

// Err returns the last per-template error, or nil when every template advanced.
func (r *AdvanceResult) Err() error {
	if r == nil || len(r.Errors) == 0 {
		return nil
	}
	last := r.Errors[len(r.Errors)-1]
	if last.err != nil {
		return fmt.Errorf("advance recurring %s: %w", last.RecurringID, last.err)
	}
	return fmt.Errorf("advance recurring %s: %s", last.RecurringID, last.Message)
}

func (r *AdvanceResult) addError(recurringID string, err error) {
	msg := apperrors.ErrInternalServer.Message
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		msg = appErr.Message
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		msg = "Advance interrupted: " + err.Error()
	}
	r.Errors = append(r.Errors, AdvanceError{RecurringID: recurringID, Message: msg, err: err})
}

func (r *AdvanceResult) merge(o *AdvanceResult) {
	r.Processed += o.Processed
	r.Materialized += o.Materialized
	r.Deactivated += o.Deactivated
	r.Deferred += o.Deferred
	r.Errors = append(r.Errors, o.Errors...)
}

// advancePlan is the outcome of walking one template's schedule up to today.
type advancePlan struct {
	occurrences []time.Time
	next        time.Time
	deactivate  bool
	deferred    bool
}

// recurringService handles recurring templates and advances them.
type recurringService struct {
	db             *gorm.DB
	accountService AccountServicer
	opts           RecurringOptions
}

// NewRecurringService creates a new RecurringServicer.
func NewRecurringService(db *gorm.DB, accountService AccountServicer, opts RecurringOptions) RecurringServicer {
	if opts.CatchUp == "" {
		opts.CatchUp = config.CatchUpBackfill
	}
	if opts.MaxCatchUp <= 0 {
		opts.MaxCatchUp = 60
	}
	return &recurringService{db: db, accountService: accountService, opts: opts}
}

// CreateRecurring creates a template whose first occurrence is its start date.
func (s *recurringService) CreateRecurring(ctx context.Context, userID string, in RecurringInput) (*models.RecurringTransaction, error) {
	if in.Description == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
	}
	if in.Amount < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount cannot be negative")
	}
	if in.Type != models.TransactionTypeIncome && in.Type != models.TransactionTypeExpense {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if !in.Frequency.Valid() {
		return nil, apperrors.ErrInvalidFrequency
	}
	if in.StartDate.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "start date is required")
	}
	start := schedule.Date(in.StartDate)
	end, err := normalizeEnd(start, in.EndDate)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if err := s.checkRefs(db, userID, in.AccountID, in.CategoryID); err != nil {
		return nil, err
	}

	rt := &models.RecurringTransaction{
		UserID:         userID,
		Description:    in.Description,
		Amount:         in.Amount,
		Type:           in.Type,
		AccountID:      in.AccountID,
		CategoryID:     in.CategoryID,
		Frequency:      in.Frequency,
		StartDate:      start,
		EndDate:        end,
		NextOccurrence: start,
		AutoCreate:     in.AutoCreate,
		IsActive:       true,
	}
	if err := db.Create(rt).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rt, nil
}

func normalizeEnd(start time.Time, end *time.Time) (*time.Time, error) {
	if end == nil {
		return nil, nil
	}
	d := schedule.Date(*end)
	if d.Before(start) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "end date cannot be before start date")
	}
	return &d, nil
}

func (s *recurringService) checkRefs(db *gorm.DB, userID string, accountID, categoryID *string) error {
	if accountID != nil {
		if _, err := findAccount(db, userID, *accountID); err != nil {
			return err
		}
	}
	if categoryID != nil {
		if _, err := findCategory(db, userID, *categoryID); err != nil {
			return err
		}
	}
	return nil
}

// GetUserRecurring lists templates ordered by their next occurrence.
func (s *recurringService) GetUserRecurring(ctx context.Context, userID string, page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[models.RecurringTransaction], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.RecurringTransaction{}).Where("user_id = ?", userID)
	if isActive != nil {
		base = base.Where("is_active = ?", *isActive)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var templates []models.RecurringTransaction
	if err := base.Preload("Account").Preload("Category").
		Order("next_occurrence ASC").
		Scopes(pagination.Paginate(page)).
		Find(&templates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(templates, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetActiveRecurring returns every active template of a user.
func (s *recurringService) GetActiveRecurring(ctx context.Context, userID string) ([]models.RecurringTransaction, error) {
	var templates []models.RecurringTransaction
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("next_occurrence ASC").
		Find(&templates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return templates, nil
}

// GetRecurringByID retrieves a template owned by the user.
func (s *recurringService) GetRecurringByID(ctx context.Context, userID, recurringID string) (*models.RecurringTransaction, error) {
	var rt models.RecurringTransaction
	if err := s.db.WithContext(ctx).Preload("Account").Preload("Category").
		Where("id = ? AND user_id = ?", recurringID, userID).
		First(&rt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRecurringNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &rt, nil
}

// UpdateRecurring edits a template. next_occurrence is never written here; a
// start date moved past it is rejected so next_occurrence >= start_date holds.
func (s *recurringService) UpdateRecurring(ctx context.Context, userID, recurringID string, in RecurringUpdate) (*models.RecurringTransaction, error) {
	rt, err := s.GetRecurringByID(ctx, userID, recurringID)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	updates := make(map[string]interface{})
	if in.Description != nil && *in.Description != "" {
		updates["description"] = *in.Description
	}
	if in.Amount != nil {
		if *in.Amount < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount cannot be negative")
		}
		updates["amount"] = *in.Amount
	}
	if in.Type != nil {
		if *in.Type != models.TransactionTypeIncome && *in.Type != models.TransactionTypeExpense {
			return nil, apperrors.ErrInvalidTransactionType
		}
		updates["type"] = *in.Type
	}
	if in.Frequency != nil {
		if !in.Frequency.Valid() {
			return nil, apperrors.ErrInvalidFrequency
		}
		updates["frequency"] = *in.Frequency
	}
	if err := s.checkRefs(db, userID, in.AccountID, in.CategoryID); err != nil {
		return nil, err
	}
	if in.AccountID != nil {
		updates["account_id"] = *in.AccountID
	}
	if in.CategoryID != nil {
		updates["category_id"] = *in.CategoryID
	}

	start := rt.StartDate
	if in.StartDate != nil {
		start = schedule.Date(*in.StartDate)
		if start.After(rt.NextOccurrence) {
			return nil, apperrors.ErrRecurringScheduleConflict
		}
		updates["start_date"] = start
	}
	switch {
	case in.ClearEnd:
		updates["end_date"] = nil
	case in.EndDate != nil:
		end, err := normalizeEnd(start, in.EndDate)
		if err != nil {
			return nil, err
		}
		updates["end_date"] = *end
	case in.StartDate != nil && rt.EndDate != nil && rt.EndDate.Before(start):
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "end date cannot be before start date")
	}
	if in.AutoCreate != nil {
		updates["auto_create"] = *in.AutoCreate
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}

	if len(updates) > 0 {
		if err := db.Model(rt).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.GetRecurringByID(ctx, userID, recurringID)
}

// DeleteRecurring soft-deletes a template. Transactions it already produced stay.
func (s *recurringService) DeleteRecurring(ctx context.Context, userID, recurringID string) error {
	rt, err := s.GetRecurringByID(ctx, userID, recurringID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(rt).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetUpcoming returns the next limit occurrences on or after today across all
// active templates, soonest first.
func (s *recurringService) GetUpcoming(ctx context.Context, userID string, limit int) ([]UpcomingOccurrence, error) {
	if limit <= 0 {
		limit = 5
	}
	templates, err := s.GetActiveRecurring(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := s.opts.Clock.Today()
	upcoming := make([]UpcomingOccurrence, 0, limit)
	for i := range templates {
		rt := &templates[i]
		from := rt.NextOccurrence
		if from.Before(today) {
			from = today
		}
		dates, err := schedule.Upcoming(rt.Frequency, rt.StartDate, from, limit)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		// After a start date edit next_occurrence can fall off the rule's dates.
		if !rt.NextOccurrence.Before(today) && (len(dates) == 0 || rt.NextOccurrence.Before(dates[0])) {
			dates = append([]time.Time{rt.NextOccurrence}, dates...)
		}
		for _, d := range dates {
			if rt.EndDate != nil && d.After(*rt.EndDate) {
				break
			}
			upcoming = append(upcoming, UpcomingOccurrence{
				RecurringID: rt.ID,
				Description: rt.Description,
				Amount:      rt.Amount,
				Type:        rt.Type,
				Frequency:   rt.Frequency,
				Date:        d,
			})
		}
	}

	sort.SliceStable(upcoming, func(i, j int) bool { return upcoming[i].Date.Before(upcoming[j].Date) })
	if len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming, nil
}

// Advance materializes every due occurrence of the user's active templates
// and moves their schedules past today. Each template is advanced in its own
// database transaction; failures are collected and do not stop the others.
// Calling Advance again on the same day is a no-op.
func (s *recurringService) Advance(ctx context.Context, userID string) (*AdvanceResult, error) {
	ctx, span := recurringTracer.Start(ctx, "recurring.Advance",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()
	start := time.Now()

	today := s.opts.Clock.Today()
	var ids []string
	if err := s.db.WithContext(ctx).Model(&models.RecurringTransaction{}).
		Where("user_id = ? AND is_active = ? AND next_occurrence <= ?", userID, true, today).
		Order("next_occurrence ASC").
		Pluck("id", &ids).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load due templates")
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := s.advanceTemplates(ctx, ids, today)

	span.SetAttributes(
		attribute.Int("recurring.due", len(ids)),
		attribute.Int("recurring.materialized", result.Materialized),
		attribute.Int("recurring.errors", len(result.Errors)),
	)
	if err := result.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "partial failure")
	}
	advanceDuration.Record(ctx, time.Since(start).Seconds())
	return result, nil
}

// AdvanceAll runs the advancer for every user with a due template.
func (s *recurringService) AdvanceAll(ctx context.Context) (*AdvanceResult, error) {
	ctx, span := recurringTracer.Start(ctx, "recurring.AdvanceAll")
	defer span.End()

	today := s.opts.Clock.Today()
	var userIDs []string
	if err := s.db.WithContext(ctx).Model(&models.RecurringTransaction{}).
		Where("is_active = ? AND next_occurrence <= ?", true, today).
		Distinct("user_id").
		Pluck("user_id", &userIDs).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load users")
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	total := newAdvanceResult()
	for _, userID := range userIDs {
		res, err := s.Advance(ctx, userID)
		if err != nil {
			total.addError("", err)
			continue
		}
		total.merge(res)
	}
	span.SetAttributes(attribute.Int("recurring.users", len(userIDs)))
	return total, nil
}

func (s *recurringService) advanceTemplates(ctx context.Context, ids []string, today time.Time) *AdvanceResult {
	log := logger.Named("recurring")
	result := newAdvanceResult()
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			result.addError(id, err)
			break
		}
		outcome, err := s.advanceOne(ctx, id, today)
		if err != nil {
			log.Warnw("failed to advance recurring transaction", "recurring_id", id, "error", err)
			advanceFailures.Add(ctx, 1)
			result.addError(id, err)
			continue
		}
		result.merge(outcome)
	}
	advanceMaterialized.Add(ctx, int64(result.Materialized))
	return result
}

// advanceOne advances a single template under a row lock and persists the
// new schedule with a compare-and-swap on next_occurrence.
func (s *recurringService) advanceOne(ctx context.Context, id string, today time.Time) (*AdvanceResult, error) {
	outcome := newAdvanceResult()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rt models.RecurringTransaction
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&rt).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errLostRace
			}
			return err
		}
		if !rt.IsActive || rt.NextOccurrence.After(today) {
			return errLostRace
		}

		plan, err := s.plan(&rt, today)
		if err != nil {
			return err
		}

		if rt.AutoCreate && rt.Amount > 0 {
			for _, occ := range plan.occurrences {
				inserted, err := s.materialize(tx, &rt, occ)
				if err != nil {
					return err
				}
				if inserted {
					outcome.Materialized++
				}
			}
		}

		updates := map[string]interface{}{
			"next_occurrence":  plan.next,
			"last_advanced_on": today,
		}
		if plan.deactivate {
			updates["is_active"] = false
		}
		res := tx.Model(&models.RecurringTransaction{}).
			Where("id = ? AND next_occurrence = ?", rt.ID, rt.NextOccurrence).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errLostRace
		}

		outcome.Processed = 1
		if plan.deactivate {
			outcome.Deactivated = 1
		}
		if plan.deferred {
			outcome.Deferred = 1
		}
		return nil
	})
	if errors.Is(err, errLostRace) {
		return newAdvanceResult(), nil
	}
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// plan walks the schedule from next_occurrence through today. Under the
// backfill policy at most MaxCatchUp occurrences are returned and the rest are
// left for the next run; under the latest policy only the most recent due
// occurrence is returned.
func (s *recurringService) plan(rt *models.RecurringTransaction, today time.Time) (*advancePlan, error) {
	rule, err := schedule.Rule(rt.Frequency, rt.StartDate)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidFrequency, err)
	}

	p := &advancePlan{}
	occ := schedule.Date(rt.NextOccurrence)
	for !occ.After(today) {
		if rt.EndDate != nil && occ.After(*rt.EndDate) {
			break
		}
		if s.opts.CatchUp == config.CatchUpBackfill && len(p.occurrences) == s.opts.MaxCatchUp {
			p.deferred = true
			break
		}
		p.occurrences = append(p.occurrences, occ)
		occ = rule.After(occ, false)
		if occ.IsZero() {
			p.deactivate = true
			break
		}
	}

	if s.opts.CatchUp == config.CatchUpLatest && len(p.occurrences) > 1 {
		p.occurrences = p.occurrences[len(p.occurrences)-1:]
	}

	p.next = occ
	if occ.IsZero() {
		p.next = rt.NextOccurrence
		if n := len(p.occurrences); n > 0 {
			p.next = p.occurrences[n-1]
		}
	}
	if rt.EndDate != nil && p.next.After(*rt.EndDate) {
		p.deactivate = true
	}
	return p, nil
}

// materialize inserts the transaction for one occurrence. The unique
// (recurring_id, occurrence_date) key makes a repeated insert a no-op, in
// which case the balance is not touched again.
func (s *recurringService) materialize(tx *gorm.DB, rt *models.RecurringTransaction, occ time.Time) (bool, error) {
	occurrence := occ
	recurringID := rt.ID
	t := &models.Transaction{
		UserID:         rt.UserID,
		AccountID:      rt.AccountID,
		CategoryID:     rt.CategoryID,
		Type:           rt.Type,
		Amount:         rt.Amount,
		Description:    rt.Description,
		Date:           occ,
		Status:         models.TransactionStatusCompleted,
		RecurringID:    &recurringID,
		OccurrenceDate: &occurrence,
	}

	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "recurring_id"}, {Name: "occurrence_date"}},
		DoNothing: true,
	}).Create(t)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	if t.AffectsBalance() {
		account, err := findAccount(tx, rt.UserID, *t.AccountID)
		if err != nil {
			return false, err
		}
		if err := s.accountService.UpdateAccountBalance(tx, account, t.Type, t.Amount); err != nil {
			return false, err
		}
	}
	return true, nil
}
