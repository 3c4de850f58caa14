package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/schedule"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db             *gorm.DB
	accountService AccountServicer
	clock          Clock
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, accountService AccountServicer, clock Clock) TransactionServicer {
	return &transactionService{
		db:             db,
		accountService: accountService,
		clock:          clock,
	}
}

// CreateTransaction records a transaction and, when it is completed and
// attached to an account, applies it to the account balance.
func (s *transactionService) CreateTransaction(userID string, in TransactionInput) (*models.Transaction, error) {
	if in.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if in.Type != models.TransactionTypeIncome && in.Type != models.TransactionTypeExpense {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if in.Description == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
	}
	if in.Status == "" {
		in.Status = models.TransactionStatusCompleted
	}
	if in.Date.IsZero() {
		in.Date = s.clock.Today()
	}

	if in.AccountID != nil {
		if _, err := findAccount(s.db, userID, *in.AccountID); err != nil {
			return nil, err
		}
	}
	if in.CategoryID != nil {
		if _, err := findCategory(s.db, userID, *in.CategoryID); err != nil {
			return nil, err
		}
	}

	transaction := &models.Transaction{
		UserID:      userID,
		AccountID:   in.AccountID,
		CategoryID:  in.CategoryID,
		Type:        in.Type,
		Amount:      in.Amount,
		Description: in.Description,
		Date:        schedule.Date(in.Date),
		Status:      in.Status,
		Payee:       in.Payee,
		Notes:       in.Notes,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.applyBalance(tx, userID, transaction, transaction.Type)
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// applyBalance moves the balance of the transaction's account by the
// transaction amount in the direction of txType. Transactions without an
// account, or not completed, leave balances untouched.
func (s *transactionService) applyBalance(tx *gorm.DB, userID string, t *models.Transaction, txType models.TransactionType) error {
	if !t.AffectsBalance() {
		return nil
	}
	account, err := findAccount(tx, userID, *t.AccountID)
	if err != nil {
		return err
	}
	return s.accountService.UpdateAccountBalance(tx, account, txType, t.Amount)
}

// GetUserTransactions retrieves a paginated, filtered list of a user's transactions.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Preload("Category").Preload("Account").
		Scopes(pagination.Paginate(page)).
		Order("date DESC, created_at DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", schedule.Date(*f.FromDate))
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", schedule.Date(*f.ToDate))
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.AccountID != nil {
		q = q.Where("account_id = ?", *f.AccountID)
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	return q
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	return findTransaction(s.db, userID, transactionID)
}

func findTransaction(db *gorm.DB, userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := db.Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction edits a transaction. The old balance effect is reversed
// and the new one applied in the same database transaction.
func (s *transactionService) UpdateTransaction(userID, transactionID string, in TransactionUpdate) (*models.Transaction, error) {
	var updated *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		old, err := findTransaction(tx, userID, transactionID)
		if err != nil {
			return err
		}
		next := *old

		switch {
		case in.ClearAccount:
			next.AccountID = nil
		case in.AccountID != nil:
			if _, err := findAccount(tx, userID, *in.AccountID); err != nil {
				return err
			}
			next.AccountID = in.AccountID
		}
		switch {
		case in.ClearCategory:
			next.CategoryID = nil
		case in.CategoryID != nil:
			if _, err := findCategory(tx, userID, *in.CategoryID); err != nil {
				return err
			}
			next.CategoryID = in.CategoryID
		}
		if in.Type != nil {
			if *in.Type != models.TransactionTypeIncome && *in.Type != models.TransactionTypeExpense {
				return apperrors.ErrInvalidTransactionType
			}
			next.Type = *in.Type
		}
		if in.Status != nil {
			next.Status = *in.Status
		}
		if in.Amount != nil {
			if *in.Amount <= 0 {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
			}
			next.Amount = *in.Amount
		}
		if in.Description != nil && *in.Description != "" {
			next.Description = *in.Description
		}
		if in.Payee != nil {
			next.Payee = *in.Payee
		}
		if in.Notes != nil {
			next.Notes = *in.Notes
		}
		if in.Date != nil {
			next.Date = schedule.Date(*in.Date)
		}

		if err := s.applyBalance(tx, userID, old, reverseType(old.Type)); err != nil {
			return err
		}
		if err := tx.Model(old).Select(
			"account_id", "category_id", "type", "status", "amount",
			"description", "payee", "notes", "date",
		).Updates(&next).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.applyBalance(tx, userID, &next, next.Type); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTransaction soft-deletes a transaction and reverses its balance effect.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		transaction, err := findTransaction(tx, userID, transactionID)
		if err != nil {
			return err
		}

		if err := tx.Delete(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		return s.applyBalance(tx, userID, transaction, reverseType(transaction.Type))
	})
}
