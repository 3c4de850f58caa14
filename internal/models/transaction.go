package models

import "time"

// TransactionType represents the direction of a transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// TransactionStatus represents the settlement state of a transaction.
// Only completed transactions move account balances.
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// Transaction represents a single income or expense entry.
//
// Transactions materialized from a recurring template carry the template ID
// and the occurrence date; the pair is unique so an occurrence is recorded once.
type Transaction struct {
	Base
	UserID         string            `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID      *string           `gorm:"type:uuid;index" json:"account_id,omitempty"`
	CategoryID     *string           `gorm:"type:uuid" json:"category_id,omitempty"`
	Type           TransactionType   `gorm:"not null" json:"type"`
	Amount         int64             `gorm:"type:bigint;not null" json:"amount"`
	Description    string            `gorm:"not null" json:"description"`
	Date           time.Time         `gorm:"type:date;not null;index" json:"date"`
	Status         TransactionStatus `gorm:"not null;default:'completed'" json:"status"`
	Payee          string            `json:"payee,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	RecurringID    *string           `gorm:"type:uuid;uniqueIndex:uq_transactions_recurring_occurrence" json:"recurring_id,omitempty"`
	OccurrenceDate *time.Time        `gorm:"type:date;uniqueIndex:uq_transactions_recurring_occurrence" json:"occurrence_date,omitempty"`

	// Relationships
	Account  *Account  `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// AffectsBalance reports whether the transaction moves its account balance.
func (t *Transaction) AffectsBalance() bool {
	return t.AccountID != nil && t.Status == TransactionStatusCompleted
}
