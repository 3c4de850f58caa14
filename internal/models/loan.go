package models

import "time"

// LoanType represents the kind of loan
type LoanType string

const (
	LoanTypeMortgage LoanType = "mortgage"
	LoanTypePersonal LoanType = "personal"
	LoanTypeAuto     LoanType = "auto"
	LoanTypeStudent  LoanType = "student"
	LoanTypeOther    LoanType = "other"
)

// LoanStatus represents the lifecycle state of a loan
type LoanStatus string

const (
	LoanStatusActive    LoanStatus = "active"
	LoanStatusPaidOff   LoanStatus = "paid_off"
	LoanStatusDefaulted LoanStatus = "defaulted"
)

// Loan is an amortizing debt. CurrentBalance only decreases through recorded
// payments and stays within [0, OriginalAmount].
type Loan struct {
	Base
	UserID           string     `gorm:"type:uuid;not null;index" json:"user_id"`
	Name             string     `gorm:"not null" json:"name"`
	Type             LoanType   `gorm:"not null" json:"type"`
	OriginalAmount   int64      `gorm:"type:bigint;not null" json:"original_amount"`
	CurrentBalance   int64      `gorm:"type:bigint;not null" json:"current_balance"`
	InterestRate     float64    `gorm:"not null;default:0" json:"interest_rate"`
	PaymentAmount    int64      `gorm:"type:bigint;not null;default:0" json:"payment_amount"`
	PaymentFrequency Frequency  `gorm:"not null;default:'monthly'" json:"payment_frequency"`
	StartDate        time.Time  `gorm:"type:date;not null" json:"start_date"`
	EndDate          *time.Time `gorm:"type:date" json:"end_date,omitempty"`
	NextPaymentDate  *time.Time `gorm:"type:date" json:"next_payment_date,omitempty"`
	Lender           string     `json:"lender,omitempty"`
	Color            string     `json:"color,omitempty"`
	Status           LoanStatus `gorm:"not null;default:'active'" json:"status"`

	// Relationships
	Payments []LoanPayment `gorm:"foreignKey:LoanID" json:"payments,omitempty"`
}

// AmountPaid returns how much principal has been repaid so far.
func (l *Loan) AmountPaid() int64 {
	return l.OriginalAmount - l.CurrentBalance
}

// LoanPayment is an immutable ledger entry against a loan.
type LoanPayment struct {
	Entry
	UserID          string    `gorm:"type:uuid;not null;index;uniqueIndex:uq_loan_payments_idempotency" json:"user_id"`
	LoanID          string    `gorm:"type:uuid;not null;index" json:"loan_id"`
	AccountID       *string   `gorm:"type:uuid" json:"account_id,omitempty"`
	TransactionID   *string   `gorm:"type:uuid" json:"transaction_id,omitempty"`
	Amount          int64     `gorm:"type:bigint;not null" json:"amount"`
	PrincipalAmount int64     `gorm:"type:bigint;not null" json:"principal_amount"`
	InterestAmount  int64     `gorm:"type:bigint;not null" json:"interest_amount"`
	PaymentDate     time.Time `gorm:"type:date;not null" json:"payment_date"`
	Notes           string    `json:"notes,omitempty"`
	IdempotencyKey  *string   `gorm:"size:128;uniqueIndex:uq_loan_payments_idempotency" json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}
