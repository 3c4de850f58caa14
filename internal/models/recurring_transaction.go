package models

import "time"

// Frequency is the cadence of a recurring transaction or loan payment.
type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// Valid reports whether f is a supported frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly,
		FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// RecurringTransaction is a template that produces transactions on a schedule.
//
// NextOccurrence is the next date the template is due. It starts at StartDate
// and only the advancer moves it forward; user edits never touch it.
type RecurringTransaction struct {
	Base
	UserID         string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Description    string          `gorm:"not null" json:"description"`
	Amount         int64           `gorm:"type:bigint;not null" json:"amount"`
	Type           TransactionType `gorm:"not null" json:"type"`
	AccountID      *string         `gorm:"type:uuid" json:"account_id,omitempty"`
	CategoryID     *string         `gorm:"type:uuid" json:"category_id,omitempty"`
	Frequency      Frequency       `gorm:"not null" json:"frequency"`
	StartDate      time.Time       `gorm:"type:date;not null" json:"start_date"`
	EndDate        *time.Time      `gorm:"type:date" json:"end_date,omitempty"`
	NextOccurrence time.Time       `gorm:"type:date;not null;index" json:"next_occurrence"`
	AutoCreate     bool            `gorm:"not null;default:false" json:"auto_create"`
	IsActive       bool            `gorm:"not null;default:true" json:"is_active"`
	LastAdvancedOn *time.Time      `gorm:"type:date" json:"last_advanced_on,omitempty"`

	// Relationships
	Account  *Account  `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
