package models

import "time"

// BudgetPeriod represents the period type for a budget
type BudgetPeriod string

const (
	BudgetPeriodMonthly BudgetPeriod = "monthly"
	BudgetPeriodYearly  BudgetPeriod = "yearly"
)

// Budget caps spending for a category over a repeating period.
// A budget without a category tracks all expenses.
type Budget struct {
	Base
	UserID          string       `gorm:"type:uuid;not null;index" json:"user_id"`
	CategoryID      *string      `gorm:"type:uuid" json:"category_id,omitempty"`
	Name            string       `gorm:"not null" json:"name"`
	Amount          int64        `gorm:"type:bigint;not null" json:"amount"`
	Period          BudgetPeriod `gorm:"not null" json:"period"`
	StartDate       time.Time    `gorm:"type:date;not null" json:"start_date"`
	EndDate         *time.Time   `gorm:"type:date" json:"end_date,omitempty"`
	AlertPercentage int          `gorm:"not null;default:80" json:"alert_percentage"`
	IsActive        bool         `gorm:"default:true" json:"is_active"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
