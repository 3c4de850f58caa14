package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// Category represents a transaction category. System categories are seeded
// for every user and cannot be edited or deleted.
type Category struct {
	Base
	UserID   string       `gorm:"type:uuid;not null;index" json:"user_id"`
	Name     string       `gorm:"not null" json:"name"`
	Type     CategoryType `gorm:"not null" json:"type"`
	Color    string       `json:"color,omitempty"`
	Icon     string       `json:"icon,omitempty"`
	IsSystem bool         `gorm:"default:false" json:"is_system"`
}
