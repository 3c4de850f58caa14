package models

import "time"

// NetWorthSnapshot is a point-in-time record of a user's net worth.
// Snapshots form a per-user time series keyed by recorded_at.
type NetWorthSnapshot struct {
	Entry
	UserID         string    `gorm:"type:uuid;not null;uniqueIndex:uq_net_worth_snapshots_user_recorded" json:"user_id"`
	RecordedAt     time.Time `gorm:"not null;uniqueIndex:uq_net_worth_snapshots_user_recorded" json:"recorded_at"`
	TotalNetWorth  int64     `gorm:"type:bigint;not null" json:"total_net_worth"`
	Assets         int64     `gorm:"type:bigint;not null" json:"assets"`
	CreditCardDebt int64     `gorm:"type:bigint;not null" json:"credit_card_debt"`
	LoanDebt       int64     `gorm:"type:bigint;not null" json:"loan_debt"`
}
