package models

// HighUtilizationThreshold is the utilization percentage above which a card
// is flagged.
const HighUtilizationThreshold = 30.0

// CreditCard tracks a revolving credit line. CurrentBalance is the amount owed.
type CreditCard struct {
	Base
	UserID              string   `gorm:"type:uuid;not null;index" json:"user_id"`
	Name                string   `gorm:"not null" json:"name"`
	LastFour            string   `gorm:"size:4" json:"last_four,omitempty"`
	Issuer              string   `json:"issuer,omitempty"`
	CreditLimit         int64    `gorm:"type:bigint;not null" json:"credit_limit"`
	CurrentBalance      int64    `gorm:"type:bigint;not null;default:0" json:"current_balance"`
	APR                 *float64 `json:"apr,omitempty"`
	PaymentDueDay       *int     `json:"payment_due_day,omitempty"`
	StatementClosingDay *int     `json:"statement_closing_day,omitempty"`
	Color               string   `json:"color,omitempty"`
	IsActive            bool     `gorm:"default:true" json:"is_active"`
}

// Utilization returns the used share of the credit limit as a percentage.
func (c *CreditCard) Utilization() float64 {
	if c.CreditLimit <= 0 {
		return 0
	}
	return float64(c.CurrentBalance) / float64(c.CreditLimit) * 100
}

// HighUtilization reports whether the card is above the recommended threshold.
func (c *CreditCard) HighUtilization() bool {
	return c.Utilization() > HighUtilizationThreshold
}
