package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Card products. The product determines which cashback rule applies.
const (
	CardTypeUltimateCashback = "Ultimate Cashback Card"
	CardTypeSwipeSmart       = "SwipeSmart Platinum Card"
)

// CreditCard tracks a revolving credit line.
//
// AmountUsed is the running outstanding balance: it grows with purchases net
// of cashback and shrinks with payments. MonthlyBalance is the statement
// snapshot taken by the billing cycle. MinBalancePaid is the minimum-due
// carry-over from the last statement; negative means overpaid and no further
// minimum is owed. LastBilledPeriod ("YYYY-MM") stamps the last billing run
// so a cycle is never applied twice for the same month.
type CreditCard struct {
	ID               int64           `json:"id" db:"id"`
	CardNumber       string          `json:"card_number" db:"card_number"`
	PINHash          string          `json:"-" db:"pin_hash"`
	CardLimit        decimal.Decimal `json:"card_limit" db:"card_limit"`
	CardType         string          `json:"card_type" db:"card_type"`
	CurrencyCode     string          `json:"currency_code" db:"currency_code"`
	AmountUsed       decimal.Decimal `json:"amount_used" db:"amount_used"`
	MonthlyBalance   decimal.Decimal `json:"monthly_balance" db:"monthly_balance"`
	MinBalancePaid   decimal.Decimal `json:"min_balance_paid" db:"min_balance_paid"`
	Interest         decimal.Decimal `json:"interest" db:"interest"`
	Status           Status          `json:"status" db:"status"`
	UserID           int64           `json:"user_id" db:"user_id"`
	LastBilledPeriod string          `json:"last_billed_period" db:"last_billed_period"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// AvailableCredit is the headroom left under the card limit.
func (c *CreditCard) AvailableCredit() decimal.Decimal {
	return c.CardLimit.Sub(c.AmountUsed)
}
