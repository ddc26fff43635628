package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a deposit account. Balance carries 2-decimal money semantics
// and is only ever mutated through ledger-posting operations.
type Account struct {
	ID            int64           `json:"id" db:"id"`
	AccountNumber string          `json:"account_number" db:"account_number"`
	AccountName   string          `json:"account_name" db:"account_name"`
	Balance       decimal.Decimal `json:"balance" db:"balance"`
	CurrencyCode  string          `json:"currency_code" db:"currency_code"`
	UserID        int64           `json:"user_id" db:"user_id"`
	Status        Status          `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}
