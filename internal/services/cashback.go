package services

import (
	"github.com/bryantttp/bankingwebapp/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ultimateCashbackRate = decimal.NewFromFloat(0.02)
	swipeSmartRate       = decimal.NewFromFloat(0.015)
)

// CashbackFor returns the cashback earned on a purchase of amount with the
// given card product and merchant category. Pure: no lookups, no state.
//
// The result is not rounded here; the caller rounds to 2 decimals at the
// point the cashback offsets the gross amount.
func CashbackFor(cardType string, category models.MerchantCategory, amount decimal.Decimal) decimal.Decimal {
	switch cardType {
	case models.CardTypeUltimateCashback:
		if category.Category == "Dining" {
			return amount.Mul(ultimateCashbackRate)
		}
	case models.CardTypeSwipeSmart:
		if category.CodeNumber != models.MCCInterest {
			return amount.Mul(swipeSmartRate)
		}
	}
	return decimal.Zero
}
