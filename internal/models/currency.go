package models

import (
	"github.com/shopspring/decimal"
)

// Currency holds one row of the FX table. Rate is units of this currency
// per 1 USD; InverseRate is USD per 1 unit. For USD both are 1.
type Currency struct {
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Rate        decimal.Decimal `json:"rate"`
	InverseRate decimal.Decimal `json:"inverseRate"`
	Date        string          `json:"date,omitempty"`
}

// USD is the pivot currency for all cross-rate triangulation.
const USD = "USD"
