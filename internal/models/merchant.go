package models

// MerchantCategory is a cashback and reporting dimension on card purchases.
type MerchantCategory struct {
	CodeNumber int    `json:"code_number" db:"code_number"`
	Category   string `json:"category" db:"category"`
}

const (
	MCCDining    = 1000
	MCCShopping  = 1001
	MCCTransport = 1002
	MCCTravel    = 1003
	MCCBill      = 1004
	MCCInterest  = 1005
)

// DefaultMerchantCategories is the seed table loaded at startup.
var DefaultMerchantCategories = []MerchantCategory{
	{CodeNumber: MCCDining, Category: "Dining"},
	{CodeNumber: MCCShopping, Category: "Shopping"},
	{CodeNumber: MCCTransport, Category: "Transport"},
	{CodeNumber: MCCTravel, Category: "Travel"},
	{CodeNumber: MCCBill, Category: "Bill"},
	{CodeNumber: MCCInterest, Category: "Interest"},
}
