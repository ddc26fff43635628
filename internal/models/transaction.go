package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType tags a ledger entry with its transaction kind. Each kind uses
// only the fields its constructor sets; everything else stays zero.
type EntryType string

const (
	EntryDeposit             EntryType = "Deposit"
	EntryWithdrawal          EntryType = "Withdrawal"
	EntryInternalTransferOut EntryType = "Internal Transfer - Outflow"
	EntryInternalTransferIn  EntryType = "Internal Transfer - Inflow"
	EntryExternalTransfer    EntryType = "External Transfer"
	EntryCCPurchase          EntryType = "CC Purchase"
	EntryCCPayment           EntryType = "CC Payment"
	EntryInitialDeposit      EntryType = "Initial Deposit"
)

// Entry is one immutable ledger record. Exactly one of AccountID or
// CreditCardID owns the entry; transfers own two entries referencing each
// other as counter-party.
type Entry struct {
	ID                     string          `json:"id" db:"id"`
	Type                   EntryType       `json:"type" db:"type"`
	Amount                 decimal.Decimal `json:"amount" db:"amount"`
	Cashback               decimal.Decimal `json:"cashback" db:"cashback"`
	AccountID              *int64          `json:"account_id,omitempty" db:"account_id"`
	AccountNumber          string          `json:"account_number,omitempty" db:"account_number"`
	CreditCardID           *int64          `json:"credit_card_id,omitempty" db:"credit_card_id"`
	RecipientAccountID     *int64          `json:"recipient_account_id,omitempty" db:"recipient_account_id"`
	RecipientAccountNumber string          `json:"recipient_account_number,omitempty" db:"recipient_account_number"`
	MerchantCategoryCode   *int            `json:"merchant_category_code,omitempty" db:"merchant_category_code"`
	CurrencyCode           string          `json:"currency_code" db:"currency_code"`
	Description            string          `json:"description" db:"description"`
	CreatedAt              time.Time       `json:"created_at" db:"created_at"`
}

// OwnedByAccount reports whether the owning instrument is a deposit account.
func (e *Entry) OwnedByAccount() bool {
	return e.AccountID != nil
}

// OwnedByCard reports whether the owning instrument is a credit card.
func (e *Entry) OwnedByCard() bool {
	return e.CreditCardID != nil
}

// NewAccountEntry builds a single-instrument entry (deposit, withdrawal or
// initial deposit) owned by an account.
func NewAccountEntry(id string, kind EntryType, account *Account, amount decimal.Decimal, currencyCode, description string, at time.Time) *Entry {
	return &Entry{
		ID:            id,
		Type:          kind,
		Amount:        amount,
		AccountID:     &account.ID,
		AccountNumber: account.AccountNumber,
		CurrencyCode:  currencyCode,
		Description:   description,
		CreatedAt:     at,
	}
}

// NewTransferPair builds the outflow/inflow pair for an internal transfer.
// Both entries carry the converted amount and reference the other side as
// counter-party.
func NewTransferPair(outID, inID string, from, to *Account, amount decimal.Decimal, currencyCode, description string, at time.Time) (out, in *Entry) {
	out = &Entry{
		ID:                     outID,
		Type:                   EntryInternalTransferOut,
		Amount:                 amount,
		AccountID:              &from.ID,
		AccountNumber:          from.AccountNumber,
		RecipientAccountID:     &to.ID,
		RecipientAccountNumber: to.AccountNumber,
		CurrencyCode:           currencyCode,
		Description:            description,
		CreatedAt:              at,
	}
	in = &Entry{
		ID:                     inID,
		Type:                   EntryInternalTransferIn,
		Amount:                 amount,
		AccountID:              &to.ID,
		AccountNumber:          to.AccountNumber,
		RecipientAccountID:     &from.ID,
		RecipientAccountNumber: from.AccountNumber,
		CurrencyCode:           currencyCode,
		Description:            description,
		CreatedAt:              at,
	}
	return out, in
}

// NewExternalTransferEntry builds the single outflow entry for a transfer
// leaving the bank. The destination number is stored raw; masking happens
// only on cross-account reads.
func NewExternalTransferEntry(id string, from *Account, amount decimal.Decimal, toAccountNumber, currencyCode, description string, at time.Time) *Entry {
	return &Entry{
		ID:                     id,
		Type:                   EntryExternalTransfer,
		Amount:                 amount,
		AccountID:              &from.ID,
		AccountNumber:          from.AccountNumber,
		RecipientAccountNumber: toAccountNumber,
		CurrencyCode:           currencyCode,
		Description:            description,
		CreatedAt:              at,
	}
}

// NewPurchaseEntry builds a card purchase entry. Cashback is already rounded
// to 2 decimals by the caller at the point it offsets the gross amount.
func NewPurchaseEntry(id string, card *CreditCard, amount, cashback decimal.Decimal, mcc int, currencyCode, description string, at time.Time) *Entry {
	return &Entry{
		ID:                   id,
		Type:                 EntryCCPurchase,
		Amount:               amount,
		Cashback:             cashback,
		CreditCardID:         &card.ID,
		MerchantCategoryCode: &mcc,
		CurrencyCode:         currencyCode,
		Description:          description,
		CreatedAt:            at,
	}
}

// NewPaymentEntry builds a card payment entry.
func NewPaymentEntry(id string, card *CreditCard, amount decimal.Decimal, currencyCode, description string, at time.Time) *Entry {
	return &Entry{
		ID:           id,
		Type:         EntryCCPayment,
		Amount:       amount,
		CreditCardID: &card.ID,
		CurrencyCode: currencyCode,
		Description:  description,
		CreatedAt:    at,
	}
}
