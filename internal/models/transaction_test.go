package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewTransferPair(t *testing.T) {
	from := &Account{ID: 1, AccountNumber: "111-222-333"}
	to := &Account{ID: 2, AccountNumber: "444-555-666"}
	at := time.Now()

	out, in := NewTransferPair("out-id", "in-id", from, to, decimal.NewFromInt(75), "USD", "USD 75.00", at)

	assert.Equal(t, EntryInternalTransferOut, out.Type)
	assert.Equal(t, EntryInternalTransferIn, in.Type)

	// each side carries the other as counter-party
	assert.Equal(t, from.ID, *out.AccountID)
	assert.Equal(t, to.ID, *out.RecipientAccountID)
	assert.Equal(t, to.AccountNumber, out.RecipientAccountNumber)
	assert.Equal(t, to.ID, *in.AccountID)
	assert.Equal(t, from.ID, *in.RecipientAccountID)
	assert.Equal(t, from.AccountNumber, in.RecipientAccountNumber)

	assert.True(t, out.Amount.Equal(in.Amount))
	assert.True(t, out.OwnedByAccount())
	assert.False(t, out.OwnedByCard())
}

func TestNewPurchaseEntry(t *testing.T) {
	card := &CreditCard{ID: 7, CardNumber: "1111-2222-3333-4444"}
	entry := NewPurchaseEntry("e1", card, decimal.NewFromInt(200), decimal.NewFromInt(4),
		MCCDining, "USD", "dinner", time.Now())

	assert.Equal(t, EntryCCPurchase, entry.Type)
	assert.True(t, entry.OwnedByCard())
	assert.False(t, entry.OwnedByAccount())
	assert.Equal(t, MCCDining, *entry.MerchantCategoryCode)
	assert.Equal(t, "4", entry.Cashback.String())
}

func TestAvailableCredit(t *testing.T) {
	card := &CreditCard{
		CardLimit:  decimal.NewFromInt(1000),
		AmountUsed: decimal.NewFromFloat(249.5),
	}
	assert.Equal(t, "750.5", card.AvailableCredit().String())
}
