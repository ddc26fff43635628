package services

import "errors"

// Business-rule rejections are returned as typed values so the request layer
// can map them to user-facing messages; only store failures travel as
// wrapped infrastructure errors.
var (
	ErrCurrencyNotFound        = errors.New("currency not found")
	ErrAccountNotFound         = errors.New("account not found")
	ErrCardNotFound            = errors.New("credit card not found")
	ErrMerchantCategoryUnknown = errors.New("merchant category not found")
	ErrNonPositiveAmount       = errors.New("amount must be positive")
	ErrSameAccount             = errors.New("cannot transfer to the same account")
	ErrInsufficientBalance     = errors.New("insufficient balance")
	ErrRecipientAccountPending = errors.New("recipient account is still pending")
	ErrAccountNotApproved      = errors.New("account is not approved")
	ErrCardNotApproved         = errors.New("credit card is not approved")
	ErrCardOverLimit           = errors.New("purchase exceeds credit card limit")
	ErrDuplicateEntry          = errors.New("ledger entry already exists")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)
