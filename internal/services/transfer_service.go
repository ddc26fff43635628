package services

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/bryantttp/bankingwebapp/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferRequest is an account-to-account money movement. The destination
// may be an internal account number or an external one; which it is gets
// decided by lookup, not by the caller.
type TransferRequest struct {
	AccountID       int64           `json:"account_id" validate:"required"`
	Amount          decimal.Decimal `json:"amount" validate:"required"`
	CurrencyCode    string          `json:"currency_code" validate:"required,len=3"`
	ToAccountNumber string          `json:"to_account_number" validate:"required"`
}

// TransferResult reports what a transfer did.
type TransferResult struct {
	OutflowEntryID string          `json:"outflow_entry_id"`
	InflowEntryID  string          `json:"inflow_entry_id,omitempty"`
	External       bool            `json:"external"`
	DebitedAmount  decimal.Decimal `json:"debited_amount"`
}

// DepositRequest credits an account. Initial marks the opening deposit of a
// new account.
type DepositRequest struct {
	AccountID    int64           `json:"account_id" validate:"required"`
	Amount       decimal.Decimal `json:"amount" validate:"required"`
	CurrencyCode string          `json:"currency_code" validate:"required,len=3"`
	Initial      bool            `json:"initial"`
}

// WithdrawalRequest debits an account.
type WithdrawalRequest struct {
	AccountID    int64           `json:"account_id" validate:"required"`
	Amount       decimal.Decimal `json:"amount" validate:"required"`
	CurrencyCode string          `json:"currency_code" validate:"required,len=3"`
}

// PurchaseRequest charges a credit card at a merchant.
type PurchaseRequest struct {
	CardNumber           string          `json:"card_number" validate:"required"`
	Amount               decimal.Decimal `json:"amount" validate:"required"`
	CurrencyCode         string          `json:"currency_code" validate:"required,len=3"`
	MerchantCategoryCode int             `json:"merchant_category_code" validate:"required"`
	Description          string          `json:"description" validate:"max=200"`
}

// PaymentRequest pays a credit card from a deposit account.
type PaymentRequest struct {
	AccountID    int64           `json:"account_id" validate:"required"`
	CardNumber   string          `json:"card_number" validate:"required"`
	Amount       decimal.Decimal `json:"amount" validate:"required"`
	CurrencyCode string          `json:"currency_code" validate:"required,len=3"`
}

// TransferService validates and executes money movement: transfers between
// accounts, deposits, withdrawals, card purchases and card payments. Every
// operation runs its balance mutations and ledger posts as one unit of work.
type TransferService struct {
	db         *sql.DB
	rates      *RateService
	accounts   *AccountService
	cards      *CreditCardService
	ledger     *LedgerService
	settlement *SettlementService
	audit      *AuditLogger
	clock      Clock
}

func NewTransferService(db *sql.DB, rates *RateService, accounts *AccountService,
	cards *CreditCardService, ledger *LedgerService, settlement *SettlementService,
	audit *AuditLogger, clock Clock) *TransferService {
	return &TransferService{
		db:         db,
		rates:      rates,
		accounts:   accounts,
		cards:      cards,
		ledger:     ledger,
		settlement: settlement,
		audit:      audit,
		clock:      clock,
	}
}

// Transfer moves money out of an account. Validation order is fixed: self
// transfer, then insufficient balance, then pending recipient; the first
// failing check wins and nothing is mutated. A resolved recipient makes an
// internal transfer with a paired outflow/inflow; an unknown number makes an
// external transfer with a single outflow entry and a settlement message
// sent after commit.
func (s *TransferService) Transfer(req TransferRequest) (*TransferResult, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrNonPositiveAmount
	}
	toNumber := strings.ReplaceAll(strings.TrimSpace(req.ToAccountNumber), " ", "-")

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Resolve the recipient id first so both rows can be locked in
	// ascending id order, the same deadlock avoidance as any paired
	// balance update.
	recipientID, err := s.resolveAccountID(tx, toNumber)
	if err != nil {
		return nil, err
	}

	var from, recipient *models.Account
	if recipientID != 0 && recipientID < req.AccountID {
		recipient, err = s.accounts.LockByIDTx(tx, recipientID)
		if err != nil {
			return nil, err
		}
		from, err = s.accounts.LockByIDTx(tx, req.AccountID)
		if err != nil {
			return nil, err
		}
	} else {
		from, err = s.accounts.LockByIDTx(tx, req.AccountID)
		if err != nil {
			return nil, err
		}
		if recipientID != 0 {
			recipient, err = s.accounts.LockByIDTx(tx, recipientID)
			if err != nil {
				return nil, err
			}
		}
	}

	if from.AccountNumber == toNumber {
		log.Printf("[TRANSFER] attempted self transfer on account %s", from.AccountNumber)
		return nil, ErrSameAccount
	}

	converted, err := s.rates.Convert(req.Amount, req.CurrencyCode, from.CurrencyCode)
	if err != nil {
		return nil, err
	}
	if from.Balance.LessThan(converted) {
		log.Printf("[TRANSFER] insufficient balance on account %s: %s < %s",
			from.AccountNumber, from.Balance.StringFixed(2), converted.StringFixed(2))
		return nil, ErrInsufficientBalance
	}

	description := s.transferDescription(req.Amount, req.CurrencyCode, from.CurrencyCode)
	now := s.clock.Now()

	if recipient != nil {
		if recipient.Status == models.StatusPending {
			log.Printf("[TRANSFER] recipient account %s is still pending", recipient.AccountNumber)
			return nil, ErrRecipientAccountPending
		}

		if err := s.accounts.SetBalanceTx(tx, from.ID, from.Balance.Sub(converted)); err != nil {
			return nil, err
		}
		if err := s.accounts.SetBalanceTx(tx, recipient.ID, recipient.Balance.Add(converted)); err != nil {
			return nil, err
		}

		out, in := models.NewTransferPair(uuid.New().String(), uuid.New().String(),
			from, recipient, converted, req.CurrencyCode, description, now)
		if err := s.ledger.PostTx(tx, out); err != nil {
			return nil, err
		}
		if err := s.ledger.PostTx(tx, in); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}

		s.audit.LogTransfer(out.ID, from.AccountNumber, recipient.AccountNumber, converted, "SUCCESS")
		log.Printf("[TRANSFER] internal transfer %s -> %s for %s %s",
			from.AccountNumber, recipient.AccountNumber, from.CurrencyCode, converted.StringFixed(2))
		return &TransferResult{
			OutflowEntryID: out.ID,
			InflowEntryID:  in.ID,
			DebitedAmount:  converted,
		}, nil
	}

	// External transfer: debit only, destination number kept raw on the
	// entry.
	if err := s.accounts.SetBalanceTx(tx, from.ID, from.Balance.Sub(converted)); err != nil {
		return nil, err
	}
	out := models.NewExternalTransferEntry(uuid.New().String(), from, converted,
		toNumber, req.CurrencyCode, description, now)
	if err := s.ledger.PostTx(tx, out); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.audit.LogTransfer(out.ID, from.AccountNumber, toNumber, converted, "SUCCESS")
	log.Printf("[TRANSFER] external transfer %s -> %s for %s %s",
		from.AccountNumber, toNumber, from.CurrencyCode, converted.StringFixed(2))

	// Settlement messaging happens after commit and never rolls back the
	// transfer.
	if err := s.settlement.SendExternalTransfer(out); err != nil {
		log.Printf("[TRANSFER] settlement send failed for %s: %v", out.ID, err)
		s.audit.LogError(out.ID, from.AccountNumber, err)
	}

	return &TransferResult{
		OutflowEntryID: out.ID,
		External:       true,
		DebitedAmount:  converted,
	}, nil
}

// Deposit credits an account and records the matching ledger entry.
func (s *TransferService) Deposit(req DepositRequest) (string, error) {
	if !req.Amount.IsPositive() {
		return "", ErrNonPositiveAmount
	}
	tx, err := s.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	account, err := s.accounts.LockByIDTx(tx, req.AccountID)
	if err != nil {
		return "", err
	}
	if account.Status != models.StatusApproved {
		return "", ErrAccountNotApproved
	}

	converted, err := s.rates.Convert(req.Amount, req.CurrencyCode, account.CurrencyCode)
	if err != nil {
		return "", err
	}

	if err := s.accounts.SetBalanceTx(tx, account.ID, account.Balance.Add(converted)); err != nil {
		return "", err
	}

	kind := models.EntryDeposit
	if req.Initial {
		kind = models.EntryInitialDeposit
	}
	entry := models.NewAccountEntry(uuid.New().String(), kind, account, converted,
		req.CurrencyCode, s.transferDescription(req.Amount, req.CurrencyCode, account.CurrencyCode), s.clock.Now())
	if err := s.ledger.PostTx(tx, entry); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}

	log.Printf("[DEPOSIT] account %s credited %s %s", account.AccountNumber,
		account.CurrencyCode, converted.StringFixed(2))
	return entry.ID, nil
}

// Withdraw debits an account after an insufficient-balance check.
func (s *TransferService) Withdraw(req WithdrawalRequest) (string, error) {
	if !req.Amount.IsPositive() {
		return "", ErrNonPositiveAmount
	}
	tx, err := s.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	account, err := s.accounts.LockByIDTx(tx, req.AccountID)
	if err != nil {
		return "", err
	}

	converted, err := s.rates.Convert(req.Amount, req.CurrencyCode, account.CurrencyCode)
	if err != nil {
		return "", err
	}
	if account.Balance.LessThan(converted) {
		return "", ErrInsufficientBalance
	}

	if err := s.accounts.SetBalanceTx(tx, account.ID, account.Balance.Sub(converted)); err != nil {
		return "", err
	}
	entry := models.NewAccountEntry(uuid.New().String(), models.EntryWithdrawal, account, converted,
		req.CurrencyCode, s.transferDescription(req.Amount, req.CurrencyCode, account.CurrencyCode), s.clock.Now())
	if err := s.ledger.PostTx(tx, entry); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}

	log.Printf("[WITHDRAWAL] account %s debited %s %s", account.AccountNumber,
		account.CurrencyCode, converted.StringFixed(2))
	return entry.ID, nil
}

// Purchase authorizes a card purchase, computes cashback and posts the entry.
// Cashback is rounded to 2 decimals here, the point it offsets the gross
// amount, never earlier.
func (s *TransferService) Purchase(req PurchaseRequest) (string, error) {
	if !req.Amount.IsPositive() {
		return "", ErrNonPositiveAmount
	}
	category, err := MerchantCategoryByNumber(req.MerchantCategoryCode)
	if err != nil {
		return "", err
	}
	card, err := s.cards.FindByNumber(req.CardNumber)
	if err != nil {
		return "", err
	}

	converted, err := s.rates.Convert(req.Amount, req.CurrencyCode, card.CurrencyCode)
	if err != nil {
		return "", err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	card, err = s.cards.LockTx(tx, card.ID)
	if err != nil {
		return "", err
	}

	cashback := CashbackFor(card.CardType, category, converted).Round(2)
	if err := s.cards.Authorize(card, converted.Sub(cashback)); err != nil {
		return "", err
	}

	entry := models.NewPurchaseEntry(uuid.New().String(), card, converted, cashback,
		category.CodeNumber, card.CurrencyCode, req.Description, s.clock.Now())
	if err := s.ledger.PostTx(tx, entry); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}

	s.audit.LogCardEvent("CC_PURCHASE", entry.ID, card.CardNumber, converted, "SUCCESS")
	return entry.ID, nil
}

// PayCard moves money from a deposit account onto a credit card. The funding
// account is debited in its own currency; the payment entry is recorded in
// the card's currency.
func (s *TransferService) PayCard(req PaymentRequest) (string, error) {
	if !req.Amount.IsPositive() {
		return "", ErrNonPositiveAmount
	}
	card, err := s.cards.FindByNumber(req.CardNumber)
	if err != nil {
		return "", err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	account, err := s.accounts.LockByIDTx(tx, req.AccountID)
	if err != nil {
		return "", err
	}

	debit, err := s.rates.Convert(req.Amount, req.CurrencyCode, account.CurrencyCode)
	if err != nil {
		return "", err
	}
	if account.Balance.LessThan(debit) {
		return "", ErrInsufficientBalance
	}
	payment, err := s.rates.Convert(req.Amount, req.CurrencyCode, card.CurrencyCode)
	if err != nil {
		return "", err
	}

	if err := s.accounts.SetBalanceTx(tx, account.ID, account.Balance.Sub(debit)); err != nil {
		return "", err
	}
	description := fmt.Sprintf("Payment from account %s", account.AccountNumber)
	entry := models.NewPaymentEntry(uuid.New().String(), card, payment, card.CurrencyCode,
		description, s.clock.Now())
	if err := s.ledger.PostTx(tx, entry); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}

	s.audit.LogCardEvent("CC_PAYMENT", entry.ID, card.CardNumber, payment, "SUCCESS")
	return entry.ID, nil
}

func (s *TransferService) resolveAccountID(tx *sql.Tx, accountNumber string) (int64, error) {
	var id int64
	err := tx.QueryRow(`SELECT id FROM accounts WHERE account_number = $1`, accountNumber).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("resolving recipient account: %w", err)
	}
	return id, nil
}

// transferDescription records the original amount and, for cross-currency
// movements, the rate applied.
func (s *TransferService) transferDescription(amount decimal.Decimal, fromCcy, toCcy string) string {
	if fromCcy == toCcy {
		return fmt.Sprintf("%s %s", fromCcy, amount.StringFixed(2))
	}
	rate, err := s.rates.Rate(fromCcy, toCcy)
	if err != nil {
		return fmt.Sprintf("%s %s", fromCcy, amount.StringFixed(2))
	}
	return fmt.Sprintf("%s %s, Exchange Rate %s:%s is %s",
		fromCcy, amount.StringFixed(2), fromCcy, toCcy, rate.StringFixed(3))
}
