package services

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/bryantttp/bankingwebapp/internal/models"
)

// cardAccrual is the slice of CreditCardService the ledger needs: applying a
// posted purchase/payment entry to the owning card's running balance.
type cardAccrual interface {
	ApplyEntryTx(tx *sql.Tx, entry *models.Entry) error
}

// LedgerService owns the append-only record of monetary events. Entries are
// immutable once persisted; there is no UPDATE path. Posting is
// persist-if-absent: re-posting an existing id is a logged no-op.
type LedgerService struct {
	db      *sql.DB
	accrual cardAccrual
	audit   *AuditLogger
}

func NewLedgerService(db *sql.DB, accrual cardAccrual, audit *AuditLogger) *LedgerService {
	return &LedgerService{db: db, accrual: accrual, audit: audit}
}

const entryColumns = `t.id, t.type, t.amount, t.cashback, t.account_id, COALESCE(a.account_number, ''),
	       t.credit_card_id, t.recipient_account_id, COALESCE(t.recipient_account_number, ''),
	       t.merchant_category_code, t.currency_code, COALESCE(t.description, ''), t.created_at`

// PostTx persists an entry inside an open transaction, then applies card
// accrual for purchase/payment entries. A duplicate id is logged and
// swallowed so retried requests cannot double-post.
func (s *LedgerService) PostTx(tx *sql.Tx, entry *models.Entry) error {
	var exists bool
	err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM transactions WHERE id = $1)`, entry.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking for existing entry: %w", err)
	}
	if exists {
		log.Printf("[LEDGER] duplicate entry %s ignored", entry.ID)
		return nil
	}

	_, err = tx.Exec(`
		INSERT INTO transactions
		(id, type, amount, cashback, account_id, credit_card_id, recipient_account_id,
		 recipient_account_number, merchant_category_code, currency_code, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		entry.ID, string(entry.Type), entry.Amount, entry.Cashback,
		entry.AccountID, entry.CreditCardID, entry.RecipientAccountID,
		nullString(entry.RecipientAccountNumber), entry.MerchantCategoryCode,
		entry.CurrencyCode, entry.Description, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting ledger entry: %w", err)
	}

	if entry.OwnedByCard() && (entry.Type == models.EntryCCPurchase || entry.Type == models.EntryCCPayment) {
		if err := s.accrual.ApplyEntryTx(tx, entry); err != nil {
			return err
		}
	}
	return nil
}

// Post persists a single entry in its own transaction.
func (s *LedgerService) Post(entry *models.Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.PostTx(tx, entry); err != nil {
		return err
	}
	return tx.Commit()
}

// FindByAccount returns every entry owned by the account, newest first.
func (s *LedgerService) FindByAccount(accountID int64) ([]models.Entry, error) {
	return s.queryEntries(`
		SELECT `+entryColumns+`
		FROM transactions t
		LEFT JOIN accounts a ON t.account_id = a.id
		WHERE t.account_id = $1
		ORDER BY t.created_at DESC`, accountID)
}

// FindByCard returns every entry owned by the credit card, newest first.
func (s *LedgerService) FindByCard(cardID int64) ([]models.Entry, error) {
	return s.queryEntries(`
		SELECT `+entryColumns+`
		FROM transactions t
		LEFT JOIN accounts a ON t.account_id = a.id
		WHERE t.credit_card_id = $1
		ORDER BY t.created_at DESC`, cardID)
}

// FindByAccountForMonth returns the account's entries within a calendar month.
func (s *LedgerService) FindByAccountForMonth(accountID int64, year int, month time.Month) ([]models.Entry, error) {
	start, end := monthBounds(year, month)
	return s.queryEntries(`
		SELECT `+entryColumns+`
		FROM transactions t
		LEFT JOIN accounts a ON t.account_id = a.id
		WHERE t.account_id = $1 AND t.created_at >= $2 AND t.created_at < $3
		ORDER BY t.created_at DESC`, accountID, start, end)
}

// FindByCardForMonth returns the card's entries within a calendar month.
func (s *LedgerService) FindByCardForMonth(cardID int64, year int, month time.Month) ([]models.Entry, error) {
	start, end := monthBounds(year, month)
	return s.queryEntries(`
		SELECT `+entryColumns+`
		FROM transactions t
		LEFT JOIN accounts a ON t.account_id = a.id
		WHERE t.credit_card_id = $1 AND t.created_at >= $2 AND t.created_at < $3
		ORDER BY t.created_at DESC`, cardID, start, end)
}

// FindByCardBefore returns the card's entries dated strictly before cutoff,
// the statement-cut query used by the billing cycle.
func (s *LedgerService) FindByCardBefore(cardID int64, cutoff time.Time) ([]models.Entry, error) {
	return s.queryEntries(`
		SELECT `+entryColumns+`
		FROM transactions t
		LEFT JOIN accounts a ON t.account_id = a.id
		WHERE t.credit_card_id = $1 AND t.created_at < $2
		ORDER BY t.created_at ASC`, cardID, cutoff)
}

// FindByAccountOrRecipient returns every entry where the account is either
// side of a transfer. Counter-party account numbers are masked down to their
// last 3 digits before the entries leave the owning context; the account's
// own number is returned untouched.
func (s *LedgerService) FindByAccountOrRecipient(account *models.Account) ([]models.Entry, error) {
	entries, err := s.queryEntries(`
		SELECT `+entryColumns+`
		FROM transactions t
		LEFT JOIN accounts a ON t.account_id = a.id
		WHERE t.account_id = $1 OR t.recipient_account_id = $1
		ORDER BY t.created_at DESC`, account.ID)
	if err != nil {
		return nil, err
	}
	return maskCounterparties(entries, account.AccountNumber), nil
}

func (s *LedgerService) queryEntries(query string, args ...any) ([]models.Entry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying ledger: %w", err)
	}
	defer rows.Close()

	entries := []models.Entry{}
	for rows.Next() {
		var e models.Entry
		var accountID, cardID, recipientID sql.NullInt64
		var mcc sql.NullInt64
		err := rows.Scan(&e.ID, &e.Type, &e.Amount, &e.Cashback,
			&accountID, &e.AccountNumber, &cardID, &recipientID,
			&e.RecipientAccountNumber, &mcc, &e.CurrencyCode,
			&e.Description, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning ledger entry: %w", err)
		}
		if accountID.Valid {
			e.AccountID = &accountID.Int64
		}
		if cardID.Valid {
			e.CreditCardID = &cardID.Int64
		}
		if recipientID.Valid {
			e.RecipientAccountID = &recipientID.Int64
		}
		if mcc.Valid {
			code := int(mcc.Int64)
			e.MerchantCategoryCode = &code
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// maskCounterparties rewrites every account number that is not the caller's
// own to ***-***-XYZ form.
func maskCounterparties(entries []models.Entry, ownNumber string) []models.Entry {
	for i := range entries {
		if entries[i].AccountNumber != "" && entries[i].AccountNumber != ownNumber {
			entries[i].AccountNumber = maskAccountNumber(entries[i].AccountNumber)
		}
		if entries[i].RecipientAccountNumber != "" && entries[i].RecipientAccountNumber != ownNumber {
			entries[i].RecipientAccountNumber = maskAccountNumber(entries[i].RecipientAccountNumber)
		}
	}
	return entries
}

func maskAccountNumber(number string) string {
	if len(number) <= 3 {
		return "***-***-" + number
	}
	return "***-***-" + number[len(number)-3:]
}

func monthBounds(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
