package services

import (
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/bryantttp/bankingwebapp/internal/models"
	"github.com/shopspring/decimal"
)

// AccountService loads and saves deposit accounts. Balance mutations happen
// inside the caller's transaction alongside the ledger post that records
// them; this service never decides a balance change on its own.
type AccountService struct {
	db *sql.DB
}

func NewAccountService(db *sql.DB) *AccountService {
	return &AccountService{db: db}
}

const accountColumns = `id, account_number, account_name, balance, currency_code, user_id, status, created_at, updated_at`

// FindByID loads an account by id.
func (s *AccountService) FindByID(id int64) (*models.Account, error) {
	row := s.db.QueryRow(`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// FindByNumber loads an account by its account number.
func (s *AccountService) FindByNumber(number string) (*models.Account, error) {
	row := s.db.QueryRow(`SELECT `+accountColumns+` FROM accounts WHERE account_number = $1`, number)
	return scanAccount(row)
}

// FindByUser returns every account owned by a user.
func (s *AccountService) FindByUser(userID int64) ([]models.Account, error) {
	rows, err := s.db.Query(`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying accounts by user: %w", err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

// LockByIDTx loads an account with a row lock inside the caller's transaction.
func (s *AccountService) LockByIDTx(tx *sql.Tx, id int64) (*models.Account, error) {
	row := tx.QueryRow(`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
	return scanAccount(row)
}

// LockByNumberTx loads an account by number with a row lock inside the
// caller's transaction.
func (s *AccountService) LockByNumberTx(tx *sql.Tx, number string) (*models.Account, error) {
	row := tx.QueryRow(`SELECT `+accountColumns+` FROM accounts WHERE account_number = $1 FOR UPDATE`, number)
	return scanAccount(row)
}

// SetBalanceTx writes an already-decided balance inside the caller's
// transaction.
func (s *AccountService) SetBalanceTx(tx *sql.Tx, accountID int64, balance decimal.Decimal) error {
	_, err := tx.Exec(`UPDATE accounts SET balance = $1, updated_at = $2 WHERE id = $3`,
		balance, time.Now(), accountID)
	if err != nil {
		return fmt.Errorf("updating balance for account %d: %w", accountID, err)
	}
	return nil
}

// ChangeStatus moves an account through its lifecycle, rejecting transitions
// the state machine does not allow.
func (s *AccountService) ChangeStatus(accountID int64, next models.Status) error {
	account, err := s.FindByID(accountID)
	if err != nil {
		return err
	}
	if !account.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, account.Status, next)
	}

	_, err = s.db.Exec(`UPDATE accounts SET status = $1, updated_at = $2 WHERE id = $3`,
		string(next), time.Now(), accountID)
	if err != nil {
		return fmt.Errorf("updating account status: %w", err)
	}
	log.Printf("[ACCOUNT] account %s moved %s -> %s", account.AccountNumber, account.Status, next)
	return nil
}

// Create opens a new account in Pending state. The account number is
// generated when the caller leaves it empty.
func (s *AccountService) Create(account *models.Account) error {
	if account.AccountNumber == "" {
		account.AccountNumber = GenerateAccountNumber()
	}
	account.Status = models.StatusPending

	err := s.db.QueryRow(`
		INSERT INTO accounts (account_number, account_name, balance, currency_code, user_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		account.AccountNumber, account.AccountName, account.Balance,
		account.CurrencyCode, account.UserID, string(account.Status),
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating account: %w", err)
	}
	log.Printf("[ACCOUNT] account %s opened for user %d", account.AccountNumber, account.UserID)
	return nil
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var account models.Account
	err := row.Scan(&account.ID, &account.AccountNumber, &account.AccountName,
		&account.Balance, &account.CurrencyCode, &account.UserID,
		&account.Status, &account.CreatedAt, &account.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning account: %w", err)
	}
	return &account, nil
}

// GenerateAccountNumber produces a 9-digit number in XXX-XXX-XXX form.
func GenerateAccountNumber() string {
	var sb strings.Builder
	for i := 0; i < 9; i++ {
		n, _ := rand.Int(rand.Reader, big.NewInt(10))
		sb.WriteString(n.String())
		if (i+1)%3 == 0 && i != 8 {
			sb.WriteByte('-')
		}
	}
	return sb.String()
}
