package services

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/bryantttp/bankingwebapp/internal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/argon2"
)

const (
	pinSaltLength  = 16
	pinTime        = 1
	pinMemory      = 64 * 1024
	pinThreads     = 4
	pinKeyLength   = 32
	cardNumberSize = 16
)

// CreditCardService maintains credit card state as ledger entries are
// posted. AmountUsed is derived incrementally, never recomputed from full
// history outside the billing cycle's statement snapshot.
type CreditCardService struct {
	db *sql.DB
}

func NewCreditCardService(db *sql.DB) *CreditCardService {
	return &CreditCardService{db: db}
}

const cardColumns = `id, card_number, pin_hash, card_limit, card_type, currency_code,
	       amount_used, monthly_balance, min_balance_paid, interest, status,
	       user_id, COALESCE(last_billed_period, ''), created_at, updated_at`

// ApplyEntryTx applies a posted purchase or payment entry to the owning
// card's running balances, inside the caller's transaction.
//
// A purchase grows AmountUsed by amount net of cashback. A payment shrinks
// AmountUsed and first reduces the minimum-due carry-over; MinBalancePaid
// going negative means no further minimum is owed, never a refund.
func (s *CreditCardService) ApplyEntryTx(tx *sql.Tx, entry *models.Entry) error {
	if entry.CreditCardID == nil {
		return fmt.Errorf("%w: entry %s has no owning card", ErrCardNotFound, entry.ID)
	}

	card, err := s.lockCardTx(tx, *entry.CreditCardID)
	if err != nil {
		return err
	}

	switch entry.Type {
	case models.EntryCCPurchase:
		card.AmountUsed = card.AmountUsed.Add(entry.Amount.Sub(entry.Cashback))
	case models.EntryCCPayment:
		card.AmountUsed = card.AmountUsed.Sub(entry.Amount)
		card.MinBalancePaid = card.MinBalancePaid.Sub(entry.Amount)
	default:
		return nil
	}

	return s.updateTx(tx, card)
}

// Authorize checks that a purchase of netAmount (gross minus cashback) fits
// under the card limit on an approved card. Enforced at authorization time
// only, never retroactively.
func (s *CreditCardService) Authorize(card *models.CreditCard, netAmount decimal.Decimal) error {
	if card.Status != models.StatusApproved {
		return ErrCardNotApproved
	}
	if card.AmountUsed.Add(netAmount).GreaterThan(card.CardLimit) {
		return ErrCardOverLimit
	}
	return nil
}

// FindByNumber loads a card by its card number.
func (s *CreditCardService) FindByNumber(number string) (*models.CreditCard, error) {
	row := s.db.QueryRow(`SELECT `+cardColumns+` FROM credit_cards WHERE card_number = $1`, number)
	return scanCard(row)
}

// FindByID loads a card by id.
func (s *CreditCardService) FindByID(id int64) (*models.CreditCard, error) {
	row := s.db.QueryRow(`SELECT `+cardColumns+` FROM credit_cards WHERE id = $1`, id)
	return scanCard(row)
}

// FindByStatus returns every card in the given lifecycle state.
func (s *CreditCardService) FindByStatus(status models.Status) ([]models.CreditCard, error) {
	rows, err := s.db.Query(`SELECT `+cardColumns+` FROM credit_cards WHERE status = $1 ORDER BY id`, string(status))
	if err != nil {
		return nil, fmt.Errorf("querying cards by status: %w", err)
	}
	defer rows.Close()

	cards := []models.CreditCard{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *card)
	}
	return cards, rows.Err()
}

// ChangeStatus moves a card through its lifecycle, rejecting transitions the
// state machine does not allow.
func (s *CreditCardService) ChangeStatus(cardID int64, next models.Status) error {
	card, err := s.FindByID(cardID)
	if err != nil {
		return err
	}
	if !card.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, card.Status, next)
	}

	_, err = s.db.Exec(`UPDATE credit_cards SET status = $1, updated_at = $2 WHERE id = $3`,
		string(next), time.Now(), cardID)
	if err != nil {
		return fmt.Errorf("updating card status: %w", err)
	}
	log.Printf("[CARD] card %s moved %s -> %s", card.CardNumber, card.Status, next)
	return nil
}

// Issue provisions a new card in Pending state and returns it together with
// the one-time plain PIN. Only the argon2 hash is stored.
func (s *CreditCardService) Issue(userID int64, cardType, currencyCode string, cardLimit decimal.Decimal) (*models.CreditCard, string, error) {
	if cardType != models.CardTypeUltimateCashback && cardType != models.CardTypeSwipeSmart {
		return nil, "", fmt.Errorf("unknown card product %q", cardType)
	}

	pin := GeneratePIN()
	pinHash, err := HashPIN(pin)
	if err != nil {
		return nil, "", fmt.Errorf("hashing PIN: %w", err)
	}

	card := &models.CreditCard{
		CardNumber:   GenerateCardNumber(),
		PINHash:      pinHash,
		CardLimit:    cardLimit,
		CardType:     cardType,
		CurrencyCode: currencyCode,
		Status:       models.StatusPending,
		UserID:       userID,
	}
	err = s.db.QueryRow(`
		INSERT INTO credit_cards (card_number, pin_hash, card_limit, card_type, currency_code, status, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		card.CardNumber, card.PINHash, card.CardLimit, card.CardType,
		card.CurrencyCode, string(card.Status), card.UserID,
	).Scan(&card.ID, &card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("creating card: %w", err)
	}

	log.Printf("[CARD] issued %s card %s for user %d", card.CardType, card.CardNumber, userID)
	return card, pin, nil
}

// LockTx loads a card with a row lock inside the caller's transaction.
func (s *CreditCardService) LockTx(tx *sql.Tx, cardID int64) (*models.CreditCard, error) {
	return s.lockCardTx(tx, cardID)
}

// UpdateTx saves billing-cycle fields inside the caller's transaction.
func (s *CreditCardService) UpdateTx(tx *sql.Tx, card *models.CreditCard) error {
	return s.updateTx(tx, card)
}

func (s *CreditCardService) lockCardTx(tx *sql.Tx, cardID int64) (*models.CreditCard, error) {
	row := tx.QueryRow(`SELECT `+cardColumns+` FROM credit_cards WHERE id = $1 FOR UPDATE`, cardID)
	return scanCard(row)
}

func (s *CreditCardService) updateTx(tx *sql.Tx, card *models.CreditCard) error {
	_, err := tx.Exec(`
		UPDATE credit_cards
		SET amount_used = $1, monthly_balance = $2, min_balance_paid = $3,
		    interest = $4, last_billed_period = $5, updated_at = $6
		WHERE id = $7`,
		card.AmountUsed, card.MonthlyBalance, card.MinBalancePaid,
		card.Interest, nullString(card.LastBilledPeriod), time.Now(), card.ID)
	if err != nil {
		return fmt.Errorf("updating card %d: %w", card.ID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*models.CreditCard, error) {
	var card models.CreditCard
	err := row.Scan(&card.ID, &card.CardNumber, &card.PINHash, &card.CardLimit,
		&card.CardType, &card.CurrencyCode, &card.AmountUsed, &card.MonthlyBalance,
		&card.MinBalancePaid, &card.Interest, &card.Status, &card.UserID,
		&card.LastBilledPeriod, &card.CreatedAt, &card.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning card: %w", err)
	}
	return &card, nil
}

// GenerateCardNumber produces a 16-digit number in XXXX-XXXX-XXXX-XXXX form.
func GenerateCardNumber() string {
	var sb strings.Builder
	for i := 0; i < cardNumberSize; i++ {
		n, _ := rand.Int(rand.Reader, big.NewInt(10))
		sb.WriteString(n.String())
		if (i+1)%4 == 0 && i != cardNumberSize-1 {
			sb.WriteByte('-')
		}
	}
	return sb.String()
}

// GeneratePIN produces a random 4-digit PIN.
func GeneratePIN() string {
	n, _ := rand.Int(rand.Reader, big.NewInt(10000))
	return fmt.Sprintf("%04d", n.Int64())
}

// HashPIN derives an argon2id hash of the PIN, encoded as salt$hash.
func HashPIN(pin string) (string, error) {
	salt := make([]byte, pinSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(pin), salt, pinTime, pinMemory, pinThreads, pinKeyLength)
	return fmt.Sprintf("%s$%s",
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(hash)), nil
}

// VerifyPIN checks a PIN against its stored salt$hash encoding.
func VerifyPIN(pin, hashedPIN string) bool {
	parts := strings.Split(hashedPIN, "$")
	if len(parts) != 2 {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}
	hash, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(pin), salt, pinTime, pinMemory, pinThreads, pinKeyLength)
	return string(hash) == string(computed)
}
