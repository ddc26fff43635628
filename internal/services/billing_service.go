package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bryantttp/bankingwebapp/internal/config"
	"github.com/bryantttp/bankingwebapp/internal/models"
)

// BillingService runs the monthly statement cycle over every approved
// credit card: statement balance, interest, the unpaid-minimum fee and
// the next minimum due. A card is billed at most once per calendar
// period; the period stamp on the card row makes reruns no-ops.
type BillingService struct {
	db     *sql.DB
	cards  *CreditCardService
	ledger *LedgerService
	audit  *AuditLogger
	clock  Clock
	cfg    *config.BillingConfig
}

func NewBillingService(db *sql.DB, cards *CreditCardService, ledger *LedgerService, audit *AuditLogger, clock Clock, cfg *config.BillingConfig) *BillingService {
	return &BillingService{
		db:     db,
		cards:  cards,
		ledger: ledger,
		audit:  audit,
		clock:  clock,
		cfg:    cfg,
	}
}

// Schedule starts the recurring billing loop: sleep until the start of
// the next month, run the cycle, repeat. Cancelling the context stops
// the loop.
func (s *BillingService) Schedule(ctx context.Context) {
	go func() {
		timer := time.NewTimer(delayToNextMonth(s.clock.Now()))
		defer timer.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Println("[BILLING] Scheduler stopped")
				return
			case <-timer.C:
				if err := s.RunCycle(ctx, s.clock.Now()); err != nil {
					log.Printf("[BILLING] Cycle failed: %v", err)
				}
				timer.Reset(delayToNextMonth(s.clock.Now()))
			}
		}
	}()
	log.Printf("[BILLING] Scheduler started, first run in %s", delayToNextMonth(s.clock.Now()).Round(time.Second))
}

// delayToNextMonth returns the duration from now until midnight on the
// first day of the following month, in now's location.
func delayToNextMonth(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
	return next.Sub(now)
}

// RunCycle bills every approved card for the calendar month containing
// now. Cards are independent, so they are processed concurrently under a
// bounded worker pool; one card failing does not stop the rest.
func (s *BillingService) RunCycle(ctx context.Context, now time.Time) error {
	period := now.Format("2006-01")
	cards, err := s.cards.FindByStatus(models.StatusApproved)
	if err != nil {
		return fmt.Errorf("listing approved cards: %w", err)
	}
	log.Printf("[BILLING] Starting cycle %s for %d cards", period, len(cards))

	workers := s.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var processed, skipped, failed int

	for _, card := range cards {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(cardID int64) {
			defer wg.Done()
			defer func() { <-sem }()
			billed, err := s.billCard(cardID, now, period)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				failed++
				log.Printf("[BILLING] Card %d failed: %v", cardID, err)
			case billed:
				processed++
			default:
				skipped++
			}
		}(card.ID)
	}
	wg.Wait()

	s.audit.LogBillingRun(period, processed, skipped)
	log.Printf("[BILLING] Cycle %s done: %d billed, %d skipped, %d failed", period, processed, skipped, failed)
	if failed > 0 {
		return fmt.Errorf("billing cycle %s: %d cards failed", period, failed)
	}
	return nil
}

// billCard runs the five billing steps for one card inside a single
// transaction. Returns false when the card was already billed for the
// period.
func (s *BillingService) billCard(cardID int64, now time.Time, period string) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	card, err := s.cards.LockTx(tx, cardID)
	if err != nil {
		return false, err
	}
	if card.LastBilledPeriod == period {
		return false, nil
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	entries, err := s.ledger.FindByCardBefore(card.ID, monthStart)
	if err != nil {
		return false, err
	}

	carriedMinimum := card.MinBalancePaid

	// Statement balance: net of every purchase and payment posted before
	// this month.
	card.MonthlyBalance = statementBalance(entries)

	// Interest applies only to the part of the balance carried over from
	// before last month, so last month's net purchases are backed out.
	interestBase := card.MonthlyBalance.Sub(netPurchasesBetween(entries, monthStart.AddDate(0, -1, 0), monthStart))
	if interestBase.IsPositive() {
		card.Interest = interestBase.Mul(s.cfg.InterestRate).Round(2)
	} else {
		card.Interest = decimal.Zero
	}

	// Next minimum due: the full statement balance when it is under the
	// floor, the floor otherwise.
	if card.MonthlyBalance.LessThan(s.cfg.MinimumDue) {
		card.MinBalancePaid = card.MonthlyBalance
	} else {
		card.MinBalancePaid = s.cfg.MinimumDue
	}
	card.LastBilledPeriod = period

	if err := s.cards.UpdateTx(tx, card); err != nil {
		return false, err
	}

	// Fee and interest postings go through the ledger so the card's used
	// amount accrues the same way a purchase does.
	if carriedMinimum.IsPositive() {
		fee := models.NewPurchaseEntry(uuid.New().String(), card, s.cfg.UnpaidMinFee, decimal.Zero,
			models.MCCInterest, card.CurrencyCode, "Unpaid Minimum Balance Fee", now)
		if err := s.ledger.PostTx(tx, fee); err != nil {
			return false, fmt.Errorf("posting unpaid minimum fee: %w", err)
		}
	}
	if card.Interest.IsPositive() {
		interest := models.NewPurchaseEntry(uuid.New().String(), card, card.Interest, decimal.Zero,
			models.MCCInterest, card.CurrencyCode, "Interest Charged", now)
		if err := s.ledger.PostTx(tx, interest); err != nil {
			return false, fmt.Errorf("posting interest: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing billing transaction: %w", err)
	}
	return true, nil
}

// statementBalance nets purchases (less cashback) against payments.
func statementBalance(entries []models.Entry) decimal.Decimal {
	balance := decimal.Zero
	for i := range entries {
		switch entries[i].Type {
		case models.EntryCCPurchase:
			balance = balance.Add(entries[i].Amount.Sub(entries[i].Cashback))
		case models.EntryCCPayment:
			balance = balance.Sub(entries[i].Amount)
		}
	}
	return balance
}

// netPurchasesBetween sums purchases less cashback with from <= created
// at < to.
func netPurchasesBetween(entries []models.Entry, from, to time.Time) decimal.Decimal {
	total := decimal.Zero
	for i := range entries {
		e := &entries[i]
		if e.Type != models.EntryCCPurchase {
			continue
		}
		if e.CreatedAt.Before(from) || !e.CreatedAt.Before(to) {
			continue
		}
		total = total.Add(e.Amount.Sub(e.Cashback))
	}
	return total
}
