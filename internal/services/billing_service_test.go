package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/bryantttp/bankingwebapp/internal/config"
	"github.com/bryantttp/bankingwebapp/internal/models"
)

func testBillingConfig() *config.BillingConfig {
	return &config.BillingConfig{
		InterestRate: decimal.NewFromFloat(0.10),
		MinimumDue:   decimal.NewFromInt(50),
		UnpaidMinFee: decimal.NewFromInt(100),
		Workers:      1,
	}
}

func newTestBillingService(t *testing.T) (*BillingService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	cards := NewCreditCardService(db)
	audit := NewAuditLogger(nil)
	ledger := NewLedgerService(db, cards, audit)
	clock := fixedClock{at: time.Date(2026, time.September, 15, 12, 0, 0, 0, time.UTC)}
	service := NewBillingService(db, cards, ledger, audit, clock, testBillingConfig())
	return service, mock, func() { db.Close() }
}

var ledgerRowColumns = []string{"id", "type", "amount", "cashback", "account_id", "account_number",
	"credit_card_id", "recipient_account_id", "recipient_account_number",
	"merchant_category_code", "currency_code", "description", "created_at"}

func billingCardRow(minBalancePaid, lastBilled string) *sqlmock.Rows {
	return sqlmock.NewRows(cardRowColumns).
		AddRow(int64(7), "1111-2222-3333-4444", "salt$hash", "5000", models.CardTypeSwipeSmart,
			"USD", "400", "0", minBalancePaid, "0", string(models.StatusApproved),
			int64(1), lastBilled, time.Now(), time.Now())
}

func TestBillingService_BillCard(t *testing.T) {
	now := time.Date(2026, time.September, 15, 12, 0, 0, 0, time.UTC)
	monthStart := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)

	t.Run("statement under the floor owes itself as minimum", func(t *testing.T) {
		service, mock, closeDB := newTestBillingService(t)
		defer closeDB()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM credit_cards WHERE id = \$1 FOR UPDATE`).
			WithArgs(int64(7)).
			WillReturnRows(billingCardRow("0", ""))
		// One purchase last month, so nothing is carried from before it and
		// no interest accrues.
		mock.ExpectQuery("SELECT (.+) FROM transactions t").
			WithArgs(int64(7), monthStart).
			WillReturnRows(sqlmock.NewRows(ledgerRowColumns).
				AddRow("p1", string(models.EntryCCPurchase), "40", "0", nil, "",
					int64(7), nil, "", int64(1001), "USD", "shopping", monthStart.AddDate(0, 0, -10)))
		mock.ExpectExec("UPDATE credit_cards").
			WithArgs(sqlmock.AnyArg(), "40", "40", "0", "2026-09", sqlmock.AnyArg(), int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		billed, err := service.billCard(7, now, "2026-09")
		assert.NoError(t, err)
		assert.True(t, billed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("carried balance accrues interest and an unpaid minimum charges the fee", func(t *testing.T) {
		service, mock, closeDB := newTestBillingService(t)
		defer closeDB()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM credit_cards WHERE id = \$1 FOR UPDATE`).
			WithArgs(int64(7)).
			WillReturnRows(billingCardRow("40", ""))
		// 500 purchased two months back, 100 paid since: statement is 400,
		// all of it old enough to accrue 10 percent.
		mock.ExpectQuery("SELECT (.+) FROM transactions t").
			WithArgs(int64(7), monthStart).
			WillReturnRows(sqlmock.NewRows(ledgerRowColumns).
				AddRow("p1", string(models.EntryCCPurchase), "500", "0", nil, "",
					int64(7), nil, "", int64(1001), "USD", "shopping", monthStart.AddDate(0, -2, 5)).
				AddRow("p2", string(models.EntryCCPayment), "100", "0", nil, "",
					int64(7), nil, "", nil, "USD", "payment", monthStart.AddDate(0, -1, 3)))
		mock.ExpectExec("UPDATE credit_cards").
			WithArgs(sqlmock.AnyArg(), "400", "50", "40", "2026-09", sqlmock.AnyArg(), int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		// Unpaid minimum fee posts as a purchase and accrues onto the card.
		mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM transactions WHERE id = \$1\)`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec("INSERT INTO transactions").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectQuery(`SELECT (.+) FROM credit_cards WHERE id = \$1 FOR UPDATE`).
			WithArgs(int64(7)).
			WillReturnRows(billingCardRow("50", "2026-09"))
		mock.ExpectExec("UPDATE credit_cards").
			WithArgs("500", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
				sqlmock.AnyArg(), sqlmock.AnyArg(), int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		// Interest charge posts the same way.
		mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM transactions WHERE id = \$1\)`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec("INSERT INTO transactions").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectQuery(`SELECT (.+) FROM credit_cards WHERE id = \$1 FOR UPDATE`).
			WithArgs(int64(7)).
			WillReturnRows(billingCardRow("50", "2026-09"))
		mock.ExpectExec("UPDATE credit_cards").
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectCommit()

		billed, err := service.billCard(7, now, "2026-09")
		assert.NoError(t, err)
		assert.True(t, billed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already billed period is a no-op", func(t *testing.T) {
		service, mock, closeDB := newTestBillingService(t)
		defer closeDB()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM credit_cards WHERE id = \$1 FOR UPDATE`).
			WithArgs(int64(7)).
			WillReturnRows(billingCardRow("40", "2026-09"))
		mock.ExpectRollback()

		billed, err := service.billCard(7, now, "2026-09")
		assert.NoError(t, err)
		assert.False(t, billed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBillingService_RunCycle(t *testing.T) {
	service, mock, closeDB := newTestBillingService(t)
	defer closeDB()

	mock.ExpectQuery(`SELECT (.+) FROM credit_cards WHERE status = \$1`).
		WithArgs(string(models.StatusApproved)).
		WillReturnRows(billingCardRow("0", "2026-09"))

	// The only approved card is already stamped for the period.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM credit_cards WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(7)).
		WillReturnRows(billingCardRow("0", "2026-09"))
	mock.ExpectRollback()

	err := service.RunCycle(context.Background(), time.Date(2026, time.September, 15, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelayToNextMonth(t *testing.T) {
	t.Run("mid month", func(t *testing.T) {
		now := time.Date(2026, time.September, 15, 12, 0, 0, 0, time.UTC)
		want := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC).Sub(now)
		assert.Equal(t, want, delayToNextMonth(now))
	})

	t.Run("december rolls the year", func(t *testing.T) {
		now := time.Date(2026, time.December, 31, 23, 0, 0, 0, time.UTC)
		assert.Equal(t, time.Hour, delayToNextMonth(now))
	})

	t.Run("exact month start waits a full month", func(t *testing.T) {
		now := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
		want := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC).Sub(now)
		assert.Equal(t, want, delayToNextMonth(now))
	})
}

func TestStatementBalance(t *testing.T) {
	entries := []models.Entry{
		{Type: models.EntryCCPurchase, Amount: decimal.NewFromInt(100), Cashback: decimal.NewFromFloat(1.5)},
		{Type: models.EntryCCPurchase, Amount: decimal.NewFromInt(50), Cashback: decimal.Zero},
		{Type: models.EntryCCPayment, Amount: decimal.NewFromInt(60)},
		{Type: models.EntryDeposit, Amount: decimal.NewFromInt(999)},
	}
	// 98.5 + 50 - 60; unrelated entry kinds are ignored
	assert.Equal(t, "88.5", statementBalance(entries).String())
}

func TestNetPurchasesBetween(t *testing.T) {
	from := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)

	entries := []models.Entry{
		{Type: models.EntryCCPurchase, Amount: decimal.NewFromInt(100), CreatedAt: from.AddDate(0, 0, 5)},
		{Type: models.EntryCCPurchase, Amount: decimal.NewFromInt(40), Cashback: decimal.NewFromInt(2), CreatedAt: from},
		{Type: models.EntryCCPurchase, Amount: decimal.NewFromInt(70), CreatedAt: to},
		{Type: models.EntryCCPurchase, Amount: decimal.NewFromInt(30), CreatedAt: from.AddDate(0, -1, 0)},
		{Type: models.EntryCCPayment, Amount: decimal.NewFromInt(25), CreatedAt: from.AddDate(0, 0, 10)},
	}
	// 100 + 38: the window is inclusive of from, exclusive of to
	assert.Equal(t, "138", netPurchasesBetween(entries, from, to).String())
}
