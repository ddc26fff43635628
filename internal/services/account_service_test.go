package services

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/bryantttp/bankingwebapp/internal/models"
)

func TestAccountService_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewAccountService(db)

	mock.ExpectQuery("INSERT INTO accounts").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(3), time.Now(), time.Now()))

	account := &models.Account{
		AccountName:  "Savings",
		Balance:      decimal.Zero,
		CurrencyCode: "USD",
		UserID:       1,
	}
	assert.NoError(t, service.Create(account))
	assert.Equal(t, int64(3), account.ID)
	assert.Equal(t, models.StatusPending, account.Status)
	assert.Regexp(t, `^\d{3}-\d{3}-\d{3}$`, account.AccountNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountService_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewAccountService(db)

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM accounts WHERE id = \$1`).
			WithArgs(int64(3)).
			WillReturnRows(accountRow(3, "111-222-333", "12.34", "USD", models.StatusApproved))

		account, err := service.FindByID(3)
		assert.NoError(t, err)
		assert.Equal(t, "111-222-333", account.AccountNumber)
		assert.Equal(t, "12.34", account.Balance.String())
	})

	t.Run("missing", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM accounts WHERE id = \$1`).
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows(accountRowColumns))

		_, err := service.FindByID(99)
		assert.True(t, errors.Is(err, ErrAccountNotFound))
	})
}

func TestAccountService_ChangeStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewAccountService(db)

	t.Run("approving a disabled account is rejected", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM accounts WHERE id = \$1`).
			WithArgs(int64(3)).
			WillReturnRows(accountRow(3, "111-222-333", "0", "USD", models.StatusDisabled))

		err := service.ChangeStatus(3, models.StatusApproved)
		assert.True(t, errors.Is(err, ErrInvalidStatusTransition))
	})

	t.Run("pending to approved", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM accounts WHERE id = \$1`).
			WithArgs(int64(3)).
			WillReturnRows(accountRow(3, "111-222-333", "0", "USD", models.StatusPending))
		mock.ExpectExec("UPDATE accounts SET status").
			WithArgs(string(models.StatusApproved), sqlmock.AnyArg(), int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, service.ChangeStatus(3, models.StatusApproved))
	})
}
