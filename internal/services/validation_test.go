package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidationHelper_ValidateStruct(t *testing.T) {
	vh := NewValidationHelper()

	t.Run("valid request", func(t *testing.T) {
		req := TransferRequest{
			AccountID:       1,
			Amount:          decimal.NewFromInt(10),
			CurrencyCode:    "USD",
			ToAccountNumber: "444-555-666",
		}
		assert.NoError(t, vh.ValidateStruct(&req))
	})

	t.Run("missing required fields", func(t *testing.T) {
		req := TransferRequest{CurrencyCode: "US"}
		err := vh.ValidateStruct(&req)
		assert.Error(t, err)

		validationErrors, ok := err.(validator.ValidationErrors)
		assert.True(t, ok)
		assert.Len(t, validationErrors, 4)
	})
}

func TestSendErrorResponse(t *testing.T) {
	vh := NewValidationHelper()

	t.Run("plain message", func(t *testing.T) {
		w := httptest.NewRecorder()
		SendErrorResponse(w, "account not found", http.StatusNotFound, nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		var resp ErrorResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "account not found", resp.Error)
		assert.Empty(t, resp.Details)
	})

	t.Run("with validation details", func(t *testing.T) {
		err := vh.ValidateStruct(&TransferRequest{})
		assert.Error(t, err)

		w := httptest.NewRecorder()
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp ErrorResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Details)
	})
}

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrAccountNotFound, http.StatusNotFound},
		{ErrCardNotFound, http.StatusNotFound},
		{ErrCurrencyNotFound, http.StatusNotFound},
		{ErrMerchantCategoryUnknown, http.StatusNotFound},
		{ErrNonPositiveAmount, http.StatusBadRequest},
		{ErrSameAccount, http.StatusBadRequest},
		{ErrInsufficientBalance, http.StatusBadRequest},
		{ErrRecipientAccountPending, http.StatusBadRequest},
		{ErrCardOverLimit, http.StatusBadRequest},
		{ErrInvalidStatusTransition, http.StatusBadRequest},
		{ErrAccountNotApproved, http.StatusForbidden},
		{ErrCardNotApproved, http.StatusForbidden},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusForError(tc.err), "error %v", tc.err)
	}

	// wrapped errors still map
	wrapped := fmt.Errorf("purchase declined: %w", ErrCardOverLimit)
	assert.Equal(t, http.StatusBadRequest, StatusForError(wrapped))
}
