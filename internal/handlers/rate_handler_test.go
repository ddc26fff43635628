package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/bryantttp/bankingwebapp/internal/services"
)

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	rates := services.NewRateService("", "", time.Second, nil)
	err := rates.Refresh([]byte(`{
		"sgd": {"code": "SGD", "name": "Singapore Dollar", "rate": 1.35, "inverseRate": 0.74},
		"eur": {"code": "EUR", "name": "Euro", "rate": 0.92, "inverseRate": 1.0869565}
	}`))
	assert.NoError(t, err)

	h := NewRateHandler(rates)
	r := chi.NewRouter()
	r.Get("/currencies", h.ListCurrencies)
	r.Get("/currencies/{code}", h.GetCurrency)
	r.Post("/currencies/convert", h.Quote)
	return r
}

func TestRateHandler_ListCurrencies(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/currencies", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success bool              `json:"success"`
		Data    []json.RawMessage `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.Data, 3)
}

func TestRateHandler_GetCurrency(t *testing.T) {
	router := newTestRouter(t)

	t.Run("known code", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/currencies/sgd", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown code", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/currencies/xxx", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRateHandler_Quote(t *testing.T) {
	router := newTestRouter(t)

	t.Run("cross currency conversion", func(t *testing.T) {
		body, _ := json.Marshal(map[string]any{"amount": 100, "from": "SGD", "to": "EUR"})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/currencies/convert", bytes.NewBuffer(body)))

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Success bool   `json:"success"`
			Amount  string `json:"amount"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "68.08", resp.Amount)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		body := []byte(`{"amount": 100, "from": "SGD", "to": "EUR", "rate": 2}`)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/currencies/convert", bytes.NewBuffer(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing fields fail validation", func(t *testing.T) {
		body := []byte(`{"amount": 100}`)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/currencies/convert", bytes.NewBuffer(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
