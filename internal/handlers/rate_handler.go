package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/bryantttp/bankingwebapp/internal/services"
)

// RateHandler exposes the in-memory currency table and conversion quotes.
type RateHandler struct {
	rates     *services.RateService
	validator *services.ValidationHelper
}

func NewRateHandler(rates *services.RateService) *RateHandler {
	return &RateHandler{
		rates:     rates,
		validator: services.NewValidationHelper(),
	}
}

// ListCurrencies returns every currency in the active rate table.
func (h *RateHandler) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    h.rates.Currencies(),
	})
}

// GetCurrency returns one currency by its ISO code.
func (h *RateHandler) GetCurrency(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	currency, err := h.rates.Currency(code)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), services.StatusForError(err), nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    currency,
	})
}

// Quote converts an amount between two currencies without moving money.
func (h *RateHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount decimal.Decimal `json:"amount" validate:"required"`
		From   string          `json:"from" validate:"required,len=3"`
		To     string          `json:"to" validate:"required,len=3"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	converted, err := h.rates.Convert(req.Amount, req.From, req.To)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), services.StatusForError(err), nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"amount":    converted,
		"currency":  strings.ToUpper(req.To),
		"requested": req.Amount,
	})
}
