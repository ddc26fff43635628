package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/bryantttp/bankingwebapp/internal/models"
	"github.com/bryantttp/bankingwebapp/internal/services"
)

// AccountHandler covers account and card lifecycle plus statement reads.
type AccountHandler struct {
	accounts  *services.AccountService
	cards     *services.CreditCardService
	ledger    *services.LedgerService
	validator *services.ValidationHelper
}

func NewAccountHandler(accounts *services.AccountService, cards *services.CreditCardService, ledger *services.LedgerService) *AccountHandler {
	return &AccountHandler{
		accounts:  accounts,
		cards:     cards,
		ledger:    ledger,
		validator: services.NewValidationHelper(),
	}
}

// CreateAccount opens a new Pending account.
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountName  string `json:"account_name" validate:"required,max=128"`
		CurrencyCode string `json:"currency_code" validate:"required,len=3"`
		UserID       int64  `json:"user_id" validate:"required"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	account := &models.Account{
		AccountName:  req.AccountName,
		Balance:      decimal.Zero,
		CurrencyCode: req.CurrencyCode,
		UserID:       req.UserID,
	}
	if err := h.accounts.Create(account); err != nil {
		services.SendErrorResponse(w, err.Error(), services.StatusForError(err), nil)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    account,
	})
}

// GetAccount returns one account by id.
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		services.SendErrorResponse(w, "Invalid account id", http.StatusBadRequest, nil)
		return
	}

	account, err := h.accounts.FindByID(id)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), services.StatusForError(err), nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    account,
	})
}

// ChangeAccountStatus moves an account through its lifecycle.
func (h *AccountHandler) ChangeAccountStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		services.SendErrorResponse(w, "Invalid account id", http.StatusBadRequest, nil)
		return
	}

	var req struct {
		Status models.Status `json:"status" validate:"required"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.Status.Valid() {
		services.SendErrorResponse(w, "Unknown status", http.StatusBadRequest, nil)
		return
	}

	if err := h.accounts.ChangeStatus(id, req.Status); err != nil {
		services.SendErrorResponse(w, err.Error(), services.StatusForError(err), nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// AccountHistory returns every entry an account participated in, with
// counter-party account numbers masked.
func (h *AccountHandler) AccountHistory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		services.SendErrorResponse(w, "Invalid account id", http.StatusBadRequest, nil)
		return
	}

	account, err := h.accounts.FindByID(id)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), services.StatusForError(err), nil)
		return
	}
	entries, err := h.ledger.FindByAccountOrRecipient(account)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), services.StatusForError(err), nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    entries,
	})
}

// AccountStatement returns one calendar month of entries for an account.
// The period query parameter is YYYY-MM and defaults to the current month.
func (h *AccountHandler) AccountStatement(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		services.SendErrorResponse(w, "Invalid account id", http.StatusBadRequest, nil)
		return
	}
	year, month, ok := parsePeriod(w, r)
	if !ok {
		return
	}

	entries, err := h.ledger.FindByAccountForMonth(id, year, month)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), services.StatusForError(err), nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    entries,
	})
}

// IssueCard provisions a new credit card and returns the one-time PIN.
func (h *AccountHandler) IssueCard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID       int64           `json:"user_id" validate:"required"`
		CardType     string          `json:"card_type" validate:"required"`
		CurrencyCode string          `json:"currency_code" validate:"required,len=3"`
		CardLimit    decimal.Decimal `json:"card_limit" validate:"required"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	card, pin, err := h.cards.Issue(req.UserID, req.CardType, req.CurrencyCode, req.CardLimit)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), services.StatusForError(err), nil)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    card,
		"pin":     pin,
	})
}

// GetCard returns one card by id.
func (h *AccountHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "cardID"), 10, 64)
	if err != nil {
		services.SendErrorResponse(w, "Invalid card id", http.StatusBadRequest, nil)
		return
	}

	card, err := h.cards.FindByID(id)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), services.StatusForError(err), nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    card,
	})
}

// ChangeCardStatus moves a card through its lifecycle.
func (h *AccountHandler) ChangeCardStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "cardID"), 10, 64)
	if err != nil {
		services.SendErrorResponse(w, "Invalid card id", http.StatusBadRequest, nil)
		return
	}

	var req struct {
		Status models.Status `json:"status" validate:"required"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.Status.Valid() {
		services.SendErrorResponse(w, "Unknown status", http.StatusBadRequest, nil)
		return
	}

	if err := h.cards.ChangeStatus(id, req.Status); err != nil {
		services.SendErrorResponse(w, err.Error(), services.StatusForError(err), nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// CardStatement returns one calendar month of entries for a card.
func (h *AccountHandler) CardStatement(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "cardID"), 10, 64)
	if err != nil {
		services.SendErrorResponse(w, "Invalid card id", http.StatusBadRequest, nil)
		return
	}
	year, month, ok := parsePeriod(w, r)
	if !ok {
		return
	}

	entries, err := h.ledger.FindByCardForMonth(id, year, month)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), services.StatusForError(err), nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    entries,
	})
}

func parsePeriod(w http.ResponseWriter, r *http.Request) (int, time.Month, bool) {
	period := r.URL.Query().Get("period")
	if period == "" {
		now := time.Now()
		return now.Year(), now.Month(), true
	}
	t, err := time.Parse("2006-01", period)
	if err != nil {
		services.SendErrorResponse(w, "Invalid period, expected YYYY-MM", http.StatusBadRequest, nil)
		return 0, 0, false
	}
	return t.Year(), t.Month(), true
}
