package handlers

import (
	"net/http"

	"github.com/bryantttp/bankingwebapp/internal/services"
)

// TransferHandler exposes the money-movement operations.
type TransferHandler struct {
	transfers *services.TransferService
	validator *services.ValidationHelper
}

func NewTransferHandler(transfers *services.TransferService) *TransferHandler {
	return &TransferHandler{
		transfers: transfers,
		validator: services.NewValidationHelper(),
	}
}

// Transfer moves money from one account to another, internal or external.
func (h *TransferHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req services.TransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	result, err := h.transfers.Transfer(req)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), services.StatusForError(err), nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    result,
	})
}

// Deposit credits an account.
func (h *TransferHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req services.DepositRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	entryID, err := h.transfers.Deposit(req)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), services.StatusForError(err), nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"entry_id": entryID,
	})
}

// Withdraw debits an account.
func (h *TransferHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req services.WithdrawalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	entryID, err := h.transfers.Withdraw(req)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), services.StatusForError(err), nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"entry_id": entryID,
	})
}

// Purchase charges a credit card at a merchant category.
func (h *TransferHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req services.PurchaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	entryID, err := h.transfers.Purchase(req)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), services.StatusForError(err), nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"entry_id": entryID,
	})
}

// PayCard pays down a credit card from a deposit account.
func (h *TransferHandler) PayCard(w http.ResponseWriter, r *http.Request) {
	var req services.PaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	entryID, err := h.transfers.PayCard(req)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), services.StatusForError(err), nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"entry_id": entryID,
	})
}
