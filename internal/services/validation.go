package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error   string            `json:"error"`             // Error message
	Details map[string]string `json:"details,omitempty"` // Validation details
}

// ValidationHelper provides shared validation functionality
type ValidationHelper struct {
	validator *validator.Validate
}

// NewValidationHelper creates a new validation helper
func NewValidationHelper() *ValidationHelper {
	return &ValidationHelper{
		validator: validator.New(),
	}
}

// ValidateStruct validates a struct and returns validation errors
func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validator.Struct(s)
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := ErrorResponse{Error: message}
	if validationErr != nil {
		errorResp.Details = make(map[string]string)
		for _, err := range validationErr.(validator.ValidationErrors) {
			errorResp.Details[err.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", err.Tag())
		}
	}

	json.NewEncoder(w).Encode(errorResp)
}

// StatusForError maps a business-rule rejection to an HTTP status code.
// Unknown errors are treated as store failures.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrCardNotFound),
		errors.Is(err, ErrCurrencyNotFound),
		errors.Is(err, ErrMerchantCategoryUnknown):
		return http.StatusNotFound
	case errors.Is(err, ErrNonPositiveAmount),
		errors.Is(err, ErrSameAccount),
		errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrRecipientAccountPending),
		errors.Is(err, ErrCardOverLimit),
		errors.Is(err, ErrInvalidStatusTransition):
		return http.StatusBadRequest
	case errors.Is(err, ErrAccountNotApproved),
		errors.Is(err, ErrCardNotApproved):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
