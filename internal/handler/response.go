package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
	"github.com/josh-kwaku/gvbank-ledger/internal/logging"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type page struct {
	Items  any `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

const (
	defaultLimit = 20
	maxLimit     = 100
)

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

var domainErrors = []struct {
	err    error
	appErr *AppError
}{
	{domain.ErrInstrumentInactive, ErrInstrumentInactive},
	{domain.ErrNotFound, ErrResourceNotFound},
	{domain.ErrInsufficientFunds, ErrInsufficientFunds},
	{domain.ErrSelfTransfer, ErrSelfTransfer},
	{domain.ErrLimitExceeded, ErrLimitExceeded},
	{domain.ErrRecipientNotFound, ErrRecipientNotFound},
	{domain.ErrAccountNotFound, ErrAccountNotFound},
	{domain.ErrInvalidCurrency, ErrInvalidCurrency},
	{domain.ErrCurrencyMismatch, ErrCurrencyMismatch},
	{domain.ErrVersionConflict, ErrVersionConflict},
	{domain.ErrInvalidAmount, ErrInvalidAmount},
	{domain.ErrInvalidOperation, ErrInvalidOperation},
	{domain.ErrTransactionNotPending, ErrNotPending},
	{domain.ErrUnsupportedKind, ErrUnsupportedKind},
	{domain.ErrEmailTaken, ErrEmailTaken},
	{domain.ErrInvalidCredentials, ErrInvalidCredentials},
	{domain.ErrForbidden, ErrForbidden},
	{domain.ErrInvalidRequest, ErrInvalidRequest},
}

// RespondDomainError maps a service error onto its HTTP error. Order
// matters: the first matching sentinel wins.
func RespondDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	for _, m := range domainErrors {
		if errors.Is(err, m.err) {
			RespondAppError(w, m.appErr, nil)
			return
		}
	}
	logging.FromContext(ctx).Error("unhandled domain error", "error", err)
	RespondAppError(w, ErrInternalError, nil)
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// pagination reads limit and offset from the query string, clamping limit
// to [1, maxLimit].
func pagination(r *http.Request) (limit, offset int) {
	limit, offset = defaultLimit, 0
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = min(v, maxLimit)
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
