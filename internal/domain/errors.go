package domain

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrSelfTransfer          = errors.New("cannot transfer to same account")
	ErrInvalidCurrency       = errors.New("invalid currency")
	ErrInvalidAmount         = errors.New("amount must be greater than zero")
	ErrRecipientNotFound     = errors.New("recipient not found")
	ErrAccountNotFound       = errors.New("account not found")
	ErrLimitExceeded         = errors.New("transaction limit exceeded")
	ErrCurrencyMismatch      = errors.New("currency mismatch")
	ErrVersionConflict       = errors.New("optimistic lock conflict")
	ErrInvalidRequest        = errors.New("invalid request")
	ErrInvalidOperation      = errors.New("invalid balance operation")
	ErrTransactionNotPending = errors.New("transaction is not pending")
	ErrUnsupportedKind       = errors.New("transaction kind not supported")
	ErrInstrumentInactive    = errors.New("payment instrument not available")
	ErrEmailTaken            = errors.New("email already registered")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrForbidden             = errors.New("forbidden")
)
