package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
	"github.com/josh-kwaku/gvbank-ledger/internal/logging"
	"github.com/josh-kwaku/gvbank-ledger/internal/service/money"
)

type moneyService interface {
	Deposit(ctx context.Context, req money.DepositRequest) (*domain.Transaction, error)
	Withdraw(ctx context.Context, req money.WithdrawRequest) (*domain.Transaction, error)
	ExternalTransfer(ctx context.Context, req money.ExternalTransferRequest) (*domain.Transaction, error)
	CryptoTransfer(ctx context.Context, req money.CryptoTransferRequest) (*domain.Transaction, error)
	InternalTransfer(ctx context.Context, req money.InternalTransferRequest) (*money.InternalTransfer, error)
	CancelTransaction(ctx context.Context, userID, transactionID uuid.UUID) (*domain.Transaction, error)
	GetTransactionForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, f domain.TransactionFilter) ([]domain.Transaction, int, error)
	ListWithdrawals(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.WithdrawalRequest, error)
	DepositInstruments(ctx context.Context) ([]domain.BankDetails, []domain.CryptoWallet, error)
}

type MoneyHandler struct {
	money moneyService
}

func NewMoneyHandler(svc moneyService) *MoneyHandler {
	return &MoneyHandler{money: svc}
}

// amountFields is embedded by every money-moving request.
type amountFields struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
}

func (a amountFields) validate() []FieldError {
	var errs []FieldError
	if a.Currency == "" {
		errs = append(errs, FieldError{Field: "currency", Message: "required"})
	} else if !domain.Currency(a.currency()).IsValid() {
		errs = append(errs, FieldError{Field: "currency", Message: "must be one of " + domain.CurrencyList()})
	}
	if !a.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	return errs
}

func (a amountFields) currency() domain.Currency {
	return domain.Currency(strings.ToUpper(strings.TrimSpace(a.Currency)))
}

type instrumentFields struct {
	BankDetailsID  *uuid.UUID `json:"bank_details_id"`
	CryptoWalletID *uuid.UUID `json:"crypto_wallet_id"`
}

type depositRequest struct {
	amountFields
	instrumentFields
	Method string `json:"method"`
}

func (r depositRequest) Validate() []FieldError {
	errs := r.amountFields.validate()
	switch domain.WithdrawalMethod(r.Method) {
	case "", domain.WithdrawalMethodBank, domain.WithdrawalMethodCrypto:
	default:
		errs = append(errs, FieldError{Field: "method", Message: "must be bank or crypto"})
	}
	return errs
}

type withdrawRequest struct {
	amountFields
	instrumentFields
	Method string `json:"withdrawal_method"`
}

func (r withdrawRequest) Validate() []FieldError {
	errs := r.amountFields.validate()
	if r.Method == "" {
		errs = append(errs, FieldError{Field: "withdrawal_method", Message: "required"})
	} else if !domain.WithdrawalMethod(r.Method).IsValid() {
		errs = append(errs, FieldError{Field: "withdrawal_method", Message: "must be bank, crypto, or cash"})
	}
	return errs
}

type externalTransferRequest struct {
	amountFields
	RecipientName    string `json:"recipient_name"`
	RecipientAccount string `json:"recipient_account"`
	BankName         string `json:"bank_name"`
}

func (r externalTransferRequest) Validate() []FieldError {
	errs := r.amountFields.validate()
	if strings.TrimSpace(r.RecipientName) == "" {
		errs = append(errs, FieldError{Field: "recipient_name", Message: "required"})
	}
	if strings.TrimSpace(r.RecipientAccount) == "" {
		errs = append(errs, FieldError{Field: "recipient_account", Message: "required"})
	}
	return errs
}

type cryptoTransferRequest struct {
	amountFields
	CryptoType    string `json:"crypto_type"`
	WalletAddress string `json:"wallet_address"`
}

func (r cryptoTransferRequest) Validate() []FieldError {
	errs := r.amountFields.validate()
	if !domain.CryptoType(r.CryptoType).IsValid() {
		errs = append(errs, FieldError{Field: "crypto_type", Message: "unsupported crypto type"})
	}
	if strings.TrimSpace(r.WalletAddress) == "" {
		errs = append(errs, FieldError{Field: "wallet_address", Message: "required"})
	}
	return errs
}

type internalTransferRequest struct {
	amountFields
	RecipientID            *uuid.UUID `json:"recipient_id"`
	RecipientAccountNumber string     `json:"recipient_account_number"`
}

func (r internalTransferRequest) Validate() []FieldError {
	errs := r.amountFields.validate()
	if r.RecipientID == nil && strings.TrimSpace(r.RecipientAccountNumber) == "" {
		errs = append(errs, FieldError{Field: "recipient_account_number", Message: "required"})
	}
	return errs
}

type internalTransferDTO struct {
	ReferenceID uuid.UUID      `json:"reference_id"`
	Debit       transactionDTO `json:"debit"`
	Credit      transactionDTO `json:"credit"`
}

func (h *MoneyHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req depositRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	t, err := h.money.Deposit(r.Context(), money.DepositRequest{
		UserID:         userID,
		Amount:         req.Amount,
		Currency:       req.currency(),
		Method:         domain.WithdrawalMethod(req.Method),
		BankDetailsID:  req.BankDetailsID,
		CryptoWalletID: req.CryptoWalletID,
		Description:    req.Description,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("deposit failed", "error", err)
		RespondDomainError(r.Context(), w, err)
		return
	}

	h.respondCreated(w, t)
}

func (h *MoneyHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req withdrawRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	t, err := h.money.Withdraw(r.Context(), money.WithdrawRequest{
		UserID:         userID,
		Amount:         req.Amount,
		Currency:       req.currency(),
		Method:         domain.WithdrawalMethod(req.Method),
		BankDetailsID:  req.BankDetailsID,
		CryptoWalletID: req.CryptoWalletID,
		Description:    req.Description,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("withdrawal failed", "error", err)
		RespondDomainError(r.Context(), w, err)
		return
	}

	h.respondCreated(w, t)
}

func (h *MoneyHandler) ExternalTransfer(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req externalTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	t, err := h.money.ExternalTransfer(r.Context(), money.ExternalTransferRequest{
		UserID:           userID,
		Amount:           req.Amount,
		Currency:         req.currency(),
		RecipientName:    req.RecipientName,
		RecipientAccount: req.RecipientAccount,
		BankName:         req.BankName,
		Description:      req.Description,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("external transfer failed", "error", err)
		RespondDomainError(r.Context(), w, err)
		return
	}

	h.respondCreated(w, t)
}

func (h *MoneyHandler) CryptoTransfer(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req cryptoTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	t, err := h.money.CryptoTransfer(r.Context(), money.CryptoTransferRequest{
		UserID:      userID,
		Amount:      req.Amount,
		Currency:    req.currency(),
		CryptoType:  domain.CryptoType(req.CryptoType),
		Address:     req.WalletAddress,
		Description: req.Description,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("crypto transfer failed", "error", err)
		RespondDomainError(r.Context(), w, err)
		return
	}

	h.respondCreated(w, t)
}

func (h *MoneyHandler) InternalTransfer(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req internalTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	in := money.InternalTransferRequest{
		SenderID:               userID,
		RecipientAccountNumber: req.RecipientAccountNumber,
		Amount:                 req.Amount,
		Currency:               req.currency(),
		Description:            req.Description,
	}
	if req.RecipientID != nil {
		in.RecipientID = *req.RecipientID
	}

	result, err := h.money.InternalTransfer(r.Context(), in)
	if err != nil {
		logging.FromContext(r.Context()).Warn("internal transfer failed", "error", err)
		RespondDomainError(r.Context(), w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/transactions/%s", result.Debit.ID))
	RespondSuccess(w, http.StatusCreated, internalTransferDTO{
		ReferenceID: result.ReferenceID,
		Debit:       toTransactionDTO(result.Debit),
		Credit:      toTransactionDTO(result.Credit),
	})
}

func (h *MoneyHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	id, appErr := idParam(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	t, err := h.money.GetTransactionForUser(r.Context(), id, userID)
	if err != nil {
		RespondDomainError(r.Context(), w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransactionDTO(t))
}

func (h *MoneyHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	f, fields := transactionFilter(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	txs, total, err := h.money.ListTransactions(r.Context(), userID, f)
	if err != nil {
		RespondDomainError(r.Context(), w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, page{Items: toTransactionDTOs(txs), Total: total, Limit: f.Limit, Offset: f.Offset})
}

func (h *MoneyHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	id, appErr := idParam(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	t, err := h.money.CancelTransaction(r.Context(), userID, id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("cancel failed", "error", err, "transaction_id", id)
		RespondDomainError(r.Context(), w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransactionDTO(t))
}

func (h *MoneyHandler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	limit, offset := pagination(r)
	ws, err := h.money.ListWithdrawals(r.Context(), userID, limit, offset)
	if err != nil {
		RespondDomainError(r.Context(), w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toWithdrawalDTOs(ws))
}

func (h *MoneyHandler) DepositInstruments(w http.ResponseWriter, r *http.Request) {
	banks, wallets, err := h.money.DepositInstruments(r.Context())
	if err != nil {
		RespondDomainError(r.Context(), w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toInstrumentsDTO(banks, wallets))
}

func (h *MoneyHandler) respondCreated(w http.ResponseWriter, t *domain.Transaction) {
	w.Header().Set("Location", fmt.Sprintf("/api/v1/transactions/%s", t.ID))
	status := http.StatusCreated
	if t.Status == domain.TransactionStatusPending {
		status = http.StatusAccepted
	}
	RespondSuccess(w, status, toTransactionDTO(t))
}

// transactionFilter reads status, type, limit, and offset query parameters.
func transactionFilter(r *http.Request) (domain.TransactionFilter, []FieldError) {
	var (
		f    domain.TransactionFilter
		errs []FieldError
	)
	f.Limit, f.Offset = pagination(r)

	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		s := domain.TransactionStatus(v)
		if !s.IsValid() {
			errs = append(errs, FieldError{Field: "status", Message: "unknown status"})
		}
		f.Status = &s
	}
	if v := q.Get("type"); v != "" {
		t := domain.TransactionType(v)
		if !t.IsValid() {
			errs = append(errs, FieldError{Field: "type", Message: "unknown transaction type"})
		}
		f.Type = &t
	}
	return f, errs
}
