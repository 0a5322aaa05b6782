package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
	"github.com/josh-kwaku/gvbank-ledger/internal/logging"
	"github.com/josh-kwaku/gvbank-ledger/internal/service/admin"
)

type adminService interface {
	Approve(ctx context.Context, transactionID, adminID uuid.UUID) (*domain.Transaction, error)
	Reject(ctx context.Context, transactionID, adminID uuid.UUID, notes string) (*domain.Transaction, error)
	ApproveWithdrawal(ctx context.Context, withdrawalID, adminID uuid.UUID) (*domain.Transaction, error)
	RejectWithdrawal(ctx context.Context, withdrawalID, adminID uuid.UUID, notes string) (*domain.Transaction, error)
	ListPending(ctx context.Context, limit, offset int) ([]domain.Transaction, int, error)
	ListTransactions(ctx context.Context, f domain.TransactionFilter) ([]domain.Transaction, int, error)
	ListWithdrawals(ctx context.Context, status *domain.TransactionStatus, limit, offset int) ([]domain.WithdrawalRequest, error)
	Stats(ctx context.Context) (*domain.Stats, error)
	ListSettings(ctx context.Context) ([]domain.AdminSetting, error)
	UpsertSetting(ctx context.Context, key, value string, description *string, adminID uuid.UUID) (*domain.AdminSetting, error)
	CreateBankDetails(ctx context.Context, in admin.BankDetailsInput) (*domain.BankDetails, error)
	CreateCryptoWallet(ctx context.Context, name, address string, cryptoType domain.CryptoType) (*domain.CryptoWallet, error)
	ListInstruments(ctx context.Context) ([]domain.BankDetails, []domain.CryptoWallet, error)
	SetInstrumentActive(ctx context.Context, kind string, id uuid.UUID, active bool) error
	Reconcile(ctx context.Context, accountID uuid.UUID) (*admin.Reconciliation, error)
}

type AdminHandler struct {
	admin adminService
}

func NewAdminHandler(svc adminService) *AdminHandler {
	return &AdminHandler{admin: svc}
}

type reviewRequest struct {
	Notes string `json:"notes"`
}

type statsDTO struct {
	TotalUsers          int `json:"total_users"`
	TotalTransactions   int `json:"total_transactions"`
	PendingTransactions int `json:"pending_transactions"`
	PendingWithdrawals  int `json:"pending_withdrawals"`
}

type reconciliationDTO struct {
	AccountID        uuid.UUID       `json:"account_id"`
	Balanced         bool            `json:"balanced"`
	StoredBalance    decimal.Decimal `json:"stored_balance"`
	StoredReserved   decimal.Decimal `json:"stored_reserved"`
	ReplayedBalance  decimal.Decimal `json:"replayed_balance"`
	ReplayedReserved decimal.Decimal `json:"replayed_reserved"`
}

type settingRequest struct {
	Value       string  `json:"setting_value"`
	Description *string `json:"description"`
}

type bankDetailsRequest struct {
	BankName      string `json:"bank_name"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	RoutingNumber string `json:"routing_number"`
	SwiftCode     string `json:"swift_code"`
	Currency      string `json:"currency"`
}

func (r bankDetailsRequest) Validate() []FieldError {
	var errs []FieldError
	for _, f := range []struct{ name, value string }{
		{"bank_name", r.BankName},
		{"account_name", r.AccountName},
		{"account_number", r.AccountNumber},
	} {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, FieldError{Field: f.name, Message: "required"})
		}
	}
	c := domain.Currency(strings.ToUpper(r.Currency))
	if !c.IsValid() || c.IsCrypto() {
		errs = append(errs, FieldError{Field: "currency", Message: "must be a fiat currency"})
	}
	return errs
}

type cryptoWalletRequest struct {
	WalletName    string `json:"wallet_name"`
	WalletAddress string `json:"wallet_address"`
	CryptoType    string `json:"crypto_type"`
}

func (r cryptoWalletRequest) Validate() []FieldError {
	var errs []FieldError
	if strings.TrimSpace(r.WalletName) == "" {
		errs = append(errs, FieldError{Field: "wallet_name", Message: "required"})
	}
	if strings.TrimSpace(r.WalletAddress) == "" {
		errs = append(errs, FieldError{Field: "wallet_address", Message: "required"})
	}
	if !domain.CryptoType(r.CryptoType).IsValid() {
		errs = append(errs, FieldError{Field: "crypto_type", Message: "unsupported crypto type"})
	}
	return errs
}

type activeRequest struct {
	Active bool `json:"is_active"`
}

func (h *AdminHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	txs, total, err := h.admin.ListPending(r.Context(), limit, offset)
	if err != nil {
		RespondDomainError(r.Context(), w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, page{Items: toTransactionDTOs(txs), Total: total, Limit: limit, Offset: offset})
}

func (h *AdminHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	f, fields := transactionFilter(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	if v := r.URL.Query().Get("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			RespondValidationError(w, []FieldError{{Field: "user_id", Message: "must be a uuid"}})
			return
		}
		f.UserID = &id
	}

	txs, total, err := h.admin.ListTransactions(r.Context(), f)
	if err != nil {
		RespondDomainError(r.Context(), w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, page{Items: toTransactionDTOs(txs), Total: total, Limit: f.Limit, Offset: f.Offset})
}

func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, func(ctx context.Context, id, adminID uuid.UUID, _ string) (*domain.Transaction, error) {
		return h.admin.Approve(ctx, id, adminID)
	})
}

func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.admin.Reject)
}

func (h *AdminHandler) ApproveWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, func(ctx context.Context, id, adminID uuid.UUID, _ string) (*domain.Transaction, error) {
		return h.admin.ApproveWithdrawal(ctx, id, adminID)
	})
}

func (h *AdminHandler) RejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.admin.RejectWithdrawal)
}

type reviewFunc func(ctx context.Context, id, adminID uuid.UUID, notes string) (*domain.Transaction, error)

// review runs an approve or reject action against the {id} path parameter.
// The body is optional and only carries reviewer notes.
func (h *AdminHandler) review(w http.ResponseWriter, r *http.Request, action reviewFunc) {
	adminID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	id, appErr := idParam(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	t, err := action(r.Context(), id, adminID, req.Notes)
	if err != nil {
		logging.FromContext(r.Context()).Warn("review failed", "error", err, "id", id)
		RespondDomainError(r.Context(), w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toTransactionDTO(t))
}

func (h *AdminHandler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	var status *domain.TransactionStatus
	if v := r.URL.Query().Get("status"); v != "" {
		s := domain.TransactionStatus(v)
		if !s.IsValid() {
			RespondValidationError(w, []FieldError{{Field: "status", Message: "unknown status"}})
			return
		}
		status = &s
	}

	limit, offset := pagination(r)
	ws, err := h.admin.ListWithdrawals(r.Context(), status, limit, offset)
	if err != nil {
		RespondDomainError(r.Context(), w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toWithdrawalDTOs(ws))
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	s, err := h.admin.Stats(r.Context())
	if err != nil {
		RespondDomainError(r.Context(), w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, statsDTO{
		TotalUsers:          s.TotalUsers,
		TotalTransactions:   s.TotalTransactions,
		PendingTransactions: s.PendingTransactions,
		PendingWithdrawals:  s.PendingWithdrawals,
	})
}

func (h *AdminHandler) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.admin.ListSettings(r.Context())
	if err != nil {
		RespondDomainError(r.Context(), w, err)
		return
	}
	dtos := make([]settingDTO, len(settings))
	for i := range settings {
		dtos[i] = toSettingDTO(&settings[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *AdminHandler) PutSetting(w http.ResponseWriter, r *http.Request) {
	adminID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req settingRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	s, err := h.admin.UpsertSetting(r.Context(), chi.URLParam(r, "key"), req.Value, req.Description, adminID)
	if err != nil {
		RespondDomainError(r.Context(), w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toSettingDTO(s))
}

func (h *AdminHandler) ListInstruments(w http.ResponseWriter, r *http.Request) {
	banks, wallets, err := h.admin.ListInstruments(r.Context())
	if err != nil {
		RespondDomainError(r.Context(), w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toInstrumentsDTO(banks, wallets))
}

func (h *AdminHandler) CreateBankDetails(w http.ResponseWriter, r *http.Request) {
	var req bankDetailsRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	b, err := h.admin.CreateBankDetails(r.Context(), admin.BankDetailsInput{
		BankName:      req.BankName,
		AccountName:   req.AccountName,
		AccountNumber: req.AccountNumber,
		RoutingNumber: req.RoutingNumber,
		SwiftCode:     req.SwiftCode,
		Currency:      domain.Currency(strings.ToUpper(req.Currency)),
	})
	if err != nil {
		RespondDomainError(r.Context(), w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toBankDetailsDTO(b))
}

func (h *AdminHandler) CreateCryptoWallet(w http.ResponseWriter, r *http.Request) {
	var req cryptoWalletRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	wallet, err := h.admin.CreateCryptoWallet(r.Context(), req.WalletName, req.WalletAddress, domain.CryptoType(req.CryptoType))
	if err != nil {
		RespondDomainError(r.Context(), w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toCryptoWalletDTO(wallet))
}

// SetInstrumentActive serves PATCH /instruments/{kind}/{id}; kind is "bank"
// or "crypto".
func (h *AdminHandler) SetInstrumentActive(w http.ResponseWriter, r *http.Request) {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req activeRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if err := h.admin.SetInstrumentActive(r.Context(), chi.URLParam(r, "kind"), id, req.Active); err != nil {
		RespondDomainError(r.Context(), w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, activeRequest{Active: req.Active})
}

func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	rec, err := h.admin.Reconcile(r.Context(), id)
	if err != nil {
		RespondDomainError(r.Context(), w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, reconciliationDTO{
		AccountID:        rec.AccountID,
		Balanced:         rec.Balanced(),
		StoredBalance:    rec.StoredBalance,
		StoredReserved:   rec.StoredReserved,
		ReplayedBalance:  rec.ReplayedBalance,
		ReplayedReserved: rec.ReplayedReserved,
	})
}
