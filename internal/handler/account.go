package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
	"github.com/josh-kwaku/gvbank-ledger/internal/logging"
)

type accountService interface {
	GetBalance(ctx context.Context, userID uuid.UUID, currency domain.Currency) (decimal.Decimal, error)
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]domain.Account, error)
	ListPostings(ctx context.Context, accountID, userID uuid.UUID, limit, offset int) ([]domain.Posting, int, error)
}

type AccountHandler struct {
	accounts accountService
}

func NewAccountHandler(accounts accountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type balanceDTO struct {
	Currency string          `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	accounts, err := h.accounts.ListAccounts(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list accounts", "error", err)
		RespondDomainError(r.Context(), w, err)
		return
	}

	dtos := make([]accountDTO, len(accounts))
	for i := range accounts {
		dtos[i] = toAccountDTO(&accounts[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

// Balance reports the available balance in one currency. A currency the
// caller has never used reads as zero.
func (h *AccountHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	currency := domain.Currency(strings.ToUpper(chi.URLParam(r, "currency")))
	bal, err := h.accounts.GetBalance(r.Context(), userID, currency)
	if err != nil {
		RespondDomainError(r.Context(), w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, balanceDTO{Currency: string(currency), Balance: bal})
}

func (h *AccountHandler) Postings(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	accountID, appErr := idParam(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	limit, offset := pagination(r)
	postings, total, err := h.accounts.ListPostings(r.Context(), accountID, userID, limit, offset)
	if err != nil {
		RespondDomainError(r.Context(), w, err)
		return
	}

	dtos := make([]postingDTO, len(postings))
	for i := range postings {
		dtos[i] = toPostingDTO(&postings[i])
	}
	RespondSuccess(w, http.StatusOK, page{Items: dtos, Total: total, Limit: limit, Offset: offset})
}
