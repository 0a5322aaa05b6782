package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/gvbank-ledger/internal/auth"
	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
	"github.com/josh-kwaku/gvbank-ledger/internal/service/money"
)

// fakeMoney implements only what each test exercises; other methods panic
// through the nil embedded interface.
type fakeMoney struct {
	moneyService

	deposit  *money.DepositRequest
	withdraw *money.WithdrawRequest
	status   domain.TransactionStatus
	err      error
	txn      *domain.Transaction
}

func (f *fakeMoney) result(userID uuid.UUID, amount decimal.Decimal, currency domain.Currency, kind domain.TransactionType) (*domain.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Transaction{
		ID:       uuid.New(),
		UserID:   userID,
		Amount:   amount,
		Currency: currency,
		Type:     kind,
		Status:   f.status,
	}, nil
}

func (f *fakeMoney) Deposit(_ context.Context, req money.DepositRequest) (*domain.Transaction, error) {
	f.deposit = &req
	return f.result(req.UserID, req.Amount, req.Currency, domain.TransactionTypeDeposit)
}

func (f *fakeMoney) Withdraw(_ context.Context, req money.WithdrawRequest) (*domain.Transaction, error) {
	f.withdraw = &req
	return f.result(req.UserID, req.Amount, req.Currency, domain.TransactionTypeWithdrawal)
}

func (f *fakeMoney) InternalTransfer(_ context.Context, req money.InternalTransferRequest) (*money.InternalTransfer, error) {
	if f.err != nil {
		return nil, f.err
	}
	ref := uuid.New()
	recipient := uuid.New()
	return &money.InternalTransfer{
		ReferenceID: ref,
		Debit:       &domain.Transaction{ID: uuid.New(), UserID: req.SenderID, Amount: req.Amount, Currency: req.Currency, Type: domain.TransactionTypeWithdrawal, Status: domain.TransactionStatusCompleted, ReferenceID: &ref},
		Credit:      &domain.Transaction{ID: uuid.New(), UserID: recipient, Amount: req.Amount, Currency: req.Currency, Type: domain.TransactionTypeDeposit, Status: domain.TransactionStatusCompleted, ReferenceID: &ref},
	}, nil
}

func (f *fakeMoney) GetTransactionForUser(_ context.Context, id, userID uuid.UUID) (*domain.Transaction, error) {
	if f.txn == nil || f.txn.ID != id || f.txn.UserID != userID {
		return nil, fmt.Errorf("GetTransactionForUser: %w", domain.ErrNotFound)
	}
	return f.txn, nil
}

func TestMoneyHandler_Deposit(t *testing.T) {
	caller := customer()

	tests := []struct {
		name       string
		body       string
		status     domain.TransactionStatus
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{"completed deposit", `{"amount":"250.50","currency":"usd"}`, domain.TransactionStatusCompleted, nil, http.StatusCreated, ""},
		{"deposit awaiting approval", `{"amount":"250.50","currency":"USD"}`, domain.TransactionStatusPending, nil, http.StatusAccepted, ""},
		{"malformed json", `{"amount":`, "", nil, http.StatusBadRequest, "INVALID_REQUEST"},
		{"zero amount", `{"amount":"0","currency":"USD"}`, "", nil, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"unknown currency", `{"amount":"10","currency":"GBP"}`, "", nil, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"bad method", `{"amount":"10","currency":"USD","method":"cheque"}`, "", nil, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"limit exceeded", `{"amount":"10","currency":"USD"}`, "", domain.ErrLimitExceeded, http.StatusUnprocessableEntity, "TRANSACTION_LIMIT_EXCEEDED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeMoney{status: tt.status, err: tt.svcErr}
			h := NewMoneyHandler(svc)

			rec := serve(t, http.MethodPost, "/deposits", "/deposits", tt.body, caller, h.Deposit)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			env := decodeEnvelope(t, rec)
			if tt.wantCode != "" {
				require.NotNil(t, env.Error)
				assert.Equal(t, tt.wantCode, env.Error.Code)
				return
			}

			require.NotNil(t, svc.deposit)
			assert.Equal(t, caller.UserID, svc.deposit.UserID)
			assert.Equal(t, domain.CurrencyUSD, svc.deposit.Currency)
			assert.True(t, svc.deposit.Amount.Equal(decimal.RequireFromString("250.50")))
			assert.NotEmpty(t, rec.Header().Get("Location"))

			var dto transactionDTO
			require.NoError(t, json.Unmarshal(env.Data, &dto))
			assert.Equal(t, string(tt.status), dto.Status)
		})
	}
}

func TestMoneyHandler_Withdraw_RequiresMethod(t *testing.T) {
	svc := &fakeMoney{}
	h := NewMoneyHandler(svc)

	rec := serve(t, http.MethodPost, "/withdrawals", "/withdrawals", `{"amount":"10","currency":"USD"}`, customer(), h.Withdraw)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.Nil(t, svc.withdraw)
}

func TestMoneyHandler_Withdraw_InsufficientFunds(t *testing.T) {
	h := NewMoneyHandler(&fakeMoney{err: fmt.Errorf("Withdraw: %w", domain.ErrInsufficientFunds)})

	rec := serve(t, http.MethodPost, "/withdrawals", "/withdrawals",
		`{"amount":"10","currency":"USD","withdrawal_method":"bank"}`, customer(), h.Withdraw)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "INSUFFICIENT_FUNDS", decodeEnvelope(t, rec).Error.Code)
}

func TestMoneyHandler_InternalTransfer(t *testing.T) {
	t.Run("needs a recipient", func(t *testing.T) {
		h := NewMoneyHandler(&fakeMoney{})
		rec := serve(t, http.MethodPost, "/transfers/internal", "/transfers/internal",
			`{"amount":"10","currency":"NGN"}`, customer(), h.InternalTransfer)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("returns both legs", func(t *testing.T) {
		h := NewMoneyHandler(&fakeMoney{})
		rec := serve(t, http.MethodPost, "/transfers/internal", "/transfers/internal",
			`{"amount":"10","currency":"NGN","recipient_account_number":"2030405060"}`, customer(), h.InternalTransfer)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var out internalTransferDTO
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &out))
		assert.Equal(t, out.ReferenceID, *out.Debit.ReferenceID)
		assert.Equal(t, out.ReferenceID, *out.Credit.ReferenceID)
		assert.Equal(t, "NGN", out.Debit.Currency)
	})

	t.Run("self transfer", func(t *testing.T) {
		h := NewMoneyHandler(&fakeMoney{err: domain.ErrSelfTransfer})
		rec := serve(t, http.MethodPost, "/transfers/internal", "/transfers/internal",
			`{"amount":"10","currency":"NGN","recipient_account_number":"2030405060"}`, customer(), h.InternalTransfer)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestMoneyHandler_GetTransaction(t *testing.T) {
	owner := customer()
	txn := &domain.Transaction{ID: uuid.New(), UserID: owner.UserID, Amount: decimal.NewFromInt(5), Currency: domain.CurrencyUSD, Type: domain.TransactionTypeDeposit, Status: domain.TransactionStatusCompleted}
	h := NewMoneyHandler(&fakeMoney{txn: txn})

	tests := []struct {
		name       string
		caller     *auth.Claims
		target     string
		wantStatus int
	}{
		{"owner sees it", owner, "/transactions/" + txn.ID.String(), http.StatusOK},
		{"other user gets 404", customer(), "/transactions/" + txn.ID.String(), http.StatusNotFound},
		{"malformed id", owner, "/transactions/not-a-uuid", http.StatusNotFound},
		{"anonymous", nil, "/transactions/" + txn.ID.String(), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, http.MethodGet, "/transactions/{id}", tt.target, "", tt.caller, h.GetTransaction)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}
