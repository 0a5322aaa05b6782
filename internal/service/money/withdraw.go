package money

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
	"github.com/josh-kwaku/gvbank-ledger/internal/logging"
	"github.com/josh-kwaku/gvbank-ledger/internal/notification"
)

type WithdrawRequest struct {
	UserID         uuid.UUID
	Amount         decimal.Decimal
	Currency       domain.Currency
	Method         domain.WithdrawalMethod
	BankDetailsID  *uuid.UUID
	CryptoWalletID *uuid.UUID
	Description    string
}

// Withdraw holds the amount and opens a withdrawal request for review. The
// funds leave the available balance now and are settled or released when an
// admin decides.
func (s *Service) Withdraw(ctx context.Context, req WithdrawRequest) (*domain.Transaction, error) {
	log := logging.FromContext(ctx)

	if err := s.validateAmount(req.Amount, req.Currency); err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}
	if !req.Method.IsValid() {
		return nil, fmt.Errorf("Withdraw: method %q: %w", req.Method, domain.ErrInvalidRequest)
	}
	if err := s.ensureAvailable(ctx, req.UserID, req.Currency, req.Amount); err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	t := newTransaction(req.UserID, domain.TransactionTypeWithdrawal, domain.TransactionStatusPending, req.Amount, req.Currency)
	t.Description = optional(req.Description)
	if err := s.attachInstrument(ctx, t, req.Method, req.BankDetailsID, req.CryptoWalletID); err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	w := &domain.WithdrawalRequest{
		ID:             uuid.New(),
		UserID:         req.UserID,
		TransactionID:  t.ID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Method:         req.Method,
		BankDetailsID:  t.BankDetailsID,
		CryptoWalletID: t.CryptoWalletID,
		Status:         domain.TransactionStatusPending,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.CreatedAt,
	}

	acct, err := s.record(ctx, t, domain.OperationHold, func(tx *sql.Tx) error {
		return s.withdrawals.Create(ctx, tx, w)
	})
	if err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	log.Info("withdrawal requested",
		"transaction_id", t.ID,
		"withdrawal_id", w.ID,
		"user_id", req.UserID,
		"amount", req.Amount.String(),
		"currency", req.Currency,
		"method", req.Method,
	)

	s.notify(ctx, req.UserID, t, notification.WithdrawalProcessed(req.Amount, acct.Balance, req.Currency))
	return t, nil
}
