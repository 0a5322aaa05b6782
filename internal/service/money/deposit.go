package money

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
	"github.com/josh-kwaku/gvbank-ledger/internal/logging"
	"github.com/josh-kwaku/gvbank-ledger/internal/notification"
)

type DepositRequest struct {
	UserID         uuid.UUID
	Amount         decimal.Decimal
	Currency       domain.Currency
	Method         domain.WithdrawalMethod
	BankDetailsID  *uuid.UUID
	CryptoWalletID *uuid.UUID
	Description    string
}

// Deposit credits the caller. Deposits complete immediately unless the
// service is configured to hold them for approval, in which case the
// balance is untouched until an admin approves.
func (s *Service) Deposit(ctx context.Context, req DepositRequest) (*domain.Transaction, error) {
	log := logging.FromContext(ctx)

	if err := s.validateAmount(req.Amount, req.Currency); err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}
	if req.Method == "" {
		req.Method = domain.WithdrawalMethodBank
	}
	if req.Method != domain.WithdrawalMethodBank && req.Method != domain.WithdrawalMethodCrypto {
		return nil, fmt.Errorf("Deposit: method %q: %w", req.Method, domain.ErrInvalidRequest)
	}

	status, op := domain.TransactionStatusCompleted, domain.OperationAdd
	if s.opts.DepositRequiresApproval {
		status, op = domain.TransactionStatusPending, ""
	}

	t := newTransaction(req.UserID, domain.TransactionTypeDeposit, status, req.Amount, req.Currency)
	description := req.Description
	if description == "" {
		description = string(req.Method) + " deposit"
	}
	t.Description = &description

	if err := s.attachInstrument(ctx, t, req.Method, req.BankDetailsID, req.CryptoWalletID); err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}

	acct, err := s.record(ctx, t, op, nil)
	if err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}

	log.Info("deposit recorded",
		"transaction_id", t.ID,
		"user_id", req.UserID,
		"amount", req.Amount.String(),
		"currency", req.Currency,
		"status", status,
	)

	newBalance := decimal.Zero
	if acct != nil {
		newBalance = acct.Balance
	}
	s.notify(ctx, req.UserID, t, notification.DepositReceived(req.Amount, newBalance, req.Currency, acct == nil))
	return t, nil
}

// attachInstrument validates the optional bank account or crypto wallet and
// copies its reference onto t.
func (s *Service) attachInstrument(ctx context.Context, t *domain.Transaction, method domain.WithdrawalMethod, bankID, walletID *uuid.UUID) error {
	switch {
	case method == domain.WithdrawalMethodBank && bankID != nil:
		b, err := s.instruments.GetBankDetails(ctx, *bankID)
		if err != nil {
			return instrumentErr(err)
		}
		if !b.IsActive {
			return domain.ErrInstrumentInactive
		}
		if b.Currency != t.Currency {
			return fmt.Errorf("bank account is %s: %w", b.Currency, domain.ErrCurrencyMismatch)
		}
		t.BankDetailsID = bankID
		t.BankName = &b.BankName
	case method == domain.WithdrawalMethodCrypto && walletID != nil:
		w, err := s.instruments.GetCryptoWallet(ctx, *walletID)
		if err != nil {
			return instrumentErr(err)
		}
		if !w.IsActive {
			return domain.ErrInstrumentInactive
		}
		t.CryptoWalletID = walletID
		t.CryptoType = &w.CryptoType
	}
	return nil
}

func instrumentErr(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: %w", domain.ErrInstrumentInactive, err)
	}
	return err
}
