// Package money runs the customer money flows: deposits, withdrawals, and
// transfers. Every flow records its transaction row and balance change in one
// database transaction, then notifies the customer after commit.
package money

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
	"github.com/josh-kwaku/gvbank-ledger/internal/logging"
	"github.com/josh-kwaku/gvbank-ledger/internal/notification"
	"github.com/josh-kwaku/gvbank-ledger/internal/repository"
	"github.com/josh-kwaku/gvbank-ledger/internal/service/balance"
)

type transactionRepo interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Transaction, error)
	List(ctx context.Context, f domain.TransactionFilter) ([]domain.Transaction, int, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.TransactionStatus, failureReason *string, completedAt *time.Time) error
}

type withdrawalRepo interface {
	Create(ctx context.Context, tx *sql.Tx, w *domain.WithdrawalRequest) error
	List(ctx context.Context, userID *uuid.UUID, status *domain.TransactionStatus, limit, offset int) ([]domain.WithdrawalRequest, error)
	Resolve(ctx context.Context, tx *sql.Tx, transactionID uuid.UUID, status domain.TransactionStatus, notes *string, reviewer *uuid.UUID) error
}

type instrumentRepo interface {
	GetBankDetails(ctx context.Context, id uuid.UUID) (*domain.BankDetails, error)
	GetCryptoWallet(ctx context.Context, id uuid.UUID) (*domain.CryptoWallet, error)
	ListBankDetails(ctx context.Context, activeOnly bool) ([]domain.BankDetails, error)
	ListCryptoWallets(ctx context.Context, activeOnly bool) ([]domain.CryptoWallet, error)
}

type profileRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Profile, error)
}

type balanceReader interface {
	GetBalance(ctx context.Context, userID uuid.UUID, currency domain.Currency) (decimal.Decimal, error)
}

type mutator interface {
	AdjustTx(ctx context.Context, tx *sql.Tx, adj balance.Adjustment) (*domain.Account, error)
	LockInOrder(ctx context.Context, tx *sql.Tx, currency domain.Currency, userIDs ...uuid.UUID) (map[uuid.UUID]*domain.Account, error)
	ApplyLocked(ctx context.Context, tx *sql.Tx, acct *domain.Account, adj balance.Adjustment) (*domain.Account, error)
}

type notifier interface {
	Notify(ctx context.Context, req notification.Request)
}

type Options struct {
	// DepositRequiresApproval leaves deposits pending until an admin
	// approves them.
	DepositRequiresApproval bool
	// Limits caps a single transaction per currency. Currencies without an
	// entry are uncapped.
	Limits map[domain.Currency]decimal.Decimal
}

type Service struct {
	txs         transactionRepo
	withdrawals withdrawalRepo
	instruments instrumentRepo
	profiles    profileRepo
	balances    balanceReader
	mutator     mutator
	notifier    notifier
	db          *sql.DB
	opts        Options
}

func NewService(
	txs transactionRepo,
	withdrawals withdrawalRepo,
	instruments instrumentRepo,
	profiles profileRepo,
	balances balanceReader,
	mut mutator,
	notif notifier,
	db *sql.DB,
	opts Options,
) *Service {
	return &Service{
		txs:         txs,
		withdrawals: withdrawals,
		instruments: instruments,
		profiles:    profiles,
		balances:    balances,
		mutator:     mut,
		notifier:    notif,
		db:          db,
		opts:        opts,
	}
}

func (s *Service) GetTransactionForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Transaction, error) {
	t, err := s.txs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetTransactionForUser: %w", err)
	}
	if t.UserID != userID {
		return nil, fmt.Errorf("GetTransactionForUser: %w", domain.ErrNotFound)
	}
	return t, nil
}

// ListTransactions returns the caller's history, newest first.
func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID, f domain.TransactionFilter) ([]domain.Transaction, int, error) {
	f.UserID = &userID
	txs, total, err := s.txs.List(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("ListTransactions: %w", err)
	}
	return txs, total, nil
}

func (s *Service) ListWithdrawals(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.WithdrawalRequest, error) {
	ws, err := s.withdrawals.List(ctx, &userID, nil, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ListWithdrawals: %w", err)
	}
	return ws, nil
}

// DepositInstruments lists the active bank accounts and crypto wallets
// customers can pay into.
func (s *Service) DepositInstruments(ctx context.Context) ([]domain.BankDetails, []domain.CryptoWallet, error) {
	banks, err := s.instruments.ListBankDetails(ctx, true)
	if err != nil {
		return nil, nil, fmt.Errorf("DepositInstruments: %w", err)
	}
	wallets, err := s.instruments.ListCryptoWallets(ctx, true)
	if err != nil {
		return nil, nil, fmt.Errorf("DepositInstruments: %w", err)
	}
	return banks, wallets, nil
}

// validateAmount checks currency, positivity, precision, and the per-currency
// cap, in that order.
func (s *Service) validateAmount(amount decimal.Decimal, currency domain.Currency) error {
	if !currency.IsValid() {
		return domain.ErrInvalidCurrency
	}
	if err := domain.ValidateAmount(amount, currency); err != nil {
		return err
	}
	if limit, ok := s.opts.Limits[currency]; ok && amount.GreaterThan(limit) {
		return fmt.Errorf("%s %s above %s: %w", amount, currency, limit, domain.ErrLimitExceeded)
	}
	return nil
}

// ensureAvailable is the early sufficiency check. The mutator repeats it
// under the row lock.
func (s *Service) ensureAvailable(ctx context.Context, userID uuid.UUID, currency domain.Currency, amount decimal.Decimal) error {
	available, err := s.balances.GetBalance(ctx, userID, currency)
	if err != nil {
		return err
	}
	if available.LessThan(amount) {
		return domain.ErrInsufficientFunds
	}
	return nil
}

// record writes t and, when op is set, the matching balance change in one
// database transaction. extra runs last inside the same transaction.
func (s *Service) record(ctx context.Context, t *domain.Transaction, op domain.Operation, extra func(tx *sql.Tx) error) (*domain.Account, error) {
	var acct *domain.Account
	err := repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.txs.Create(ctx, tx, t); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		if op != "" {
			var err error
			acct, err = s.mutator.AdjustTx(ctx, tx, balance.Adjustment{
				UserID:        t.UserID,
				Currency:      t.Currency,
				Amount:        t.Amount,
				Operation:     op,
				TransactionID: t.ID,
			})
			if err != nil {
				return err
			}
		}
		if extra != nil {
			return extra(tx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return acct, nil
}

// notify sends message to the user's preferred contact. Every failure is
// logged and swallowed.
func (s *Service) notify(ctx context.Context, userID uuid.UUID, t *domain.Transaction, message string) {
	log := logging.FromContext(ctx)

	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		log.Warn("notification skipped: profile lookup failed", "error", err, "user_id", userID)
		return
	}
	req, ok := notification.RequestFor(p, message, t)
	if !ok {
		log.Info("notification skipped: no contact on profile", "user_id", userID)
		return
	}
	s.notifier.Notify(ctx, req)
}

func newTransaction(userID uuid.UUID, kind domain.TransactionType, status domain.TransactionStatus, amount decimal.Decimal, currency domain.Currency) *domain.Transaction {
	now := time.Now().UTC()
	t := &domain.Transaction{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    amount,
		Currency:  currency,
		Type:      kind,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if status == domain.TransactionStatusCompleted {
		t.CompletedAt = &now
	}
	return t
}

func ptr[T any](v T) *T { return &v }

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
