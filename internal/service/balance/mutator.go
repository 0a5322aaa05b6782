// Package balance owns every write to account balances. Each change locks the
// account row, applies one operation, and journals it as a posting.
package balance

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
	"github.com/josh-kwaku/gvbank-ledger/internal/logging"
	"github.com/josh-kwaku/gvbank-ledger/internal/repository"
)

type accountRepo interface {
	Ensure(ctx context.Context, tx *sql.Tx, userID uuid.UUID, currency domain.Currency) (uuid.UUID, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, balance, reserved decimal.Decimal, newVersion int64) error
}

type postingRepo interface {
	Create(ctx context.Context, tx *sql.Tx, p *domain.Posting) error
}

// Adjustment describes one balance change and the transaction row explaining it.
type Adjustment struct {
	UserID        uuid.UUID
	Currency      domain.Currency
	Amount        decimal.Decimal
	Operation     domain.Operation
	TransactionID uuid.UUID
}

type Mutator struct {
	accounts accountRepo
	postings postingRepo
	db       *sql.DB
}

func NewMutator(accounts accountRepo, postings postingRepo, db *sql.DB) *Mutator {
	return &Mutator{accounts: accounts, postings: postings, db: db}
}

// Adjust applies adj in its own database transaction.
func (m *Mutator) Adjust(ctx context.Context, adj Adjustment) (*domain.Account, error) {
	var acct *domain.Account
	err := repository.InTx(ctx, m.db, func(tx *sql.Tx) error {
		var err error
		acct, err = m.AdjustTx(ctx, tx, adj)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("Adjust: %w", err)
	}
	return acct, nil
}

// AdjustTx applies adj inside tx. The account is created on first use and
// locked until tx ends.
func (m *Mutator) AdjustTx(ctx context.Context, tx *sql.Tx, adj Adjustment) (*domain.Account, error) {
	if !adj.Currency.IsValid() {
		return nil, fmt.Errorf("AdjustTx: %w", domain.ErrInvalidCurrency)
	}
	if adj.TransactionID == uuid.Nil {
		return nil, fmt.Errorf("AdjustTx: missing transaction: %w", domain.ErrInvalidRequest)
	}

	id, err := m.accounts.Ensure(ctx, tx, adj.UserID, adj.Currency)
	if err != nil {
		return nil, fmt.Errorf("AdjustTx: %w", err)
	}
	acct, err := m.accounts.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("AdjustTx: %w", err)
	}

	acct, err = m.apply(ctx, tx, acct, adj)
	if err != nil {
		return nil, fmt.Errorf("AdjustTx: %w", err)
	}
	return acct, nil
}

// ApplyLocked is AdjustTx for an account the caller already locked with
// LockInOrder.
func (m *Mutator) ApplyLocked(ctx context.Context, tx *sql.Tx, acct *domain.Account, adj Adjustment) (*domain.Account, error) {
	if acct.UserID != adj.UserID || acct.Currency != adj.Currency {
		return nil, fmt.Errorf("ApplyLocked: %w", domain.ErrCurrencyMismatch)
	}
	updated, err := m.apply(ctx, tx, acct, adj)
	if err != nil {
		return nil, fmt.Errorf("ApplyLocked: %w", err)
	}
	return updated, nil
}

func (m *Mutator) apply(ctx context.Context, tx *sql.Tx, acct *domain.Account, adj Adjustment) (*domain.Account, error) {
	balance, reserved, err := Apply(acct.Balance, acct.Reserved, adj.Operation, adj.Amount)
	if err != nil {
		return nil, err
	}

	newVersion := acct.Version + 1
	if err := m.accounts.UpdateBalance(ctx, tx, acct.ID, balance, reserved, newVersion); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &domain.Posting{
		ID:             uuid.New(),
		TransactionID:  adj.TransactionID,
		AccountID:      acct.ID,
		Operation:      adj.Operation,
		Amount:         adj.Amount,
		Currency:       adj.Currency,
		BalanceBefore:  acct.Balance,
		BalanceAfter:   balance,
		ReservedBefore: acct.Reserved,
		ReservedAfter:  reserved,
		CreatedAt:      now,
	}
	if err := m.postings.Create(ctx, tx, p); err != nil {
		return nil, fmt.Errorf("posting: %w", err)
	}

	logging.FromContext(ctx).Debug("balance adjusted",
		"account_id", acct.ID,
		"operation", adj.Operation,
		"amount", adj.Amount.String(),
		"balance_after", balance.String(),
		"reserved_after", reserved.String(),
		"transaction_id", adj.TransactionID,
	)

	updated := *acct
	updated.Balance = balance
	updated.Reserved = reserved
	updated.Version = newVersion
	updated.UpdatedAt = now
	return &updated, nil
}

// Apply computes the balance and reserved amounts after op. It never returns
// negative values: such results are ErrInsufficientFunds.
func Apply(balance, reserved decimal.Decimal, op domain.Operation, amount decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	if !amount.IsPositive() {
		return balance, reserved, domain.ErrInvalidAmount
	}

	switch op {
	case domain.OperationAdd:
		balance = balance.Add(amount)
	case domain.OperationSubtract:
		balance = balance.Sub(amount)
	case domain.OperationHold:
		balance = balance.Sub(amount)
		reserved = reserved.Add(amount)
	case domain.OperationRelease:
		reserved = reserved.Sub(amount)
		balance = balance.Add(amount)
	case domain.OperationSettle:
		reserved = reserved.Sub(amount)
	default:
		return balance, reserved, fmt.Errorf("%q: %w", op, domain.ErrInvalidOperation)
	}

	if balance.IsNegative() || reserved.IsNegative() {
		return balance, reserved, domain.ErrInsufficientFunds
	}
	return balance, reserved, nil
}

// LockInOrder ensures and locks the accounts of userIDs in one currency. Rows
// are locked in ascending id order so two units touching the same pair of
// accounts cannot deadlock.
func (m *Mutator) LockInOrder(ctx context.Context, tx *sql.Tx, currency domain.Currency, userIDs ...uuid.UUID) (map[uuid.UUID]*domain.Account, error) {
	byAccount := make(map[uuid.UUID]uuid.UUID, len(userIDs))
	ids := make([]uuid.UUID, 0, len(userIDs))
	for _, userID := range userIDs {
		id, err := m.accounts.Ensure(ctx, tx, userID, currency)
		if err != nil {
			return nil, fmt.Errorf("LockInOrder: %w", err)
		}
		if _, seen := byAccount[id]; seen {
			continue
		}
		byAccount[id] = userID
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})

	result := make(map[uuid.UUID]*domain.Account, len(ids))
	for _, id := range ids {
		acct, err := m.accounts.GetForUpdate(ctx, tx, id)
		if err != nil {
			return nil, fmt.Errorf("LockInOrder: %w", err)
		}
		result[byAccount[id]] = acct
	}
	return result, nil
}
