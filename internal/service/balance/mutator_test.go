package balance

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestApply(t *testing.T) {
	tests := []struct {
		name         string
		balance      string
		reserved     string
		op           domain.Operation
		amount       string
		wantBalance  string
		wantReserved string
		wantErr      error
	}{
		{name: "add", balance: "100", reserved: "0", op: domain.OperationAdd, amount: "50.25", wantBalance: "150.25", wantReserved: "0"},
		{name: "subtract", balance: "100", reserved: "0", op: domain.OperationSubtract, amount: "40", wantBalance: "60", wantReserved: "0"},
		{name: "subtract to zero", balance: "100", reserved: "0", op: domain.OperationSubtract, amount: "100", wantBalance: "0", wantReserved: "0"},
		{name: "subtract overdraws", balance: "100", reserved: "0", op: domain.OperationSubtract, amount: "150", wantErr: domain.ErrInsufficientFunds},
		{name: "hold moves to reserved", balance: "100", reserved: "10", op: domain.OperationHold, amount: "30", wantBalance: "70", wantReserved: "40"},
		{name: "hold more than available", balance: "20", reserved: "50", op: domain.OperationHold, amount: "30", wantErr: domain.ErrInsufficientFunds},
		{name: "release restores", balance: "70", reserved: "40", op: domain.OperationRelease, amount: "30", wantBalance: "100", wantReserved: "10"},
		{name: "release more than reserved", balance: "70", reserved: "10", op: domain.OperationRelease, amount: "30", wantErr: domain.ErrInsufficientFunds},
		{name: "settle consumes reserved", balance: "70", reserved: "40", op: domain.OperationSettle, amount: "40", wantBalance: "70", wantReserved: "0"},
		{name: "settle more than reserved", balance: "1000", reserved: "5", op: domain.OperationSettle, amount: "6", wantErr: domain.ErrInsufficientFunds},
		{name: "crypto precision", balance: "0.00000001", reserved: "0", op: domain.OperationAdd, amount: "0.00000002", wantBalance: "0.00000003", wantReserved: "0"},
		{name: "zero amount", balance: "10", reserved: "0", op: domain.OperationAdd, amount: "0", wantErr: domain.ErrInvalidAmount},
		{name: "negative amount", balance: "10", reserved: "0", op: domain.OperationAdd, amount: "-1", wantErr: domain.ErrInvalidAmount},
		{name: "unknown operation", balance: "10", reserved: "0", op: domain.Operation("multiply"), amount: "1", wantErr: domain.ErrInvalidOperation},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			balance, reserved, err := Apply(d(tc.balance), d(tc.reserved), tc.op, d(tc.amount))
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, d(tc.wantBalance).Equal(balance), "balance: got %s", balance)
			assert.True(t, d(tc.wantReserved).Equal(reserved), "reserved: got %s", reserved)
		})
	}
}

type fakeAccounts struct {
	rows      map[uuid.UUID]*domain.Account
	lockOrder []uuid.UUID
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{rows: make(map[uuid.UUID]*domain.Account)}
}

func (f *fakeAccounts) Ensure(_ context.Context, _ *sql.Tx, userID uuid.UUID, currency domain.Currency) (uuid.UUID, error) {
	for id, a := range f.rows {
		if a.UserID == userID && a.Currency == currency {
			return id, nil
		}
	}
	a := &domain.Account{ID: uuid.New(), UserID: userID, Currency: currency}
	f.rows[a.ID] = a
	return a.ID, nil
}

func (f *fakeAccounts) GetForUpdate(_ context.Context, _ *sql.Tx, id uuid.UUID) (*domain.Account, error) {
	a, ok := f.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	f.lockOrder = append(f.lockOrder, id)
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) UpdateBalance(_ context.Context, _ *sql.Tx, id uuid.UUID, balance, reserved decimal.Decimal, newVersion int64) error {
	a := f.rows[id]
	if a.Version != newVersion-1 {
		return domain.ErrVersionConflict
	}
	a.Balance, a.Reserved, a.Version = balance, reserved, newVersion
	return nil
}

type fakePostings struct {
	created []domain.Posting
}

func (f *fakePostings) Create(_ context.Context, _ *sql.Tx, p *domain.Posting) error {
	f.created = append(f.created, *p)
	return nil
}

func TestAdjustTx_WritesOnePosting(t *testing.T) {
	accounts, postings := newFakeAccounts(), &fakePostings{}
	m := NewMutator(accounts, postings, nil)
	userID, txID := uuid.New(), uuid.New()

	acct, err := m.AdjustTx(context.Background(), nil, Adjustment{
		UserID:        userID,
		Currency:      domain.CurrencyNGN,
		Amount:        d("500"),
		Operation:     domain.OperationAdd,
		TransactionID: txID,
	})
	require.NoError(t, err)
	assert.True(t, d("500").Equal(acct.Balance))
	assert.Equal(t, int64(1), acct.Version)

	require.Len(t, postings.created, 1)
	p := postings.created[0]
	assert.Equal(t, txID, p.TransactionID)
	assert.Equal(t, acct.ID, p.AccountID)
	assert.True(t, p.BalanceBefore.IsZero())
	assert.True(t, d("500").Equal(p.BalanceAfter))
}

func TestAdjustTx_RejectsBeforeWriting(t *testing.T) {
	accounts, postings := newFakeAccounts(), &fakePostings{}
	m := NewMutator(accounts, postings, nil)

	_, err := m.AdjustTx(context.Background(), nil, Adjustment{
		UserID:        uuid.New(),
		Currency:      domain.CurrencyUSD,
		Amount:        d("150"),
		Operation:     domain.OperationSubtract,
		TransactionID: uuid.New(),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Empty(t, postings.created)
	for _, a := range accounts.rows {
		assert.Equal(t, int64(0), a.Version)
	}
}

func TestAdjustTx_InvalidInput(t *testing.T) {
	m := NewMutator(newFakeAccounts(), &fakePostings{}, nil)

	_, err := m.AdjustTx(context.Background(), nil, Adjustment{
		UserID: uuid.New(), Currency: "EUR", Amount: d("1"), Operation: domain.OperationAdd, TransactionID: uuid.New(),
	})
	require.ErrorIs(t, err, domain.ErrInvalidCurrency)

	_, err = m.AdjustTx(context.Background(), nil, Adjustment{
		UserID: uuid.New(), Currency: domain.CurrencyUSD, Amount: d("1"), Operation: domain.OperationAdd,
	})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestLockInOrder_SortsByAccountID(t *testing.T) {
	accounts := newFakeAccounts()
	m := NewMutator(accounts, &fakePostings{}, nil)
	a, b := uuid.New(), uuid.New()

	locked, err := m.LockInOrder(context.Background(), nil, domain.CurrencyUSD, a, b)
	require.NoError(t, err)
	require.Len(t, locked, 2)
	assert.Equal(t, a, locked[a].UserID)
	assert.Equal(t, b, locked[b].UserID)

	first := accounts.lockOrder
	accounts.lockOrder = nil
	_, err = m.LockInOrder(context.Background(), nil, domain.CurrencyUSD, b, a)
	require.NoError(t, err)
	assert.Equal(t, first, accounts.lockOrder, "lock order must not depend on argument order")
}
