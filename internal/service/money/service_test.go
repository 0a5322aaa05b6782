package money

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
)

type fakeTxs struct {
	byID    map[uuid.UUID]*domain.Transaction
	created int
}

func (f *fakeTxs) Create(_ context.Context, _ *sql.Tx, t *domain.Transaction) error {
	f.created++
	return nil
}

func (f *fakeTxs) GetByID(_ context.Context, id uuid.UUID) (*domain.Transaction, error) {
	if t, ok := f.byID[id]; ok {
		return t, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeTxs) GetForUpdate(ctx context.Context, _ *sql.Tx, id uuid.UUID) (*domain.Transaction, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeTxs) List(context.Context, domain.TransactionFilter) ([]domain.Transaction, int, error) {
	return nil, 0, nil
}

func (f *fakeTxs) UpdateStatus(context.Context, *sql.Tx, uuid.UUID, domain.TransactionStatus, *string, *time.Time) error {
	return nil
}

type fakeProfiles map[uuid.UUID]*domain.Profile

func (f fakeProfiles) GetByID(_ context.Context, id uuid.UUID) (*domain.Profile, error) {
	if p, ok := f[id]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (f fakeProfiles) GetByAccountNumber(_ context.Context, n string) (*domain.Profile, error) {
	for _, p := range f {
		if p.AccountNumber == n {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

type fixedBalance decimal.Decimal

func (b fixedBalance) GetBalance(context.Context, uuid.UUID, domain.Currency) (decimal.Decimal, error) {
	return decimal.Decimal(b), nil
}

type fakeInstruments struct {
	banks   map[uuid.UUID]*domain.BankDetails
	wallets map[uuid.UUID]*domain.CryptoWallet
}

func (f *fakeInstruments) GetBankDetails(_ context.Context, id uuid.UUID) (*domain.BankDetails, error) {
	if b, ok := f.banks[id]; ok {
		return b, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeInstruments) GetCryptoWallet(_ context.Context, id uuid.UUID) (*domain.CryptoWallet, error) {
	if w, ok := f.wallets[id]; ok {
		return w, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeInstruments) ListBankDetails(context.Context, bool) ([]domain.BankDetails, error) {
	return nil, nil
}

func (f *fakeInstruments) ListCryptoWallets(context.Context, bool) ([]domain.CryptoWallet, error) {
	return nil, nil
}

// newTestService builds a Service with no database. Only paths that reject
// before opening a transaction can run against it.
func newTestService(available string, profiles fakeProfiles, opts Options) (*Service, *fakeTxs, *fakeInstruments) {
	txs := &fakeTxs{byID: map[uuid.UUID]*domain.Transaction{}}
	inst := &fakeInstruments{banks: map[uuid.UUID]*domain.BankDetails{}, wallets: map[uuid.UUID]*domain.CryptoWallet{}}
	svc := NewService(txs, nil, inst, profiles, fixedBalance(decimal.RequireFromString(available)), nil, nil, nil, opts)
	return svc, txs, inst
}

func TestValidateAmount(t *testing.T) {
	svc, _, _ := newTestService("0", nil, Options{
		Limits: map[domain.Currency]decimal.Decimal{domain.CurrencyUSD: decimal.NewFromInt(10_000)},
	})

	tests := []struct {
		name     string
		amount   string
		currency domain.Currency
		wantErr  error
	}{
		{"valid fiat", "150.00", domain.CurrencyUSD, nil},
		{"at limit", "10000", domain.CurrencyUSD, nil},
		{"above limit", "10000.01", domain.CurrencyUSD, domain.ErrLimitExceeded},
		{"uncapped currency", "5000000", domain.CurrencyNGN, nil},
		{"crypto precision", "0.00000001", domain.CurrencyBTC, nil},
		{"fiat precision", "1.001", domain.CurrencyUSD, domain.ErrInvalidAmount},
		{"zero", "0", domain.CurrencyUSD, domain.ErrInvalidAmount},
		{"negative", "-5", domain.CurrencyUSD, domain.ErrInvalidAmount},
		{"unknown currency", "10", domain.Currency("EUR"), domain.ErrInvalidCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.validateAmount(decimal.RequireFromString(tt.amount), tt.currency)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWithdraw_RejectsBeforeWriting(t *testing.T) {
	user := uuid.New()
	ctx := context.Background()

	tests := []struct {
		name    string
		req     WithdrawRequest
		wantErr error
	}{
		{
			name:    "insufficient funds",
			req:     WithdrawRequest{UserID: user, Amount: decimal.NewFromInt(150), Currency: domain.CurrencyUSD, Method: domain.WithdrawalMethodBank},
			wantErr: domain.ErrInsufficientFunds,
		},
		{
			name:    "unknown method",
			req:     WithdrawRequest{UserID: user, Amount: decimal.NewFromInt(10), Currency: domain.CurrencyUSD, Method: "paypal"},
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name:    "unknown bank account",
			req:     WithdrawRequest{UserID: user, Amount: decimal.NewFromInt(10), Currency: domain.CurrencyUSD, Method: domain.WithdrawalMethodBank, BankDetailsID: ptr(uuid.New())},
			wantErr: domain.ErrInstrumentInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, txs, _ := newTestService("100", nil, Options{})
			_, err := svc.Withdraw(ctx, tt.req)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, txs.created)
		})
	}
}

func TestDeposit_InstrumentChecks(t *testing.T) {
	ctx := context.Background()
	svc, txs, inst := newTestService("0", nil, Options{})

	inactive := uuid.New()
	inst.banks[inactive] = &domain.BankDetails{ID: inactive, Currency: domain.CurrencyUSD, IsActive: false}
	naira := uuid.New()
	inst.banks[naira] = &domain.BankDetails{ID: naira, Currency: domain.CurrencyNGN, IsActive: true}

	_, err := svc.Deposit(ctx, DepositRequest{
		UserID: uuid.New(), Amount: decimal.NewFromInt(10), Currency: domain.CurrencyUSD, BankDetailsID: &inactive,
	})
	assert.ErrorIs(t, err, domain.ErrInstrumentInactive)

	_, err = svc.Deposit(ctx, DepositRequest{
		UserID: uuid.New(), Amount: decimal.NewFromInt(10), Currency: domain.CurrencyUSD, BankDetailsID: &naira,
	})
	assert.ErrorIs(t, err, domain.ErrCurrencyMismatch)

	_, err = svc.Deposit(ctx, DepositRequest{
		UserID: uuid.New(), Amount: decimal.NewFromInt(10), Currency: domain.CurrencyUSD, Method: domain.WithdrawalMethodCash,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	assert.Zero(t, txs.created)
}

func TestInternalTransfer_RejectsBeforeWriting(t *testing.T) {
	ctx := context.Background()
	sender := &domain.Profile{ID: uuid.New(), AccountNumber: "1000000001"}
	recipient := &domain.Profile{ID: uuid.New(), AccountNumber: "1000000002"}
	profiles := fakeProfiles{sender.ID: sender, recipient.ID: recipient}

	tests := []struct {
		name      string
		available string
		req       InternalTransferRequest
		wantErr   error
	}{
		{
			name:      "self transfer by id",
			available: "100",
			req:       InternalTransferRequest{SenderID: sender.ID, RecipientID: sender.ID, Amount: decimal.NewFromInt(10), Currency: domain.CurrencyUSD},
			wantErr:   domain.ErrSelfTransfer,
		},
		{
			name:      "self transfer by account number",
			available: "100",
			req:       InternalTransferRequest{SenderID: sender.ID, RecipientAccountNumber: "1000000001", Amount: decimal.NewFromInt(10), Currency: domain.CurrencyUSD},
			wantErr:   domain.ErrSelfTransfer,
		},
		{
			name:      "unknown recipient",
			available: "100",
			req:       InternalTransferRequest{SenderID: sender.ID, RecipientAccountNumber: "9999999999", Amount: decimal.NewFromInt(10), Currency: domain.CurrencyUSD},
			wantErr:   domain.ErrRecipientNotFound,
		},
		{
			name:      "no recipient",
			available: "100",
			req:       InternalTransferRequest{SenderID: sender.ID, Amount: decimal.NewFromInt(10), Currency: domain.CurrencyUSD},
			wantErr:   domain.ErrInvalidRequest,
		},
		{
			name:      "insufficient funds",
			available: "5",
			req:       InternalTransferRequest{SenderID: sender.ID, RecipientID: recipient.ID, Amount: decimal.NewFromInt(10), Currency: domain.CurrencyUSD},
			wantErr:   domain.ErrInsufficientFunds,
		},
		{
			name:      "zero amount",
			available: "100",
			req:       InternalTransferRequest{SenderID: sender.ID, RecipientID: recipient.ID, Amount: decimal.Zero, Currency: domain.CurrencyUSD},
			wantErr:   domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, txs, _ := newTestService(tt.available, profiles, Options{})
			_, err := svc.InternalTransfer(ctx, tt.req)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, txs.created)
		})
	}
}

func TestOutboundTransfers_Validation(t *testing.T) {
	ctx := context.Background()
	svc, txs, _ := newTestService("100", nil, Options{})
	user := uuid.New()

	_, err := svc.ExternalTransfer(ctx, ExternalTransferRequest{
		UserID: user, Amount: decimal.NewFromInt(10), Currency: domain.CurrencyUSD, RecipientName: "Ada",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.CryptoTransfer(ctx, CryptoTransferRequest{
		UserID: user, Amount: decimal.NewFromInt(1), Currency: domain.CurrencyBTC, CryptoType: "DOGE", Address: "bc1qxyz",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.CryptoTransfer(ctx, CryptoTransferRequest{
		UserID: user, Amount: decimal.NewFromInt(1), Currency: domain.CurrencyBTC, CryptoType: domain.CryptoBTC,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.ExternalTransfer(ctx, ExternalTransferRequest{
		UserID: user, Amount: decimal.NewFromInt(500), Currency: domain.CurrencyUSD, RecipientName: "Ada", RecipientAccount: "0123456789",
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	assert.Zero(t, txs.created)
}

func TestResolutionSteps(t *testing.T) {
	tests := []struct {
		kind    domain.TransactionType
		outcome Outcome
		op      domain.Operation
		status  domain.TransactionStatus
	}{
		{domain.TransactionTypeDeposit, OutcomeApprove, domain.OperationAdd, domain.TransactionStatusCompleted},
		{domain.TransactionTypeDeposit, OutcomeReject, "", domain.TransactionStatusFailed},
		{domain.TransactionTypeWithdrawal, OutcomeApprove, domain.OperationSettle, domain.TransactionStatusCompleted},
		{domain.TransactionTypeWithdrawal, OutcomeReject, domain.OperationRelease, domain.TransactionStatusFailed},
		{domain.TransactionTypeWithdrawal, OutcomeCancel, domain.OperationRelease, domain.TransactionStatusCancelled},
		{domain.TransactionTypeTransferOut, OutcomeReject, domain.OperationRelease, domain.TransactionStatusFailed},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+string(tt.outcome), func(t *testing.T) {
			st, ok := steps[tt.kind][tt.outcome]
			require.True(t, ok)
			assert.Equal(t, tt.op, st.op)
			assert.Equal(t, tt.status, st.status)
		})
	}

	_, ok := steps[domain.TransactionTypeAirtime]
	assert.False(t, ok)
	_, ok = steps[domain.TransactionTypeTransferIn]
	assert.False(t, ok)
}

func TestGetTransactionForUser_HidesOtherOwners(t *testing.T) {
	svc, txs, _ := newTestService("0", nil, Options{})
	owner := uuid.New()
	id := uuid.New()
	txs.byID[id] = &domain.Transaction{ID: id, UserID: owner}

	got, err := svc.GetTransactionForUser(context.Background(), id, owner)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	_, err = svc.GetTransactionForUser(context.Background(), id, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
