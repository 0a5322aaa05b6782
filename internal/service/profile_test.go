package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/gvbank-ledger/internal/auth"
	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
	"github.com/josh-kwaku/gvbank-ledger/internal/repository"
)

type fakeProfiles struct {
	byID       map[uuid.UUID]*domain.Profile
	collisions int
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{byID: make(map[uuid.UUID]*domain.Profile)}
}

func (f *fakeProfiles) Create(_ context.Context, p *domain.Profile) error {
	if f.collisions > 0 {
		f.collisions--
		return repository.ErrAccountNumberTaken
	}
	for _, existing := range f.byID {
		if existing.Email == p.Email {
			return domain.ErrEmailTaken
		}
	}
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakeProfiles) GetByID(_ context.Context, id uuid.UUID) (*domain.Profile, error) {
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProfiles) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	for _, p := range f.byID {
		if strings.EqualFold(p.Email, email) {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProfiles) GetByAccountNumber(_ context.Context, n string) (*domain.Profile, error) {
	for _, p := range f.byID {
		if p.AccountNumber == n {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

const testSecret = "test-secret-that-is-long-enough"

func TestSignup(t *testing.T) {
	repo := newFakeProfiles()
	svc := NewProfileService(repo, testSecret, time.Hour)
	ctx := context.Background()

	p, err := svc.Signup(ctx, SignupRequest{
		Email:     "  Ada@Example.com ",
		Password:  "correct-horse",
		FirstName: "Ada",
		LastName:  "Obi",
		Phone:     "+2348000000000",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", p.Email)
	assert.Equal(t, domain.RoleUser, p.Role)
	assert.Len(t, p.AccountNumber, 10)
	assert.NotEqual(t, "correct-horse", p.PasswordHash)
	require.NotNil(t, p.Phone)
	assert.Nil(t, p.Country)

	_, err = svc.Signup(ctx, SignupRequest{Email: "ada@example.com", Password: "another-pass"})
	require.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestSignup_RetriesAccountNumberCollision(t *testing.T) {
	repo := newFakeProfiles()
	repo.collisions = 2
	svc := NewProfileService(repo, testSecret, time.Hour)

	p, err := svc.Signup(context.Background(), SignupRequest{Email: "retry@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Contains(t, repo.byID, p.ID)
}

func TestSignup_GivesUpAfterRepeatedCollisions(t *testing.T) {
	repo := newFakeProfiles()
	repo.collisions = accountNumberAttempts
	svc := NewProfileService(repo, testSecret, time.Hour)

	_, err := svc.Signup(context.Background(), SignupRequest{Email: "unlucky@example.com", Password: "password123"})
	require.ErrorIs(t, err, repository.ErrAccountNumberTaken)
}

func TestSignup_Validation(t *testing.T) {
	svc := NewProfileService(newFakeProfiles(), testSecret, time.Hour)

	tests := []struct {
		name string
		req  SignupRequest
	}{
		{name: "bad email", req: SignupRequest{Email: "not-an-email", Password: "password123"}},
		{name: "short password", req: SignupRequest{Email: "a@b.co", Password: "short"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), tc.req)
			require.ErrorIs(t, err, domain.ErrInvalidRequest)
		})
	}
}

func TestLogin(t *testing.T) {
	repo := newFakeProfiles()
	svc := NewProfileService(repo, testSecret, time.Hour)
	ctx := context.Background()

	created, err := svc.Signup(ctx, SignupRequest{Email: "login@example.com", Password: "password123"})
	require.NoError(t, err)

	token, p, err := svc.Login(ctx, "login@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, p.ID)

	claims, err := auth.ValidateToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, created.ID, claims.UserID)
	assert.Equal(t, domain.RoleUser, claims.Role)

	_, _, err = svc.Login(ctx, "login@example.com", "wrong-password")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "password123")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLookupRecipient(t *testing.T) {
	repo := newFakeProfiles()
	svc := NewProfileService(repo, testSecret, time.Hour)
	ctx := context.Background()

	p, err := svc.Signup(ctx, SignupRequest{Email: "target@example.com", Password: "password123"})
	require.NoError(t, err)

	found, err := svc.LookupRecipient(ctx, " "+p.AccountNumber+" ")
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)

	_, err = svc.LookupRecipient(ctx, "0000000000x")
	require.ErrorIs(t, err, domain.ErrRecipientNotFound)
}

type fakeAccountRepo struct {
	accounts []domain.Account
}

func (f *fakeAccountRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	for i := range f.accounts {
		if f.accounts[i].ID == id {
			return &f.accounts[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAccountRepo) GetByUserAndCurrency(_ context.Context, userID uuid.UUID, c domain.Currency) (*domain.Account, error) {
	for i := range f.accounts {
		if f.accounts[i].UserID == userID && f.accounts[i].Currency == c {
			return &f.accounts[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAccountRepo) GetByUserID(_ context.Context, userID uuid.UUID) ([]domain.Account, error) {
	var out []domain.Account
	for _, a := range f.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

type noPostings struct{}

func (noPostings) GetByAccountID(context.Context, uuid.UUID, int, int) ([]domain.Posting, int, error) {
	return nil, 0, nil
}

func TestGetBalance(t *testing.T) {
	owner := uuid.New()
	repo := &fakeAccountRepo{accounts: []domain.Account{
		{ID: uuid.New(), UserID: owner, Currency: domain.CurrencyUSD, Balance: decimal.RequireFromString("60")},
	}}
	svc := NewAccountService(repo, noPostings{})
	ctx := context.Background()

	bal, err := svc.GetBalance(ctx, owner, domain.CurrencyUSD)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(60).Equal(bal))

	bal, err = svc.GetBalance(ctx, owner, domain.CurrencyNGN)
	require.NoError(t, err, "missing account is a zero balance, not an error")
	assert.True(t, bal.IsZero())

	_, err = svc.GetBalance(ctx, owner, domain.Currency("GBP"))
	require.ErrorIs(t, err, domain.ErrInvalidCurrency)
}

func TestListPostings_OtherUsersAccount(t *testing.T) {
	owner := uuid.New()
	acct := domain.Account{ID: uuid.New(), UserID: owner, Currency: domain.CurrencyUSD}
	svc := NewAccountService(&fakeAccountRepo{accounts: []domain.Account{acct}}, noPostings{})

	_, _, err := svc.ListPostings(context.Background(), acct.ID, uuid.New(), 10, 0)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, _, err = svc.ListPostings(context.Background(), acct.ID, owner, 10, 0)
	require.NoError(t, err)
}
