package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
)

// AccountService is the read side of the account store. Writes go through
// balance.Mutator.
type AccountService struct {
	accounts accountRepo
	postings postingRepo
}

func NewAccountService(accounts accountRepo, postings postingRepo) *AccountService {
	return &AccountService{accounts: accounts, postings: postings}
}

// GetBalance returns the available balance of userID in currency. An account
// that was never created has a zero balance.
func (s *AccountService) GetBalance(ctx context.Context, userID uuid.UUID, currency domain.Currency) (decimal.Decimal, error) {
	if !currency.IsValid() {
		return decimal.Zero, fmt.Errorf("GetBalance: %w", domain.ErrInvalidCurrency)
	}

	acct, err := s.accounts.GetByUserAndCurrency(ctx, userID, currency)
	if errors.Is(err, domain.ErrNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("GetBalance: %w", err)
	}
	return acct.Balance, nil
}

func (s *AccountService) ListAccounts(ctx context.Context, userID uuid.UUID) ([]domain.Account, error) {
	accounts, err := s.accounts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	return accounts, nil
}

func (s *AccountService) GetAccountForUser(ctx context.Context, accountID, userID uuid.UUID) (*domain.Account, error) {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("GetAccountForUser: %w", err)
	}
	if acct.UserID != userID {
		return nil, fmt.Errorf("GetAccountForUser: %w", domain.ErrNotFound)
	}
	return acct, nil
}

// ListPostings pages through the balance journal of one of the caller's
// accounts, newest first.
func (s *AccountService) ListPostings(ctx context.Context, accountID, userID uuid.UUID, limit, offset int) ([]domain.Posting, int, error) {
	if _, err := s.GetAccountForUser(ctx, accountID, userID); err != nil {
		return nil, 0, fmt.Errorf("ListPostings: %w", err)
	}

	postings, total, err := s.postings.GetByAccountID(ctx, accountID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ListPostings: %w", err)
	}
	return postings, total, nil
}
