package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
)

type BankDetailsInput struct {
	BankName      string
	AccountName   string
	AccountNumber string
	RoutingNumber string
	SwiftCode     string
	Currency      domain.Currency
}

func (s *Service) CreateBankDetails(ctx context.Context, in BankDetailsInput) (*domain.BankDetails, error) {
	if strings.TrimSpace(in.BankName) == "" || strings.TrimSpace(in.AccountName) == "" || strings.TrimSpace(in.AccountNumber) == "" {
		return nil, fmt.Errorf("CreateBankDetails: %w", domain.ErrInvalidRequest)
	}
	if !in.Currency.IsValid() || in.Currency.IsCrypto() {
		return nil, fmt.Errorf("CreateBankDetails: %w", domain.ErrInvalidCurrency)
	}

	now := time.Now().UTC()
	b := &domain.BankDetails{
		ID:            uuid.New(),
		BankName:      strings.TrimSpace(in.BankName),
		AccountName:   strings.TrimSpace(in.AccountName),
		AccountNumber: strings.TrimSpace(in.AccountNumber),
		RoutingNumber: nonEmpty(in.RoutingNumber),
		SwiftCode:     nonEmpty(in.SwiftCode),
		Currency:      in.Currency,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.instruments.CreateBankDetails(ctx, b); err != nil {
		return nil, fmt.Errorf("CreateBankDetails: %w", err)
	}
	return b, nil
}

func (s *Service) CreateCryptoWallet(ctx context.Context, name, address string, cryptoType domain.CryptoType) (*domain.CryptoWallet, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(address) == "" {
		return nil, fmt.Errorf("CreateCryptoWallet: %w", domain.ErrInvalidRequest)
	}
	if !cryptoType.IsValid() {
		return nil, fmt.Errorf("CreateCryptoWallet: crypto type %q: %w", cryptoType, domain.ErrInvalidRequest)
	}

	now := time.Now().UTC()
	w := &domain.CryptoWallet{
		ID:            uuid.New(),
		WalletName:    strings.TrimSpace(name),
		WalletAddress: strings.TrimSpace(address),
		CryptoType:    cryptoType,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.instruments.CreateCryptoWallet(ctx, w); err != nil {
		return nil, fmt.Errorf("CreateCryptoWallet: %w", err)
	}
	return w, nil
}

// ListInstruments includes inactive entries.
func (s *Service) ListInstruments(ctx context.Context) ([]domain.BankDetails, []domain.CryptoWallet, error) {
	banks, err := s.instruments.ListBankDetails(ctx, false)
	if err != nil {
		return nil, nil, fmt.Errorf("ListInstruments: %w", err)
	}
	wallets, err := s.instruments.ListCryptoWallets(ctx, false)
	if err != nil {
		return nil, nil, fmt.Errorf("ListInstruments: %w", err)
	}
	return banks, wallets, nil
}

func (s *Service) SetInstrumentActive(ctx context.Context, kind string, id uuid.UUID, active bool) error {
	if err := s.instruments.SetActive(ctx, kind, id, active); err != nil {
		return fmt.Errorf("SetInstrumentActive: %w", err)
	}
	return nil
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
