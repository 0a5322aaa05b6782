package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
)

// Amounts travel as decimal strings so no precision is lost on the way to
// JavaScript clients.

type profileDTO struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Phone         *string   `json:"phone"`
	Country       *string   `json:"country"`
	AccountNumber string    `json:"account_number"`
	Role          string    `json:"role"`
	CreatedAt     time.Time `json:"created_at"`
}

func toProfileDTO(p *domain.Profile) profileDTO {
	return profileDTO{
		ID:            p.ID,
		Email:         p.Email,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		Phone:         p.Phone,
		Country:       p.Country,
		AccountNumber: p.AccountNumber,
		Role:          string(p.Role),
		CreatedAt:     p.CreatedAt,
	}
}

// recipientDTO is what a sender may see about someone else.
type recipientDTO struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	AccountNumber string    `json:"account_number"`
}

type accountDTO struct {
	ID        uuid.UUID       `json:"id"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Reserved  decimal.Decimal `json:"reserved"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	return accountDTO{
		ID:        a.ID,
		Currency:  string(a.Currency),
		Balance:   a.Balance,
		Reserved:  a.Reserved,
		UpdatedAt: a.UpdatedAt,
	}
}

type postingDTO struct {
	ID             uuid.UUID       `json:"id"`
	TransactionID  uuid.UUID       `json:"transaction_id"`
	Operation      string          `json:"operation"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	BalanceBefore  decimal.Decimal `json:"balance_before"`
	BalanceAfter   decimal.Decimal `json:"balance_after"`
	ReservedBefore decimal.Decimal `json:"reserved_before"`
	ReservedAfter  decimal.Decimal `json:"reserved_after"`
	CreatedAt      time.Time       `json:"created_at"`
}

func toPostingDTO(p *domain.Posting) postingDTO {
	return postingDTO{
		ID:             p.ID,
		TransactionID:  p.TransactionID,
		Operation:      string(p.Operation),
		Amount:         p.Amount,
		Currency:       string(p.Currency),
		BalanceBefore:  p.BalanceBefore,
		BalanceAfter:   p.BalanceAfter,
		ReservedBefore: p.ReservedBefore,
		ReservedAfter:  p.ReservedAfter,
		CreatedAt:      p.CreatedAt,
	}
}

type transactionDTO struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	Type             string          `json:"transaction_type"`
	Status           string          `json:"status"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	TransferType     *string         `json:"transfer_type,omitempty"`
	RecipientName    *string         `json:"recipient_name,omitempty"`
	RecipientAccount *string         `json:"recipient_account,omitempty"`
	RecipientUserID  *uuid.UUID      `json:"recipient_user_id,omitempty"`
	BankName         *string         `json:"bank_name,omitempty"`
	BankDetailsID    *uuid.UUID      `json:"bank_details_id,omitempty"`
	CryptoType       *string         `json:"crypto_type,omitempty"`
	CryptoWalletID   *uuid.UUID      `json:"crypto_wallet_id,omitempty"`
	Description      *string         `json:"description,omitempty"`
	ReferenceID      *uuid.UUID      `json:"reference_id,omitempty"`
	FailureReason    *string         `json:"failure_reason,omitempty"`
	NotificationSent bool            `json:"notification_sent"`
	CreatedAt        time.Time       `json:"created_at"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
}

func toTransactionDTO(t *domain.Transaction) transactionDTO {
	dto := transactionDTO{
		ID:               t.ID,
		UserID:           t.UserID,
		Type:             string(t.Type),
		Status:           string(t.Status),
		Amount:           t.Amount,
		Currency:         string(t.Currency),
		RecipientName:    t.RecipientName,
		RecipientAccount: t.RecipientAccount,
		RecipientUserID:  t.RecipientUserID,
		BankName:         t.BankName,
		BankDetailsID:    t.BankDetailsID,
		CryptoWalletID:   t.CryptoWalletID,
		Description:      t.Description,
		ReferenceID:      t.ReferenceID,
		FailureReason:    t.FailureReason,
		NotificationSent: t.NotificationSent,
		CreatedAt:        t.CreatedAt,
		CompletedAt:      t.CompletedAt,
	}
	if t.TransferType != nil {
		v := string(*t.TransferType)
		dto.TransferType = &v
	}
	if t.CryptoType != nil {
		v := string(*t.CryptoType)
		dto.CryptoType = &v
	}
	return dto
}

func toTransactionDTOs(ts []domain.Transaction) []transactionDTO {
	out := make([]transactionDTO, len(ts))
	for i := range ts {
		out[i] = toTransactionDTO(&ts[i])
	}
	return out
}

type withdrawalDTO struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	TransactionID  uuid.UUID       `json:"transaction_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Method         string          `json:"withdrawal_method"`
	BankDetailsID  *uuid.UUID      `json:"bank_details_id,omitempty"`
	CryptoWalletID *uuid.UUID      `json:"crypto_wallet_id,omitempty"`
	Status         string          `json:"status"`
	AdminNotes     *string         `json:"admin_notes,omitempty"`
	ReviewedBy     *uuid.UUID      `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time      `json:"reviewed_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func toWithdrawalDTOs(ws []domain.WithdrawalRequest) []withdrawalDTO {
	out := make([]withdrawalDTO, len(ws))
	for i, w := range ws {
		out[i] = withdrawalDTO{
			ID:             w.ID,
			UserID:         w.UserID,
			TransactionID:  w.TransactionID,
			Amount:         w.Amount,
			Currency:       string(w.Currency),
			Method:         string(w.Method),
			BankDetailsID:  w.BankDetailsID,
			CryptoWalletID: w.CryptoWalletID,
			Status:         string(w.Status),
			AdminNotes:     w.AdminNotes,
			ReviewedBy:     w.ReviewedBy,
			ReviewedAt:     w.ReviewedAt,
			CreatedAt:      w.CreatedAt,
		}
	}
	return out
}

type bankDetailsDTO struct {
	ID            uuid.UUID `json:"id"`
	BankName      string    `json:"bank_name"`
	AccountName   string    `json:"account_name"`
	AccountNumber string    `json:"account_number"`
	RoutingNumber *string   `json:"routing_number,omitempty"`
	SwiftCode     *string   `json:"swift_code,omitempty"`
	Currency      string    `json:"currency"`
	IsActive      bool      `json:"is_active"`
}

func toBankDetailsDTO(b *domain.BankDetails) bankDetailsDTO {
	return bankDetailsDTO{
		ID:            b.ID,
		BankName:      b.BankName,
		AccountName:   b.AccountName,
		AccountNumber: b.AccountNumber,
		RoutingNumber: b.RoutingNumber,
		SwiftCode:     b.SwiftCode,
		Currency:      string(b.Currency),
		IsActive:      b.IsActive,
	}
}

type cryptoWalletDTO struct {
	ID            uuid.UUID `json:"id"`
	WalletName    string    `json:"wallet_name"`
	WalletAddress string    `json:"wallet_address"`
	CryptoType    string    `json:"crypto_type"`
	IsActive      bool      `json:"is_active"`
}

func toCryptoWalletDTO(w *domain.CryptoWallet) cryptoWalletDTO {
	return cryptoWalletDTO{
		ID:            w.ID,
		WalletName:    w.WalletName,
		WalletAddress: w.WalletAddress,
		CryptoType:    string(w.CryptoType),
		IsActive:      w.IsActive,
	}
}

type instrumentsDTO struct {
	BankAccounts  []bankDetailsDTO  `json:"bank_accounts"`
	CryptoWallets []cryptoWalletDTO `json:"crypto_wallets"`
}

func toInstrumentsDTO(banks []domain.BankDetails, wallets []domain.CryptoWallet) instrumentsDTO {
	dto := instrumentsDTO{
		BankAccounts:  make([]bankDetailsDTO, len(banks)),
		CryptoWallets: make([]cryptoWalletDTO, len(wallets)),
	}
	for i := range banks {
		dto.BankAccounts[i] = toBankDetailsDTO(&banks[i])
	}
	for i := range wallets {
		dto.CryptoWallets[i] = toCryptoWalletDTO(&wallets[i])
	}
	return dto
}

type settingDTO struct {
	Key         string     `json:"setting_key"`
	Value       string     `json:"setting_value"`
	Description *string    `json:"description,omitempty"`
	UpdatedBy   *uuid.UUID `json:"updated_by,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toSettingDTO(s *domain.AdminSetting) settingDTO {
	return settingDTO{
		Key:         s.Key,
		Value:       s.Value,
		Description: s.Description,
		UpdatedBy:   s.UpdatedBy,
		UpdatedAt:   s.UpdatedAt,
	}
}
