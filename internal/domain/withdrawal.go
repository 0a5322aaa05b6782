package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WithdrawalMethod string

const (
	WithdrawalMethodBank   WithdrawalMethod = "bank"
	WithdrawalMethodCrypto WithdrawalMethod = "crypto"
	WithdrawalMethodCash   WithdrawalMethod = "cash"
)

func (m WithdrawalMethod) IsValid() bool {
	return m == WithdrawalMethodBank || m == WithdrawalMethodCrypto || m == WithdrawalMethodCash
}

type WithdrawalRequest struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	TransactionID  uuid.UUID
	Amount         decimal.Decimal
	Currency       Currency
	Method         WithdrawalMethod
	BankDetailsID  *uuid.UUID
	CryptoWalletID *uuid.UUID
	Status         TransactionStatus
	AdminNotes     *string
	ReviewedBy     *uuid.UUID
	ReviewedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
