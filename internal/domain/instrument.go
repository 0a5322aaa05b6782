package domain

import (
	"time"

	"github.com/google/uuid"
)

// BankDetails and CryptoWallet are the house instruments users deposit to and
// withdraw through. Admins maintain them.
type BankDetails struct {
	ID            uuid.UUID
	BankName      string
	AccountName   string
	AccountNumber string
	RoutingNumber *string
	SwiftCode     *string
	Currency      Currency
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type CryptoWallet struct {
	ID            uuid.UUID
	WalletName    string
	WalletAddress string
	CryptoType    CryptoType
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type AdminSetting struct {
	Key         string
	Value       string
	Description *string
	UpdatedBy   *uuid.UUID
	UpdatedAt   time.Time
}

type Stats struct {
	TotalUsers          int
	TotalTransactions   int
	PendingTransactions int
	PendingWithdrawals  int
}
