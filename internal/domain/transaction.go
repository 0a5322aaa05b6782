package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDeposit     TransactionType = "deposit"
	TransactionTypeWithdrawal  TransactionType = "withdrawal"
	TransactionTypeTransferIn  TransactionType = "transfer_in"
	TransactionTypeTransferOut TransactionType = "transfer_out"
	TransactionTypeAirtime     TransactionType = "airtime"
	TransactionTypeData        TransactionType = "data"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTransferIn,
		TransactionTypeTransferOut, TransactionTypeAirtime, TransactionTypeData:
		return true
	}
	return false
}

// Outbound kinds hold funds while pending.
func (t TransactionType) Outbound() bool {
	return t == TransactionTypeWithdrawal || t == TransactionTypeTransferOut
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusCancelled:
		return true
	}
	return false
}

func (s TransactionStatus) IsTerminal() bool {
	return s != TransactionStatusPending
}

type TransferType string

const (
	TransferTypeInternal TransferType = "internal"
	TransferTypeExternal TransferType = "external"
	TransferTypeCrypto   TransferType = "crypto"
)

// Transaction is one money-movement attempt and its lifecycle status.
type Transaction struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	Amount           decimal.Decimal
	Currency         Currency
	Type             TransactionType
	Status           TransactionStatus
	TransferType     *TransferType
	// Recipient* name the counterparty. On a transfer_in row that is the
	// sender.
	RecipientName    *string
	RecipientAccount *string
	RecipientUserID  *uuid.UUID
	BankName         *string
	BankDetailsID    *uuid.UUID
	CryptoType       *CryptoType
	CryptoWalletID   *uuid.UUID
	PhoneNumber      *string
	Description      *string
	ReferenceID      *uuid.UUID
	FailureReason    *string
	NotificationSent bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CompletedAt      *time.Time
}

type TransactionFilter struct {
	UserID *uuid.UUID
	Status *TransactionStatus
	Type   *TransactionType
	Limit  int
	Offset int
}
