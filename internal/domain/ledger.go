package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Operation string

const (
	OperationAdd      Operation = "add"
	OperationSubtract Operation = "subtract"
	OperationHold     Operation = "hold"
	OperationRelease  Operation = "release"
	OperationSettle   Operation = "settle"
)

func (o Operation) IsValid() bool {
	switch o {
	case OperationAdd, OperationSubtract, OperationHold, OperationRelease, OperationSettle:
		return true
	}
	return false
}

// Posting is the journal row written for every balance change. Replaying the
// postings of an account reproduces its stored balance and reserved amount.
type Posting struct {
	ID             uuid.UUID
	TransactionID  uuid.UUID
	AccountID      uuid.UUID
	Operation      Operation
	Amount         decimal.Decimal
	Currency       Currency
	BalanceBefore  decimal.Decimal
	BalanceAfter   decimal.Decimal
	ReservedBefore decimal.Decimal
	ReservedAfter  decimal.Decimal
	CreatedAt      time.Time
}
