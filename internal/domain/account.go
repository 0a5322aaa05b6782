package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account holds one balance per (owner, currency). Balance is the spendable
// amount; Reserved is held against pending outbound transactions.
type Account struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Currency  Currency
	Balance   decimal.Decimal
	Reserved  decimal.Decimal
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
