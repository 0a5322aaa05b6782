package admin

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/gvbank-ledger/internal/logging"
)

type Reconciliation struct {
	AccountID        uuid.UUID
	StoredBalance    decimal.Decimal
	StoredReserved   decimal.Decimal
	ReplayedBalance  decimal.Decimal
	ReplayedReserved decimal.Decimal
}

func (r *Reconciliation) Balanced() bool {
	return r.StoredBalance.Equal(r.ReplayedBalance) && r.StoredReserved.Equal(r.ReplayedReserved)
}

// Reconcile replays an account's postings and compares the result with the
// stored balance. A mismatch is logged at error level.
func (s *Service) Reconcile(ctx context.Context, accountID uuid.UUID) (*Reconciliation, error) {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("Reconcile: %w", err)
	}
	balance, reserved, err := s.postings.Replay(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("Reconcile: %w", err)
	}

	rec := &Reconciliation{
		AccountID:        accountID,
		StoredBalance:    acct.Balance,
		StoredReserved:   acct.Reserved,
		ReplayedBalance:  balance,
		ReplayedReserved: reserved,
	}
	if !rec.Balanced() {
		logging.FromContext(ctx).Error("account out of balance with its postings",
			"account_id", accountID,
			"stored_balance", acct.Balance.String(),
			"replayed_balance", balance.String(),
			"stored_reserved", acct.Reserved.String(),
			"replayed_reserved", reserved.String(),
		)
	}
	return rec, nil
}
