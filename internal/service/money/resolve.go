package money

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
	"github.com/josh-kwaku/gvbank-ledger/internal/logging"
	"github.com/josh-kwaku/gvbank-ledger/internal/notification"
	"github.com/josh-kwaku/gvbank-ledger/internal/repository"
	"github.com/josh-kwaku/gvbank-ledger/internal/service/balance"
)

type Outcome string

const (
	OutcomeApprove Outcome = "approve"
	OutcomeReject  Outcome = "reject"
	OutcomeCancel  Outcome = "cancel"
)

// Resolution closes a pending transaction.
type Resolution struct {
	TransactionID uuid.UUID
	Outcome       Outcome
	// OwnerID restricts the resolution to the owner's own transactions.
	OwnerID    *uuid.UUID
	ReviewerID *uuid.UUID
	Notes      *string
}

type step struct {
	op     domain.Operation
	status domain.TransactionStatus
}

// steps maps a pending transaction kind and an outcome to the balance
// operation and final status. Kinds missing here cannot be resolved.
var steps = map[domain.TransactionType]map[Outcome]step{
	domain.TransactionTypeDeposit: {
		OutcomeApprove: {domain.OperationAdd, domain.TransactionStatusCompleted},
		OutcomeReject:  {"", domain.TransactionStatusFailed},
		OutcomeCancel:  {"", domain.TransactionStatusCancelled},
	},
	domain.TransactionTypeWithdrawal: {
		OutcomeApprove: {domain.OperationSettle, domain.TransactionStatusCompleted},
		OutcomeReject:  {domain.OperationRelease, domain.TransactionStatusFailed},
		OutcomeCancel:  {domain.OperationRelease, domain.TransactionStatusCancelled},
	},
	domain.TransactionTypeTransferOut: {
		OutcomeApprove: {domain.OperationSettle, domain.TransactionStatusCompleted},
		OutcomeReject:  {domain.OperationRelease, domain.TransactionStatusFailed},
		OutcomeCancel:  {domain.OperationRelease, domain.TransactionStatusCancelled},
	},
}

// Resolve moves a pending transaction to its final status and applies the
// matching balance change in one database transaction. A linked withdrawal
// request follows the transaction's status.
func (s *Service) Resolve(ctx context.Context, r Resolution) (*domain.Transaction, error) {
	var resolved *domain.Transaction
	err := repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		t, err := s.txs.GetForUpdate(ctx, tx, r.TransactionID)
		if err != nil {
			return err
		}
		if r.OwnerID != nil && t.UserID != *r.OwnerID {
			return domain.ErrNotFound
		}
		if t.Status != domain.TransactionStatusPending {
			return domain.ErrTransactionNotPending
		}

		st, ok := steps[t.Type][r.Outcome]
		if !ok {
			return fmt.Errorf("%s/%s: %w", t.Type, r.Outcome, domain.ErrUnsupportedKind)
		}

		if st.op != "" {
			if _, err := s.mutator.AdjustTx(ctx, tx, balance.Adjustment{
				UserID:        t.UserID,
				Currency:      t.Currency,
				Amount:        t.Amount,
				Operation:     st.op,
				TransactionID: t.ID,
			}); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		var (
			reason      *string
			completedAt *time.Time
		)
		switch st.status {
		case domain.TransactionStatusCompleted:
			completedAt = &now
		case domain.TransactionStatusFailed:
			reason = r.Notes
			if reason == nil {
				reason = ptr("rejected by reviewer")
			}
		case domain.TransactionStatusCancelled:
			reason = ptr("cancelled by customer")
		}

		if err := s.txs.UpdateStatus(ctx, tx, t.ID, st.status, reason, completedAt); err != nil {
			return err
		}
		if err := s.withdrawals.Resolve(ctx, tx, t.ID, st.status, r.Notes, r.ReviewerID); err != nil {
			return err
		}

		t.Status = st.status
		t.FailureReason = reason
		t.CompletedAt = completedAt
		t.UpdatedAt = now
		resolved = t
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Resolve: %w", err)
	}

	logging.FromContext(ctx).Info("transaction resolved",
		"transaction_id", resolved.ID,
		"type", resolved.Type,
		"outcome", r.Outcome,
		"status", resolved.Status,
		"reviewer_id", r.ReviewerID,
	)
	return resolved, nil
}

// CancelTransaction lets a customer withdraw their own pending request.
// Held funds return to the available balance.
func (s *Service) CancelTransaction(ctx context.Context, userID, transactionID uuid.UUID) (*domain.Transaction, error) {
	t, err := s.Resolve(ctx, Resolution{
		TransactionID: transactionID,
		Outcome:       OutcomeCancel,
		OwnerID:       &userID,
	})
	if err != nil {
		return nil, fmt.Errorf("CancelTransaction: %w", err)
	}

	s.notify(ctx, userID, t, notification.Cancelled(t))
	return t, nil
}
