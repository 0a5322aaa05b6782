package money

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
	"github.com/josh-kwaku/gvbank-ledger/internal/logging"
	"github.com/josh-kwaku/gvbank-ledger/internal/notification"
	"github.com/josh-kwaku/gvbank-ledger/internal/repository"
	"github.com/josh-kwaku/gvbank-ledger/internal/service/balance"
)

type ExternalTransferRequest struct {
	UserID           uuid.UUID
	Amount           decimal.Decimal
	Currency         domain.Currency
	RecipientName    string
	RecipientAccount string
	BankName         string
	Description      string
}

type CryptoTransferRequest struct {
	UserID      uuid.UUID
	Amount      decimal.Decimal
	Currency    domain.Currency
	CryptoType  domain.CryptoType
	Address     string
	Description string
}

// InternalTransferRequest names the recipient by user id or by account
// number; the id wins when both are set.
type InternalTransferRequest struct {
	SenderID               uuid.UUID
	RecipientID            uuid.UUID
	RecipientAccountNumber string
	Amount                 decimal.Decimal
	Currency               domain.Currency
	Description            string
}

// InternalTransfer is the linked pair of rows an internal transfer produces.
type InternalTransfer struct {
	ReferenceID uuid.UUID
	Debit       *domain.Transaction
	Credit      *domain.Transaction
}

// ExternalTransfer holds the amount and records a pending bank payout.
func (s *Service) ExternalTransfer(ctx context.Context, req ExternalTransferRequest) (*domain.Transaction, error) {
	var missing []string
	if strings.TrimSpace(req.RecipientName) == "" {
		missing = append(missing, "recipient_name")
	}
	if strings.TrimSpace(req.RecipientAccount) == "" {
		missing = append(missing, "recipient_account")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("ExternalTransfer: missing %s: %w", strings.Join(missing, ", "), domain.ErrInvalidRequest)
	}

	t := newTransaction(req.UserID, domain.TransactionTypeTransferOut, domain.TransactionStatusPending, req.Amount, req.Currency)
	t.TransferType = ptr(domain.TransferTypeExternal)
	t.RecipientName = ptr(strings.TrimSpace(req.RecipientName))
	t.RecipientAccount = ptr(strings.TrimSpace(req.RecipientAccount))
	t.BankName = optional(strings.TrimSpace(req.BankName))
	t.Description = optional(req.Description)

	if err := s.outbound(ctx, t); err != nil {
		return nil, fmt.Errorf("ExternalTransfer: %w", err)
	}
	s.notify(ctx, req.UserID, t, notification.TransferSubmitted(req.Amount, req.Currency, *t.RecipientName))
	return t, nil
}

// CryptoTransfer holds the amount and records a pending on-chain payout.
func (s *Service) CryptoTransfer(ctx context.Context, req CryptoTransferRequest) (*domain.Transaction, error) {
	address := strings.TrimSpace(req.Address)
	if address == "" {
		return nil, fmt.Errorf("CryptoTransfer: missing address: %w", domain.ErrInvalidRequest)
	}
	if !req.CryptoType.IsValid() {
		return nil, fmt.Errorf("CryptoTransfer: crypto type %q: %w", req.CryptoType, domain.ErrInvalidRequest)
	}

	t := newTransaction(req.UserID, domain.TransactionTypeTransferOut, domain.TransactionStatusPending, req.Amount, req.Currency)
	t.TransferType = ptr(domain.TransferTypeCrypto)
	t.RecipientAccount = &address
	t.CryptoType = ptr(req.CryptoType)
	t.Description = optional(req.Description)

	if err := s.outbound(ctx, t); err != nil {
		return nil, fmt.Errorf("CryptoTransfer: %w", err)
	}
	s.notify(ctx, req.UserID, t, notification.TransferSubmitted(req.Amount, req.Currency, address))
	return t, nil
}

// outbound validates, pre-checks funds, and records a pending transfer_out
// with its hold.
func (s *Service) outbound(ctx context.Context, t *domain.Transaction) error {
	if err := s.validateAmount(t.Amount, t.Currency); err != nil {
		return err
	}
	if err := s.ensureAvailable(ctx, t.UserID, t.Currency, t.Amount); err != nil {
		return err
	}
	if _, err := s.record(ctx, t, domain.OperationHold, nil); err != nil {
		return err
	}

	logging.FromContext(ctx).Info("transfer submitted",
		"transaction_id", t.ID,
		"user_id", t.UserID,
		"transfer_type", *t.TransferType,
		"amount", t.Amount.String(),
		"currency", t.Currency,
	)
	return nil
}

// InternalTransfer moves funds between two customers in one database
// transaction. Both rows complete immediately and share a reference id.
func (s *Service) InternalTransfer(ctx context.Context, req InternalTransferRequest) (*InternalTransfer, error) {
	log := logging.FromContext(ctx)

	if err := s.validateAmount(req.Amount, req.Currency); err != nil {
		return nil, fmt.Errorf("InternalTransfer: %w", err)
	}

	recipient, err := s.resolveRecipient(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("InternalTransfer: %w", err)
	}
	if recipient.ID == req.SenderID {
		return nil, fmt.Errorf("InternalTransfer: %w", domain.ErrSelfTransfer)
	}

	if err := s.ensureAvailable(ctx, req.SenderID, req.Currency, req.Amount); err != nil {
		return nil, fmt.Errorf("InternalTransfer: %w", err)
	}

	sender, err := s.profiles.GetByID(ctx, req.SenderID)
	if err != nil {
		return nil, fmt.Errorf("InternalTransfer: sender: %w", err)
	}

	ref := uuid.New()
	debit := newTransaction(req.SenderID, domain.TransactionTypeTransferOut, domain.TransactionStatusCompleted, req.Amount, req.Currency)
	debit.TransferType = ptr(domain.TransferTypeInternal)
	debit.RecipientUserID = &recipient.ID
	debit.RecipientName = optional(recipient.FullName())
	debit.RecipientAccount = &recipient.AccountNumber
	debit.Description = optional(req.Description)
	debit.ReferenceID = &ref

	credit := newTransaction(recipient.ID, domain.TransactionTypeTransferIn, domain.TransactionStatusCompleted, req.Amount, req.Currency)
	credit.TransferType = ptr(domain.TransferTypeInternal)
	credit.RecipientUserID = &sender.ID
	credit.RecipientName = optional(sender.FullName())
	credit.RecipientAccount = &sender.AccountNumber
	credit.Description = optional(req.Description)
	credit.ReferenceID = &ref

	err = repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.txs.Create(ctx, tx, debit); err != nil {
			return fmt.Errorf("create debit: %w", err)
		}
		if err := s.txs.Create(ctx, tx, credit); err != nil {
			return fmt.Errorf("create credit: %w", err)
		}

		locked, err := s.mutator.LockInOrder(ctx, tx, req.Currency, req.SenderID, recipient.ID)
		if err != nil {
			return err
		}
		if _, err := s.mutator.ApplyLocked(ctx, tx, locked[req.SenderID], balance.Adjustment{
			UserID:        req.SenderID,
			Currency:      req.Currency,
			Amount:        req.Amount,
			Operation:     domain.OperationSubtract,
			TransactionID: debit.ID,
		}); err != nil {
			return fmt.Errorf("debit sender: %w", err)
		}
		if _, err := s.mutator.ApplyLocked(ctx, tx, locked[recipient.ID], balance.Adjustment{
			UserID:        recipient.ID,
			Currency:      req.Currency,
			Amount:        req.Amount,
			Operation:     domain.OperationAdd,
			TransactionID: credit.ID,
		}); err != nil {
			return fmt.Errorf("credit recipient: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("InternalTransfer: %w", err)
	}

	log.Info("internal transfer completed",
		"reference_id", ref,
		"sender_id", req.SenderID,
		"recipient_id", recipient.ID,
		"amount", req.Amount.String(),
		"currency", req.Currency,
	)

	senderName := sender.FullName()
	if senderName == "" {
		senderName = sender.AccountNumber
	}
	recipientName := recipient.FullName()
	if recipientName == "" {
		recipientName = recipient.AccountNumber
	}
	s.notify(ctx, req.SenderID, debit, notification.TransferSent(req.Amount, req.Currency, recipientName))
	s.notify(ctx, recipient.ID, credit, notification.TransferReceived(req.Amount, req.Currency, senderName))

	return &InternalTransfer{ReferenceID: ref, Debit: debit, Credit: credit}, nil
}

func (s *Service) resolveRecipient(ctx context.Context, req InternalTransferRequest) (*domain.Profile, error) {
	var (
		p   *domain.Profile
		err error
	)
	switch {
	case req.RecipientID != uuid.Nil:
		p, err = s.profiles.GetByID(ctx, req.RecipientID)
	case strings.TrimSpace(req.RecipientAccountNumber) != "":
		p, err = s.profiles.GetByAccountNumber(ctx, strings.TrimSpace(req.RecipientAccountNumber))
	default:
		return nil, fmt.Errorf("resolveRecipient: missing recipient: %w", domain.ErrInvalidRequest)
	}
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("resolveRecipient: %w", domain.ErrRecipientNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("resolveRecipient: %w", err)
	}
	return p, nil
}
