// Package admin is the back-office side: reviewing pending transactions and
// withdrawal requests, payment instruments, settings, and reconciliation.
package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
	"github.com/josh-kwaku/gvbank-ledger/internal/logging"
	"github.com/josh-kwaku/gvbank-ledger/internal/notification"
	"github.com/josh-kwaku/gvbank-ledger/internal/service/money"
)

type resolver interface {
	Resolve(ctx context.Context, r money.Resolution) (*domain.Transaction, error)
}

type transactionRepo interface {
	List(ctx context.Context, f domain.TransactionFilter) ([]domain.Transaction, int, error)
	CountByStatus(ctx context.Context) (map[domain.TransactionStatus]int, error)
}

type withdrawalRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRequest, error)
	List(ctx context.Context, userID *uuid.UUID, status *domain.TransactionStatus, limit, offset int) ([]domain.WithdrawalRequest, error)
	CountPending(ctx context.Context) (int, error)
}

type profileRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	Count(ctx context.Context) (int, error)
}

type settingsRepo interface {
	List(ctx context.Context) ([]domain.AdminSetting, error)
	Upsert(ctx context.Context, s *domain.AdminSetting) error
}

type instrumentRepo interface {
	CreateBankDetails(ctx context.Context, b *domain.BankDetails) error
	CreateCryptoWallet(ctx context.Context, w *domain.CryptoWallet) error
	ListBankDetails(ctx context.Context, activeOnly bool) ([]domain.BankDetails, error)
	ListCryptoWallets(ctx context.Context, activeOnly bool) ([]domain.CryptoWallet, error)
	SetActive(ctx context.Context, kind string, id uuid.UUID, active bool) error
}

type accountRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

type postingReplayer interface {
	Replay(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, decimal.Decimal, error)
}

type notifier interface {
	Notify(ctx context.Context, req notification.Request)
}

type Service struct {
	resolver    resolver
	txs         transactionRepo
	withdrawals withdrawalRepo
	profiles    profileRepo
	settings    settingsRepo
	instruments instrumentRepo
	accounts    accountRepo
	postings    postingReplayer
	notifier    notifier
}

type Deps struct {
	Resolver    resolver
	Txs         transactionRepo
	Withdrawals withdrawalRepo
	Profiles    profileRepo
	Settings    settingsRepo
	Instruments instrumentRepo
	Accounts    accountRepo
	Postings    postingReplayer
	Notifier    notifier
}

func NewService(d Deps) *Service {
	return &Service{
		resolver:    d.Resolver,
		txs:         d.Txs,
		withdrawals: d.Withdrawals,
		profiles:    d.Profiles,
		settings:    d.Settings,
		instruments: d.Instruments,
		accounts:    d.Accounts,
		postings:    d.Postings,
		notifier:    d.Notifier,
	}
}

// Approve completes a pending transaction: deposits are credited, held
// withdrawals and outbound transfers are settled.
func (s *Service) Approve(ctx context.Context, transactionID, adminID uuid.UUID) (*domain.Transaction, error) {
	t, err := s.review(ctx, transactionID, adminID, money.OutcomeApprove, nil)
	if err != nil {
		return nil, fmt.Errorf("Approve: %w", err)
	}
	return t, nil
}

// Reject fails a pending transaction. Held funds return to the customer's
// available balance.
func (s *Service) Reject(ctx context.Context, transactionID, adminID uuid.UUID, notes string) (*domain.Transaction, error) {
	var n *string
	if notes = strings.TrimSpace(notes); notes != "" {
		n = &notes
	}
	t, err := s.review(ctx, transactionID, adminID, money.OutcomeReject, n)
	if err != nil {
		return nil, fmt.Errorf("Reject: %w", err)
	}
	return t, nil
}

func (s *Service) ApproveWithdrawal(ctx context.Context, withdrawalID, adminID uuid.UUID) (*domain.Transaction, error) {
	w, err := s.withdrawals.GetByID(ctx, withdrawalID)
	if err != nil {
		return nil, fmt.Errorf("ApproveWithdrawal: %w", err)
	}
	return s.Approve(ctx, w.TransactionID, adminID)
}

func (s *Service) RejectWithdrawal(ctx context.Context, withdrawalID, adminID uuid.UUID, notes string) (*domain.Transaction, error) {
	w, err := s.withdrawals.GetByID(ctx, withdrawalID)
	if err != nil {
		return nil, fmt.Errorf("RejectWithdrawal: %w", err)
	}
	return s.Reject(ctx, w.TransactionID, adminID, notes)
}

func (s *Service) review(ctx context.Context, transactionID, adminID uuid.UUID, outcome money.Outcome, notes *string) (*domain.Transaction, error) {
	t, err := s.resolver.Resolve(ctx, money.Resolution{
		TransactionID: transactionID,
		Outcome:       outcome,
		ReviewerID:    &adminID,
		Notes:         notes,
	})
	if err != nil {
		return nil, err
	}

	s.notifyReviewed(ctx, t, outcome == money.OutcomeApprove)
	return t, nil
}

func (s *Service) notifyReviewed(ctx context.Context, t *domain.Transaction, approved bool) {
	log := logging.FromContext(ctx)

	p, err := s.profiles.GetByID(ctx, t.UserID)
	if err != nil {
		log.Warn("review notification skipped: profile lookup failed", "error", err, "user_id", t.UserID)
		return
	}
	req, ok := notification.RequestOn(p, notification.ChannelForReview(t.Type), notification.Reviewed(t, approved), t)
	if !ok {
		log.Info("review notification skipped: no contact on profile", "user_id", t.UserID)
		return
	}
	s.notifier.Notify(ctx, req)
}

// ListPending returns transactions awaiting review, newest first.
func (s *Service) ListPending(ctx context.Context, limit, offset int) ([]domain.Transaction, int, error) {
	status := domain.TransactionStatusPending
	txs, total, err := s.txs.List(ctx, domain.TransactionFilter{Status: &status, Limit: limit, Offset: offset})
	if err != nil {
		return nil, 0, fmt.Errorf("ListPending: %w", err)
	}
	return txs, total, nil
}

func (s *Service) ListTransactions(ctx context.Context, f domain.TransactionFilter) ([]domain.Transaction, int, error) {
	txs, total, err := s.txs.List(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("ListTransactions: %w", err)
	}
	return txs, total, nil
}

func (s *Service) ListWithdrawals(ctx context.Context, status *domain.TransactionStatus, limit, offset int) ([]domain.WithdrawalRequest, error) {
	ws, err := s.withdrawals.List(ctx, nil, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ListWithdrawals: %w", err)
	}
	return ws, nil
}

func (s *Service) Stats(ctx context.Context) (*domain.Stats, error) {
	users, err := s.profiles.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("Stats: %w", err)
	}
	byStatus, err := s.txs.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("Stats: %w", err)
	}
	pendingWithdrawals, err := s.withdrawals.CountPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("Stats: %w", err)
	}

	stats := &domain.Stats{
		TotalUsers:          users,
		PendingTransactions: byStatus[domain.TransactionStatusPending],
		PendingWithdrawals:  pendingWithdrawals,
	}
	for _, n := range byStatus {
		stats.TotalTransactions += n
	}
	return stats, nil
}

func (s *Service) ListSettings(ctx context.Context) ([]domain.AdminSetting, error) {
	settings, err := s.settings.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListSettings: %w", err)
	}
	return settings, nil
}

func (s *Service) UpsertSetting(ctx context.Context, key, value string, description *string, adminID uuid.UUID) (*domain.AdminSetting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("UpsertSetting: missing key: %w", domain.ErrInvalidRequest)
	}

	setting := &domain.AdminSetting{
		Key:         key,
		Value:       value,
		Description: description,
		UpdatedBy:   &adminID,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.settings.Upsert(ctx, setting); err != nil {
		return nil, fmt.Errorf("UpsertSetting: %w", err)
	}

	logging.FromContext(ctx).Info("setting updated", "key", key, "admin_id", adminID)
	return setting, nil
}
