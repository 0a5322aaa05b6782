package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
)

const withdrawalColumns = `id, user_id, transaction_id, amount, currency, withdrawal_method,
	bank_details_id, crypto_wallet_id, status, admin_notes, reviewed_by, reviewed_at,
	created_at, updated_at`

type WithdrawalRepository struct {
	db *sql.DB
}

func NewWithdrawalRepository(db *sql.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

func (r *WithdrawalRepository) Create(ctx context.Context, tx *sql.Tx, w *domain.WithdrawalRequest) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO withdrawal_requests (
			id, user_id, transaction_id, amount, currency, withdrawal_method,
			bank_details_id, crypto_wallet_id, status, admin_notes, reviewed_by, reviewed_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		w.ID, w.UserID, w.TransactionID, w.Amount, w.Currency, w.Method,
		w.BankDetailsID, w.CryptoWalletID, w.Status, w.AdminNotes, w.ReviewedBy, w.ReviewedAt,
		w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRequest, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = $1`, id,
	)
	w, err := scanWithdrawal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return w, nil
}

func (r *WithdrawalRepository) List(ctx context.Context, userID *uuid.UUID, status *domain.TransactionStatus, limit, offset int) ([]domain.WithdrawalRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawal_requests
		WHERE ($1::uuid IS NULL OR user_id = $1) AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC, id LIMIT $3 OFFSET $4`,
		userID, status, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var out []domain.WithdrawalRequest
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		out = append(out, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return out, nil
}

// Resolve mirrors the final status of the linked transaction onto the
// request. A transaction without a request is not an error.
func (r *WithdrawalRepository) Resolve(ctx context.Context, tx *sql.Tx, transactionID uuid.UUID, status domain.TransactionStatus, notes *string, reviewer *uuid.UUID) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE withdrawal_requests
		SET status = $1, admin_notes = COALESCE($2, admin_notes), reviewed_by = $3,
			reviewed_at = CASE WHEN $3::uuid IS NULL THEN reviewed_at ELSE now() END,
			updated_at = now()
		WHERE transaction_id = $4 AND status = $5`,
		status, notes, reviewer, transactionID, domain.TransactionStatusPending,
	)
	if err != nil {
		return fmt.Errorf("Resolve: %w", err)
	}
	return nil
}

func (r *WithdrawalRepository) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM withdrawal_requests WHERE status = $1`, domain.TransactionStatusPending,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("CountPending: %w", err)
	}
	return n, nil
}

func scanWithdrawal(s scanner) (*domain.WithdrawalRequest, error) {
	var w domain.WithdrawalRequest
	err := s.Scan(
		&w.ID, &w.UserID, &w.TransactionID, &w.Amount, &w.Currency, &w.Method,
		&w.BankDetailsID, &w.CryptoWalletID, &w.Status, &w.AdminNotes, &w.ReviewedBy, &w.ReviewedAt,
		&w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
