package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
)

const postingColumns = `id, transaction_id, account_id, operation, amount, currency,
	balance_before, balance_after, reserved_before, reserved_after, created_at`

type PostingRepository struct {
	db *sql.DB
}

func NewPostingRepository(db *sql.DB) *PostingRepository {
	return &PostingRepository{db: db}
}

func (r *PostingRepository) Create(ctx context.Context, tx *sql.Tx, p *domain.Posting) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO postings (
			id, transaction_id, account_id, operation, amount, currency,
			balance_before, balance_after, reserved_before, reserved_after, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.TransactionID, p.AccountID, p.Operation, p.Amount, p.Currency,
		p.BalanceBefore, p.BalanceAfter, p.ReservedBefore, p.ReservedAfter, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *PostingRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Posting, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM postings WHERE account_id = $1`, accountID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByAccountID: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postingColumns+` FROM postings
		WHERE account_id = $1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`,
		accountID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByAccountID: %w", err)
	}
	defer rows.Close()

	postings, err := collectPostings(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByAccountID: %w", err)
	}
	return postings, total, nil
}

// Replay folds every posting of an account into the balance and reserved
// amounts they imply.
func (r *PostingRepository) Replay(ctx context.Context, accountID uuid.UUID) (balance, reserved decimal.Decimal, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(CASE operation
				WHEN 'add' THEN amount
				WHEN 'release' THEN amount
				WHEN 'subtract' THEN -amount
				WHEN 'hold' THEN -amount
				ELSE 0 END), 0),
			COALESCE(SUM(CASE operation
				WHEN 'hold' THEN amount
				WHEN 'release' THEN -amount
				WHEN 'settle' THEN -amount
				ELSE 0 END), 0)
		FROM postings WHERE account_id = $1`, accountID,
	).Scan(&balance, &reserved)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("Replay: %w", err)
	}
	return balance, reserved, nil
}

func collectPostings(rows *sql.Rows) ([]domain.Posting, error) {
	var postings []domain.Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		postings = append(postings, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return postings, nil
}

func scanPosting(s scanner) (*domain.Posting, error) {
	var p domain.Posting
	err := s.Scan(
		&p.ID, &p.TransactionID, &p.AccountID, &p.Operation, &p.Amount, &p.Currency,
		&p.BalanceBefore, &p.BalanceAfter, &p.ReservedBefore, &p.ReservedAfter, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
