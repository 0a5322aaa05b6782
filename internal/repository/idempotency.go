package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
)

// CachedResponse is the stored outcome of a money-moving request, replayed
// when the same client retries with the same Idempotency-Key. A zero
// StatusCode marks a key whose first request is still running.
type CachedResponse struct {
	Key         string
	UserID      uuid.UUID
	RequestHash string
	StatusCode  int
	Body        []byte
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

func (c *CachedResponse) Matches(hash string) bool {
	return c.RequestHash == hash
}

func (c *CachedResponse) Pending() bool {
	return c.StatusCode == 0
}

type IdempotencyRepository struct {
	db *sql.DB
}

func NewIdempotencyRepository(db *sql.DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

// Lookup returns nil, nil when nothing live is cached for the key.
func (r *IdempotencyRepository) Lookup(ctx context.Context, key string, userID uuid.UUID) (*CachedResponse, error) {
	var c CachedResponse
	err := r.db.QueryRowContext(ctx,
		`SELECT idempotency_key, user_id, request_hash, status_code, response_body, created_at, expires_at
		FROM idempotency_cache
		WHERE idempotency_key = $1 AND user_id = $2 AND expires_at > now()`,
		key, userID,
	).Scan(&c.Key, &c.UserID, &c.RequestHash, &c.StatusCode, &c.Body, &c.CreatedAt, &c.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Lookup: %w", err)
	}
	return &c, nil
}

// Claim inserts a pending row for the key and reports whether this caller
// owns it. A live row, pending or complete, is left alone; an expired one is
// taken over.
func (r *IdempotencyRepository) Claim(ctx context.Context, c *CachedResponse) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO idempotency_cache (idempotency_key, user_id, request_hash, status_code, response_body, created_at, expires_at)
		VALUES ($1, $2, $3, 0, ''::bytea, $4, $5)
		ON CONFLICT (idempotency_key, user_id) DO UPDATE SET
			request_hash = EXCLUDED.request_hash,
			status_code = 0,
			response_body = ''::bytea,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
		WHERE idempotency_cache.expires_at <= now()`,
		c.Key, c.UserID, c.RequestHash, c.CreatedAt, c.ExpiresAt,
	)
	if err != nil {
		return false, fmt.Errorf("Claim: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("Claim: rows affected: %w", err)
	}
	return n == 1, nil
}

// Complete stores the response on a pending row claimed with the same
// request hash.
func (r *IdempotencyRepository) Complete(ctx context.Context, c *CachedResponse) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE idempotency_cache
		SET status_code = $1, response_body = $2, expires_at = $3
		WHERE idempotency_key = $4 AND user_id = $5 AND request_hash = $6 AND status_code = 0`,
		c.StatusCode, c.Body, c.ExpiresAt, c.Key, c.UserID, c.RequestHash,
	)
	if err != nil {
		return fmt.Errorf("Complete: %w", err)
	}
	if err := expectOneRow(res, domain.ErrNotFound); err != nil {
		return fmt.Errorf("Complete: %w", err)
	}
	return nil
}

// Release drops a pending claim so the client can retry the key.
func (r *IdempotencyRepository) Release(ctx context.Context, key string, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM idempotency_cache WHERE idempotency_key = $1 AND user_id = $2 AND status_code = 0`,
		key, userID,
	)
	if err != nil {
		return fmt.Errorf("Release: %w", err)
	}
	return nil
}

// Sweep deletes expired entries and reports how many were removed.
func (r *IdempotencyRepository) Sweep(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM idempotency_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("Sweep: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("Sweep: rows affected: %w", err)
	}
	return n, nil
}
