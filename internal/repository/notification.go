package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
)

const notificationColumns = `id, user_id, transaction_id, notification_type, recipient, message,
	attempts, last_error, sent_at, created_at`

// DeliveryLease is how long a claimed notification is hidden from other
// relays while one delivery attempt is in flight.
const DeliveryLease = time.Minute

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts the row already leased to the caller, so the relay leaves
// it alone while the first delivery attempt runs.
func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (
			id, user_id, transaction_id, notification_type, recipient, message,
			attempts, last_error, sent_at, claimed_until, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		n.ID, n.UserID, n.TransactionID, n.Channel, n.Recipient, n.Message,
		n.Attempts, n.LastError, n.SentAt, n.CreatedAt.Add(DeliveryLease), n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// ClaimUnsent leases up to limit undelivered notifications whose previous
// lease has lapsed. The lease is committed with the claim, so delivery runs
// without holding row locks and concurrent relays skip leased rows.
func (r *NotificationRepository) ClaimUnsent(ctx context.Context, maxAttempts, limit int, lease time.Duration) ([]domain.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`UPDATE notifications SET claimed_until = now() + make_interval(secs => $3)
		WHERE id IN (
			SELECT id FROM notifications
			WHERE sent_at IS NULL AND attempts < $1
				AND (claimed_until IS NULL OR claimed_until < now())
			ORDER BY created_at LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+notificationColumns,
		maxAttempts, limit, lease.Seconds(),
	)
	if err != nil {
		return nil, fmt.Errorf("ClaimUnsent: %w", err)
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("ClaimUnsent: scan: %w", err)
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ClaimUnsent: rows: %w", err)
	}
	return out, nil
}

// RecordAttempt stores the outcome of one delivery attempt and ends the
// lease. A nil deliveryErr marks the notification sent.
func (r *NotificationRepository) RecordAttempt(ctx context.Context, id uuid.UUID, deliveryErr error, at time.Time) error {
	var (
		res sql.Result
		err error
	)
	if deliveryErr == nil {
		res, err = r.db.ExecContext(ctx,
			`UPDATE notifications SET attempts = attempts + 1, sent_at = $1, last_error = NULL, claimed_until = NULL
			WHERE id = $2`,
			at, id,
		)
	} else {
		res, err = r.db.ExecContext(ctx,
			`UPDATE notifications SET attempts = attempts + 1, last_error = $1, claimed_until = NULL
			WHERE id = $2`,
			deliveryErr.Error(), id,
		)
	}
	if err != nil {
		return fmt.Errorf("RecordAttempt: %w", err)
	}
	if err := expectOneRow(res, domain.ErrNotFound); err != nil {
		return fmt.Errorf("RecordAttempt: %w", err)
	}
	return nil
}

// ListByUser returns a user's notifications, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByUser: %w", err)
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByUser: scan: %w", err)
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByUser: rows: %w", err)
	}
	return out, nil
}

func scanNotification(s scanner) (*domain.Notification, error) {
	var n domain.Notification
	err := s.Scan(
		&n.ID, &n.UserID, &n.TransactionID, &n.Channel, &n.Recipient, &n.Message,
		&n.Attempts, &n.LastError, &n.SentAt, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
