// Package notification records customer notifications and delivers them
// through pluggable senders. Delivery never fails the caller's operation.
package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
	"github.com/josh-kwaku/gvbank-ledger/internal/logging"
)

type Request struct {
	UserID        uuid.UUID
	Channel       domain.NotificationChannel
	Recipient     string
	Message       string
	TransactionID *uuid.UUID
}

func (r Request) validate() error {
	var missing []string
	if r.UserID == uuid.Nil {
		missing = append(missing, "userId")
	}
	if strings.TrimSpace(r.Recipient) == "" {
		missing = append(missing, "recipient")
	}
	if strings.TrimSpace(r.Message) == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s: %w", strings.Join(missing, ", "), domain.ErrInvalidRequest)
	}
	if !r.Channel.IsValid() {
		return fmt.Errorf("type %q: %w", r.Channel, domain.ErrInvalidRequest)
	}
	return nil
}

// Sender delivers one notification to its recipient.
type Sender interface {
	Send(ctx context.Context, n *domain.Notification) error
}

type notificationRepo interface {
	Create(ctx context.Context, n *domain.Notification) error
	RecordAttempt(ctx context.Context, id uuid.UUID, deliveryErr error, at time.Time) error
}

type transactionMarker interface {
	MarkNotificationSent(ctx context.Context, id uuid.UUID) error
}

// deliveryTimeout bounds one provider call.
const deliveryTimeout = 10 * time.Second

type Dispatcher struct {
	repo   notificationRepo
	txs    transactionMarker
	sender Sender

	inflight sync.WaitGroup
}

func NewDispatcher(repo notificationRepo, txs transactionMarker, sender Sender) *Dispatcher {
	return &Dispatcher{repo: repo, txs: txs, sender: sender}
}

// Send persists the notification and attempts delivery once. Only
// validation and persistence failures are returned; a delivery failure is
// recorded on the row for the relay to retry.
func (d *Dispatcher) Send(ctx context.Context, req Request) (*domain.Notification, error) {
	n, err := d.persist(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Send: %w", err)
	}

	d.deliver(ctx, n)
	if n.SentAt == nil {
		logging.FromContext(ctx).Warn("notification queued for retry",
			"notification_id", n.ID,
			"channel", n.Channel,
		)
	}
	return n, nil
}

// Notify stores the notification and delivers it in the background. It
// returns once the row is written and never reports an error, so a slow or
// failing provider cannot hold up the caller. The row outlives a cancelled
// request context.
func (d *Dispatcher) Notify(ctx context.Context, req Request) {
	ctx = context.WithoutCancel(ctx)
	log := logging.FromContext(ctx)

	n, err := d.persist(ctx, req)
	if err != nil {
		log.Error("notification dropped",
			"error", err,
			"user_id", req.UserID,
			"channel", req.Channel,
		)
		return
	}

	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		d.deliver(ctx, n)
		if n.SentAt == nil {
			log.Warn("notification queued for retry",
				"notification_id", n.ID,
				"channel", n.Channel,
			)
		}
	}()
}

// Wait blocks until background deliveries started by Notify have finished.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}

func (d *Dispatcher) persist(ctx context.Context, req Request) (*domain.Notification, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	n := &domain.Notification{
		ID:            uuid.New(),
		UserID:        req.UserID,
		TransactionID: req.TransactionID,
		Channel:       req.Channel,
		Recipient:     strings.TrimSpace(req.Recipient),
		Message:       req.Message,
		CreatedAt:     time.Now().UTC(),
	}
	if err := d.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// deliver attempts one send and records the outcome on n and in storage.
// The provider call is bounded by deliveryTimeout; recording is not.
func (d *Dispatcher) deliver(ctx context.Context, n *domain.Notification) {
	log := logging.FromContext(ctx)

	sendCtx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	sendErr := d.sender.Send(sendCtx, n)
	cancel()

	ctx = context.WithoutCancel(ctx)
	now := time.Now().UTC()

	n.Attempts++
	if sendErr != nil {
		msg := sendErr.Error()
		n.LastError = &msg
		log.Warn("notification delivery failed",
			"error", sendErr,
			"notification_id", n.ID,
			"attempt", n.Attempts,
		)
	} else {
		n.SentAt = &now
		n.LastError = nil
	}

	if err := d.repo.RecordAttempt(ctx, n.ID, sendErr, now); err != nil {
		log.Error("failed to record notification attempt", "error", err, "notification_id", n.ID)
		return
	}

	if sendErr == nil && n.TransactionID != nil && d.txs != nil {
		if err := d.txs.MarkNotificationSent(ctx, *n.TransactionID); err != nil {
			log.Warn("failed to flag transaction notified", "error", err, "transaction_id", *n.TransactionID)
		}
	}
}
