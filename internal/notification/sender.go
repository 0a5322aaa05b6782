package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
	"github.com/josh-kwaku/gvbank-ledger/internal/logging"
)

// LogSender writes the notification to the log instead of delivering it.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, n *domain.Notification) error {
	log := logging.FromContext(ctx)
	log.Info(strings.ToUpper(string(n.Channel))+" notification",
		"to", n.Recipient,
		"message", n.Message,
		"user_id", n.UserID,
		slog.Any("transaction_id", n.TransactionID),
	)
	return nil
}

// ChannelRouter picks a sender by channel and falls back to Default.
type ChannelRouter struct {
	Routes  map[domain.NotificationChannel]Sender
	Default Sender
}

func (r *ChannelRouter) Send(ctx context.Context, n *domain.Notification) error {
	if s, ok := r.Routes[n.Channel]; ok && s != nil {
		return s.Send(ctx, n)
	}
	if r.Default == nil {
		return fmt.Errorf("ChannelRouter: no sender for %s", n.Channel)
	}
	return r.Default.Send(ctx, n)
}

type publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Event is the message published for downstream email/SMS workers.
type Event struct {
	NotificationID string    `json:"notification_id"`
	UserID         string    `json:"user_id"`
	TransactionID  *string   `json:"transaction_id,omitempty"`
	Type           string    `json:"type"`
	Recipient      string    `json:"recipient"`
	Message        string    `json:"message"`
	Attempt        int       `json:"attempt"`
	CreatedAt      time.Time `json:"created_at"`
}

// KafkaSender hands the notification to a broker topic, keyed by user so a
// user's messages stay ordered.
type KafkaSender struct {
	pub publisher
}

func NewKafkaSender(pub publisher) *KafkaSender {
	return &KafkaSender{pub: pub}
}

func (k *KafkaSender) Send(ctx context.Context, n *domain.Notification) error {
	ev := Event{
		NotificationID: n.ID.String(),
		UserID:         n.UserID.String(),
		Type:           string(n.Channel),
		Recipient:      n.Recipient,
		Message:        n.Message,
		Attempt:        n.Attempts + 1,
		CreatedAt:      n.CreatedAt,
	}
	if n.TransactionID != nil {
		id := n.TransactionID.String()
		ev.TransactionID = &id
	}

	if err := k.pub.Publish(ctx, ev.UserID, ev); err != nil {
		return fmt.Errorf("KafkaSender: %w", err)
	}
	return nil
}
