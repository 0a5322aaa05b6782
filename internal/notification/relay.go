package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
	"github.com/josh-kwaku/gvbank-ledger/internal/logging"
	"github.com/josh-kwaku/gvbank-ledger/internal/repository"
)

const relayBatchSize = 20

type unsentClaimer interface {
	ClaimUnsent(ctx context.Context, maxAttempts, limit int, lease time.Duration) ([]domain.Notification, error)
}

// Relay periodically retries notifications whose delivery failed.
type Relay struct {
	dispatcher  *Dispatcher
	claims      unsentClaimer
	logger      *slog.Logger
	interval    time.Duration
	maxAttempts int
}

func NewRelay(dispatcher *Dispatcher, claims unsentClaimer, logger *slog.Logger, interval time.Duration, maxAttempts int) *Relay {
	return &Relay{
		dispatcher:  dispatcher,
		claims:      claims,
		logger:      logger,
		interval:    interval,
		maxAttempts: maxAttempts,
	}
}

// Start blocks until ctx is cancelled. A non-positive interval disables the
// relay.
func (r *Relay) Start(ctx context.Context) {
	if r.interval <= 0 {
		r.logger.Info("notification relay disabled")
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("notification relay started", "interval", r.interval, "max_attempts", r.maxAttempts)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("notification relay stopped")
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				r.logger.Error("notification relay pass failed", "error", err)
			}
		}
	}
}

// RunOnce leases one batch of undelivered notifications and retries each.
// No transaction is held while providers are called; a row whose attempt is
// never recorded becomes claimable again once its lease lapses.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	ctx = logging.WithLogger(ctx, r.logger)

	batch, err := r.claims.ClaimUnsent(ctx, r.maxAttempts, relayBatchSize, repository.DeliveryLease)
	if err != nil {
		return 0, err
	}

	var delivered int
	for i := range batch {
		n := &batch[i]
		r.dispatcher.deliver(ctx, n)
		if n.SentAt != nil {
			delivered++
		} else if n.Attempts >= r.maxAttempts {
			r.logger.Error("notification abandoned",
				"notification_id", n.ID,
				"attempts", n.Attempts,
			)
		}
	}
	return delivered, nil
}
