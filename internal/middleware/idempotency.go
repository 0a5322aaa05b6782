package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/gvbank-ledger/internal/auth"
	"github.com/josh-kwaku/gvbank-ledger/internal/handler"
	"github.com/josh-kwaku/gvbank-ledger/internal/logging"
	"github.com/josh-kwaku/gvbank-ledger/internal/repository"
)

type idempotencyStore interface {
	Claim(ctx context.Context, c *repository.CachedResponse) (bool, error)
	Lookup(ctx context.Context, key string, userID uuid.UUID) (*repository.CachedResponse, error)
	Complete(ctx context.Context, c *repository.CachedResponse) error
	Release(ctx context.Context, key string, userID uuid.UUID) error
}

const (
	IdempotencyTTL = 24 * time.Hour
	// IdempotencyClaimTTL bounds how long a crashed request can hold a key.
	IdempotencyClaimTTL = 2 * time.Minute
)

// Idempotency replays the stored response when a client retries a
// money-moving request with the same Idempotency-Key. The key is claimed
// before the handler runs, so concurrent duplicates get 409 instead of a
// second execution. A reused key with a different body is a conflict.
// Server errors and panics release the claim so the client can retry.
func Idempotency(store idempotencyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			log := logging.FromContext(r.Context())

			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				handler.RespondAppError(w, handler.ErrMissingIdempotencyKey, nil)
				return
			}

			userID, ok := auth.UserIDFromContext(r.Context())
			if !ok {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				handler.RespondAppError(w, handler.ErrInvalidRequest, nil)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			now := time.Now().UTC()
			entry := &repository.CachedResponse{
				Key:         key,
				UserID:      userID,
				RequestHash: computeHash(r.Method, r.URL.Path, body),
				CreatedAt:   now,
				ExpiresAt:   now.Add(IdempotencyClaimTTL),
			}

			claimed, err := store.Claim(r.Context(), entry)
			if err != nil {
				log.Error("idempotency claim failed", "error", err, "idempotency_key", key)
				handler.RespondAppError(w, handler.ErrInternalError, nil)
				return
			}
			if !claimed {
				replay(w, r, store, entry)
				return
			}

			// The claim outlives a disconnected client.
			storeCtx := context.WithoutCancel(r.Context())
			completed := false
			defer func() {
				if completed {
					return
				}
				if err := store.Release(storeCtx, key, userID); err != nil {
					log.Error("idempotency release failed", "error", err, "idempotency_key", key)
				}
			}()

			rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.statusCode >= http.StatusInternalServerError {
				return
			}

			entry.StatusCode = rec.statusCode
			entry.Body = rec.body.Bytes()
			entry.ExpiresAt = time.Now().UTC().Add(IdempotencyTTL)
			if err := store.Complete(storeCtx, entry); err != nil {
				log.Error("idempotency cache store failed", "error", err, "idempotency_key", key)
				return
			}
			completed = true
		})
	}
}

// replay answers a request whose key is already held by another request.
func replay(w http.ResponseWriter, r *http.Request, store idempotencyStore, entry *repository.CachedResponse) {
	log := logging.FromContext(r.Context())

	cached, err := store.Lookup(r.Context(), entry.Key, entry.UserID)
	if err != nil {
		log.Error("idempotency cache lookup failed", "error", err, "idempotency_key", entry.Key)
		handler.RespondAppError(w, handler.ErrInternalError, nil)
		return
	}

	switch {
	case cached == nil:
		// released between the claim and the lookup
		handler.RespondAppError(w, handler.ErrIdempotencyInFlight, nil)
	case !cached.Matches(entry.RequestHash):
		handler.RespondAppError(w, handler.ErrIdempotencyConflict, nil)
	case cached.Pending():
		handler.RespondAppError(w, handler.ErrIdempotencyInFlight, nil)
	default:
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Idempotent-Replayed", "true")
		w.WriteHeader(cached.StatusCode)
		if _, err := w.Write(cached.Body); err != nil {
			log.Error("failed to write idempotent replay", "error", err, "idempotency_key", entry.Key)
		}
	}
}

type sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// SweepIdempotency deletes expired cache rows every interval until ctx is
// done.
func SweepIdempotency(ctx context.Context, s sweeper, logger *slog.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				logger.Error("idempotency sweep failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("idempotency cache swept", "removed", n)
			}
		}
	}
}

func computeHash(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return fmt.Sprintf("%x", h.Sum(nil))
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
