package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/gvbank-ledger/internal/auth"
	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
	"github.com/josh-kwaku/gvbank-ledger/internal/logging"
	"github.com/josh-kwaku/gvbank-ledger/internal/notification"
)

type notificationSender interface {
	Send(ctx context.Context, req notification.Request) (*domain.Notification, error)
}

type notificationHistory interface {
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Notification, error)
}

// NotificationHandler serves the send-notification endpoint web clients
// call after a transaction, which keeps its own response shape instead of
// the API envelope, and the caller's notification history.
type NotificationHandler struct {
	dispatcher notificationSender
	history    notificationHistory
}

func NewNotificationHandler(dispatcher notificationSender, history notificationHistory) *NotificationHandler {
	return &NotificationHandler{dispatcher: dispatcher, history: history}
}

type sendNotificationRequest struct {
	UserID        uuid.UUID  `json:"userId"`
	Message       string     `json:"message"`
	Type          string     `json:"type"`
	Recipient     string     `json:"recipient"`
	TransactionID *uuid.UUID `json:"transactionId"`
}

type sendNotificationResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type notificationError struct {
	Error string `json:"error"`
}

type notificationDTO struct {
	ID            uuid.UUID  `json:"id"`
	TransactionID *uuid.UUID `json:"transaction_id,omitempty"`
	Type          string     `json:"type"`
	Recipient     string     `json:"recipient"`
	Message       string     `json:"message"`
	Delivered     bool       `json:"delivered"`
	Attempts      int        `json:"attempts"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toNotificationDTOs(ns []domain.Notification) []notificationDTO {
	out := make([]notificationDTO, len(ns))
	for i, n := range ns {
		out[i] = notificationDTO{
			ID:            n.ID,
			TransactionID: n.TransactionID,
			Type:          string(n.Channel),
			Recipient:     n.Recipient,
			Message:       n.Message,
			Delivered:     n.SentAt != nil,
			Attempts:      n.Attempts,
			SentAt:        n.SentAt,
			CreatedAt:     n.CreatedAt,
		}
	}
	return out
}

// List returns the caller's notifications, newest first.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	limit, offset := pagination(r)
	ns, err := h.history.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list notifications", "error", err)
		RespondDomainError(r.Context(), w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toNotificationDTOs(ns))
}

func (h *NotificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	userID, appErr := callerID(r)
	if appErr != nil {
		RespondJSON(w, http.StatusUnauthorized, notificationError{Error: "Unauthorized"})
		return
	}

	var req sendNotificationRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondJSON(w, http.StatusBadRequest, notificationError{Error: "Invalid request body"})
		return
	}
	if req.UserID != userID && !auth.IsAdmin(r.Context()) {
		RespondJSON(w, http.StatusForbidden, notificationError{Error: "Forbidden"})
		return
	}

	channel := domain.NotificationChannel(req.Type)
	if !channel.IsValid() || strings.TrimSpace(req.Recipient) == "" || strings.TrimSpace(req.Message) == "" {
		RespondJSON(w, http.StatusBadRequest, notificationError{Error: "userId, message, type (email|sms) and recipient are required"})
		return
	}

	log.Info("sending notification", "user_id", req.UserID, "type", channel)

	_, err := h.dispatcher.Send(r.Context(), notification.Request{
		UserID:        req.UserID,
		Channel:       channel,
		Recipient:     req.Recipient,
		Message:       req.Message,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		log.Error("failed to store notification", "error", err)
		RespondJSON(w, http.StatusInternalServerError, notificationError{Error: "Failed to store notification"})
		return
	}

	label := strings.ToUpper(req.Type[:1]) + req.Type[1:]
	RespondJSON(w, http.StatusOK, sendNotificationResponse{
		Success:   true,
		Message:   label + " notification sent successfully",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}
