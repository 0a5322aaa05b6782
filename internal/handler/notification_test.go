package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/gvbank-ledger/internal/auth"
	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
	"github.com/josh-kwaku/gvbank-ledger/internal/notification"
)

type recordingDispatcher struct {
	sent []notification.Request
	err  error
}

func (d *recordingDispatcher) Send(_ context.Context, req notification.Request) (*domain.Notification, error) {
	if d.err != nil {
		return nil, d.err
	}
	d.sent = append(d.sent, req)
	return &domain.Notification{ID: uuid.New(), UserID: req.UserID, Channel: req.Channel}, nil
}

func TestNotificationHandler_Send(t *testing.T) {
	owner := customer()
	body := func(userID uuid.UUID, kind string) string {
		b, _ := json.Marshal(map[string]any{
			"userId":    userID,
			"message":   "Your deposit of USD 10.00 was received.",
			"type":      kind,
			"recipient": "customer@test.com",
		})
		return string(b)
	}

	tests := []struct {
		name        string
		caller      *auth.Claims
		body        string
		sendErr     error
		wantStatus  int
		wantError   string
		wantMessage string
	}{
		{"email for self", owner, body(owner.UserID, "email"), nil, http.StatusOK, "", "Email notification sent successfully"},
		{"sms for self", owner, body(owner.UserID, "sms"), nil, http.StatusOK, "", "Sms notification sent successfully"},
		{"admin on behalf of user", administrator(), body(owner.UserID, "email"), nil, http.StatusOK, "", "Email notification sent successfully"},
		{"other user", customer(), body(owner.UserID, "email"), nil, http.StatusForbidden, "Forbidden", ""},
		{"unknown type", owner, body(owner.UserID, "push"), nil, http.StatusBadRequest, "userId, message, type (email|sms) and recipient are required", ""},
		{"bad json", owner, `{"userId":`, nil, http.StatusBadRequest, "Invalid request body", ""},
		{"store failure", owner, body(owner.UserID, "email"), errors.New("db down"), http.StatusInternalServerError, "Failed to store notification", ""},
		{"anonymous", nil, body(owner.UserID, "email"), nil, http.StatusUnauthorized, "Unauthorized", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &recordingDispatcher{err: tt.sendErr}
			h := NewNotificationHandler(d, nil)

			rec := serve(t, http.MethodPost, "/notifications", "/notifications", tt.body, tt.caller, h.Send)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantError != "" {
				var out notificationError
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
				assert.Equal(t, tt.wantError, out.Error)
				assert.Empty(t, d.sent)
				return
			}

			var out sendNotificationResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
			assert.True(t, out.Success)
			assert.Equal(t, tt.wantMessage, out.Message)
			_, err := time.Parse(time.RFC3339Nano, out.Timestamp)
			assert.NoError(t, err)

			require.Len(t, d.sent, 1)
			assert.Equal(t, owner.UserID, d.sent[0].UserID)
		})
	}
}

type stubHistory struct {
	rows          []domain.Notification
	err           error
	gotUser       uuid.UUID
	limit, offset int
}

func (s *stubHistory) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]domain.Notification, error) {
	s.gotUser, s.limit, s.offset = userID, limit, offset
	return s.rows, s.err
}

func TestNotificationHandler_List(t *testing.T) {
	caller := customer()
	sent := time.Now().UTC()

	t.Run("returns the caller's history", func(t *testing.T) {
		history := &stubHistory{rows: []domain.Notification{
			{ID: uuid.New(), UserID: caller.UserID, Channel: domain.NotificationChannelEmail, Recipient: "customer@test.com", Message: "paid", Attempts: 1, SentAt: &sent},
			{ID: uuid.New(), UserID: caller.UserID, Channel: domain.NotificationChannelSMS, Recipient: "+2348000000000", Message: "queued", Attempts: 2},
		}}
		h := NewNotificationHandler(nil, history)

		rec := serve(t, http.MethodGet, "/notifications", "/notifications?limit=5&offset=10", "", caller, h.List)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var out []notificationDTO
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &out))
		require.Len(t, out, 2)
		assert.True(t, out[0].Delivered)
		assert.Equal(t, "email", out[0].Type)
		assert.False(t, out[1].Delivered)
		assert.Equal(t, 2, out[1].Attempts)

		assert.Equal(t, caller.UserID, history.gotUser)
		assert.Equal(t, 5, history.limit)
		assert.Equal(t, 10, history.offset)
	})

	t.Run("anonymous", func(t *testing.T) {
		h := NewNotificationHandler(nil, &stubHistory{})
		rec := serve(t, http.MethodGet, "/notifications", "/notifications", "", nil, h.List)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		h := NewNotificationHandler(nil, &stubHistory{err: errors.New("db down")})
		rec := serve(t, http.MethodGet, "/notifications", "/notifications", "", caller, h.List)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
