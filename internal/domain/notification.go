package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationChannel string

const (
	NotificationChannelSMS   NotificationChannel = "sms"
	NotificationChannelEmail NotificationChannel = "email"
)

func (c NotificationChannel) IsValid() bool {
	return c == NotificationChannelSMS || c == NotificationChannelEmail
}

type Notification struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	TransactionID *uuid.UUID
	Channel       NotificationChannel
	Recipient     string
	Message       string
	Attempts      int
	LastError     *string
	SentAt        *time.Time
	CreatedAt     time.Time
}
