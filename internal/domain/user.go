package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type Profile struct {
	ID            uuid.UUID
	Email         string
	PasswordHash  string
	FirstName     string
	LastName      string
	Phone         *string
	Country       *string
	AccountNumber string
	Role          Role
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (p *Profile) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// ContactFor picks where a notification goes: email when present, phone otherwise.
func (p *Profile) ContactFor() (NotificationChannel, string, bool) {
	if p.Email != "" {
		return NotificationChannelEmail, p.Email, true
	}
	if p.Phone != nil && *p.Phone != "" {
		return NotificationChannelSMS, *p.Phone, true
	}
	return "", "", false
}
