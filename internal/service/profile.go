package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/gvbank-ledger/internal/auth"
	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
	"github.com/josh-kwaku/gvbank-ledger/internal/logging"
	"github.com/josh-kwaku/gvbank-ledger/internal/repository"
)

const (
	accountNumberAttempts = 5
	minPasswordLength     = 8
)

type SignupRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Country   string
}

type ProfileService struct {
	profiles  profileRepo
	jwtSecret string
	jwtExpiry time.Duration
}

func NewProfileService(profiles profileRepo, jwtSecret string, jwtExpiry time.Duration) *ProfileService {
	return &ProfileService{profiles: profiles, jwtSecret: jwtSecret, jwtExpiry: jwtExpiry}
}

func (s *ProfileService) Signup(ctx context.Context, req SignupRequest) (*domain.Profile, error) {
	log := logging.FromContext(ctx)

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("Signup: email: %w", domain.ErrInvalidRequest)
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("Signup: password too short: %w", domain.ErrInvalidRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("Signup: hash password: %w", err)
	}

	now := time.Now().UTC()
	p := &domain.Profile{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        optional(req.Phone),
		Country:      optional(req.Country),
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	for attempt := 1; ; attempt++ {
		p.AccountNumber, err = generateAccountNumber()
		if err != nil {
			return nil, fmt.Errorf("Signup: %w", err)
		}

		err = s.profiles.Create(ctx, p)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrAccountNumberTaken) && attempt < accountNumberAttempts {
			log.Warn("account number collision, retrying", "attempt", attempt)
			continue
		}
		return nil, fmt.Errorf("Signup: %w", err)
	}

	log.Info("profile created", "user_id", p.ID)
	return p, nil
}

// Login checks credentials and returns a signed token for the profile.
func (s *ProfileService) Login(ctx context.Context, email, password string) (string, *domain.Profile, error) {
	p, err := s.profiles.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, fmt.Errorf("Login: %w", domain.ErrInvalidCredentials)
		}
		return "", nil, fmt.Errorf("Login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("Login: %w", domain.ErrInvalidCredentials)
	}

	token, err := auth.GenerateToken(p.ID, p.Email, p.Role, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("Login: %w", err)
	}
	return token, p, nil
}

func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("GetProfile: %w", err)
	}
	return p, nil
}

// LookupRecipient resolves an account number to the profile it belongs to.
func (s *ProfileService) LookupRecipient(ctx context.Context, accountNumber string) (*domain.Profile, error) {
	p, err := s.profiles.GetByAccountNumber(ctx, strings.TrimSpace(accountNumber))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("LookupRecipient: %w", domain.ErrRecipientNotFound)
		}
		return nil, fmt.Errorf("LookupRecipient: %w", err)
	}
	return p, nil
}

func generateAccountNumber() (string, error) {
	digits := make([]byte, 10)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generateAccountNumber: %w", err)
		}
		digits[i] = '0' + byte(n.Int64())
	}
	return string(digits), nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
