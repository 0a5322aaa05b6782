package handler

import (
	"context"
	"net/http"
	"net/mail"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
	"github.com/josh-kwaku/gvbank-ledger/internal/logging"
	"github.com/josh-kwaku/gvbank-ledger/internal/service"
)

type profileService interface {
	Signup(ctx context.Context, req service.SignupRequest) (*domain.Profile, error)
	Login(ctx context.Context, email, password string) (string, *domain.Profile, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	LookupRecipient(ctx context.Context, accountNumber string) (*domain.Profile, error)
}

type AuthHandler struct {
	profiles profileService
}

func NewAuthHandler(profiles profileService) *AuthHandler {
	return &AuthHandler{profiles: profiles}
}

type signupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Country   string `json:"country"`
}

func (r signupRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "required"})
	} else if _, err := mail.ParseAddress(r.Email); err != nil {
		errs = append(errs, FieldError{Field: "email", Message: "must be a valid email address"})
	}
	if len(r.Password) < 8 {
		errs = append(errs, FieldError{Field: "password", Message: "must be at least 8 characters"})
	}
	if strings.TrimSpace(r.FirstName) == "" {
		errs = append(errs, FieldError{Field: "first_name", Message: "required"})
	}
	if strings.TrimSpace(r.LastName) == "" {
		errs = append(errs, FieldError{Field: "last_name", Message: "required"})
	}
	return errs
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "required"})
	}
	if r.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "required"})
	}
	return errs
}

type loginResponse struct {
	Token   string     `json:"token"`
	Profile profileDTO `json:"profile"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	p, err := h.profiles.Signup(r.Context(), service.SignupRequest{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Country:   req.Country,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("signup failed", "error", err)
		RespondDomainError(r.Context(), w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toProfileDTO(p))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	token, p, err := h.profiles.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		RespondDomainError(r.Context(), w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, loginResponse{Token: token, Profile: toProfileDTO(p)})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	p, err := h.profiles.GetProfile(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to load profile", "error", err)
		RespondDomainError(r.Context(), w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toProfileDTO(p))
}

// LookupRecipient confirms an account number before an internal transfer.
func (h *AuthHandler) LookupRecipient(w http.ResponseWriter, r *http.Request) {
	if _, appErr := callerID(r); appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	p, err := h.profiles.LookupRecipient(r.Context(), chi.URLParam(r, "accountNumber"))
	if err != nil {
		RespondDomainError(r.Context(), w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, recipientDTO{ID: p.ID, Name: p.FullName(), AccountNumber: p.AccountNumber})
}
