package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
)

const profileColumns = `id, email, password_hash, first_name, last_name, phone, country,
	account_number, role, created_at, updated_at`

// ErrAccountNumberTaken signals a collision on the generated account number;
// callers retry with a fresh one.
var ErrAccountNumberTaken = errors.New("account number taken")

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(ctx context.Context, p *domain.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (
			id, email, password_hash, first_name, last_name, phone, country,
			account_number, role, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.Email, p.PasswordHash, p.FirstName, p.LastName, p.Phone, p.Country,
		p.AccountNumber, p.Role, p.CreatedAt, p.UpdatedAt,
	)
	switch {
	case err == nil:
		return nil
	case IsUniqueViolation(err, "profiles_email_key"):
		return fmt.Errorf("Create: %w", domain.ErrEmailTaken)
	case IsUniqueViolation(err, "profiles_account_number_key"):
		return fmt.Errorf("Create: %w", ErrAccountNumberTaken)
	default:
		return fmt.Errorf("Create: %w", err)
	}
}

func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	return r.getOne(ctx, "GetByID", `id = $1`, id)
}

func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return r.getOne(ctx, "GetByEmail", `lower(email) = lower($1)`, email)
}

func (r *ProfileRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Profile, error) {
	return r.getOne(ctx, "GetByAccountNumber", `account_number = $1`, accountNumber)
}

func (r *ProfileRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return n, nil
}

func (r *ProfileRepository) getOne(ctx context.Context, op, where string, arg any) (*domain.Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE `+where, arg,
	)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func scanProfile(s scanner) (*domain.Profile, error) {
	var p domain.Profile
	err := s.Scan(
		&p.ID, &p.Email, &p.PasswordHash, &p.FirstName, &p.LastName, &p.Phone, &p.Country,
		&p.AccountNumber, &p.Role, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
