package testutil

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
)

const TestPassword = "password123"

// SeedProfile inserts a user profile. phone may be empty.
func SeedProfile(t *testing.T, db *sql.DB, email, phone string, role domain.Role) *domain.Profile {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	id := uuid.New()
	p := &domain.Profile{
		ID:            id,
		Email:         email,
		PasswordHash:  string(hash),
		FirstName:     "Test",
		LastName:      "User",
		AccountNumber: fmt.Sprintf("%010d", uint64(id.ID())%10_000_000_000),
		Role:          role,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	if phone != "" {
		p.Phone = &phone
	}

	_, err = db.Exec(
		`INSERT INTO profiles (id, email, password_hash, first_name, last_name, phone, account_number, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.Email, p.PasswordHash, p.FirstName, p.LastName, p.Phone, p.AccountNumber, p.Role, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed profile %s: %v", email, err)
	}
	return p
}

// SeedBalance funds an account through a completed deposit so the posting
// journal stays consistent with the stored balance.
func SeedBalance(t *testing.T, db *sql.DB, userID uuid.UUID, currency domain.Currency, amount string) uuid.UUID {
	t.Helper()

	amt := decimal.RequireFromString(amount)
	now := time.Now().UTC()
	txID := uuid.New()
	accountID := uuid.New()

	_, err := db.Exec(
		`INSERT INTO transactions (id, user_id, amount, currency, transaction_type, status, created_at, updated_at, completed_at)
		 VALUES ($1, $2, $3, $4, 'deposit', 'completed', $5, $5, $5)`,
		txID, userID, amt, currency, now,
	)
	if err != nil {
		t.Fatalf("seed deposit: %v", err)
	}

	err = db.QueryRow(
		`INSERT INTO accounts (id, user_id, currency, balance, version)
		 VALUES ($1, $2, $3, $4, 1)
		 ON CONFLICT (user_id, currency) DO UPDATE SET balance = accounts.balance + EXCLUDED.balance, version = accounts.version + 1
		 RETURNING id`,
		accountID, userID, currency, amt,
	).Scan(&accountID)
	if err != nil {
		t.Fatalf("seed account %s/%s: %v", userID, currency, err)
	}

	var before decimal.Decimal
	if err := db.QueryRow(`SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&before); err != nil {
		t.Fatalf("read seeded balance: %v", err)
	}
	_, err = db.Exec(
		`INSERT INTO postings (id, transaction_id, account_id, operation, amount, currency,
			balance_before, balance_after, reserved_before, reserved_after, created_at)
		 VALUES ($1, $2, $3, 'add', $4, $5, $6, $7, 0, 0, $8)`,
		uuid.New(), txID, accountID, amt, currency, before.Sub(amt), before, now,
	)
	if err != nil {
		t.Fatalf("seed posting: %v", err)
	}
	return accountID
}

// GetAccount returns the stored balance and reserved amount, or zeros when no
// account exists.
func GetAccount(t *testing.T, db *sql.DB, userID uuid.UUID, currency domain.Currency) (decimal.Decimal, decimal.Decimal) {
	t.Helper()

	var balance, reserved decimal.Decimal
	err := db.QueryRow(
		`SELECT balance, reserved FROM accounts WHERE user_id = $1 AND currency = $2`, userID, currency,
	).Scan(&balance, &reserved)
	if err == sql.ErrNoRows {
		return decimal.Zero, decimal.Zero
	}
	if err != nil {
		t.Fatalf("get account %s/%s: %v", userID, currency, err)
	}
	return balance, reserved
}

func CountRows(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()

	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}
