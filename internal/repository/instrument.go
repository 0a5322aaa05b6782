package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
)

const (
	bankDetailsColumns = `id, bank_name, account_name, account_number, routing_number, swift_code,
		currency, is_active, created_at, updated_at`
	cryptoWalletColumns = `id, wallet_name, wallet_address, crypto_type, is_active, created_at, updated_at`
)

type InstrumentRepository struct {
	db *sql.DB
}

func NewInstrumentRepository(db *sql.DB) *InstrumentRepository {
	return &InstrumentRepository{db: db}
}

func (r *InstrumentRepository) CreateBankDetails(ctx context.Context, b *domain.BankDetails) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bank_details (`+bankDetailsColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		b.ID, b.BankName, b.AccountName, b.AccountNumber, b.RoutingNumber, b.SwiftCode,
		b.Currency, b.IsActive, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("CreateBankDetails: %w", err)
	}
	return nil
}

func (r *InstrumentRepository) GetBankDetails(ctx context.Context, id uuid.UUID) (*domain.BankDetails, error) {
	var b domain.BankDetails
	err := r.db.QueryRowContext(ctx,
		`SELECT `+bankDetailsColumns+` FROM bank_details WHERE id = $1`, id,
	).Scan(
		&b.ID, &b.BankName, &b.AccountName, &b.AccountNumber, &b.RoutingNumber, &b.SwiftCode,
		&b.Currency, &b.IsActive, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("GetBankDetails: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetBankDetails: %w", err)
	}
	return &b, nil
}

func (r *InstrumentRepository) ListBankDetails(ctx context.Context, activeOnly bool) ([]domain.BankDetails, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bankDetailsColumns+` FROM bank_details
		WHERE is_active OR NOT $1 ORDER BY currency, bank_name`, activeOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("ListBankDetails: %w", err)
	}
	defer rows.Close()

	var out []domain.BankDetails
	for rows.Next() {
		var b domain.BankDetails
		if err := rows.Scan(
			&b.ID, &b.BankName, &b.AccountName, &b.AccountNumber, &b.RoutingNumber, &b.SwiftCode,
			&b.Currency, &b.IsActive, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ListBankDetails: scan: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListBankDetails: rows: %w", err)
	}
	return out, nil
}

func (r *InstrumentRepository) CreateCryptoWallet(ctx context.Context, w *domain.CryptoWallet) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO crypto_wallets (`+cryptoWalletColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		w.ID, w.WalletName, w.WalletAddress, w.CryptoType, w.IsActive, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("CreateCryptoWallet: %w", err)
	}
	return nil
}

func (r *InstrumentRepository) GetCryptoWallet(ctx context.Context, id uuid.UUID) (*domain.CryptoWallet, error) {
	var w domain.CryptoWallet
	err := r.db.QueryRowContext(ctx,
		`SELECT `+cryptoWalletColumns+` FROM crypto_wallets WHERE id = $1`, id,
	).Scan(&w.ID, &w.WalletName, &w.WalletAddress, &w.CryptoType, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("GetCryptoWallet: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetCryptoWallet: %w", err)
	}
	return &w, nil
}

func (r *InstrumentRepository) ListCryptoWallets(ctx context.Context, activeOnly bool) ([]domain.CryptoWallet, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cryptoWalletColumns+` FROM crypto_wallets
		WHERE is_active OR NOT $1 ORDER BY crypto_type, wallet_name`, activeOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("ListCryptoWallets: %w", err)
	}
	defer rows.Close()

	var out []domain.CryptoWallet
	for rows.Next() {
		var w domain.CryptoWallet
		if err := rows.Scan(&w.ID, &w.WalletName, &w.WalletAddress, &w.CryptoType, &w.IsActive, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ListCryptoWallets: scan: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListCryptoWallets: rows: %w", err)
	}
	return out, nil
}

// SetActive toggles availability of a bank account or crypto wallet.
func (r *InstrumentRepository) SetActive(ctx context.Context, kind string, id uuid.UUID, active bool) error {
	var table string
	switch kind {
	case "bank":
		table = "bank_details"
	case "crypto":
		table = "crypto_wallets"
	default:
		return fmt.Errorf("SetActive: unknown instrument %q: %w", kind, domain.ErrInvalidRequest)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE `+table+` SET is_active = $1, updated_at = now() WHERE id = $2`, active, id,
	)
	if err != nil {
		return fmt.Errorf("SetActive: %w", err)
	}
	if err := expectOneRow(res, domain.ErrNotFound); err != nil {
		return fmt.Errorf("SetActive: %w", err)
	}
	return nil
}
