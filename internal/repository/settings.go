package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
)

type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) List(ctx context.Context) ([]domain.AdminSetting, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT setting_key, setting_value, description, updated_by, updated_at
		FROM admin_settings ORDER BY setting_key`,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var out []domain.AdminSetting
	for rows.Next() {
		var s domain.AdminSetting
		if err := rows.Scan(&s.Key, &s.Value, &s.Description, &s.UpdatedBy, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return out, nil
}

func (r *SettingsRepository) Get(ctx context.Context, key string) (*domain.AdminSetting, error) {
	var s domain.AdminSetting
	err := r.db.QueryRowContext(ctx,
		`SELECT setting_key, setting_value, description, updated_by, updated_at
		FROM admin_settings WHERE setting_key = $1`, key,
	).Scan(&s.Key, &s.Value, &s.Description, &s.UpdatedBy, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("Get: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &s, nil
}

func (r *SettingsRepository) Upsert(ctx context.Context, s *domain.AdminSetting) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO admin_settings (setting_key, setting_value, description, updated_by, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (setting_key) DO UPDATE SET
			setting_value = EXCLUDED.setting_value,
			description = COALESCE(EXCLUDED.description, admin_settings.description),
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at`,
		s.Key, s.Value, s.Description, s.UpdatedBy, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}
