package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

// Setting keys. Values are opaque strings; credentials are stored
// AES-GCM encrypted by the settings service.
const (
	SettingFacebookToken = "facebook_token"
	SettingFacebookPage  = "facebook_page_name"
)

type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type settingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	query := `SELECT value FROM settings WHERE key = $1`

	var value string
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		slog.Info(err.Error())
		return "", false, err
	}

	return value, true, nil
}

func (r *settingsRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
			updated_at = $3
	`
	_, err := r.db.ExecContext(ctx, query, key, value, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *settingsRepository) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM settings WHERE key = $1`
	_, err := r.db.ExecContext(ctx, query, key)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
