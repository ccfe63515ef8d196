package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tubegate/tubegate/internal/repository"
)

type settingRepository struct {
	db *sql.DB
}

func NewSettingRepository(db *sql.DB) repository.SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) Get(ctx context.Context, profileID, key string) (string, error) {
	query := `SELECT value FROM settings WHERE profile_id = $1 AND key = $2`
	var value string
	err := r.db.QueryRowContext(ctx, query, profileID, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, nil
}

func (r *settingRepository) Set(ctx context.Context, profileID, key, value string) error {
	query := `INSERT INTO settings (profile_id, key, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (profile_id, key) DO UPDATE SET value = $3, updated_at = $4`
	if _, err := r.db.ExecContext(ctx, query, profileID, key, value, time.Now()); err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}
