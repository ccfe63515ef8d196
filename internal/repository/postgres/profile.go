package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tubegate/tubegate/internal/models"
	"github.com/tubegate/tubegate/internal/repository"
)

type profileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) repository.ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	query := `INSERT INTO profiles (id, display_name, access_code, avatar_icon, avatar_color, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`
	profile.CreatedAt = time.Now()
	err := r.db.QueryRowContext(ctx, query,
		profile.ID, profile.DisplayName, profile.AccessCode,
		profile.AvatarIcon, profile.AvatarColor, profile.CreatedAt,
	).Scan(&profile.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return profile, nil
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT id, display_name, access_code, avatar_icon, avatar_color, created_at
		FROM profiles WHERE id = $1`
	profile := &models.Profile{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&profile.ID, &profile.DisplayName, &profile.AccessCode,
		&profile.AvatarIcon, &profile.AvatarColor, &profile.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func (r *profileRepository) List(ctx context.Context) ([]*models.Profile, error) {
	query := `SELECT id, display_name, access_code, avatar_icon, avatar_color, created_at
		FROM profiles ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*models.Profile
	for rows.Next() {
		profile := &models.Profile{}
		if err := rows.Scan(
			&profile.ID, &profile.DisplayName, &profile.AccessCode,
			&profile.AvatarIcon, &profile.AvatarColor, &profile.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}

func (r *profileRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	// Owned state first, profile row last.
	for _, q := range []string{
		`DELETE FROM watch_log WHERE profile_id = $1`,
		`DELETE FROM videos WHERE profile_id = $1`,
		`DELETE FROM channels WHERE profile_id = $1`,
		`DELETE FROM settings WHERE profile_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("failed to delete profile state: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("profile %s not found", id)
	}

	return tx.Commit()
}
