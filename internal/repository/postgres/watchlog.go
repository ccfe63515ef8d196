package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tubegate/tubegate/internal/models"
	"github.com/tubegate/tubegate/internal/repository"
)

type watchLogRepository struct {
	db *sql.DB
}

func NewWatchLogRepository(db *sql.DB) repository.WatchLogRepository {
	return &watchLogRepository{db: db}
}

func (r *watchLogRepository) Record(ctx context.Context, profileID, videoID string, seconds int) error {
	query := `INSERT INTO watch_log (profile_id, video_id, duration_seconds, watched_at)
		VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, profileID, videoID, seconds, time.Now()); err != nil {
		return fmt.Errorf("failed to record watch seconds: %w", err)
	}
	return nil
}

func (r *watchLogRepository) MinutesBetween(ctx context.Context, profileID string, start, end time.Time) (float64, error) {
	query := `SELECT COALESCE(SUM(duration_seconds), 0) FROM watch_log
		WHERE profile_id = $1 AND watched_at >= $2 AND watched_at < $3`
	var totalSeconds float64
	err := r.db.QueryRowContext(ctx, query, profileID, start, end).Scan(&totalSeconds)
	if err != nil {
		return 0, fmt.Errorf("failed to sum watch minutes: %w", err)
	}
	return totalSeconds / 60.0, nil
}

func (r *watchLogRepository) MinutesByCategoryBetween(ctx context.Context, profileID string, start, end time.Time) (map[models.Category]float64, error) {
	// Effective category: video override, else channel default, else ''.
	query := `SELECT COALESCE(NULLIF(v.category, ''), NULLIF(c.category, ''), '') AS cat,
			COALESCE(SUM(w.duration_seconds), 0) AS total_sec
		FROM watch_log w
		LEFT JOIN videos v ON v.profile_id = w.profile_id AND v.video_id = w.video_id
		LEFT JOIN channels c ON c.profile_id = w.profile_id AND c.channel_name ILIKE v.channel_name
		WHERE w.profile_id = $1 AND w.watched_at >= $2 AND w.watched_at < $3
		GROUP BY cat`
	rows, err := r.db.QueryContext(ctx, query, profileID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to sum watch minutes by category: %w", err)
	}
	defer rows.Close()

	usage := make(map[models.Category]float64)
	for rows.Next() {
		var cat models.Category
		var totalSeconds sql.NullFloat64
		if err := rows.Scan(&cat, &totalSeconds); err != nil {
			return nil, fmt.Errorf("failed to scan category usage: %w", err)
		}
		usage[cat] = totalSeconds.Float64 / 60.0
	}
	return usage, rows.Err()
}
