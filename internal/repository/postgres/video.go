package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tubegate/tubegate/internal/models"
	"github.com/tubegate/tubegate/internal/repository"
)

type videoRepository struct {
	db *sql.DB
}

func NewVideoRepository(db *sql.DB) repository.VideoRepository {
	return &videoRepository{db: db}
}

const videoColumns = `video_id, title, channel_name, channel_id, thumbnail_url,
	duration, is_short, category, status, view_count, added_at`

func scanVideo(scanner interface{ Scan(...any) error }) (*models.Video, error) {
	video := &models.Video{}
	err := scanner.Scan(
		&video.VideoID, &video.Title, &video.ChannelName, &video.ChannelID,
		&video.ThumbnailURL, &video.Duration, &video.IsShort, &video.Category,
		&video.Status, &video.ViewCount, &video.PublishedAt,
	)
	if err != nil {
		return nil, err
	}
	return video, nil
}

func (r *videoRepository) Upsert(ctx context.Context, profileID string, video *models.Video) error {
	query := `INSERT INTO videos (profile_id, video_id, title, channel_name, channel_id,
			thumbnail_url, duration, is_short, category, status, added_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (profile_id, video_id)
		DO UPDATE SET title = $3, channel_name = $4, channel_id = $5,
			thumbnail_url = $6, duration = $7, is_short = $8`
	status := video.Status
	if status == "" {
		status = models.VideoStatusPending
	}
	addedAt := video.PublishedAt
	if addedAt.IsZero() {
		addedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, query,
		profileID, video.VideoID, video.Title, video.ChannelName, video.ChannelID,
		video.ThumbnailURL, video.Duration, video.IsShort, video.Category,
		status, addedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert video: %w", err)
	}
	return nil
}

func (r *videoRepository) Get(ctx context.Context, profileID, videoID string) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos
		WHERE profile_id = $1 AND video_id = $2`
	video, err := scanVideo(r.db.QueryRowContext(ctx, query, profileID, videoID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	return video, nil
}

func (r *videoRepository) UpdateStatus(ctx context.Context, profileID, videoID string, status models.VideoStatus) error {
	query := `UPDATE videos SET status = $3 WHERE profile_id = $1 AND video_id = $2`
	result, err := r.db.ExecContext(ctx, query, profileID, videoID, status)
	if err != nil {
		return fmt.Errorf("failed to update video status: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("video %s not found", videoID)
	}
	return nil
}

func (r *videoRepository) GetByStatus(ctx context.Context, profileID string, status models.VideoStatus, filters repository.VideoFilters) ([]*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos
		WHERE profile_id = $1 AND status = $2`
	args := []interface{}{profileID, status}
	argIdx := 3

	if filters.ChannelID != "" {
		query += fmt.Sprintf(" AND channel_id = $%d", argIdx)
		args = append(args, filters.ChannelID)
		argIdx++
	}
	if filters.ChannelName != "" {
		query += fmt.Sprintf(" AND channel_name ILIKE $%d", argIdx)
		args = append(args, filters.ChannelName)
		argIdx++
	}

	query += " ORDER BY added_at DESC"
	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filters.Limit)
	}

	return r.queryVideos(ctx, query, args...)
}

func (r *videoRepository) GetDeniedIDs(ctx context.Context, profileID string) (map[string]struct{}, error) {
	query := `SELECT video_id FROM videos WHERE profile_id = $1 AND status = $2`
	rows, err := r.db.QueryContext(ctx, query, profileID, models.VideoStatusDenied)
	if err != nil {
		return nil, fmt.Errorf("failed to query denied videos: %w", err)
	}
	defer rows.Close()

	denied := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan denied video id: %w", err)
		}
		denied[id] = struct{}{}
	}
	return denied, rows.Err()
}

func (r *videoRepository) GetApprovedShorts(ctx context.Context, profileID string, limit int) ([]*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos
		WHERE profile_id = $1 AND status = $2 AND is_short
		ORDER BY added_at DESC LIMIT $3`
	return r.queryVideos(ctx, query, profileID, models.VideoStatusApproved, limit)
}

func (r *videoRepository) GetRecentRequests(ctx context.Context, profileID string, limit int) ([]*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos
		WHERE profile_id = $1 AND status = $2 AND NOT is_short
		ORDER BY added_at DESC LIMIT $3`
	return r.queryVideos(ctx, query, profileID, models.VideoStatusApproved, limit)
}

func (r *videoRepository) SetCategory(ctx context.Context, profileID, videoID string, category models.Category) error {
	query := `UPDATE videos SET category = $3 WHERE profile_id = $1 AND video_id = $2`
	result, err := r.db.ExecContext(ctx, query, profileID, videoID, category)
	if err != nil {
		return fmt.Errorf("failed to set video category: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("video %s not found", videoID)
	}
	return nil
}

func (r *videoRepository) RecordView(ctx context.Context, profileID, videoID string) error {
	query := `UPDATE videos SET view_count = view_count + 1, last_viewed_at = $3
		WHERE profile_id = $1 AND video_id = $2`
	if _, err := r.db.ExecContext(ctx, query, profileID, videoID, time.Now()); err != nil {
		return fmt.Errorf("failed to record view: %w", err)
	}
	return nil
}

func (r *videoRepository) queryVideos(ctx context.Context, query string, args ...interface{}) ([]*models.Video, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()

	var videos []*models.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, video)
	}
	return videos, rows.Err()
}
