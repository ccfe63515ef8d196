package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tubegate/tubegate/internal/models"
	"github.com/tubegate/tubegate/internal/repository"
)

type channelRepository struct {
	db *sql.DB
}

func NewChannelRepository(db *sql.DB) repository.ChannelRepository {
	return &channelRepository{db: db}
}

func (r *channelRepository) Add(ctx context.Context, channel *models.Channel) (*models.Channel, error) {
	query := `INSERT INTO channels (profile_id, channel_name, status, channel_id, handle, category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (profile_id, channel_name)
		DO UPDATE SET status = $3, channel_id = $4, handle = $5, category = $6
		RETURNING id, created_at`
	channel.CreatedAt = time.Now()
	err := r.db.QueryRowContext(ctx, query,
		channel.ProfileID, channel.ChannelName, channel.Status,
		channel.ChannelID, channel.Handle, channel.Category, channel.CreatedAt,
	).Scan(&channel.ID, &channel.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to add channel: %w", err)
	}
	return channel, nil
}

func (r *channelRepository) Remove(ctx context.Context, profileID, nameOrHandle string) error {
	query := `DELETE FROM channels
		WHERE profile_id = $1 AND (channel_name ILIKE $2 OR handle ILIKE $2)`
	result, err := r.db.ExecContext(ctx, query, profileID, nameOrHandle)
	if err != nil {
		return fmt.Errorf("failed to remove channel: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("channel %q not found", nameOrHandle)
	}
	return nil
}

func (r *channelRepository) GetByStatus(ctx context.Context, profileID string, status models.ChannelStatus) ([]*models.Channel, error) {
	query := `SELECT id, profile_id, channel_name, status, channel_id, handle, category, created_at
		FROM channels WHERE profile_id = $1 AND status = $2
		ORDER BY channel_name`
	rows, err := r.db.QueryContext(ctx, query, profileID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query channels: %w", err)
	}
	defer rows.Close()

	var channels []*models.Channel
	for rows.Next() {
		channel := &models.Channel{}
		if err := rows.Scan(
			&channel.ID, &channel.ProfileID, &channel.ChannelName, &channel.Status,
			&channel.ChannelID, &channel.Handle, &channel.Category, &channel.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		channels = append(channels, channel)
	}
	return channels, rows.Err()
}

func (r *channelRepository) SetCategory(ctx context.Context, profileID, nameOrHandle string, category models.Category) error {
	query := `UPDATE channels SET category = $3
		WHERE profile_id = $1 AND (channel_name ILIKE $2 OR handle ILIKE $2)`
	result, err := r.db.ExecContext(ctx, query, profileID, nameOrHandle, category)
	if err != nil {
		return fmt.Errorf("failed to set channel category: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("channel %q not found", nameOrHandle)
	}
	return nil
}

func (r *channelRepository) GetCategory(ctx context.Context, profileID, channelName string) (models.Category, error) {
	query := `SELECT category FROM channels
		WHERE profile_id = $1 AND channel_name ILIKE $2`
	var category models.Category
	err := r.db.QueryRowContext(ctx, query, profileID, channelName).Scan(&category)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to get channel category: %w", err)
	}
	return category, nil
}

func (r *channelRepository) UpdateChannelID(ctx context.Context, profileID, channelName, channelID string) error {
	query := `UPDATE channels SET channel_id = $3
		WHERE profile_id = $1 AND channel_name ILIKE $2`
	if _, err := r.db.ExecContext(ctx, query, profileID, channelName, channelID); err != nil {
		return fmt.Errorf("failed to update channel id: %w", err)
	}
	return nil
}

func (r *channelRepository) UpdateHandle(ctx context.Context, profileID, channelName, handle string) error {
	query := `UPDATE channels SET handle = $3
		WHERE profile_id = $1 AND channel_name ILIKE $2`
	if _, err := r.db.ExecContext(ctx, query, profileID, channelName, handle); err != nil {
		return fmt.Errorf("failed to update channel handle: %w", err)
	}
	return nil
}
