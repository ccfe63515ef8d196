package repository

import (
	"context"
	"time"

	"github.com/tubegate/tubegate/internal/models"
)

// ProfileRepository defines the interface for profile data operations
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) (*models.Profile, error)
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	List(ctx context.Context) ([]*models.Profile, error)
	// Delete removes the profile and all state it owns (settings, channels,
	// videos, watch log) in one transaction.
	Delete(ctx context.Context, id string) error
}

// SettingRepository defines the interface for (profile, key) -> value pairs.
// An empty profileID addresses the global (unscoped) setting layer.
type SettingRepository interface {
	Get(ctx context.Context, profileID, key string) (string, error)
	Set(ctx context.Context, profileID, key, value string) error
}

// ChannelRepository defines the interface for channel policy operations
type ChannelRepository interface {
	Add(ctx context.Context, channel *models.Channel) (*models.Channel, error)
	Remove(ctx context.Context, profileID, nameOrHandle string) error
	GetByStatus(ctx context.Context, profileID string, status models.ChannelStatus) ([]*models.Channel, error)
	SetCategory(ctx context.Context, profileID, nameOrHandle string, category models.Category) error
	GetCategory(ctx context.Context, profileID, channelName string) (models.Category, error)
	UpdateChannelID(ctx context.Context, profileID, channelName, channelID string) error
	UpdateHandle(ctx context.Context, profileID, channelName, handle string) error
}

// VideoRepository defines the interface for per-profile video records
type VideoRepository interface {
	Upsert(ctx context.Context, profileID string, video *models.Video) error
	Get(ctx context.Context, profileID, videoID string) (*models.Video, error)
	UpdateStatus(ctx context.Context, profileID, videoID string, status models.VideoStatus) error
	GetByStatus(ctx context.Context, profileID string, status models.VideoStatus, filters VideoFilters) ([]*models.Video, error)
	GetDeniedIDs(ctx context.Context, profileID string) (map[string]struct{}, error)
	GetApprovedShorts(ctx context.Context, profileID string, limit int) ([]*models.Video, error)
	GetRecentRequests(ctx context.Context, profileID string, limit int) ([]*models.Video, error)
	SetCategory(ctx context.Context, profileID, videoID string, category models.Category) error
	RecordView(ctx context.Context, profileID, videoID string) error
}

// WatchLogRepository defines the interface for append-only watch time records
type WatchLogRepository interface {
	Record(ctx context.Context, profileID, videoID string, seconds int) error
	// MinutesBetween sums watch minutes in the UTC instant range [start, end).
	MinutesBetween(ctx context.Context, profileID string, start, end time.Time) (float64, error)
	// MinutesByCategoryBetween groups the same sum by each video's effective
	// category (video override, else channel default). Uncategorized usage is
	// returned under the empty key.
	MinutesByCategoryBetween(ctx context.Context, profileID string, start, end time.Time) (map[models.Category]float64, error)
}

// WordFilterRepository defines the interface for the global title word filter
type WordFilterRepository interface {
	Add(ctx context.Context, word string) (bool, error)
	Remove(ctx context.Context, word string) (bool, error)
	List(ctx context.Context) ([]string, error)
}

// VideoFilters represents filters for querying videos by status
type VideoFilters struct {
	ChannelName string
	ChannelID   string
	Limit       int
}
