package models

import "time"

// VideoStatus tracks a video's approval state for a profile
type VideoStatus string

const (
	VideoStatusPending  VideoStatus = "pending"
	VideoStatusApproved VideoStatus = "approved"
	VideoStatusDenied   VideoStatus = "denied"
)

// Category is the time-budget bucket a video counts against
type Category string

const (
	CategoryEdu Category = "edu"
	CategoryFun Category = "fun"
)

// CategoryLabel returns the display name for a category
func CategoryLabel(c Category) string {
	if c == CategoryEdu {
		return "Educational"
	}
	return "Entertainment"
}

// Video represents a video as surfaced to the cache/catalog layer. Entries
// coming from the provider cache have no Status; store-backed entries do.
type Video struct {
	VideoID      string      `json:"video_id" db:"video_id"`
	Title        string      `json:"title" db:"title"`
	ChannelName  string      `json:"channel_name" db:"channel_name"`
	ChannelID    string      `json:"channel_id,omitempty" db:"channel_id"`
	ThumbnailURL string      `json:"thumbnail_url,omitempty" db:"thumbnail_url"`
	Duration     int         `json:"duration" db:"duration"`
	IsShort      bool        `json:"is_short" db:"is_short"`
	Category     Category    `json:"category,omitempty" db:"category"`
	Status       VideoStatus `json:"status,omitempty" db:"status"`
	ViewCount    int         `json:"view_count,omitempty" db:"view_count"`
	PublishedAt  time.Time   `json:"published_at,omitempty" db:"added_at"`
}

// RecencySort is the timestamp used for newest-first ordering in
// channel-filtered catalog views.
func (v *Video) RecencySort() int64 {
	return v.PublishedAt.Unix()
}
