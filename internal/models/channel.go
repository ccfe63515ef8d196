package models

import "time"

// ChannelStatus is a channel's policy for a profile
type ChannelStatus string

const (
	ChannelStatusAllowed ChannelStatus = "allowed"
	ChannelStatusBlocked ChannelStatus = "blocked"
)

// Channel represents a channel policy entry for a profile. Category on a
// channel is inherited by its videos unless a video carries its own override.
type Channel struct {
	ID          int64         `json:"id" db:"id"`
	ProfileID   string        `json:"profile_id" db:"profile_id"`
	ChannelName string        `json:"channel_name" db:"channel_name"`
	Status      ChannelStatus `json:"status" db:"status"`
	ChannelID   string        `json:"channel_id,omitempty" db:"channel_id"`
	Handle      string        `json:"handle,omitempty" db:"handle"`
	Category    Category      `json:"category,omitempty" db:"category"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}

// CacheKey returns the key used for this channel's cache entry: the external
// channel id when known, otherwise the channel name.
func (c *Channel) CacheKey() string {
	if c.ChannelID != "" {
		return c.ChannelID
	}
	return c.ChannelName
}
