package models

import "time"

// Profile represents one child's isolated slice of settings, channels,
// videos and watch history.
type Profile struct {
	ID          string    `json:"id" db:"id"`
	DisplayName string    `json:"display_name" db:"display_name"`
	AccessCode  string    `json:"access_code,omitempty" db:"access_code"`
	AvatarIcon  string    `json:"avatar_icon" db:"avatar_icon"`
	AvatarColor string    `json:"avatar_color" db:"avatar_color"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// DefaultProfileID is the designated profile whose settings fall back to the
// global (unscoped) setting layer when no profile-scoped value exists.
const DefaultProfileID = "default"
