package models

import "time"

// WatchLogEntry is one append-only playback heartbeat record
type WatchLogEntry struct {
	ID              int64     `json:"id" db:"id"`
	ProfileID       string    `json:"profile_id" db:"profile_id"`
	VideoID         string    `json:"video_id" db:"video_id"`
	DurationSeconds int       `json:"duration_seconds" db:"duration_seconds"`
	WatchedAt       time.Time `json:"watched_at" db:"watched_at"`
}
