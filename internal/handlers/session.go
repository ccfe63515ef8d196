package handlers

import (
	"sync"

	"github.com/tubegate/tubegate/internal/models"
)

// Session remembers which profile each admin chat is currently managing, so
// commands like /time and /channels act on the selected child without
// repeating the profile name every time.
type Session struct {
	mu       sync.Mutex
	selected map[int64]string
}

// NewSession creates an empty session store.
func NewSession() *Session {
	return &Session{selected: make(map[int64]string)}
}

// ProfileFor returns the chat's selected profile, defaulting to the
// designated default profile.
func (s *Session) ProfileFor(chatID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.selected[chatID]; ok {
		return id
	}
	return models.DefaultProfileID
}

// Select switches the chat's managed profile.
func (s *Session) Select(chatID int64, profileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected[chatID] = profileID
}
