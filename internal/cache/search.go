package cache

import (
	"context"
	"strings"

	"github.com/tubegate/tubegate/internal/models"
)

// QueryBlocked reports whether a search query itself contains a filtered
// word; such queries return no results at all.
func (m *Manager) QueryBlocked(ctx context.Context, query string) bool {
	return titleMatches(query, m.patterns(ctx))
}

// FilterSearchResults applies the profile's content policy to provider
// search results: blocked channels, the title word filter, and the shorts
// toggle. Results are returned in the provider's order.
func (m *Manager) FilterSearchResults(ctx context.Context, profileID string, results []*models.Video) []*models.Video {
	blockedIDs := make(map[string]struct{})
	blockedNames := make(map[string]struct{})
	blocked, err := m.channels.GetByStatus(ctx, profileID, models.ChannelStatusBlocked)
	if err != nil {
		m.logger.WithError(err).Error("Failed to load blocked channels for search")
	}
	for _, ch := range blocked {
		if ch.ChannelID != "" {
			blockedIDs[ch.ChannelID] = struct{}{}
		}
		blockedNames[strings.ToLower(ch.ChannelName)] = struct{}{}
	}

	shortsOK := m.ShortsEnabled(ctx, profileID)

	filtered := results[:0:0]
	for _, v := range results {
		if _, bad := blockedIDs[v.ChannelID]; bad {
			continue
		}
		if _, bad := blockedNames[strings.ToLower(v.ChannelName)]; bad {
			continue
		}
		if v.IsShort && !shortsOK {
			continue
		}
		filtered = append(filtered, v)
	}
	return m.applyWordFilter(ctx, filtered)
}
