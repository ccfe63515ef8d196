package cache

import (
	"context"
	"regexp"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/tubegate/tubegate/internal/models"
	"github.com/tubegate/tubegate/internal/repository"
	"github.com/tubegate/tubegate/internal/schedule"
)

// Provider is the slice of the external content source the cache consumes.
type Provider interface {
	FetchChannelVideos(ctx context.Context, channelName, channelID string, maxResults int) ([]*models.Video, error)
	FetchChannelShorts(ctx context.Context, channelName, channelID string, maxResults int) ([]*models.Video, error)
}

// Manager owns all per-profile cache state: the provider-fetch channel
// caches, the derived catalog caches, and the compiled word-filter patterns.
// It is created at startup, injected into request handlers, and torn down
// with the process; reads never block on external I/O.
type Manager struct {
	provider Provider
	profiles repository.ProfileRepository
	channels repository.ChannelRepository
	videos   repository.VideoRepository
	filters  repository.WordFilterRepository
	resolver *schedule.Resolver
	logger   *logrus.Logger

	ttl           time.Duration
	maxResults    int
	shortsDefault bool

	mu     sync.RWMutex
	caches map[string]*profileCache

	wfMu         sync.Mutex
	wordPatterns []*regexp.Regexp
	wordValid    bool

	// Invalidation enqueues refresh requests here; "" means all profiles.
	// A full queue drops the request; the next scheduled tick covers it.
	refreshQueue chan string
}

// profileCache is one profile's channel-fetch cache plus its derived
// catalog cache. generation is the unix-nano timestamp of the last refresh
// (0 = stale/invalidated); catalogGen is the build time of the cached
// catalog, valid only while >= generation and non-zero.
type profileCache struct {
	mu       sync.RWMutex
	order    []string
	channels map[string][]*models.Video
	shorts   map[string][]*models.Video
	idToName map[string]string

	generation atomic.Int64

	catalog    []*models.Video
	catalogGen atomic.Int64
}

// NewManager creates the cache manager. Run must be started for the
// background refresh loop to operate.
func NewManager(
	provider Provider,
	profiles repository.ProfileRepository,
	channels repository.ChannelRepository,
	videos repository.VideoRepository,
	filters repository.WordFilterRepository,
	resolver *schedule.Resolver,
	logger *logrus.Logger,
	ttl time.Duration,
	maxResults int,
	shortsDefault bool,
) *Manager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Manager{
		provider:      provider,
		profiles:      profiles,
		channels:      channels,
		videos:        videos,
		filters:       filters,
		resolver:      resolver,
		logger:        logger,
		ttl:           ttl,
		maxResults:    maxResults,
		shortsDefault: shortsDefault,
		caches:        make(map[string]*profileCache),
		refreshQueue:  make(chan string, 16),
	}
}

// cacheFor returns (creating if needed) the cache entry for a profile.
func (m *Manager) cacheFor(profileID string) *profileCache {
	m.mu.RLock()
	pc, ok := m.caches[profileID]
	m.mu.RUnlock()
	if ok {
		return pc
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if pc, ok = m.caches[profileID]; ok {
		return pc
	}
	pc = &profileCache{
		channels: make(map[string][]*models.Video),
		shorts:   make(map[string][]*models.Video),
		idToName: make(map[string]string),
	}
	m.caches[profileID] = pc
	return pc
}

// ShortsEnabled reports whether short-form content is enabled for a
// profile: the profile's own setting wins, else the provider-level default.
func (m *Manager) ShortsEnabled(ctx context.Context, profileID string) bool {
	if v := m.resolver.Resolve(ctx, profileID, "shorts_enabled"); v != "" {
		return v == "true"
	}
	return m.shortsDefault
}

// InvalidateChannels marks the channel cache stale for one profile (or all,
// when profileID is empty) and schedules an out-of-band refresh. Dependent
// catalog caches are invalidated transitively. Never blocks and never
// fails; if the queue is full the next scheduled pass picks it up.
func (m *Manager) InvalidateChannels(profileID string) {
	m.invalidateCatalogs(profileID)
	if profileID != "" {
		m.cacheFor(profileID).generation.Store(0)
	} else {
		m.mu.RLock()
		for _, pc := range m.caches {
			pc.generation.Store(0)
		}
		m.mu.RUnlock()
	}

	select {
	case m.refreshQueue <- profileID:
	default:
		m.logger.Debug("Refresh queue full, deferring to next scheduled pass")
	}
}

// InvalidateFilters drops the compiled word-filter patterns (recompiled
// lazily on next use) and forces catalog rebuilds, since filtering is part
// of catalog assembly.
func (m *Manager) InvalidateFilters() {
	m.wfMu.Lock()
	m.wordPatterns = nil
	m.wordValid = false
	m.wfMu.Unlock()
	m.invalidateCatalogs("")
}

// InvalidateCatalog drops one profile's derived catalog cache without
// touching the channel caches. Used when only store-level video state
// changed (approvals, denials), which the next Build re-reads anyway.
func (m *Manager) InvalidateCatalog(profileID string) {
	m.invalidateCatalogs(profileID)
}

func (m *Manager) invalidateCatalogs(profileID string) {
	if profileID != "" {
		m.cacheFor(profileID).catalogGen.Store(0)
		return
	}
	m.mu.RLock()
	for _, pc := range m.caches {
		pc.catalogGen.Store(0)
	}
	m.mu.RUnlock()
}
