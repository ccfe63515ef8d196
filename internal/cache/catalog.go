package cache

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/tubegate/tubegate/internal/metrics"
	"github.com/tubegate/tubegate/internal/models"
	"github.com/tubegate/tubegate/internal/repository"
)

// Build assembles the profile's merged catalog. Without a channel filter it
// round-robin interleaves every channel's cached list (so no prolific
// channel dominates the front), appends individually-approved store videos,
// excludes denied ids and shorts, annotates effective categories, applies
// the word filter last, and caches the result keyed by the channel cache's
// generation. With a filter it builds a small always-fresh per-channel view
// sorted newest first, never touching the full-catalog cache.
func (m *Manager) Build(ctx context.Context, profileID, channelFilter string) []*models.Video {
	if channelFilter != "" {
		return m.buildChannelView(ctx, profileID, channelFilter)
	}

	pc := m.cacheFor(profileID)
	gen := pc.generation.Load()
	if catGen := pc.catalogGen.Load(); catGen > 0 && catGen >= gen {
		pc.mu.RLock()
		cached := pc.catalog
		pc.mu.RUnlock()
		if cached != nil {
			metrics.CatalogBuilds.WithLabelValues("cache").Inc()
			return cached
		}
	}

	seen := m.deniedIDs(ctx, profileID)

	pc.mu.RLock()
	lists := make([][]*models.Video, 0, len(pc.order))
	for _, key := range pc.order {
		if vids := pc.channels[key]; len(vids) > 0 {
			lists = append(lists, vids)
		}
	}
	pc.mu.RUnlock()

	catalog := roundRobin(lists, true, seen)

	// Individually-approved videos not covered by any channel cache.
	approved, err := m.videos.GetByStatus(ctx, profileID, models.VideoStatusApproved, repository.VideoFilters{})
	if err != nil {
		m.logger.WithError(err).Error("Failed to load approved videos for catalog")
	}
	catalog = appendUnseen(catalog, approved, true, seen)

	m.annotate(ctx, profileID, catalog)
	catalog = m.applyWordFilter(ctx, catalog)

	pc.mu.Lock()
	pc.catalog = catalog
	pc.mu.Unlock()
	pc.catalogGen.Store(time.Now().UnixNano())

	metrics.CatalogBuilds.WithLabelValues("rebuild").Inc()
	return catalog
}

// buildChannelView is the single-channel variant: one channel's cache plus
// that channel's store videos, newest first. Small and cheap, so it is
// computed fresh on every call.
func (m *Manager) buildChannelView(ctx context.Context, profileID, channelFilter string) []*models.Video {
	pc := m.cacheFor(profileID)

	pc.mu.RLock()
	cached := pc.channels[channelFilter]
	_, isChannelID := pc.idToName[channelFilter]
	pc.mu.RUnlock()

	seen := m.deniedIDs(ctx, profileID)
	view := appendUnseen(nil, cached, true, seen)

	filters := repository.VideoFilters{ChannelName: channelFilter}
	if isChannelID {
		filters = repository.VideoFilters{ChannelID: channelFilter}
	}
	stored, err := m.videos.GetByStatus(ctx, profileID, models.VideoStatusApproved, filters)
	if err != nil {
		m.logger.WithError(err).Error("Failed to load channel videos for catalog")
	}
	view = appendUnseen(view, stored, true, seen)

	sort.SliceStable(view, func(i, j int) bool {
		return view[i].RecencySort() > view[j].RecencySort()
	})

	m.annotate(ctx, profileID, view)
	return m.applyWordFilter(ctx, view)
}

// BuildShorts assembles the short-form catalog with the same round-robin
// and dedup rules over the shorts caches plus store-approved shorts. It is
// empty whenever short-form content is disabled for the profile.
func (m *Manager) BuildShorts(ctx context.Context, profileID string) []*models.Video {
	if !m.ShortsEnabled(ctx, profileID) {
		return nil
	}

	pc := m.cacheFor(profileID)
	seen := m.deniedIDs(ctx, profileID)

	pc.mu.RLock()
	lists := make([][]*models.Video, 0, len(pc.order))
	for _, key := range pc.order {
		if vids := pc.shorts[key]; len(vids) > 0 {
			lists = append(lists, vids)
		}
	}
	pc.mu.RUnlock()

	shorts := roundRobin(lists, false, seen)

	stored, err := m.videos.GetApprovedShorts(ctx, profileID, 50)
	if err != nil {
		m.logger.WithError(err).Error("Failed to load approved shorts for catalog")
	}
	shorts = appendUnseen(shorts, stored, false, seen)

	m.annotate(ctx, profileID, shorts)
	return m.applyWordFilter(ctx, shorts)
}

// BuildRequests assembles the "your requests" view: individually-approved
// non-short videos whose channel is NOT bulk-allowed, so the row doesn't
// duplicate content already visible through the channel catalog.
func (m *Manager) BuildRequests(ctx context.Context, profileID string, limit int) []*models.Video {
	requests, err := m.videos.GetRecentRequests(ctx, profileID, limit)
	if err != nil {
		m.logger.WithError(err).Error("Failed to load requests for catalog")
		return nil
	}

	allowedIDs := make(map[string]struct{})
	allowedNames := make(map[string]struct{})
	allowed, err := m.channels.GetByStatus(ctx, profileID, models.ChannelStatusAllowed)
	if err != nil {
		m.logger.WithError(err).Error("Failed to load allowed channels for requests view")
	}
	for _, ch := range allowed {
		if ch.ChannelID != "" {
			allowedIDs[ch.ChannelID] = struct{}{}
		} else {
			allowedNames[strings.ToLower(ch.ChannelName)] = struct{}{}
		}
	}

	var out []*models.Video
	for _, v := range requests {
		if v.ChannelID != "" {
			if _, covered := allowedIDs[v.ChannelID]; covered {
				continue
			}
		} else if _, covered := allowedNames[strings.ToLower(v.ChannelName)]; covered {
			continue
		}
		c := *v
		out = append(out, &c)
	}

	m.annotate(ctx, profileID, out)
	return m.applyWordFilter(ctx, out)
}

// roundRobin drains the source lists with one cursor each: index 0 from
// every non-empty list, then index 1, skipping exhausted lists, so ordering
// fairness and termination stay explicit. Videos whose id is already in
// seen are skipped; appended entries are copies, so later annotation never
// mutates cached entries.
func roundRobin(lists [][]*models.Video, skipShorts bool, seen map[string]struct{}) []*models.Video {
	cursors := make([]int, len(lists))
	var out []*models.Video
	for {
		added := false
		for i, list := range lists {
			if cursors[i] >= len(list) {
				continue
			}
			v := list[cursors[i]]
			cursors[i]++
			added = true
			if v.VideoID == "" || (skipShorts && v.IsShort) {
				continue
			}
			if _, dup := seen[v.VideoID]; dup {
				continue
			}
			seen[v.VideoID] = struct{}{}
			c := *v
			out = append(out, &c)
		}
		if !added {
			break
		}
	}
	return out
}

// appendUnseen appends copies of videos not yet in seen.
func appendUnseen(dst []*models.Video, src []*models.Video, skipShorts bool, seen map[string]struct{}) []*models.Video {
	for _, v := range src {
		if v.VideoID == "" || (skipShorts && v.IsShort) {
			continue
		}
		if _, dup := seen[v.VideoID]; dup {
			continue
		}
		seen[v.VideoID] = struct{}{}
		c := *v
		dst = append(dst, &c)
	}
	return dst
}

// deniedIDs seeds the seen set with the profile's denied video ids, so they
// can never surface in any catalog view.
func (m *Manager) deniedIDs(ctx context.Context, profileID string) map[string]struct{} {
	denied, err := m.videos.GetDeniedIDs(ctx, profileID)
	if err != nil {
		m.logger.WithError(err).Error("Failed to load denied video ids")
		return make(map[string]struct{})
	}
	if denied == nil {
		denied = make(map[string]struct{})
	}
	return denied
}

// annotate sets each video's effective category in place: video-level
// override, else channel default, else fun.
func (m *Manager) annotate(ctx context.Context, profileID string, videos []*models.Video) {
	if len(videos) == 0 {
		return
	}

	catByID := make(map[string]models.Category)
	catByName := make(map[string]models.Category)
	allowed, err := m.channels.GetByStatus(ctx, profileID, models.ChannelStatusAllowed)
	if err != nil {
		m.logger.WithError(err).Error("Failed to load channel categories for annotation")
	}
	for _, ch := range allowed {
		if ch.Category == "" {
			continue
		}
		if ch.ChannelID != "" {
			catByID[ch.ChannelID] = ch.Category
		}
		catByName[strings.ToLower(ch.ChannelName)] = ch.Category
	}

	for _, v := range videos {
		if v.Category != "" {
			continue
		}
		cat := catByID[v.ChannelID]
		if cat == "" {
			cat = catByName[strings.ToLower(v.ChannelName)]
		}
		if cat == "" {
			cat = models.CategoryFun
		}
		v.Category = cat
	}
}

func (m *Manager) applyWordFilter(ctx context.Context, videos []*models.Video) []*models.Video {
	patterns := m.patterns(ctx)
	if len(patterns) == 0 {
		return videos
	}
	filtered := videos[:0:0]
	for _, v := range videos {
		if !titleMatches(v.Title, patterns) {
			filtered = append(filtered, v)
		}
	}
	return filtered
}
