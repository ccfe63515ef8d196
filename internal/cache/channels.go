package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/tubegate/tubegate/internal/metrics"
	"github.com/tubegate/tubegate/internal/models"
)

// Run is the background refresh loop. It blocks until the context is
// cancelled, so it should be launched in a separate goroutine. The short
// initial delay keeps startup from waiting on the provider.
func (m *Manager) Run(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(5 * time.Second):
	}

	m.logger.Infof("Channel cache loop started (ttl=%s)", m.ttl)
	m.refreshAll(ctx)

	ticker := time.NewTicker(m.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Channel cache loop stopped")
			return
		case <-ticker.C:
			m.refreshAll(ctx)
		case profileID := <-m.refreshQueue:
			if profileID == "" {
				m.refreshAll(ctx)
			} else if err := m.refreshProfile(ctx, profileID); err != nil {
				m.logger.WithError(err).Errorf("Out-of-band refresh for profile %s finished with errors", profileID)
			}
		}
	}
}

// refreshAll refreshes every profile's channel cache. Individual profile
// failures are logged and do not stop the pass.
func (m *Manager) refreshAll(ctx context.Context) {
	started := time.Now()

	profiles, err := m.profiles.List(ctx)
	if err != nil {
		m.logger.WithError(err).Error("Failed to list profiles for cache refresh")
		metrics.CacheRefreshes.WithLabelValues("failure").Inc()
		return
	}

	ids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.ID)
	}
	if len(ids) == 0 {
		ids = []string{models.DefaultProfileID}
	}

	var result *multierror.Error
	for _, id := range ids {
		if err := m.refreshProfile(ctx, id); err != nil {
			result = multierror.Append(result, err)
		}
	}

	metrics.CacheRefreshDuration.Observe(time.Since(started).Seconds())
	if err := result.ErrorOrNil(); err != nil {
		m.logger.WithError(err).Warn("Cache refresh pass finished with errors")
		metrics.CacheRefreshes.WithLabelValues("partial").Inc()
		return
	}
	metrics.CacheRefreshes.WithLabelValues("success").Inc()
}

// refreshProfile fetches the latest videos (and shorts, when enabled) for
// every allowlisted channel of one profile. Per-channel fetches run
// concurrently; a failed channel records an empty list so one bad channel
// cannot block or fail the others.
func (m *Manager) refreshProfile(ctx context.Context, profileID string) error {
	allowed, err := m.channels.GetByStatus(ctx, profileID, models.ChannelStatusAllowed)
	if err != nil {
		return err
	}

	pc := m.cacheFor(profileID)

	if len(allowed) == 0 {
		pc.mu.Lock()
		pc.order = nil
		pc.channels = make(map[string][]*models.Video)
		pc.shorts = make(map[string][]*models.Video)
		pc.idToName = make(map[string]string)
		pc.mu.Unlock()
		pc.generation.Store(time.Now().UnixNano())
		return nil
	}

	var errs *multierror.Error
	videos := m.fetchAll(ctx, allowed, m.maxResults, m.provider.FetchChannelVideos, &errs)

	shorts := make(map[string][]*models.Video)
	if m.ShortsEnabled(ctx, profileID) {
		shortsMax := m.maxResults / 4
		if shortsMax < 20 {
			shortsMax = 20
		}
		shorts = m.fetchAll(ctx, allowed, shortsMax, m.provider.FetchChannelShorts, &errs)
	}

	order := make([]string, 0, len(allowed))
	idToName := make(map[string]string)
	for _, ch := range allowed {
		order = append(order, ch.CacheKey())
		if ch.ChannelID != "" {
			idToName[ch.ChannelID] = ch.ChannelName
		}
	}

	pc.mu.Lock()
	pc.order = order
	pc.channels = videos
	pc.shorts = shorts
	pc.idToName = idToName
	pc.mu.Unlock()
	pc.generation.Store(time.Now().UnixNano())

	m.logger.Infof("Refreshed channel cache for profile %s: %d channels", profileID, len(videos))
	return errs.ErrorOrNil()
}

type fetchFunc func(ctx context.Context, channelName, channelID string, maxResults int) ([]*models.Video, error)

// fetchAll fans out one fetch per channel and collects results keyed by the
// channel's cache key. Failures yield an empty list for that channel.
func (m *Manager) fetchAll(ctx context.Context, channels []*models.Channel, maxResults int, fetch fetchFunc, errs **multierror.Error) map[string][]*models.Video {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[string][]*models.Video, len(channels))
	)

	for _, ch := range channels {
		wg.Add(1)
		go func(ch *models.Channel) {
			defer wg.Done()
			videos, err := fetch(ctx, ch.ChannelName, ch.ChannelID, maxResults)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				m.logger.WithError(err).Errorf("Channel fetch failed for %q", ch.ChannelName)
				metrics.ChannelFetchFailures.Inc()
				*errs = multierror.Append(*errs, err)
				results[ch.CacheKey()] = nil
				return
			}
			results[ch.CacheKey()] = videos
		}(ch)
	}

	wg.Wait()
	return results
}
