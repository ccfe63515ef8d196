package engine

import (
	"context"
	"sync"
	"time"

	"github.com/tubegate/tubegate/internal/metrics"
	"github.com/tubegate/tubegate/internal/models"
)

const (
	// Heartbeats arriving faster than this are clamped to zero added
	// seconds, so a manipulated client timer cannot inflate watch time.
	heartbeatMinInterval = 10 * time.Second
	heartbeatEvictAge    = 120 * time.Second

	// Per-heartbeat cap on reported seconds.
	heartbeatMaxSeconds = 60
)

// playbackState tracks which video each profile is currently watching and
// paces heartbeats per (profile, video).
type playbackState struct {
	mu          sync.Mutex
	watching    map[string]string
	lastBeat    map[string]time.Time
	lastCleanup time.Time
}

func (p *playbackState) init() {
	p.watching = make(map[string]string)
	p.lastBeat = make(map[string]time.Time)
}

func (p *playbackState) startWatching(profileID, videoID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.watching[profileID] = videoID
}

func (p *playbackState) isWatching(profileID, videoID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.watching[profileID] == videoID
}

// pace returns the seconds to credit for this heartbeat, clamping to zero
// when the previous beat for the same playback was under the minimum
// interval. Stale pacing entries are evicted opportunistically.
func (p *playbackState) pace(profileID, videoID string, seconds int, now time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := profileID + "|" + videoID
	if last, ok := p.lastBeat[key]; ok && now.Sub(last) < heartbeatMinInterval {
		seconds = 0
	}
	p.lastBeat[key] = now

	if now.Sub(p.lastCleanup) > heartbeatEvictAge {
		p.lastCleanup = now
		for k, t := range p.lastBeat {
			if now.Sub(t) > heartbeatEvictAge {
				delete(p.lastBeat, k)
			}
		}
	}
	return seconds
}

// HeartbeatResult carries the outcome of one playback heartbeat.
type HeartbeatResult struct {
	Accepted     bool   `json:"accepted"`
	Reason       string `json:"reason"`
	RemainingSec int    `json:"remaining_sec"`
}

// Heartbeat records playback seconds and re-runs the budget and schedule
// checks. A schedule that closed mid-playback or a revoked approval stops
// further heartbeats immediately, each with its own reason code. Remaining
// is -1 when the video's bucket is unmetered.
func (e *Engine) Heartbeat(ctx context.Context, profileID, videoID string, seconds int) *HeartbeatResult {
	if seconds < 0 {
		seconds = 0
	}
	if seconds > heartbeatMaxSeconds {
		seconds = heartbeatMaxSeconds
	}

	if !e.playback.isWatching(profileID, videoID) {
		metrics.Heartbeats.WithLabelValues(ReasonNotWatching).Inc()
		return &HeartbeatResult{Reason: ReasonNotWatching, RemainingSec: -1}
	}

	video, err := e.videos.Get(ctx, profileID, videoID)
	if err != nil {
		e.logger.WithError(err).Errorf("Video lookup failed during heartbeat for %s", videoID)
	}
	if video == nil || video.Status != models.VideoStatusApproved {
		metrics.Heartbeats.WithLabelValues(ReasonNotApproved).Inc()
		return &HeartbeatResult{Reason: ReasonNotApproved, RemainingSec: -1}
	}

	if info := e.resolver.ScheduleInfo(ctx, profileID, time.Now()); info != nil && !info.Allowed {
		metrics.Heartbeats.WithLabelValues(ReasonOutsideSchedule).Inc()
		return &HeartbeatResult{Reason: ReasonOutsideSchedule, RemainingSec: -1}
	}

	seconds = e.playback.pace(profileID, videoID, seconds, time.Now())

	if seconds > 0 {
		if err := e.watchLog.Record(ctx, profileID, videoID, seconds); err != nil {
			// The next heartbeat self-corrects; don't fail the player.
			e.logger.WithError(err).Errorf("Failed to record watch seconds for %s", videoID)
		}
	}

	remaining := -1
	category := e.EffectiveCategory(ctx, profileID, video)
	if budget := e.Budget(ctx, profileID); budget != nil {
		if bucket, ok := budget.ForCategory(category); ok && bucket.EffectiveLimit > 0 {
			remaining = bucket.RemainingSec
			if bucket.Exceeded && e.notifyLimit != nil {
				notifyCat := category
				if budget.Mode == models.BudgetModeSimple {
					notifyCat = ""
				}
				e.notifyLimit(profileID, notifyCat, bucket.UsedMin, bucket.EffectiveLimit)
			}
		}
	}

	metrics.Heartbeats.WithLabelValues(ReasonOK).Inc()
	return &HeartbeatResult{Accepted: true, Reason: ReasonOK, RemainingSec: remaining}
}
