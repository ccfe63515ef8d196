package engine

import (
	"context"
	"time"

	"github.com/tubegate/tubegate/internal/metrics"
	"github.com/tubegate/tubegate/internal/models"
	"github.com/tubegate/tubegate/internal/schedule"
)

// Gating outcomes and heartbeat reason codes. These are distinct so the
// presentation layer can react differently (stop player, show banner, etc).
const (
	ReasonOK              = "ok"
	ReasonNotFound        = "not_found"
	ReasonNotApproved     = "not_approved"
	ReasonTimeUp          = "time_up"
	ReasonOutsideHours    = "outside_hours"
	ReasonNotWatching     = "not_watching"
	ReasonOutsideSchedule = "outside_schedule"
	ReasonInvalid         = "invalid"
)

// AlternateCategory points at another bucket that still has time left, for
// a graceful redirect when the requested one is exhausted.
type AlternateCategory struct {
	Category     models.Category `json:"category"`
	Label        string          `json:"label"`
	RemainingMin float64         `json:"remaining_min"`
}

// Decision is the allow/deny outcome for a playback attempt.
type Decision struct {
	Allowed      bool                  `json:"allowed"`
	Reason       string                `json:"reason,omitempty"`
	Category     models.Category       `json:"category"`
	RemainingSec int                   `json:"remaining_sec"`
	UnlockTime   string                `json:"unlock_time,omitempty"`
	NextStart    string                `json:"next_start,omitempty"`
	Alternates   []AlternateCategory   `json:"alternates,omitempty"`
	Budget       models.CategoryBudget `json:"budget"`
	Schedule     *schedule.Info        `json:"schedule,omitempty"`
}

// Gate decides whether a playback attempt may proceed right now, consulting
// budget, schedule and the video's approval state within one call so the
// answer is consistent for this request. On allow, the video is registered
// as the profile's current playback so heartbeats for it are accepted.
func (e *Engine) Gate(ctx context.Context, profileID, videoID string) *Decision {
	video, err := e.videos.Get(ctx, profileID, videoID)
	if err != nil {
		e.logger.WithError(err).Errorf("Video lookup failed for %s, denying", videoID)
	}
	if video == nil {
		metrics.GatingDecisions.WithLabelValues(ReasonNotFound).Inc()
		return &Decision{Reason: ReasonNotFound, RemainingSec: -1}
	}
	if video.Status != models.VideoStatusApproved {
		metrics.GatingDecisions.WithLabelValues(ReasonNotApproved).Inc()
		return &Decision{Reason: ReasonNotApproved, RemainingSec: -1}
	}

	category := e.EffectiveCategory(ctx, profileID, video)
	decision := &Decision{Category: category, RemainingSec: -1}

	budget := e.Budget(ctx, profileID)
	if budget != nil {
		bucket, ok := budget.ForCategory(category)
		if ok {
			decision.Budget = bucket
			if bucket.Exceeded {
				decision.Reason = ReasonTimeUp
				decision.Alternates = alternates(budget, category)
				decision.NextStart = e.resolver.NextStartTime(ctx, profileID, time.Now())
				metrics.GatingDecisions.WithLabelValues(ReasonTimeUp).Inc()
				return decision
			}
			decision.RemainingSec = bucket.RemainingSec
		}
	}

	if info := e.resolver.ScheduleInfo(ctx, profileID, time.Now()); info != nil {
		decision.Schedule = info
		if !info.Allowed {
			decision.Reason = ReasonOutsideHours
			decision.UnlockTime = info.UnlockTime
			metrics.GatingDecisions.WithLabelValues(ReasonOutsideHours).Inc()
			return decision
		}
	}

	decision.Allowed = true
	e.playback.startWatching(profileID, videoID)
	if err := e.videos.RecordView(ctx, profileID, videoID); err != nil {
		e.logger.WithError(err).Errorf("Failed to record view for %s", videoID)
	}
	metrics.GatingDecisions.WithLabelValues(ReasonOK).Inc()
	return decision
}

// alternates lists the other buckets that still have budget left.
func alternates(budget *models.BudgetInfo, exhausted models.Category) []AlternateCategory {
	var out []AlternateCategory
	for _, cat := range []models.Category{models.CategoryEdu, models.CategoryFun} {
		if cat == exhausted {
			continue
		}
		bucket, ok := budget.Categories[cat]
		if !ok || bucket.Exceeded || bucket.EffectiveLimit == 0 {
			continue
		}
		out = append(out, AlternateCategory{
			Category:     cat,
			Label:        models.CategoryLabel(cat),
			RemainingMin: bucket.RemainingMin,
		})
	}
	return out
}
