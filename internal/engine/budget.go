package engine

import (
	"context"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/tubegate/tubegate/internal/models"
	"github.com/tubegate/tubegate/internal/repository"
	"github.com/tubegate/tubegate/internal/schedule"
)

// LimitNotifier is invoked when a heartbeat finds a budget exhausted, so the
// presentation layer can tell the parent. Category is empty in simple mode.
type LimitNotifier func(profileID string, category models.Category, usedMin float64, limitMin int)

// Engine composes budget, schedule and channel policy into playback gating
// decisions. It owns the small amount of in-memory playback state (who is
// watching what, heartbeat pacing); everything else is read through the
// store per request.
type Engine struct {
	resolver *schedule.Resolver
	videos   repository.VideoRepository
	channels repository.ChannelRepository
	watchLog repository.WatchLogRepository
	logger   *logrus.Logger

	notifyLimit LimitNotifier

	playback playbackState
}

// New creates an Engine. notify may be nil.
func New(
	resolver *schedule.Resolver,
	videos repository.VideoRepository,
	channels repository.ChannelRepository,
	watchLog repository.WatchLogRepository,
	logger *logrus.Logger,
	notify LimitNotifier,
) *Engine {
	e := &Engine{
		resolver:    resolver,
		videos:      videos,
		channels:    channels,
		watchLog:    watchLog,
		logger:      logger,
		notifyLimit: notify,
	}
	e.playback.init()
	return e
}

// Resolver exposes the setting resolver for presentation-layer display needs
// (schedule banners, next unlock time).
func (e *Engine) Resolver() *schedule.Resolver {
	return e.resolver
}

// EffectiveCategory resolves a video's budget bucket: video-level override,
// else channel default, else fun.
func (e *Engine) EffectiveCategory(ctx context.Context, profileID string, video *models.Video) models.Category {
	if video == nil {
		return models.CategoryFun
	}
	if video.Category != "" {
		return video.Category
	}
	if video.ChannelName != "" {
		cat, err := e.channels.GetCategory(ctx, profileID, video.ChannelName)
		if err != nil {
			e.logger.WithError(err).Errorf("Channel category lookup failed for %q", video.ChannelName)
		} else if cat != "" {
			return cat
		}
	}
	return models.CategoryFun
}

// Budget computes the profile's time budget for today. Returns nil when no
// limit is configured, and also when the store is unavailable: a degraded
// store must never block playback gating, only log.
func (e *Engine) Budget(ctx context.Context, profileID string) *models.BudgetInfo {
	eduLimit := e.resolver.ResolveInt(ctx, profileID, "edu_limit_minutes")
	funLimit := e.resolver.ResolveInt(ctx, profileID, "fun_limit_minutes")
	flatLimit := e.resolver.ResolveInt(ctx, profileID, "daily_limit_minutes")

	mode := models.BudgetModeNone
	if eduLimit > 0 || funLimit > 0 {
		mode = models.BudgetModeCategory
	} else if flatLimit > 0 {
		mode = models.BudgetModeSimple
	}
	if mode == models.BudgetModeNone {
		return nil
	}

	today := e.resolver.Today()
	start, end := e.resolver.DayBounds(today)
	bonus := e.resolver.BonusMinutes(ctx, profileID, today)

	if mode == models.BudgetModeSimple {
		used, err := e.watchLog.MinutesBetween(ctx, profileID, start, end)
		if err != nil {
			e.logger.WithError(err).Error("Watch-time lookup failed, gating degraded to no limit")
			return nil
		}
		flat := computeBucket(flatLimit, bonus, used)
		return &models.BudgetInfo{Mode: models.BudgetModeSimple, Flat: &flat}
	}

	usage, err := e.watchLog.MinutesByCategoryBetween(ctx, profileID, start, end)
	if err != nil {
		e.logger.WithError(err).Error("Watch-time lookup failed, gating degraded to no limit")
		return nil
	}

	// Uncategorized usage counts against the fun bucket.
	funUsed := usage[models.CategoryFun] + usage[models.Category("")]

	return &models.BudgetInfo{
		Mode: models.BudgetModeCategory,
		Categories: map[models.Category]models.CategoryBudget{
			models.CategoryEdu: computeBucket(eduLimit, bonus, usage[models.CategoryEdu]),
			models.CategoryFun: computeBucket(funLimit, bonus, funUsed),
		},
	}
}

// computeBucket applies the budget arithmetic for one bucket. A zero
// configured limit means the bucket is unmetered: the bonus does not revive
// it and it can never be exceeded.
func computeBucket(limitMin, bonusMin int, usedMin float64) models.CategoryBudget {
	if limitMin <= 0 {
		return models.CategoryBudget{
			UsedMin:      round1(usedMin),
			RemainingMin: -1,
			RemainingSec: -1,
		}
	}
	effective := limitMin + bonusMin
	remaining := math.Max(0, float64(effective)-usedMin)
	return models.CategoryBudget{
		EffectiveLimit: effective,
		UsedMin:        round1(usedMin),
		RemainingMin:   round1(remaining),
		RemainingSec:   int(remaining * 60),
		Exceeded:       remaining <= 0,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
