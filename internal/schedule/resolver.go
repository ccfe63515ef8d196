package schedule

import (
	"context"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tubegate/tubegate/internal/models"
	"github.com/tubegate/tubegate/internal/repository"
)

// DayNames are the per-day setting key prefixes, Monday first.
var DayNames = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// OverrideKeys are the base setting keys that accept a per-day prefix.
var OverrideKeys = []string{
	"schedule_start", "schedule_end",
	"edu_limit_minutes", "fun_limit_minutes", "daily_limit_minutes",
}

// Info describes the current access window for a profile.
type Info struct {
	Allowed    bool   `json:"allowed"`
	UnlockTime string `json:"unlock_time,omitempty"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

// Resolver resolves effective settings for a profile/day from three
// precedence layers: per-day override, profile default, and (for the
// designated default profile only) the global setting layer.
//
// Store errors and malformed values never propagate: lookups fail open to
// the next layer so untrusted request paths cannot trip on them.
type Resolver struct {
	settings repository.SettingRepository
	logger   *logrus.Logger
	timezone string
}

// NewResolver creates a Resolver bound to a settings store and timezone.
func NewResolver(settings repository.SettingRepository, timezone string, logger *logrus.Logger) *Resolver {
	return &Resolver{settings: settings, timezone: timezone, logger: logger}
}

// Location returns the configured timezone, falling back to UTC.
func (r *Resolver) Location() *time.Location {
	loc, err := time.LoadLocation(r.timezone)
	if err != nil || r.timezone == "" {
		return time.UTC
	}
	return loc
}

// Today returns the current local date as YYYY-MM-DD.
func (r *Resolver) Today() string {
	return time.Now().In(r.Location()).Format("2006-01-02")
}

// Weekday returns the day-name prefix ("mon".."sun") for the given instant
// in the profile timezone.
func (r *Resolver) Weekday(now time.Time) string {
	// time.Weekday is Sunday-based.
	idx := (int(now.In(r.Location()).Weekday()) + 6) % 7
	return DayNames[idx]
}

// DayBounds converts a local calendar date (YYYY-MM-DD) to the UTC [start,
// end) instant pair covering that day. Conversion happens per call, so DST
// transitions are handled by construction.
func (r *Resolver) DayBounds(dateStr string) (time.Time, time.Time) {
	loc := r.Location()
	day, err := time.ParseInLocation("2006-01-02", dateStr, loc)
	if err != nil {
		r.logger.Warnf("Malformed date %q for day bounds, using today", dateStr)
		now := time.Now().In(loc)
		day = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	}
	return day.UTC(), day.AddDate(0, 0, 1).UTC()
}

// get reads one setting, logging and swallowing store errors.
func (r *Resolver) get(ctx context.Context, profileID, key string) string {
	value, err := r.settings.Get(ctx, profileID, key)
	if err != nil {
		r.logger.WithError(err).Errorf("Setting lookup failed for %s/%s, treating as unset", profileID, key)
		return ""
	}
	return value
}

// Resolve returns the effective value of baseKey for the profile today.
// Lookup order: today's day-prefixed override, then the profile default,
// then (default profile only) the global layer. Returns "" when nothing is
// set; the literal "0" means explicitly disabled and is passed through.
func (r *Resolver) Resolve(ctx context.Context, profileID, baseKey string) string {
	return r.ResolveForDay(ctx, profileID, r.Weekday(time.Now()), baseKey)
}

// ResolveForDay is Resolve for an explicit day-name prefix.
func (r *Resolver) ResolveForDay(ctx context.Context, profileID, day, baseKey string) string {
	if v := r.get(ctx, profileID, day+"_"+baseKey); v != "" {
		return v
	}
	if v := r.get(ctx, profileID, baseKey); v != "" {
		return v
	}
	if profileID == models.DefaultProfileID {
		return r.get(ctx, "", baseKey)
	}
	return ""
}

// ResolveInt resolves baseKey and parses it as a non-negative integer.
// Unset or malformed values resolve to 0.
func (r *Resolver) ResolveInt(ctx context.Context, profileID, baseKey string) int {
	raw := r.Resolve(ctx, profileID, baseKey)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// BonusMinutes returns today's bonus allowance: daily_bonus_minutes counts
// only when daily_bonus_date equals the given local date.
func (r *Resolver) BonusMinutes(ctx context.Context, profileID, today string) int {
	if r.get(ctx, profileID, "daily_bonus_date") != today {
		return 0
	}
	raw := r.get(ctx, profileID, "daily_bonus_minutes")
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// ScheduleInfo evaluates the profile's access window at the given instant.
// Returns nil when no schedule is configured. When blocked past today's end
// time, the unlock display is refined to "tomorrow at <next start>" using
// the following day's resolved start.
func (r *Resolver) ScheduleInfo(ctx context.Context, profileID string, now time.Time) *Info {
	start := r.Resolve(ctx, profileID, "schedule_start")
	end := r.Resolve(ctx, profileID, "schedule_end")
	if start == "" && end == "" {
		return nil
	}

	local := now.In(r.Location())
	allowed, unlock := EvaluateWindow(start, end, local)

	if !allowed && end != "" {
		if endMin := minutesOfDay(end); endMin >= 0 && local.Hour()*60+local.Minute() >= endMin {
			if next := r.NextStartTime(ctx, profileID, now); next != "" {
				unlock = "tomorrow at " + next
			}
		}
	}

	info := &Info{Allowed: allowed, UnlockTime: unlock, Start: "midnight", End: "midnight"}
	if start != "" {
		info.Start = FormatTime12h(start)
	}
	if end != "" {
		info.End = FormatTime12h(end)
	}
	return info
}

// NextStartTime returns tomorrow's resolved schedule start, formatted for
// display, or "" when tomorrow has no start bound.
func (r *Resolver) NextStartTime(ctx context.Context, profileID string, now time.Time) string {
	today := r.Weekday(now)
	idx := 0
	for i, d := range DayNames {
		if d == today {
			idx = i
			break
		}
	}
	tomorrow := DayNames[(idx+1)%7]
	next := r.ResolveForDay(ctx, profileID, tomorrow, "schedule_start")
	if next == "" {
		return ""
	}
	return FormatTime12h(next)
}
