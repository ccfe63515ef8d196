package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/tubegate/tubegate/internal/engine"
	"github.com/tubegate/tubegate/internal/models"
	"github.com/tubegate/tubegate/internal/repository"
	"github.com/tubegate/tubegate/internal/schedule"
)

// TimeHandler handles the /time command: daily limits, viewing hours,
// per-day overrides and bonus minutes for the chat's selected profile.
type TimeHandler struct {
	settings repository.SettingRepository
	engine   *engine.Engine
	session  *Session
	logger   *logrus.Logger
}

// NewTimeHandler creates a new TimeHandler.
func NewTimeHandler(settings repository.SettingRepository, eng *engine.Engine, session *Session, logger *logrus.Logger) *TimeHandler {
	return &TimeHandler{settings: settings, engine: eng, session: session, logger: logger}
}

// Handle processes the /time command.
func (h *TimeHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()
	profileID := h.session.ProfileFor(message.Chat.ID)

	if len(args) == 0 {
		return h.showStatus(ctx, bot, message, profileID)
	}

	// An optional leading weekday scopes the subcommand to that day only.
	day := ""
	sub := strings.ToLower(args[0])
	rest := args[1:]
	for _, d := range schedule.DayNames {
		if sub == d {
			day = d
			if len(rest) == 0 {
				return h.reply(bot, message, fmt.Sprintf("Usage: `/time %s start|stop|edu|fun|limit|off ...`", day))
			}
			sub = strings.ToLower(rest[0])
			rest = rest[1:]
			break
		}
	}

	switch {
	case sub == "start" || sub == "stop":
		return h.setSchedule(ctx, bot, message, profileID, day, sub, rest)
	case sub == "edu" || sub == "fun":
		return h.setCategoryLimit(ctx, bot, message, profileID, day, models.Category(sub), rest)
	case sub == "limit":
		return h.setFlatLimit(ctx, bot, message, profileID, day, rest)
	case sub == "add":
		return h.addBonus(ctx, bot, message, profileID, rest)
	case sub == "off":
		return h.clearAll(ctx, bot, message, profileID, day)
	default:
		// Bare number is shorthand for a flat limit.
		if _, err := strconv.Atoi(sub); err == nil {
			return h.setFlatLimit(ctx, bot, message, profileID, day, []string{sub})
		}
		return h.reply(bot, message, "❌ Unknown subcommand. Use `/time`, `/time 90`, `/time edu 60`, `/time start 8:00am`, `/time add 30` or `/time off`.")
	}
}

// prefixed applies the optional weekday scope to a base setting key.
func prefixed(day, baseKey string) string {
	if day == "" {
		return baseKey
	}
	return day + "_" + baseKey
}

func (h *TimeHandler) showStatus(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, profileID string) error {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⏱ *Time limits for %s*\n\n", profileID))

	budget := h.engine.Budget(ctx, profileID)
	switch {
	case budget == nil:
		sb.WriteString("No daily limit set.\n")
	case budget.Mode == models.BudgetModeSimple:
		f := budget.Flat
		sb.WriteString(fmt.Sprintf("Daily limit: %.0f of %d min used\n", f.UsedMin, f.EffectiveLimit))
	default:
		for _, cat := range []models.Category{models.CategoryEdu, models.CategoryFun} {
			b := budget.Categories[cat]
			if b.EffectiveLimit > 0 {
				sb.WriteString(fmt.Sprintf("%s: %.0f of %d min used\n", models.CategoryLabel(cat), b.UsedMin, b.EffectiveLimit))
			} else {
				sb.WriteString(fmt.Sprintf("%s: %.0f min used (no limit)\n", models.CategoryLabel(cat), b.UsedMin))
			}
		}
	}

	resolver := h.engine.Resolver()
	if info := resolver.ScheduleInfo(ctx, profileID, time.Now()); info != nil {
		sb.WriteString(fmt.Sprintf("\nViewing hours: %s – %s", info.Start, info.End))
		if !info.Allowed {
			sb.WriteString(" (currently closed)")
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("\nNo viewing hours set.\n")
	}

	if bonus := resolver.BonusMinutes(ctx, profileID, resolver.Today()); bonus > 0 {
		sb.WriteString(fmt.Sprintf("Bonus today: +%d min\n", bonus))
	}

	return h.reply(bot, message, sb.String())
}

func (h *TimeHandler) setFlatLimit(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, profileID, day string, args []string) error {
	if len(args) == 0 {
		return h.reply(bot, message, "❌ Please provide minutes.\nUsage: `/time 90`")
	}
	minutes, err := strconv.Atoi(args[0])
	if err != nil || minutes < 0 {
		return h.reply(bot, message, "❌ Minutes must be a non-negative number.")
	}

	if err := h.settings.Set(ctx, profileID, prefixed(day, "daily_limit_minutes"), strconv.Itoa(minutes)); err != nil {
		return fmt.Errorf("set flat limit: %w", err)
	}
	// Flat and per-category limits are mutually exclusive modes.
	for _, key := range []string{"edu_limit_minutes", "fun_limit_minutes"} {
		if err := h.settings.Set(ctx, profileID, prefixed(day, key), ""); err != nil {
			return fmt.Errorf("clear category limit: %w", err)
		}
	}

	h.logger.WithFields(logrus.Fields{
		"profile": profileID,
		"day":     day,
		"minutes": minutes,
	}).Info("Flat daily limit set")
	return h.reply(bot, message, fmt.Sprintf("✅ Daily limit set to *%d min*%s.", minutes, forDay(day)))
}

func (h *TimeHandler) setCategoryLimit(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, profileID, day string, cat models.Category, args []string) error {
	if len(args) == 0 {
		return h.reply(bot, message, fmt.Sprintf("❌ Please provide minutes.\nUsage: `/time %s 60`", cat))
	}
	minutes, err := strconv.Atoi(args[0])
	if err != nil || minutes < 0 {
		return h.reply(bot, message, "❌ Minutes must be a non-negative number.")
	}

	if err := h.settings.Set(ctx, profileID, prefixed(day, string(cat)+"_limit_minutes"), strconv.Itoa(minutes)); err != nil {
		return fmt.Errorf("set category limit: %w", err)
	}
	if err := h.settings.Set(ctx, profileID, prefixed(day, "daily_limit_minutes"), ""); err != nil {
		return fmt.Errorf("clear flat limit: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"profile":  profileID,
		"day":      day,
		"category": cat,
		"minutes":  minutes,
	}).Info("Category limit set")
	return h.reply(bot, message, fmt.Sprintf("✅ %s limit set to *%d min*%s.", models.CategoryLabel(cat), minutes, forDay(day)))
}

func (h *TimeHandler) setSchedule(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, profileID, day, sub string, args []string) error {
	key := "schedule_start"
	label := "start"
	if sub == "stop" {
		key = "schedule_end"
		label = "stop"
	}

	if len(args) == 0 {
		return h.reply(bot, message, fmt.Sprintf("❌ Please provide a time.\nUsage: `/time %s 8:00am` or `/time %s off`", label, label))
	}

	if strings.ToLower(args[0]) == "off" {
		if err := h.settings.Set(ctx, profileID, prefixed(day, key), ""); err != nil {
			return fmt.Errorf("clear schedule bound: %w", err)
		}
		return h.reply(bot, message, fmt.Sprintf("✅ Viewing %s time removed%s.", label, forDay(day)))
	}

	parsed := schedule.ParseTimeInput(args[0])
	if parsed == "" {
		return h.reply(bot, message, "❌ I couldn't read that time. Try `8:00am`, `8:30pm` or `20:00`.")
	}
	if err := h.settings.Set(ctx, profileID, prefixed(day, key), parsed); err != nil {
		return fmt.Errorf("set schedule bound: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"profile": profileID,
		"day":     day,
		"bound":   label,
		"time":    parsed,
	}).Info("Schedule bound set")
	return h.reply(bot, message, fmt.Sprintf("✅ Viewing %s set to *%s*%s.", label, schedule.FormatTime12h(parsed), forDay(day)))
}

func (h *TimeHandler) addBonus(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, profileID string, args []string) error {
	if len(args) == 0 {
		return h.reply(bot, message, "❌ Please provide minutes.\nUsage: `/time add 30`")
	}
	addMin, err := strconv.Atoi(args[0])
	if err != nil || addMin <= 0 {
		return h.reply(bot, message, "❌ Minutes must be a positive number.")
	}

	resolver := h.engine.Resolver()
	today := resolver.Today()

	// Bonus accumulates within the day and resets implicitly when the
	// stored date no longer matches.
	total := addMin + resolver.BonusMinutes(ctx, profileID, today)
	if err := h.settings.Set(ctx, profileID, "daily_bonus_date", today); err != nil {
		return fmt.Errorf("set bonus date: %w", err)
	}
	if err := h.settings.Set(ctx, profileID, "daily_bonus_minutes", strconv.Itoa(total)); err != nil {
		return fmt.Errorf("set bonus minutes: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"profile": profileID,
		"added":   addMin,
		"total":   total,
	}).Info("Bonus minutes added")
	return h.reply(bot, message, fmt.Sprintf("✅ Added *%d bonus min* for today (total bonus: %d min).", addMin, total))
}

func (h *TimeHandler) clearAll(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, profileID, day string) error {
	keys := []string{
		"daily_limit_minutes", "edu_limit_minutes", "fun_limit_minutes",
		"schedule_start", "schedule_end",
	}
	for _, key := range keys {
		if err := h.settings.Set(ctx, profileID, prefixed(day, key), ""); err != nil {
			return fmt.Errorf("clear setting: %w", err)
		}
	}

	h.logger.WithFields(logrus.Fields{
		"profile": profileID,
		"day":     day,
	}).Info("Time limits cleared")
	if day != "" {
		return h.reply(bot, message, fmt.Sprintf("✅ Overrides for *%s* removed.", day))
	}
	return h.reply(bot, message, "✅ All time limits and viewing hours removed.")
}

func forDay(day string) string {
	if day == "" {
		return ""
	}
	return " for " + day
}

func (h *TimeHandler) reply(bot *tgbotapi.BotAPI, message *tgbotapi.Message, text string) error {
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	bot.Send(msg)
	return nil
}
