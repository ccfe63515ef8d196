package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/tubegate/tubegate/internal/cache"
	"github.com/tubegate/tubegate/internal/repository"
)

// FilterHandler handles the /filter command for the global title word filter.
type FilterHandler struct {
	filters  repository.WordFilterRepository
	catalogs *cache.Manager
	logger   *logrus.Logger
}

// NewFilterHandler creates a new FilterHandler.
func NewFilterHandler(filters repository.WordFilterRepository, catalogs *cache.Manager, logger *logrus.Logger) *FilterHandler {
	return &FilterHandler{filters: filters, catalogs: catalogs, logger: logger}
}

// Handle processes the /filter command.
func (h *FilterHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()

	if len(args) == 0 {
		words, err := h.filters.List(ctx)
		if err != nil {
			return fmt.Errorf("list word filters: %w", err)
		}
		if len(words) == 0 {
			return h.reply(bot, message, "🔤 *No blocked words.*\n\nAdd one with `/filter add <word>`")
		}
		return h.reply(bot, message, "🔤 *Blocked words:*\n\n"+strings.Join(words, ", "))
	}

	sub := strings.ToLower(args[0])
	rest := args[1:]
	if len(rest) == 0 {
		return h.reply(bot, message, "❌ Usage: `/filter add <word>` or `/filter remove <word>`")
	}
	word := strings.Join(rest, " ")

	switch sub {
	case "add":
		added, err := h.filters.Add(ctx, word)
		if err != nil {
			return fmt.Errorf("add word filter: %w", err)
		}
		if !added {
			return h.reply(bot, message, fmt.Sprintf("ℹ️ *%s* is already blocked.", word))
		}
		h.catalogs.InvalidateFilters()
		h.logger.WithField("word", word).Info("Word filter added")
		return h.reply(bot, message, fmt.Sprintf("✅ Videos with *%s* in the title are now hidden.", word))
	case "remove":
		removed, err := h.filters.Remove(ctx, word)
		if err != nil {
			return fmt.Errorf("remove word filter: %w", err)
		}
		if !removed {
			return h.reply(bot, message, fmt.Sprintf("❌ *%s* is not in the filter list.", word))
		}
		h.catalogs.InvalidateFilters()
		h.logger.WithField("word", word).Info("Word filter removed")
		return h.reply(bot, message, fmt.Sprintf("🗑 *%s* removed from the filter list.", word))
	default:
		return h.reply(bot, message, "❌ Usage: `/filter`, `/filter add <word>` or `/filter remove <word>`")
	}
}

func (h *FilterHandler) reply(bot *tgbotapi.BotAPI, message *tgbotapi.Message, text string) error {
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	bot.Send(msg)
	return nil
}
