package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/tubegate/tubegate/internal/cache"
	"github.com/tubegate/tubegate/internal/models"
	"github.com/tubegate/tubegate/internal/repository"
)

// HandleResolver resolves @handles to channel names and ids.
type HandleResolver interface {
	ResolveHandle(ctx context.Context, handle string) (name, id string, err error)
}

// ChannelsHandler handles the /channels command: the allow/block lists and
// per-channel budget categories for the chat's selected profile.
type ChannelsHandler struct {
	channels repository.ChannelRepository
	catalogs *cache.Manager
	resolver HandleResolver
	session  *Session
	logger   *logrus.Logger
}

// NewChannelsHandler creates a new ChannelsHandler.
func NewChannelsHandler(channels repository.ChannelRepository, catalogs *cache.Manager, resolver HandleResolver, session *Session, logger *logrus.Logger) *ChannelsHandler {
	return &ChannelsHandler{channels: channels, catalogs: catalogs, resolver: resolver, session: session, logger: logger}
}

// Handle processes the /channels command.
func (h *ChannelsHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()
	profileID := h.session.ProfileFor(message.Chat.ID)

	if len(args) == 0 {
		return h.list(ctx, bot, message, profileID)
	}

	sub := strings.ToLower(args[0])
	rest := args[1:]
	switch sub {
	case "allow":
		return h.add(ctx, bot, message, profileID, models.ChannelStatusAllowed, rest)
	case "block":
		return h.add(ctx, bot, message, profileID, models.ChannelStatusBlocked, rest)
	case "remove":
		return h.remove(ctx, bot, message, profileID, rest)
	case "category":
		return h.setCategory(ctx, bot, message, profileID, rest)
	default:
		return h.reply(bot, message, "❌ Unknown subcommand. Use `/channels`, `/channels allow <name>`, `/channels block <name>`, `/channels remove <name>` or `/channels category <name> edu|fun|clear`.")
	}
}

func (h *ChannelsHandler) list(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, profileID string) error {
	allowed, err := h.channels.GetByStatus(ctx, profileID, models.ChannelStatusAllowed)
	if err != nil {
		return fmt.Errorf("list allowed channels: %w", err)
	}
	blocked, err := h.channels.GetByStatus(ctx, profileID, models.ChannelStatusBlocked)
	if err != nil {
		return fmt.Errorf("list blocked channels: %w", err)
	}

	if len(allowed) == 0 && len(blocked) == 0 {
		return h.reply(bot, message, "📺 *No channel rules yet.*\n\nAdd one with `/channels allow <name or @handle>`")
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📺 *Channels for %s*\n\n", profileID))
	if len(allowed) > 0 {
		sb.WriteString("*Allowed:*\n")
		for _, ch := range allowed {
			sb.WriteString("✅ " + ch.ChannelName)
			if ch.Category != "" {
				sb.WriteString(fmt.Sprintf(" _(%s)_", models.CategoryLabel(ch.Category)))
			}
			sb.WriteString("\n")
		}
	}
	if len(blocked) > 0 {
		sb.WriteString("\n*Blocked:*\n")
		for _, ch := range blocked {
			sb.WriteString("🚫 " + ch.ChannelName + "\n")
		}
	}
	return h.reply(bot, message, sb.String())
}

func (h *ChannelsHandler) add(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, profileID string, status models.ChannelStatus, args []string) error {
	if len(args) == 0 {
		return h.reply(bot, message, fmt.Sprintf("❌ Please provide a channel name.\nUsage: `/channels %s <name or @handle>`", statusVerb(status)))
	}

	name := strings.Join(args, " ")
	channel := &models.Channel{
		ProfileID:   profileID,
		ChannelName: name,
		Status:      status,
	}

	// @handles can be resolved to the canonical name and channel id right
	// away, which makes cache fetches cheaper and matching exact.
	if strings.HasPrefix(name, "@") {
		resolved, id, err := h.resolver.ResolveHandle(ctx, name)
		if err != nil {
			h.logger.WithError(err).Warnf("Handle resolution failed for %s, storing as-is", name)
		} else {
			channel.ChannelName = resolved
			channel.ChannelID = id
			channel.Handle = name
		}
	}

	channel, err := h.channels.Add(ctx, channel)
	if err != nil {
		return fmt.Errorf("add channel: %w", err)
	}
	h.catalogs.InvalidateChannels(profileID)

	h.logger.WithFields(logrus.Fields{
		"profile": profileID,
		"channel": channel.ChannelName,
		"status":  status,
	}).Info("Channel rule added")

	if status == models.ChannelStatusAllowed {
		return h.reply(bot, message, fmt.Sprintf("✅ *%s* is now allowed. Videos will appear after the next refresh.", channel.ChannelName))
	}
	return h.reply(bot, message, fmt.Sprintf("🚫 *%s* is now blocked.", channel.ChannelName))
}

func (h *ChannelsHandler) remove(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, profileID string, args []string) error {
	if len(args) == 0 {
		return h.reply(bot, message, "❌ Please provide a channel name.\nUsage: `/channels remove <name>`")
	}
	name := strings.Join(args, " ")
	if err := h.channels.Remove(ctx, profileID, name); err != nil {
		return h.reply(bot, message, fmt.Sprintf("❌ No rule found for *%s*.", name))
	}
	h.catalogs.InvalidateChannels(profileID)

	h.logger.WithFields(logrus.Fields{
		"profile": profileID,
		"channel": name,
	}).Info("Channel rule removed")
	return h.reply(bot, message, fmt.Sprintf("🗑 Rule for *%s* removed.", name))
}

func (h *ChannelsHandler) setCategory(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, profileID string, args []string) error {
	if len(args) < 2 {
		return h.reply(bot, message, "❌ Usage: `/channels category <name> edu|fun|clear`")
	}

	catArg := strings.ToLower(args[len(args)-1])
	name := strings.Join(args[:len(args)-1], " ")

	var cat models.Category
	switch catArg {
	case "edu", "fun":
		cat = models.Category(catArg)
	case "clear":
		cat = ""
	default:
		return h.reply(bot, message, "❌ Category must be `edu`, `fun` or `clear`.")
	}

	if err := h.channels.SetCategory(ctx, profileID, name, cat); err != nil {
		return h.reply(bot, message, fmt.Sprintf("❌ No rule found for *%s*.", name))
	}
	h.catalogs.InvalidateChannels(profileID)

	h.logger.WithFields(logrus.Fields{
		"profile":  profileID,
		"channel":  name,
		"category": catArg,
	}).Info("Channel category set")

	if cat == "" {
		return h.reply(bot, message, fmt.Sprintf("✅ Category cleared for *%s*.", name))
	}
	return h.reply(bot, message, fmt.Sprintf("✅ *%s* now counts as %s.", name, models.CategoryLabel(cat)))
}

func statusVerb(status models.ChannelStatus) string {
	if status == models.ChannelStatusAllowed {
		return "allow"
	}
	return "block"
}

func (h *ChannelsHandler) reply(bot *tgbotapi.BotAPI, message *tgbotapi.Message, text string) error {
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	bot.Send(msg)
	return nil
}
