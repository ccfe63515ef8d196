package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tubegate/tubegate/internal/cache"
	"github.com/tubegate/tubegate/internal/models"
	"github.com/tubegate/tubegate/internal/repository"
)

// ProfilesHandler handles the /profiles command: listing, creating and
// selecting child profiles.
type ProfilesHandler struct {
	profiles repository.ProfileRepository
	catalogs *cache.Manager
	session  *Session
	logger   *logrus.Logger
}

// NewProfilesHandler creates a new ProfilesHandler.
func NewProfilesHandler(profiles repository.ProfileRepository, catalogs *cache.Manager, session *Session, logger *logrus.Logger) *ProfilesHandler {
	return &ProfilesHandler{profiles: profiles, catalogs: catalogs, session: session, logger: logger}
}

// Handle processes the /profiles command.
func (h *ProfilesHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()

	if len(args) == 0 {
		return h.list(ctx, bot, message)
	}

	sub := strings.ToLower(args[0])
	rest := args[1:]
	switch sub {
	case "create":
		return h.create(ctx, bot, message, rest)
	case "use":
		return h.use(ctx, bot, message, rest)
	case "remove":
		return h.remove(ctx, bot, message, rest)
	default:
		return h.reply(bot, message, "❌ Usage: `/profiles`, `/profiles create <name>`, `/profiles use <name>` or `/profiles remove <name>`")
	}
}

func (h *ProfilesHandler) list(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message) error {
	profiles, err := h.profiles.List(ctx)
	if err != nil {
		return fmt.Errorf("list profiles: %w", err)
	}

	selected := h.session.ProfileFor(message.Chat.ID)

	var sb strings.Builder
	sb.WriteString("👧 *Profiles*\n\n")
	if len(profiles) == 0 {
		sb.WriteString("_Only the default profile exists._\n")
	}
	for _, p := range profiles {
		if p.ID == selected {
			sb.WriteString(fmt.Sprintf("▶️ *%s* (managing)\n", p.DisplayName))
		} else {
			sb.WriteString(fmt.Sprintf("• %s\n", p.DisplayName))
		}
	}
	sb.WriteString("\nSwitch with `/profiles use <name>`")
	return h.reply(bot, message, sb.String())
}

func (h *ProfilesHandler) create(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return h.reply(bot, message, "❌ Please provide a name.\nUsage: `/profiles create Emma`")
	}
	name := strings.Join(args, " ")

	profile := &models.Profile{
		ID:          uuid.NewString(),
		DisplayName: name,
	}
	profile, err := h.profiles.Create(ctx, profile)
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}

	h.session.Select(message.Chat.ID, profile.ID)
	h.logger.WithFields(logrus.Fields{
		"profile": profile.ID,
		"name":    name,
	}).Info("Profile created")
	return h.reply(bot, message, fmt.Sprintf("✅ Profile *%s* created and selected. Commands now manage this profile.", name))
}

func (h *ProfilesHandler) use(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return h.reply(bot, message, "❌ Please provide a name.\nUsage: `/profiles use Emma`")
	}
	name := strings.Join(args, " ")

	if strings.EqualFold(name, models.DefaultProfileID) {
		h.session.Select(message.Chat.ID, models.DefaultProfileID)
		return h.reply(bot, message, "✅ Now managing the *default* profile.")
	}

	profile, err := h.findByName(ctx, name)
	if err != nil {
		return err
	}
	if profile == nil {
		return h.reply(bot, message, fmt.Sprintf("❌ No profile named *%s*. See `/profiles`.", name))
	}

	h.session.Select(message.Chat.ID, profile.ID)
	return h.reply(bot, message, fmt.Sprintf("✅ Now managing *%s*.", profile.DisplayName))
}

func (h *ProfilesHandler) remove(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return h.reply(bot, message, "❌ Please provide a name.\nUsage: `/profiles remove Emma`")
	}
	name := strings.Join(args, " ")

	profile, err := h.findByName(ctx, name)
	if err != nil {
		return err
	}
	if profile == nil {
		return h.reply(bot, message, fmt.Sprintf("❌ No profile named *%s*.", name))
	}

	if err := h.profiles.Delete(ctx, profile.ID); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	h.catalogs.InvalidateChannels(profile.ID)
	if h.session.ProfileFor(message.Chat.ID) == profile.ID {
		h.session.Select(message.Chat.ID, models.DefaultProfileID)
	}

	h.logger.WithField("profile", profile.ID).Info("Profile deleted")
	return h.reply(bot, message, fmt.Sprintf("🗑 Profile *%s* and all its data removed.", profile.DisplayName))
}

func (h *ProfilesHandler) findByName(ctx context.Context, name string) (*models.Profile, error) {
	profiles, err := h.profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	for _, p := range profiles {
		if strings.EqualFold(p.DisplayName, name) {
			return p, nil
		}
	}
	return nil, nil
}

func (h *ProfilesHandler) reply(bot *tgbotapi.BotAPI, message *tgbotapi.Message, text string) error {
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	bot.Send(msg)
	return nil
}
