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

// ApprovalHandler handles /approve, /deny and /pending for the chat's
// selected profile. One handler instance serves all three commands; the
// registered status tells it which way to decide.
type ApprovalHandler struct {
	videos   repository.VideoRepository
	catalogs *cache.Manager
	session  *Session
	status   models.VideoStatus
	logger   *logrus.Logger
}

// NewApproveHandler creates the /approve handler.
func NewApproveHandler(videos repository.VideoRepository, catalogs *cache.Manager, session *Session, logger *logrus.Logger) *ApprovalHandler {
	return &ApprovalHandler{videos: videos, catalogs: catalogs, session: session, status: models.VideoStatusApproved, logger: logger}
}

// NewDenyHandler creates the /deny handler.
func NewDenyHandler(videos repository.VideoRepository, catalogs *cache.Manager, session *Session, logger *logrus.Logger) *ApprovalHandler {
	return &ApprovalHandler{videos: videos, catalogs: catalogs, session: session, status: models.VideoStatusDenied, logger: logger}
}

// Handle processes an approval decision.
func (h *ApprovalHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return h.reply(bot, message, fmt.Sprintf("❌ Please provide a video id.\nUsage: `/%s <video id>`", h.verb()))
	}

	ctx := context.Background()
	profileID := h.session.ProfileFor(message.Chat.ID)
	videoID := args[0]

	video, err := h.videos.Get(ctx, profileID, videoID)
	if err != nil {
		return fmt.Errorf("look up video: %w", err)
	}
	if video == nil {
		return h.reply(bot, message, fmt.Sprintf("❌ No request found for `%s` on this profile.", videoID))
	}

	if err := h.videos.UpdateStatus(ctx, profileID, videoID, h.status); err != nil {
		return fmt.Errorf("update video status: %w", err)
	}
	h.catalogs.InvalidateCatalog(profileID)

	h.logger.WithFields(logrus.Fields{
		"profile":  profileID,
		"video_id": videoID,
		"status":   h.status,
	}).Info("Video request decided")

	if h.status == models.VideoStatusApproved {
		return h.reply(bot, message, fmt.Sprintf("✅ *%s* approved.", video.Title))
	}
	return h.reply(bot, message, fmt.Sprintf("🚫 *%s* denied.", video.Title))
}

func (h *ApprovalHandler) verb() string {
	if h.status == models.VideoStatusApproved {
		return "approve"
	}
	return "deny"
}

func (h *ApprovalHandler) reply(bot *tgbotapi.BotAPI, message *tgbotapi.Message, text string) error {
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	bot.Send(msg)
	return nil
}

// PendingHandler handles /pending, listing open video requests.
type PendingHandler struct {
	videos  repository.VideoRepository
	session *Session
	logger  *logrus.Logger
}

// NewPendingHandler creates a new PendingHandler.
func NewPendingHandler(videos repository.VideoRepository, session *Session, logger *logrus.Logger) *PendingHandler {
	return &PendingHandler{videos: videos, session: session, logger: logger}
}

// Handle processes the /pending command.
func (h *PendingHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()
	profileID := h.session.ProfileFor(message.Chat.ID)

	pending, err := h.videos.GetByStatus(ctx, profileID, models.VideoStatusPending, repository.VideoFilters{Limit: 20})
	if err != nil {
		return fmt.Errorf("list pending videos: %w", err)
	}
	if len(pending) == 0 {
		msg := tgbotapi.NewMessage(message.Chat.ID, "📭 *No pending requests.*")
		msg.ParseMode = tgbotapi.ModeMarkdown
		bot.Send(msg)
		return nil
	}

	var sb strings.Builder
	sb.WriteString("📬 *Pending requests*\n\n")
	for i, v := range pending {
		sb.WriteString(fmt.Sprintf("%d. *%s* _(%s)_\n   `/approve %s`  `/deny %s`\n", i+1, v.Title, v.ChannelName, v.VideoID, v.VideoID))
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, sb.String())
	msg.ParseMode = tgbotapi.ModeMarkdown
	bot.Send(msg)
	return nil
}
