package telegram

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tubegate/tubegate/internal/models"
	"github.com/tubegate/tubegate/internal/repository"
	"github.com/tubegate/tubegate/internal/schedule"
)

// Notifier pushes parental events to the admin chat: exhausted watch-time
// buckets and new video requests.
type Notifier struct {
	bot         *Bot
	adminChatID int64
	profiles    repository.ProfileRepository
	resolver    *schedule.Resolver
	logger      *logrus.Logger

	mu   sync.Mutex
	sent map[string]string // "profile|category" -> date announced
}

// NewNotifier creates a Notifier.
func NewNotifier(bot *Bot, adminChatID int64, profiles repository.ProfileRepository, resolver *schedule.Resolver, logger *logrus.Logger) *Notifier {
	return &Notifier{
		bot:         bot,
		adminChatID: adminChatID,
		profiles:    profiles,
		resolver:    resolver,
		logger:      logger,
		sent:        make(map[string]string),
	}
}

// NotifyLimit announces an exhausted bucket. category is empty in flat-limit
// mode. Heartbeats keep firing after the limit is hit, so each
// (profile, category) pair is announced at most once per local day.
// It satisfies the gating engine's notifier callback.
func (n *Notifier) NotifyLimit(profileID string, category models.Category, usedMin float64, limitMin int) {
	if n.adminChatID == 0 {
		return
	}

	today := n.resolver.Today()
	key := profileID + "|" + string(category)

	n.mu.Lock()
	if n.sent[key] == today {
		n.mu.Unlock()
		return
	}
	n.sent[key] = today
	n.mu.Unlock()

	name := n.displayName(profileID)

	var text string
	if category == "" {
		text = fmt.Sprintf("⏰ *%s* reached the daily watch limit (%.0f of %d min).", name, usedMin, limitMin)
	} else {
		text = fmt.Sprintf("⏰ *%s* reached the daily *%s* limit (%.0f of %d min).", name, models.CategoryLabel(category), usedMin, limitMin)
	}

	if err := n.bot.SendMessage(n.adminChatID, text); err != nil {
		n.logger.WithError(err).Error("Failed to send limit notification")
	}
}

// NotifyRequest announces a new video request with the commands to act on it.
func (n *Notifier) NotifyRequest(profileID, videoID, title, channelName string) {
	if n.adminChatID == 0 {
		return
	}

	text := fmt.Sprintf(
		"🙋 *%s* wants to watch:\n\n*%s*\n_%s_\n\nApprove with `/approve %s` or deny with `/deny %s`.",
		n.displayName(profileID), title, channelName, videoID, videoID,
	)
	if err := n.bot.SendMessage(n.adminChatID, text); err != nil {
		n.logger.WithError(err).Error("Failed to send request notification")
	}
}

func (n *Notifier) displayName(profileID string) string {
	if profile, err := n.profiles.GetByID(context.Background(), profileID); err == nil && profile != nil {
		return profile.DisplayName
	}
	return profileID
}
