package handlers

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// StartHandler handles the /start command
type StartHandler struct {
	logger *logrus.Logger
}

// NewStartHandler creates a new StartHandler
func NewStartHandler(logger *logrus.Logger) *StartHandler {
	return &StartHandler{logger: logger}
}

// Handle processes the /start command
func (h *StartHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	text := `👋 *Welcome to TubeGate!*

I manage what your kids can watch and for how long.

• /channels — allow or block channels
• /time — daily limits and viewing hours
• /filter — block words in video titles
• /profiles — manage child profiles
• /help — full command reference`

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	bot.Send(msg)

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"user_id": message.From.ID,
	}).Info("Start command handled")

	return nil
}
