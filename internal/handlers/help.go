package handlers

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// HelpHandler handles the /help command
type HelpHandler struct {
	logger *logrus.Logger
}

// NewHelpHandler creates a new HelpHandler
func NewHelpHandler(logger *logrus.Logger) *HelpHandler {
	return &HelpHandler{logger: logger}
}

// Handle processes the /help command
func (h *HelpHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	text := `📖 *TubeGate Commands*

*Channels*
/channels — list channel rules
` + "`/channels allow <name or @handle>`" + ` — allowlist a channel
` + "`/channels block <name>`" + ` — block a channel
` + "`/channels remove <name>`" + ` — drop the rule
` + "`/channels category <name> edu|fun|clear`" + ` — set its budget bucket

*Time limits*
/time — show today's status
` + "`/time 90`" + ` — flat daily limit in minutes
` + "`/time edu 60`" + ` / ` + "`/time fun 30`" + ` — per-category limits
` + "`/time start 8:00am`" + ` / ` + "`/time stop 8:00pm`" + ` — viewing hours
` + "`/time mon stop 7:30pm`" + ` — override one weekday
` + "`/time add 30`" + ` — bonus minutes for today only
` + "`/time off`" + ` — remove all limits and hours

*Word filter*
/filter — list blocked words
` + "`/filter add <word>`" + ` / ` + "`/filter remove <word>`" + `

*Requests*
/pending — list open video requests
` + "`/approve <video id>`" + ` / ` + "`/deny <video id>`" + `

*Profiles*
/profiles — list profiles
` + "`/profiles create <name>`" + ` — add a child profile
` + "`/profiles use <name>`" + ` — switch which profile commands manage`

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	bot.Send(msg)

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"user_id": message.From.ID,
	}).Info("Help command handled")

	return nil
}
