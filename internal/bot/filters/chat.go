// Package filters decide quais mensagens o bot processa. Todo o fluxo de
// compra acontece por DM; o canal público serve só para as mensagens de
// acompanhamento publicadas pelo próprio bot.
package filters

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"rifa-bot/internal/config"
)

type ChatFilter struct {
	cfg *config.Config
	bot *tgbotapi.BotAPI
}

func NewChatFilter(cfg *config.Config, bot *tgbotapi.BotAPI) *ChatFilter {
	return &ChatFilter{cfg: cfg, bot: bot}
}

// CheckAccess devolve true quando a mensagem deve ser processada.
// Aceita apenas DMs; mensagens em grupos e canais são ignoradas
// silenciosamente (o bot só publica neles, nunca escuta).
func (f *ChatFilter) CheckAccess(message *tgbotapi.Message) bool {
	if message == nil || message.Chat == nil {
		log.WithField("component", "ChatFilter").Warn("mensagem/chat nil")
		return false
	}
	if message.From == nil {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Warn("message.From nil (mensagem de serviço/canal?)")
		return false
	}

	if message.Chat.IsPrivate() {
		return true
	}

	log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   message.Chat.ID,
		"chat_type": message.Chat.Type,
	}).Debug("ignorado: não é DM")
	return false
}

// IsAdmin verifica se o utilizador está na lista de administradores.
func (f *ChatFilter) IsAdmin(userID int64) bool {
	return f.cfg.IsAdmin(userID)
}
