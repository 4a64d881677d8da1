// Package notify define o Notifier — a porta de saída de mensagens.
// Os serviços só conhecem esta interface; o envio real via Telegram fica
// em TelegramNotifier. Todas as chamadas acontecem DEPOIS do commit das
// transações de negócio: uma falha de envio é registada no log e nunca
// reverte um estado já persistido.
package notify

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// MessageRef identifica uma mensagem publicada (chat + id), usada para
// editar a mensagem pública de uma rifa ou o aviso de reserva.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Notifier abstrai o envio de mensagens do bot.
type Notifier interface {
	// NotifyUser envia uma mensagem privada a um utilizador.
	NotifyUser(userID int64, text string) error
	// NotifyChannel publica num chat/canal e devolve a referência da mensagem.
	NotifyChannel(chatID int64, text string) (MessageRef, error)
	// EditMessage substitui o texto de uma mensagem já publicada.
	EditMessage(ref MessageRef, text string) error
}

// TelegramNotifier implementa Notifier sobre a API do Telegram.
type TelegramNotifier struct {
	api *tgbotapi.BotAPI
}

func NewTelegramNotifier(api *tgbotapi.BotAPI) *TelegramNotifier {
	return &TelegramNotifier{api: api}
}

func (n *TelegramNotifier) NotifyUser(userID int64, text string) error {
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := n.api.Send(msg); err != nil {
		// DMs fechadas ou utilizador bloqueou o bot — não é fatal
		log.WithError(err).WithField("user_id", userID).Debug("Falha ao enviar DM")
		return err
	}
	return nil
}

func (n *TelegramNotifier) NotifyChannel(chatID int64, text string) (MessageRef, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	sent, err := n.api.Send(msg)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Falha ao publicar no canal")
		return MessageRef{}, err
	}
	return MessageRef{ChatID: chatID, MessageID: sent.MessageID}, nil
}

func (n *TelegramNotifier) EditMessage(ref MessageRef, text string) error {
	edit := tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text)
	if _, err := n.api.Send(edit); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"chat_id":    ref.ChatID,
			"message_id": ref.MessageID,
		}).Warn("Falha ao editar mensagem (pode ter sido apagada)")
		return err
	}
	return nil
}
