// Package users — handlers.go responde aos comandos:
// /cadastro (registar), /meucodigo (ver código de indicação).
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"rifa-bot/internal/common"
	"rifa-bot/internal/config"
)

// Handler trata os comandos de utilizador.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
	cfg     *config.Config
}

func NewHandler(service *Service, bot *tgbotapi.BotAPI, cfg *config.Config) *Handler {
	return &Handler{service: service, bot: bot, cfg: cfg}
}

// welcomeText monta a mensagem de boas-vindas com as regras de
// indicação em vigor, para a mensagem nunca divergir da política.
func welcomeText(nome, code string, cfg *config.Config) string {
	return fmt.Sprintf(
		"🎉 Bem-vindo(a), %s! Seu cadastro foi concluído com sucesso.\n\n"+
			"Seu Código de Indicação pessoal (guarde-o!):\n%s\n\n"+
			"Se um amigo usá-lo numa compra acima de %s, você ganha um bilhete grátis (máximo de %d por rifa)!",
		nome, code, common.FormatPrice(cfg.ReferralMinPurchase), cfg.ReferralMaxFreeTickets)
}

// HandleCadastro trata /cadastro <nome completo>; <email>.
// O ponto-e-vírgula separa o nome (que pode ter espaços) do email.
//
// Exemplo: /cadastro Maria da Silva; maria@email.com
func (h *Handler) HandleCadastro(ctx context.Context, chatID, userID int64, args []string) {
	raw := strings.Join(args, " ")
	parts := strings.SplitN(raw, ";", 2)
	if len(parts) != 2 {
		h.sendMessage(chatID, "Formato: /cadastro Nome Completo; email@exemplo.com")
		return
	}
	nome := strings.TrimSpace(parts[0])
	email := strings.TrimSpace(parts[1])
	if nome == "" || email == "" {
		h.sendMessage(chatID, "Formato: /cadastro Nome Completo; email@exemplo.com")
		return
	}

	code, err := h.service.Register(ctx, userID, nome, email)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidName):
			h.sendMessage(chatID, "❌ Não consegui entender o nome. Formato: /cadastro Nome Completo; email@exemplo.com")
		case errors.Is(err, common.ErrInvalidEmail):
			h.sendMessage(chatID, "❌ Esse email não parece válido. Tente de novo (ex: nome@email.com).")
		case errors.Is(err, common.ErrAlreadyRegistered):
			// Conta antiga pode estar sem código — aproveita e garante um
			existing, codeErr := h.service.EnsureReferralCode(ctx, userID)
			if codeErr != nil {
				h.sendMessage(chatID, "Você já está cadastrado no sistema. ✅")
				return
			}
			h.sendMessage(chatID, fmt.Sprintf(
				"Você já está cadastrado! ✅\nSeu código de indicação é:\n%s", existing))
		default:
			log.WithError(err).WithField("user_id", userID).Error("Erro no cadastro")
			h.sendMessage(chatID, "❌ Ocorreu um erro ao finalizar seu cadastro. Tente novamente.")
		}
		return
	}

	h.sendMessage(chatID, welcomeText(nome, code, h.cfg))
}

// HandleMeuCodigo trata /meucodigo — mostra (e se preciso gera) o código
// de indicação do utilizador.
func (h *Handler) HandleMeuCodigo(ctx context.Context, chatID, userID int64) {
	code, err := h.service.EnsureReferralCode(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrUsuarioNotFound) {
			h.sendMessage(chatID, "❌ Você não está cadastrado! Use /cadastro primeiro.")
			return
		}
		log.WithError(err).WithField("user_id", userID).Error("Erro ao buscar código de indicação")
		h.sendMessage(chatID, "❌ Ocorreu um erro ao buscar o seu código. Tente novamente.")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"🎫 Seu Código de Indicação:\n%s\n\n"+
			"Compartilhe com seus amigos! Se eles o usarem ao comprar bilhetes, você pode ganhar bilhetes bónus.",
		code))
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Erro ao enviar mensagem")
	}
}
