// Package bot contém o módulo principal do bot: inicialização, polling e
// roteamento de comandos para os handlers de cada feature.
package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"rifa-bot/internal/bot/filters"
	"rifa-bot/internal/bot/middleware"
	"rifa-bot/internal/config"
	"rifa-bot/internal/features/purchase"
	"rifa-bot/internal/features/raffle"
	"rifa-bot/internal/features/users"
)

// Bot é a estrutura principal, reunindo todos os componentes.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	usersHandler    *users.Handler
	raffleHandler   *raffle.Handler
	purchaseHandler *purchase.Handler

	parser *CommandParser

	// limitador de paralelismo no processamento de updates
	inflight chan struct{}
}

// New cria o bot com todas as dependências.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	usersHandler *users.Handler,
	raffleHandler *raffle.Handler,
	purchaseHandler *purchase.Handler,
	chatFilter *filters.ChatFilter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:             api,
		cfg:             cfg,
		chatFilter:      chatFilter,
		rateLimiter:     middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		usersHandler:    usersHandler,
		raffleHandler:   raffleHandler,
		purchaseHandler: purchaseHandler,
		parser:          NewCommandParser(),
		inflight:        make(chan struct{}, maxInFlight),
	}
}

// Start inicia o polling de updates do Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Bot iniciado, aguardando mensagens...")

	b.receiveLoop(ctx, updates)
}

// receiveLoop consome o canal de updates até o contexto terminar ou o
// canal fechar. Nos dois caminhos o rate limiter é encerrado.
func (b *Bot) receiveLoop(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	defer b.rateLimiter.Close()

	for {
		select {
		case <-ctx.Done():
			log.Info("Bot encerrando (ctx done)...")
			b.api.StopReceivingUpdates()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Canal de updates fechado, bot encerrado")
				return
			}

			// limite de paralelismo
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate processa um update do Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	if update.Message == nil || update.Message.Text == "" {
		return
	}

	message := update.Message
	middleware.LogMessage(message)

	if !b.chatFilter.CheckAccess(message) {
		return
	}

	if !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	if !isCommand {
		// comprovantes de pagamento e conversa livre: sem resposta automática
		return
	}

	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debug("comando roteado")

	b.routeCommand(ctx, chatID, userID, cmd, args, message.Text)
}

// routeCommand direciona o comando ao handler certo. Comandos
// administrativos exigem que o user_id esteja em ADMIN_IDS.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, cmd string, args []string, fullText string) {
	switch cmd {
	case "start", "help", "ajuda":
		b.sendMessage(chatID, b.helpText(userID))

	case "cadastro":
		b.usersHandler.HandleCadastro(ctx, chatID, userID, args)

	case "meucodigo":
		b.usersHandler.HandleMeuCodigo(ctx, chatID, userID)

	case "comprar":
		b.purchaseHandler.HandleComprar(ctx, chatID, userID, args)

	case "meusbilhetes":
		b.purchaseHandler.HandleMeusBilhetes(ctx, chatID, userID)

	case "rifa_criar":
		if !b.requireAdmin(chatID, userID) {
			return
		}
		// preserva quebras de linha: os prémios extra vêm em linhas próprias
		b.raffleHandler.HandleRifaCriar(ctx, chatID, rawArgs(fullText))

	case "rifa_sortear":
		if !b.requireAdmin(chatID, userID) {
			return
		}
		b.raffleHandler.HandleRifaSortear(ctx, chatID, args)

	case "rifa_finalizar":
		if !b.requireAdmin(chatID, userID) {
			return
		}
		b.raffleHandler.HandleRifaFinalizar(ctx, chatID, args)

	case "rifa_cancelar":
		if !b.requireAdmin(chatID, userID) {
			return
		}
		b.raffleHandler.HandleRifaCancelar(ctx, chatID, args)

	case "rifa_purgar":
		if !b.requireAdmin(chatID, userID) {
			return
		}
		b.raffleHandler.HandleRifaPurgar(ctx, chatID, args)

	case "pendentes":
		if !b.requireAdmin(chatID, userID) {
			return
		}
		b.purchaseHandler.HandlePendentes(ctx, chatID)

	case "aprovar":
		if !b.requireAdmin(chatID, userID) {
			return
		}
		b.purchaseHandler.HandleAprovar(ctx, chatID, args)

	case "rejeitar":
		if !b.requireAdmin(chatID, userID) {
			return
		}
		b.purchaseHandler.HandleRejeitar(ctx, chatID, args)
	}
}

func (b *Bot) requireAdmin(chatID, userID int64) bool {
	if b.chatFilter.IsAdmin(userID) {
		return true
	}
	log.WithField("user_id", userID).Warn("Comando administrativo negado")
	b.sendMessage(chatID, "❌ Comando restrito à administração.")
	return false
}

func (b *Bot) helpText(userID int64) string {
	var sb strings.Builder
	sb.WriteString("🎟️ Bot de rifas! Comandos:\n\n")
	sb.WriteString("/cadastro Nome Completo; email — criar conta\n")
	sb.WriteString("/comprar <rifa> <qtd> [código] — comprar bilhetes\n")
	sb.WriteString("/meusbilhetes — ver seus bilhetes\n")
	sb.WriteString("/meucodigo — seu código de indicação\n")

	if b.chatFilter.IsAdmin(userID) {
		sb.WriteString("\n🔧 Administração:\n")
		sb.WriteString("/rifa_criar, /rifa_sortear, /rifa_finalizar, /rifa_cancelar, /rifa_purgar\n")
		sb.WriteString("/pendentes, /aprovar, /rejeitar\n")
	}
	return sb.String()
}

// sendMessage — utilitário de envio.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Erro ao enviar mensagem")
	}
}

// rawArgs devolve tudo depois do token do comando, com quebras de linha.
func rawArgs(text string) string {
	text = strings.TrimSpace(text)
	for _, prefix := range []string{"!", ".", "/"} {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			break
		}
	}
	if i := strings.IndexAny(text, " \n"); i >= 0 {
		return strings.TrimSpace(text[i+1:])
	}
	return ""
}

// CommandParser interpreta comandos com prefixos !, . e /.
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser cria o parser de comandos.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"!", ".", "/"},
	}
}

// ParseCommand separa o texto em comando e argumentos.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}

	if !hasPrefix {
		return "", nil, false
	}

	text = strings.TrimSpace(text)
	parts := strings.Fields(text)

	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}

	return command, args, true
}
