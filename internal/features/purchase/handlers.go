// Package purchase — handlers.go responde aos comandos de compra:
// /comprar e /meusbilhetes (compradores), /pendentes, /aprovar e
// /rejeitar (admins).
package purchase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"rifa-bot/internal/common"
	"rifa-bot/internal/config"
	"rifa-bot/internal/notify"
)

// Handler trata os comandos de compra.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
	cfg     *config.Config
}

func NewHandler(service *Service, bot *tgbotapi.BotAPI, cfg *config.Config) *Handler {
	return &Handler{service: service, bot: bot, cfg: cfg}
}

// HandleComprar trata /comprar <id da rifa> <quantidade> [código de
// indicação]. Responde com o resumo da reserva e o código PIX copia-e-cola.
func (h *Handler) HandleComprar(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 2 || len(args) > 3 {
		h.sendMessage(chatID, "Formato: /comprar <id da rifa> <quantidade> [código de indicação]\n\nExemplo: /comprar 3 5 MARIA-A1B2")
		return
	}
	rifaID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.sendMessage(chatID, "❌ ID de rifa inválido.")
		return
	}
	quantidade, err := strconv.Atoi(args[1])
	if err != nil || quantidade <= 0 {
		h.sendMessage(chatID, "❌ Quantidade inválida.")
		return
	}
	codigo := ""
	if len(args) == 3 {
		codigo = args[2]
	}

	result, err := h.service.Submit(ctx, userID, rifaID, quantidade, codigo)
	if err != nil {
		h.sendMessage(chatID, h.submitErrorText(err))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🎟️ Reserva registrada! Compra #%d\n", result.CompraID)
	fmt.Fprintf(&b, "Rifa: %s\n", result.RifaNome)
	fmt.Fprintf(&b, "Bilhetes: %d\n", result.Quantidade)
	fmt.Fprintf(&b, "Total: %s\n\n", common.FormatPrice(result.ValorTotal))
	if result.PixPayload != "" {
		b.WriteString("Pague com PIX copia-e-cola:\n")
		b.WriteString(result.PixPayload)
		b.WriteString("\n\n")
	} else {
		fmt.Fprintf(&b, "Pague via PIX para a chave: %s\n\n", h.cfg.PixKey)
	}
	b.WriteString("⚠️ Após o pagamento, envie o comprovante aqui mesmo. ")
	b.WriteString("Seus números serão sorteados quando a administração confirmar o pagamento.")

	msg := tgbotapi.NewMessage(chatID, b.String())
	sent, err := h.bot.Send(msg)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Erro ao enviar reserva")
		return
	}
	h.service.RecordReservaRef(ctx, result.CompraID, notify.MessageRef{ChatID: chatID, MessageID: sent.MessageID})
}

// HandleMeusBilhetes trata /meusbilhetes — lista os bilhetes do
// utilizador por rifa.
func (h *Handler) HandleMeusBilhetes(ctx context.Context, chatID, userID int64) {
	resumos, err := h.service.MeusBilhetes(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Erro ao buscar bilhetes")
		h.sendMessage(chatID, "❌ Ocorreu um erro ao buscar seus bilhetes. Tente novamente.")
		return
	}
	if len(resumos) == 0 {
		h.sendMessage(chatID, "Você ainda não tem bilhetes. Use /comprar para participar de uma rifa!")
		return
	}

	var b strings.Builder
	b.WriteString("🎫 Seus bilhetes:\n")
	for _, res := range resumos {
		fmt.Fprintf(&b, "\nRifa #%d — %s (%s)\n", res.RifaID, res.RifaNome, res.RifaStatus)
		fmt.Fprintf(&b, "%s: %s\n", common.FormatBilhetes(len(res.Numeros)), common.JoinNumeros(res.Numeros))
		if res.Gratis > 0 {
			fmt.Fprintf(&b, "(%d de bónus de indicação)\n", res.Gratis)
		}
	}
	h.sendMessage(chatID, b.String())
}

// HandlePendentes trata /pendentes — lista as compras aguardando análise.
func (h *Handler) HandlePendentes(ctx context.Context, chatID int64) {
	pendentes, err := h.service.ListPendentes(ctx, 30)
	if err != nil {
		log.WithError(err).Error("Erro ao listar pendentes")
		h.sendMessage(chatID, "❌ Erro ao listar compras pendentes.")
		return
	}
	if len(pendentes) == 0 {
		h.sendMessage(chatID, "✅ Nenhuma compra pendente de análise.")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 Compras pendentes (%d):\n\n", len(pendentes))
	for _, p := range pendentes {
		fmt.Fprintf(&b, "#%d — %s | rifa #%d (%s) | %d bilhete(s) | %s | %s\n",
			p.CompraID, p.Nome, p.RifaID, p.RifaNome, p.Quantidade,
			common.FormatPrice(p.ValorTotal), common.FormatDateTime(p.CreatedAt))
	}
	b.WriteString("\nUse /aprovar <ids> ou /rejeitar <ids> <motivo>.")
	h.sendMessage(chatID, b.String())
}

// HandleAprovar trata /aprovar <id> [id...] — aprova uma ou mais compras.
func (h *Handler) HandleAprovar(ctx context.Context, chatID int64, args []string) {
	ids, err := parseIDs(args)
	if err != nil {
		h.sendMessage(chatID, "Formato: /aprovar <id da compra> [outros ids...]")
		return
	}

	outcomes := h.service.ApproveBatch(ctx, ids)
	h.sendMessage(chatID, h.batchReport("Aprovação", outcomes))
}

// HandleRejeitar trata /rejeitar <id> [id...] <motivo>. O último
// argumento não numérico em diante é o motivo.
func (h *Handler) HandleRejeitar(ctx context.Context, chatID int64, args []string) {
	var ids []int64
	motivoIdx := -1
	for i, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			motivoIdx = i
			break
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 || motivoIdx < 0 {
		h.sendMessage(chatID, "Formato: /rejeitar <id da compra> [outros ids...] <motivo>")
		return
	}
	motivo := strings.Join(args[motivoIdx:], " ")

	outcomes := h.service.RejectBatch(ctx, ids, motivo)
	h.sendMessage(chatID, h.batchReport("Rejeição", outcomes))
}

func (h *Handler) batchReport(op string, outcomes []BatchOutcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s concluída:\n", op)
	for _, o := range outcomes {
		if o.Err == nil {
			fmt.Fprintf(&b, "✅ compra #%d\n", o.CompraID)
			continue
		}
		switch {
		case errors.Is(o.Err, common.ErrCompraNotFound):
			fmt.Fprintf(&b, "❌ compra #%d: não encontrada\n", o.CompraID)
		case errors.Is(o.Err, common.ErrInvalidState):
			fmt.Fprintf(&b, "❌ compra #%d: já foi decidida\n", o.CompraID)
		case errors.Is(o.Err, common.ErrCapacityExceeded):
			fmt.Fprintf(&b, "❌ compra #%d: não há bilhetes livres suficientes\n", o.CompraID)
		case errors.Is(o.Err, common.ErrRifaClosed):
			fmt.Fprintf(&b, "❌ compra #%d: a rifa não está mais ativa\n", o.CompraID)
		case errors.Is(o.Err, common.ErrConcurrencyConflict):
			fmt.Fprintf(&b, "⚠️ compra #%d: conflito de concorrência — tente de novo\n", o.CompraID)
		default:
			log.WithError(o.Err).WithField("compra_id", o.CompraID).Error("Erro em operação de compra")
			fmt.Fprintf(&b, "❌ compra #%d: erro interno\n", o.CompraID)
		}
	}
	return b.String()
}

func (h *Handler) submitErrorText(err error) string {
	switch {
	case errors.Is(err, common.ErrUsuarioNotFound):
		return "❌ Você precisa se cadastrar primeiro! Use /cadastro Nome Completo; email."
	case errors.Is(err, common.ErrRifaNotFound):
		return "❌ Rifa não encontrada. Confira o ID."
	case errors.Is(err, common.ErrRifaClosed):
		return "❌ Essa rifa não está mais aceitando compras."
	case errors.Is(err, common.ErrCapacityExceeded):
		return "❌ Não há bilhetes suficientes disponíveis nessa rifa."
	case errors.Is(err, common.ErrIndicadorNotFound):
		return "❌ Código de indicação não encontrado. Confira com quem indicou você."
	case errors.Is(err, common.ErrOwnReferralCode):
		return "❌ Você não pode usar o seu próprio código de indicação."
	case errors.Is(err, common.ErrInvalidQuantity):
		return "❌ Quantidade inválida."
	default:
		log.WithError(err).Error("Erro ao registrar compra")
		return "❌ Ocorreu um erro ao registrar a compra. Tente novamente."
	}
}

func parseIDs(args []string) ([]int64, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("sem ids")
	}
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Erro ao enviar mensagem")
	}
}
