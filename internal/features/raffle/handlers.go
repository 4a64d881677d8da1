// Package raffle — handlers.go responde aos comandos administrativos:
// /rifa_criar, /rifa_sortear, /rifa_finalizar, /rifa_cancelar,
// /rifa_purgar. A verificação de admin acontece no router, antes de
// chegar aqui.
package raffle

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
)

// Handler trata os comandos administrativos de rifa.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
	cfg     *config.Config
}

func NewHandler(service *Service, bot *tgbotapi.BotAPI, cfg *config.Config) *Handler {
	return &Handler{service: service, bot: bot, cfg: cfg}
}

const criarUsage = "Formato:\n" +
	"/rifa_criar Nome do Prémio; preço; total de bilhetes; método\n\n" +
	"Método: interno OU loteria:<meta %> (ex: loteria:75)\n" +
	"Linhas seguintes (opcionais):\n" +
	"TOP 1: descrição do prémio do maior comprador\n" +
	"BILHETE 5X: descrição do prémio instantâneo\n\n" +
	"Exemplo:\n" +
	"/rifa_criar PlayStation 5; 10,00; 1000; loteria:80\n" +
	"TOP 1: Fone bluetooth\n" +
	"BILHETE 10X: R$ 20 no PIX"

// HandleRifaCriar trata /rifa_criar. A primeira linha traz os campos
// separados por ponto-e-vírgula; as linhas seguintes, os prémios extra.
func (h *Handler) HandleRifaCriar(ctx context.Context, chatID int64, rawArgs string) {
	lines := strings.SplitN(strings.TrimSpace(rawArgs), "\n", 2)
	fields := strings.Split(lines[0], ";")
	if len(fields) != 4 {
		h.sendMessage(chatID, criarUsage)
		return
	}

	nome := strings.TrimSpace(fields[0])
	preco, err := parsePreco(strings.TrimSpace(fields[1]))
	if err != nil {
		h.sendMessage(chatID, "❌ Preço inválido. Use algo como 10,00.")
		return
	}
	total, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil || total <= 0 {
		h.sendMessage(chatID, "❌ Total de bilhetes inválido.")
		return
	}
	metodo, meta, err := ParseMetodo(strings.TrimSpace(fields[3]))
	if err != nil {
		h.sendMessage(chatID, "❌ Método inválido. Use 'interno' ou 'loteria:<meta %>' (ex: loteria:75).")
		return
	}

	params := CreateParams{
		NomePremio:     nome,
		PrecoBilhete:   preco,
		TotalBilhetes:  total,
		MetodoSorteio:  metodo,
		MetaCompletude: meta,
	}
	if len(lines) == 2 {
		topPremios, premiosBilhete, err := ParsePremiosSecundarios(lines[1], h.cfg.MaxInstantPrizesPerLine)
		if err != nil {
			h.sendMessage(chatID, fmt.Sprintf("❌ Prémios secundários inválidos: %v\n\n%s", err, criarUsage))
			return
		}
		params.TopPremios = topPremios
		params.PremiosBilhete = premiosBilhete
	}

	rifa, err := h.service.Criar(ctx, params)
	if err != nil {
		if errors.Is(err, common.ErrPrizePoolExhausted) {
			h.sendMessage(chatID, "❌ Há mais bilhetes premiados do que bilhetes na rifa.")
			return
		}
		log.WithError(err).Error("Erro ao criar rifa")
		h.sendMessage(chatID, fmt.Sprintf("❌ Erro ao criar a rifa: %v", err))
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"✅ Rifa #%d criada!\n"+
			"Prémio: %s\n"+
			"Bilhetes: %d (%s cada)\n"+
			"Método: %s\n"+
			"A mensagem pública foi publicada no canal.",
		rifa.ID, rifa.NomePremio, rifa.TotalBilhetes,
		common.FormatPrice(rifa.PrecoBilhete), metodoLabel(rifa.MetodoSorteio)))
}

// HandleRifaSortear trata /rifa_sortear <id> — sorteio interno.
func (h *Handler) HandleRifaSortear(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 {
		h.sendMessage(chatID, "Formato: /rifa_sortear <id da rifa>")
		return
	}
	rifaID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.sendMessage(chatID, "❌ ID de rifa inválido.")
		return
	}

	result, err := h.service.SortearInterno(ctx, rifaID)
	if err != nil {
		h.sendMessage(chatID, h.drawErrorText(rifaID, err))
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"🎉 Sorteio realizado! Rifa #%d\n"+
			"Bilhete vencedor: %s\n"+
			"Vencedor: %s",
		rifaID, result.Vencedor.NumeroBilhete, result.Vencedor.Nome))
}

// HandleRifaFinalizar trata /rifa_finalizar <id> <número da loteria>.
func (h *Handler) HandleRifaFinalizar(ctx context.Context, chatID int64, args []string) {
	if len(args) != 2 {
		h.sendMessage(chatID, "Formato: /rifa_finalizar <id da rifa> <número sorteado na loteria>")
		return
	}
	rifaID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.sendMessage(chatID, "❌ ID de rifa inválido.")
		return
	}

	result, err := h.service.FinalizarLoteria(ctx, rifaID, args[1])
	if err != nil {
		h.sendMessage(chatID, h.drawErrorText(rifaID, err))
		return
	}

	if result.Vencedor == nil {
		h.sendMessage(chatID, fmt.Sprintf(
			"ℹ️ Rifa #%d finalizada.\n"+
				"O bilhete mapeado (%s) não foi vendido — não houve vencedor.",
			rifaID, result.NumeroSorteado))
		return
	}
	h.sendMessage(chatID, fmt.Sprintf(
		"🎉 Rifa #%d finalizada!\n"+
			"Bilhete vencedor: %s\n"+
			"Vencedor: %s",
		rifaID, result.Vencedor.NumeroBilhete, result.Vencedor.Nome))
}

// HandleRifaCancelar trata /rifa_cancelar <id> <motivo>.
func (h *Handler) HandleRifaCancelar(ctx context.Context, chatID int64, args []string) {
	if len(args) < 2 {
		h.sendMessage(chatID, "Formato: /rifa_cancelar <id da rifa> <motivo>")
		return
	}
	rifaID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.sendMessage(chatID, "❌ ID de rifa inválido.")
		return
	}
	motivo := strings.Join(args[1:], " ")

	rifa, err := h.service.Cancelar(ctx, rifaID, motivo)
	if err != nil {
		h.sendMessage(chatID, h.drawErrorText(rifaID, err))
		return
	}
	h.sendMessage(chatID, fmt.Sprintf(
		"❌ Rifa #%d (%s) cancelada. Os participantes foram notificados.",
		rifa.ID, rifa.NomePremio))
}

// HandleRifaPurgar trata /rifa_purgar <id> confirmar. A palavra
// "confirmar" é obrigatória: o purge apaga compras, bilhetes e prémios
// sem volta.
func (h *Handler) HandleRifaPurgar(ctx context.Context, chatID int64, args []string) {
	if len(args) != 2 || !strings.EqualFold(args[1], "confirmar") {
		h.sendMessage(chatID, "Formato: /rifa_purgar <id da rifa> confirmar\n\n"+
			"⚠️ Apaga a rifa e TODOS os dados associados. Só funciona com rifas finalizadas ou canceladas.")
		return
	}
	rifaID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.sendMessage(chatID, "❌ ID de rifa inválido.")
		return
	}

	rifa, err := h.service.Purgar(ctx, rifaID)
	if err != nil {
		h.sendMessage(chatID, h.drawErrorText(rifaID, err))
		return
	}
	h.sendMessage(chatID, fmt.Sprintf(
		"🗑️ Rifa #%d (%s) e todos os dados associados foram apagados.",
		rifa.ID, rifa.NomePremio))
}

// drawErrorText traduz erros das operações de rifa para o admin.
func (h *Handler) drawErrorText(rifaID int64, err error) string {
	switch {
	case errors.Is(err, common.ErrRifaNotFound):
		return fmt.Sprintf("❌ Rifa #%d não encontrada.", rifaID)
	case errors.Is(err, common.ErrInvalidState):
		return fmt.Sprintf("❌ A rifa #%d não está num estado válido para essa operação: %v", rifaID, err)
	case errors.Is(err, common.ErrNoTicketsSold):
		return fmt.Sprintf("❌ A rifa #%d não tem bilhetes vendidos — não há o que sortear.", rifaID)
	case errors.Is(err, common.ErrInvalidDrawNumber):
		return "❌ Número da loteria inválido: informe apenas dígitos (ex: 012345)."
	default:
		log.WithError(err).WithField("rifa_id", rifaID).Error("Erro em operação de rifa")
		return "❌ Ocorreu um erro. Verifique os logs."
	}
}

// parsePreco aceita vírgula ou ponto como separador decimal.
func parsePreco(s string) (float64, error) {
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("preço inválido: %q", s)
	}
	return v, nil
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Erro ao enviar mensagem")
	}
}
