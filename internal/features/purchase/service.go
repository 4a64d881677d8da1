// Package purchase — service.go. A aprovação roda inteira numa transação
// serializável: releitura da compra, alocação dos números, prémios
// instantâneos e bónus de indicação entram ou saem juntos. Notificações
// e atualização da mensagem pública acontecem só depois do commit.
package purchase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"rifa-bot/internal/common"
	"rifa-bot/internal/config"
	"rifa-bot/internal/db/postgres"
	"rifa-bot/internal/features/payment"
	"rifa-bot/internal/features/raffle"
	"rifa-bot/internal/features/users"
	"rifa-bot/internal/notify"
)

// Service gere o ciclo de vida das compras.
type Service struct {
	repo     *Repository
	userSvc  *users.Service
	rafSvc   *raffle.Service
	pool     *pgxpool.Pool
	notifier notify.Notifier
	pix      *payment.Generator
	cfg      *config.Config

	randMu sync.Mutex
	rng    *rand.Rand
}

func NewService(repo *Repository, userSvc *users.Service, rafSvc *raffle.Service, pool *pgxpool.Pool, notifier notify.Notifier, pix *payment.Generator, cfg *config.Config) *Service {
	return &Service{
		repo:     repo,
		userSvc:  userSvc,
		rafSvc:   rafSvc,
		pool:     pool,
		notifier: notifier,
		pix:      pix,
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SubmitResult devolve ao handler o que ele precisa para responder ao
// comprador.
type SubmitResult struct {
	CompraID   int64
	RifaNome   string
	Quantidade int
	ValorTotal float64
	PixPayload string // vazio se a geração do código falhou
}

// Submit valida e registra um pedido de compra em análise, com o código
// PIX para pagamento. Os números NÃO são alocados aqui — isso só
// acontece na aprovação.
func (s *Service) Submit(ctx context.Context, userID, rifaID int64, quantidade int, codigoIndicacao string) (*SubmitResult, error) {
	if quantidade <= 0 {
		return nil, common.ErrInvalidQuantity
	}

	if _, err := s.userSvc.GetByUserID(ctx, userID); err != nil {
		return nil, err
	}

	rifa, err := s.rafSvc.GetByID(ctx, rifaID)
	if err != nil {
		return nil, err
	}
	if !rifa.AcceptsPurchases() {
		return nil, common.ErrRifaClosed
	}

	// Pré-checagem de capacidade: conta alocados + pendentes. É uma
	// cortesia ao comprador; a checagem que vale é a da aprovação.
	reservados, err := s.repo.CountReservados(ctx, rifaID)
	if err != nil {
		return nil, err
	}
	if reservados+quantidade > rifa.TotalBilhetes {
		return nil, common.ErrCapacityExceeded
	}

	var codigo *string
	if codigoIndicacao != "" {
		code := strings.ToUpper(strings.TrimSpace(codigoIndicacao))
		indicador, err := s.userSvc.GetByReferralCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if indicador.UserID == userID {
			return nil, common.ErrOwnReferralCode
		}
		codigo = &code
	}

	valorTotal := float64(quantidade) * rifa.PrecoBilhete
	compraID, err := s.repo.Create(ctx, rifaID, userID, quantidade, valorTotal, codigo)
	if err != nil {
		return nil, err
	}

	result := &SubmitResult{
		CompraID:   compraID,
		RifaNome:   rifa.NomePremio,
		Quantidade: quantidade,
		ValorTotal: valorTotal,
	}

	payload, err := s.pix.Generate(valorTotal, fmt.Sprintf("RIFA%dC%d", rifaID, compraID))
	if err != nil {
		// O pagamento ainda é possível pela chave crua; não bloqueia a compra
		log.WithError(err).WithField("compra_id", compraID).Warn("Falha ao gerar código PIX")
	} else {
		result.PixPayload = payload
	}

	log.WithFields(log.Fields{
		"compra_id": compraID,
		"rifa_id":   rifaID,
		"user_id":   userID,
		"qtd":       quantidade,
	}).Info("Compra registrada para análise")

	// Avisa os admins no canal de log; o comprovante chega por DM
	if _, err := s.notifier.NotifyChannel(s.cfg.LogChannelID, fmt.Sprintf(
		"🔔 Nova compra para análise: #%d\nRifa: %s | %d bilhete(s) | %s\nUse /aprovar %d ou /rejeitar %d <motivo>.",
		compraID, rifa.NomePremio, quantidade, common.FormatPrice(valorTotal), compraID, compraID)); err != nil {
		log.WithError(err).Debug("Falha ao avisar canal de log")
	}
	return result, nil
}

// RecordReservaRef guarda a mensagem de reserva do comprador para edição
// posterior.
func (s *Service) RecordReservaRef(ctx context.Context, compraID int64, ref notify.MessageRef) {
	if err := s.repo.UpdateReservaRef(ctx, compraID, ref.ChatID, ref.MessageID); err != nil {
		log.WithError(err).WithField("compra_id", compraID).Error("Falha ao gravar mensagem de reserva")
	}
}

// Approve aprova uma compra em análise: aloca números aleatórios
// distintos, resgata prémios instantâneos e concede o bónus de indicação
// quando aplicável — tudo numa única transação serializável. Conflitos de
// concorrência voltam como ErrConcurrencyConflict e podem ser repetidos.
func (s *Service) Approve(ctx context.Context, compraID int64) (*ApprovalResult, error) {
	var result *ApprovalResult

	err := postgres.WithSerializable(ctx, s.pool, s.cfg.ApprovalTxTimeout, s.cfg.LockTimeout, func(tx pgx.Tx) error {
		var err error
		result, err = s.approveTx(ctx, tx, compraID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"compra_id": compraID,
		"rifa_id":   result.RifaID,
		"numeros":   result.Numeros,
		"premios":   len(result.PremiosGanhos),
		"bonus":     result.BonusConcedido,
	}).Info("Compra aprovada")

	s.notifyApproval(ctx, result)
	s.rafSvc.UpdatePublicMessage(ctx, result.RifaID)
	return result, nil
}

// approveTx é o corpo transacional da aprovação.
func (s *Service) approveTx(ctx context.Context, tx pgx.Tx, compraID int64) (*ApprovalResult, error) {
	compra, rifa, err := s.repo.GetCompraTx(ctx, tx, compraID)
	if err != nil {
		return nil, err
	}
	if compra.Status != StatusEmAnalise {
		return nil, fmt.Errorf("%w: compra #%d está '%s'", common.ErrInvalidState, compraID, compra.Status)
	}
	if rifa.Status != raffle.StatusAtiva && rifa.Status != raffle.StatusAguardandoSorteio {
		return nil, common.ErrRifaClosed
	}

	vendidos, err := s.repo.GetSoldNumbersTx(ctx, tx, compra.RifaID)
	if err != nil {
		return nil, err
	}
	premiados, err := s.repo.GetPendingPrizeNumbersTx(ctx, tx, compra.RifaID)
	if err != nil {
		return nil, err
	}

	s.randMu.Lock()
	alocados, err := AllocateNumbers(s.rng, rifa.TotalBilhetes, compra.Quantidade, vendidos)
	s.randMu.Unlock()
	if err != nil {
		return nil, err
	}

	if err := s.repo.MarkCompraAprovadaTx(ctx, tx, compraID); err != nil {
		return nil, err
	}

	padding := raffle.PaddingFor(rifa.TotalBilhetes)
	numeros := make([]string, len(alocados))
	for i, n := range alocados {
		numeros[i] = raffle.FormatNumero(n, padding)
		vendidos[n] = true
	}
	if err := s.repo.InsertBilhetesTx(ctx, tx, compra.RifaID, compraID, numeros, false); err != nil {
		return nil, err
	}

	ganhos, err := s.repo.ClaimPrizesTx(ctx, tx, compra.RifaID, numeros, compra.UsuarioID)
	if err != nil {
		return nil, err
	}
	for _, g := range ganhos {
		n, convErr := parseNumero(g.NumeroBilhete)
		if convErr == nil {
			delete(premiados, n)
		}
	}

	result := &ApprovalResult{
		Compra:        compra,
		Numeros:       numeros,
		PremiosGanhos: ganhos,
		RifaID:        compra.RifaID,
		RifaNome:      rifa.NomePremio,
	}

	if err := s.applyReferralBonus(ctx, tx, compra, rifa, vendidos, premiados, padding, result); err != nil {
		return nil, err
	}
	return result, nil
}

// bonusElegivel decide se o indicador tem direito ao bilhete grátis:
// a compra atinge o valor mínimo e o indicador ainda não bateu o teto
// de bilhetes grátis nesta rifa.
func bonusElegivel(valorTotal, valorMinimo float64, gratis, tetoGratis int) bool {
	return valorTotal >= valorMinimo && gratis < tetoGratis
}

// applyReferralBonus concede um bilhete grátis ao indicador quando a
// compra usou um código de indicação e cumpre as regras: valor mínimo,
// teto de bilhetes grátis por rifa e existência de número livre que não
// tenha prémio instantâneo pendente.
func (s *Service) applyReferralBonus(ctx context.Context, tx pgx.Tx, compra *Compra, rifa *rifaInfo, vendidos, premiados map[int]bool, padding int, result *ApprovalResult) error {
	if compra.CodigoIndicacao == nil {
		return nil
	}

	// A leitura do indicador é fora da transação de propósito: o vínculo
	// código → utilizador é imutável
	indicador, err := s.userSvc.GetByReferralCode(ctx, *compra.CodigoIndicacao)
	if err != nil {
		if errors.Is(err, common.ErrIndicadorNotFound) {
			log.WithField("codigo", *compra.CodigoIndicacao).Warn("Código de indicação da compra não existe mais")
			return nil
		}
		return err
	}

	gratis, err := s.repo.CountFreeTicketsTx(ctx, tx, compra.RifaID, indicador.UserID)
	if err != nil {
		return err
	}
	if !bonusElegivel(compra.ValorTotal, s.cfg.ReferralMinPurchase, gratis, s.cfg.ReferralMaxFreeTickets) {
		return nil
	}

	s.randMu.Lock()
	bonusN := pickBonusNumber(s.rng, rifa.TotalBilhetes, vendidos, premiados)
	s.randMu.Unlock()
	if bonusN < 0 {
		// sem candidato livre; o bónus simplesmente não acontece
		return nil
	}

	bonusCompraID, err := s.repo.CreateBonusCompraTx(ctx, tx, compra.RifaID, indicador.UserID)
	if err != nil {
		return err
	}
	numero := raffle.FormatNumero(bonusN, padding)
	if err := s.repo.InsertBilhetesTx(ctx, tx, compra.RifaID, bonusCompraID, []string{numero}, true); err != nil {
		return err
	}
	vendidos[bonusN] = true

	result.BonusConcedido = true
	result.BonusIndicador = indicador.UserID
	result.BonusNumero = numero
	return nil
}

// Reject rejeita uma compra em análise e avisa o comprador.
func (s *Service) Reject(ctx context.Context, compraID int64, motivo string) (*Compra, error) {
	compra, err := s.repo.GetByID(ctx, compraID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.MarkRejeitada(ctx, compraID); err != nil {
		return nil, err
	}
	compra.Status = StatusRejeitada

	log.WithFields(log.Fields{"compra_id": compraID, "motivo": motivo}).Info("Compra rejeitada")

	text := fmt.Sprintf(
		"❌ Sua compra #%d foi rejeitada.\nMotivo: %s\n\n"+
			"Se acredita que houve um engano, fale com a administração.",
		compraID, motivo)
	s.editReserva(compra, text)
	if err := s.notifier.NotifyUser(compra.UsuarioID, text); err != nil {
		log.WithError(err).WithField("user_id", compra.UsuarioID).Debug("Falha ao notificar rejeição")
	}
	return compra, nil
}

// BatchOutcome relata o resultado de um item de operação em lote.
type BatchOutcome struct {
	CompraID int64
	Err      error
}

// ApproveBatch aprova várias compras em sequência. Cada compra tem a sua
// própria transação: a falha de uma não desfaz as demais.
func (s *Service) ApproveBatch(ctx context.Context, compraIDs []int64) []BatchOutcome {
	out := make([]BatchOutcome, 0, len(compraIDs))
	for _, id := range compraIDs {
		_, err := s.Approve(ctx, id)
		out = append(out, BatchOutcome{CompraID: id, Err: err})
	}
	return out
}

// RejectBatch rejeita várias compras em sequência.
func (s *Service) RejectBatch(ctx context.Context, compraIDs []int64, motivo string) []BatchOutcome {
	out := make([]BatchOutcome, 0, len(compraIDs))
	for _, id := range compraIDs {
		_, err := s.Reject(ctx, id, motivo)
		out = append(out, BatchOutcome{CompraID: id, Err: err})
	}
	return out
}

// ListPendentes expõe a listagem de compras em análise.
func (s *Service) ListPendentes(ctx context.Context, limit int) ([]PendenteInfo, error) {
	return s.repo.ListPendentes(ctx, limit)
}

// MeusBilhetes agrega os bilhetes do utilizador por rifa.
func (s *Service) MeusBilhetes(ctx context.Context, userID int64) ([]CompraResumo, error) {
	return s.repo.GetResumoByUser(ctx, userID)
}

// notifyApproval envia as DMs pós-aprovação e edita a mensagem de
// reserva. Tudo melhor esforço.
func (s *Service) notifyApproval(ctx context.Context, r *ApprovalResult) {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Compra #%d aprovada! (%s)\n\n", r.Compra.ID, r.RifaNome)
	fmt.Fprintf(&b, "Seus números: %s\n", common.JoinNumeros(r.Numeros))
	if len(r.PremiosGanhos) > 0 {
		b.WriteString("\n🎁 PARABÉNS! Você tirou bilhete(s) premiado(s):\n")
		for _, g := range r.PremiosGanhos {
			fmt.Fprintf(&b, "• %s — %s\n", g.NumeroBilhete, g.Descricao)
		}
		b.WriteString("A administração entrará em contacto para a entrega.\n")
	}
	b.WriteString("\nBoa sorte no sorteio! 🍀")
	text := b.String()

	s.editReserva(r.Compra, text)
	if err := s.notifier.NotifyUser(r.Compra.UsuarioID, text); err != nil {
		log.WithError(err).WithField("user_id", r.Compra.UsuarioID).Debug("Falha ao notificar aprovação")
	}

	if r.BonusConcedido {
		if err := s.notifier.NotifyUser(r.BonusIndicador, fmt.Sprintf(
			"🎁 Indicação premiada! Um amigo usou o seu código numa compra da rifa %s "+
				"e você ganhou o bilhete grátis %s. Boa sorte!",
			r.RifaNome, r.BonusNumero)); err != nil {
			log.WithError(err).WithField("user_id", r.BonusIndicador).Debug("Falha ao notificar indicador")
		}
	}
}

// editReserva atualiza a mensagem de reserva original do comprador.
func (s *Service) editReserva(compra *Compra, text string) {
	if compra.ReservaChatID == nil || compra.ReservaMessageID == nil {
		return
	}
	ref := notify.MessageRef{ChatID: *compra.ReservaChatID, MessageID: *compra.ReservaMessageID}
	if err := s.notifier.EditMessage(ref, text); err != nil {
		log.WithError(err).WithField("compra_id", compra.ID).Debug("Falha ao editar mensagem de reserva")
	}
}

func parseNumero(numero string) (int, error) {
	return strconv.Atoi(numero)
}
