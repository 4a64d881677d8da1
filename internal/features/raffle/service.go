// Package raffle — service.go coordena a criação e o ciclo de vida das
// rifas. As notificações acontecem sempre DEPOIS do commit: uma falha de
// envio nunca desfaz um estado já persistido.
package raffle

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"rifa-bot/internal/common"
	"rifa-bot/internal/config"
	"rifa-bot/internal/db/postgres"
	"rifa-bot/internal/notify"
)

// Service gere as rifas.
type Service struct {
	repo     *Repository
	pool     *pgxpool.Pool
	notifier notify.Notifier
	cfg      *config.Config

	// math/rand.Rand não é seguro para uso concorrente;
	// o mutex cobre o shuffle da criação e os sorteios
	randMu sync.Mutex
	rng    *rand.Rand
}

func NewService(repo *Repository, pool *pgxpool.Pool, notifier notify.Notifier, cfg *config.Config) *Service {
	return &Service{
		repo:     repo,
		pool:     pool,
		notifier: notifier,
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GetByID devolve a rifa pelo id.
func (s *Service) GetByID(ctx context.Context, id int64) (*Rifa, error) {
	return s.repo.GetByID(ctx, id)
}

// Criar valida os parâmetros, persiste a rifa e os prémios instantâneos
// numa única transação e publica a mensagem pública de acompanhamento.
//
// Os números dos bilhetes premiados são sorteados embaralhando o espaço
// completo de bilhetes (Fisher–Yates) e consumindo os primeiros N — cada
// número premiado é distinto por construção.
func (s *Service) Criar(ctx context.Context, p CreateParams) (*Rifa, error) {
	if p.NomePremio == "" {
		return nil, fmt.Errorf("%w: nome do prémio vazio", common.ErrInvalidQuantity)
	}
	if p.PrecoBilhete <= 0 {
		return nil, fmt.Errorf("%w: o preço deve ser positivo", common.ErrInvalidQuantity)
	}
	if p.TotalBilhetes <= 0 {
		return nil, fmt.Errorf("%w: o total de bilhetes deve ser positivo", common.ErrInvalidQuantity)
	}

	totalPremios := 0
	for _, spec := range p.PremiosBilhete {
		totalPremios += spec.Qtd
	}
	if totalPremios > p.TotalBilhetes {
		return nil, common.ErrPrizePoolExhausted
	}

	var rifaID int64
	err := postgres.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		rifaID, err = s.repo.CreateTx(ctx, tx, p)
		if err != nil {
			return err
		}

		if totalPremios == 0 {
			return nil
		}

		padding := PaddingFor(p.TotalBilhetes)
		pool := s.shuffledPool(p.TotalBilhetes)

		idx := 0
		for _, spec := range p.PremiosBilhete {
			for i := 0; i < spec.Qtd; i++ {
				// Não deve acontecer — guardado acima — mas protege contra
				// specs inconsistentes.
				if idx >= len(pool) {
					return common.ErrPrizePoolExhausted
				}
				numero := FormatNumero(pool[idx], padding)
				idx++
				if err := s.repo.InsertInstantPrizeTx(ctx, tx, rifaID, numero, spec.Desc); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rifa, err := s.repo.GetByID(ctx, rifaID)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"rifa_id":         rifa.ID,
		"total_bilhetes":  rifa.TotalBilhetes,
		"metodo":          rifa.MetodoSorteio,
		"premios_bilhete": totalPremios,
	}).Info("Rifa criada")

	// Pós-commit: publica a mensagem de acompanhamento e guarda a referência
	ref, pubErr := s.notifier.NotifyChannel(s.cfg.RifaChannelID, BuildStatusMessage(rifa, 0))
	if pubErr != nil {
		log.WithError(pubErr).WithField("rifa_id", rifa.ID).Error("Falha ao publicar mensagem da rifa")
		return rifa, nil
	}
	if err := s.repo.UpdateMessageRef(ctx, rifa.ID, ref.ChatID, ref.MessageID); err != nil {
		log.WithError(err).WithField("rifa_id", rifa.ID).Error("Falha ao gravar referência da mensagem")
	}
	return rifa, nil
}

// Cancelar transiciona uma rifa ativa para cancelada e avisa os
// participantes. O cancelamento não estorna pagamentos automaticamente —
// os participantes são orientados a pedir o reembolso à administração.
func (s *Service) Cancelar(ctx context.Context, id int64, motivo string) (*Rifa, error) {
	rifa, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rifa.Status != StatusAtiva {
		return nil, fmt.Errorf("%w: rifa #%d está '%s'", common.ErrInvalidState, id, rifa.Status)
	}

	if err := s.repo.MarkCancelada(ctx, id); err != nil {
		return nil, err
	}
	rifa.Status = StatusCancelada

	log.WithFields(log.Fields{"rifa_id": id, "motivo": motivo}).Info("Rifa cancelada")

	// Pós-commit, melhor esforço
	s.editPublicMessage(ctx, rifa, BuildCancelledMessage(rifa, motivo))
	s.notifyParticipants(ctx, id, fmt.Sprintf(
		"❌ A rifa #%d (%s) foi cancelada.\nMotivo: %s\n\n"+
			"Para solicitar o reembolso dos seus bilhetes, fale com a administração.",
		rifa.ID, rifa.NomePremio, motivo))

	return rifa, nil
}

// Purgar apaga permanentemente uma rifa encerrada e todos os dados
// associados (compras, bilhetes e prémios, por cascata). Rifas ainda em
// andamento não podem ser purgadas.
func (s *Service) Purgar(ctx context.Context, id int64) (*Rifa, error) {
	rifa, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rifa.Status != StatusFinalizada && rifa.Status != StatusCancelada {
		return nil, fmt.Errorf("%w: rifa #%d ainda está '%s'", common.ErrInvalidState, id, rifa.Status)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	log.WithField("rifa_id", id).Info("Rifa e dados associados apagados")
	return rifa, nil
}

// UpdatePublicMessage recompõe e edita a mensagem pública da rifa.
// Se a edição falhar (mensagem apagada, p.ex.), publica uma nova e
// regrava a referência.
func (s *Service) UpdatePublicMessage(ctx context.Context, rifaID int64) {
	rifa, err := s.repo.GetByID(ctx, rifaID)
	if err != nil {
		log.WithError(err).WithField("rifa_id", rifaID).Error("Falha ao buscar rifa para atualizar mensagem")
		return
	}

	vendidos, err := s.repo.CountBilhetesVendidos(ctx, rifaID)
	if err != nil {
		log.WithError(err).WithField("rifa_id", rifaID).Error("Falha ao contar bilhetes vendidos")
		return
	}

	var text string
	if rifa.Status == StatusAguardandoSorteio && rifa.SorteioData != nil {
		text = BuildAwaitingDrawMessage(rifa, vendidos, *rifa.SorteioData)
	} else {
		text = BuildStatusMessage(rifa, vendidos)
	}
	s.editPublicMessage(ctx, rifa, text)
}

// CheckLotteryMetas percorre as rifas de loteria ativas e agenda o
// sorteio das que atingiram a meta de vendas. Chamado pelo scheduler.
func (s *Service) CheckLotteryMetas(ctx context.Context) error {
	rifas, err := s.repo.ListByStatusAndMetodo(ctx, StatusAtiva, MetodoLoteria)
	if err != nil {
		return err
	}
	if len(rifas) == 0 {
		log.Debug("Nenhuma rifa de loteria ativa")
		return nil
	}

	for _, rifa := range rifas {
		vendidos, err := s.repo.CountBilhetesVendidos(ctx, rifa.ID)
		if err != nil {
			log.WithError(err).WithField("rifa_id", rifa.ID).Error("Falha ao contar vendidos na verificação de meta")
			continue
		}

		meta := 1.0
		if rifa.MetaCompletude != nil {
			meta = *rifa.MetaCompletude
		}
		necessarios := float64(rifa.TotalBilhetes) * meta
		if float64(vendidos) < necessarios {
			continue
		}

		s.processMetaHit(ctx, rifa, vendidos)
	}
	return nil
}

// processMetaHit agenda o sorteio de uma rifa que bateu a meta.
func (s *Service) processMetaHit(ctx context.Context, rifa *Rifa, vendidos int) {
	sorteioData := NextDrawDate(common.SaoPauloNow())

	err := s.repo.MarkAguardandoSorteio(ctx, rifa.ID, sorteioData)
	if err != nil {
		if errors.Is(err, common.ErrInvalidState) {
			// outra execução já processou esta rifa
			return
		}
		log.WithError(err).WithField("rifa_id", rifa.ID).Error("Falha ao agendar sorteio")
		return
	}
	rifa.Status = StatusAguardandoSorteio
	rifa.SorteioData = &sorteioData

	log.WithFields(log.Fields{
		"rifa_id": rifa.ID,
		"data":    common.FormatDate(sorteioData),
	}).Info("Meta atingida, sorteio agendado")

	s.editPublicMessage(ctx, rifa, BuildAwaitingDrawMessage(rifa, vendidos, sorteioData))
	s.notifyParticipants(ctx, rifa.ID, fmt.Sprintf(
		"🗓️ Sorteio agendado! (Rifa #%d)\n"+
			"A rifa %s atingiu a meta de vendas!\n\n"+
			"O sorteio ocorrerá pela Loteria Federal no dia %s.\n"+
			"As vendas continuam. Boa sorte!",
		rifa.ID, rifa.NomePremio, common.FormatDate(sorteioData)))
}

// NextDrawDate devolve a data do próximo concurso da Loteria Federal
// (quarta ou sábado), sempre pelo menos um dia depois de now.
func NextDrawDate(now time.Time) time.Time {
	var daysToAdd int
	switch wd := now.Weekday(); {
	case wd < time.Wednesday:
		daysToAdd = int(time.Wednesday - wd)
	case wd < time.Saturday:
		daysToAdd = int(time.Saturday - wd)
	default: // sábado → próxima quarta
		daysToAdd = 4
	}
	return time.Date(now.Year(), now.Month(), now.Day()+daysToAdd, 0, 0, 0, 0, now.Location())
}

// shuffledPool devolve os índices [0, total) embaralhados.
func (s *Service) shuffledPool(total int) []int {
	pool := make([]int, total)
	for i := range pool {
		pool[i] = i
	}
	s.randMu.Lock()
	s.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	s.randMu.Unlock()
	return pool
}

// editPublicMessage edita a mensagem pública; se falhar, publica uma
// nova no canal configurado e regrava a referência.
func (s *Service) editPublicMessage(ctx context.Context, rifa *Rifa, text string) {
	if rifa.ChannelID != nil && rifa.MessageID != nil {
		ref := notify.MessageRef{ChatID: *rifa.ChannelID, MessageID: *rifa.MessageID}
		if err := s.notifier.EditMessage(ref, text); err == nil {
			return
		}
	}

	ref, err := s.notifier.NotifyChannel(s.cfg.RifaChannelID, text)
	if err != nil {
		log.WithError(err).WithField("rifa_id", rifa.ID).Error("Falha ao republicar mensagem da rifa")
		return
	}
	if err := s.repo.UpdateMessageRef(ctx, rifa.ID, ref.ChatID, ref.MessageID); err != nil {
		log.WithError(err).WithField("rifa_id", rifa.ID).Error("Falha ao regravar referência da mensagem")
	}
}

// notifyParticipants envia uma DM a cada participante com compra
// aprovada. Falhas individuais são logadas e não interrompem o restante.
func (s *Service) notifyParticipants(ctx context.Context, rifaID int64, text string) {
	participants, err := s.repo.GetParticipants(ctx, rifaID)
	if err != nil {
		log.WithError(err).WithField("rifa_id", rifaID).Error("Falha ao buscar participantes")
		return
	}
	for _, userID := range participants {
		if err := s.notifier.NotifyUser(userID, text); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"rifa_id": rifaID,
				"user_id": userID,
			}).Debug("Falha ao notificar participante")
		}
	}
}
