// Package jobs gere as tarefas de fundo (cron).
// scheduler.go agenda a verificação diária das metas de venda das rifas
// de loteria.
package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"rifa-bot/internal/common"
	"rifa-bot/internal/features/raffle"
)

// Scheduler gere as tarefas de fundo.
type Scheduler struct {
	cron      *cron.Cron
	rafSvc    *raffle.Service
	checkSpec string
}

// NewScheduler cria o agendador com o fuso de São Paulo — as datas de
// sorteio da Loteria Federal são calculadas nesse fuso.
func NewScheduler(rafSvc *raffle.Service, checkSpec string) *Scheduler {
	c := cron.New(cron.WithLocation(common.SaoPauloLocation()))

	return &Scheduler{
		cron:      c,
		rafSvc:    rafSvc,
		checkSpec: checkSpec,
	}
}

// Start agenda e inicia as tarefas de fundo.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.checkSpec, func() {
		log.Info("[CRON] Verificando metas das rifas de loteria")
		if err := s.rafSvc.CheckLotteryMetas(ctx); err != nil {
			log.WithError(err).Error("[CRON] Erro na verificação de metas")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.WithField("spec", s.checkSpec).Info("Agendador de tarefas iniciado (America/Sao_Paulo)")
	return nil
}

// Stop para o agendador, aguardando as tarefas em andamento.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Agendador de tarefas parado")
}
