package raffle

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"

	log "github.com/sirupsen/logrus"

	"rifa-bot/internal/common"
)

var drawNumberRe = regexp.MustCompile(`^\d+$`)

// pickWinner escolhe uniformemente um dos bilhetes vendidos. Cada
// bilhete tem a mesma chance, então quem comprou mais bilhetes tem
// chance proporcional.
func pickWinner(rng *rand.Rand, vendidos []BilheteVendido) BilheteVendido {
	return vendidos[rng.Intn(len(vendidos))]
}

// DrawResult resume o desfecho de um sorteio.
type DrawResult struct {
	Rifa           *Rifa
	Vencedor       *Vencedor // nil quando o número da loteria não foi vendido
	NumeroSorteado string
	TopCompradores []TopComprador
}

// SortearInterno executa o sorteio interno de uma rifa ativa: escolhe
// uniformemente um dos bilhetes vendidos e finaliza a rifa. Sorteios
// internos sempre produzem um vencedor.
func (s *Service) SortearInterno(ctx context.Context, rifaID int64) (*DrawResult, error) {
	rifa, err := s.repo.GetByID(ctx, rifaID)
	if err != nil {
		return nil, err
	}
	if rifa.Status != StatusAtiva {
		return nil, fmt.Errorf("%w: rifa #%d está '%s'", common.ErrInvalidState, rifaID, rifa.Status)
	}
	if rifa.MetodoSorteio != MetodoInterno {
		return nil, fmt.Errorf("%w: rifa #%d usa sorteio pela loteria", common.ErrInvalidState, rifaID)
	}

	vendidos, err := s.repo.GetBilhetesAprovados(ctx, rifaID)
	if err != nil {
		return nil, err
	}
	if len(vendidos) == 0 {
		return nil, common.ErrNoTicketsSold
	}

	s.randMu.Lock()
	sorteado := pickWinner(s.rng, vendidos)
	s.randMu.Unlock()

	vencedor := &Vencedor{
		UserID:        sorteado.UserID,
		Nome:          sorteado.Nome,
		NumeroBilhete: sorteado.Numero,
	}
	if err := s.repo.Finalize(ctx, rifaID, StatusAtiva, vencedor); err != nil {
		return nil, err
	}
	rifa.Status = StatusFinalizada
	rifa.VencedorUserID = &vencedor.UserID
	rifa.NumeroVencedor = &vencedor.NumeroBilhete

	log.WithFields(log.Fields{
		"rifa_id": rifaID,
		"numero":  vencedor.NumeroBilhete,
		"user_id": vencedor.UserID,
	}).Info("Sorteio interno realizado")

	result := &DrawResult{Rifa: rifa, Vencedor: vencedor, NumeroSorteado: vencedor.NumeroBilhete}
	result.TopCompradores = s.topCompradores(ctx, rifaID)

	s.announceResult(ctx, result)
	return result, nil
}

// FinalizarLoteria finaliza uma rifa de loteria a partir do número
// sorteado no concurso da Loteria Federal. O bilhete vencedor são os
// últimos dígitos do número informado, na largura dos bilhetes da rifa.
// Se ninguém comprou esse bilhete, a rifa encerra sem vencedor.
func (s *Service) FinalizarLoteria(ctx context.Context, rifaID int64, numeroSorteado string) (*DrawResult, error) {
	rifa, err := s.repo.GetByID(ctx, rifaID)
	if err != nil {
		return nil, err
	}
	if rifa.Status != StatusAguardandoSorteio {
		return nil, fmt.Errorf("%w: rifa #%d está '%s'", common.ErrInvalidState, rifaID, rifa.Status)
	}
	if rifa.MetodoSorteio != MetodoLoteria {
		return nil, fmt.Errorf("%w: rifa #%d usa sorteio interno", common.ErrInvalidState, rifaID)
	}

	numeroVencedor, err := MapWinningNumber(numeroSorteado, rifa.TotalBilhetes)
	if err != nil {
		return nil, err
	}

	sorteado, err := s.repo.GetBilheteAprovado(ctx, rifaID, numeroVencedor)
	if err != nil {
		return nil, err
	}

	var vencedor *Vencedor
	if sorteado != nil {
		vencedor = &Vencedor{
			UserID:        sorteado.UserID,
			Nome:          sorteado.Nome,
			NumeroBilhete: sorteado.Numero,
		}
	}

	if err := s.repo.Finalize(ctx, rifaID, StatusAguardandoSorteio, vencedor); err != nil {
		return nil, err
	}
	rifa.Status = StatusFinalizada
	if vencedor != nil {
		rifa.VencedorUserID = &vencedor.UserID
		rifa.NumeroVencedor = &vencedor.NumeroBilhete
	}

	log.WithFields(log.Fields{
		"rifa_id":  rifaID,
		"sorteado": numeroSorteado,
		"numero":   numeroVencedor,
		"vendido":  vencedor != nil,
	}).Info("Rifa de loteria finalizada")

	result := &DrawResult{Rifa: rifa, Vencedor: vencedor, NumeroSorteado: numeroVencedor}
	result.TopCompradores = s.topCompradores(ctx, rifaID)

	s.announceResult(ctx, result)
	return result, nil
}

// MapWinningNumber extrai o bilhete vencedor do número da loteria:
// os últimos `len(totalBilhetes-1)` dígitos, preenchidos com zeros à
// esquerda quando o número sorteado é mais curto.
func MapWinningNumber(numeroSorteado string, totalBilhetes int) (string, error) {
	if !drawNumberRe.MatchString(numeroSorteado) {
		return "", fmt.Errorf("%w: %q", common.ErrInvalidDrawNumber, numeroSorteado)
	}
	padding := PaddingFor(totalBilhetes)
	if len(numeroSorteado) > padding {
		numeroSorteado = numeroSorteado[len(numeroSorteado)-padding:]
	}
	n, err := strconv.Atoi(numeroSorteado)
	if err != nil {
		return "", fmt.Errorf("%w: %q", common.ErrInvalidDrawNumber, numeroSorteado)
	}
	return FormatNumero(n, padding), nil
}

func (s *Service) topCompradores(ctx context.Context, rifaID int64) []TopComprador {
	top, err := s.repo.GetTopCompradores(ctx, rifaID, 3)
	if err != nil {
		log.WithError(err).WithField("rifa_id", rifaID).Error("Falha ao buscar maiores compradores")
		return nil
	}
	return top
}

// announceResult atualiza a mensagem pública e notifica os envolvidos.
// Tudo pós-commit, melhor esforço.
func (s *Service) announceResult(ctx context.Context, r *DrawResult) {
	var publicText string
	if r.Vencedor != nil {
		publicText = BuildWinnerMessage(r.Rifa, r.Vencedor, r.TopCompradores)
	} else {
		publicText = BuildNoWinnerMessage(r.Rifa, r.NumeroSorteado)
	}
	s.editPublicMessage(ctx, r.Rifa, publicText)

	if r.Vencedor != nil {
		if err := s.notifier.NotifyUser(r.Vencedor.UserID, fmt.Sprintf(
			"🏆 PARABÉNS! Você ganhou a rifa #%d!\n"+
				"Prémio: %s\n"+
				"Bilhete sorteado: %s\n\n"+
				"A administração entrará em contacto para a entrega.",
			r.Rifa.ID, r.Rifa.NomePremio, r.Vencedor.NumeroBilhete)); err != nil {
			log.WithError(err).WithField("user_id", r.Vencedor.UserID).Warn("Falha ao notificar vencedor")
		}
	}

	// Prémios de maior comprador, quando configurados
	for i, tc := range r.TopCompradores {
		pos := strconv.Itoa(i + 1)
		premio, ok := r.Rifa.TopCompradoresPremios[pos]
		if !ok {
			continue
		}
		if err := s.notifier.NotifyUser(tc.UserID, fmt.Sprintf(
			"🥇 Você ficou em %sº lugar entre os maiores compradores da rifa #%d (%s bilhetes)!\n"+
				"Prémio: %s\n\n"+
				"A administração entrará em contacto.",
			pos, r.Rifa.ID, strconv.Itoa(tc.Bilhetes), premio)); err != nil {
			log.WithError(err).WithField("user_id", tc.UserID).Debug("Falha ao notificar maior comprador")
		}
	}
}
