// Package raffle implementa as rifas: criação com prémios instantâneos,
// ciclo de vida (ativa → aguardando_sorteio → finalizada / cancelada),
// os dois métodos de sorteio e a mensagem pública de acompanhamento.
// models.go descreve as estruturas das tabelas rifas e premios_instantaneos.
package raffle

import (
	"fmt"
	"time"
)

// Status de uma rifa. O estado só anda para a frente:
// ativa → aguardando_sorteio → finalizada, ou ativa → cancelada.
const (
	StatusAtiva             = "ativa"
	StatusAguardandoSorteio = "aguardando_sorteio"
	StatusFinalizada        = "finalizada"
	StatusCancelada         = "cancelada"
)

// Métodos de sorteio.
const (
	// MetodoInterno — o próprio bot sorteia um bilhete aprovado ao acaso.
	MetodoInterno = "interno"
	// MetodoLoteria — o vencedor vem do número da Loteria Federal,
	// mapeado nos últimos dígitos para o espaço de bilhetes da rifa.
	MetodoLoteria = "loteria"
)

// Status de um prémio instantâneo.
const (
	PrizePendente     = "pendente"
	PrizeReivindicado = "reivindicado"
)

// Rifa representa uma rifa na base de dados.
type Rifa struct {
	ID            int64   `db:"id"`
	NomePremio    string  `db:"nome_premio"`
	TotalBilhetes int     `db:"total_bilhetes"` // N, fixo na criação; sempre > 0
	Status        string  `db:"status"`
	MetodoSorteio string  `db:"metodo_sorteio"`
	// Fração de vendas (0–1) que agenda o sorteio; só para método loteria
	MetaCompletude *float64 `db:"meta_completude"`
	PrecoBilhete   float64  `db:"preco_bilhete"`
	// Data agendada do sorteio da loteria; definida quando a meta é atingida
	SorteioData *time.Time `db:"sorteio_data"`
	// Prémios para os maiores compradores (posição 1..3 → descrição)
	TopCompradoresCount   int               `db:"top_compradores_count"`
	TopCompradoresPremios map[string]string `db:"top_compradores_premios"` // JSONB
	// Referência da mensagem pública de acompanhamento
	ChannelID *int64 `db:"channel_id"`
	MessageID *int   `db:"message_id"`
	// Vencedor (preenchido na finalização, se o bilhete tiver dono)
	VencedorUserID *int64  `db:"vencedor_user_id"`
	NumeroVencedor *string `db:"numero_vencedor"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Padding devolve a largura fixa dos números de bilhete desta rifa:
// o número de dígitos de TotalBilhetes-1. Com 100 bilhetes os números
// vão de "00" a "99"; com 1000, de "000" a "999".
func (r *Rifa) Padding() int {
	return PaddingFor(r.TotalBilhetes)
}

// AcceptsPurchases indica se a rifa ainda aceita novas compras.
// Rifas aguardando sorteio continuam vendendo até o dia do sorteio.
func (r *Rifa) AcceptsPurchases() bool {
	return r.Status == StatusAtiva || r.Status == StatusAguardandoSorteio
}

// PaddingFor calcula a largura de número para um total de bilhetes.
func PaddingFor(totalBilhetes int) int {
	return len(fmt.Sprintf("%d", totalBilhetes-1))
}

// FormatNumero formata um índice de bilhete como string com zeros à
// esquerda. FormatNumero(7, 3) → "007".
func FormatNumero(n, padding int) string {
	return fmt.Sprintf("%0*d", padding, n)
}

// InstantPrize é um bilhete premiado: um número pré-sorteado na criação da
// rifa que, se for alocado a um comprador, entrega um prémio na hora.
type InstantPrize struct {
	ID              int64   `db:"id"`
	RifaID          int64   `db:"rifa_id"`
	NumeroBilhete   string  `db:"numero_bilhete"`
	DescricaoPremio string  `db:"descricao_premio"`
	Status          string  `db:"status"` // pendente → reivindicado (uma única vez)
	VencedorUserID  *int64  `db:"vencedor_user_id"`
	CreatedAt       time.Time `db:"created_at"`
}

// Vencedor descreve o ganhador de um sorteio.
type Vencedor struct {
	UserID        int64
	Nome          string
	NumeroBilhete string
}

// BilheteVendido é a visão mínima de um bilhete aprovado usada no sorteio
// interno: número + dono.
type BilheteVendido struct {
	Numero string
	UserID int64
	Nome   string
}

// PrizeSpec é uma linha de prémio instantâneo pedida na criação:
// Qtd bilhetes premiados com a mesma descrição.
type PrizeSpec struct {
	Qtd  int
	Desc string
}

// CreateParams reúne os dados validados para criar uma rifa.
type CreateParams struct {
	NomePremio     string
	PrecoBilhete   float64
	TotalBilhetes  int
	MetodoSorteio  string
	MetaCompletude *float64 // obrigatório para loteria, nil para interno
	TopPremios     map[string]string
	PremiosBilhete []PrizeSpec
}
