// Package purchase implementa o fluxo de compra de bilhetes: submissão
// com pagamento PIX, aprovação transacional com alocação aleatória de
// números, prémios instantâneos e bónus de indicação.
package purchase

import "time"

// Status de uma compra. Uma compra nasce em análise e termina aprovada ou
// rejeitada; os dois estados finais são permanentes.
const (
	StatusEmAnalise = "em_analise"
	StatusAprovada  = "aprovada"
	StatusRejeitada = "rejeitada"
)

// Compra é um pedido de bilhetes aguardando (ou já passado por) moderação.
type Compra struct {
	ID              int64   `db:"id"`
	RifaID          int64   `db:"rifa_id"`
	UsuarioID       int64   `db:"usuario_id"` // user_id do Telegram
	Quantidade      int     `db:"quantidade"`
	ValorTotal      float64 `db:"valor_total"`
	Status          string  `db:"status"`
	// Código de indicação usado na compra, se houver
	CodigoIndicacao *string `db:"codigo_indicacao"`
	// Compras de bónus de indicação são sintéticas: nascem já aprovadas
	IsBonus bool `db:"is_bonus"`
	// Referência da mensagem de reserva enviada ao comprador, para editar
	// quando a compra for decidida
	ReservaChatID    *int64 `db:"reserva_chat_id"`
	ReservaMessageID *int   `db:"reserva_message_id"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// Bilhete é um número alocado a uma compra aprovada. Bilhetes só existem
// para compras aprovadas — a aprovação insere-os na mesma transação.
type Bilhete struct {
	ID            int64  `db:"id"`
	RifaID        int64  `db:"rifa_id"`
	CompraID      int64  `db:"compra_id"`
	NumeroBilhete string `db:"numero_bilhete"`
	IsFree        bool   `db:"is_free"` // true para bónus de indicação
	CreatedAt     time.Time `db:"created_at"`
}

// PremioGanho descreve um prémio instantâneo resgatado na aprovação.
type PremioGanho struct {
	NumeroBilhete string
	Descricao     string
}

// ApprovalResult resume o desfecho de uma aprovação para as notificações
// pós-commit.
type ApprovalResult struct {
	Compra          *Compra
	Numeros         []string      // números alocados ao comprador
	PremiosGanhos   []PremioGanho // prémios instantâneos resgatados
	BonusConcedido  bool   // indicador recebeu bilhete grátis
	BonusIndicador  int64  // user_id do indicador (se BonusConcedido)
	BonusNumero     string // número do bilhete grátis
	RifaID          int64
	RifaNome        string
}

// CompraResumo agrega os bilhetes de um utilizador numa rifa, para
// /meusbilhetes.
type CompraResumo struct {
	RifaID     int64
	RifaNome   string
	RifaStatus string
	Numeros    []string
	Gratis     int
}

// PendenteInfo é a visão de uma compra pendente na listagem do admin.
type PendenteInfo struct {
	CompraID   int64
	RifaID     int64
	RifaNome   string
	UsuarioID  int64
	Nome       string
	Quantidade int
	ValorTotal float64
	CreatedAt  time.Time
}
