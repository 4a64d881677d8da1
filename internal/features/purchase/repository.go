// Package purchase — repository.go. As funções *Tx operam dentro da
// transação serializável de aprovação; as restantes usam o pool direto.
package purchase

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rifa-bot/internal/common"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const compraColumns = `
	id, rifa_id, usuario_id, quantidade, valor_total, status, codigo_indicacao,
	is_bonus, reserva_chat_id, reserva_message_id, created_at, updated_at
`

// rifaInfo é a visão mínima da rifa usada dentro da transação de
// aprovação. Evita depender do pacote raffle pelo caminho inverso.
type rifaInfo struct {
	ID            int64
	NomePremio    string
	TotalBilhetes int
	Status        string
	PrecoBilhete  float64
}

// Create insere uma compra em análise e devolve o id.
func (r *Repository) Create(ctx context.Context, rifaID, usuarioID int64, quantidade int, valorTotal float64, codigoIndicacao *string) (int64, error) {
	query := `
		INSERT INTO compras (rifa_id, usuario_id, quantidade, valor_total, status, codigo_indicacao)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRow(ctx, query, rifaID, usuarioID, quantidade, valorTotal, StatusEmAnalise, codigoIndicacao).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("erro ao criar compra: %w", err)
	}
	return id, nil
}

// UpdateReservaRef grava a referência da mensagem de reserva enviada ao
// comprador, para edição quando a compra for decidida.
func (r *Repository) UpdateReservaRef(ctx context.Context, compraID, chatID int64, messageID int) error {
	query := `UPDATE compras SET reserva_chat_id = $2, reserva_message_id = $3, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, compraID, chatID, messageID); err != nil {
		return fmt.Errorf("erro ao gravar referência da reserva: %w", err)
	}
	return nil
}

// GetByID busca uma compra pelo id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Compra, error) {
	query := `SELECT ` + compraColumns + ` FROM compras WHERE id = $1`
	return scanCompra(r.db.QueryRow(ctx, query, id))
}

// GetCompraTx busca a compra e a rifa associada dentro da transação de
// aprovação.
func (r *Repository) GetCompraTx(ctx context.Context, tx pgx.Tx, compraID int64) (*Compra, *rifaInfo, error) {
	query := `SELECT ` + compraColumns + ` FROM compras WHERE id = $1`
	compra, err := scanCompra(tx.QueryRow(ctx, query, compraID))
	if err != nil {
		return nil, nil, err
	}

	var rifa rifaInfo
	err = tx.QueryRow(ctx,
		`SELECT id, nome_premio, total_bilhetes, status, preco_bilhete FROM rifas WHERE id = $1`,
		compra.RifaID,
	).Scan(&rifa.ID, &rifa.NomePremio, &rifa.TotalBilhetes, &rifa.Status, &rifa.PrecoBilhete)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, common.ErrRifaNotFound
		}
		return nil, nil, fmt.Errorf("erro ao buscar rifa da compra: %w", err)
	}
	return compra, &rifa, nil
}

// GetSoldNumbersTx devolve o conjunto de todos os números já alocados na
// rifa, como índices inteiros. Bilhetes só existem para compras
// aprovadas, então a tabela bilhetes é a fonte completa.
func (r *Repository) GetSoldNumbersTx(ctx context.Context, tx pgx.Tx, rifaID int64) (map[int]bool, error) {
	rows, err := tx.Query(ctx, `SELECT numero_bilhete FROM bilhetes WHERE rifa_id = $1`, rifaID)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar números vendidos: %w", err)
	}
	defer rows.Close()

	vendidos := make(map[int]bool)
	for rows.Next() {
		var numero string
		if err := rows.Scan(&numero); err != nil {
			return nil, fmt.Errorf("erro ao ler número vendido: %w", err)
		}
		n, err := strconv.Atoi(numero)
		if err != nil {
			return nil, fmt.Errorf("número de bilhete corrompido %q: %w", numero, err)
		}
		vendidos[n] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao ler números vendidos: %w", err)
	}
	return vendidos, nil
}

// GetPendingPrizeNumbersTx devolve os números com prémio instantâneo
// ainda pendente.
func (r *Repository) GetPendingPrizeNumbersTx(ctx context.Context, tx pgx.Tx, rifaID int64) (map[int]bool, error) {
	rows, err := tx.Query(ctx,
		`SELECT numero_bilhete FROM premios_instantaneos WHERE rifa_id = $1 AND status = 'pendente'`,
		rifaID)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar prémios pendentes: %w", err)
	}
	defer rows.Close()

	premiados := make(map[int]bool)
	for rows.Next() {
		var numero string
		if err := rows.Scan(&numero); err != nil {
			return nil, fmt.Errorf("erro ao ler prémio pendente: %w", err)
		}
		n, err := strconv.Atoi(numero)
		if err != nil {
			return nil, fmt.Errorf("número premiado corrompido %q: %w", numero, err)
		}
		premiados[n] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao ler prémios pendentes: %w", err)
	}
	return premiados, nil
}

// MarkCompraAprovadaTx transiciona em_analise → aprovada. Zero linhas
// afetadas significa que a compra já foi decidida — devolve
// ErrInvalidState e a transação inteira é abortada.
func (r *Repository) MarkCompraAprovadaTx(ctx context.Context, tx pgx.Tx, compraID int64) error {
	tag, err := tx.Exec(ctx,
		`UPDATE compras SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3`,
		compraID, StatusAprovada, StatusEmAnalise)
	if err != nil {
		return fmt.Errorf("erro ao aprovar compra: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrInvalidState
	}
	return nil
}

// InsertBilhetesTx insere os bilhetes alocados de uma compra.
// A UNIQUE(rifa_id, numero_bilhete) é a última linha de defesa contra
// alocação dupla.
func (r *Repository) InsertBilhetesTx(ctx context.Context, tx pgx.Tx, rifaID, compraID int64, numeros []string, isFree bool) error {
	for _, numero := range numeros {
		_, err := tx.Exec(ctx,
			`INSERT INTO bilhetes (rifa_id, compra_id, numero_bilhete, is_free) VALUES ($1, $2, $3, $4)`,
			rifaID, compraID, numero, isFree)
		if err != nil {
			return fmt.Errorf("erro ao inserir bilhete %s: %w", numero, err)
		}
	}
	return nil
}

// ClaimPrizesTx resgata os prémios instantâneos pendentes cujos números
// batem com os bilhetes alocados. A guarda status = 'pendente' garante
// que cada prémio é resgatado uma única vez.
func (r *Repository) ClaimPrizesTx(ctx context.Context, tx pgx.Tx, rifaID int64, numeros []string, winnerID int64) ([]PremioGanho, error) {
	if len(numeros) == 0 {
		return nil, nil
	}
	rows, err := tx.Query(ctx, `
		UPDATE premios_instantaneos
		SET status = 'reivindicado', vencedor_user_id = $3
		WHERE rifa_id = $1 AND numero_bilhete = ANY($2) AND status = 'pendente'
		RETURNING numero_bilhete, descricao_premio
	`, rifaID, numeros, winnerID)
	if err != nil {
		return nil, fmt.Errorf("erro ao resgatar prémios: %w", err)
	}
	defer rows.Close()

	var ganhos []PremioGanho
	for rows.Next() {
		var g PremioGanho
		if err := rows.Scan(&g.NumeroBilhete, &g.Descricao); err != nil {
			return nil, fmt.Errorf("erro ao ler prémio resgatado: %w", err)
		}
		ganhos = append(ganhos, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao ler prémios resgatados: %w", err)
	}
	return ganhos, nil
}

// CountFreeTicketsTx conta os bilhetes grátis que um utilizador já tem na
// rifa, para o teto de bónus de indicação.
func (r *Repository) CountFreeTicketsTx(ctx context.Context, tx pgx.Tx, rifaID, userID int64) (int, error) {
	var count int
	err := tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM bilhetes b
		JOIN compras c ON b.compra_id = c.id
		WHERE b.rifa_id = $1 AND c.usuario_id = $2 AND b.is_free = TRUE
	`, rifaID, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("erro ao contar bilhetes grátis: %w", err)
	}
	return count, nil
}

// CreateBonusCompraTx insere a compra sintética do bónus de indicação:
// nasce aprovada, quantidade 1, valor zero.
func (r *Repository) CreateBonusCompraTx(ctx context.Context, tx pgx.Tx, rifaID, usuarioID int64) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		INSERT INTO compras (rifa_id, usuario_id, quantidade, valor_total, status, is_bonus)
		VALUES ($1, $2, 1, 0, $3, TRUE)
		RETURNING id
	`, rifaID, usuarioID, StatusAprovada).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("erro ao criar compra de bónus: %w", err)
	}
	return id, nil
}

// MarkRejeitada transiciona em_analise → rejeitada.
func (r *Repository) MarkRejeitada(ctx context.Context, compraID int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE compras SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3`,
		compraID, StatusRejeitada, StatusEmAnalise)
	if err != nil {
		return fmt.Errorf("erro ao rejeitar compra: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrInvalidState
	}
	return nil
}

// ListPendentes lista as compras em análise, mais antigas primeiro.
func (r *Repository) ListPendentes(ctx context.Context, limit int) ([]PendenteInfo, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.rifa_id, r.nome_premio, c.usuario_id, u.nome, c.quantidade, c.valor_total, c.created_at
		FROM compras c
		JOIN rifas r ON c.rifa_id = r.id
		JOIN usuarios u ON c.usuario_id = u.user_id
		WHERE c.status = $1
		ORDER BY c.created_at
		LIMIT $2
	`, StatusEmAnalise, limit)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar compras pendentes: %w", err)
	}
	defer rows.Close()

	var out []PendenteInfo
	for rows.Next() {
		var p PendenteInfo
		if err := rows.Scan(&p.CompraID, &p.RifaID, &p.RifaNome, &p.UsuarioID, &p.Nome, &p.Quantidade, &p.ValorTotal, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("erro ao ler compra pendente: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao ler compras pendentes: %w", err)
	}
	return out, nil
}

// GetResumoByUser agrega os bilhetes do utilizador por rifa, para
// /meusbilhetes. Só entram rifas não purgadas, mais recentes primeiro.
func (r *Repository) GetResumoByUser(ctx context.Context, userID int64) ([]CompraResumo, error) {
	rows, err := r.db.Query(ctx, `
		SELECT r.id, r.nome_premio, r.status, b.numero_bilhete, b.is_free
		FROM bilhetes b
		JOIN compras c ON b.compra_id = c.id
		JOIN rifas r ON b.rifa_id = r.id
		WHERE c.usuario_id = $1
		ORDER BY r.id DESC, b.numero_bilhete
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar bilhetes do utilizador: %w", err)
	}
	defer rows.Close()

	var out []CompraResumo
	index := make(map[int64]int)
	for rows.Next() {
		var (
			rifaID int64
			nome, status, numero string
			isFree bool
		)
		if err := rows.Scan(&rifaID, &nome, &status, &numero, &isFree); err != nil {
			return nil, fmt.Errorf("erro ao ler bilhete do utilizador: %w", err)
		}
		i, ok := index[rifaID]
		if !ok {
			out = append(out, CompraResumo{RifaID: rifaID, RifaNome: nome, RifaStatus: status})
			i = len(out) - 1
			index[rifaID] = i
		}
		out[i].Numeros = append(out[i].Numeros, numero)
		if isFree {
			out[i].Gratis++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao ler bilhetes do utilizador: %w", err)
	}
	return out, nil
}

// CountReservados devolve quantos bilhetes da rifa já estão
// comprometidos: alocados (aprovados) mais as quantidades das compras
// ainda em análise. Usado na pré-checagem de capacidade da submissão.
func (r *Repository) CountReservados(ctx context.Context, rifaID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM bilhetes WHERE rifa_id = $1)
		     + (SELECT COALESCE(SUM(quantidade), 0) FROM compras WHERE rifa_id = $1 AND status = $2)
	`, rifaID, StatusEmAnalise).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("erro ao contar bilhetes reservados: %w", err)
	}
	return count, nil
}

func scanCompra(row pgx.Row) (*Compra, error) {
	var c Compra
	err := row.Scan(
		&c.ID, &c.RifaID, &c.UsuarioID, &c.Quantidade, &c.ValorTotal, &c.Status,
		&c.CodigoIndicacao, &c.IsBonus, &c.ReservaChatID, &c.ReservaMessageID,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrCompraNotFound
		}
		return nil, fmt.Errorf("erro ao ler compra: %w", err)
	}
	return &c, nil
}
