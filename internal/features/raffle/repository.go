// Package raffle — repository.go executa as operações nas tabelas rifas e
// premios_instantaneos. As transições de status usam UPDATEs com guarda de
// estado (WHERE status = ...): se nenhuma linha for afetada, a operação
// chegou tarde e o serviço devolve ErrInvalidState.
package raffle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

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

const rifaColumns = `
	id, nome_premio, total_bilhetes, status, metodo_sorteio, meta_completude,
	preco_bilhete, sorteio_data, top_compradores_count, top_compradores_premios,
	channel_id, message_id, vencedor_user_id, numero_vencedor, created_at, updated_at
`

// CreateTx insere a rifa dentro da transação de criação e devolve o id.
func (r *Repository) CreateTx(ctx context.Context, tx pgx.Tx, p CreateParams) (int64, error) {
	premiosJSON := []byte("{}")
	if len(p.TopPremios) > 0 {
		raw, err := json.Marshal(p.TopPremios)
		if err != nil {
			return 0, fmt.Errorf("erro ao serializar prémios top: %w", err)
		}
		premiosJSON = raw
	}

	query := `
		INSERT INTO rifas (nome_premio, total_bilhetes, status, metodo_sorteio,
		                   meta_completude, preco_bilhete, top_compradores_count,
		                   top_compradores_premios)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	var id int64
	err := tx.QueryRow(ctx, query,
		p.NomePremio, p.TotalBilhetes, StatusAtiva, p.MetodoSorteio,
		p.MetaCompletude, p.PrecoBilhete, len(p.TopPremios), premiosJSON,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("erro ao criar rifa: %w", err)
	}
	return id, nil
}

// InsertInstantPrizeTx insere um bilhete premiado na criação da rifa.
func (r *Repository) InsertInstantPrizeTx(ctx context.Context, tx pgx.Tx, rifaID int64, numero, descricao string) error {
	query := `
		INSERT INTO premios_instantaneos (rifa_id, numero_bilhete, descricao_premio, status)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.Exec(ctx, query, rifaID, numero, descricao, PrizePendente); err != nil {
		return fmt.Errorf("erro ao criar prémio instantâneo: %w", err)
	}
	return nil
}

// GetByID devolve a rifa ou common.ErrRifaNotFound.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Rifa, error) {
	query := `SELECT ` + rifaColumns + ` FROM rifas WHERE id = $1`
	return scanRifa(r.db.QueryRow(ctx, query, id))
}

// ListByStatusAndMetodo lista rifas num dado status e método de sorteio.
// Usado pelo scheduler para encontrar as rifas de loteria ativas.
func (r *Repository) ListByStatusAndMetodo(ctx context.Context, status, metodo string) ([]*Rifa, error) {
	query := `SELECT ` + rifaColumns + ` FROM rifas WHERE status = $1 AND metodo_sorteio = $2 ORDER BY id`
	rows, err := r.db.Query(ctx, query, status, metodo)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar rifas: %w", err)
	}
	defer rows.Close()

	var out []*Rifa
	for rows.Next() {
		rifa, err := scanRifa(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rifa)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao ler rifas: %w", err)
	}
	return out, nil
}

// UpdateMessageRef grava a referência da mensagem pública da rifa.
func (r *Repository) UpdateMessageRef(ctx context.Context, id, chatID int64, messageID int) error {
	query := `UPDATE rifas SET channel_id = $2, message_id = $3, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, id, chatID, messageID); err != nil {
		return fmt.Errorf("erro ao gravar referência da mensagem: %w", err)
	}
	return nil
}

// MarkAguardandoSorteio transiciona ativa → aguardando_sorteio e grava a
// data do sorteio. Se a rifa já saiu de "ativa", devolve ErrInvalidState —
// é isso que torna o scheduler idempotente em execuções sobrepostas.
func (r *Repository) MarkAguardandoSorteio(ctx context.Context, id int64, sorteioData time.Time) error {
	query := `
		UPDATE rifas SET status = $2, sorteio_data = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4
	`
	tag, err := r.db.Exec(ctx, query, id, StatusAguardandoSorteio, sorteioData, StatusAtiva)
	if err != nil {
		return fmt.Errorf("erro ao agendar sorteio: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrInvalidState
	}
	return nil
}

// MarkCancelada transiciona ativa → cancelada.
func (r *Repository) MarkCancelada(ctx context.Context, id int64) error {
	query := `UPDATE rifas SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3`
	tag, err := r.db.Exec(ctx, query, id, StatusCancelada, StatusAtiva)
	if err != nil {
		return fmt.Errorf("erro ao cancelar rifa: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrInvalidState
	}
	return nil
}

// Finalize transiciona fromStatus → finalizada, gravando o vencedor quando
// existir (no sorteio da loteria o bilhete mapeado pode não ter dono).
func (r *Repository) Finalize(ctx context.Context, id int64, fromStatus string, venc *Vencedor) error {
	var userID *int64
	var numero *string
	if venc != nil {
		userID = &venc.UserID
		numero = &venc.NumeroBilhete
	}

	query := `
		UPDATE rifas
		SET status = $2, sorteio_data = NOW(), vencedor_user_id = $3,
		    numero_vencedor = $4, updated_at = NOW()
		WHERE id = $1 AND status = $5
	`
	tag, err := r.db.Exec(ctx, query, id, StatusFinalizada, userID, numero, fromStatus)
	if err != nil {
		return fmt.Errorf("erro ao finalizar rifa: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrInvalidState
	}
	return nil
}

// Delete apaga a rifa e, por cascata, compras, bilhetes e prémios.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM rifas WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("erro ao apagar rifa: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrRifaNotFound
	}
	return nil
}

// CountBilhetesVendidos conta os bilhetes de compras aprovadas da rifa.
func (r *Repository) CountBilhetesVendidos(ctx context.Context, rifaID int64) (int, error) {
	query := `
		SELECT COUNT(b.id)
		FROM bilhetes b
		JOIN compras c ON b.compra_id = c.id
		WHERE c.rifa_id = $1 AND c.status = 'aprovada'
	`
	var n int
	if err := r.db.QueryRow(ctx, query, rifaID).Scan(&n); err != nil {
		return 0, fmt.Errorf("erro ao contar bilhetes vendidos: %w", err)
	}
	return n, nil
}

// GetBilhetesAprovados devolve todos os bilhetes aprovados da rifa com os
// respetivos donos. É o conjunto sobre o qual o sorteio interno escolhe.
func (r *Repository) GetBilhetesAprovados(ctx context.Context, rifaID int64) ([]BilheteVendido, error) {
	query := `
		SELECT b.numero_bilhete, u.user_id, u.nome
		FROM bilhetes b
		JOIN compras c ON b.compra_id = c.id
		JOIN usuarios u ON c.usuario_id = u.user_id
		WHERE c.rifa_id = $1 AND c.status = 'aprovada'
		ORDER BY b.numero_bilhete
	`
	rows, err := r.db.Query(ctx, query, rifaID)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar bilhetes aprovados: %w", err)
	}
	defer rows.Close()

	var out []BilheteVendido
	for rows.Next() {
		var b BilheteVendido
		if err := rows.Scan(&b.Numero, &b.UserID, &b.Nome); err != nil {
			return nil, fmt.Errorf("erro ao ler bilhete: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao ler bilhetes: %w", err)
	}
	return out, nil
}

// GetBilheteAprovado busca o bilhete aprovado com o número exato, se
// alguém o comprou. Usado pelo sorteio da loteria.
func (r *Repository) GetBilheteAprovado(ctx context.Context, rifaID int64, numero string) (*BilheteVendido, error) {
	query := `
		SELECT b.numero_bilhete, u.user_id, u.nome
		FROM bilhetes b
		JOIN compras c ON b.compra_id = c.id
		JOIN usuarios u ON c.usuario_id = u.user_id
		WHERE c.rifa_id = $1 AND c.status = 'aprovada' AND b.numero_bilhete = $2
	`
	var b BilheteVendido
	err := r.db.QueryRow(ctx, query, rifaID, numero).Scan(&b.Numero, &b.UserID, &b.Nome)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // ninguém comprou o número mapeado
		}
		return nil, fmt.Errorf("erro ao buscar bilhete vencedor: %w", err)
	}
	return &b, nil
}

// GetParticipants devolve os user IDs distintos com compras aprovadas.
func (r *Repository) GetParticipants(ctx context.Context, rifaID int64) ([]int64, error) {
	query := `SELECT DISTINCT usuario_id FROM compras WHERE rifa_id = $1 AND status = 'aprovada'`
	rows, err := r.db.Query(ctx, query, rifaID)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar participantes: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("erro ao ler participante: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao ler participantes: %w", err)
	}
	return out, nil
}

// TopComprador resume um utilizador no ranking de compras da rifa.
type TopComprador struct {
	UserID   int64
	Nome     string
	Bilhetes int
}

// GetTopCompradores devolve os maiores compradores (bilhetes pagos, não
// conta bónus grátis), para os prémios TOP 1..3.
func (r *Repository) GetTopCompradores(ctx context.Context, rifaID int64, limit int) ([]TopComprador, error) {
	query := `
		SELECT u.user_id, u.nome, COUNT(b.id) AS bilhetes
		FROM bilhetes b
		JOIN compras c ON b.compra_id = c.id
		JOIN usuarios u ON c.usuario_id = u.user_id
		WHERE c.rifa_id = $1 AND c.status = 'aprovada' AND b.is_free = FALSE
		GROUP BY u.user_id, u.nome
		ORDER BY bilhetes DESC, u.user_id
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, rifaID, limit)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar top compradores: %w", err)
	}
	defer rows.Close()

	var out []TopComprador
	for rows.Next() {
		var t TopComprador
		if err := rows.Scan(&t.UserID, &t.Nome, &t.Bilhetes); err != nil {
			return nil, fmt.Errorf("erro ao ler top comprador: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao ler top compradores: %w", err)
	}
	return out, nil
}

func scanRifa(row pgx.Row) (*Rifa, error) {
	var rifa Rifa
	var premiosRaw []byte
	err := row.Scan(
		&rifa.ID, &rifa.NomePremio, &rifa.TotalBilhetes, &rifa.Status,
		&rifa.MetodoSorteio, &rifa.MetaCompletude, &rifa.PrecoBilhete,
		&rifa.SorteioData, &rifa.TopCompradoresCount, &premiosRaw,
		&rifa.ChannelID, &rifa.MessageID, &rifa.VencedorUserID,
		&rifa.NumeroVencedor, &rifa.CreatedAt, &rifa.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrRifaNotFound
		}
		return nil, fmt.Errorf("erro ao ler rifa: %w", err)
	}
	if len(premiosRaw) > 0 {
		if err := json.Unmarshal(premiosRaw, &rifa.TopCompradoresPremios); err != nil {
			return nil, fmt.Errorf("erro ao desserializar prémios top: %w", err)
		}
	}
	return &rifa, nil
}
