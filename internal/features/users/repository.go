// Package users — repository.go concentra as operações na tabela usuarios.
// Cada função executa uma query e devolve o resultado ou um erro.
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"rifa-bot/internal/common"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const usuarioColumns = `id, user_id, nome, email, referral_code, created_at, updated_at`

// Create insere um novo utilizador. Violações de unicidade (user_id ou
// email já registados) viram common.ErrAlreadyRegistered.
func (r *Repository) Create(ctx context.Context, u *Usuario) error {
	query := `
		INSERT INTO usuarios (user_id, nome, email, referral_code)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(ctx, query, u.UserID, u.Nome, u.Email, u.ReferralCode)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return common.ErrAlreadyRegistered
		}
		return fmt.Errorf("erro ao criar utilizador: %w", err)
	}
	return nil
}

// GetByUserID devolve o utilizador pelo Telegram user ID.
// Se não existir, devolve common.ErrUsuarioNotFound.
func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*Usuario, error) {
	query := `SELECT ` + usuarioColumns + ` FROM usuarios WHERE user_id = $1`
	return r.scanUsuario(r.db.QueryRow(ctx, query, userID))
}

// GetByReferralCode devolve o dono de um código de indicação.
// Se não existir, devolve common.ErrIndicadorNotFound.
func (r *Repository) GetByReferralCode(ctx context.Context, code string) (*Usuario, error) {
	query := `SELECT ` + usuarioColumns + ` FROM usuarios WHERE referral_code = $1`
	u, err := r.scanUsuario(r.db.QueryRow(ctx, query, code))
	if errors.Is(err, common.ErrUsuarioNotFound) {
		return nil, common.ErrIndicadorNotFound
	}
	return u, err
}

// ReferralCodeExists verifica se um código já está em uso.
func (r *Repository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM usuarios WHERE referral_code = $1)`, code,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("erro ao verificar código de indicação: %w", err)
	}
	return exists, nil
}

// SetReferralCode grava o código de um utilizador que ainda não tinha um.
func (r *Repository) SetReferralCode(ctx context.Context, userID int64, code string) error {
	query := `UPDATE usuarios SET referral_code = $2, updated_at = NOW() WHERE user_id = $1`
	if _, err := r.db.Exec(ctx, query, userID, code); err != nil {
		return fmt.Errorf("erro ao gravar código de indicação: %w", err)
	}
	return nil
}

func (r *Repository) scanUsuario(row pgx.Row) (*Usuario, error) {
	var u Usuario
	err := row.Scan(
		&u.ID, &u.UserID, &u.Nome, &u.Email, &u.ReferralCode,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUsuarioNotFound
		}
		return nil, fmt.Errorf("erro ao ler utilizador: %w", err)
	}
	return &u, nil
}
