// Package postgres — tx.go concentra os helpers de transação.
// A aprovação de compras exige isolamento SERIALIZABLE: duas aprovações
// concorrentes na mesma rifa não podem alocar o mesmo número de bilhete.
// Em vez de permitir espera indefinida, as transações carregam timeouts
// explícitos e falham rápido com ErrConcurrencyConflict — quem chamou
// decide se tenta de novo.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"rifa-bot/internal/common"
)

// Códigos SQLSTATE que indicam conflito de concorrência ou timeout.
const (
	sqlstateSerializationFailure = "40001"
	sqlstateDeadlockDetected     = "40P01"
	sqlstateLockNotAvailable     = "55P03"
	sqlstateQueryCanceled        = "57014"
)

// WithSerializable executa fn dentro de uma transação SERIALIZABLE com
// timeouts de lock e de statement limitados. Commit em caso de sucesso,
// rollback em qualquer erro.
//
// Conflitos de serialização, deadlocks e timeouts viram
// common.ErrConcurrencyConflict (embrulhado), para o handler poder
// distinguir "tente de novo" de um erro real.
func WithSerializable(ctx context.Context, pool *pgxpool.Pool, txTimeout, lockTimeout time.Duration, fn func(pgx.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("erro ao iniciar a transação: %w", err)
	}
	defer tx.Rollback(ctx)

	// SET LOCAL vale só para esta transação
	if _, err := tx.Exec(ctx,
		fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", lockTimeout.Milliseconds()),
	); err != nil {
		return fmt.Errorf("erro ao definir lock_timeout: %w", err)
	}

	if err := fn(tx); err != nil {
		return mapConcurrencyError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return mapConcurrencyError(err)
	}
	return nil
}

// WithTx executa fn numa transação com o isolamento default (read committed).
// Suficiente para operações que só tocam uma linha de rifa/compra.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("erro ao iniciar a transação: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// mapConcurrencyError converte erros de contenção do PostgreSQL (e timeouts
// de contexto) em common.ErrConcurrencyConflict, preservando o original.
func mapConcurrencyError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlstateSerializationFailure, sqlstateDeadlockDetected,
			sqlstateLockNotAvailable, sqlstateQueryCanceled:
			return fmt.Errorf("%w: %v", common.ErrConcurrencyConflict, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", common.ErrConcurrencyConflict, err)
	}
	return err
}
