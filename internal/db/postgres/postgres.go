// Package postgres gere a conexão com o PostgreSQL.
// Usa o pool de conexões pgxpool para servir várias goroutines ao mesmo
// tempo: o pool abre/fecha conexões automaticamente, reconecta em caso de
// queda e limita o número máximo de conexões.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"rifa-bot/internal/config"
)

// NewPool cria um novo pool de conexões ao PostgreSQL.
//
// Parâmetros:
//   - ctx: contexto para cancelar a operação
//   - cfg: configuração com os parâmetros de conexão
//
// Retorna:
//   - *pgxpool.Pool: pool pronto para uso
//   - error: erro se a conexão falhar
//
// Exemplo:
//
//	pool, err := postgres.NewPool(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Close()
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("erro ao interpretar o DSN: %w", err)
	}

	// Ajustes do pool
	poolConfig.MaxConns = cfg.DBMaxConns
	poolConfig.MinConns = cfg.DBMinConns
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar o pool: %w", err)
	}

	// Confirma que a base está acessível antes de seguir
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("base de dados inacessível: %w", err)
	}

	log.Info("Conexão com o PostgreSQL estabelecida")
	return pool, nil
}

// RunMigrations prepara o sistema de migrações: cria a tabela
// schema_migrations se ainda não existir. As migrações em si são
// aplicadas por ExecMigrationSQL, uma a uma, em ordem de versão.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("não foi possível obter uma conexão: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("erro ao criar a tabela de migrações: %w", err)
	}

	log.Info("Sistema de migrações pronto")
	return nil
}

// ExecMigrationSQL executa uma migração dentro de uma transação.
// Se o SQL falhar, a transação é revertida automaticamente.
// Migrações já aplicadas (versão presente em schema_migrations) são puladas.
func ExecMigrationSQL(ctx context.Context, pool *pgxpool.Pool, version int, sql string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("erro ao iniciar a transação: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", version,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("erro ao verificar a migração: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.Exec(ctx, sql); err != nil {
		return fmt.Errorf("erro ao executar a migração %d: %w", version, err)
	}

	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (version) VALUES ($1)", version,
	); err != nil {
		return fmt.Errorf("erro ao registar a versão da migração: %w", err)
	}

	return tx.Commit(ctx)
}
