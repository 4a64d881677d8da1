// Package app inicializa todos os componentes da aplicação.
// app.go é o ponto de montagem: cria o pool da base, repositórios,
// serviços, handlers e filtros, e junta tudo no objeto Bot.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"rifa-bot/internal/bot"
	"rifa-bot/internal/bot/filters"
	"rifa-bot/internal/config"
	"rifa-bot/internal/db/postgres"
	"rifa-bot/internal/features/payment"
	"rifa-bot/internal/features/purchase"
	"rifa-bot/internal/features/raffle"
	"rifa-bot/internal/features/users"
	"rifa-bot/internal/jobs"
	"rifa-bot/internal/notify"
)

// App contém todos os componentes da aplicação.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	BotAPI    *tgbotapi.BotAPI
}

// New cria e inicializa a aplicação.
// A ordem importa — os componentes dependem uns dos outros.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Base de dados ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("erro ao conectar à base: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("erro nas migrações: %w", err)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar a API do Telegram: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Autorizado como @%s", botAPI.Self.UserName)

	notifier := notify.NewTelegramNotifier(botAPI)
	pixGen := payment.NewGenerator(cfg.PixKey, cfg.PixMerchantName, cfg.PixMerchantCity)

	// === 3. Repositórios ===
	userRepo := users.NewRepository(pool)
	raffleRepo := raffle.NewRepository(pool)
	purchaseRepo := purchase.NewRepository(pool)

	// === 4. Serviços ===
	userService := users.NewService(userRepo)
	raffleService := raffle.NewService(raffleRepo, pool, notifier, cfg)
	purchaseService := purchase.NewService(purchaseRepo, userService, raffleService, pool, notifier, pixGen, cfg)

	// === 5. Handlers ===
	userHandler := users.NewHandler(userService, botAPI, cfg)
	raffleHandler := raffle.NewHandler(raffleService, botAPI, cfg)
	purchaseHandler := purchase.NewHandler(purchaseService, botAPI, cfg)

	// === 6. Filtros ===
	chatFilter := filters.NewChatFilter(cfg, botAPI)

	// === 7. Bot ===
	b := bot.New(botAPI, cfg, userHandler, raffleHandler, purchaseHandler, chatFilter)

	// === 8. Agendador ===
	scheduler := jobs.NewScheduler(raffleService, cfg.LotteryCheckCron)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		DB:        pool,
		BotAPI:    botAPI,
	}, nil
}

// runMigrations aplica todas as migrações SQL.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Usuarios},
		{2, migration002Rifas},
		{3, migration003Compras},
		{4, migration004Bilhetes},
		{5, migration005PremiosInstantaneos},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("migração %d: %w", m.version, err)
		}
		log.Infof("Migração %d aplicada", m.version)
	}

	return nil
}

// As migrações SQL ficam embutidas no binário para simplificar o deploy.

var migration001Usuarios = `
CREATE TABLE IF NOT EXISTS usuarios (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL,
    nome VARCHAR(255) NOT NULL,
    email VARCHAR(255) UNIQUE NOT NULL,
    referral_code VARCHAR(32) UNIQUE,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_usuarios_referral_code ON usuarios(referral_code);
`

var migration002Rifas = `
CREATE TABLE IF NOT EXISTS rifas (
    id BIGSERIAL PRIMARY KEY,
    nome_premio VARCHAR(255) NOT NULL,
    total_bilhetes INT NOT NULL CHECK (total_bilhetes > 0),
    status VARCHAR(32) NOT NULL DEFAULT 'ativa',
    metodo_sorteio VARCHAR(32) NOT NULL DEFAULT 'interno',
    meta_completude DOUBLE PRECISION,
    preco_bilhete DOUBLE PRECISION NOT NULL CHECK (preco_bilhete > 0),
    sorteio_data TIMESTAMP,
    top_compradores_count INT NOT NULL DEFAULT 0,
    top_compradores_premios JSONB NOT NULL DEFAULT '{}',
    channel_id BIGINT,
    message_id INT,
    vencedor_user_id BIGINT,
    numero_vencedor VARCHAR(16),
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_rifas_status ON rifas(status);
`

var migration003Compras = `
CREATE TABLE IF NOT EXISTS compras (
    id BIGSERIAL PRIMARY KEY,
    rifa_id BIGINT NOT NULL REFERENCES rifas(id) ON DELETE CASCADE,
    usuario_id BIGINT NOT NULL,
    quantidade INT NOT NULL CHECK (quantidade > 0),
    valor_total DOUBLE PRECISION NOT NULL CHECK (valor_total >= 0),
    status VARCHAR(32) NOT NULL DEFAULT 'em_analise',
    codigo_indicacao VARCHAR(32),
    is_bonus BOOLEAN NOT NULL DEFAULT FALSE,
    reserva_chat_id BIGINT,
    reserva_message_id INT,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_compras_rifa_status ON compras(rifa_id, status);
CREATE INDEX IF NOT EXISTS idx_compras_usuario ON compras(usuario_id);
`

var migration004Bilhetes = `
CREATE TABLE IF NOT EXISTS bilhetes (
    id BIGSERIAL PRIMARY KEY,
    rifa_id BIGINT NOT NULL REFERENCES rifas(id) ON DELETE CASCADE,
    compra_id BIGINT NOT NULL REFERENCES compras(id) ON DELETE CASCADE,
    numero_bilhete VARCHAR(16) NOT NULL,
    is_free BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP DEFAULT NOW(),
    UNIQUE (rifa_id, numero_bilhete)
);

CREATE INDEX IF NOT EXISTS idx_bilhetes_compra ON bilhetes(compra_id);
`

var migration005PremiosInstantaneos = `
CREATE TABLE IF NOT EXISTS premios_instantaneos (
    id BIGSERIAL PRIMARY KEY,
    rifa_id BIGINT NOT NULL REFERENCES rifas(id) ON DELETE CASCADE,
    numero_bilhete VARCHAR(16) NOT NULL,
    descricao_premio VARCHAR(255) NOT NULL,
    status VARCHAR(32) NOT NULL DEFAULT 'pendente',
    vencedor_user_id BIGINT,
    created_at TIMESTAMP DEFAULT NOW(),
    UNIQUE (rifa_id, numero_bilhete)
);

CREATE INDEX IF NOT EXISTS idx_premios_rifa_status ON premios_instantaneos(rifa_id, status);
`
