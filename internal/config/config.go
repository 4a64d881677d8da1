// Package config carrega a configuração do bot a partir de variáveis de
// ambiente. Usa envconfig para mapear as variáveis nos campos da struct.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config contém TODAS as configurações da aplicação.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	// IDs dos administradores (aprovam compras, criam/sorteiam rifas)
	AdminIDsRaw string  `envconfig:"ADMIN_IDS" required:"true"`
	AdminIDs    []int64 `envconfig:"-"` // preenchido manualmente no Load
	// Chat onde as mensagens públicas das rifas são publicadas
	RifaChannelID int64 `envconfig:"RIFA_CHANNEL_ID" required:"true"`
	// Chat onde os admins recebem avisos de compras pendentes
	LogChannelID int64 `envconfig:"LOG_CHANNEL_ID" required:"true"`

	// --- Database ---
	// Dentro do Docker "localhost" quase nunca é o que se quer.
	// O default é "postgres" (nome do serviço no docker-compose);
	// para rodar local, sobrescreva DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"rifabot"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"rifa_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`

	// --- Bot runtime ---
	// Quantos updates processamos em paralelo. Sem o limite,
	// "uma goroutine por update" vira fuga de memória em flood.
	BotMaxInflight          int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- PIX ---
	PixKey          string `envconfig:"PIX_KEY" required:"true"`
	PixMerchantName string `envconfig:"PIX_MERCHANT_NAME" required:"true"`
	PixMerchantCity string `envconfig:"PIX_MERCHANT_CITY" required:"true"`

	// --- Regras de negócio ---
	// Valor mínimo da compra para o indicador ganhar bónus (em reais)
	ReferralMinPurchase float64 `envconfig:"REFERRAL_MIN_PURCHASE" default:"10"`
	// Máximo de bilhetes grátis por indicador por rifa
	ReferralMaxFreeTickets int `envconfig:"REFERRAL_MAX_FREE_TICKETS" default:"5"`
	// Máximo de bilhetes premiados por linha de prémio na criação
	MaxInstantPrizesPerLine int `envconfig:"MAX_INSTANT_PRIZES_PER_LINE" default:"50"`

	// --- Transações ---
	// Timeout da transação de aprovação (serializable). Falha rápida em
	// contenção é preferível a segurar o admin esperando.
	ApprovalTxTimeout time.Duration `envconfig:"APPROVAL_TX_TIMEOUT" default:"10s"`
	LockTimeout       time.Duration `envconfig:"LOCK_TIMEOUT" default:"5s"`

	// --- Scheduler ---
	// Expressão cron da verificação de meta das rifas de loteria
	LotteryCheckCron string `envconfig:"LOTTERY_CHECK_CRON" default:"0 9 * * *"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// DatabaseDSN devolve a string de conexão ao PostgreSQL em formato DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// IsAdmin verifica se o userID está na lista de administradores.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Config) Validate() error {
	if len(c.AdminIDs) == 0 {
		return fmt.Errorf("ADMIN_IDS vazio — o bot precisa de pelo menos um admin")
	}
	if c.RifaChannelID == 0 || c.LogChannelID == 0 {
		return fmt.Errorf("RIFA_CHANNEL_ID e LOG_CHANNEL_ID devem ser definidos")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT deve ser > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS deve ser > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS/DB_MAX_CONNS inválidos")
	}
	if c.ApprovalTxTimeout <= 0 || c.LockTimeout <= 0 {
		return fmt.Errorf("APPROVAL_TX_TIMEOUT e LOCK_TIMEOUT devem ser > 0")
	}
	if c.ReferralMinPurchase < 0 || c.ReferralMaxFreeTickets < 0 {
		return fmt.Errorf("parâmetros de indicação inválidos")
	}
	return nil
}

// Load lê as variáveis de ambiente e preenche a struct Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("não foi possível carregar a configuração: %w", err)
	}

	ids, err := parseInt64CSV(cfg.AdminIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS parse: %w", err)
	}
	cfg.AdminIDs = ids

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("int64 inválido %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
