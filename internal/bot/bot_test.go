package bot

import (
	"context"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"rifa-bot/internal/bot/middleware"
)

// O fecho do canal de updates também deve encerrar o rate limiter, para
// a goroutine de limpeza não sobreviver ao bot.
func TestReceiveLoopEncerraRateLimiter(t *testing.T) {
	rl := middleware.NewRateLimiter(5, time.Minute)
	b := &Bot{rateLimiter: rl, inflight: make(chan struct{}, 1)}

	updates := make(chan tgbotapi.Update)
	close(updates)
	b.receiveLoop(context.Background(), updates)

	select {
	case <-rl.Done():
	default:
		t.Fatal("rate limiter continuou ativo após o canal de updates fechar")
	}

	require.NotPanics(t, rl.Close)
}

func TestParseCommand(t *testing.T) {
	parser := NewCommandParser()

	tests := []struct {
		name      string
		text      string
		wantCmd   string
		wantArgs  []string
		isCommand bool
	}{
		{
			name:      "comando com barra",
			text:      "/comprar 3 5",
			wantCmd:   "comprar",
			wantArgs:  []string{"3", "5"},
			isCommand: true,
		},
		{
			name:      "comando com exclamação",
			text:      "!meusbilhetes",
			wantCmd:   "meusbilhetes",
			isCommand: true,
		},
		{
			name:      "comando em maiúsculas é normalizado",
			text:      "/COMPRAR 3 5",
			wantCmd:   "comprar",
			wantArgs:  []string{"3", "5"},
			isCommand: true,
		},
		{
			name:      "texto livre não é comando",
			text:      "enviei o comprovante",
			isCommand: false,
		},
		{
			name:      "só o prefixo não é comando",
			text:      "/",
			isCommand: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, isCommand := parser.ParseCommand(tt.text)
			require.Equal(t, tt.isCommand, isCommand)
			if tt.isCommand {
				require.Equal(t, tt.wantCmd, cmd)
				require.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestRawArgs(t *testing.T) {
	t.Run("preserva quebras de linha", func(t *testing.T) {
		text := "/rifa_criar PS5; 10,00; 1000; interno\nTOP 1: Fone\nBILHETE 2X: Caneca"
		require.Equal(t, "PS5; 10,00; 1000; interno\nTOP 1: Fone\nBILHETE 2X: Caneca", rawArgs(text))
	})

	t.Run("comando sem argumentos", func(t *testing.T) {
		require.Equal(t, "", rawArgs("/rifa_criar"))
	})

	t.Run("comando cuja primeira linha é só o nome", func(t *testing.T) {
		require.Equal(t, "TOP 1: Fone", rawArgs("/rifa_criar\nTOP 1: Fone"))
	})
}
