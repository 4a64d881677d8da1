package users

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"rifa-bot/internal/common"
	"rifa-bot/internal/config"
)

// A validação de entrada acontece antes de qualquer acesso à base, por
// isso dá para exercitá-la sem repositório.
func TestRegisterEntradaInvalida(t *testing.T) {
	s := NewService(nil)

	t.Run("nome vazio", func(t *testing.T) {
		_, err := s.Register(context.Background(), 1, "   ", "maria@email.com")
		require.ErrorIs(t, err, common.ErrInvalidName)
		require.NotErrorIs(t, err, common.ErrInvalidEmail)
	})

	t.Run("email inválido", func(t *testing.T) {
		_, err := s.Register(context.Background(), 1, "Maria", "maria@")
		require.ErrorIs(t, err, common.ErrInvalidEmail)
	})
}

func TestWelcomeTextSegueConfig(t *testing.T) {
	cfg := &config.Config{ReferralMinPurchase: 12.5, ReferralMaxFreeTickets: 3}

	texto := welcomeText("Maria", "MARIA-3F0A", cfg)
	require.Contains(t, texto, "Maria")
	require.Contains(t, texto, "MARIA-3F0A")
	require.Contains(t, texto, common.FormatPrice(12.5))
	require.Contains(t, texto, fmt.Sprintf("máximo de %d por rifa", 3))
	require.False(t, strings.Contains(texto, "máximo de 5"))
}

func TestEmailRegex(t *testing.T) {
	validos := []string{
		"maria@email.com",
		"joao.silva@empresa.com.br",
		"a@b.co",
	}
	for _, e := range validos {
		require.True(t, emailRegex.MatchString(e), "email=%q", e)
	}

	invalidos := []string{
		"maria",
		"maria@",
		"@email.com",
		"maria@email",
		"maria silva@email.com",
		"",
	}
	for _, e := range invalidos {
		require.False(t, emailRegex.MatchString(e), "email=%q", e)
	}
}
