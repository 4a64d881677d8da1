package raffle

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rifa-bot/internal/common"
)

// Com 90 bilhetes de um comprador e 10 de outro, a fração de vitórias do
// segundo deve convergir para 10%.
func TestPickWinnerProporcional(t *testing.T) {
	var vendidos []BilheteVendido
	for i := 0; i < 90; i++ {
		vendidos = append(vendidos, BilheteVendido{Numero: FormatNumero(i, 3), UserID: 1, Nome: "Maria"})
	}
	for i := 90; i < 100; i++ {
		vendidos = append(vendidos, BilheteVendido{Numero: FormatNumero(i, 3), UserID: 2, Nome: "José"})
	}

	rng := rand.New(rand.NewSource(42))
	const sorteios = 20000
	vitoriasJose := 0
	for i := 0; i < sorteios; i++ {
		if pickWinner(rng, vendidos).UserID == 2 {
			vitoriasJose++
		}
	}

	frac := float64(vitoriasJose) / float64(sorteios)
	require.InDelta(t, 0.10, frac, 0.02, "fração de vitórias fora do esperado: %f", frac)
}

func TestPickWinnerDeterministaPorSeed(t *testing.T) {
	vendidos := []BilheteVendido{
		{Numero: "00", UserID: 1}, {Numero: "01", UserID: 2}, {Numero: "02", UserID: 3},
	}
	a := pickWinner(rand.New(rand.NewSource(7)), vendidos)
	b := pickWinner(rand.New(rand.NewSource(7)), vendidos)
	require.Equal(t, a, b)
}

func TestMapWinningNumber(t *testing.T) {
	tests := []struct {
		name          string
		sorteado      string
		totalBilhetes int
		want          string
		wantErr       error
	}{
		{
			name:          "rifa de 100 usa os 2 últimos dígitos",
			sorteado:      "00012345",
			totalBilhetes: 100,
			want:          "45",
		},
		{
			name:          "rifa de 1000 usa os 3 últimos dígitos",
			sorteado:      "00012345",
			totalBilhetes: 1000,
			want:          "345",
		},
		{
			name:          "número curto ganha zeros à esquerda",
			sorteado:      "5",
			totalBilhetes: 1000,
			want:          "005",
		},
		{
			name:          "total que não é potência de 10",
			sorteado:      "98765",
			totalBilhetes: 150,
			want:          "765", // pode não ter dono; a rifa encerra sem vencedor
		},
		{
			name:          "não dígitos são rejeitados",
			sorteado:      "12a45",
			totalBilhetes: 100,
			wantErr:       common.ErrInvalidDrawNumber,
		},
		{
			name:          "vazio é rejeitado",
			sorteado:      "",
			totalBilhetes: 100,
			wantErr:       common.ErrInvalidDrawNumber,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MapWinningNumber(tt.sorteado, tt.totalBilhetes)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNextDrawDate(t *testing.T) {
	loc := common.SaoPauloLocation()
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 12, 0, 0, 0, loc)
	}

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "domingo vai para quarta",
			now:  day(2026, time.August, 30), // domingo
			want: day(2026, time.September, 2),
		},
		{
			name: "terça vai para quarta seguinte",
			now:  day(2026, time.September, 1),
			want: day(2026, time.September, 2),
		},
		{
			name: "quarta vai para sábado",
			now:  day(2026, time.September, 2),
			want: day(2026, time.September, 5),
		},
		{
			name: "sexta vai para sábado",
			now:  day(2026, time.September, 4),
			want: day(2026, time.September, 5),
		},
		{
			name: "sábado pula para a próxima quarta",
			now:  day(2026, time.September, 5),
			want: day(2026, time.September, 9),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextDrawDate(tt.now)
			require.Equal(t, tt.want.Year(), got.Year())
			require.Equal(t, tt.want.Month(), got.Month())
			require.Equal(t, tt.want.Day(), got.Day())
			require.True(t, got.After(tt.now), "a data do sorteio deve ser futura")
		})
	}
}
