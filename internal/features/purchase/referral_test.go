package purchase

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBonusElegivel(t *testing.T) {
	tests := []struct {
		name       string
		valorTotal float64
		gratis     int
		want       bool
	}{
		{"valor exatamente no mínimo", 10.00, 0, true},
		{"valor abaixo do mínimo", 9.99, 0, false},
		{"valor bem acima do mínimo", 50.00, 2, true},
		{"indicador no teto não ganha o sexto", 10.00, 5, false},
		{"indicador logo abaixo do teto", 10.00, 4, true},
		{"valor e teto falham juntos", 5.00, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, bonusElegivel(tt.valorTotal, 10, tt.gratis, 5))
		})
	}
}

// Mesmo elegível, o bónus não acontece quando todo número livre carrega
// um prémio instantâneo pendente.
func TestBonusSemCandidatoLivre(t *testing.T) {
	vendidos := map[int]bool{0: true, 1: true, 2: true}
	premiados := map[int]bool{3: true, 4: true}

	rng := rand.New(rand.NewSource(5))
	require.Equal(t, -1, pickBonusNumber(rng, 5, vendidos, premiados))
}
