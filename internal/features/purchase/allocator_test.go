package purchase

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"rifa-bot/internal/common"
)

func TestAllocateNumbers(t *testing.T) {
	t.Run("aloca números distintos dentro do intervalo", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))

		numeros, err := AllocateNumbers(rng, 100, 10, map[int]bool{})
		require.NoError(t, err)
		require.Len(t, numeros, 10)

		vistos := make(map[int]bool)
		for _, n := range numeros {
			require.GreaterOrEqual(t, n, 0)
			require.Less(t, n, 100)
			require.False(t, vistos[n], "número %d alocado duas vezes", n)
			vistos[n] = true
		}
	})

	t.Run("nunca aloca números já vendidos", func(t *testing.T) {
		vendidos := map[int]bool{0: true, 3: true, 5: true, 7: true, 9: true, 2: true, 8: true}

		// 10 bilhetes, 7 vendidos, pedindo exatamente os 3 restantes
		rng := rand.New(rand.NewSource(42))
		numeros, err := AllocateNumbers(rng, 10, 3, vendidos)
		require.NoError(t, err)
		require.ElementsMatch(t, []int{1, 4, 6}, numeros)
	})

	t.Run("capacidade insuficiente", func(t *testing.T) {
		vendidos := map[int]bool{0: true, 1: true}

		rng := rand.New(rand.NewSource(1))
		_, err := AllocateNumbers(rng, 5, 4, vendidos)
		require.ErrorIs(t, err, common.ErrCapacityExceeded)
	})

	t.Run("quantidade inválida", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))

		_, err := AllocateNumbers(rng, 10, 0, map[int]bool{})
		require.ErrorIs(t, err, common.ErrInvalidQuantity)

		_, err = AllocateNumbers(rng, 10, -3, map[int]bool{})
		require.ErrorIs(t, err, common.ErrInvalidQuantity)
	})

	t.Run("mesma seed produz a mesma alocação", func(t *testing.T) {
		a, err := AllocateNumbers(rand.New(rand.NewSource(7)), 50, 5, map[int]bool{})
		require.NoError(t, err)
		b, err := AllocateNumbers(rand.New(rand.NewSource(7)), 50, 5, map[int]bool{})
		require.NoError(t, err)
		require.Equal(t, a, b)
	})

	t.Run("esvazia a rifa inteira sem repetir", func(t *testing.T) {
		rng := rand.New(rand.NewSource(3))

		numeros, err := AllocateNumbers(rng, 20, 20, map[int]bool{})
		require.NoError(t, err)
		require.Len(t, numeros, 20)

		vistos := make(map[int]bool)
		for _, n := range numeros {
			vistos[n] = true
		}
		require.Len(t, vistos, 20)
	})
}

func TestPickBonusNumber(t *testing.T) {
	t.Run("exclui vendidos e premiados pendentes", func(t *testing.T) {
		vendidos := map[int]bool{0: true, 1: true}
		premiados := map[int]bool{2: true, 3: true}

		// sobra apenas o 4
		rng := rand.New(rand.NewSource(1))
		n := pickBonusNumber(rng, 5, vendidos, premiados)
		require.Equal(t, 4, n)
	})

	t.Run("sem candidato devolve -1", func(t *testing.T) {
		vendidos := map[int]bool{0: true, 1: true}
		premiados := map[int]bool{2: true}

		rng := rand.New(rand.NewSource(1))
		require.Equal(t, -1, pickBonusNumber(rng, 3, vendidos, premiados))
	})

	t.Run("candidato sempre válido", func(t *testing.T) {
		vendidos := map[int]bool{1: true, 4: true, 7: true}
		premiados := map[int]bool{0: true, 9: true}

		rng := rand.New(rand.NewSource(99))
		for i := 0; i < 50; i++ {
			n := pickBonusNumber(rng, 10, vendidos, premiados)
			require.GreaterOrEqual(t, n, 0)
			require.Less(t, n, 10)
			require.False(t, vendidos[n])
			require.False(t, premiados[n])
		}
	})
}
