package raffle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMetodo(t *testing.T) {
	t.Run("interno", func(t *testing.T) {
		metodo, meta, err := ParseMetodo(" Interno ")
		require.NoError(t, err)
		require.Equal(t, MetodoInterno, metodo)
		require.Nil(t, meta)
	})

	t.Run("loteria com meta", func(t *testing.T) {
		metodo, meta, err := ParseMetodo("loteria:75")
		require.NoError(t, err)
		require.Equal(t, MetodoLoteria, metodo)
		require.NotNil(t, meta)
		require.InDelta(t, 0.75, *meta, 1e-9)
	})

	t.Run("loteria com 100%", func(t *testing.T) {
		_, meta, err := ParseMetodo("loteria:100")
		require.NoError(t, err)
		require.InDelta(t, 1.0, *meta, 1e-9)
	})

	t.Run("inválidos", func(t *testing.T) {
		for _, input := range []string{"loteria", "loteria:0", "loteria:101", "loteria:abc", "sorteio", ""} {
			_, _, err := ParseMetodo(input)
			require.Error(t, err, "input=%q", input)
		}
	})
}

func TestParsePremiosSecundarios(t *testing.T) {
	t.Run("bloco completo", func(t *testing.T) {
		input := "TOP 1: Fone de ouvido\n" +
			"TOP 2: Caneca\n" +
			"BILHETE 3X: R$ 20 no PIX\n" +
			"BILHETE: Camiseta\n"

		top, specs, err := ParsePremiosSecundarios(input, 50)
		require.NoError(t, err)
		require.Equal(t, map[string]string{"1": "Fone de ouvido", "2": "Caneca"}, top)
		require.Equal(t, []PrizeSpec{
			{Qtd: 3, Desc: "R$ 20 no PIX"},
			{Qtd: 1, Desc: "Camiseta"},
		}, specs)
	})

	t.Run("linhas vazias são ignoradas", func(t *testing.T) {
		top, specs, err := ParsePremiosSecundarios("\n\nTOP 1: Algo\n\n", 50)
		require.NoError(t, err)
		require.Len(t, top, 1)
		require.Empty(t, specs)
	})

	t.Run("posição TOP fora de 1..3", func(t *testing.T) {
		_, _, err := ParsePremiosSecundarios("TOP 4: Nada", 50)
		require.Error(t, err)
	})

	t.Run("quantidade acima do limite por linha", func(t *testing.T) {
		_, _, err := ParsePremiosSecundarios("BILHETE 51X: R$ 5", 50)
		require.Error(t, err)
	})

	t.Run("linha sem dois-pontos", func(t *testing.T) {
		_, _, err := ParsePremiosSecundarios("BILHETE R$ 20", 50)
		require.Error(t, err)
	})

	t.Run("tipo desconhecido", func(t *testing.T) {
		_, _, err := ParsePremiosSecundarios("EXTRA: brinde", 50)
		require.Error(t, err)
	})
}
