package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		valor float64
		want  string
	}{
		{1.5, "R$ 1,50"},
		{10, "R$ 10,00"},
		{0, "R$ 0,00"},
		{1234.5, "R$ 1.234,50"},
		{1234567.89, "R$ 1.234.567,89"},
		{0.1, "R$ 0,10"},
		{-5.25, "-R$ 5,25"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, FormatPrice(tt.valor), "valor=%v", tt.valor)
	}
}

func TestFormatBilhetes(t *testing.T) {
	require.Equal(t, "1 bilhete", FormatBilhetes(1))
	require.Equal(t, "0 bilhetes", FormatBilhetes(0))
	require.Equal(t, "5 bilhetes", FormatBilhetes(5))
}

func TestJoinNumeros(t *testing.T) {
	require.Equal(t, "07, 23, 41", JoinNumeros([]string{"07", "23", "41"}))
	require.Equal(t, "007", JoinNumeros([]string{"007"}))
	require.Equal(t, "", JoinNumeros(nil))
}

func TestFormatDate(t *testing.T) {
	// meio-dia UTC cai no mesmo dia em São Paulo (UTC-3)
	d := time.Date(2026, time.September, 2, 12, 0, 0, 0, time.UTC)
	require.Equal(t, "02/09/2026", FormatDate(d))
}
