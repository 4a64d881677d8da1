package raffle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPaddingFor(t *testing.T) {
	tests := []struct {
		total int
		want  int
	}{
		{10, 1},    // "0".."9"
		{100, 2},   // "00".."99"
		{150, 3},   // "000".."149"
		{1000, 3},  // "000".."999"
		{1001, 4},  // "0000".."1000"
		{10000, 4}, // "0000".."9999"
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, PaddingFor(tt.total), "total=%d", tt.total)
	}
}

func TestFormatNumero(t *testing.T) {
	require.Equal(t, "007", FormatNumero(7, 3))
	require.Equal(t, "45", FormatNumero(45, 2))
	require.Equal(t, "0", FormatNumero(0, 1))
	require.Equal(t, "0042", FormatNumero(42, 4))
}

func TestAcceptsPurchases(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{StatusAtiva, true},
		// vendas continuam até o dia do sorteio da loteria
		{StatusAguardandoSorteio, true},
		{StatusFinalizada, false},
		{StatusCancelada, false},
	}
	for _, tt := range tests {
		r := &Rifa{Status: tt.status}
		require.Equal(t, tt.want, r.AcceptsPurchases(), "status=%s", tt.status)
	}
}
