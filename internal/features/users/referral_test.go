package users

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildReferralCode(t *testing.T) {
	tests := []struct {
		name   string
		nome   string
		suffix string
		want   string
	}{
		{
			name:   "primeiro nome vira prefixo",
			nome:   "Maria da Silva",
			suffix: "3f0a",
			want:   "MARIA-3F0A",
		},
		{
			name:   "prefixo corta em 5 letras",
			nome:   "Wellington Souza",
			suffix: "ab12",
			want:   "WELLI-AB12",
		},
		{
			name:   "caracteres fora de A-Z são descartados",
			nome:   "Ana-Júlia",
			suffix: "ff00",
			want:   "ANAJL-FF00",
		},
		{
			name:   "nome sem letras latinas cai em USER",
			nome:   "小林",
			suffix: "0101",
			want:   "USER-0101",
		},
		{
			name:   "nome vazio cai em USER",
			nome:   "   ",
			suffix: "beef",
			want:   "USER-BEEF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, buildReferralCode(tt.nome, tt.suffix))
		})
	}
}

func TestRandomHex(t *testing.T) {
	hexRe := regexp.MustCompile(`^[0-9a-f]+$`)

	a, err := randomHex(2)
	require.NoError(t, err)
	require.Len(t, a, 4)
	require.Regexp(t, hexRe, a)

	b, err := randomHex(3)
	require.NoError(t, err)
	require.Len(t, b, 6)
}
