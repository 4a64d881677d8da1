package payment

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCRC16(t *testing.T) {
	// vetor de teste clássico do CRC16-CCITT (0xFFFF inicial, poly 0x1021)
	require.Equal(t, uint16(0x29B1), crc16("123456789"))
}

func TestEMVField(t *testing.T) {
	require.Equal(t, "000201", emv("00", "01"))
	require.Equal(t, "5802BR", emv("58", "BR"))
	require.Equal(t, "0014br.gov.bcb.pix", emv("00", "br.gov.bcb.pix"))
}

func TestGenerate(t *testing.T) {
	gen := NewGenerator("chave@exemplo.com", "Rifas do Bairro", "SAO PAULO")

	payload, err := gen.Generate(52.5, "RIFA3C17")
	require.NoError(t, err)

	// estrutura do BR Code
	require.True(t, strings.HasPrefix(payload, "000201"), "deve começar pelo payload format indicator")
	require.Contains(t, payload, "br.gov.bcb.pix")
	require.Contains(t, payload, "chave@exemplo.com")
	require.Contains(t, payload, "5303986")      // moeda BRL
	require.Contains(t, payload, "540552.50")    // valor com 2 casas
	require.Contains(t, payload, "5802BR")
	require.Contains(t, payload, "RIFA3C17")

	// CRC final: "6304" + 4 dígitos hexadecimais, e deve conferir
	require.Len(t, payload[len(payload)-8:], 8)
	base := payload[:len(payload)-4]
	require.True(t, strings.HasSuffix(base, "6304"))
	require.Equal(t, fmt.Sprintf("%04X", crc16(base)), payload[len(payload)-4:])
}

func TestGenerateValidation(t *testing.T) {
	t.Run("valor não positivo", func(t *testing.T) {
		gen := NewGenerator("chave", "Nome", "Cidade")
		_, err := gen.Generate(0, "X")
		require.Error(t, err)
		_, err = gen.Generate(-1, "X")
		require.Error(t, err)
	})

	t.Run("chave vazia", func(t *testing.T) {
		gen := NewGenerator("", "Nome", "Cidade")
		_, err := gen.Generate(10, "X")
		require.Error(t, err)
	})

	t.Run("nome e cidade são truncados aos limites do padrão", func(t *testing.T) {
		gen := NewGenerator("chave",
			"Um Nome De Comerciante Excessivamente Longo",
			"Uma Cidade Com Nome Longo")

		payload, err := gen.Generate(10, "X")
		require.NoError(t, err)
		require.Contains(t, payload, "Um Nome De Comerciante Ex")
		require.NotContains(t, payload, "Excessivamente")
	})
}

func TestSanitizeTxID(t *testing.T) {
	require.Equal(t, "RIFA3C17", sanitizeTxID("RIFA3C17"))
	require.Equal(t, "RIFA3C17", sanitizeTxID("RIFA#3_C-17"))
	require.Equal(t, "", sanitizeTxID("***"))
	require.Len(t, sanitizeTxID(strings.Repeat("A", 40)), 25)
}
