// Package payment gera códigos PIX "copia e cola" (BR Code estático).
// O payload segue o padrão EMV QRCPS-MPM do Banco Central: campos
// id+tamanho+valor concatenados, fechados por um CRC16-CCITT.
package payment

import (
	"fmt"
	"strings"
)

// Limites do padrão BR Code.
const (
	maxMerchantName = 25
	maxMerchantCity = 15
	maxTxID         = 25
)

// Generator monta códigos PIX estáticos com a chave do recebedor.
type Generator struct {
	key          string
	merchantName string
	merchantCity string
}

// NewGenerator cria um gerador de PIX.
func NewGenerator(key, merchantName, merchantCity string) *Generator {
	return &Generator{
		key:          key,
		merchantName: truncate(merchantName, maxMerchantName),
		merchantCity: truncate(merchantCity, maxMerchantCity),
	}
}

// Generate devolve o código "copia e cola" para o valor e a referência
// (id da compra) informados. A referência é normalizada para
// alfanuméricos, como exige o campo txid.
func (g *Generator) Generate(amount float64, reference string) (string, error) {
	if g.key == "" {
		return "", fmt.Errorf("chave PIX não configurada")
	}
	if amount <= 0 {
		return "", fmt.Errorf("valor do PIX deve ser positivo: %.2f", amount)
	}

	txid := sanitizeTxID(reference)
	if txid == "" {
		txid = "***"
	}

	var b strings.Builder
	b.WriteString(emv("00", "01")) // payload format indicator

	// Merchant Account Information (PIX)
	account := emv("00", "br.gov.bcb.pix") + emv("01", g.key)
	b.WriteString(emv("26", account))

	b.WriteString(emv("52", "0000")) // merchant category code
	b.WriteString(emv("53", "986"))  // moeda: BRL
	b.WriteString(emv("54", fmt.Sprintf("%.2f", amount)))
	b.WriteString(emv("58", "BR"))
	b.WriteString(emv("59", g.merchantName))
	b.WriteString(emv("60", g.merchantCity))
	b.WriteString(emv("62", emv("05", txid))) // additional data: txid

	// O CRC cobre o payload inteiro, incluindo o próprio "6304"
	payload := b.String() + "6304"
	return payload + fmt.Sprintf("%04X", crc16(payload)), nil
}

// emv monta um campo id + tamanho (2 dígitos) + valor.
func emv(id, value string) string {
	return fmt.Sprintf("%s%02d%s", id, len(value), value)
}

// sanitizeTxID remove tudo que não for alfanumérico e corta em 25 chars.
func sanitizeTxID(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return truncate(b.String(), maxTxID)
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

// crc16 calcula o CRC16-CCITT (polinômio 0x1021, inicial 0xFFFF) exigido
// pelo campo 63 do BR Code.
func crc16(s string) uint16 {
	crc := uint16(0xFFFF)
	for i := 0; i < len(s); i++ {
		crc ^= uint16(s[i]) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
