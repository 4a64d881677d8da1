// Package common contém utilitários partilhados por todo o projeto:
// formatação de valores em reais, datas no fuso de São Paulo e
// pluralização de "bilhete".
package common

import (
	"fmt"
	"strings"
	"time"
)

// FormatPrice formata um valor em reais no padrão brasileiro.
//
// Exemplos:
//
//	FormatPrice(1.5)    → "R$ 1,50"
//	FormatPrice(1234.5) → "R$ 1.234,50"
func FormatPrice(valor float64) string {
	neg := valor < 0
	if neg {
		valor = -valor
	}

	cents := int64(valor*100 + 0.5)
	inteiro := cents / 100
	resto := cents % 100

	s := fmt.Sprintf("%s,%02d", groupThousands(inteiro), resto)
	if neg {
		return "-R$ " + s
	}
	return "R$ " + s
}

// groupThousands insere pontos como separadores de milhar.
// Exemplo: 1234567 → "1.234.567"
func groupThousands(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s.%03d", groupThousands(n/1000), n%1000)
}

// PluralizeBilhetes devolve "bilhete" ou "bilhetes" conforme n.
func PluralizeBilhetes(n int) string {
	if n == 1 {
		return "bilhete"
	}
	return "bilhetes"
}

// FormatBilhetes cria uma string como "3 bilhetes" ou "1 bilhete".
func FormatBilhetes(n int) string {
	return fmt.Sprintf("%d %s", n, PluralizeBilhetes(n))
}

// JoinNumeros junta números de bilhete num bloco legível: "07, 23, 41".
func JoinNumeros(numeros []string) string {
	return strings.Join(numeros, ", ")
}

// SaoPauloLocation devolve o fuso America/Sao_Paulo.
// Se a tzdata não estiver disponível no container, cai para UTC-3 fixo.
func SaoPauloLocation() *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		loc = time.FixedZone("BRT", -3*60*60)
	}
	return loc
}

// SaoPauloNow devolve o horário atual no fuso de São Paulo.
func SaoPauloNow() time.Time {
	return time.Now().In(SaoPauloLocation())
}

// FormatDate formata uma data como "02/01/2006" no fuso de São Paulo.
// Usado na mensagem pública quando o sorteio da loteria é agendado.
func FormatDate(t time.Time) string {
	return t.In(SaoPauloLocation()).Format("02/01/2006")
}

// FormatDateTime formata data e hora como "02/01/2006 15:04".
func FormatDateTime(t time.Time) string {
	return t.In(SaoPauloLocation()).Format("02/01/2006 15:04")
}
