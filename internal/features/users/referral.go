// Package users — referral.go gera os códigos de indicação.
// Formato: prefixo derivado do primeiro nome + sufixo hexadecimal
// aleatório ("MARIA-3F0A"). Em caso de colisão (raríssimo), cai para um
// código totalmente aleatório com prefixo "USER".
package users

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

const namePrefixLen = 5

// buildReferralCode monta um código a partir do nome, com o sufixo dado.
// Só letras A-Z entram no prefixo; nomes sem letras latinas caem em "USER".
func buildReferralCode(nome, suffix string) string {
	primeiro := strings.ToUpper(strings.SplitN(strings.TrimSpace(nome), " ", 2)[0])
	var b strings.Builder
	for _, r := range primeiro {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
		if b.Len() >= namePrefixLen {
			break
		}
	}
	prefix := b.String()
	if prefix == "" {
		prefix = "USER"
	}
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(suffix))
}

// randomHex devolve n bytes aleatórios em hexadecimal.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("erro ao gerar bytes aleatórios: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
