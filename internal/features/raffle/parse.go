// Package raffle — parse.go interpreta os campos livres do comando de
// criação: o método de sorteio ("interno" ou "loteria:75") e as linhas de
// prémios secundários ("TOP 1: ..." / "BILHETE 3X: ...").
package raffle

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var qtdBilhetePremioRe = regexp.MustCompile(`(\d+)X`)

// ParseMetodo interpreta o campo de método de sorteio.
//
// Formatos aceites:
//   - "interno"     → método interno, sem meta
//   - "loteria:75"  → método loteria com meta de 75% de vendas
func ParseMetodo(input string) (string, *float64, error) {
	input = strings.ToLower(strings.TrimSpace(input))

	if input == MetodoInterno {
		return MetodoInterno, nil, nil
	}
	if strings.HasPrefix(input, MetodoLoteria) {
		parts := strings.SplitN(input, ":", 2)
		if len(parts) < 2 {
			return "", nil, fmt.Errorf("formato inválido, use 'loteria:75' (para 75%% de meta)")
		}
		meta, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil || meta < 1 || meta > 100 {
			return "", nil, fmt.Errorf("a meta da loteria deve ser um número entre 1 e 100")
		}
		meta = meta / 100.0
		return MetodoLoteria, &meta, nil
	}
	return "", nil, fmt.Errorf("método inválido, use 'interno' ou 'loteria:META'")
}

// ParsePremiosSecundarios interpreta o bloco de prémios secundários, uma
// linha por prémio:
//
//	TOP 1: Fone de ouvido
//	BILHETE 3X: R$ 20 no PIX
//	BILHETE: Camiseta
//
// Devolve o mapa de prémios TOP (posição → descrição) e a lista de
// especificações de bilhetes premiados. maxPerLine limita a quantidade de
// bilhetes premiados iguais numa linha.
func ParsePremiosSecundarios(input string, maxPerLine int) (map[string]string, []PrizeSpec, error) {
	topPremios := make(map[string]string)
	var premiosBilhete []PrizeSpec

	for _, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) < 2 {
			return nil, nil, fmt.Errorf("formato inválido nos prémios, use 'TIPO: descrição' (linha: %q)", line)
		}
		tipo := strings.ToUpper(strings.TrimSpace(parts[0]))
		desc := strings.TrimSpace(parts[1])

		switch {
		case strings.HasPrefix(tipo, "TOP"):
			pos := strings.TrimSpace(strings.TrimPrefix(tipo, "TOP"))
			if pos != "1" && pos != "2" && pos != "3" {
				return nil, nil, fmt.Errorf("prémio TOP inválido, use 'TOP 1', 'TOP 2' ou 'TOP 3' (erro: %s)", tipo)
			}
			topPremios[pos] = desc

		case strings.HasPrefix(tipo, "BILHETE"):
			qtd := 1
			if m := qtdBilhetePremioRe.FindStringSubmatch(tipo); m != nil {
				var err error
				qtd, err = strconv.Atoi(m[1])
				if err != nil || qtd <= 0 {
					return nil, nil, fmt.Errorf("quantidade de bilhete prémio inválida (erro: %s)", tipo)
				}
			}
			if qtd > maxPerLine {
				return nil, nil, fmt.Errorf("não pode definir mais de %d bilhetes premiados do mesmo tipo", maxPerLine)
			}
			premiosBilhete = append(premiosBilhete, PrizeSpec{Qtd: qtd, Desc: desc})

		default:
			return nil, nil, fmt.Errorf("tipo de prémio inválido, use 'TOP' ou 'BILHETE' (erro: %s)", tipo)
		}
	}

	return topPremios, premiosBilhete, nil
}
