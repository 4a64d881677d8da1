package purchase

import (
	"math/rand"

	"rifa-bot/internal/common"
)

// AllocateNumbers sorteia `quantidade` números distintos no intervalo
// [0, totalBilhetes), excluindo os já vendidos. Constrói o pool de
// disponíveis, embaralha com Fisher–Yates e consome os primeiros.
//
// Devolve ErrCapacityExceeded se não houver números livres suficientes.
// A função é pura em relação ao rng: o mesmo seed produz a mesma alocação.
func AllocateNumbers(rng *rand.Rand, totalBilhetes, quantidade int, vendidos map[int]bool) ([]int, error) {
	if quantidade <= 0 {
		return nil, common.ErrInvalidQuantity
	}

	disponiveis := make([]int, 0, totalBilhetes-len(vendidos))
	for n := 0; n < totalBilhetes; n++ {
		if !vendidos[n] {
			disponiveis = append(disponiveis, n)
		}
	}
	if quantidade > len(disponiveis) {
		return nil, common.ErrCapacityExceeded
	}

	rng.Shuffle(len(disponiveis), func(i, j int) {
		disponiveis[i], disponiveis[j] = disponiveis[j], disponiveis[i]
	})
	return disponiveis[:quantidade], nil
}

// pickBonusNumber escolhe um número livre para o bilhete bónus de
// indicação, excluindo vendidos E números com prémio instantâneo ainda
// pendente — o bónus nunca resgata um prémio reservado aos compradores.
// Devolve -1 quando não sobra nenhum candidato.
func pickBonusNumber(rng *rand.Rand, totalBilhetes int, vendidos map[int]bool, premiados map[int]bool) int {
	candidatos := make([]int, 0, totalBilhetes)
	for n := 0; n < totalBilhetes; n++ {
		if !vendidos[n] && !premiados[n] {
			candidatos = append(candidatos, n)
		}
	}
	if len(candidatos) == 0 {
		return -1
	}
	return candidatos[rng.Intn(len(candidatos))]
}
