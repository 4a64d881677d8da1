//go:build ignore

// gen_pix.go — utilitário para conferir o payload PIX gerado pelo bot.
// Uso: go run scripts/gen_pix.go <chave> <nome> <cidade> <valor> <referência>
//
// Cole o resultado num app de banco para validar o copia-e-cola.
package main

import (
	"fmt"
	"os"
	"strconv"

	"rifa-bot/internal/features/payment"
)

func main() {
	if len(os.Args) != 6 {
		fmt.Println("Uso: go run scripts/gen_pix.go <chave> <nome> <cidade> <valor> <referência>")
		os.Exit(1)
	}

	valor, err := strconv.ParseFloat(os.Args[4], 64)
	if err != nil || valor <= 0 {
		fmt.Printf("Valor inválido: %s\n", os.Args[4])
		os.Exit(1)
	}

	gen := payment.NewGenerator(os.Args[1], os.Args[2], os.Args[3])
	payload, err := gen.Generate(valor, os.Args[5])
	if err != nil {
		fmt.Printf("Erro ao gerar payload: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(payload)
}
