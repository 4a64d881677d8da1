// Package common — errors.go define os erros de negócio usados em todos os
// módulos do bot. São erros-sentinela: os serviços devolvem-nos (possivelmente
// embrulhados com %w) e os handlers traduzem cada um numa mensagem amigável
// para o utilizador.
package common

import "errors"

// Erros de "não encontrado"
var (
	// ErrRifaNotFound — a rifa não existe na base de dados
	ErrRifaNotFound = errors.New("rifa não encontrada")
	// ErrCompraNotFound — a compra não existe na base de dados
	ErrCompraNotFound = errors.New("compra não encontrada")
	// ErrUsuarioNotFound — o utilizador não está registado
	ErrUsuarioNotFound = errors.New("utilizador não registado")
	// ErrIndicadorNotFound — o código de indicação não corresponde a ninguém
	ErrIndicadorNotFound = errors.New("código de indicação não encontrado")
)

// Erros de estado (ciclo de vida da rifa / da compra)
var (
	// ErrInvalidState — operação tentada num estado errado
	// (ex.: aprovar compra já aprovada, sortear rifa finalizada)
	ErrInvalidState = errors.New("operação inválida para o estado atual")
	// ErrRifaClosed — a rifa não aceita novas compras
	ErrRifaClosed = errors.New("esta rifa não está aceitando compras")
)

// Erros de alocação e sorteio
var (
	// ErrCapacityExceeded — bilhetes insuficientes para a quantidade pedida
	ErrCapacityExceeded = errors.New("bilhetes insuficientes")
	// ErrNoTicketsSold — nenhum bilhete aprovado para sortear
	ErrNoTicketsSold = errors.New("nenhum bilhete aprovado nesta rifa")
	// ErrPrizePoolExhausted — espaço de bilhetes pequeno demais para os prémios pedidos
	ErrPrizePoolExhausted = errors.New("pool de bilhetes esgotado ao gerar prémios instantâneos")
)

// Erros de entrada
var (
	// ErrInvalidQuantity — quantidade não positiva
	ErrInvalidQuantity = errors.New("a quantidade deve ser um número positivo")
	// ErrInvalidDrawNumber — número sorteado com caracteres não numéricos
	ErrInvalidDrawNumber = errors.New("o número sorteado deve conter apenas dígitos")
	// ErrOwnReferralCode — tentativa de usar o próprio código de indicação
	ErrOwnReferralCode = errors.New("não pode usar o seu próprio código de indicação")
	// ErrInvalidName — nome vazio ou ilegível no cadastro
	ErrInvalidName = errors.New("nome inválido")
	// ErrInvalidEmail — email com formato inválido
	ErrInvalidEmail = errors.New("email com formato inválido")
	// ErrAlreadyRegistered — utilizador já registado
	ErrAlreadyRegistered = errors.New("utilizador já registado")
)

// Erros de concorrência
var (
	// ErrConcurrencyConflict — transação abortada por conflito de serialização
	// ou timeout de lock; quem chamou deve tentar de novo
	ErrConcurrencyConflict = errors.New("conflito de concorrência, tente novamente")
)
