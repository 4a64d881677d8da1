// Package users gere os utilizadores do sistema de rifas: registo com nome
// e email, e o código de indicação usado no programa de bónus.
// models.go descreve as estruturas da tabela usuarios.
package users

import "time"

// Usuario representa um utilizador registado.
// O registo é feito uma única vez via /cadastro na DM do bot.
type Usuario struct {
	ID           int64     `db:"id"`            // ID autoincrementado na BD
	UserID       int64     `db:"user_id"`       // Telegram user ID (único)
	Nome         string    `db:"nome"`          // Nome completo informado no registo
	Email        string    `db:"email"`         // Email (único)
	ReferralCode *string   `db:"referral_code"` // Código de indicação (único; gerado no registo, ou sob demanda para contas antigas)
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
