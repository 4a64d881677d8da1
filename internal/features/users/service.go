// Package users — service.go contém a lógica de registo e de códigos de
// indicação.
package users

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"

	"rifa-bot/internal/common"
)

var emailRegex = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Service gere os utilizadores do sistema de rifas.
type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Register regista um novo utilizador e devolve o código de indicação
// gerado. Erros possíveis: common.ErrInvalidName, common.ErrInvalidEmail,
// common.ErrAlreadyRegistered.
func (s *Service) Register(ctx context.Context, userID int64, nome, email string) (string, error) {
	nome = strings.TrimSpace(nome)
	email = strings.TrimSpace(email)

	if nome == "" {
		return "", fmt.Errorf("%w: nome vazio", common.ErrInvalidName)
	}
	if !emailRegex.MatchString(email) {
		return "", common.ErrInvalidEmail
	}

	code, err := s.generateUniqueReferralCode(ctx, nome)
	if err != nil {
		return "", err
	}

	u := &Usuario{
		UserID:       userID,
		Nome:         nome,
		Email:        email,
		ReferralCode: &code,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return "", err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"nome":    nome,
		"code":    code,
	}).Info("Novo utilizador registado")

	return code, nil
}

// GetByUserID devolve o utilizador pelo Telegram user ID.
func (s *Service) GetByUserID(ctx context.Context, userID int64) (*Usuario, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// GetByReferralCode resolve um código de indicação para o seu dono.
func (s *Service) GetByReferralCode(ctx context.Context, code string) (*Usuario, error) {
	return s.repo.GetByReferralCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

// EnsureReferralCode devolve o código do utilizador, gerando e gravando um
// novo se a conta for antiga e ainda não tiver (geração preguiçosa).
func (s *Service) EnsureReferralCode(ctx context.Context, userID int64) (string, error) {
	u, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if u.ReferralCode != nil && *u.ReferralCode != "" {
		return *u.ReferralCode, nil
	}

	code, err := s.generateUniqueReferralCode(ctx, u.Nome)
	if err != nil {
		return "", err
	}
	if err := s.repo.SetReferralCode(ctx, userID, code); err != nil {
		return "", err
	}

	log.WithField("user_id", userID).Info("Código de indicação gerado para conta antiga")
	return code, nil
}

// generateUniqueReferralCode tenta o código baseado no nome; se já estiver
// em uso, cai para um código aleatório maior com prefixo USER.
func (s *Service) generateUniqueReferralCode(ctx context.Context, nome string) (string, error) {
	suffix, err := randomHex(2)
	if err != nil {
		return "", err
	}
	code := buildReferralCode(nome, suffix)

	exists, err := s.repo.ReferralCodeExists(ctx, code)
	if err != nil {
		// Falha não crítica na verificação: segue com o código gerado,
		// a constraint UNIQUE na BD é a garantia final.
		log.WithError(err).Warn("Falha ao verificar colisão de código de indicação")
		return code, nil
	}
	if !exists {
		return code, nil
	}

	suffix, err = randomHex(3)
	if err != nil {
		return "", err
	}
	return "USER-" + strings.ToUpper(suffix), nil
}
