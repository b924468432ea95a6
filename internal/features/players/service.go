// Package players — service.go содержит бизнес-логику работы с игроками.
package players

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Service управляет игроками.
type Service struct {
	repo *Repository
}

// NewService создаёт новый сервис игроков.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Register регистрирует игрока (или обновляет имя существующего).
// Возвращает true, если игрок был создан впервые.
func (s *Service) Register(ctx context.Context, p *Player) (bool, error) {
	existed, err := s.repo.Exists(ctx, p.UserID)
	if err != nil {
		return false, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return false, err
	}

	if !existed {
		log.WithFields(log.Fields{
			"user_id":  p.UserID,
			"username": p.Username,
		}).Info("Зарегистрирован новый игрок")
	}
	return !existed, nil
}

// GetByUserID возвращает игрока по Telegram ID.
func (s *Service) GetByUserID(ctx context.Context, userID int64) (*Player, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// Ban мягко банит игрока: аккаунт остаётся, играть нельзя.
func (s *Service) Ban(ctx context.Context, userID int64) error {
	return s.repo.SetBanned(ctx, userID, true)
}

// Unban снимает бан.
func (s *Service) Unban(ctx context.Context, userID int64) error {
	return s.repo.SetBanned(ctx, userID, false)
}
