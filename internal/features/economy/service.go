// Package economy — service.go содержит бизнес-логику экономики:
// создание счетов, балансы, история транзакций.
// Сам атомарный расчёт игры живёт в repository.SettleGame и вызывается
// сервисом rps через интерфейс Settler.
package economy

import (
	"context"
	"fmt"
	"strings"

	"github.com/flipflop-games/rpsbot/internal/common"
	"github.com/flipflop-games/rpsbot/internal/config"
)

// Service управляет экономикой бота (токены).
type Service struct {
	repo *Repository
	cfg  *config.Config
}

// NewService создаёт новый сервис экономики.
func NewService(repo *Repository, cfg *config.Config) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// CreateAccount создаёт счёт для нового игрока со стартовым балансом.
// Идемпотентно: повторная регистрация не даёт второго стартового начисления.
func (s *Service) CreateAccount(ctx context.Context, userID int64) error {
	return s.repo.CreateAccount(ctx, userID, s.cfg.EconomyStartingBalance)
}

// GetBalance возвращает текущий баланс игрока.
func (s *Service) GetBalance(ctx context.Context, userID int64) (int64, error) {
	return s.repo.GetBalance(ctx, userID)
}

// GetAccount возвращает счёт игрока со статистикой.
func (s *Service) GetAccount(ctx context.Context, userID int64) (*Account, error) {
	return s.repo.GetAccount(ctx, userID)
}

// Leaderboard возвращает топ игроков по балансу.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]*LeaderboardEntry, error) {
	if limit <= 0 || limit > 25 {
		limit = 10
	}
	return s.repo.Leaderboard(ctx, limit)
}

// GetTransactionHistory возвращает форматированную историю транзакций.
// Последние 10 операций.
func (s *Service) GetTransactionHistory(ctx context.Context, userID int64) (string, error) {
	transactions, err := s.repo.GetTransactions(ctx, userID, 10)
	if err != nil {
		return "", err
	}

	if len(transactions) == 0 {
		return "📋 У вас пока нет транзакций", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 Последние %d операций:\n\n", len(transactions)))
	for i, tx := range transactions {
		sb.WriteString(fmt.Sprintf("%d. %s | %s | %s\n",
			i+1,
			common.FormatDateTime(tx.CreatedAt),
			common.FormatAmount(tx.Amount),
			tx.Description,
		))
	}
	return sb.String(), nil
}
