// Package rps — eligibility.go: допуск аккаунта к игре.
package rps

import (
	"time"

	"github.com/flipflop-games/rpsbot/internal/common"
	"github.com/flipflop-games/rpsbot/internal/features/economy"
	"github.com/flipflop-games/rpsbot/internal/features/players"
)

// Gate решает, может ли аккаунт начать новую игру.
// Только чтение, никаких побочных эффектов.
//
// Свежие аккаунты без единой сыгранной игры держатся на кулдауне:
// стартовый баланс раздаётся бесплатно, и без задержки его выгодно
// фармить сибил-аккаунтами. Аккаунт с игровой историей не наказывается
// никогда, сколько бы ни молчал.
type Gate struct {
	cooldown time.Duration
}

// NewGate создаёт гейт с заданным кулдауном новых аккаунтов.
func NewGate(cooldown time.Duration) *Gate {
	return &Gate{cooldown: cooldown}
}

// Check возвращает nil, если игроку можно играть.
func (g *Gate) Check(p *players.Player, a *economy.Account) error {
	if p.IsBanned {
		return common.ErrBanned
	}
	if a.GamesPlayed == 0 && time.Since(p.RegisteredAt) < g.cooldown {
		return common.ErrNotEligible
	}
	return nil
}
