package rps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/flipflop-games/rpsbot/internal/common"
	"github.com/flipflop-games/rpsbot/internal/features/economy"
	"github.com/flipflop-games/rpsbot/internal/features/players"
)

func TestGate_Check(t *testing.T) {
	gate := NewGate(time.Hour)

	tests := []struct {
		name         string
		banned       bool
		gamesPlayed  int64
		registeredAt time.Time
		wantErr      error
	}{
		{
			name:         "свежий аккаунт на кулдауне",
			registeredAt: time.Now().Add(-10 * time.Minute),
			wantErr:      common.ErrNotEligible,
		},
		{
			name:         "свежий аккаунт после кулдауна",
			registeredAt: time.Now().Add(-2 * time.Hour),
		},
		{
			name:         "история игр снимает кулдаун",
			gamesPlayed:  1,
			registeredAt: time.Now(),
		},
		{
			name:         "бан сильнее истории",
			banned:       true,
			gamesPlayed:  50,
			registeredAt: time.Now().Add(-24 * time.Hour),
			wantErr:      common.ErrBanned,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &players.Player{IsBanned: tt.banned, RegisteredAt: tt.registeredAt}
			a := &economy.Account{GamesPlayed: tt.gamesPlayed}

			err := gate.Check(p, a)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
