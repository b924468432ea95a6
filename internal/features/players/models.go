// Package players — models.go описывает структуру игрока.
package players

import "time"

// Player — зарегистрированный игрок.
// Балансы и игровая статистика живут в пакете economy,
// здесь только личность и флаг бана.
type Player struct {
	ID           int64
	UserID       int64 // Telegram ID
	Username     string
	FirstName    string
	LastName     string
	IsBanned     bool
	RegisteredAt time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName возвращает имя для показа: @username, если есть, иначе имя.
func (p *Player) DisplayName() string {
	if p.Username != "" {
		return "@" + p.Username
	}
	return p.FirstName
}
