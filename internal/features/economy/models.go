// Package economy — models.go описывает структуры счёта и транзакции.
package economy

import "time"

// Account — счёт игрока: баланс и накопительная игровая статистика.
// Мутируется только через транзакции расчёта (SettleGame) и начисления.
type Account struct {
	ID           int64
	UserID       int64
	Balance      int64
	GamesPlayed  int64
	GamesWon     int64
	TotalWagered int64
	TotalWon     int64
	LastPlayAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Transaction — одна запись в истории движения токенов.
// Сумма со знаком: списания отрицательные, начисления положительные.
type Transaction struct {
	ID          int64
	UserID      int64
	Amount      int64
	Type        string
	GameID      *string
	Description string
	CreatedAt   time.Time
}

// Типы транзакций.
const (
	TxStartingBalance = "starting_balance"
	TxBet             = "rps_bet"
	TxPayout          = "rps_payout"
)

// LeaderboardEntry — строка таблицы лидеров.
type LeaderboardEntry struct {
	UserID      int64
	Username    string
	FirstName   string
	Balance     int64
	GamesPlayed int64
	GamesWon    int64
}
