// Package rps — models.go описывает ходы, исходы и жизненный цикл игры
// «камень-ножницы-бумага» против дома.
package rps

import (
	"strings"
	"time"

	"github.com/flipflop-games/rpsbot/internal/common"
)

// Move — ход игрока или дома.
type Move string

const (
	MoveRock     Move = "ROCK"
	MovePaper    Move = "PAPER"
	MoveScissors Move = "SCISSORS"
)

// moveByIndex — порядок фиксирован протоколом: ROCK(0), PAPER(1), SCISSORS(2).
// Ход дома = выведенное значение mod 3 по этому порядку.
var moveByIndex = [3]Move{MoveRock, MovePaper, MoveScissors}

// MoveFromIndex возвращает ход по каноническому индексу 0..2.
func MoveFromIndex(i int) Move {
	return moveByIndex[i%3]
}

// Index возвращает канонический индекс хода.
func (m Move) Index() int {
	switch m {
	case MoveRock:
		return 0
	case MovePaper:
		return 1
	default:
		return 2
	}
}

// Valid проверяет, что ход — один из трёх допустимых.
func (m Move) Valid() bool {
	return m == MoveRock || m == MovePaper || m == MoveScissors
}

// Russian возвращает русское название хода для сообщений бота.
func (m Move) Russian() string {
	switch m {
	case MoveRock:
		return "камень"
	case MovePaper:
		return "бумага"
	case MoveScissors:
		return "ножницы"
	default:
		return string(m)
	}
}

// ParseMove разбирает ход из пользовательского ввода.
// Принимаются английские и русские названия в любом регистре.
func ParseMove(s string) (Move, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rock", "камень", "к":
		return MoveRock, nil
	case "paper", "бумага", "б":
		return MovePaper, nil
	case "scissors", "ножницы", "н":
		return MoveScissors, nil
	default:
		return "", common.ErrInvalidMove
	}
}

// Outcome — исход игры с точки зрения игрока.
type Outcome string

const (
	OutcomeWin  Outcome = "WIN"
	OutcomeLose Outcome = "LOSE"
	OutcomeTie  Outcome = "TIE"
)

// GameState — состояние игры. Движение строго вперёд:
// PENDING → COMMITTED → VERIFIED → COMPLETED.
// Раскрытие и фиксация исхода — один переход COMMITTED → VERIFIED:
// промежуточного состояния «раскрыто, но исход не записан» не бывает,
// падение процесса не может в нём застрять. Мгновенный режим схлопывает
// всё в одну атомарную вставку COMPLETED.
type GameState string

const (
	StatePending   GameState = "PENDING"
	StateCommitted GameState = "COMMITTED"
	StateVerified  GameState = "VERIFIED"
	StateCompleted GameState = "COMPLETED"
)

// Game — одна игра против дома.
// После COMPLETED запись неизменяема.
type Game struct {
	ID             string
	UserID         int64
	Wager          int64
	CommitmentHash string // пусто в мгновенном режиме
	RevealSalt     string // hex-соль, сохраняется при раскрытии
	PlayerMove     Move   // пусто, пока не раскрыт
	HouseMove      Move   // пусто, пока случайность не разрешилась
	Outcome        Outcome
	Payout         int64
	State          GameState
	// BatchID/BatchIndex — слот игры в батче случайности (только двухфазный режим)
	BatchID    *int64
	BatchIndex *int
	// Verified — ход дома выведен из внешнего оракула (true)
	// или из локального fallback-генератора (false)
	Verified    bool
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// Reveal — полный результат раскрытия, записываемый в игру одним
// переходом COMMITTED → VERIFIED.
type Reveal struct {
	PlayerMove Move
	SaltHex    string
	HouseMove  Move
	Outcome    Outcome
	Payout     int64
	Verified   bool
}

// Receipt — квитанция расчёта, возвращаемая игроку.
type Receipt struct {
	GameID          string
	PlayerMove      Move
	HouseMove       Move
	Outcome         Outcome
	Wager           int64
	Payout          int64
	PreviousBalance int64
	NewBalance      int64
	Verified        bool
}
