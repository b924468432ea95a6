package rps

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Полный перебор всех 9 комбинаций: камень бьёт ножницы,
// бумага бьёт камень, ножницы бьют бумагу, равные ходы — ничья.
func TestDetermineOutcome_AllCombinations(t *testing.T) {
	cases := []struct {
		player, house Move
		want          Outcome
	}{
		{MoveRock, MoveRock, OutcomeTie},
		{MoveRock, MovePaper, OutcomeLose},
		{MoveRock, MoveScissors, OutcomeWin},
		{MovePaper, MoveRock, OutcomeWin},
		{MovePaper, MovePaper, OutcomeTie},
		{MovePaper, MoveScissors, OutcomeLose},
		{MoveScissors, MoveRock, OutcomeLose},
		{MoveScissors, MovePaper, OutcomeWin},
		{MoveScissors, MoveScissors, OutcomeTie},
	}

	for _, tc := range cases {
		got := DetermineOutcome(tc.player, tc.house)
		assert.Equalf(t, tc.want, got, "%s vs %s", tc.player, tc.house)
	}
}

func TestCalculatePayout_Win(t *testing.T) {
	// Выплата floor(2w * (10000-e) / 10000): дробная часть округляется
	// вниз, в пользу дома
	assert.Equal(t, int64(196), CalculatePayout(100, OutcomeWin, 200))
	assert.Equal(t, int64(20), CalculatePayout(10, OutcomeWin, 0))
	// 20 * 9800 / 10000 = 19.6 → 19
	assert.Equal(t, int64(19), CalculatePayout(10, OutcomeWin, 200))
	// Комиссия 100% съедает всё
	assert.Equal(t, int64(0), CalculatePayout(50, OutcomeWin, 10000))
}

func TestCalculatePayout_TieAndLose(t *testing.T) {
	// Ничья возвращает ставку без комиссии
	assert.Equal(t, int64(77), CalculatePayout(77, OutcomeTie, 200))
	// Проигрыш — ноль
	assert.Equal(t, int64(0), CalculatePayout(77, OutcomeLose, 200))
}

func TestCalculatePayout_NonNegative(t *testing.T) {
	for _, wager := range []int64{1, 2, 3, 10, 99, 1000} {
		for _, edge := range []int64{0, 1, 200, 5000, 10000} {
			for _, o := range []Outcome{OutcomeWin, OutcomeTie, OutcomeLose} {
				assert.GreaterOrEqual(t, CalculatePayout(wager, o, edge), int64(0))
			}
		}
	}
}

// Сценарий из протокола: баланс 100, ставка 10, победа при комиссии 200 бп →
// выплата floor(20 * 9800 / 10000) = 19, итоговый баланс 100 - 10 + 19 = 109.
func TestCalculatePayout_ReferenceScenario(t *testing.T) {
	wager := int64(10)
	payout := CalculatePayout(wager, OutcomeWin, 200)
	assert.Equal(t, int64(19), payout)

	balance := int64(100)
	assert.Equal(t, int64(109), balance-wager+payout)
}

func TestMoveFromIndex_Cycle(t *testing.T) {
	assert.Equal(t, MoveRock, MoveFromIndex(0))
	assert.Equal(t, MovePaper, MoveFromIndex(1))
	assert.Equal(t, MoveScissors, MoveFromIndex(2))
	// Значение дома берётся mod 3 — индексы за пределами тоже отображаются
	assert.Equal(t, MoveRock, MoveFromIndex(3))
}

func TestParseMove(t *testing.T) {
	for input, want := range map[string]Move{
		"rock":    MoveRock,
		"КАМЕНЬ":  MoveRock,
		"Paper":   MovePaper,
		"бумага":  MovePaper,
		"ножницы": MoveScissors,
		"н":       MoveScissors,
	} {
		got, err := ParseMove(input)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseMove("колодец")
	assert.Error(t, err)
}
