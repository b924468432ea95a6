// Package rps — outcome.go: чистая логика определения исхода и расчёта выплаты.
// Никакого состояния и I/O — только целочисленная арифметика,
// чтобы результат был воспроизводим и не накапливал ошибок округления.
package rps

// DetermineOutcome определяет исход по фиксированному циклу:
// камень бьёт ножницы, бумага бьёт камень, ножницы бьют бумагу.
// Одинаковые ходы — ничья.
func DetermineOutcome(player, house Move) Outcome {
	if player == house {
		return OutcomeTie
	}
	// Цикл: каждый ход бьёт ход с индексом (i+2) mod 3
	if (player.Index()+2)%3 == house.Index() {
		return OutcomeWin
	}
	return OutcomeLose
}

// CalculatePayout считает выплату по исходу.
//
//	WIN:  валовый выигрыш = wager * 2, комиссия дома = edge/10000 от валового,
//	      выплата = floor(валовый * (10000 - edge) / 10000)
//	TIE:  ставка возвращается целиком, без комиссии
//	LOSE: выплата 0
//
// Дробная выплата округляется вниз (в пользу дома): ставка 10 при
// комиссии 200 бп даёт 20 − 0.4 = 19.6 → 19.
// houseEdgeBP — комиссия в базисных пунктах (200 = 2%).
func CalculatePayout(wager int64, outcome Outcome, houseEdgeBP int64) int64 {
	switch outcome {
	case OutcomeWin:
		grossWin := wager * 2
		return grossWin * (10000 - houseEdgeBP) / 10000
	case OutcomeTie:
		return wager
	default:
		return 0
	}
}
