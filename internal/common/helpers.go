// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация, форматирование чисел, работа с временем.
package common

import (
	"fmt"
	"math"
	"time"
)

// PluralizeTokens возвращает правильную форму слова «токен» для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → "токен" (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → "токена" (2, 3, 4, 22, 23, ...)
//   - Остальные случаи → "токенов" (0, 5-20, 25-30, 100, ...)
func PluralizeTokens(n int64) string {
	absN := int64(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	// Единственное число: 1, 21, 31, 101 (но НЕ 11, 111)
	if lastDigit == 1 && lastTwoDigits != 11 {
		return "токен"
	}

	// Малое множественное: 2-4, 22-24, 32-34 (но НЕ 12-14)
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "токена"
	}

	return "токенов"
}

// FormatBalance форматирует баланс в читабельную строку.
// Пример: FormatBalance(150) → "150 токенов"
func FormatBalance(balance int64) string {
	return fmt.Sprintf("%d %s", balance, PluralizeTokens(balance))
}

// FormatAmount создаёт строку вида "+100 токенов" или "-50 токенов".
// Знак «+» или «-» добавляется автоматически.
func FormatAmount(amount int64) string {
	if amount >= 0 {
		return fmt.Sprintf("+%d %s", amount, PluralizeTokens(amount))
	}
	return fmt.Sprintf("%d %s", amount, PluralizeTokens(amount))
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04" (день.месяц.год часы:минуты).
// Используется для отображения дат игр и транзакций.
func FormatDateTime(t time.Time) string {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		loc = time.FixedZone("MSK", 3*60*60)
	}
	return t.In(loc).Format("02.01.2006 15:04")
}

// FormatWinRate форматирует долю побед в проценты с одним знаком.
// Пример: FormatWinRate(7, 20) → "35.0%"
func FormatWinRate(won, played int64) string {
	if played == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(won)*100/float64(played))
}
