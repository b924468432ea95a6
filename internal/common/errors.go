// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import "errors"

// Ошибки валидации запроса. Отклоняются до любого изменения состояния.
var (
	// ErrInvalidMove — ход не является камнем, бумагой или ножницами
	ErrInvalidMove = errors.New("некорректный ход: допустимы камень, бумага и ножницы")
	// ErrInvalidWager — ставка неположительная или превышает максимум
	ErrInvalidWager = errors.New("некорректная ставка")
	// ErrInvalidCommitmentHash — хеш обязательства не 64 hex-символа
	ErrInvalidCommitmentHash = errors.New("некорректный хеш обязательства")
	// ErrInvalidSalt — соль не той длины (нужно ровно 32 байта)
	ErrInvalidSalt = errors.New("некорректная соль")
)

// Ошибки допуска к игре. Тоже отклоняются до изменения состояния.
var (
	// ErrBanned — аккаунт забанен
	ErrBanned = errors.New("аккаунт заблокирован")
	// ErrNotEligible — новый аккаунт ещё на кулдауне
	ErrNotEligible = errors.New("новый аккаунт: подождите перед первой игрой")
	// ErrPlayerNotFound — игрок не найден в базе
	ErrPlayerNotFound = errors.New("игрок не найден, отправьте /start")
)

// Ошибки протокола commit/reveal. Состояние игры не меняется.
var (
	// ErrGameNotFound — игра с таким id не существует
	ErrGameNotFound = errors.New("игра не найдена")
	// ErrWrongState — игра не в том состоянии для этой операции
	ErrWrongState = errors.New("игра не в подходящем состоянии")
	// ErrInvalidCommitment — hash(ход, соль) не совпал с сохранённым обязательством
	ErrInvalidCommitment = errors.New("раскрытие не совпадает с обязательством")
	// ErrAlreadyRevealed — повторное раскрытие той же игры
	ErrAlreadyRevealed = errors.New("игра уже раскрыта")
	// ErrForbidden — раскрывать игру может только её создатель
	ErrForbidden = errors.New("это не ваша игра")
)

// Ошибки ресурса случайности. Отличаются от протокольных:
// это вопрос времени, а не ошибка вызывающего.
var (
	// ErrNotReady — батч ещё не исполнен оракулом, попробуйте позже
	ErrNotReady = errors.New("случайность ещё не готова, попробуйте позже")
	// ErrBatchNotFound — батч с таким id не существует
	ErrBatchNotFound = errors.New("батч не найден")
	// ErrAlreadyRequested — запрос к оракулу по этому батчу уже отправлен
	ErrAlreadyRequested = errors.New("запрос случайности уже отправлен")
	// ErrInvalidIndex — индекс игры вне диапазона батча
	ErrInvalidIndex = errors.New("индекс вне диапазона батча")
)

// Ошибки целостности. Проверяются в момент мутации баланса,
// а не раньше — баланс мог измениться между проверкой и расчётом.
var (
	// ErrInsufficientBalance — недостаточно токенов на счёте
	ErrInsufficientBalance = errors.New("недостаточно токенов на счёте")
)
