// Package randomness — models.go описывает батч случайности.
package randomness

import "time"

// BatchState — состояние батча. Переходы строго вперёд:
// OPEN → REQUESTED → FULFILLED, ни одно состояние не повторяется.
type BatchState string

const (
	// BatchOpen — батч набирает игры
	BatchOpen BatchState = "OPEN"
	// BatchRequested — запрос к оракулу отправлен, ждём исполнения
	BatchRequested BatchState = "REQUESTED"
	// BatchFulfilled — payload получен; с этого момента он неизменяем
	BatchFulfilled BatchState = "FULFILLED"
)

// Batch — группа игр, разделяющая один запрос случайности.
// Один запрос к оракулу на весь батч: стоимость и латентность
// внешнего вызова размазываются по всем играм батча.
type Batch struct {
	ID        int64
	GameIDs   []string
	State     BatchState
	RequestID string
	// Payload — сырая случайность от оракула. После FULFILLED неизменяем;
	// из него детерминированно выводится отдельное значение на каждый
	// индекс игры (см. derive.go).
	Payload []byte
	// Verified — payload пришёл от внешнего оракула (true) или от
	// локального fallback-генератора (false). Флаг протаскивается
	// в каждую игру, рассчитанную из этого батча.
	Verified    bool
	OpenedAt    time.Time
	FulfilledAt *time.Time
}
