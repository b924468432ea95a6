// Package randomness — oracle.go определяет интерфейс внешнего оракула
// случайности и локальную fallback-реализацию.
package randomness

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Oracle — клиент внешнего источника случайности (например, VRF-координатора).
// Внедряется в Batcher явно: никаких глобальных синглтонов.
//
// Контракт асинхронный: SubmitRequest возвращает requestID сразу,
// а payload приходит позже через колбэк HandleFulfillment батчера.
type Oracle interface {
	// SubmitRequest отправляет один запрос случайности по батчу.
	SubmitRequest(ctx context.Context, batchID int64) (requestID string, err error)
	// Verified сообщает, считаются ли исполнения этого оракула
	// доказуемо честными. Локальный генератор обязан вернуть false.
	Verified() bool
}

// FulfillFunc — колбэк, которым оракул доставляет payload по requestID.
type FulfillFunc func(requestID string, payload []byte)

// LocalOracle — fallback-оракул на crypto/rand.
// Используется в разработке и как аварийный путь, когда внешний оракул
// недоступен. Его payload криптографически случаен, но не проверяем
// третьей стороной, поэтому Verified() = false и все игры таких батчей
// помечаются verified=false — это не эквивалент внешней случайности.
type LocalOracle struct {
	fulfill FulfillFunc
}

// NewLocalOracle создаёт локальный оракул, доставляющий payload в fulfill.
func NewLocalOracle(fulfill FulfillFunc) *LocalOracle {
	return &LocalOracle{fulfill: fulfill}
}

// SubmitRequest генерирует 32 байта случайности и асинхронно исполняет запрос.
func (o *LocalOracle) SubmitRequest(_ context.Context, batchID int64) (string, error) {
	payload := make([]byte, 32)
	if _, err := rand.Read(payload); err != nil {
		return "", fmt.Errorf("ошибка генерации локальной случайности: %w", err)
	}

	requestID := uuid.NewString()
	log.WithFields(log.Fields{
		"batch_id":   batchID,
		"request_id": requestID,
	}).Debug("Локальный оракул принял запрос")

	// Доставляем асинхронно, как это делал бы внешний оракул
	go o.fulfill(requestID, payload)

	return requestID, nil
}

// Verified — локальная случайность не проверяема извне.
func (o *LocalOracle) Verified() bool {
	return false
}

// LocalValue возвращает одно немедленное криптослучайное значение
// для мгновенного режима игры (без батча). Результаты с ним всегда
// помечаются verified=false.
func LocalValue() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("ошибка генерации случайности: %w", err)
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}
