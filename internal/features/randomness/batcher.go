// Package randomness — batcher.go собирает игры в батчи фиксированной ёмкости
// и выдаёт по одному запросу к оракулу на батч.
package randomness

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/flipflop-games/rpsbot/internal/common"
)

// Batcher — единственный владелец указателя «текущий батч».
// Все мутации состояния батчей идут под одним мьютексом; критическая
// секция только назначает слот и переключает состояния — никакого I/O
// под блокировкой. Запись в БД (аудит) и вызов оракула выполняются вне её.
type Batcher struct {
	mu        sync.Mutex
	capacity  int
	nextID    int64
	current   *Batch
	batches   map[int64]*Batch
	byRequest map[string]int64
	// Исполнение, пришедшее раньше, чем Request успел зарегистрировать
	// requestID (оракул может ответить мгновенно), складывается сюда
	// и применяется сразу после регистрации.
	earlyFulfillments map[string][]byte

	oracle Oracle
	repo   *Repository // nil в тестах — тогда без аудита в БД
}

// NewBatcher создаёт батчер заданной ёмкости.
// Начальный ID берём от часов, чтобы батчи разных запусков процесса
// не переиспользовали идентификаторы.
func NewBatcher(capacity int, oracle Oracle, repo *Repository) *Batcher {
	return &Batcher{
		capacity:          capacity,
		nextID:            time.Now().UnixNano(),
		batches:           make(map[int64]*Batch),
		byRequest:         make(map[string]int64),
		earlyFulfillments: make(map[string][]byte),
		oracle:            oracle,
		repo:              repo,
	}
}

// AddToBatch назначает игре слот в текущем открытом батче.
// Возвращает id батча, индекс игры в нём и признак «батч заполнился»
// (тогда вызывающий должен запросить случайность через Request).
func (b *Batcher) AddToBatch(gameID string) (batchID int64, index int, full bool) {
	b.mu.Lock()

	if b.current == nil {
		b.current = b.newBatchLocked()
	}

	batch := b.current
	index = len(batch.GameIDs)
	batch.GameIDs = append(batch.GameIDs, gameID)
	batchID = batch.ID

	if len(batch.GameIDs) >= b.capacity {
		// Батч набран: открываем следующий, этот уходит на запрос
		b.current = nil
		full = true
	}
	b.mu.Unlock()

	b.mirror(batch)
	return batchID, index, full
}

// newBatchLocked открывает новый батч. Вызывается только под b.mu.
func (b *Batcher) newBatchLocked() *Batch {
	b.nextID++
	batch := &Batch{
		ID:       b.nextID,
		State:    BatchOpen,
		OpenedAt: time.Now().UTC(),
	}
	b.batches[batch.ID] = batch
	return batch
}

// Request отправляет оракулу ровно один запрос случайности по батчу.
// Повторный вызов по уже запрошенному батчу — common.ErrAlreadyRequested.
func (b *Batcher) Request(ctx context.Context, batchID int64) error {
	b.mu.Lock()
	batch, ok := b.batches[batchID]
	if !ok {
		b.mu.Unlock()
		return common.ErrBatchNotFound
	}
	if batch.State != BatchOpen {
		b.mu.Unlock()
		return common.ErrAlreadyRequested
	}
	// Переводим состояние до вызова оракула, чтобы конкурирующий Request
	// по тому же батчу не отправил второй запрос
	batch.State = BatchRequested
	if b.current == batch {
		b.current = nil
	}
	b.mu.Unlock()

	requestID, err := b.oracle.SubmitRequest(ctx, batchID)
	if err != nil {
		// Откатываем в OPEN: батч сможет запросить следующий flush
		b.mu.Lock()
		batch.State = BatchOpen
		b.mu.Unlock()
		return err
	}

	b.mu.Lock()
	batch.RequestID = requestID
	b.byRequest[requestID] = batchID
	early, hasEarly := b.earlyFulfillments[requestID]
	if hasEarly {
		delete(b.earlyFulfillments, requestID)
	}
	b.mu.Unlock()

	log.WithFields(log.Fields{
		"batch_id":   batchID,
		"request_id": requestID,
		"games":      len(batch.GameIDs),
	}).Info("Запрос случайности отправлен")

	b.mirror(batch)

	if hasEarly {
		b.HandleFulfillment(requestID, early)
	}
	return nil
}

// HandleFulfillment — колбэк оракула: доставка payload по requestID.
// Переводит батч REQUESTED → FULFILLED; повторная доставка игнорируется,
// payload после первой доставки неизменяем.
func (b *Batcher) HandleFulfillment(requestID string, payload []byte) {
	b.mu.Lock()
	batchID, ok := b.byRequest[requestID]
	if !ok {
		// Оракул ответил раньше, чем Request зарегистрировал requestID
		b.earlyFulfillments[requestID] = append([]byte(nil), payload...)
		b.mu.Unlock()
		return
	}
	batch := b.batches[batchID]
	if batch.State == BatchFulfilled {
		b.mu.Unlock()
		log.WithField("request_id", requestID).Warn("Повторное исполнение запроса — игнорируем")
		return
	}
	now := time.Now().UTC()
	batch.Payload = append([]byte(nil), payload...)
	batch.State = BatchFulfilled
	batch.Verified = b.oracle.Verified()
	batch.FulfilledAt = &now
	b.mu.Unlock()

	log.WithFields(log.Fields{
		"batch_id": batchID,
		"verified": batch.Verified,
		"games":    len(batch.GameIDs),
	}).Info("Батч случайности исполнен")

	b.mirror(batch)
}

// IsReady сообщает, исполнен ли батч.
func (b *Batcher) IsReady(batchID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	batch, ok := b.batches[batchID]
	return ok && batch.State == BatchFulfilled
}

// Value возвращает выведенное значение для игры с данным индексом
// и признак verified батча.
//
// До исполнения батча — common.ErrNotReady (никогда не блокируемся в
// ожидании: вызывающий сам решает, поллить или уйти в мгновенный режим).
func (b *Batcher) Value(batchID int64, index int) (uint64, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	batch, ok := b.batches[batchID]
	if !ok {
		return 0, false, common.ErrBatchNotFound
	}
	if batch.State != BatchFulfilled {
		return 0, false, common.ErrNotReady
	}
	if index < 0 || index >= len(batch.GameIDs) {
		return 0, false, common.ErrInvalidIndex
	}
	return DeriveValue(batch.Payload, index), batch.Verified, nil
}

// FlushStale принудительно запрашивает случайность для всех непустых
// OPEN-батчей старше maxAge: и для недобранного текущего (иначе игры в
// полупустом батче ждали бы заполнения бесконечно), и для батчей,
// у которых предыдущий запрос к оракулу упал. Вызывается по крону.
func (b *Batcher) FlushStale(ctx context.Context, maxAge time.Duration) {
	b.mu.Lock()
	var stale []int64
	for id, batch := range b.batches {
		if batch.State == BatchOpen &&
			len(batch.GameIDs) > 0 &&
			time.Since(batch.OpenedAt) >= maxAge {
			stale = append(stale, id)
		}
	}
	b.mu.Unlock()

	for _, id := range stale {
		if err := b.Request(ctx, id); err != nil {
			log.WithError(err).WithField("batch_id", id).Error("Ошибка flush батча")
		}
	}
}

// mirror сохраняет снапшот батча в БД для аудита. Ошибка не фатальна:
// батчер остаётся источником истины в рантайме, запись только для истории.
func (b *Batcher) mirror(batch *Batch) {
	if b.repo == nil {
		return
	}
	b.mu.Lock()
	snapshot := *batch
	snapshot.GameIDs = append([]string(nil), batch.GameIDs...)
	b.mu.Unlock()

	if err := b.repo.Save(context.Background(), &snapshot); err != nil {
		log.WithError(err).WithField("batch_id", snapshot.ID).Warn("Не удалось сохранить батч в БД")
	}
}
