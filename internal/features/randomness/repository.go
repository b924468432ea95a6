// Package randomness — repository.go хранит аудиторский след батчей
// в таблице randomness_batches.
package randomness

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository сохраняет снапшоты батчей.
// Источник истины в рантайме — сам Batcher; таблица нужна, чтобы
// исходы игр можно было проверить постфактум (payload + индекс игры
// воспроизводят ход дома).
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий батчей.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Save записывает или обновляет снапшот батча.
// Payload уже исполненного батча никогда не перезаписывается другим
// значением — он неизменяем по протоколу.
func (r *Repository) Save(ctx context.Context, b *Batch) error {
	query := `
		INSERT INTO randomness_batches (id, game_ids, state, request_id, payload, verified, opened_at, fulfilled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET game_ids = EXCLUDED.game_ids,
		    state = EXCLUDED.state,
		    request_id = EXCLUDED.request_id,
		    payload = COALESCE(randomness_batches.payload, EXCLUDED.payload),
		    verified = EXCLUDED.verified,
		    fulfilled_at = EXCLUDED.fulfilled_at
	`
	_, err := r.db.Exec(ctx, query,
		b.ID, b.GameIDs, string(b.State), b.RequestID, b.Payload, b.Verified,
		b.OpenedAt, b.FulfilledAt,
	)
	if err != nil {
		return fmt.Errorf("ошибка сохранения батча: %w", err)
	}
	return nil
}

// Get читает снапшот батча (для отладки и проверки исходов).
func (r *Repository) Get(ctx context.Context, id int64) (*Batch, error) {
	query := `
		SELECT id, game_ids, state, COALESCE(request_id, ''), payload, verified, opened_at, fulfilled_at
		FROM randomness_batches
		WHERE id = $1
	`
	var b Batch
	var state string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.GameIDs, &state, &b.RequestID, &b.Payload, &b.Verified,
		&b.OpenedAt, &b.FulfilledAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения батча: %w", err)
	}
	b.State = BatchState(state)
	return &b, nil
}
