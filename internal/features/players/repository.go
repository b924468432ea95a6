// Package players — repository.go отвечает за все операции с таблицей players в БД.
// Каждая функция выполняет один SQL-запрос и возвращает результат или ошибку.
package players

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flipflop-games/rpsbot/internal/common"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create добавляет нового игрока.
// На конфликте по user_id обновляет только имя/username
// (не трогает бан и дату регистрации).
func (r *Repository) Create(ctx context.Context, p *Player) error {
	query := `
		INSERT INTO players (user_id, username, first_name, last_name, registered_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query,
		p.UserID, p.Username, p.FirstName, p.LastName, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("ошибка создания/обновления игрока: %w", err)
	}
	return nil
}

// GetByUserID возвращает игрока по Telegram ID.
// Если не найден — common.ErrPlayerNotFound.
func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*Player, error) {
	query := `
		SELECT id, user_id, username, first_name, last_name, is_banned,
		       registered_at, created_at, updated_at
		FROM players
		WHERE user_id = $1
	`
	var p Player
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.ID, &p.UserID, &p.Username, &p.FirstName, &p.LastName, &p.IsBanned,
		&p.RegisteredAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения игрока: %w", err)
	}
	return &p, nil
}

// SetBanned выставляет или снимает флаг бана.
// Аккаунты никогда не удаляются — только мягкий бан.
func (r *Repository) SetBanned(ctx context.Context, userID int64, banned bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE players SET is_banned = $2, updated_at = NOW() WHERE user_id = $1`,
		userID, banned,
	)
	if err != nil {
		return fmt.Errorf("ошибка изменения бана: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrPlayerNotFound
	}
	return nil
}

// Exists проверяет, зарегистрирован ли игрок.
func (r *Repository) Exists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM players WHERE user_id = $1)`, userID,
	).Scan(&exists)
	return exists, err
}
