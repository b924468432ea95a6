// Package rps — repository.go выполняет все операции с таблицей games.
// Переходы состояний делаются условными UPDATE (WHERE state = ожидаемое):
// ноль затронутых строк означает проигранную гонку, и вызывающий получает
// точную протокольную ошибку вместо второго применения.
package rps

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

// Create вставляет новую игру двухфазного режима в состоянии COMMITTED.
func (r *Repository) Create(ctx context.Context, g *Game) error {
	query := `
		INSERT INTO games (id, user_id, wager, commitment_hash, state, batch_id, batch_index)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		g.ID, g.UserID, g.Wager, g.CommitmentHash, string(g.State), g.BatchID, g.BatchIndex,
	)
	if err != nil {
		return fmt.Errorf("ошибка создания игры: %w", err)
	}
	return nil
}

// Get возвращает игру по id; common.ErrGameNotFound, если её нет.
func (r *Repository) Get(ctx context.Context, gameID string) (*Game, error) {
	query := `
		SELECT id, user_id, wager, COALESCE(commitment_hash, ''), COALESCE(reveal_salt, ''),
		       COALESCE(player_move, ''), COALESCE(house_move, ''), COALESCE(outcome, ''),
		       payout, state, batch_id, batch_index, verified, created_at, completed_at
		FROM games
		WHERE id = $1
	`
	var g Game
	var state, playerMove, houseMove, outcome string
	err := r.db.QueryRow(ctx, query, gameID).Scan(
		&g.ID, &g.UserID, &g.Wager, &g.CommitmentHash, &g.RevealSalt,
		&playerMove, &houseMove, &outcome,
		&g.Payout, &state, &g.BatchID, &g.BatchIndex, &g.Verified,
		&g.CreatedAt, &g.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения игры: %w", err)
	}
	g.State = GameState(state)
	g.PlayerMove = Move(playerMove)
	g.HouseMove = Move(houseMove)
	g.Outcome = Outcome(outcome)
	return &g, nil
}

// MarkVerified переводит игру COMMITTED → VERIFIED одним условным
// UPDATE, фиксируя сразу всё раскрытие: ход и соль игрока, ход дома,
// исход, выплату и признак verified. Один переход вместо двух — нет
// окна, в котором процесс мог бы упасть, оставив игру раскрытой, но
// без зафиксированного исхода.
//
// Возвращает false, если игра уже не в COMMITTED — это граница
// идемпотентности раскрытия: из двух конкурирующих reveal ровно один
// получит true. После true результат игры полностью определён;
// остаётся только применить деньги.
func (r *Repository) MarkVerified(ctx context.Context, gameID string, rev Reveal) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE games
		SET player_move = $2, reveal_salt = $3, house_move = $4, outcome = $5,
		    payout = $6, verified = $7, state = $8, updated_at = NOW()
		WHERE id = $1 AND state = $9
	`, gameID, string(rev.PlayerMove), rev.SaltHex, string(rev.HouseMove),
		string(rev.Outcome), rev.Payout, rev.Verified,
		string(StateVerified), string(StateCommitted))
	if err != nil {
		return false, fmt.Errorf("ошибка верификации игры: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// CompleteTx переводит игру VERIFIED → COMPLETED внутри транзакции расчёта.
// Условие по state гарантирует exactly-once: конкурирующий расчёт
// (повторный reveal, фоновая досборка) получит ErrAlreadyRevealed,
// и его денежная транзакция откатится целиком.
func (r *Repository) CompleteTx(ctx context.Context, tx pgx.Tx, gameID string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE games
		SET state = $2, completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND state = $3
	`, gameID, string(StateCompleted), string(StateVerified))
	if err != nil {
		return fmt.Errorf("ошибка завершения игры: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrAlreadyRevealed
	}
	return nil
}

// InsertCompletedTx вставляет игру мгновенного режима сразу в COMPLETED —
// внутри транзакции расчёта. Если расчёт откатится (например, не хватило
// баланса), записи об игре не останется вовсе.
func (r *Repository) InsertCompletedTx(ctx context.Context, tx pgx.Tx, g *Game) error {
	query := `
		INSERT INTO games (id, user_id, wager, player_move, house_move, outcome,
		                   payout, state, verified, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	`
	_, err := tx.Exec(ctx, query,
		g.ID, g.UserID, g.Wager, string(g.PlayerMove), string(g.HouseMove),
		string(g.Outcome), g.Payout, string(g.State), g.Verified,
	)
	if err != nil {
		return fmt.Errorf("ошибка записи игры: %w", err)
	}
	return nil
}

// ListStuckVerified возвращает игры, зависшие в VERIFIED дольше указанного
// срока: исход записан, а расчёт не применился (упали между верификацией
// и денежной транзакцией). Их добирает фоновый свип.
func (r *Repository) ListStuckVerified(ctx context.Context, olderThan time.Duration) ([]*Game, error) {
	query := `
		SELECT id, user_id, wager, COALESCE(commitment_hash, ''), COALESCE(reveal_salt, ''),
		       COALESCE(player_move, ''), COALESCE(house_move, ''), COALESCE(outcome, ''),
		       payout, state, batch_id, batch_index, verified, created_at, completed_at
		FROM games
		WHERE state = $1 AND updated_at < NOW() - $2::interval
		ORDER BY updated_at
		LIMIT 100
	`
	interval := fmt.Sprintf("%d seconds", int(olderThan.Seconds()))
	rows, err := r.db.Query(ctx, query, string(StateVerified), interval)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска зависших игр: %w", err)
	}
	defer rows.Close()

	var games []*Game
	for rows.Next() {
		var g Game
		var state, playerMove, houseMove, outcome string
		err := rows.Scan(
			&g.ID, &g.UserID, &g.Wager, &g.CommitmentHash, &g.RevealSalt,
			&playerMove, &houseMove, &outcome,
			&g.Payout, &state, &g.BatchID, &g.BatchIndex, &g.Verified,
			&g.CreatedAt, &g.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования игры: %w", err)
		}
		g.State = GameState(state)
		g.PlayerMove = Move(playerMove)
		g.HouseMove = Move(houseMove)
		g.Outcome = Outcome(outcome)
		games = append(games, &g)
	}
	return games, rows.Err()
}

// CountGames возвращает количество игр игрока (для профиля).
func (r *Repository) CountGames(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM games WHERE user_id = $1`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта игр: %w", err)
	}
	return n, nil
}
