// Package economy — repository.go выполняет все операции с таблицами accounts и transactions.
// Все денежные операции выполняются в транзакциях БД для целостности данных.
package economy

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flipflop-games/rpsbot/internal/common"
)

// Repository предоставляет методы для работы со счетами и транзакциями.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий экономики.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// SettleParams — параметры атомарного расчёта одной игры.
type SettleParams struct {
	UserID int64
	GameID string
	Wager  int64
	Payout int64
	Won    bool
}

// SettleGame атомарно применяет результат игры к счёту:
// списание ставки и начисление выплаты — одна операция
// newBalance = oldBalance - wager + payout, плюс обновление статистики
// и записи в историю транзакций.
//
// Достаточность баланса проверяется ЗДЕСЬ, под блокировкой строки
// (FOR UPDATE), а не в момент приёма запроса — между проверкой и расчётом
// баланс мог измениться параллельной игрой.
//
// gameTx выполняется внутри той же транзакции БД: туда передаётся
// вставка/перевод игрового состояния из пакета rps. Если gameTx вернёт
// ошибку — откатывается ВСЁ, включая движение денег. Не бывает состояния
// «ставка списана, а решение о выплате не записано».
//
// Возвращает баланс до и после расчёта.
func (r *Repository) SettleGame(ctx context.Context, p SettleParams, gameTx func(pgx.Tx) error) (int64, int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	// Блокируем строку счёта и читаем текущий баланс
	var balance int64
	err = tx.QueryRow(ctx, `
		SELECT balance FROM accounts WHERE user_id = $1 FOR UPDATE
	`, p.UserID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, common.ErrPlayerNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("ошибка получения баланса: %w", err)
	}

	if balance < p.Wager {
		return 0, 0, common.ErrInsufficientBalance
	}

	// Игровое состояние меняется в той же транзакции, что и деньги
	if gameTx != nil {
		if err := gameTx(tx); err != nil {
			return 0, 0, err
		}
	}

	wonInc := int64(0)
	if p.Won {
		wonInc = 1
	}

	// Списание и начисление одним UPDATE — частичного состояния не существует
	newBalance := balance - p.Wager + p.Payout
	_, err = tx.Exec(ctx, `
		UPDATE accounts
		SET balance = balance - $2 + $3,
		    games_played = games_played + 1,
		    games_won = games_won + $4,
		    total_wagered = total_wagered + $2,
		    total_won = total_won + $3,
		    last_play_at = NOW(),
		    updated_at = NOW()
		WHERE user_id = $1
	`, p.UserID, p.Wager, p.Payout, wonInc)
	if err != nil {
		return 0, 0, fmt.Errorf("ошибка применения расчёта: %w", err)
	}

	// История: ставка всегда, выплата — если была
	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (user_id, amount, transaction_type, game_id, description)
		VALUES ($1, $2, $3, $4, $5)
	`, p.UserID, -p.Wager, TxBet, p.GameID, fmt.Sprintf("Ставка в игре %s", p.GameID))
	if err != nil {
		return 0, 0, fmt.Errorf("ошибка записи транзакции ставки: %w", err)
	}
	if p.Payout > 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO transactions (user_id, amount, transaction_type, game_id, description)
			VALUES ($1, $2, $3, $4, $5)
		`, p.UserID, p.Payout, TxPayout, p.GameID, fmt.Sprintf("Выплата по игре %s", p.GameID))
		if err != nil {
			return 0, 0, fmt.Errorf("ошибка записи транзакции выплаты: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("ошибка фиксации расчёта: %w", err)
	}
	return balance, newBalance, nil
}

// CreateAccount создаёт счёт нового игрока со стартовым балансом.
// Повторный вызов ничего не делает (и не начисляет стартовые токены дважды).
func (r *Repository) CreateAccount(ctx context.Context, userID, startingBalance int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO accounts (user_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, startingBalance)
	if err != nil {
		return fmt.Errorf("ошибка создания счёта: %w", err)
	}

	// Стартовое начисление записываем в историю только при первом создании
	if tag.RowsAffected() > 0 && startingBalance > 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO transactions (user_id, amount, transaction_type, description)
			VALUES ($1, $2, $3, 'Стартовый баланс')
		`, userID, startingBalance, TxStartingBalance)
		if err != nil {
			return fmt.Errorf("ошибка записи стартовой транзакции: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetBalance возвращает текущий баланс игрока.
// Обычный снапшот-SELECT: не блокирует параллельные расчёты.
func (r *Repository) GetBalance(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx,
		`SELECT balance FROM accounts WHERE user_id = $1`, userID,
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, common.ErrPlayerNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("ошибка получения баланса: %w", err)
	}
	return balance, nil
}

// GetAccount возвращает счёт со всей статистикой.
func (r *Repository) GetAccount(ctx context.Context, userID int64) (*Account, error) {
	query := `
		SELECT id, user_id, balance, games_played, games_won, total_wagered, total_won,
		       last_play_at, created_at, updated_at
		FROM accounts
		WHERE user_id = $1
	`
	var a Account
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&a.ID, &a.UserID, &a.Balance, &a.GamesPlayed, &a.GamesWon,
		&a.TotalWagered, &a.TotalWon, &a.LastPlayAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения счёта: %w", err)
	}
	return &a, nil
}

// GetTransactions возвращает последние N транзакций игрока.
func (r *Repository) GetTransactions(ctx context.Context, userID int64, limit int) ([]*Transaction, error) {
	query := `
		SELECT id, user_id, amount, transaction_type, game_id, description, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения транзакций: %w", err)
	}
	defer rows.Close()

	var transactions []*Transaction
	for rows.Next() {
		var t Transaction
		err := rows.Scan(
			&t.ID, &t.UserID, &t.Amount, &t.Type, &t.GameID, &t.Description, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования транзакции: %w", err)
		}
		transactions = append(transactions, &t)
	}
	return transactions, rows.Err()
}

// Leaderboard возвращает топ игроков по балансу.
func (r *Repository) Leaderboard(ctx context.Context, limit int) ([]*LeaderboardEntry, error) {
	query := `
		SELECT a.user_id, COALESCE(p.username, ''), COALESCE(p.first_name, ''),
		       a.balance, a.games_played, a.games_won
		FROM accounts a
		JOIN players p ON p.user_id = a.user_id
		WHERE NOT p.is_banned
		ORDER BY a.balance DESC, a.games_won DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения таблицы лидеров: %w", err)
	}
	defer rows.Close()

	var entries []*LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		err := rows.Scan(&e.UserID, &e.Username, &e.FirstName, &e.Balance, &e.GamesPlayed, &e.GamesWon)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки лидеров: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
