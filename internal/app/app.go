// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы, обработчики,
// фильтры и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/flipflop-games/rpsbot/internal/bot"
	"github.com/flipflop-games/rpsbot/internal/bot/filters"
	"github.com/flipflop-games/rpsbot/internal/config"
	"github.com/flipflop-games/rpsbot/internal/db/postgres"
	"github.com/flipflop-games/rpsbot/internal/features/economy"
	"github.com/flipflop-games/rpsbot/internal/features/players"
	"github.com/flipflop-games/rpsbot/internal/features/randomness"
	"github.com/flipflop-games/rpsbot/internal/features/rps"
	"github.com/flipflop-games/rpsbot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	BotAPI    *tgbotapi.BotAPI
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	// Запускаем миграции
	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 3. Репозитории ===
	playerRepo := players.NewRepository(pool)
	economyRepo := economy.NewRepository(pool)
	gameRepo := rps.NewRepository(pool)
	batchRepo := randomness.NewRepository(pool)

	// === 4. Случайность ===
	// Батчер и оракул связаны в обе стороны: батчер шлёт запросы,
	// оракул асинхронно доставляет payload в HandleFulfillment.
	// Пока внешний VRF-клиент не подключён, стоит локальный оракул —
	// все его исходы честно помечаются verified=false.
	var batcher *randomness.Batcher
	oracle := randomness.NewLocalOracle(func(requestID string, payload []byte) {
		batcher.HandleFulfillment(requestID, payload)
	})
	batcher = randomness.NewBatcher(cfg.RandomnessBatchSize, oracle, batchRepo)

	// === 5. Сервисы ===
	playerService := players.NewService(playerRepo)
	economyService := economy.NewService(economyRepo, cfg)
	gameService := rps.NewService(gameRepo, economyRepo, economyRepo, playerRepo, batcher, cfg)

	// === 6. Обработчики ===
	playerHandler := players.NewHandler(playerService, economyService, botAPI, cfg)
	economyHandler := economy.NewHandler(economyService, botAPI)
	gameHandler := rps.NewHandler(gameService, botAPI)

	// === 7. Фильтры ===
	chatFilter := filters.NewChatFilter()

	// === 8. Собираем бота ===
	b := bot.New(botAPI, cfg, playerHandler, economyHandler, gameHandler, chatFilter)

	// === 9. Планировщик задач ===
	scheduler := jobs.NewScheduler(cfg, batcher, gameService)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		DB:        pool,
		BotAPI:    botAPI,
	}, nil
}

// runMigrations выполняет все SQL-миграции.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.EnsureMigrationsTable(ctx, pool); err != nil {
		return err
	}

	// Выполняем миграции по порядку
	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Players},
		{2, migration002Economy},
		{3, migration003Games},
		{4, migration004Randomness},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}

	return nil
}

// SQL-миграции встроены в код для упрощения деплоя.

var migration001Players = `
CREATE TABLE IF NOT EXISTS players (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL,
    username VARCHAR(255),
    first_name VARCHAR(255) NOT NULL,
    last_name VARCHAR(255),
    is_banned BOOLEAN DEFAULT FALSE,
    registered_at TIMESTAMP DEFAULT NOW(),
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_players_user_id ON players(user_id);
`

var migration002Economy = `
CREATE TABLE IF NOT EXISTS accounts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL REFERENCES players(user_id),
    balance BIGINT NOT NULL DEFAULT 0,
    games_played BIGINT NOT NULL DEFAULT 0,
    games_won BIGINT NOT NULL DEFAULT 0,
    total_wagered BIGINT NOT NULL DEFAULT 0,
    total_won BIGINT NOT NULL DEFAULT 0,
    last_play_at TIMESTAMP,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS transactions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES players(user_id),
    amount BIGINT NOT NULL,
    transaction_type VARCHAR(50) NOT NULL,
    game_id VARCHAR(64),
    description TEXT,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at DESC);
`

var migration003Games = `
CREATE TABLE IF NOT EXISTS games (
    id VARCHAR(64) PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES players(user_id),
    wager BIGINT NOT NULL,
    commitment_hash VARCHAR(64),
    reveal_salt VARCHAR(64),
    player_move VARCHAR(16),
    house_move VARCHAR(16),
    outcome VARCHAR(8),
    payout BIGINT NOT NULL DEFAULT 0,
    state VARCHAR(16) NOT NULL,
    batch_id BIGINT,
    batch_index INTEGER,
    verified BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW(),
    completed_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_games_user_id ON games(user_id);
CREATE INDEX IF NOT EXISTS idx_games_state ON games(state);
`

var migration004Randomness = `
CREATE TABLE IF NOT EXISTS randomness_batches (
    id BIGINT PRIMARY KEY,
    game_ids TEXT[] NOT NULL DEFAULT '{}',
    state VARCHAR(16) NOT NULL,
    request_id VARCHAR(64),
    payload BYTEA,
    verified BOOLEAN NOT NULL DEFAULT FALSE,
    opened_at TIMESTAMP NOT NULL,
    fulfilled_at TIMESTAMP
);
`
