// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"rpsbot"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"rpsbot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Europe/Moscow"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Game ---
	// Комиссия дома в базисных пунктах (200 = 2% от валового выигрыша)
	GameHouseEdgeBP int64 `envconfig:"GAME_HOUSE_EDGE_BP" default:"200"`
	// Максимальная ставка на одну игру
	GameMaxWager int64 `envconfig:"GAME_MAX_WAGER" default:"1000"`
	// Кулдаун новых аккаунтов: аккаунт без единой сыгранной игры не может
	// ставить, пока с регистрации не пройдёт этот срок (анти-сибил)
	GameNewPlayerCooldown time.Duration `envconfig:"GAME_NEW_PLAYER_COOLDOWN" default:"1h"`

	// --- Randomness ---
	// Сколько игр в одном батче случайности (один запрос к оракулу на батч)
	RandomnessBatchSize int `envconfig:"RANDOMNESS_BATCH_SIZE" default:"50"`
	// Через сколько открытый батч принудительно отправляется оракулу,
	// даже если не заполнен (иначе последние игры ждали бы вечно)
	RandomnessFlushAge time.Duration `envconfig:"RANDOMNESS_FLUSH_AGE" default:"1m"`

	// --- Economy ---
	EconomyStartingBalance int64  `envconfig:"ECONOMY_STARTING_BALANCE" default:"100"`
	EconomyCurrencyName    string `envconfig:"ECONOMY_CURRENCY_NAME" default:"токены"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) Validate() error {
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.GameHouseEdgeBP < 0 || c.GameHouseEdgeBP > 10000 {
		return fmt.Errorf("GAME_HOUSE_EDGE_BP должен быть в диапазоне 0..10000")
	}
	if c.GameMaxWager <= 0 {
		return fmt.Errorf("GAME_MAX_WAGER должен быть > 0")
	}
	if c.RandomnessBatchSize <= 0 {
		return fmt.Errorf("RANDOMNESS_BATCH_SIZE должен быть > 0")
	}
	if c.EconomyStartingBalance < 0 {
		return fmt.Errorf("ECONOMY_STARTING_BALANCE не может быть отрицательным")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
