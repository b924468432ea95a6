// Package bot содержит главный модуль бота — инициализацию, запуск и остановку.
// bot.go принимает апдейты, фильтрует их и раздаёт командам обработчики.
package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/flipflop-games/rpsbot/internal/bot/filters"
	"github.com/flipflop-games/rpsbot/internal/bot/middleware"
	"github.com/flipflop-games/rpsbot/internal/config"
	"github.com/flipflop-games/rpsbot/internal/features/economy"
	"github.com/flipflop-games/rpsbot/internal/features/players"
	"github.com/flipflop-games/rpsbot/internal/features/rps"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	playerHandler  *players.Handler
	economyHandler *economy.Handler
	gameHandler    *rps.Handler

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	playerHandler *players.Handler,
	economyHandler *economy.Handler,
	gameHandler *rps.Handler,
	chatFilter *filters.ChatFilter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:            api,
		cfg:            cfg,
		chatFilter:     chatFilter,
		rateLimiter:    middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		playerHandler:  playerHandler,
		economyHandler: economyHandler,
		gameHandler:    gameHandler,
		inflight:       make(chan struct{}, maxInFlight),
	}
}

// Start запускает long polling и обрабатывает апдейты до отмены контекста.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)
	defer b.rateLimiter.Close()

	log.Info("Бот начал приём апдейтов")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			log.Info("Приём апдейтов остановлен")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}

			// Бронируем слот обработки; при флуде просто ждём очереди
			b.inflight <- struct{}{}
			go func(msg *tgbotapi.Message) {
				defer func() { <-b.inflight }()
				defer middleware.RecoverFromPanic()
				b.handleMessage(ctx, msg)
			}(update.Message)
		}
	}
}

// handleMessage пропускает сообщение через фильтры и роутит команду.
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if !b.chatFilter.CheckAccess(message) {
		return
	}
	middleware.LogCommand(message)

	if !message.IsCommand() {
		return
	}

	userID := message.From.ID
	chatID := message.Chat.ID

	if !b.rateLimiter.Allow(userID) {
		log.WithField("user_id", userID).Debug("Rate limit")
		b.reply(chatID, "⏳ Слишком много команд, подождите немного")
		return
	}

	args := strings.Fields(message.CommandArguments())

	switch message.Command() {
	case "start":
		b.playerHandler.HandleStart(ctx, chatID, message.From)
	case "play":
		b.gameHandler.HandlePlay(ctx, chatID, userID, args)
	case "commitment":
		b.gameHandler.HandleCommitment(ctx, chatID, userID, args)
	case "commit":
		b.gameHandler.HandleCommit(ctx, chatID, userID, args)
	case "reveal":
		b.gameHandler.HandleReveal(ctx, chatID, userID, args)
	case "game":
		b.gameHandler.HandleGame(ctx, chatID, userID, args)
	case "balance":
		b.economyHandler.HandleBalance(ctx, chatID, userID)
	case "stats":
		b.economyHandler.HandleStats(ctx, chatID, userID)
	case "history":
		b.economyHandler.HandleHistory(ctx, chatID, userID)
	case "top":
		b.economyHandler.HandleTop(ctx, chatID)
	case "help":
		b.reply(chatID, helpText)
	default:
		b.reply(chatID, "Неизвестная команда. Список: /help")
	}
}

const helpText = `🪨📄✂️ КАМЕНЬ-НОЖНИЦЫ-БУМАГА против дома

Мгновенная игра:
/play <камень|бумага|ножницы> <ставка> — сыграть сразу (локальная случайность, результат помечен как непроверяемый)

Проверяемая игра (commit/reveal):
/commitment <ход> — сгенерировать обязательство и соль
/commit <хеш> <ставка> — зафиксировать ход до жеребьёвки
/reveal <id игры> <ход> <соль> — раскрыть ход, когда случайность готова

Прочее:
/game <id> — информация об игре
/balance — баланс
/stats — статистика
/history — последние операции
/top — таблица лидеров

Победа платит почти вдвое (за вычетом комиссии дома), ничья возвращает ставку.`

// reply отправляет простой текстовый ответ.
func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
