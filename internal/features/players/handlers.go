// Package players — handlers.go обрабатывает команду /start (регистрация).
package players

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/flipflop-games/rpsbot/internal/common"
	"github.com/flipflop-games/rpsbot/internal/config"
)

// AccountCreator создаёт счёт при регистрации (реализуется economy.Service).
type AccountCreator interface {
	CreateAccount(ctx context.Context, userID int64) error
}

// Handler обрабатывает команды игроков.
type Handler struct {
	service  *Service
	accounts AccountCreator
	bot      *tgbotapi.BotAPI
	cfg      *config.Config
}

// NewHandler создаёт обработчик игроков.
func NewHandler(service *Service, accounts AccountCreator, bot *tgbotapi.BotAPI, cfg *config.Config) *Handler {
	return &Handler{service: service, accounts: accounts, bot: bot, cfg: cfg}
}

// HandleStart — /start: регистрация игрока и создание счёта.
// Повторный /start не выдаёт второй стартовый баланс.
func (h *Handler) HandleStart(ctx context.Context, chatID int64, from *tgbotapi.User) {
	p := &Player{
		UserID:    from.ID,
		Username:  from.UserName,
		FirstName: from.FirstName,
		LastName:  from.LastName,
	}

	created, err := h.service.Register(ctx, p)
	if err != nil {
		log.WithError(err).Error("Ошибка регистрации")
		h.sendMessage(chatID, "❌ Не удалось зарегистрироваться, попробуйте позже")
		return
	}

	if err := h.accounts.CreateAccount(ctx, from.ID); err != nil {
		log.WithError(err).Error("Ошибка создания счёта")
		h.sendMessage(chatID, "❌ Не удалось создать счёт, попробуйте позже")
		return
	}

	if created {
		h.sendMessage(chatID, fmt.Sprintf(
			"👋 Добро пожаловать, %s!\n\n"+
				"Вам начислено %s стартового баланса.\n"+
				"⏳ Новые аккаунты могут играть через %s после регистрации.\n\n"+
				"Команды: /help",
			p.DisplayName(),
			common.FormatBalance(h.cfg.EconomyStartingBalance),
			h.cfg.GameNewPlayerCooldown,
		))
		return
	}
	h.sendMessage(chatID, "Вы уже зарегистрированы. Команды: /help")
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
