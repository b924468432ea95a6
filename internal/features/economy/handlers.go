// Package economy — handlers.go обрабатывает команды /balance, /stats, /history, /top.
package economy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/flipflop-games/rpsbot/internal/common"
)

// Handler обрабатывает команды экономики.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик экономики.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleBalance — /balance: текущий баланс.
func (h *Handler) HandleBalance(ctx context.Context, chatID, userID int64) {
	balance, err := h.service.GetBalance(ctx, userID)
	if err != nil {
		h.sendError(chatID, err)
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("💰 Ваш баланс: %s", common.FormatBalance(balance)))
}

// HandleStats — /stats: игровая статистика.
func (h *Handler) HandleStats(ctx context.Context, chatID, userID int64) {
	a, err := h.service.GetAccount(ctx, userID)
	if err != nil {
		h.sendError(chatID, err)
		return
	}

	lost := a.GamesPlayed - a.GamesWon
	var sb strings.Builder
	sb.WriteString("📊 ВАША СТАТИСТИКА\n\n")
	sb.WriteString(fmt.Sprintf("Игр сыграно: %d\n", a.GamesPlayed))
	sb.WriteString(fmt.Sprintf("Побед: %d | Поражений/ничьих: %d\n", a.GamesWon, lost))
	sb.WriteString(fmt.Sprintf("Доля побед: %s\n\n", common.FormatWinRate(a.GamesWon, a.GamesPlayed)))
	sb.WriteString(fmt.Sprintf("Всего поставлено: %s\n", common.FormatBalance(a.TotalWagered)))
	sb.WriteString(fmt.Sprintf("Всего выплачено: %s\n", common.FormatBalance(a.TotalWon)))
	sb.WriteString(fmt.Sprintf("Баланс: %s", common.FormatBalance(a.Balance)))
	if a.LastPlayAt != nil {
		sb.WriteString(fmt.Sprintf("\nПоследняя игра: %s", common.FormatDateTime(*a.LastPlayAt)))
	}
	h.sendMessage(chatID, sb.String())
}

// HandleHistory — /history: последние транзакции.
func (h *Handler) HandleHistory(ctx context.Context, chatID, userID int64) {
	history, err := h.service.GetTransactionHistory(ctx, userID)
	if err != nil {
		h.sendError(chatID, err)
		return
	}
	h.sendMessage(chatID, history)
}

// HandleTop — /top: таблица лидеров по балансу.
func (h *Handler) HandleTop(ctx context.Context, chatID int64) {
	entries, err := h.service.Leaderboard(ctx, 10)
	if err != nil {
		h.sendError(chatID, err)
		return
	}
	if len(entries) == 0 {
		h.sendMessage(chatID, "🏆 Пока никто не играл")
		return
	}

	medals := []string{"🥇", "🥈", "🥉"}
	var sb strings.Builder
	sb.WriteString("🏆 ТОП ИГРОКОВ\n\n")
	for i, e := range entries {
		prefix := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			prefix = medals[i]
		}
		name := e.Username
		if name == "" {
			name = e.FirstName
		} else {
			name = "@" + name
		}
		sb.WriteString(fmt.Sprintf("%s %s — %s (побед: %d)\n",
			prefix, name, common.FormatBalance(e.Balance), e.GamesWon))
	}
	h.sendMessage(chatID, sb.String())
}

func (h *Handler) sendError(chatID int64, err error) {
	if errors.Is(err, common.ErrPlayerNotFound) {
		h.sendMessage(chatID, "❌ Вы не зарегистрированы — отправьте /start")
		return
	}
	log.WithError(err).Error("Ошибка команды экономики")
	h.sendMessage(chatID, "❌ Что-то пошло не так, попробуйте позже")
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
