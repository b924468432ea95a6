// Package rps — handlers.go обрабатывает игровые команды:
// /play, /commit, /reveal, /commitment, /game.
package rps

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/flipflop-games/rpsbot/internal/common"
)

// Handler обрабатывает игровые команды.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик игр.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandlePlay — /play <ход> <ставка>: мгновенная игра.
func (h *Handler) HandlePlay(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) != 2 {
		h.sendMessage(chatID, "Формат: /play <камень|бумага|ножницы> <ставка>")
		return
	}

	move, err := ParseMove(args[0])
	if err != nil {
		h.sendMessage(chatID, "❌ Ход не распознан: камень, бумага или ножницы")
		return
	}
	wager, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		h.sendMessage(chatID, "❌ Ставка должна быть числом")
		return
	}

	receipt, err := h.service.PlayAgainstHouse(ctx, userID, move, wager)
	if err != nil {
		h.sendError(chatID, err)
		return
	}
	h.sendMessage(chatID, formatReceipt(receipt))
}

// HandleCommitment — /commitment <ход>: сгенерировать пару
// (обязательство, соль) для двухфазной игры.
func (h *Handler) HandleCommitment(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) != 1 {
		h.sendMessage(chatID, "Формат: /commitment <камень|бумага|ножницы>")
		return
	}
	move, err := ParseMove(args[0])
	if err != nil {
		h.sendMessage(chatID, "❌ Ход не распознан: камень, бумага или ножницы")
		return
	}

	hash, salt, err := GenerateCommitment(move)
	if err != nil {
		log.WithError(err).Error("Ошибка генерации обязательства")
		h.sendMessage(chatID, "❌ Не удалось сгенерировать обязательство")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"🔒 Обязательство для хода «%s»:\n\n"+
			"Хеш:\n<code>%s</code>\n\n"+
			"Соль (сохраните, без неё игру не раскрыть!):\n<code>%s</code>\n\n"+
			"Дальше: /commit %s <ставка>",
		move.Russian(), hash, salt, hash,
	))
}

// HandleCommit — /commit <хеш> <ставка>: первая фаза.
func (h *Handler) HandleCommit(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) != 2 {
		h.sendMessage(chatID, "Формат: /commit <хеш-обязательства> <ставка>")
		return
	}
	wager, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		h.sendMessage(chatID, "❌ Ставка должна быть числом")
		return
	}

	gameID, err := h.service.CommitMove(ctx, userID, args[0], wager)
	if err != nil {
		h.sendError(chatID, err)
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"✅ Обязательство принято!\n\n"+
			"ID игры:\n<code>%s</code>\n\n"+
			"Когда случайность будет готова, раскройте ход:\n"+
			"/reveal %s <ход> <соль>",
		gameID, gameID,
	))
}

// HandleReveal — /reveal <id игры> <ход> <соль>: вторая фаза.
func (h *Handler) HandleReveal(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) != 3 {
		h.sendMessage(chatID, "Формат: /reveal <id игры> <ход> <соль>")
		return
	}
	move, err := ParseMove(args[1])
	if err != nil {
		h.sendMessage(chatID, "❌ Ход не распознан: камень, бумага или ножницы")
		return
	}

	receipt, err := h.service.RevealMove(ctx, userID, args[0], move, args[2])
	if err != nil {
		h.sendError(chatID, err)
		return
	}
	h.sendMessage(chatID, formatReceipt(receipt))
}

// HandleGame — /game <id>: показать игру.
func (h *Handler) HandleGame(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) != 1 {
		h.sendMessage(chatID, "Формат: /game <id игры>")
		return
	}

	g, err := h.service.GetGame(ctx, args[0])
	if err != nil {
		h.sendError(chatID, err)
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎮 Игра <code>%s</code>\n\n", g.ID))
	sb.WriteString(fmt.Sprintf("Состояние: %s\n", g.State))
	sb.WriteString(fmt.Sprintf("Ставка: %s\n", common.FormatBalance(g.Wager)))
	if g.PlayerMove != "" {
		sb.WriteString(fmt.Sprintf("Ваш ход: %s\n", g.PlayerMove.Russian()))
	}
	if g.HouseMove != "" {
		sb.WriteString(fmt.Sprintf("Ход дома: %s\n", g.HouseMove.Russian()))
	}
	if g.Outcome != "" {
		sb.WriteString(fmt.Sprintf("Исход: %s\n", outcomeRussian(g.Outcome)))
		sb.WriteString(fmt.Sprintf("Выплата: %s\n", common.FormatBalance(g.Payout)))
		sb.WriteString(fmt.Sprintf("Проверяемость: %s\n", verifiedMark(g.Verified)))
	}
	sb.WriteString(fmt.Sprintf("Создана: %s", common.FormatDateTime(g.CreatedAt)))
	h.sendMessage(chatID, sb.String())
}

// sendError переводит доменную ошибку в понятное сообщение.
func (h *Handler) sendError(chatID int64, err error) {
	var text string
	switch {
	case errors.Is(err, common.ErrInsufficientBalance):
		text = "❌ Недостаточно токенов на счёте"
	case errors.Is(err, common.ErrInvalidWager):
		text = "❌ Некорректная ставка (должна быть положительной и не выше максимума)"
	case errors.Is(err, common.ErrBanned):
		text = "🚫 Аккаунт заблокирован"
	case errors.Is(err, common.ErrNotEligible):
		text = "⏳ Новый аккаунт: подождите час перед первой игрой"
	case errors.Is(err, common.ErrPlayerNotFound):
		text = "❌ Вы не зарегистрированы — отправьте /start"
	case errors.Is(err, common.ErrGameNotFound):
		text = "❌ Игра не найдена"
	case errors.Is(err, common.ErrNotReady):
		text = "⏳ Случайность ещё не готова — повторите /reveal через минуту"
	case errors.Is(err, common.ErrAlreadyRevealed):
		text = "❌ Эта игра уже раскрыта"
	case errors.Is(err, common.ErrInvalidCommitment):
		text = "❌ Раскрытие не совпадает с обязательством: проверьте ход и соль"
	case errors.Is(err, common.ErrInvalidCommitmentHash):
		text = "❌ Хеш обязательства должен быть 64 hex-символа"
	case errors.Is(err, common.ErrInvalidSalt):
		text = "❌ Соль должна быть 64 hex-символа (32 байта)"
	case errors.Is(err, common.ErrForbidden):
		text = "🚫 Это не ваша игра"
	case errors.Is(err, common.ErrWrongState):
		text = "❌ Игра не в подходящем состоянии"
	default:
		log.WithError(err).Error("Ошибка игровой команды")
		text = "❌ Что-то пошло не так, попробуйте позже"
	}
	h.sendMessage(chatID, text)
}

// formatReceipt форматирует квитанцию расчёта.
func formatReceipt(r *Receipt) string {
	var sb strings.Builder
	sb.WriteString("🪨📄✂️ РЕЗУЛЬТАТ\n\n")
	sb.WriteString(fmt.Sprintf("Ваш ход: %s\n", r.PlayerMove.Russian()))
	sb.WriteString(fmt.Sprintf("Ход дома: %s\n\n", r.HouseMove.Russian()))

	switch r.Outcome {
	case OutcomeWin:
		sb.WriteString(fmt.Sprintf("🎉 ПОБЕДА! Выплата: %s\n", common.FormatBalance(r.Payout)))
	case OutcomeTie:
		sb.WriteString("🤝 Ничья — ставка возвращена\n")
	default:
		sb.WriteString(fmt.Sprintf("💸 Проигрыш: %s\n", common.FormatBalance(r.Wager)))
	}

	sb.WriteString(fmt.Sprintf("\n📊 Баланс: %s → %s\n",
		common.FormatBalance(r.PreviousBalance), common.FormatBalance(r.NewBalance)))
	sb.WriteString(fmt.Sprintf("Проверяемость: %s\n", verifiedMark(r.Verified)))
	sb.WriteString(fmt.Sprintf("ID игры: <code>%s</code>", r.GameID))
	return sb.String()
}

func outcomeRussian(o Outcome) string {
	switch o {
	case OutcomeWin:
		return "победа"
	case OutcomeLose:
		return "проигрыш"
	case OutcomeTie:
		return "ничья"
	default:
		return string(o)
	}
}

func verifiedMark(verified bool) string {
	if verified {
		return "✅ доказуемая (внешний оракул)"
	}
	return "⚠️ локальная случайность (не проверяется)"
}

// sendMessage отправляет HTML-сообщение в чат.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
