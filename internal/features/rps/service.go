// Package rps — service.go координирует полный цикл игры против дома:
// допуск → валидация → ход дома → исход → атомарный расчёт.
package rps

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"

	"github.com/flipflop-games/rpsbot/internal/common"
	"github.com/flipflop-games/rpsbot/internal/config"
	"github.com/flipflop-games/rpsbot/internal/features/economy"
	"github.com/flipflop-games/rpsbot/internal/features/players"
	"github.com/flipflop-games/rpsbot/internal/features/randomness"
)

// Коллабораторы сервиса — явные узкие интерфейсы, внедряются в конструктор.
// Никаких глобальных синглтонов: в тестах вместо БД и оракула стоят фейки.

// GameStore — хранилище игр (реализуется *Repository).
type GameStore interface {
	Create(ctx context.Context, g *Game) error
	Get(ctx context.Context, gameID string) (*Game, error)
	MarkVerified(ctx context.Context, gameID string, rev Reveal) (bool, error)
	CompleteTx(ctx context.Context, tx pgx.Tx, gameID string) error
	InsertCompletedTx(ctx context.Context, tx pgx.Tx, g *Game) error
	ListStuckVerified(ctx context.Context, olderThan time.Duration) ([]*Game, error)
}

// Settler — атомарный расчёт: деньги и игровое состояние в одной
// транзакции БД (реализуется *economy.Repository).
type Settler interface {
	SettleGame(ctx context.Context, p economy.SettleParams, gameTx func(pgx.Tx) error) (int64, int64, error)
}

// AccountReader читает счёт игрока (реализуется *economy.Repository).
type AccountReader interface {
	GetAccount(ctx context.Context, userID int64) (*economy.Account, error)
}

// PlayerReader читает игрока (реализуется *players.Repository).
type PlayerReader interface {
	GetByUserID(ctx context.Context, userID int64) (*players.Player, error)
}

// RandomSource — батчер случайности (реализуется *randomness.Batcher).
type RandomSource interface {
	AddToBatch(gameID string) (batchID int64, index int, full bool)
	Request(ctx context.Context, batchID int64) error
	Value(batchID int64, index int) (value uint64, verified bool, err error)
}

// Service — сервис расчёта игр.
type Service struct {
	store    GameStore
	settler  Settler
	accounts AccountReader
	players  PlayerReader
	random   RandomSource
	gate     *Gate
	cfg      *config.Config
}

// NewService создаёт сервис игр.
func NewService(
	store GameStore,
	settler Settler,
	accounts AccountReader,
	playerReader PlayerReader,
	random RandomSource,
	cfg *config.Config,
) *Service {
	return &Service{
		store:    store,
		settler:  settler,
		accounts: accounts,
		players:  playerReader,
		random:   random,
		gate:     NewGate(cfg.GameNewPlayerCooldown),
		cfg:      cfg,
	}
}

// admit проверяет игрока и ставку перед любым изменением состояния.
func (s *Service) admit(ctx context.Context, userID, wager int64) error {
	p, err := s.players.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	a, err := s.accounts.GetAccount(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.gate.Check(p, a); err != nil {
		return err
	}
	if wager <= 0 || wager > s.cfg.GameMaxWager {
		return common.ErrInvalidWager
	}
	return nil
}

// PlayAgainstHouse — мгновенный режим: одна атомарная операция без
// commit/reveal. Ход дома берётся из локального криптогенератора,
// поэтому результат всегда помечен verified=false — честность здесь
// «на доверии», в отличие от батчевого режима.
func (s *Service) PlayAgainstHouse(ctx context.Context, userID int64, move Move, wager int64) (*Receipt, error) {
	if !move.Valid() {
		return nil, common.ErrInvalidMove
	}
	if err := s.admit(ctx, userID, wager); err != nil {
		return nil, err
	}

	value, err := randomness.LocalValue()
	if err != nil {
		return nil, err
	}
	houseMove := MoveFromIndex(randomness.HouseMoveIndex(value))
	outcome := DetermineOutcome(move, houseMove)
	payout := CalculatePayout(wager, outcome, s.cfg.GameHouseEdgeBP)

	game := &Game{
		ID:         uuid.NewString(),
		UserID:     userID,
		Wager:      wager,
		PlayerMove: move,
		HouseMove:  houseMove,
		Outcome:    outcome,
		Payout:     payout,
		State:      StateCompleted,
		Verified:   false,
	}

	// Баланс перепроверяется внутри SettleGame под блокировкой строки.
	// Если токенов не хватает — транзакция откатывается и записи об игре
	// не остаётся.
	prev, next, err := s.settler.SettleGame(ctx, economy.SettleParams{
		UserID: userID,
		GameID: game.ID,
		Wager:  wager,
		Payout: payout,
		Won:    outcome == OutcomeWin,
	}, func(tx pgx.Tx) error {
		return s.store.InsertCompletedTx(ctx, tx, game)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"game_id": game.ID,
		"user_id": userID,
		"outcome": outcome,
		"wager":   wager,
		"payout":  payout,
	}).Info("Мгновенная игра рассчитана")

	return &Receipt{
		GameID:          game.ID,
		PlayerMove:      move,
		HouseMove:       houseMove,
		Outcome:         outcome,
		Wager:           wager,
		Payout:          payout,
		PreviousBalance: prev,
		NewBalance:      next,
		Verified:        false,
	}, nil
}

// CommitMove — первая фаза двухфазного режима: игрок публикует
// hash(ход, соль) и ставку, игра получает слот в батче случайности.
// Ставка в этот момент НЕ резервируется: достаточность баланса
// проверяется при расчёте, под блокировкой.
func (s *Service) CommitMove(ctx context.Context, userID int64, commitmentHash string, wager int64) (string, error) {
	commitmentHash = strings.ToLower(strings.TrimSpace(commitmentHash))
	if err := ValidateCommitmentHash(commitmentHash); err != nil {
		return "", err
	}
	if err := s.admit(ctx, userID, wager); err != nil {
		return "", err
	}

	gameID := uuid.NewString()
	batchID, index, full := s.random.AddToBatch(gameID)

	game := &Game{
		ID:             gameID,
		UserID:         userID,
		Wager:          wager,
		CommitmentHash: commitmentHash,
		State:          StateCommitted,
		BatchID:        &batchID,
		BatchIndex:     &index,
	}
	if err := s.store.Create(ctx, game); err != nil {
		return "", err
	}

	log.WithFields(log.Fields{
		"game_id":  gameID,
		"user_id":  userID,
		"batch_id": batchID,
		"index":    index,
	}).Info("Обязательство записано")

	// Заполненный батч уходит к оракулу сразу; неполные добирает
	// крон-флаш. Ошибка запроса не роняет commit — флаш повторит.
	if full {
		if err := s.random.Request(ctx, batchID); err != nil &&
			!errors.Is(err, common.ErrAlreadyRequested) {
			log.WithError(err).WithField("batch_id", batchID).Error("Ошибка запроса случайности")
		}
	}
	return gameID, nil
}

// RevealMove — вторая фаза: игрок раскрывает ход и соль.
// Если батч ещё не исполнен — common.ErrNotReady, состояние игры
// не меняется, игрок просто повторяет команду позже.
//
// Повторное раскрытие обрабатывается ровно один раз: граница
// идемпотентности — условный переход COMMITTED → VERIFIED.
func (s *Service) RevealMove(ctx context.Context, userID int64, gameID string, move Move, saltHex string) (*Receipt, error) {
	g, err := s.store.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g.UserID != userID {
		return nil, common.ErrForbidden
	}

	switch g.State {
	case StateCommitted:
		// обычный путь, продолжаем ниже
	case StateVerified:
		// Исход уже зафиксирован, но расчёт не применился (упали между
		// верификацией и денежной транзакцией, либо не хватило баланса).
		// Повторный reveal добирает расчёт идемпотентно.
		return s.settleVerified(ctx, g)
	case StateCompleted:
		return nil, common.ErrAlreadyRevealed
	default:
		return nil, common.ErrWrongState
	}

	// Проверка обязательства — до всего остального: это ошибка
	// вызывающего, а не вопрос времени
	if !move.Valid() {
		return nil, common.ErrInvalidMove
	}
	salt, err := ParseSalt(saltHex)
	if err != nil {
		return nil, err
	}
	if ComputeCommitment(move, salt) != g.CommitmentHash {
		return nil, common.ErrInvalidCommitment
	}

	// Случайность: значение игры из её слота в батче
	value, verified, err := s.random.Value(*g.BatchID, *g.BatchIndex)
	if errors.Is(err, common.ErrBatchNotFound) {
		// Батч потерян (рестарт процесса до исполнения запроса).
		// Игру не бросаем: добираем локальной случайностью, честно
		// помечая результат как непроверяемый.
		log.WithFields(log.Fields{
			"game_id":  gameID,
			"batch_id": *g.BatchID,
		}).Warn("Батч утерян, переходим на локальную случайность")
		value, err = randomness.LocalValue()
		verified = false
	}
	if err != nil {
		return nil, err
	}

	houseMove := MoveFromIndex(randomness.HouseMoveIndex(value))
	outcome := DetermineOutcome(move, houseMove)
	payout := CalculatePayout(g.Wager, outcome, s.cfg.GameHouseEdgeBP)

	// Граница идемпотентности: из конкурирующих reveal выживает один.
	// Раскрытие и исход пишутся одним переходом, так что после падения
	// процесса игра либо всё ещё COMMITTED (reveal повторяется с нуля),
	// либо уже VERIFIED (расчёт добирается выше или фоновым свипом).
	ok, err := s.store.MarkVerified(ctx, gameID, Reveal{
		PlayerMove: move,
		SaltHex:    strings.ToLower(saltHex),
		HouseMove:  houseMove,
		Outcome:    outcome,
		Payout:     payout,
		Verified:   verified,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrAlreadyRevealed
	}

	g.PlayerMove = move
	g.HouseMove = houseMove
	g.Outcome = outcome
	g.Payout = payout
	g.Verified = verified
	return s.settleVerified(ctx, g)
}

// settleVerified применяет деньги к игре с уже зафиксированным исходом.
// Условный переход VERIFIED → COMPLETED внутри денежной транзакции
// гарантирует exactly-once даже при гонке с фоновым свипом.
func (s *Service) settleVerified(ctx context.Context, g *Game) (*Receipt, error) {
	prev, next, err := s.settler.SettleGame(ctx, economy.SettleParams{
		UserID: g.UserID,
		GameID: g.ID,
		Wager:  g.Wager,
		Payout: g.Payout,
		Won:    g.Outcome == OutcomeWin,
	}, func(tx pgx.Tx) error {
		return s.store.CompleteTx(ctx, tx, g.ID)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"game_id":  g.ID,
		"user_id":  g.UserID,
		"outcome":  g.Outcome,
		"payout":   g.Payout,
		"verified": g.Verified,
	}).Info("Игра рассчитана")

	return &Receipt{
		GameID:          g.ID,
		PlayerMove:      g.PlayerMove,
		HouseMove:       g.HouseMove,
		Outcome:         g.Outcome,
		Wager:           g.Wager,
		Payout:          g.Payout,
		PreviousBalance: prev,
		NewBalance:      next,
		Verified:        g.Verified,
	}, nil
}

// GetGame возвращает игру по id.
func (s *Service) GetGame(ctx context.Context, gameID string) (*Game, error) {
	return s.store.Get(ctx, gameID)
}

// ResettleStuck добирает игры, зависшие в VERIFIED: исход записан,
// а расчёт не применился. Запускается по крону; благодаря условному
// CompleteTx повторный проход безопасен.
func (s *Service) ResettleStuck(ctx context.Context, olderThan time.Duration) {
	games, err := s.store.ListStuckVerified(ctx, olderThan)
	if err != nil {
		log.WithError(err).Error("Ошибка поиска зависших игр")
		return
	}
	for _, g := range games {
		if _, err := s.settleVerified(ctx, g); err != nil {
			// Нехватка баланса — не аварийный случай: игрок раскрыл игру,
			// не имея токенов на ставку. Игра ждёт пополнения счёта.
			if errors.Is(err, common.ErrInsufficientBalance) {
				log.WithField("game_id", g.ID).Debug("Зависшая игра ждёт пополнения баланса")
				continue
			}
			log.WithError(err).WithField("game_id", g.ID).Error("Ошибка досборки игры")
		}
	}
}
