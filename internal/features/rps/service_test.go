package rps

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipflop-games/rpsbot/internal/common"
	"github.com/flipflop-games/rpsbot/internal/config"
	"github.com/flipflop-games/rpsbot/internal/features/economy"
	"github.com/flipflop-games/rpsbot/internal/features/players"
)

// Фейки коллабораторов сервиса: та же семантика переходов состояний
// и проверки баланса, что у Postgres-реализаций, но в памяти.

type fakeStore struct {
	games map[string]*Game
	// история сохранённых состояний каждой игры, в порядке записи
	states map[string][]GameState
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		games:  make(map[string]*Game),
		states: make(map[string][]GameState),
	}
}

func (s *fakeStore) record(gameID string, state GameState) {
	s.states[gameID] = append(s.states[gameID], state)
}

func (s *fakeStore) Create(ctx context.Context, g *Game) error {
	cp := *g
	s.games[g.ID] = &cp
	s.record(g.ID, g.State)
	return nil
}

func (s *fakeStore) Get(ctx context.Context, gameID string) (*Game, error) {
	g, ok := s.games[gameID]
	if !ok {
		return nil, common.ErrGameNotFound
	}
	cp := *g
	return &cp, nil
}

func (s *fakeStore) MarkVerified(ctx context.Context, gameID string, rev Reveal) (bool, error) {
	g, ok := s.games[gameID]
	if !ok || g.State != StateCommitted {
		return false, nil
	}
	g.PlayerMove = rev.PlayerMove
	g.RevealSalt = rev.SaltHex
	g.HouseMove = rev.HouseMove
	g.Outcome = rev.Outcome
	g.Payout = rev.Payout
	g.Verified = rev.Verified
	g.State = StateVerified
	s.record(gameID, StateVerified)
	return true, nil
}

func (s *fakeStore) CompleteTx(ctx context.Context, tx pgx.Tx, gameID string) error {
	g, ok := s.games[gameID]
	if !ok {
		return common.ErrGameNotFound
	}
	if g.State != StateVerified {
		return common.ErrAlreadyRevealed
	}
	g.State = StateCompleted
	s.record(gameID, StateCompleted)
	return nil
}

func (s *fakeStore) InsertCompletedTx(ctx context.Context, tx pgx.Tx, g *Game) error {
	cp := *g
	s.games[g.ID] = &cp
	return nil
}

func (s *fakeStore) ListStuckVerified(ctx context.Context, olderThan time.Duration) ([]*Game, error) {
	var out []*Game
	for _, g := range s.games {
		if g.State == StateVerified {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

// fakeSettler повторяет контракт SettleGame: проверка баланса до
// игровой части транзакции, при любой ошибке деньги не двигаются.
type fakeSettler struct {
	balances map[int64]int64
	// если задана, следующая транзакция падает этой ошибкой (и сбрасывает её)
	failOnce error
}

func (f *fakeSettler) SettleGame(ctx context.Context, p economy.SettleParams, gameTx func(pgx.Tx) error) (int64, int64, error) {
	if f.failOnce != nil {
		err := f.failOnce
		f.failOnce = nil
		return 0, 0, err
	}
	prev := f.balances[p.UserID]
	if prev < p.Wager {
		return 0, 0, common.ErrInsufficientBalance
	}
	if err := gameTx(nil); err != nil {
		return 0, 0, err
	}
	next := prev - p.Wager + p.Payout
	f.balances[p.UserID] = next
	return prev, next, nil
}

type fakeAccounts struct {
	accounts map[int64]*economy.Account
}

func (f *fakeAccounts) GetAccount(ctx context.Context, userID int64) (*economy.Account, error) {
	a, ok := f.accounts[userID]
	if !ok {
		return nil, common.ErrPlayerNotFound
	}
	return a, nil
}

type fakePlayers struct {
	players map[int64]*players.Player
}

func (f *fakePlayers) GetByUserID(ctx context.Context, userID int64) (*players.Player, error) {
	p, ok := f.players[userID]
	if !ok {
		return nil, common.ErrPlayerNotFound
	}
	return p, nil
}

// fakeRandom — управляемый источник случайности: тест сам выбирает
// значение и признак верификации.
type fakeRandom struct {
	nextIndex int
	full      bool
	requested []int64
	value     uint64
	verified  bool
	valueErr  error
}

func (f *fakeRandom) AddToBatch(gameID string) (int64, int, bool) {
	idx := f.nextIndex
	f.nextIndex++
	return 1, idx, f.full
}

func (f *fakeRandom) Request(ctx context.Context, batchID int64) error {
	f.requested = append(f.requested, batchID)
	return nil
}

func (f *fakeRandom) Value(batchID int64, index int) (uint64, bool, error) {
	if f.valueErr != nil {
		return 0, false, f.valueErr
	}
	return f.value, f.verified, nil
}

type fixture struct {
	svc      *Service
	store    *fakeStore
	settler  *fakeSettler
	accounts *fakeAccounts
	players  *fakePlayers
	random   *fakeRandom
}

const testUserID = int64(42)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{
		GameHouseEdgeBP:       200,
		GameMaxWager:          1000,
		GameNewPlayerCooldown: time.Hour,
	}
	store := newFakeStore()
	settler := &fakeSettler{balances: map[int64]int64{testUserID: 100}}
	accounts := &fakeAccounts{accounts: map[int64]*economy.Account{
		testUserID: {UserID: testUserID, Balance: 100, GamesPlayed: 3},
	}}
	plrs := &fakePlayers{players: map[int64]*players.Player{
		testUserID: {UserID: testUserID, RegisteredAt: time.Now().Add(-24 * time.Hour)},
	}}
	random := &fakeRandom{verified: true}
	return &fixture{
		svc:      NewService(store, settler, accounts, plrs, random, cfg),
		store:    store,
		settler:  settler,
		accounts: accounts,
		players:  plrs,
		random:   random,
	}
}

// commit помогает дойти до фазы reveal: строит обязательство и кладёт игру.
func (f *fixture) commit(t *testing.T, move Move, wager int64) (gameID, saltHex string) {
	t.Helper()
	hash, saltHex, err := GenerateCommitment(move)
	require.NoError(t, err)
	gameID, err = f.svc.CommitMove(context.Background(), testUserID, hash, wager)
	require.NoError(t, err)
	return gameID, saltHex
}

func TestPlayAgainstHouse_Conservation(t *testing.T) {
	f := newFixture(t)

	r, err := f.svc.PlayAgainstHouse(context.Background(), testUserID, MoveRock, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(100), r.PreviousBalance)
	assert.Equal(t, r.PreviousBalance-r.Wager+r.Payout, r.NewBalance)
	assert.Equal(t, r.NewBalance, f.settler.balances[testUserID])
	assert.False(t, r.Verified, "локальная случайность не верифицируется")

	g, err := f.store.Get(context.Background(), r.GameID)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, g.State)
}

func TestPlayAgainstHouse_InsufficientBalance(t *testing.T) {
	f := newFixture(t)
	f.settler.balances[testUserID] = 5

	_, err := f.svc.PlayAgainstHouse(context.Background(), testUserID, MoveRock, 10)
	assert.ErrorIs(t, err, common.ErrInsufficientBalance)
	assert.Empty(t, f.store.games, "при откате записи об игре не остаётся")
	assert.Equal(t, int64(5), f.settler.balances[testUserID])
}

func TestPlayAgainstHouse_InvalidWager(t *testing.T) {
	f := newFixture(t)

	for _, wager := range []int64{0, -1, 1001} {
		_, err := f.svc.PlayAgainstHouse(context.Background(), testUserID, MoveRock, wager)
		assert.ErrorIs(t, err, common.ErrInvalidWager, "ставка %d", wager)
	}
}

func TestPlayAgainstHouse_Banned(t *testing.T) {
	f := newFixture(t)

	banned := &players.Player{UserID: 7, IsBanned: true, RegisteredAt: time.Now().Add(-48 * time.Hour)}
	f.players.players[7] = banned
	f.accounts.accounts[7] = &economy.Account{UserID: 7, GamesPlayed: 10}
	f.settler.balances[7] = 100

	_, err := f.svc.PlayAgainstHouse(context.Background(), 7, MoveRock, 10)
	assert.ErrorIs(t, err, common.ErrBanned)
}

func TestCommitMove_InvalidHash(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CommitMove(context.Background(), testUserID, "не хеш", 10)
	assert.ErrorIs(t, err, common.ErrInvalidCommitmentHash)
	assert.Empty(t, f.store.games)
}

func TestCommitMove_RequestsFullBatch(t *testing.T) {
	f := newFixture(t)
	f.random.full = true

	f.commit(t, MoveRock, 10)
	assert.Equal(t, []int64{1}, f.random.requested)
}

// Полный двухфазный цикл: значение 1 даёт ход дома PAPER (1 % 3 = 1),
// игрок раскрывает SCISSORS и выигрывает.
func TestCommitReveal_FullCycle(t *testing.T) {
	f := newFixture(t)
	f.random.value = 1
	f.random.verified = true

	gameID, saltHex := f.commit(t, MoveScissors, 10)

	r, err := f.svc.RevealMove(context.Background(), testUserID, gameID, MoveScissors, saltHex)
	require.NoError(t, err)

	assert.Equal(t, MovePaper, r.HouseMove)
	assert.Equal(t, OutcomeWin, r.Outcome)
	assert.Equal(t, int64(19), r.Payout)
	assert.Equal(t, int64(109), r.NewBalance)
	assert.True(t, r.Verified)

	g, err := f.store.Get(context.Background(), gameID)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, g.State)
	assert.True(t, g.Verified)
}

func TestRevealMove_Forbidden(t *testing.T) {
	f := newFixture(t)
	gameID, saltHex := f.commit(t, MoveRock, 10)

	_, err := f.svc.RevealMove(context.Background(), int64(999), gameID, MoveRock, saltHex)
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestRevealMove_NotReady(t *testing.T) {
	f := newFixture(t)
	f.random.valueErr = common.ErrNotReady

	gameID, saltHex := f.commit(t, MoveRock, 10)

	_, err := f.svc.RevealMove(context.Background(), testUserID, gameID, MoveRock, saltHex)
	assert.ErrorIs(t, err, common.ErrNotReady)

	// состояние не изменилось, повтор после исполнения батча проходит
	g, _ := f.store.Get(context.Background(), gameID)
	assert.Equal(t, StateCommitted, g.State)

	f.random.valueErr = nil
	_, err = f.svc.RevealMove(context.Background(), testUserID, gameID, MoveRock, saltHex)
	assert.NoError(t, err)
}

func TestRevealMove_InvalidCommitment(t *testing.T) {
	f := newFixture(t)
	gameID, saltHex := f.commit(t, MoveRock, 10)

	// не тот ход
	_, err := f.svc.RevealMove(context.Background(), testUserID, gameID, MovePaper, saltHex)
	assert.ErrorIs(t, err, common.ErrInvalidCommitment)

	// не та соль
	_, otherSalt, errGen := GenerateCommitment(MoveRock)
	require.NoError(t, errGen)
	_, err = f.svc.RevealMove(context.Background(), testUserID, gameID, MoveRock, otherSalt)
	assert.ErrorIs(t, err, common.ErrInvalidCommitment)

	g, _ := f.store.Get(context.Background(), gameID)
	assert.Equal(t, StateCommitted, g.State)
	assert.Equal(t, int64(100), f.settler.balances[testUserID])
}

func TestRevealMove_DoubleReveal(t *testing.T) {
	f := newFixture(t)
	gameID, saltHex := f.commit(t, MoveRock, 10)

	_, err := f.svc.RevealMove(context.Background(), testUserID, gameID, MoveRock, saltHex)
	require.NoError(t, err)
	balanceAfter := f.settler.balances[testUserID]

	_, err = f.svc.RevealMove(context.Background(), testUserID, gameID, MoveRock, saltHex)
	assert.ErrorIs(t, err, common.ErrAlreadyRevealed)
	assert.Equal(t, balanceAfter, f.settler.balances[testUserID], "повтор не двигает деньги")
}

// Потеря батча (рестарт до исполнения) не хоронит игру: расчёт
// добирается локальной случайностью с verified=false.
func TestRevealMove_BatchLostFallback(t *testing.T) {
	f := newFixture(t)
	f.random.valueErr = common.ErrBatchNotFound

	gameID, saltHex := f.commit(t, MoveRock, 10)

	r, err := f.svc.RevealMove(context.Background(), testUserID, gameID, MoveRock, saltHex)
	require.NoError(t, err)
	assert.False(t, r.Verified)

	g, _ := f.store.Get(context.Background(), gameID)
	assert.Equal(t, StateCompleted, g.State)
}

// Игра, зависшая в VERIFIED из-за нехватки баланса, добирается
// повторным reveal после пополнения счёта.
func TestRevealMove_VerifiedRetry(t *testing.T) {
	f := newFixture(t)
	f.random.value = 0 // дом играет ROCK

	gameID, saltHex := f.commit(t, MovePaper, 10)

	f.settler.balances[testUserID] = 5
	_, err := f.svc.RevealMove(context.Background(), testUserID, gameID, MovePaper, saltHex)
	assert.ErrorIs(t, err, common.ErrInsufficientBalance)

	g, _ := f.store.Get(context.Background(), gameID)
	require.Equal(t, StateVerified, g.State, "исход зафиксирован, деньги не применены")

	f.settler.balances[testUserID] = 50
	r, err := f.svc.RevealMove(context.Background(), testUserID, gameID, MovePaper, saltHex)
	require.NoError(t, err)
	assert.Equal(t, OutcomeWin, r.Outcome)
	assert.Equal(t, int64(50-10+19), r.NewBalance)

	g, _ = f.store.Get(context.Background(), gameID)
	assert.Equal(t, StateCompleted, g.State)
}

// В базу попадают только восстановимые состояния: COMMITTED (reveal
// повторяется с нуля), VERIFIED (добирает повторный reveal или свип)
// и COMPLETED. Промежуточного «раскрыто, но исход не записан» нет —
// падение процесса в любой точке раскрытия не хоронит игру.
func TestRevealMove_OnlyRecoverableStates(t *testing.T) {
	f := newFixture(t)
	f.random.value = 0 // дом играет ROCK

	gameID, saltHex := f.commit(t, MovePaper, 10)

	// денежная транзакция падает сразу после фиксации исхода
	f.settler.failOnce = fmt.Errorf("обрыв соединения с базой")
	_, err := f.svc.RevealMove(context.Background(), testUserID, gameID, MovePaper, saltHex)
	require.Error(t, err)

	assert.Equal(t, []GameState{StateCommitted, StateVerified}, f.store.states[gameID])
	g, _ := f.store.Get(context.Background(), gameID)
	assert.Equal(t, MoveRock, g.HouseMove, "исход записан вместе с раскрытием")
	assert.Equal(t, OutcomeWin, g.Outcome)

	// игра в VERIFIED — её видит и добирает фоновый свип
	f.svc.ResettleStuck(context.Background(), 0)

	assert.Equal(t,
		[]GameState{StateCommitted, StateVerified, StateCompleted},
		f.store.states[gameID])
	assert.Equal(t, int64(100-10+19), f.settler.balances[testUserID])
}

func TestResettleStuck(t *testing.T) {
	f := newFixture(t)
	f.random.value = 0

	// первая игра виснет в VERIFIED из-за нехватки баланса
	gameID, saltHex := f.commit(t, MovePaper, 10)
	f.settler.balances[testUserID] = 5
	_, err := f.svc.RevealMove(context.Background(), testUserID, gameID, MovePaper, saltHex)
	require.ErrorIs(t, err, common.ErrInsufficientBalance)

	// свип без денег ничего не меняет
	f.svc.ResettleStuck(context.Background(), 0)
	g, _ := f.store.Get(context.Background(), gameID)
	assert.Equal(t, StateVerified, g.State)

	// после пополнения свип добирает расчёт
	f.settler.balances[testUserID] = 100
	f.svc.ResettleStuck(context.Background(), 0)
	g, _ = f.store.Get(context.Background(), gameID)
	assert.Equal(t, StateCompleted, g.State)
	assert.Equal(t, int64(100-10+19), f.settler.balances[testUserID])
}
