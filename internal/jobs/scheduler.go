// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: ежеминутный flush недобранных
// батчей случайности и досборка зависших расчётов.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/flipflop-games/rpsbot/internal/config"
	"github.com/flipflop-games/rpsbot/internal/features/randomness"
	"github.com/flipflop-games/rpsbot/internal/features/rps"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron     *cron.Cron
	batcher  *randomness.Batcher
	gameSvc  *rps.Service
	flushAge time.Duration
}

// NewScheduler создаёт планировщик задач.
func NewScheduler(cfg *config.Config, batcher *randomness.Batcher, gameSvc *rps.Service) *Scheduler {
	loc, err := time.LoadLocation(cfg.AppTimezone)
	if err != nil {
		log.WithError(err).Warnf("Не удалось загрузить %s, используем UTC", cfg.AppTimezone)
		loc = time.UTC
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		batcher:  batcher,
		gameSvc:  gameSvc,
		flushAge: cfg.RandomnessFlushAge,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	// Каждую минуту: отправляем оракулу недобранные батчи,
	// чтобы игры в полупустом батче не ждали заполнения бесконечно
	s.cron.AddFunc("* * * * *", func() {
		log.Debug("[CRON] Flush недобранных батчей")
		s.batcher.FlushStale(ctx, s.flushAge)
	})

	// Каждые 5 минут: добираем игры, зависшие между верификацией
	// и денежной транзакцией (например, после падения процесса)
	s.cron.AddFunc("*/5 * * * *", func() {
		log.Debug("[CRON] Досборка зависших расчётов")
		s.gameSvc.ResettleStuck(ctx, 5*time.Minute)
	})

	s.cron.Start()
	log.Info("Планировщик задач запущен")
}

// Stop останавливает планировщик, дождавшись текущих задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
