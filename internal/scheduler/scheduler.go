package scheduler

import (
	"context"
	"fmt"
	"time"

	"trojmiasto-monitor/internal/contextkeys"
	"trojmiasto-monitor/internal/core/port"
	usecases_port "trojmiasto-monitor/internal/core/port/usecases"
)

// checkInterval - шаг фонового цикла между проверками расписания.
const checkInterval = time.Hour

// Scheduler - долгоживущий фоновый цикл запуска сессий обхода: немедленный
// запуск при старте, затем раз в IntervalDays, с привязкой к полуночи.
// Сбой одной сессии логируется и не мешает следующему запуску.
type Scheduler struct {
	crawl    usecases_port.RunCrawlSessionPort
	interval time.Duration
	logger   port.LoggerPort

	// подменяются в тестах
	now  func() time.Time
	tick time.Duration
}

func NewScheduler(crawl usecases_port.RunCrawlSessionPort, intervalDays int, logger port.LoggerPort) *Scheduler {
	if intervalDays <= 0 {
		intervalDays = 1
	}
	return &Scheduler{
		crawl:    crawl,
		interval: time.Duration(intervalDays) * 24 * time.Hour,
		logger:   logger,
		now:      time.Now,
		tick:     checkInterval,
	}
}

// Run блокирует до отмены контекста.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("Scheduler started", port.Fields{"interval": s.interval.String()})

	s.runSession(ctx)

	nextRun := nextMidnightRun(s.now(), s.interval)
	s.logger.Info("Next scheduled run", port.Fields{"at": nextRun.Format(time.RFC3339)})

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped", nil)
			return
		case <-ticker.C:
			if s.now().Before(nextRun) {
				continue
			}
			s.runSession(ctx)
			nextRun = nextRun.Add(s.interval)
			s.logger.Info("Next scheduled run", port.Fields{"at": nextRun.Format(time.RFC3339)})
		}
	}
}

// runSession выполняет одну сессию, не давая ее сбою уронить цикл.
func (s *Scheduler) runSession(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("CRITICAL: crawl session panicked", fmt.Errorf("%v", r), nil)
		}
	}()

	sessionCtx := contextkeys.ContextWithLogger(ctx, s.logger)
	stats, err := s.crawl.Execute(sessionCtx)
	if err != nil {
		s.logger.Error("Crawl session failed", err, nil)
		return
	}
	s.logger.Info("Crawl session completed", port.Fields{
		"new":       stats.New,
		"updated":   stats.Updated,
		"unchanged": stats.Unchanged,
		"failed":    stats.Failed,
	})
}

// nextMidnightRun - полночь текущего дня плюс интервал, как в расписании
// "каждые N дней начиная с сегодняшней полуночи".
func nextMidnightRun(now time.Time, interval time.Duration) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return midnight.Add(interval)
}
