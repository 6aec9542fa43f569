package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// sessionSweeper переводит прошедшие встречи в completed
type sessionSweeper interface {
	CompleteElapsed(ctx context.Context) (int64, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	sweeper  sessionSweeper
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
}

func NewScheduler(sweeper sessionSweeper, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("sweep_interval", s.interval))
	go s.runSweepTask(ctx)
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

func (s *Scheduler) runSweepTask(ctx context.Context) {
	// Первый запуск сразу при старте
	s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-s.stopChan:
			s.logger.Info("Session sweep task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Session sweep task cancelled")
			return
		}
	}
}

// Sweep один проход; ошибки только логируются, следующий тик повторит
func (s *Scheduler) Sweep(ctx context.Context) int64 {
	completed, err := s.sweeper.CompleteElapsed(ctx)
	if err != nil {
		s.logger.Error("Failed to complete elapsed sessions", zap.Error(err))
		return 0
	}
	if completed > 0 {
		s.logger.Info("Elapsed sessions completed", zap.Int64("count", completed))
	}
	return completed
}
