package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/consultwise/expert-scheduling/internal/metrics"
)

// Sweeper drives the daily window maintenance on a ticker. It goes through
// the manager's state-checked operations, never touching grids directly.
type Sweeper struct {
	manager  *Manager
	logger   *zap.Logger
	interval time.Duration
}

func NewSweeper(manager *Manager, logger *zap.Logger, interval time.Duration) *Sweeper {
	return &Sweeper{
		manager:  manager,
		logger:   logger,
		interval: interval,
	}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("schedule sweeper stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	start := time.Now()
	if err := s.manager.Sweep(runCtx); err != nil {
		s.logger.Error("schedule sweep run failed", zap.Error(err))
		return
	}
	metrics.SweepRuns.Inc()
	s.logger.Info("schedule sweep run finished", zap.Duration("took", time.Since(start)))
}
