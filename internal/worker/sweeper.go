// Package worker runs background maintenance of the registry.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper drops expired mappings and reports how many went.
type Sweeper interface {
	Sweep() int
}

// ExpirySweeper periodically removes mappings past their expiration, so
// that entries nobody resolves again do not linger until restart.
type ExpirySweeper struct {
	interval time.Duration
	logger   *zap.Logger
	target   Sweeper
}

func NewExpirySweeper(logger *zap.Logger, target Sweeper, interval time.Duration) *ExpirySweeper {
	return &ExpirySweeper{
		interval: interval,
		logger:   logger,
		target:   target,
	}
}

// Run sweeps every interval until ctx is done.
func (s *ExpirySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("expiry sweeper started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("expiry sweeper stopped")
			return
		case <-ticker.C:
			if n := s.target.Sweep(); n > 0 {
				s.logger.Info("swept expired urls", zap.Int("count", n))
			}
		}
	}
}
