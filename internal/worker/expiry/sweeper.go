package expiryworker

import (
	"context"
	"time"

	"github.com/wolfman30/parto-platform/pkg/logging"
)

type expirer interface {
	ExpireOverdue(ctx context.Context) ([]string, error)
}

// Sweeper periodically moves overdue leads to SLA_BREACH.
type Sweeper struct {
	leads    expirer
	logger   *logging.Logger
	interval time.Duration
}

func NewSweeper(leads expirer, logger *logging.Logger) *Sweeper {
	if logger == nil {
		logger = logging.Default()
	}
	return &Sweeper{
		leads:    leads,
		logger:   logger,
		interval: time.Minute,
	}
}

func (s *Sweeper) WithInterval(d time.Duration) *Sweeper {
	if d > 0 {
		s.interval = d
	}
	return s
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) int {
	if s.leads == nil {
		return 0
	}
	ids, err := s.leads.ExpireOverdue(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("expiry sweep failed", "error", err)
		}
		return 0
	}
	if len(ids) > 0 {
		s.logger.Info("expired overdue leads", "count", len(ids))
	}
	return len(ids)
}
