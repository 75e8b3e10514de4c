package scheduler

import (
	"context"
	"time"

	"talenttrack_backend/internal/candidates/safety"
	"talenttrack_backend/platform/logger"
)

const defaultSweepInterval = time.Hour

// GuaranteeSweep periodically runs placement guarantee maintenance: flagging
// placements nearing their deadline and securing lapsed guarantees.
type GuaranteeSweep struct {
	safety   *safety.Service
	log      *logger.Logger
	interval time.Duration
}

func NewGuaranteeSweep(svc *safety.Service, log *logger.Logger, interval time.Duration) *GuaranteeSweep {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &GuaranteeSweep{
		safety:   svc,
		log:      log,
		interval: interval,
	}
}

func (s *GuaranteeSweep) Run(ctx context.Context) {
	if s == nil || s.safety == nil {
		return
	}

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *GuaranteeSweep) sweep(ctx context.Context) {
	result, err := s.safety.Sweep(ctx)
	if err != nil {
		s.log.Error("guarantee sweep failed", "error", err)
		return
	}
	s.log.Debug("guarantee sweep pass", "flagged", result.Flagged, "secured", result.Secured)
}
