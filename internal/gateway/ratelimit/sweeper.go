package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/studenttools/gateway/internal/metrics"
	"github.com/studenttools/gateway/pkg/logger"
)

// Sweeper periodically removes expired entries from a Store. Without it the
// in-memory store grows by one entry per distinct identity ever seen, which
// is only acceptable under a frequent restart cadence.
type Sweeper struct {
	store    Store
	cron     *cron.Cron
	logger   *logger.Logger
	schedule string
}

// NewSweeper creates a sweeper running on the given cron schedule
// (standard 5-field spec, e.g. "*/5 * * * *").
func NewSweeper(store Store, schedule string, log *logger.Logger) (*Sweeper, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("ratelimit: invalid sweep schedule %q: %w", schedule, err)
	}

	return &Sweeper{
		store:    store,
		cron:     cron.New(),
		logger:   log,
		schedule: schedule,
	}, nil
}

// Start begins the sweep schedule. It returns immediately; sweeps run on the
// cron's own goroutine.
func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.sweep)
	if err != nil {
		return fmt.Errorf("ratelimit: register sweep job: %w", err)
	}
	s.cron.Start()
	s.logger.Info("rate limit sweeper started", "schedule", s.schedule)
	return nil
}

// Stop halts the schedule and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("rate limit sweeper stopped")
}

func (s *Sweeper) sweep() {
	start := time.Now()

	removed, err := s.store.Sweep(context.Background())
	if err != nil {
		s.logger.Error("rate limit sweep failed", "error", err)
		return
	}

	metrics.RateLimitEntriesSwept.Add(float64(removed))
	if removed > 0 {
		s.logger.Debug("rate limit sweep completed",
			"removed", removed,
			"duration", time.Since(start),
		)
	}
}
