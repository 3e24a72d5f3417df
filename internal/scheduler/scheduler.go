// Package scheduler runs the periodic recompute sweep.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/CadeStocker/producepricer/internal/service"
)

const sweepTimeout = 10 * time.Minute

// Sweeper recomputes every item of every tenant.
type Sweeper interface {
	SweepAll(ctx context.Context) (service.SweepStats, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	spec    string
	logger  *zap.Logger
}

// New creates a scheduler firing spec (standard five-field cron) in timezone.
func New(spec, timezone string, sweeper Sweeper, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		sweeper: sweeper,
		spec:    spec,
		logger:  logger,
	}
	if _, err := s.cron.AddFunc(spec, s.runSweep); err != nil {
		return nil, fmt.Errorf("schedule recompute sweep %q: %w", spec, err)
	}
	return s, nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("spec", s.spec))
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// Next reports when the sweep fires next. Zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	s.logger.Info("recompute sweep started")
	stats, err := s.sweeper.SweepAll(ctx)
	if err != nil {
		s.logger.Error("recompute sweep failed", zap.Error(err))
		return
	}
	s.logger.Info("recompute sweep done", zap.Int("items", stats.Items), zap.Int("saved", stats.Saved))
}
