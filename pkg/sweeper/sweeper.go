// Package sweeper periodically retries process instances that stalled on a step
// without an executor.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs the sweep every five minutes.
const DefaultSchedule = "@every 5m"

// Retrier resumes stalled instances and reports how many moved on.
type Retrier interface {
	RetryStalled(ctx context.Context) (int, error)
}

type Sweeper struct {
	schedule string
	retrier  Retrier
	logger   *slog.Logger

	mu     sync.Mutex
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

func New(schedule string, retrier Retrier, logger *slog.Logger) (*Sweeper, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}

	if retrier == nil {
		return nil, errors.New("sweeper requires a retrier")
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	return &Sweeper{
		schedule: schedule,
		retrier:  retrier,
		logger:   logger.With("module", "sweeper", "schedule", schedule),
	}, nil
}

// Start schedules the sweep. Overlapping runs are skipped and panics are recovered.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return errors.New("sweeper already started")
	}

	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	id, err := s.cron.AddFunc(s.schedule, func() {
		_, _ = s.RunOnce(s.ctx)
	})
	if err != nil {
		s.cron = nil
		s.cancel()

		return fmt.Errorf("failed to add sweep job: %w", err)
	}

	s.logger.InfoContext(ctx, "Starting sweeper", "entry_id", id)
	s.cron.Start()

	return nil
}

// RunOnce performs a single sweep.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	resumed, err := s.retrier.RetryStalled(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Sweep finished with errors", "resumed", resumed, "error", err)

		return resumed, err
	}

	if resumed > 0 {
		s.logger.InfoContext(ctx, "Resumed stalled instances", "resumed", resumed)
	} else {
		s.logger.DebugContext(ctx, "No stalled instance could be resumed")
	}

	return resumed, nil
}

// Stop halts the schedule and waits for a running sweep until ctx is done.
func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return nil
	}

	s.logger.InfoContext(ctx, "Stopping sweeper")

	done := s.cron.Stop()
	s.cron = nil

	select {
	case <-done.Done():
		s.cancel()

		return nil
	case <-ctx.Done():
		s.cancel()

		return ctx.Err()
	}
}
