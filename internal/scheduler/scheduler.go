// Package scheduler drives the periodic threat classification cycle.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Job is one classification cycle.
type Job interface {
	RunOnce(ctx context.Context) error
}

// Scheduler runs the classifier job on a fixed interval.
type Scheduler struct {
	scheduler *gocron.Scheduler
	job       Job
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a scheduler for the job.
func New(job Job, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		job:       job,
		interval:  interval,
		logger:    logger,
	}
}

// Start runs the job immediately, then on every interval tick. Job errors
// are logged, not propagated; the next tick retries.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.Every(s.interval).StartImmediately().Do(func() {
		runCtx, cancel := context.WithTimeout(ctx, s.interval)
		defer cancel()

		if err := s.job.RunOnce(runCtx); err != nil {
			s.logger.Error("scheduled threat run failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
