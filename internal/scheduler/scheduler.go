package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Scheduler periodically triggers pipeline runs.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    *Runner
	interval  time.Duration
	at        string
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler. When at ("HH:MM", UTC) is set the job runs
// daily at that time, otherwise every interval. timeout bounds a single run.
func New(runner *Runner, interval time.Duration, at string, timeout time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		runner:    runner,
		interval:  interval,
		at:        at,
		timeout:   timeout,
		logger:    logger.With("module", "scheduler"),
	}
}

// Start schedules the job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	var job *gocron.Scheduler
	if s.at != "" {
		job = s.scheduler.Every(1).Day().At(s.at)
	} else {
		interval := s.interval
		if interval <= 0 {
			interval = 10 * time.Minute
		}
		job = s.scheduler.Every(interval)
	}

	_, err := job.SingletonMode().Do(s.runOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "interval", s.interval.String(), "at", s.at)
	return nil
}

func (s *Scheduler) runOnce() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.logger.Info("scheduled job started")
	out, err := s.runner.TryRun(ctx)
	if errors.Is(err, ErrRunInProgress) {
		s.logger.Warn("scheduled job skipped; previous run still executing")
		return
	}
	s.logger.Info("scheduled job finished", "run_id", out.RunID, "outcome", out.Label(), "inserted", out.Inserted)
}

// RunTimeout returns the bound applied to each scheduled run.
func (s *Scheduler) RunTimeout() time.Duration {
	return s.timeout
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
