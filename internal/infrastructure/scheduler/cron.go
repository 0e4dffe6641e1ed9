package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"RfpIntel/internal/ports"
)

// CronScheduler runs the job on a cron expression through gocron. Runs never
// overlap; a tick that fires while the job is busy is rescheduled.
type CronScheduler struct {
	spec       string
	location   *time.Location
	runOnStart bool
	logger     *slog.Logger

	mu        sync.Mutex
	scheduler gocron.Scheduler
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler configured via cron expression string.
// runOnStart also fires the job once right after Start.
func NewCronScheduler(spec string, location *time.Location, runOnStart bool, logger *slog.Logger) *CronScheduler {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &CronScheduler{spec: spec, location: location, runOnStart: runOnStart, logger: logger}
}

// Start registers job and starts the scheduler. Starting twice is a no-op.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scheduler != nil {
		return nil
	}

	s, err := gocron.NewScheduler(gocron.WithLocation(c.location))
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	opts := []gocron.JobOption{
		gocron.WithName("drain-backlog"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if c.runOnStart {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}
	if _, err := s.NewJob(
		gocron.CronJob(c.spec, false),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				return
			}
			job(time.Now().In(c.location))
		}),
		opts...,
	); err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("register job %q: %w", c.spec, err)
	}

	s.Start()
	c.scheduler = s
	c.logger.Info("scheduler started", "cron", c.spec, "location", c.location.String())
	return nil
}

// Stop shuts the scheduler down, waiting for a running job.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	s := c.scheduler
	c.scheduler = nil
	c.mu.Unlock()

	if s == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- s.Shutdown() }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("shutdown scheduler: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
