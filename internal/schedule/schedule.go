// Package schedule runs a periodic rebuild in dev mode as a safety net for
// file events the watcher misses (network filesystems, editors that replace
// directories).
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/jorgenskogmo/webpub/internal/logfields"
)

// Rebuilder wraps a gocron scheduler with a single duration job.
type Rebuilder struct {
	scheduler gocron.Scheduler
	interval  time.Duration
	run       func(ctx context.Context)
}

// NewRebuilder creates a rebuilder that calls run every interval.
func NewRebuilder(interval time.Duration, run func(ctx context.Context)) (*Rebuilder, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("rebuild interval must be positive, got %s", interval)
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Rebuilder{scheduler: s, interval: interval, run: run}, nil
}

// Start schedules the job and starts the scheduler. The job does not overlap
// with itself; a tick that finds the previous run still going is skipped.
func (r *Rebuilder) Start(ctx context.Context) error {
	_, err := r.scheduler.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(func() { r.run(ctx) }),
		gocron.WithName("periodic-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create periodic rebuild job: %w", err)
	}
	slog.Info("Starting periodic rebuild", logfields.Duration(r.interval))
	r.scheduler.Start()
	return nil
}

// Stop shuts the scheduler down, waiting for a running job to finish.
func (r *Rebuilder) Stop() error {
	slog.Info("Stopping periodic rebuild")
	return r.scheduler.Shutdown()
}
