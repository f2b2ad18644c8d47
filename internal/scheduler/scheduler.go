// Package scheduler triggers the recurring automation on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"fintrack/internal/services"
)

// Runner is the guarded daily pass a tick triggers.
type Runner interface {
	Run(ctx context.Context, now time.Time) (services.AutomationResult, error)
}

type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	spec    string
	timeout time.Duration
	now     func() time.Time
}

// New builds a scheduler firing runner on spec, evaluated in loc.
func New(runner Runner, spec string, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		runner:  runner,
		spec:    spec,
		timeout: 5 * time.Minute,
		now:     time.Now,
	}
}

// Start registers the job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.Tick); err != nil {
		return fmt.Errorf("add recurring job %q: %w", s.spec, err)
	}
	s.cron.Start()
	slog.Info("Recurring scheduler started", "spec", s.spec)
	return nil
}

// Tick runs one guarded pass. Errors are logged; the next tick retries.
func (s *Scheduler) Tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	res, err := s.runner.Run(ctx, s.now())
	switch {
	case err != nil:
		slog.ErrorContext(ctx, "Scheduled recurring run failed", "error", err)
	case !res.Ran:
		slog.DebugContext(ctx, "Recurring run already done today", "day", res.Day)
	default:
		slog.InfoContext(ctx, "Scheduled recurring run complete",
			"day", res.Day,
			"applied", res.Summary.AppliedCount,
			"failed", len(res.Summary.Failed))
	}
}

// Next reports when the job fires next, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop halts the cron loop and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("Recurring scheduler stopped")
}
