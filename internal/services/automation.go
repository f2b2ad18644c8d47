package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/metrics"
	"fintrack/internal/ports"
)

// LastRunStateKey holds the local date of the last automation run.
const LastRunStateKey = "recurring.last_run_date"

// DayGuard lets at most one caller claim a calendar day.
type DayGuard struct {
	state ports.StateStore
	key   string
}

func NewDayGuard(state ports.StateStore, key string) *DayGuard {
	if key == "" {
		key = LastRunStateKey
	}
	return &DayGuard{state: state, key: key}
}

// Claim marks day as run. It reports the previous marker and whether this
// caller won the day; a caller that loses the compare-and-swap does not run.
func (g *DayGuard) Claim(ctx context.Context, day string) (prev string, claimed bool, err error) {
	prev, _, err = g.state.GetState(ctx, g.key)
	if err != nil {
		return "", false, fmt.Errorf("read run marker: %w", err)
	}
	if prev == day {
		return prev, false, nil
	}
	claimed, err = g.state.CompareAndSwapState(ctx, g.key, prev, day)
	if err != nil {
		return prev, false, fmt.Errorf("claim run marker: %w", err)
	}
	return prev, claimed, nil
}

// Release restores the marker to prev if it still holds day.
func (g *DayGuard) Release(ctx context.Context, day, prev string) error {
	if _, err := g.state.CompareAndSwapState(ctx, g.key, day, prev); err != nil {
		return fmt.Errorf("release run marker: %w", err)
	}
	return nil
}

// LastRun returns the persisted marker, or "" when nothing ran yet.
func (g *DayGuard) LastRun(ctx context.Context) (string, error) {
	v, _, err := g.state.GetState(ctx, g.key)
	return v, err
}

// Engine is the recurring pass the automation guards.
type Engine interface {
	CheckAndApplyRecurring(ctx context.Context, today core.Date) (Summary, error)
}

type AutomationResult struct {
	Ran     bool
	Day     string
	Summary Summary
}

// RecurringAutomation runs the recurring engine at most once per local day.
type RecurringAutomation struct {
	engine Engine
	guard  *DayGuard
	loc    *time.Location
}

// NewRecurringAutomation builds the automation. A nil loc means time.Local.
func NewRecurringAutomation(engine Engine, state ports.StateStore, loc *time.Location) *RecurringAutomation {
	if loc == nil {
		loc = time.Local
	}
	return &RecurringAutomation{
		engine: engine,
		guard:  NewDayGuard(state, LastRunStateKey),
		loc:    loc,
	}
}

// Guard exposes the day guard for status reporting.
func (a *RecurringAutomation) Guard() *DayGuard { return a.guard }

// Run executes the engine for now's local calendar day unless that day was
// already claimed. On engine failure the claim is released so a later call retries.
func (a *RecurringAutomation) Run(ctx context.Context, now time.Time) (AutomationResult, error) {
	today := core.DateOf(now.In(a.loc))
	day := today.String()

	prev, claimed, err := a.guard.Claim(ctx, day)
	if err != nil {
		metrics.AutomationRuns.WithLabelValues("error").Inc()
		return AutomationResult{Day: day}, err
	}
	if !claimed {
		metrics.AutomationRuns.WithLabelValues("skipped").Inc()
		slog.DebugContext(ctx, "Recurring automation already ran today", "day", day)
		return AutomationResult{Day: day}, nil
	}

	summary, err := a.engine.CheckAndApplyRecurring(ctx, today)
	if err != nil {
		metrics.AutomationRuns.WithLabelValues("error").Inc()
		if rerr := a.guard.Release(ctx, day, prev); rerr != nil {
			slog.ErrorContext(ctx, "Failed to release run marker", "day", day, "error", rerr)
		}
		return AutomationResult{Day: day}, fmt.Errorf("recurring automation: %w", err)
	}

	metrics.AutomationRuns.WithLabelValues("ran").Inc()
	slog.InfoContext(ctx, "Recurring automation finished",
		"day", day,
		"applied", summary.AppliedCount,
		"message", summary.Message())
	return AutomationResult{Ran: true, Day: day, Summary: summary}, nil
}
