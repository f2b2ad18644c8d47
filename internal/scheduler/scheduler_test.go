package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"fintrack/internal/services"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) Run(_ context.Context, now time.Time) (services.AutomationResult, error) {
	r.calls.Add(1)
	return services.AutomationResult{Ran: true, Day: now.Format("2006-01-02")}, r.err
}

func TestScheduler_Tick(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "success"},
		{name: "failure is logged", err: errors.New("db down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &countingRunner{err: tt.err}
			s := New(r, "5 0 * * *", time.UTC)
			s.Tick()
			if got := r.calls.Load(); got != 1 {
				t.Errorf("Run calls = %d, want 1", got)
			}
		})
	}
}

func TestScheduler_StartRejectsBadSpec(t *testing.T) {
	s := New(&countingRunner{}, "not a cron", time.UTC)
	if err := s.Start(); err == nil {
		t.Fatal("Start() error = nil, want error")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := New(&countingRunner{}, "5 0 * * *", time.UTC)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	next := s.Next()
	if next.IsZero() {
		t.Error("Next() is zero after Start")
	}
	if next.Hour() != 0 || next.Minute() != 5 {
		t.Errorf("Next() = %v, want 00:05", next)
	}
	s.Stop()
}

func TestScheduler_Fires(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for a real cron tick")
	}
	defer goleak.VerifyNone(t)

	r := &countingRunner{}
	s := New(r, "@every 1s", time.UTC)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for r.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	s.Stop()

	if r.calls.Load() == 0 {
		t.Error("runner never fired")
	}
}
