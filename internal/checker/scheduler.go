package checker

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler translates timer ticks into Tracker.Tick calls. Ticks run on a
// single goroutine, so no invocation ever overlaps the previous one; that
// non-overlap guarantee is what makes the read-then-write of the persisted
// progress safe without a lock. A started batch always completes its row
// range before control returns.
type Scheduler struct {
	tracker  *Tracker
	interval time.Duration
}

// NewScheduler creates a scheduler ticking at the given interval.
func NewScheduler(tracker *Tracker, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Scheduler{tracker: tracker, interval: interval}
}

// Run ticks immediately and then on the interval until the tracker reports
// the cycle is done or the context is cancelled. The recurring tick is
// removed exactly once, by returning.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		done, err := s.tracker.Tick(ctx)
		if err != nil {
			slog.Error("Tick failed", "error", err)
		}
		if done {
			slog.Info("Cancelling recurring ticks")
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single tick, for callers driven by external
// scheduling infrastructure. It reports whether the cycle is complete.
func (s *Scheduler) RunOnce(ctx context.Context) (bool, error) {
	return s.tracker.Tick(ctx)
}
