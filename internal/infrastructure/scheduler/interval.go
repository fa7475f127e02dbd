package scheduler

import (
	"context"
	"sync"
	"time"

	"CanvasNotionSync/internal/ports"
)

// IntervalTrigger re-runs the sync on a fixed period, firing once
// immediately on start. Runs never overlap: the job executes on the
// trigger goroutine, so a slow run simply delays the next tick.
type IntervalTrigger struct {
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

var _ ports.Trigger = (*IntervalTrigger)(nil)

// NewIntervalTrigger builds a trigger with the given period.
func NewIntervalTrigger(interval time.Duration) *IntervalTrigger {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &IntervalTrigger{interval: interval}
}

// Start begins ticking and invokes the job once per period. Starting
// an already-running trigger is a no-op.
func (t *IntervalTrigger) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stop != nil {
		return nil
	}

	stop := make(chan struct{})
	t.stop = stop
	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		job(time.Now())
		for {
			select {
			case at := <-ticker.C:
				job(at)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine. Safe to call concurrently or more
// than once.
func (t *IntervalTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stop == nil {
		return nil
	}
	close(t.stop)
	t.stop = nil
	return nil
}
