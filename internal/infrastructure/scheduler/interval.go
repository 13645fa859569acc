package scheduler

import (
	"context"
	"time"

	"LaborStats/internal/ports"
)

// IntervalScheduler triggers the job immediately and then on a fixed
// interval. Good enough for a monthly-data collector; the remote source only
// publishes once a month anyway.
type IntervalScheduler struct {
	interval time.Duration
	stop     chan struct{}
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewIntervalScheduler builds a scheduler with the given period; non-positive
// values fall back to 24 hours.
func NewIntervalScheduler(interval time.Duration) *IntervalScheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &IntervalScheduler{interval: interval}
}

// Start begins ticking until the context is done or Stop is called.
func (s *IntervalScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	if s.stop != nil {
		return nil
	}

	s.stop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		job(time.Now())
		for {
			select {
			case t := <-ticker.C:
				job(t)
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	s.stop = nil
	return nil
}
