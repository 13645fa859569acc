package usecase

import (
	"context"
	"log/slog"
	"time"

	"LaborStats/internal/ports"
)

// Scheduler wires the interval driver with the collection pipeline, so a
// long-running process keeps its dataset current without manual runs.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	cache    *TableCache
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring collection.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, cache *TableCache, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, cache: cache, logger: logger}
}

// Start registers the pipeline with the provided scheduler. After each run
// the table cache is reloaded so API readers see the new data.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if _, err := s.pipeline.Collect(ctx); err != nil {
			if s.logger != nil {
				s.logger.Error("scheduled collection failed", "trigger", trigger, "error", err)
			}
			return
		}
		if s.cache != nil {
			if _, err := s.cache.Reload(); err != nil && s.logger != nil {
				s.logger.Error("cache reload failed", "error", err)
			}
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
