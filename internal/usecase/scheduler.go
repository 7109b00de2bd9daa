package usecase

import (
	"context"
	"log/slog"
	"time"

	"RedditScanner/internal/discovery"
	"RedditScanner/internal/ports"
)

// Scheduler wires a ticking driver with the pipeline for watch mode.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	request  discovery.Request
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring scans of req.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, req discovery.Request, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, request: req, logger: logger}
}

// Start registers the pipeline with the provided scheduler. A failed run is
// logged and the next tick tries again.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if err := s.pipeline.Process(ctx, s.request); err != nil && s.logger != nil {
			s.logger.Error("scheduled run failed", "trigger", trigger, "error", err)
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
