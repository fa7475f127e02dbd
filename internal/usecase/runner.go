package usecase

import (
	"context"
	"log/slog"
	"time"

	"CanvasNotionSync/internal/ports"
)

// Runner wires the trigger mechanism with the pipeline for recurring
// in-process runs. The pipeline itself stays single-run; nothing
// survives between invocations.
type Runner struct {
	trigger  ports.Trigger
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewRunner returns a helper to start/stop recurring sync jobs.
func NewRunner(trigger ports.Trigger, pipeline *Pipeline, logger *slog.Logger) *Runner {
	return &Runner{trigger: trigger, pipeline: pipeline, logger: logger}
}

// Start registers the pipeline with the provided trigger.
func (r *Runner) Start(ctx context.Context) error {
	if r.trigger == nil || r.pipeline == nil {
		return nil
	}

	job := func(at time.Time) {
		result, err := r.pipeline.Run(ctx, at)
		if err != nil && r.logger != nil {
			r.logger.Error("sync run failed", "run_id", result.RunID, "error", err)
		}
	}

	return r.trigger.Start(ctx, job)
}

// Stop gracefully tears down the underlying trigger.
func (r *Runner) Stop(ctx context.Context) error {
	if r.trigger == nil {
		return nil
	}

	return r.trigger.Stop(ctx)
}
