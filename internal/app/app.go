package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"CanvasNotionSync/internal/config"
	"CanvasNotionSync/internal/infrastructure/canvasapi"
	"CanvasNotionSync/internal/infrastructure/notion"
	"CanvasNotionSync/internal/infrastructure/scheduler"
	"CanvasNotionSync/internal/logging"
	"CanvasNotionSync/internal/normalize"
	"CanvasNotionSync/internal/usecase"
)

// Application wires configuration to adapters and the sync pipeline.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	logger   *slog.Logger
}

// New validates configuration and builds a runnable application.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}

	window, err := cfg.Window.Window()
	if err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}

	source := canvasapi.NewClient(cfg.Canvas.BaseURL, cfg.Canvas.Token, nil,
		baseLogger.With("component", "canvas"))
	board := notion.NewBoard(cfg.Notion.Token, cfg.Notion.ParentPageID, cfg.Notion.DatabaseTitle,
		baseLogger.With("component", "notion"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source: source,
		Schema: board,
		Writer: board,
		Logger: baseLogger.With("component", "pipeline"),
	}, usecase.Options{
		CourseIDs:        cfg.Canvas.CourseIDs,
		Window:           window,
		Normalize:        normalize.Options{InProgressStates: cfg.Sync.InProgressStates},
		WriteConcurrency: cfg.Sync.WriteConcurrency,
	})

	return &Application{cfg: cfg, pipeline: pipeline, logger: baseLogger}, nil
}

// Run executes a single sync, or keeps re-running on the configured
// interval when scheduler mode is interval.
func (a *Application) Run(ctx context.Context) error {
	if a.cfg.Scheduler.RunOnce() {
		now := time.Now().In(a.cfg.Scheduler.Location())
		_, err := a.pipeline.Run(ctx, now)
		return err
	}

	trigger := scheduler.NewIntervalTrigger(a.cfg.Scheduler.IntervalDuration())
	runner := usecase.NewRunner(trigger, a.pipeline, a.logger.With("component", "runner"))

	if err := runner.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = runner.Stop(context.WithoutCancel(ctx)) }()

	<-ctx.Done()
	return ctx.Err()
}
