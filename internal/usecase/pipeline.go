package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"CanvasNotionSync/internal/canvas"
	"CanvasNotionSync/internal/domain"
	"CanvasNotionSync/internal/filter"
	"CanvasNotionSync/internal/normalize"
	"CanvasNotionSync/internal/ports"
)

const defaultWriteConcurrency = 4

// PipelineDeps wires all driven adapters into the sync pipeline.
type PipelineDeps struct {
	Source ports.AssignmentSource
	Schema ports.DatabaseManager
	Writer ports.PageWriter
	Logger *slog.Logger
}

// Options carries the per-run configuration values. The core reads no
// ambient state; everything it needs arrives here.
type Options struct {
	CourseIDs        []string
	Window           domain.SyncWindow
	Normalize        normalize.Options
	WriteConcurrency int
}

// Pipeline implements the Canvas to Notion sync workflow: fetch,
// normalize, filter, recreate the target database, write.
type Pipeline struct {
	source ports.AssignmentSource
	schema ports.DatabaseManager
	writer ports.PageWriter
	opts   Options
	logger *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps, opts Options) *Pipeline {
	return &Pipeline{
		source: deps.Source,
		schema: deps.Schema,
		writer: deps.Writer,
		opts:   opts,
		logger: deps.Logger,
	}
}

// fetchedCourse pairs a course with its raw assignment records.
type fetchedCourse struct {
	course      domain.Course
	assignments []canvas.Assignment
}

// Run executes one full sync. The returned RunResult is the only
// observable output; a non-nil error marks a fatal run with no
// clean-database guarantee.
func (p *Pipeline) Run(ctx context.Context, now time.Time) (domain.RunResult, error) {
	result := domain.NewRunResult(now)

	if err := p.opts.Window.Validate(); err != nil {
		return p.fatal(result, fmt.Errorf("sync window: %w", err))
	}

	fetched, err := p.fetch(ctx, &result)
	if err != nil {
		return p.fatal(result, err)
	}

	normalized := p.normalizeAll(fetched, now, &result)
	result.Fetched = countAssignments(fetched)

	kept := filter.Apply(normalized, p.opts.Window)
	result.FilteredOut = len(normalized) - len(kept)
	p.debug("filtered assignments", "normalized", len(normalized), "kept", len(kept))

	// The old database is only destroyed once the fetch stage has
	// produced data; a dead Canvas must not wipe the board.
	databaseID, err := p.schema.EnsureDatabase(ctx)
	if err != nil {
		return p.fatal(result, fmt.Errorf("ensure database: %w", err))
	}

	result.Written = p.writeAll(ctx, databaseID, kept, &result)
	result.FinishedAt = time.Now().UTC()

	p.info("run complete",
		"run_id", result.RunID,
		"fetched", result.Fetched,
		"filtered_out", result.FilteredOut,
		"written", result.Written,
		"failures", len(result.Failures))
	return result, nil
}

// fetch resolves the course set and loads each course's assignments.
// One course failing is recorded and skipped; credential rejection or
// every course failing aborts the run.
func (p *Pipeline) fetch(ctx context.Context, result *domain.RunResult) ([]fetchedCourse, error) {
	courses, err := p.listCourses(ctx, result)
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return nil, errors.New("no courses available to sync")
	}

	fetched := make([]fetchedCourse, 0, len(courses))
	for _, course := range courses {
		id := strconv.FormatInt(course.ID, 10)

		assignments, err := p.source.ListAssignments(ctx, id)
		if err != nil {
			if errors.Is(err, canvas.ErrUnauthorized) {
				return nil, err
			}
			result.Record(id, domain.FailureCourseFetch, err)
			p.warn("skipping course", "course", id, "error", err)
			continue
		}

		fetched = append(fetched, fetchedCourse{
			course:      domain.Course{ID: id, Name: course.Name},
			assignments: assignments,
		})
	}

	if len(fetched) == 0 {
		return nil, errors.New("every course fetch failed")
	}
	return fetched, nil
}

func (p *Pipeline) listCourses(ctx context.Context, result *domain.RunResult) ([]canvas.Course, error) {
	if len(p.opts.CourseIDs) == 0 {
		return p.source.ListActiveCourses(ctx)
	}

	courses := make([]canvas.Course, 0, len(p.opts.CourseIDs))
	for _, id := range p.opts.CourseIDs {
		course, err := p.source.GetCourse(ctx, id)
		if err != nil {
			if errors.Is(err, canvas.ErrUnauthorized) {
				return nil, err
			}
			result.Record(id, domain.FailureCourseFetch, err)
			p.warn("skipping listed course", "course", id, "error", err)
			continue
		}
		if course.Active() {
			courses = append(courses, course)
		}
	}
	return courses, nil
}

func (p *Pipeline) normalizeAll(fetched []fetchedCourse, now time.Time, result *domain.RunResult) []domain.Assignment {
	var normalized []domain.Assignment
	for _, fc := range fetched {
		for _, raw := range fc.assignments {
			a, err := normalize.Assignment(fc.course, raw, now, p.opts.Normalize)
			if err != nil {
				result.Record(strconv.FormatInt(raw.ID, 10), domain.FailureNormalize, err)
				continue
			}
			normalized = append(normalized, a)
		}
	}
	return normalized
}

// writeAll creates one page per assignment with bounded concurrency.
// Page order in the target database is irrelevant, so parallel writers
// are safe; the shared result is only touched under the mutex.
func (p *Pipeline) writeAll(ctx context.Context, databaseID string, items []domain.Assignment, result *domain.RunResult) int {
	var (
		mu      sync.Mutex
		written int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.writeConcurrency())

	for _, item := range items {
		item := item
		g.Go(func() error {
			if err := p.writer.CreatePage(gctx, databaseID, item); err != nil {
				mu.Lock()
				result.Record(item.ID, domain.FailureWrite, err)
				mu.Unlock()
				p.warn("page write failed", "assignment", item.ID, "error", err)
				return nil
			}

			mu.Lock()
			written++
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return written
}

func (p *Pipeline) writeConcurrency() int {
	if p.opts.WriteConcurrency > 0 {
		return p.opts.WriteConcurrency
	}
	return defaultWriteConcurrency
}

func (p *Pipeline) fatal(result domain.RunResult, err error) (domain.RunResult, error) {
	result.Fatal = true
	result.FinishedAt = time.Now().UTC()
	return result, err
}

func countAssignments(fetched []fetchedCourse) int {
	total := 0
	for _, fc := range fetched {
		total += len(fc.assignments)
	}
	return total
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
