package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"CanvasNotionSync/internal/canvas"
	"CanvasNotionSync/internal/domain"
	"CanvasNotionSync/internal/normalize"
)

var testNow = time.Date(2025, 11, 28, 12, 0, 0, 0, time.UTC)

func testWindow() domain.SyncWindow {
	start := time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 11, 30, 23, 59, 59, 0, time.UTC)
	return domain.SyncWindow{Start: &start, End: &end}
}

type sourceStub struct {
	courses     []canvas.Course
	coursesErr  error
	byID        map[string]canvas.Course
	assignments map[string][]canvas.Assignment
	assignErr   map[string]error
}

func (s *sourceStub) ListActiveCourses(ctx context.Context) ([]canvas.Course, error) {
	return s.courses, s.coursesErr
}

func (s *sourceStub) GetCourse(ctx context.Context, id string) (canvas.Course, error) {
	course, ok := s.byID[id]
	if !ok {
		return canvas.Course{}, fmt.Errorf("course %s not found", id)
	}
	return course, nil
}

func (s *sourceStub) ListAssignments(ctx context.Context, courseID string) ([]canvas.Assignment, error) {
	if err := s.assignErr[courseID]; err != nil {
		return nil, err
	}
	return s.assignments[courseID], nil
}

type schemaStub struct {
	calls int
	err   error
}

func (s *schemaStub) EnsureDatabase(ctx context.Context) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return "db-1", nil
}

type writerStub struct {
	mu      sync.Mutex
	pages   []domain.Assignment
	failIDs map[string]bool
}

func (w *writerStub) CreatePage(ctx context.Context, databaseID string, a domain.Assignment) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.failIDs[a.ID] {
		return errors.New("value does not match schema")
	}
	w.pages = append(w.pages, a)
	return nil
}

func (w *writerStub) written() []domain.Assignment {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]domain.Assignment(nil), w.pages...)
}

func due(t time.Time) *time.Time { return &t }

func newPipeline(source *sourceStub, schema *schemaStub, writer *writerStub, opts Options) *Pipeline {
	return NewPipeline(PipelineDeps{Source: source, Schema: schema, Writer: writer}, opts)
}

func TestRunWritesFilteredAssignments(t *testing.T) {
	t.Parallel()

	source := &sourceStub{
		courses: []canvas.Course{{ID: 7229, Name: "Biology", WorkflowState: "available"}},
		assignments: map[string][]canvas.Assignment{
			"7229": {
				{ID: 1, Name: "In window", DueAt: due(testNow.Add(24 * time.Hour)), UpdatedAt: testNow},
				{ID: 2, Name: "Outside window", DueAt: due(testNow.Add(90 * 24 * time.Hour)), UpdatedAt: testNow},
			},
		},
	}
	schema := &schemaStub{}
	writer := &writerStub{}

	result, err := newPipeline(source, schema, writer, Options{Window: testWindow()}).Run(context.Background(), testNow)
	require.NoError(t, err)

	require.Equal(t, 2, result.Fetched)
	require.Equal(t, 1, result.FilteredOut)
	require.Equal(t, 1, result.Written)
	require.Empty(t, result.Failures)
	require.False(t, result.Fatal)
	require.Equal(t, 1, schema.calls)

	pages := writer.written()
	require.Len(t, pages, 1)
	require.Equal(t, "1", pages[0].ID)
	require.Equal(t, "Biology", pages[0].CourseName)
	require.NotEmpty(t, result.RunID)
}

func TestRunWriteFailureIsRecoverable(t *testing.T) {
	t.Parallel()

	source := &sourceStub{
		courses: []canvas.Course{{ID: 7229, Name: "Biology", WorkflowState: "available"}},
		assignments: map[string][]canvas.Assignment{
			"7229": {
				{ID: 1, Name: "ok", DueAt: due(testNow.Add(time.Hour)), UpdatedAt: testNow},
				{ID: 2, Name: "bad", DueAt: due(testNow.Add(2 * time.Hour)), UpdatedAt: testNow},
			},
		},
	}
	schema := &schemaStub{}
	writer := &writerStub{failIDs: map[string]bool{"2": true}}

	result, err := newPipeline(source, schema, writer, Options{Window: testWindow()}).Run(context.Background(), testNow)
	require.NoError(t, err)

	require.Equal(t, 2, result.Fetched)
	require.Equal(t, 1, result.Written)
	require.Len(t, result.Failures, 1)
	require.Equal(t, "2", result.Failures[0].ID)
	require.Equal(t, domain.FailureWrite, result.Failures[0].Kind)
	require.False(t, result.Fatal)
}

func TestRunFetchFailureSkipsDatabaseRecreation(t *testing.T) {
	t.Parallel()

	source := &sourceStub{coursesErr: errors.New("connection refused")}
	schema := &schemaStub{}
	writer := &writerStub{}

	result, err := newPipeline(source, schema, writer, Options{Window: testWindow()}).Run(context.Background(), testNow)
	require.Error(t, err)
	require.True(t, result.Fatal)
	require.Zero(t, schema.calls, "old database must survive a failed fetch")
}

func TestRunEveryCourseFailingIsFatal(t *testing.T) {
	t.Parallel()

	source := &sourceStub{
		courses: []canvas.Course{{ID: 1, Name: "A", WorkflowState: "available"}},
		assignErr: map[string]error{
			"1": errors.New("timeout"),
		},
	}
	schema := &schemaStub{}

	result, err := newPipeline(source, schema, &writerStub{}, Options{Window: testWindow()}).Run(context.Background(), testNow)
	require.Error(t, err)
	require.True(t, result.Fatal)
	require.Zero(t, schema.calls)
	require.Len(t, result.Failures, 1)
	require.Equal(t, domain.FailureCourseFetch, result.Failures[0].Kind)
}

func TestRunSingleCourseFailureIsSkipped(t *testing.T) {
	t.Parallel()

	source := &sourceStub{
		courses: []canvas.Course{
			{ID: 1, Name: "Working", WorkflowState: "available"},
			{ID: 2, Name: "Broken", WorkflowState: "available"},
		},
		assignments: map[string][]canvas.Assignment{
			"1": {{ID: 10, Name: "hw", DueAt: due(testNow.Add(time.Hour)), UpdatedAt: testNow}},
		},
		assignErr: map[string]error{"2": errors.New("timeout")},
	}
	schema := &schemaStub{}
	writer := &writerStub{}

	result, err := newPipeline(source, schema, writer, Options{Window: testWindow()}).Run(context.Background(), testNow)
	require.NoError(t, err)

	require.Equal(t, 1, schema.calls)
	require.Equal(t, 1, result.Written)
	require.Len(t, result.Failures, 1)
	require.Equal(t, "2", result.Failures[0].ID)
	require.Equal(t, domain.FailureCourseFetch, result.Failures[0].Kind)
}

func TestRunAuthRejectionIsFatal(t *testing.T) {
	t.Parallel()

	source := &sourceStub{
		courses: []canvas.Course{{ID: 1, Name: "A", WorkflowState: "available"}},
		assignErr: map[string]error{
			"1": fmt.Errorf("list assignments: %w", canvas.ErrUnauthorized),
		},
	}
	schema := &schemaStub{}

	result, err := newPipeline(source, schema, &writerStub{}, Options{Window: testWindow()}).Run(context.Background(), testNow)
	require.ErrorIs(t, err, canvas.ErrUnauthorized)
	require.True(t, result.Fatal)
	require.Zero(t, schema.calls)
}

func TestRunInvalidWindowFailsBeforeFetch(t *testing.T) {
	t.Parallel()

	start := testNow
	end := testNow.Add(-24 * time.Hour)
	window := domain.SyncWindow{Start: &start, End: &end}

	source := &sourceStub{coursesErr: errors.New("must not be called")}
	schema := &schemaStub{}

	result, err := newPipeline(source, schema, &writerStub{}, Options{Window: window}).Run(context.Background(), testNow)
	require.ErrorIs(t, err, domain.ErrInvalidWindow)
	require.True(t, result.Fatal)
	require.Zero(t, schema.calls)
}

func TestRunDatabaseCreationFailureIsFatal(t *testing.T) {
	t.Parallel()

	source := &sourceStub{
		courses: []canvas.Course{{ID: 1, Name: "A", WorkflowState: "available"}},
		assignments: map[string][]canvas.Assignment{
			"1": {{ID: 10, Name: "hw", DueAt: due(testNow.Add(time.Hour)), UpdatedAt: testNow}},
		},
	}
	schema := &schemaStub{err: errors.New("parent page gone")}
	writer := &writerStub{}

	result, err := newPipeline(source, schema, writer, Options{Window: testWindow()}).Run(context.Background(), testNow)
	require.Error(t, err)
	require.True(t, result.Fatal)
	require.Empty(t, writer.written())
}

func TestRunUnknownSubmissionStateIsRecorded(t *testing.T) {
	t.Parallel()

	source := &sourceStub{
		courses: []canvas.Course{{ID: 1, Name: "A", WorkflowState: "available"}},
		assignments: map[string][]canvas.Assignment{
			"1": {
				{ID: 10, Name: "weird", DueAt: due(testNow.Add(time.Hour)), UpdatedAt: testNow,
					Submission: &canvas.Submission{WorkflowState: "quantum"}},
				{ID: 11, Name: "fine", DueAt: due(testNow.Add(time.Hour)), UpdatedAt: testNow},
			},
		},
	}
	writer := &writerStub{}

	result, err := newPipeline(source, &schemaStub{}, writer, Options{Window: testWindow()}).Run(context.Background(), testNow)
	require.NoError(t, err)

	require.Equal(t, 2, result.Fetched)
	require.Equal(t, 1, result.Written)
	require.Len(t, result.Failures, 1)
	require.Equal(t, "10", result.Failures[0].ID)
	require.Equal(t, domain.FailureNormalize, result.Failures[0].Kind)
}

func TestRunUndatedExcludedByDefault(t *testing.T) {
	t.Parallel()

	source := &sourceStub{
		courses: []canvas.Course{{ID: 1, Name: "A", WorkflowState: "available"}},
		assignments: map[string][]canvas.Assignment{
			"1": {{ID: 10, Name: "undated", UpdatedAt: testNow}},
		},
	}
	writer := &writerStub{}

	window := testWindow()
	window.IncludeUndated = false

	result, err := newPipeline(source, &schemaStub{}, writer, Options{Window: window}).Run(context.Background(), testNow)
	require.NoError(t, err)
	require.Equal(t, 1, result.Fetched)
	require.Equal(t, 1, result.FilteredOut)
	require.Zero(t, result.Written)
}

func TestRunOverdueScenario(t *testing.T) {
	t.Parallel()

	// Due 2025-11-25, run at 2025-11-28, window 11-20..11-30: included
	// and overdue because run time passed the due date.
	source := &sourceStub{
		courses: []canvas.Course{{ID: 1, Name: "A", WorkflowState: "available"}},
		assignments: map[string][]canvas.Assignment{
			"1": {{ID: 10, Name: "essay", DueAt: due(time.Date(2025, 11, 25, 0, 0, 0, 0, time.UTC)), UpdatedAt: testNow}},
		},
	}
	writer := &writerStub{}

	result, err := newPipeline(source, &schemaStub{}, writer, Options{Window: testWindow()}).Run(context.Background(), testNow)
	require.NoError(t, err)
	require.Equal(t, 1, result.Written)

	pages := writer.written()
	require.Equal(t, domain.StatusOverdue, pages[0].Status)
}

func TestRunAllowListFetchesListedCourses(t *testing.T) {
	t.Parallel()

	source := &sourceStub{
		coursesErr: errors.New("list-all must not be called"),
		byID: map[string]canvas.Course{
			"7229": {ID: 7229, Name: "Biology", WorkflowState: "available"},
			"7243": {ID: 7243, Name: "Old", WorkflowState: "completed"},
		},
		assignments: map[string][]canvas.Assignment{
			"7229": {{ID: 10, Name: "hw", DueAt: due(testNow.Add(time.Hour)), UpdatedAt: testNow}},
		},
	}
	writer := &writerStub{}

	opts := Options{
		CourseIDs: []string{"7229", "7243"},
		Window:    testWindow(),
		Normalize: normalize.Options{},
	}
	result, err := newPipeline(source, &schemaStub{}, writer, opts).Run(context.Background(), testNow)
	require.NoError(t, err)

	// The completed course is dropped by the workflow-state check.
	require.Equal(t, 1, result.Fetched)
	require.Equal(t, 1, result.Written)
}

func TestRunMissingListedCourseIsRecorded(t *testing.T) {
	t.Parallel()

	source := &sourceStub{
		byID: map[string]canvas.Course{
			"7229": {ID: 7229, Name: "Biology", WorkflowState: "available"},
		},
		assignments: map[string][]canvas.Assignment{
			"7229": {{ID: 10, Name: "hw", DueAt: due(testNow.Add(time.Hour)), UpdatedAt: testNow}},
		},
	}

	opts := Options{CourseIDs: []string{"7229", "9999"}, Window: testWindow()}
	result, err := newPipeline(source, &schemaStub{}, &writerStub{}, opts).Run(context.Background(), testNow)
	require.NoError(t, err)

	require.Len(t, result.Failures, 1)
	require.Equal(t, "9999", result.Failures[0].ID)
	require.Equal(t, domain.FailureCourseFetch, result.Failures[0].Kind)
	require.Equal(t, 1, result.Written)
}
