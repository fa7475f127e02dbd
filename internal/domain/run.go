package domain

import (
	"time"

	"github.com/google/uuid"
)

// FailureKind tags the pipeline stage that produced a per-item failure.
type FailureKind string

const (
	FailureCourseFetch FailureKind = "course_fetch"
	FailureNormalize   FailureKind = "normalize"
	FailureWrite       FailureKind = "write"
)

// Failure records one recoverable error without aborting the run. ID
// holds the assignment id, or the course id for course-level failures.
type Failure struct {
	ID   string
	Kind FailureKind
	Err  string
}

// RunResult summarizes a single sync invocation. It is the only
// externally observable output of a run.
type RunResult struct {
	RunID       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Fetched     int
	FilteredOut int
	Written     int
	Failures    []Failure
	Fatal       bool
}

// NewRunResult stamps a fresh result for a run starting now.
func NewRunResult(startedAt time.Time) RunResult {
	return RunResult{
		RunID:     uuid.NewString(),
		StartedAt: startedAt.UTC(),
	}
}

// Record appends a recoverable failure.
func (r *RunResult) Record(id string, kind FailureKind, err error) {
	r.Failures = append(r.Failures, Failure{ID: id, Kind: kind, Err: err.Error()})
}
