package normalize

import (
	"fmt"
	"strconv"
	"time"

	"CanvasNotionSync/internal/canvas"
	"CanvasNotionSync/internal/canvasfmt"
	"CanvasNotionSync/internal/domain"
)

// Options tunes the ambiguous started-but-unsubmitted signal. Canvas
// does not expose a stable "draft" marker across API versions, so the
// states that count as started work are configurable.
type Options struct {
	// InProgressStates lists additional submission workflow states
	// treated as started work when the assignment is not yet due.
	InProgressStates []string
}

// submissionKind is the tagged form of the Canvas submission variants.
type submissionKind int

const (
	submissionNone submissionKind = iota
	submissionUntouched
	submissionStarted
	submissionComplete
)

// Assignment converts one raw Canvas record into its canonical form.
// An unrecognized submission workflow state is an error, not a guessed
// status; the caller records it and drops the record.
func Assignment(course domain.Course, raw canvas.Assignment, now time.Time, opts Options) (domain.Assignment, error) {
	kind, err := classifySubmission(raw.Submission, opts)
	if err != nil {
		return domain.Assignment{}, err
	}

	a := domain.Assignment{
		ID:             strconv.FormatInt(raw.ID, 10),
		Name:           raw.Name,
		CourseName:     course.Name,
		DueDate:        raw.DueAt,
		UpdatedDate:    raw.UpdatedAt,
		Link:           raw.HTMLURL,
		PointsPossible: raw.PointsPossible,
	}

	if raw.Description != nil {
		a.Description = canvasfmt.CleanDescription(*raw.Description)
	}
	if raw.Submission != nil {
		a.Score = raw.Submission.Score
		a.SubmittedDate = raw.Submission.SubmittedAt
	}

	a.Status = deriveStatus(kind, raw.DueAt, now)
	return a, nil
}

func classifySubmission(sub *canvas.Submission, opts Options) (submissionKind, error) {
	if sub == nil {
		return submissionNone, nil
	}
	if sub.SubmittedAt != nil || sub.GradedAt != nil {
		return submissionComplete, nil
	}

	switch sub.WorkflowState {
	case "graded", "submitted", "pending_review":
		return submissionComplete, nil
	case "unsubmitted", "":
		if sub.Attempt > 0 {
			return submissionStarted, nil
		}
		return submissionUntouched, nil
	}

	for _, state := range opts.InProgressStates {
		if sub.WorkflowState == state {
			return submissionStarted, nil
		}
	}

	return submissionNone, fmt.Errorf("unrecognized submission workflow state %q", sub.WorkflowState)
}

// deriveStatus applies the priority rules: a submitted assignment is
// Completed no matter its due date, an undated one cannot be overdue,
// and "past" means strictly before now in UTC.
func deriveStatus(kind submissionKind, due *time.Time, now time.Time) domain.Status {
	if kind == submissionComplete {
		return domain.StatusCompleted
	}
	if due == nil {
		return domain.StatusNotStarted
	}
	if due.UTC().Before(now.UTC()) {
		return domain.StatusOverdue
	}
	if kind == submissionStarted {
		return domain.StatusInProgress
	}
	return domain.StatusNotStarted
}
