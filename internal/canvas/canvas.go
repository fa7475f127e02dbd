package canvas

import (
	"errors"
	"time"
)

// ErrUnauthorized marks credential rejection by the Canvas API. It is
// the one fatal condition a reader can surface: without a valid token
// nothing in the run can proceed.
var ErrUnauthorized = errors.New("canvas rejected credentials")

// Course mirrors the Canvas course payload fields the sync consumes.
type Course struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	WorkflowState string `json:"workflow_state"`
}

// Active reports whether the course is open for the current user.
func (c Course) Active() bool {
	return c.WorkflowState == "available" || c.WorkflowState == "active"
}

// Assignment mirrors one Canvas assignment with the authenticated
// user's submission embedded via include[]=submission.
type Assignment struct {
	ID             int64       `json:"id"`
	Name           string      `json:"name"`
	DueAt          *time.Time  `json:"due_at"`
	Description    *string     `json:"description"`
	PointsPossible *float64    `json:"points_possible"`
	UpdatedAt      time.Time   `json:"updated_at"`
	HTMLURL        string      `json:"html_url"`
	Submission     *Submission `json:"submission"`
}

// Submission is the user's own submission sub-record. Canvas returns
// it even for untouched assignments, with workflow_state unsubmitted.
type Submission struct {
	WorkflowState string     `json:"workflow_state"`
	SubmittedAt   *time.Time `json:"submitted_at"`
	GradedAt      *time.Time `json:"graded_at"`
	Score         *float64   `json:"score"`
	Attempt       int        `json:"attempt"`
}
