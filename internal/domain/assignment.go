package domain

import "time"

// Course identifies a Canvas course inside a single run.
type Course struct {
	ID   string
	Name string
}

// Status is the derived state of an assignment. It is never empty: the
// normalizer always resolves one of the four values below.
type Status string

const (
	StatusNotStarted Status = "Not Started"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
	StatusOverdue    Status = "Overdue"
)

// Statuses lists every derived state in the order the target select
// property declares its options.
func Statuses() []Status {
	return []Status{StatusOverdue, StatusInProgress, StatusCompleted, StatusNotStarted}
}

// Assignment is the canonical record the pipeline operates on after
// normalization. ID is derived once from the Canvas assignment id and
// stays stable across runs.
type Assignment struct {
	ID             string
	Name           string
	CourseName     string
	DueDate        *time.Time
	Description    string
	UpdatedDate    time.Time
	Link           string
	PointsPossible *float64
	Score          *float64
	Status         Status
	SubmittedDate  *time.Time
}
