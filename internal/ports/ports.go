package ports

import (
	"context"
	"time"

	"CanvasNotionSync/internal/canvas"
	"CanvasNotionSync/internal/domain"
)

// AssignmentSource pulls raw course and assignment records from Canvas.
type AssignmentSource interface {
	ListActiveCourses(ctx context.Context) ([]canvas.Course, error)
	GetCourse(ctx context.Context, id string) (canvas.Course, error)
	ListAssignments(ctx context.Context, courseID string) ([]canvas.Assignment, error)
}

// DatabaseManager guarantees a fresh, empty target database before any
// writes and returns its identifier.
type DatabaseManager interface {
	EnsureDatabase(ctx context.Context) (string, error)
}

// PageWriter inserts one row per canonical assignment.
type PageWriter interface {
	CreatePage(ctx context.Context, databaseID string, a domain.Assignment) error
}

// Trigger controls when sync runs execute.
type Trigger interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
