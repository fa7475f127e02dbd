package domain

import (
	"errors"
	"time"
)

// ErrInvalidWindow marks a window whose start falls after its end. The
// filter refuses such windows instead of silently matching nothing.
var ErrInvalidWindow = errors.New("sync window start is after end")

// SyncWindow bounds the due dates included in a run. Nil bounds are
// open; comparisons are inclusive at both ends.
type SyncWindow struct {
	Start          *time.Time
	End            *time.Time
	IncludeUndated bool
}

// Validate rejects windows with inverted bounds.
func (w SyncWindow) Validate() error {
	if w.Start != nil && w.End != nil && w.Start.After(*w.End) {
		return ErrInvalidWindow
	}
	return nil
}

// Contains reports whether an assignment due at the given time (nil for
// undated) falls inside the window.
func (w SyncWindow) Contains(due *time.Time) bool {
	if due == nil {
		return w.IncludeUndated
	}
	if w.Start != nil && due.Before(*w.Start) {
		return false
	}
	if w.End != nil && due.After(*w.End) {
		return false
	}
	return true
}
