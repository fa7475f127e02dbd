package filter

import "CanvasNotionSync/internal/domain"

// Apply keeps the assignments whose due dates fall inside the window,
// preserving input order. The window must already be validated.
func Apply(items []domain.Assignment, window domain.SyncWindow) []domain.Assignment {
	kept := make([]domain.Assignment, 0, len(items))
	for _, item := range items {
		if window.Contains(item.DueDate) {
			kept = append(kept, item)
		}
	}
	return kept
}
