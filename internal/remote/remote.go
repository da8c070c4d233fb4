// Package remote defines the backend-agnostic port to a task store.
package remote

import "context"

// Remote defines the interface for task store operations.
// Rules and the reconciler only talk to a task store through this interface.
// Backends never leak their SDK types past it.
type Remote interface {
	// GetTasks returns open tasks matching the filter.
	// Returns an empty slice (not an error) when nothing matches.
	GetTasks(ctx context.Context, f Filter) ([]Task, error)

	// CreateTask creates a task in task.Project (or the backend default when empty).
	// Returns the task annotated with its new ID.
	CreateTask(ctx context.Context, task Task) (Task, error)

	// DeleteTask deletes a task by ID. When ID is empty the backend looks the task
	// up by name (and label/project when set) and deletes the first match.
	// Deleting a task that no longer exists is not an error.
	DeleteTask(ctx context.Context, task Task) error

	// UpdateTask writes the task's fields back to the store.
	// The task's ID must be set.
	UpdateTask(ctx context.Context, task Task) error
}
