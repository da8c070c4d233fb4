package remote

import "context"

// Lister is the read half of Remote.
type Lister interface {
	GetTasks(ctx context.Context, f Filter) ([]Task, error)
}

// LookupID resolves the ID of a task that was never created through us,
// matching on name plus label and project when the task carries them.
// Returns "" and no error when nothing matches.
//
// This is inherently racy against concurrent writers; the next
// reconciliation pass cleans up whatever it gets wrong.
func LookupID(ctx context.Context, l Lister, task Task) (string, error) {
	if task.ID != "" {
		return task.ID, nil
	}
	f := Filter{Name: task.Name, Project: task.Project}
	if len(task.Labels) > 0 {
		f.Label = task.Labels[0]
	}
	matches, err := l.GetTasks(ctx, f)
	if err != nil {
		return "", err
	}
	// Backends may ignore parts of the filter; re-check locally.
	var found []Task
	for _, t := range matches {
		if f.Matches(t) && LabelsSubset(task.Labels, t.Labels) {
			found = append(found, t)
		}
	}
	if len(found) == 0 {
		return "", nil
	}
	SortKeepers(found)
	return found[0].ID, nil
}
