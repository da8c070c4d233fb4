package reconcile

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"mole/internal/remote"
)

// Result records what Apply actually did.
type Result struct {
	Created []remote.Task
	Deleted []remote.Task
	Updated []remote.Task
	Failed  []Failure
}

// Failure is one action that could not be applied.
type Failure struct {
	Kind string // "create", "delete" or "update"
	Task remote.Task
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s %q: %v", f.Kind, f.Task.Name, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Apply executes set against r: deletions, then creations, then updates.
// A failing action is logged and recorded but does not stop the rest;
// the returned error joins every failure. Nothing is rolled back.
func Apply(ctx context.Context, r remote.Remote, set ActionSet, log *zap.Logger) (Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var res Result
	fail := func(kind string, task remote.Task, err error) {
		log.Warn("action failed",
			zap.String("action", kind),
			zap.String("task", task.Name),
			zap.String("id", task.ID),
			zap.Error(err))
		res.Failed = append(res.Failed, Failure{Kind: kind, Task: task, Err: err})
	}

	for _, task := range set.Delete {
		if err := r.DeleteTask(ctx, task); err != nil {
			fail("delete", task, err)
			continue
		}
		log.Info("deleted task", zap.String("task", task.Name), zap.String("id", task.ID))
		res.Deleted = append(res.Deleted, task)
	}

	for _, task := range set.Create {
		created, err := r.CreateTask(ctx, task)
		if err != nil {
			fail("create", task, err)
			continue
		}
		log.Info("created task", zap.String("task", created.Name), zap.String("id", created.ID))
		res.Created = append(res.Created, created)
	}

	for _, task := range set.Update {
		if err := r.UpdateTask(ctx, task); err != nil {
			fail("update", task, err)
			continue
		}
		log.Info("updated task", zap.String("task", task.Name), zap.String("id", task.ID))
		res.Updated = append(res.Updated, task)
	}

	if len(res.Failed) == 0 {
		return res, nil
	}
	errs := make([]error, len(res.Failed))
	for i, f := range res.Failed {
		errs[i] = f
	}
	return res, errors.Join(errs...)
}
