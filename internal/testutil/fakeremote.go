// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"mole/internal/remote"
)

// FakeRemote is an in-memory implementation of remote.Remote for testing.
// IDs are assigned sequentially ("1", "2", ...) so keeper order is predictable.
type FakeRemote struct {
	mu     sync.RWMutex
	tasks  []remote.Task
	nextID int
	now    time.Time

	// Calls made against the fake, in order.
	Created []remote.Task
	Deleted []remote.Task
	Updated []remote.Task

	// Error injection for testing
	GetTasksErr   error
	CreateTaskErr error
	UpdateTaskErr error
	DeleteErrs    map[string]error // task name -> error
}

// NewFakeRemote creates an empty FakeRemote.
func NewFakeRemote() *FakeRemote {
	return &FakeRemote{
		nextID:     1,
		now:        time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		DeleteErrs: make(map[string]error),
	}
}

// AddTask seeds a task, assigning an ID when it has none. Returns the stored task.
func (f *FakeRemote) AddTask(task remote.Task) remote.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insert(task)
}

// Tasks returns a copy of every stored task, including completed ones.
func (f *FakeRemote) Tasks() []remote.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]remote.Task, len(f.tasks))
	copy(out, f.tasks)
	return out
}

func (f *FakeRemote) insert(task remote.Task) remote.Task {
	if task.ID == "" {
		task.ID = strconv.Itoa(f.nextID)
		f.nextID++
	}
	if task.CreatedAt.IsZero() {
		f.now = f.now.Add(time.Minute)
		task.CreatedAt = f.now
	}
	task.Labels = remote.NormalizeLabels(task.Labels)
	f.tasks = append(f.tasks, task)
	return task
}

// GetTasks implements remote.Remote.
func (f *FakeRemote) GetTasks(ctx context.Context, filter remote.Filter) ([]remote.Task, error) {
	if f.GetTasksErr != nil {
		return nil, f.GetTasksErr
	}
	if filter.Query != "" {
		return nil, fmt.Errorf("%w: fake remote does not support queries", remote.ErrInvalidArgument)
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	result := []remote.Task{}
	for _, t := range f.tasks {
		if !t.Completed && filter.Matches(t) {
			result = append(result, t)
		}
	}
	return result, nil
}

// CreateTask implements remote.Remote.
func (f *FakeRemote) CreateTask(ctx context.Context, task remote.Task) (remote.Task, error) {
	if f.CreateTaskErr != nil {
		return remote.Task{}, f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	task.ID = ""
	task.CreatedAt = time.Time{}
	created := f.insert(task)
	f.Created = append(f.Created, created)
	return created, nil
}

// DeleteTask implements remote.Remote.
func (f *FakeRemote) DeleteTask(ctx context.Context, task remote.Task) error {
	if err := f.DeleteErrs[task.Name]; err != nil {
		return err
	}
	id, err := remote.LookupID(ctx, f, task)
	if err != nil {
		return err
	}
	if id == "" {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			f.Deleted = append(f.Deleted, t)
			return nil
		}
	}
	return nil
}

// UpdateTask implements remote.Remote.
func (f *FakeRemote) UpdateTask(ctx context.Context, task remote.Task) error {
	if err := remote.RequireID(task); err != nil {
		return err
	}
	if f.UpdateTaskErr != nil {
		return f.UpdateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, t := range f.tasks {
		if t.ID == task.ID {
			task.CreatedAt = t.CreatedAt
			task.Labels = remote.NormalizeLabels(task.Labels)
			f.tasks[i] = task
			f.Updated = append(f.Updated, task)
			return nil
		}
	}
	return fmt.Errorf("%w: task %s", remote.ErrNotFound, task.ID)
}
