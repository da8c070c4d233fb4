package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrRemoteUnavailable is returned when the task store can't be reached
	// or refuses our credentials.
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrInvalidArgument is returned for caller misuse, such as updating a task without an ID.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when a referenced project, list or task does not exist.
	ErrNotFound = errors.New("not found")
)

// Unavailable wraps err as ErrRemoteUnavailable.
func Unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
}

// RequireID returns ErrInvalidArgument when the task has no ID.
func RequireID(task Task) error {
	if task.ID == "" {
		return fmt.Errorf("%w: task %q has no id", ErrInvalidArgument, task.Name)
	}
	return nil
}
