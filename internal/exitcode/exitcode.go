// Package exitcode defines the process exit codes of mole.
package exitcode

const (
	// Success also covers a pass where rules were skipped.
	Success = 0

	// UserError: bad arguments or settings, unknown rule, chore or task.
	UserError = 1

	// AuthError: no usable credential for the task store.
	AuthError = 2

	// BackendError: the task store failed, or a pass had actions that failed to apply.
	BackendError = 3
)
