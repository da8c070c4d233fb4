// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"mole/internal/config"
	"mole/internal/exitcode"
	"mole/internal/logger"
	"mole/internal/remote"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsRemote returns true if the command talks to the task store.
	// Commands like help, version, login, logout return false.
	NeedsRemote() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *pflag.FlagSet)

	// Run executes the command and returns the exit code.
	// args contains positional arguments after flag parsing.
	Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int
}

// Env is what the dispatcher hands to a command.
type Env struct {
	Config *config.Config

	// Remote is nil if NeedsRemote() returns false.
	Remote remote.Remote

	Log *logger.Logger
}

// Quiet reports whether informational output is suppressed.
func (e *Env) Quiet() bool {
	return e.Config != nil && e.Config.Quiet
}

// remoteError reports err from the remote with the exit code it maps to.
func remoteError(errOut io.Writer, err error) int {
	switch {
	case errors.Is(err, remote.ErrInvalidArgument):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	case errors.Is(err, remote.ErrNotFound):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}
