package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"mole/internal/chores"
	"mole/internal/exitcode"
	"mole/internal/output"
)

func init() {
	Register(&ChoreCmd{})
	Register(&ChoresCmd{})
}

// ChoreCmd implements the chore command. It is the only way to record a
// completion: a chore task ticked off in the task store is recreated on
// the next pass while the chore is due.
type ChoreCmd struct{}

func (c *ChoreCmd) Name() string      { return "chore" }
func (c *ChoreCmd) Aliases() []string { return nil }
func (c *ChoreCmd) Synopsis() string  { return "Mark a chore done (completing its task is not enough)" }
func (c *ChoreCmd) Usage() string     { return "mole chore <name...>" }
func (c *ChoreCmd) NeedsRemote() bool { return false }

func (c *ChoreCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *ChoreCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		fmt.Fprintln(errOut, "error: chore name required")
		return exitcode.UserError
	}
	store, code := openChoreStore(env, errOut)
	if store == nil {
		return code
	}
	defer store.Close()

	if err := store.MarkComplete(ctx, name); err != nil {
		if errors.Is(err, chores.ErrUnknownChore) {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}

	if !env.Quiet() {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// ChoresCmd implements the chores command.
type ChoresCmd struct{}

func (c *ChoresCmd) Name() string      { return "chores" }
func (c *ChoresCmd) Aliases() []string { return nil }
func (c *ChoresCmd) Synopsis() string  { return "List chores and when they were last done" }
func (c *ChoresCmd) Usage() string     { return "mole chores" }
func (c *ChoresCmd) NeedsRemote() bool { return false }

func (c *ChoresCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *ChoresCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	store, code := openChoreStore(env, errOut)
	if store == nil {
		return code
	}
	defer store.Close()

	statuses, err := store.Statuses(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	for _, st := range statuses {
		output.FormatChore(out, st)
	}
	return exitcode.Success
}

func openChoreStore(env *Env, errOut io.Writer) (*chores.Store, int) {
	if len(env.Config.Settings.Chores.Definitions) == 0 {
		fmt.Fprintf(errOut, "error: no chores configured in %s\n", env.Config.SettingsPath())
		return nil, exitcode.UserError
	}
	store, err := openChores(env.Config.Settings)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return nil, exitcode.BackendError
	}
	return store, exitcode.Success
}
