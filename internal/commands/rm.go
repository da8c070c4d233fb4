package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"mole/internal/exitcode"
	"mole/internal/remote"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct {
	all bool
}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return nil }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "mole rm [--all] <id|name...>" }
func (c *RmCmd) NeedsRemote() bool { return true }

func (c *RmCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&c.all, "all", false, "")
}

func (c *RmCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	ref := strings.TrimSpace(strings.Join(args, " "))
	if ref == "" {
		fmt.Fprintln(errOut, "error: task reference required")
		return exitcode.UserError
	}

	targets, err := resolveTasks(ctx, env.Remote, ref)
	if err != nil {
		return remoteError(errOut, err)
	}
	switch {
	case len(targets) == 0:
		fmt.Fprintf(errOut, "error: task not found: %s\n", ref)
		return exitcode.UserError
	case len(targets) > 1 && !c.all:
		fmt.Fprintf(errOut, "error: ambiguous task name: %s (%d matches, use --all)\n", ref, len(targets))
		return exitcode.UserError
	}

	for _, t := range targets {
		if err := env.Remote.DeleteTask(ctx, t); err != nil {
			return remoteError(errOut, err)
		}
	}

	if !env.Quiet() {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// resolveTasks finds the open tasks ref refers to: the task with that ID,
// or else every task with that name.
func resolveTasks(ctx context.Context, r remote.Remote, ref string) ([]remote.Task, error) {
	open, err := r.GetTasks(ctx, remote.Filter{})
	if err != nil {
		return nil, err
	}
	var byName []remote.Task
	for _, t := range open {
		if t.ID == ref {
			return []remote.Task{t}, nil
		}
		if t.Name == ref {
			byName = append(byName, t)
		}
	}
	return byName, nil
}
