package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"mole/internal/exitcode"
	"mole/internal/output"
	"mole/internal/remote"
)

func init() {
	Register(&TasksCmd{})
}

// TasksCmd implements the tasks command.
type TasksCmd struct {
	filter remote.Filter
}

func (c *TasksCmd) Name() string      { return "tasks" }
func (c *TasksCmd) Aliases() []string { return []string{"ls"} }
func (c *TasksCmd) Synopsis() string  { return "List open tasks" }
func (c *TasksCmd) Usage() string {
	return "mole tasks [--project <p>] [--label <l>] [--name <n>] [--filter <query>]"
}
func (c *TasksCmd) NeedsRemote() bool { return true }

func (c *TasksCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.filter.Project, "project", "p", "", "")
	fs.StringVarP(&c.filter.Label, "label", "l", "", "")
	fs.StringVarP(&c.filter.Name, "name", "n", "", "")
	fs.StringVarP(&c.filter.Query, "filter", "f", "", "")
}

func (c *TasksCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	tasks, err := env.Remote.GetTasks(ctx, c.filter)
	if err != nil {
		return remoteError(errOut, err)
	}

	if len(tasks) == 0 {
		if !env.Quiet() {
			fmt.Fprintln(out, "no tasks found")
		}
		return exitcode.Success
	}
	for _, t := range tasks {
		output.FormatTask(out, t)
	}
	return exitcode.Success
}
