package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"mole/internal/exitcode"
	"mole/internal/remote"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	project     string
	labels      []string
	priority    int
	due         string
	description string
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "mole add [--project <p>] [--label <l>]... [--priority <n>] [--due <date>] [--description <text>] <title...>"
}
func (c *AddCmd) NeedsRemote() bool { return true }

func (c *AddCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.project, "project", "p", "", "")
	fs.StringArrayVarP(&c.labels, "label", "l", nil, "")
	fs.IntVar(&c.priority, "priority", 0, "")
	fs.StringVar(&c.due, "due", "", "")
	fs.StringVarP(&c.description, "description", "d", "", "")
}

func (c *AddCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}
	if c.priority < 0 || c.priority > 4 {
		fmt.Fprintf(errOut, "error: priority out of range: %d\n", c.priority)
		return exitcode.UserError
	}

	task := remote.Task{
		Name:        title,
		Description: c.description,
		Labels:      remote.NormalizeLabels(c.labels),
		Project:     c.project,
		Priority:    c.priority,
	}
	if c.due != "" {
		d, err := time.Parse("2006-01-02", c.due)
		if err != nil {
			fmt.Fprintf(errOut, "error: invalid due date: %s\n", c.due)
			return exitcode.UserError
		}
		task.Due = &d
	}

	created, err := env.Remote.CreateTask(ctx, task)
	if err != nil {
		return remoteError(errOut, err)
	}

	if !env.Quiet() {
		fmt.Fprintf(out, "ok %s\n", created.ID)
	}
	return exitcode.Success
}
