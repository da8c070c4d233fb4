package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"mole/internal/config"
	"mole/internal/exitcode"
)

func init() {
	Register(&InitCmd{})
}

// InitCmd implements the init command.
type InitCmd struct {
	force bool
}

func (c *InitCmd) Name() string      { return "init" }
func (c *InitCmd) Aliases() []string { return nil }
func (c *InitCmd) Synopsis() string  { return "Write a starter config.yaml" }
func (c *InitCmd) Usage() string     { return "mole init [--force]" }
func (c *InitCmd) NeedsRemote() bool { return false }

func (c *InitCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&c.force, "force", false, "")
}

func (c *InitCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	path := env.Config.SettingsPath()
	if _, err := os.Stat(path); err == nil && !c.force {
		fmt.Fprintf(errOut, "error: %s already exists (use --force to overwrite)\n", path)
		return exitcode.UserError
	}
	if err := config.WriteDefault(path); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if !env.Quiet() {
		fmt.Fprintln(out, path)
	}
	return exitcode.Success
}
