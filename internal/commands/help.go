package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"mole/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "mole help" }
func (c *HelpCmd) NeedsRemote() bool { return false }

func (c *HelpCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  mole run [common flags] [--rules <a,b>] [--dry-run] [--watch] [--every <d>] [--metrics-addr <addr>]
  mole rules [common flags]
  mole tasks [common flags] [--project <p>] [--label <l>] [--name <n>] [--filter <query>]
  mole add [common flags] [--project <p>] [--label <l>]... [--priority <n>] [--due <date>] [--description <text>] <title...>
  mole rm [common flags] [--all] <id|name...>
  mole journal [common flags] [--at <time>] <entry...>
  mole chore [common flags] <name...>
  mole chores [common flags]
  mole init [common flags] [--force]
  mole login [common flags]
  mole logout [common flags]
  mole help
  mole version

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
