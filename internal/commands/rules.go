package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"mole/internal/exitcode"
	"mole/internal/output"
	"mole/internal/rules"
)

func init() {
	Register(&RulesCmd{})
}

// RulesCmd implements the rules command.
type RulesCmd struct {
	deps DepsFunc
}

// SetDeps replaces the signal sources (for testing).
func (c *RulesCmd) SetDeps(fn DepsFunc) {
	c.deps = fn
}

func (c *RulesCmd) Name() string      { return "rules" }
func (c *RulesCmd) Aliases() []string { return nil }
func (c *RulesCmd) Synopsis() string  { return "List the configured rules" }
func (c *RulesCmd) Usage() string     { return "mole rules" }
func (c *RulesCmd) NeedsRemote() bool { return false }

func (c *RulesCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *RulesCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	depsFn := c.deps
	if depsFn == nil {
		depsFn = RuleDeps
	}
	deps, release, err := depsFn(ctx, env)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	defer release()

	reg, err := rules.Build(env.Config.Settings, deps)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	for _, r := range reg.All() {
		output.FormatRule(out, r)
	}
	return exitcode.Success
}
