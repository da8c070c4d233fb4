package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"mole/internal/config"
	"mole/internal/exitcode"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string      { return "logout" }
func (c *LogoutCmd) Aliases() []string { return nil }
func (c *LogoutCmd) Synopsis() string  { return "Remove stored credentials" }
func (c *LogoutCmd) Usage() string     { return "mole logout [common flags]" }
func (c *LogoutCmd) NeedsRemote() bool { return false }

func (c *LogoutCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	cfg := env.Config
	if cfg.Settings.Backend == config.BackendTodoist {
		if !env.Quiet() {
			fmt.Fprintln(out, "nothing stored: the todoist token is read from config, the environment or 1Password")
		}
		return exitcode.Success
	}

	if !cfg.HasToken() {
		if !env.Quiet() {
			fmt.Fprintln(out, "not logged in")
		}
		return exitcode.Success
	}
	if err := cfg.RemoveToken(); err != nil {
		fmt.Fprintf(errOut, "error: failed to remove token: %v\n", err)
		return exitcode.AuthError
	}

	if !env.Quiet() {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
