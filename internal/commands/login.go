package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"mole/internal/backend"
	"mole/internal/backend/googletasks"
	"mole/internal/config"
	"mole/internal/exitcode"
	"mole/internal/secrets"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	store secrets.Store
}

// SetStore replaces the secret store used for Todoist (for testing).
func (c *LoginCmd) SetStore(s secrets.Store) {
	c.store = s
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Authenticate with the task store" }
func (c *LoginCmd) Usage() string     { return "mole login [common flags]" }
func (c *LoginCmd) NeedsRemote() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *LoginCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	cfg := env.Config
	if cfg.Settings.Backend == config.BackendTodoist {
		return c.checkTodoist(ctx, env, out, errOut)
	}

	if !cfg.HasOAuthClient() {
		printOAuthHelp(cfg, errOut)
		return exitcode.AuthError
	}
	if cfg.HasToken() && googletasks.TokenValid(ctx, cfg) {
		if !env.Quiet() {
			fmt.Fprintln(out, "already logged in")
		}
		return exitcode.Success
	}

	if err := googletasks.Login(ctx, cfg, errOut); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}
	if !env.Quiet() {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// checkTodoist resolves and validates the Todoist token. There is nothing
// to store: the token lives in config, the environment or 1Password.
func (c *LoginCmd) checkTodoist(ctx context.Context, env *Env, out, errOut io.Writer) int {
	store := c.store
	if store == nil {
		store = backend.Secrets(env.Config, env.Log.Named("secrets"))
	}
	if _, err := backend.TodoistToken(ctx, env.Config.Settings.Todoist, store); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		if errors.Is(err, secrets.ErrSecretUnavailable) {
			fmt.Fprintf(errOut, "Set todoist.token in %s, export %s_TODOIST_API_KEY, or sign in to 1Password (op signin).\n",
				env.Config.SettingsPath(), config.EnvPrefix)
		}
		return exitcode.AuthError
	}
	if !env.Quiet() {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

func printOAuthHelp(cfg *config.Config, errOut io.Writer) {
	fmt.Fprintf(errOut, "error: oauth_client.json not found in %s\n\n", cfg.Dir)
	fmt.Fprintln(errOut, "To authenticate with Google Tasks, you need OAuth credentials:")
	fmt.Fprintln(errOut, "")
	fmt.Fprintln(errOut, "1. Go to https://console.cloud.google.com/apis/credentials")
	fmt.Fprintln(errOut, "2. Create a project (or select an existing one)")
	fmt.Fprintln(errOut, "3. Enable the Google Tasks API:")
	fmt.Fprintln(errOut, "   https://console.cloud.google.com/apis/library/tasks.googleapis.com")
	fmt.Fprintln(errOut, "4. Create OAuth 2.0 credentials:")
	fmt.Fprintln(errOut, "   - Click 'Create Credentials' > 'OAuth client ID'")
	fmt.Fprintln(errOut, "   - Choose 'Desktop app' as application type")
	fmt.Fprintln(errOut, "   - Download the JSON file")
	fmt.Fprintln(errOut, "5. Save it as:")
	fmt.Fprintf(errOut, "   %s\n", cfg.OAuthClientPath())
	fmt.Fprintln(errOut, "")
	fmt.Fprintln(errOut, "Then run 'mole login' again.")
}
