// Package cli turns command-line arguments into a command run.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mole/internal/backend"
	"mole/internal/commands"
	"mole/internal/config"
	"mole/internal/exitcode"
	"mole/internal/logger"
	"mole/internal/remote"
)

// RemoteFactory creates a Remote from config.
// Used to inject the backend during dispatch.
type RemoteFactory func(ctx context.Context, cfg *config.Config, log *zap.Logger) (remote.Remote, error)

// DefaultFactory builds the configured backend, resolving credentials
// from the environment and 1Password.
func DefaultFactory(ctx context.Context, cfg *config.Config, log *zap.Logger) (remote.Remote, error) {
	return backend.New(ctx, cfg, log, backend.Secrets(cfg, log.Named("secrets")))
}

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  RemoteFactory
}

// NewDispatcher creates a new dispatcher with the given registry and remote factory.
// A nil factory means DefaultFactory.
func NewDispatcher(registry *commands.Registry, factory RemoteFactory) *Dispatcher {
	if factory == nil {
		factory = DefaultFactory
	}
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

type commonFlags struct {
	configDir string
	quiet     bool
	debug     bool
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> help
	if len(args) == 0 {
		args = []string{"help"}
	}

	// Flags require a command
	if strings.HasPrefix(args[0], "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", args[0])
		return exitcode.UserError
	}
	if _, ok := d.registry.Find(args[0]); !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", args[0])
		return exitcode.UserError
	}

	code := exitcode.Success
	root := d.buildRoot(ctx, &code, out, errOut)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return code
}

// buildRoot builds a cobra tree with one subcommand per registered command.
// The exit code of the command that ran is stored in code.
func (d *Dispatcher) buildRoot(ctx context.Context, code *int, out, errOut io.Writer) *cobra.Command {
	var flags commonFlags

	root := &cobra.Command{
		Use:           "mole",
		Short:         "Keep marker tasks in sync with the rest of your life",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVar(&flags.configDir, "config", "", "Override config directory")
	root.PersistentFlags().BoolVar(&flags.quiet, "quiet", false, "Suppress informational output")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Print debug logs to stderr")

	for _, cmd := range d.registry.All() {
		c := &cobra.Command{
			Use:     cmd.Name(),
			Aliases: cmd.Aliases(),
			Short:   cmd.Synopsis(),
			Long:    "Usage: " + cmd.Usage(),
			Args:    cobra.ArbitraryArgs,
			RunE: func(c *cobra.Command, args []string) error {
				*code = d.runCommand(c.Context(), cmd, flags, args, out, errOut)
				return nil
			},
		}
		cmd.RegisterFlags(c.Flags())

		if cmd.Name() == "help" {
			root.SetHelpCommand(c)
			continue
		}
		root.AddCommand(c)
	}

	// --help prints the same text as the help command.
	root.SetHelpFunc(func(c *cobra.Command, _ []string) {
		if help, ok := d.registry.Find("help"); ok {
			*code = help.Run(ctx, &commands.Env{Log: logger.Nop()}, nil, out, errOut)
		}
	})
	return root
}

func (d *Dispatcher) runCommand(ctx context.Context, cmd commands.Command, flags commonFlags, args []string, out, errOut io.Writer) int {
	cfg, err := config.New(flags.configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = flags.quiet
	cfg.Debug = flags.debug

	log, err := logger.Build(cfg.Settings.Log, zapcore.Lock(zapcore.AddSync(errOut)))
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	defer log.Sync()
	switch {
	case flags.debug:
		_ = log.SetLevel("debug")
	case flags.quiet:
		_ = log.SetLevel("warn")
	}

	env := &commands.Env{Config: cfg, Log: log}
	if cmd.NeedsRemote() {
		r, err := d.factory(ctx, cfg, log.Logger)
		if err != nil {
			if backend.IsCredentialError(err) {
				fmt.Fprintf(errOut, "error: auth error: %s\n", err)
				return exitcode.AuthError
			}
			fmt.Fprintf(errOut, "error: backend error: %s\n", err)
			return exitcode.BackendError
		}
		if closer, ok := r.(io.Closer); ok {
			defer closer.Close()
		}
		env.Remote = r
	}

	return cmd.Run(ctx, env, args, out, errOut)
}
