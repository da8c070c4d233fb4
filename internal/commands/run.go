package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"mole/internal/chores"
	"mole/internal/config"
	"mole/internal/exitcode"
	"mole/internal/journal"
	"mole/internal/metrics"
	"mole/internal/output"
	"mole/internal/rules"
	"mole/internal/signal/jira"
	"mole/internal/signal/mail"
)

// debugInterval replaces longer watch intervals under --debug.
const debugInterval = 10 * time.Second

func init() {
	Register(&RunCmd{})
}

// DepsFunc builds the signal sources for rules. The returned func releases them.
type DepsFunc func(ctx context.Context, env *Env) (rules.Deps, func(), error)

// RunCmd implements the run command.
type RunCmd struct {
	rules       []string
	dryRun      bool
	watch       bool
	every       time.Duration
	metricsAddr string

	deps DepsFunc
}

// SetDeps replaces the signal sources (for testing).
func (c *RunCmd) SetDeps(fn DepsFunc) {
	c.deps = fn
}

func (c *RunCmd) Name() string      { return "run" }
func (c *RunCmd) Aliases() []string { return nil }
func (c *RunCmd) Synopsis() string  { return "Reconcile marker tasks" }
func (c *RunCmd) Usage() string {
	return "mole run [--rules <a,b>] [--dry-run] [--watch] [--every <d>] [--metrics-addr <addr>]"
}
func (c *RunCmd) NeedsRemote() bool { return true }

func (c *RunCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringSliceVarP(&c.rules, "rules", "r", nil, "")
	fs.BoolVarP(&c.dryRun, "dry-run", "n", false, "")
	fs.BoolVarP(&c.watch, "watch", "w", false, "")
	fs.DurationVar(&c.every, "every", 0, "")
	fs.StringVar(&c.metricsAddr, "metrics-addr", "", "")
}

func (c *RunCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if c.every < 0 {
		fmt.Fprintf(errOut, "error: invalid interval: %s\n", c.every)
		return exitcode.UserError
	}
	settings := env.Config.Settings
	log := env.Log.Logger

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

	reg, err := rules.Build(settings, deps)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	names := c.rules
	if len(names) == 0 {
		names = settings.Rules.Enabled
	}
	selected, err := reg.Select(names)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	driver := &rules.Driver{
		Remote: env.Remote,
		Log:    log.Named("driver"),
		DryRun: c.dryRun,
	}

	interval, loop := c.interval(env)
	if !loop {
		outcomes := driver.Run(ctx, selected)
		return c.report(outcomes, env, out, errOut)
	}

	addr := c.metricsAddr
	if addr == "" {
		addr = settings.Metrics.Addr
	}
	if addr != "" {
		driver.Metrics = metrics.New()
		go func() {
			if err := metrics.Serve(ctx, addr, driver.Metrics, log); err != nil {
				log.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}
	if _, err := os.Stat(env.Config.SettingsPath()); err == nil {
		env.Log.Watch(env.Config.Viper())
	}

	log.Info("watching", zap.Duration("interval", interval), zap.Int("rules", len(selected)))
	for {
		c.report(driver.Run(ctx, selected), env, out, errOut)
		select {
		case <-ctx.Done():
			log.Info("stopped")
			return exitcode.Success
		case <-time.After(interval):
		}
	}
}

// interval returns the watch period, and false for a single pass.
func (c *RunCmd) interval(env *Env) (time.Duration, bool) {
	if c.every > 0 {
		return c.every, true
	}
	if !c.watch {
		return 0, false
	}
	d := env.Config.Settings.Run.Interval
	if env.Config.Debug && d > debugInterval {
		d = debugInterval
	}
	return d, true
}

// report prints outcomes and returns the exit code of the pass.
// Skipped rules are not an error; actions that failed to apply are.
func (c *RunCmd) report(outcomes []rules.Outcome, env *Env, out, errOut io.Writer) int {
	if c.dryRun {
		if err := output.WritePlan(out, outcomes); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
	} else if !env.Quiet() {
		for _, o := range outcomes {
			output.FormatOutcome(out, o)
		}
	}
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintf(errOut, "error: %s: %v\n", o.Rule, o.Err)
		}
	}

	s := rules.Summarize(outcomes)
	if !env.Quiet() && !c.dryRun {
		output.FormatSummary(out, s)
	}
	if s.Failed > 0 {
		return exitcode.BackendError
	}
	return exitcode.Success
}

// RuleDeps builds the signal sources the settings configure.
func RuleDeps(ctx context.Context, env *Env) (rules.Deps, func(), error) {
	s := env.Config.Settings
	deps := rules.Deps{
		Journal: journal.New(config.ExpandHome(s.Journal.Dir)),
	}
	release := func() {}

	if len(s.Email.Accounts) > 0 {
		deps.Mail = mail.NewCounter()
	}
	if s.Jira.URL != "" && s.Jira.Token != "" {
		deps.Jira = jira.New(ctx, s.Jira.URL, s.Jira.Token, s.Jira.JQL)
	}
	if len(s.Chores.Definitions) > 0 {
		store, err := openChores(s)
		if err != nil {
			return rules.Deps{}, nil, err
		}
		deps.Chores = store
		release = func() {
			if err := store.Close(); err != nil {
				env.Log.Warn("closing chore database", zap.Error(err))
			}
		}
	}
	return deps, release, nil
}

func openChores(s config.Settings) (*chores.Store, error) {
	if len(s.Chores.Definitions) == 0 {
		return nil, errors.New("no chores configured")
	}
	defs := make([]chores.Definition, len(s.Chores.Definitions))
	for i, d := range s.Chores.Definitions {
		defs[i] = chores.Definition{Name: d.Name, IntervalDays: d.IntervalDays}
	}
	return chores.Open(s.ChoreDBPath(), defs)
}
