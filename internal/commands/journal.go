package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"mole/internal/config"
	"mole/internal/exitcode"
	"mole/internal/journal"
)

// Layouts accepted by journal --at.
var atLayouts = []string{"2006-01-02 15:04", "2006-01-02T15:04", "15:04"}

func init() {
	Register(&JournalCmd{})
}

// JournalCmd implements the journal command.
type JournalCmd struct {
	at  string
	now func() time.Time
}

// SetNow sets the clock (for testing).
func (c *JournalCmd) SetNow(now func() time.Time) {
	c.now = now
}

func (c *JournalCmd) Name() string      { return "journal" }
func (c *JournalCmd) Aliases() []string { return []string{"j"} }
func (c *JournalCmd) Synopsis() string  { return "Write a journal entry" }
func (c *JournalCmd) Usage() string     { return "mole journal [--at <time>] <entry...>" }
func (c *JournalCmd) NeedsRemote() bool { return false }

func (c *JournalCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.at, "at", "", "")
}

func (c *JournalCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	entry := strings.TrimSpace(strings.Join(args, " "))
	if entry == "" {
		fmt.Fprintln(errOut, "error: entry required")
		return exitcode.UserError
	}

	now := time.Now
	if c.now != nil {
		now = c.now
	}
	when := now()
	if c.at != "" {
		t, err := parseAt(c.at, when)
		if err != nil {
			fmt.Fprintf(errOut, "error: invalid time: %s\n", c.at)
			return exitcode.UserError
		}
		when = t
	}

	j := journal.New(config.ExpandHome(env.Config.Settings.Journal.Dir))
	path, err := j.Write(entry, when)
	if errors.Is(err, journal.ErrEntryExists) {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}

	if !env.Quiet() {
		fmt.Fprintln(out, path)
	}
	return exitcode.Success
}

// parseAt parses s in the local zone. A bare clock time is taken on the day of ref.
func parseAt(s string, ref time.Time) (time.Time, error) {
	for _, layout := range atLayouts {
		t, err := time.ParseInLocation(layout, s, ref.Location())
		if err != nil {
			continue
		}
		if layout == "15:04" {
			y, m, d := ref.Date()
			t = time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, ref.Location())
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
