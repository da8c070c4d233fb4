// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"mole/internal/chores"
	"mole/internal/reconcile"
	"mole/internal/remote"
	"mole/internal/rules"
)

// DateLayout is how due dates and completions are printed.
const DateLayout = "2006-01-02"

// FormatTask formats a task line.
// Format: "{ID}  {NAME}[  (project)][  #label...][  p{N}][  due {DATE}]\n"
func FormatTask(w io.Writer, task remote.Task) {
	var b strings.Builder
	b.WriteString(normalizeName(task.Name))
	if task.Project != "" {
		fmt.Fprintf(&b, "  (%s)", task.Project)
	}
	for i, l := range task.Labels {
		if i == 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, " #%s", l)
	}
	if task.Priority > 0 {
		fmt.Fprintf(&b, "  p%d", task.Priority)
	}
	if task.Due != nil {
		fmt.Fprintf(&b, "  due %s", task.Due.Format(DateLayout))
	}
	fmt.Fprintf(w, "%s  %s\n", task.ID, b.String())
}

// FormatRule formats a rule line for the rules command.
func FormatRule(w io.Writer, r rules.Rule) {
	fmt.Fprintf(w, "%-20s %s\n", r.Name(), describeScope(r.Scope()))
}

func describeScope(f remote.Filter) string {
	var parts []string
	if f.Name != "" {
		parts = append(parts, fmt.Sprintf("name=%q", f.Name))
	}
	if f.Label != "" {
		parts = append(parts, "label="+f.Label)
	}
	if f.Project != "" {
		parts = append(parts, "project="+f.Project)
	}
	if len(parts) == 0 {
		return "(all tasks)"
	}
	return strings.Join(parts, " ")
}

// FormatOutcome formats the result of one rule.
func FormatOutcome(w io.Writer, o rules.Outcome) {
	switch {
	case o.Skip != nil:
		fmt.Fprintf(w, "%s: skipped (%s): %v\n", o.Rule, o.Skip.Kind, o.Skip.Err)
	case o.Planned.Empty():
		fmt.Fprintf(w, "%s: up to date\n", o.Rule)
	case o.DryRun:
		fmt.Fprintf(w, "%s: would %s\n", o.Rule, counts(o.Planned))
	default:
		applied := reconcile.ActionSet{Create: o.Result.Created, Delete: o.Result.Deleted, Update: o.Result.Updated}
		fmt.Fprintf(w, "%s: %s", o.Rule, pastTense(counts(applied)))
		if n := len(o.Result.Failed); n > 0 {
			fmt.Fprintf(w, ", %d failed", n)
		}
		fmt.Fprintln(w)
	}
}

func counts(set reconcile.ActionSet) string {
	return fmt.Sprintf("create %d, delete %d, update %d", len(set.Create), len(set.Delete), len(set.Update))
}

func pastTense(s string) string {
	r := strings.NewReplacer("create", "created", "delete", "deleted", "update", "updated")
	return r.Replace(s)
}

// FormatSummary formats the totals of one pass.
func FormatSummary(w io.Writer, s rules.Summary) {
	fmt.Fprintf(w, "%d applied, %d planned, %d skipped, %d failed\n", s.Applied, s.Planned, s.Skipped, s.Failed)
}

type planEntry struct {
	Rule    string              `yaml:"rule"`
	Actions reconcile.ActionSet `yaml:",inline"`
}

// WritePlan writes the non-empty action sets of outcomes as YAML.
func WritePlan(w io.Writer, outcomes []rules.Outcome) error {
	entries := []planEntry{}
	for _, o := range outcomes {
		if o.Skip != nil || o.Planned.Empty() {
			continue
		}
		entries = append(entries, planEntry{Rule: o.Rule, Actions: o.Planned})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	return enc.Close()
}

// FormatChore formats a chore status line.
func FormatChore(w io.Writer, st chores.Status) {
	last := "never"
	if !st.LastDone.IsZero() {
		last = st.LastDone.Local().Format(DateLayout)
	}
	state := "ok"
	if st.Due {
		state = "due"
	}
	fmt.Fprintf(w, "%-4s %s (every %dd, last %s)\n", state, st.Name, st.IntervalDays, last)
}

// normalizeName normalizes a task name for display.
// - Empty or whitespace-only names become "(untitled)"
// - Newlines are replaced with spaces
func normalizeName(name string) string {
	name = strings.ReplaceAll(name, "\r", " ")
	name = strings.ReplaceAll(name, "\n", " ")

	if strings.TrimSpace(name) == "" {
		return "(untitled)"
	}
	return name
}
