package rules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mole/internal/metrics"
	"mole/internal/reconcile"
	"mole/internal/remote"
)

// SkipKind says which step of a rule failed.
type SkipKind string

const (
	SkipSignal SkipKind = "signal"
	SkipRemote SkipKind = "remote"
	SkipPanic  SkipKind = "panic"
)

// SkipReason records why a rule did nothing this pass.
type SkipReason struct {
	Rule string
	Kind SkipKind
	Err  error
}

func (s *SkipReason) Error() string {
	return fmt.Sprintf("rule %s skipped (%s): %v", s.Rule, s.Kind, s.Err)
}

func (s *SkipReason) Unwrap() error { return s.Err }

// Outcome is the result of running one rule.
type Outcome struct {
	Rule    string
	Planned reconcile.ActionSet
	Result  reconcile.Result
	DryRun  bool

	// Skip is set when the rule could not compute or observe its state.
	Skip *SkipReason

	// Err joins the actions that failed to apply.
	Err error
}

// Status returns applied, planned, skipped or failed.
func (o Outcome) Status() string {
	switch {
	case o.Skip != nil:
		return metrics.OutcomeSkipped
	case o.Err != nil:
		return metrics.OutcomeFailed
	case o.DryRun:
		return metrics.OutcomePlanned
	default:
		return metrics.OutcomeApplied
	}
}

// Driver runs rules against one remote.
type Driver struct {
	Remote  remote.Remote
	Log     *zap.Logger
	Metrics *metrics.Metrics

	// DryRun computes action sets without applying them.
	DryRun bool
}

// Run runs each rule once, in order. A rule that fails or panics is reported
// in its Outcome and never stops the rules after it.
func (d *Driver) Run(ctx context.Context, rules []Rule) []Outcome {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	outcomes := make([]Outcome, 0, len(rules))
	for _, rule := range rules {
		if ctx.Err() != nil {
			log.Info("pass interrupted", zap.Error(ctx.Err()))
			break
		}
		outcomes = append(outcomes, d.runRule(ctx, rule, log.With(zap.String("rule", rule.Name()))))
	}
	d.Metrics.PassCompleted(time.Now())
	return outcomes
}

func (d *Driver) runRule(ctx context.Context, rule Rule, log *zap.Logger) (out Outcome) {
	start := time.Now()
	out = Outcome{Rule: rule.Name(), DryRun: d.DryRun}

	defer func() {
		if p := recover(); p != nil {
			out.Planned = reconcile.ActionSet{}
			out.Skip = &SkipReason{Rule: out.Rule, Kind: SkipPanic, Err: fmt.Errorf("panic: %v", p)}
			log.Error("rule panicked", zap.Any("panic", p), zap.Stack("stack"))
		}
		d.Metrics.ObserveRule(out.Rule, out.Status(), time.Since(start))
	}()

	skip := func(kind SkipKind, err error) Outcome {
		out.Skip = &SkipReason{Rule: out.Rule, Kind: kind, Err: err}
		log.Warn("rule skipped", zap.String("kind", string(kind)), zap.Error(err))
		return out
	}

	desired, err := rule.Slate(ctx, d.Remote)
	if err != nil {
		if errors.Is(err, remote.ErrRemoteUnavailable) {
			return skip(SkipRemote, err)
		}
		return skip(SkipSignal, err)
	}

	scope := rule.Scope()
	got, err := d.Remote.GetTasks(ctx, scope)
	if err != nil {
		return skip(SkipRemote, err)
	}
	// Backends may widen the filter; never act on tasks outside the scope.
	observed := got[:0:0]
	for _, t := range got {
		if scope.Matches(t) {
			observed = append(observed, t)
		}
	}

	var opts []reconcile.Option
	if k, ok := rule.(Keyer); ok {
		opts = append(opts, reconcile.WithKey(k.Key))
	}
	out.Planned = reconcile.Reconcile(desired, observed, opts...)

	log.Debug("reconciled",
		zap.Int("desired", len(desired)),
		zap.Int("observed", len(observed)),
		zap.Int("actions", out.Planned.Len()))

	if d.DryRun || out.Planned.Empty() {
		return out
	}

	out.Result, out.Err = reconcile.Apply(ctx, d.Remote, out.Planned, log)
	d.recordActions(out)
	return out
}

func (d *Driver) recordActions(out Outcome) {
	failed := map[string]int{}
	for _, f := range out.Result.Failed {
		failed[f.Kind]++
	}
	d.Metrics.ObserveActions(out.Rule, "delete", len(out.Result.Deleted), failed["delete"])
	d.Metrics.ObserveActions(out.Rule, "create", len(out.Result.Created), failed["create"])
	d.Metrics.ObserveActions(out.Rule, "update", len(out.Result.Updated), failed["update"])
}

// Summary counts outcomes by status.
type Summary struct {
	Applied int
	Planned int
	Skipped int
	Failed  int

	// Actions is the number of actions planned across all rules.
	Actions int
}

// Summarize tallies outcomes.
func Summarize(outcomes []Outcome) Summary {
	var s Summary
	for _, o := range outcomes {
		s.Actions += o.Planned.Len()
		switch o.Status() {
		case metrics.OutcomeSkipped:
			s.Skipped++
		case metrics.OutcomeFailed:
			s.Failed++
		case metrics.OutcomePlanned:
			s.Planned++
		default:
			s.Applied++
		}
	}
	return s
}

// Skips returns the skip reasons of outcomes, in order.
func Skips(outcomes []Outcome) []*SkipReason {
	var skips []*SkipReason
	for _, o := range outcomes {
		if o.Skip != nil {
			skips = append(skips, o.Skip)
		}
	}
	return skips
}
