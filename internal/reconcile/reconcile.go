package reconcile

import "mole/internal/remote"

// KeyFunc extracts the identity of a marker task.
type KeyFunc func(remote.Task) string

// ByName is the default identity: tasks with the same name are the same marker.
func ByName(t remote.Task) string { return t.Name }

type options struct {
	key KeyFunc
}

// Option configures Reconcile.
type Option func(*options)

// WithKey overrides how tasks are matched to each other.
func WithKey(fn KeyFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.key = fn
		}
	}
}

// Reconcile computes the actions that turn observed into desired.
// Both slices must already be scoped to the same rule. It has no side effects.
//
// Per key: observed duplicates beyond the keeper are deleted; a keeper with
// nothing desired is deleted; a desired marker with nothing observed is
// created once; a keeper whose fields differ from what is desired is updated.
// Completed observed tasks are ignored.
func Reconcile(desired, observed []remote.Task, opts ...Option) ActionSet {
	o := options{key: ByName}
	for _, opt := range opts {
		opt(&o)
	}

	var order []string
	want := make(map[string][]remote.Task)
	have := make(map[string][]remote.Task)

	for _, t := range desired {
		k := o.key(t)
		if _, seen := want[k]; !seen {
			order = append(order, k)
		}
		want[k] = append(want[k], t)
	}
	for _, t := range observed {
		if t.Completed {
			continue
		}
		k := o.key(t)
		_, inWant := want[k]
		_, inHave := have[k]
		if !inWant && !inHave {
			order = append(order, k)
		}
		have[k] = append(have[k], t)
	}

	var set ActionSet
	for _, k := range order {
		d, obs := want[k], have[k]

		if len(obs) > 1 {
			obs = append([]remote.Task(nil), obs...)
			remote.SortKeepers(obs)
			set.Delete = append(set.Delete, obs[1:]...)
			obs = obs[:1]
		}

		switch {
		case len(d) == 0 && len(obs) == 1:
			set.Delete = append(set.Delete, obs[0])
		case len(d) > 0 && len(obs) == 0:
			set.Create = append(set.Create, d[0])
		case len(d) > 0 && len(obs) == 1:
			if updated, changed := merge(obs[0], d[0]); changed {
				set.Update = append(set.Update, updated)
			}
		}
	}
	return set
}

// merge applies the fields want specifies onto have.
// Unspecified (zero) fields in want never cause an update.
func merge(have, want remote.Task) (remote.Task, bool) {
	out := have
	changed := false

	if want.Name != "" && want.Name != have.Name {
		out.Name = want.Name
		changed = true
	}
	if want.Description != "" && want.Description != have.Description {
		out.Description = want.Description
		changed = true
	}
	if !remote.LabelsSubset(want.Labels, have.Labels) {
		out.Labels = remote.NormalizeLabels(append(append([]string(nil), have.Labels...), want.Labels...))
		changed = true
	}
	if want.Priority != 0 && want.Priority != have.Priority {
		out.Priority = want.Priority
		changed = true
	}
	if want.Due != nil && !remote.SameDay(want.Due, have.Due) {
		out.Due = want.Due
		changed = true
	}
	return out, changed
}
