// Package reconcile diffs desired marker tasks against what a remote holds
// and applies the resulting actions.
package reconcile

import "mole/internal/remote"

// ActionSet is the work needed to converge one scope.
// It is built fresh per pass and never persisted.
type ActionSet struct {
	Create []remote.Task `yaml:"create,omitempty"`
	Delete []remote.Task `yaml:"delete,omitempty"`
	Update []remote.Task `yaml:"update,omitempty"`
}

// Empty reports whether there is nothing to do.
func (a ActionSet) Empty() bool {
	return a.Len() == 0
}

// Len returns the total number of actions.
func (a ActionSet) Len() int {
	return len(a.Create) + len(a.Delete) + len(a.Update)
}
