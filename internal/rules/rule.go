// Package rules holds the domain rules that decide which marker tasks should
// exist, and the driver that reconciles them against a remote.
package rules

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"mole/internal/remote"
)

var (
	// ErrSignalUnavailable is returned by a rule whose external signal can't be read.
	ErrSignalUnavailable = errors.New("signal unavailable")

	// ErrDuplicateRule is returned when two rules share a name.
	ErrDuplicateRule = errors.New("duplicate rule")

	// ErrUnknownRule is returned when selecting a rule that isn't registered.
	ErrUnknownRule = errors.New("unknown rule")
)

// Rule computes the marker tasks one concern wants to exist.
type Rule interface {
	// Name identifies the rule on the command line and in logs.
	Name() string

	// Scope selects the observed tasks this rule owns.
	Scope() remote.Filter

	// Slate returns the desired tasks for the current signal.
	// The remote may be read but must not be written.
	Slate(ctx context.Context, r remote.Remote) ([]remote.Task, error)
}

// Keyer is implemented by rules that match tasks on something other than the name.
type Keyer interface {
	Key(remote.Task) string
}

func signalError(source string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrSignalUnavailable, source, err)
}

// Registry holds rules by name.
type Registry struct {
	rules map[string]Rule
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

// Register adds a rule.
func (r *Registry) Register(rule Rule) error {
	name := rule.Name()
	if _, exists := r.rules[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, name)
	}
	r.rules[name] = rule
	return nil
}

// Find looks up a rule by name.
func (r *Registry) Find(name string) (Rule, bool) {
	rule, ok := r.rules[name]
	return rule, ok
}

// All returns every rule sorted by name.
func (r *Registry) All() []Rule {
	all := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		all = append(all, rule)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Name() < all[j].Name()
	})
	return all
}

// Select returns the named rules in the order given, or every rule when names is empty.
func (r *Registry) Select(names []string) ([]Rule, error) {
	if len(names) == 0 {
		return r.All(), nil
	}
	var (
		selected []Rule
		unknown  []string
		seen     = make(map[string]bool)
	)
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		rule, ok := r.rules[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		selected = append(selected, rule)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRule, strings.Join(unknown, ", "))
	}
	return selected, nil
}
