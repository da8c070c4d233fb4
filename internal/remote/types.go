package remote

import (
	"sort"
	"strconv"
	"time"
)

// Task represents a single to-do item independent of any backend.
type Task struct {
	ID          string     `yaml:"id,omitempty"`
	Name        string     `yaml:"name"`
	Completed   bool       `yaml:"completed,omitempty"`
	Description string     `yaml:"description,omitempty"`
	Labels      []string   `yaml:"labels,omitempty"`
	Project     string     `yaml:"project,omitempty"`
	Due         *time.Time `yaml:"due,omitempty"` // date only
	Priority    int        `yaml:"priority,omitempty"`
	CreatedAt   time.Time  `yaml:"-"`
}

// HasLabel reports whether the task carries label.
func (t Task) HasLabel(label string) bool {
	for _, l := range t.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Filter selects tasks. Empty fields are unconstrained.
type Filter struct {
	Name    string
	Project string
	Label   string

	// Query is a backend-specific filter expression (Todoist filter syntax).
	// Backends that can't evaluate it return ErrInvalidArgument.
	Query string
}

// Matches reports whether t satisfies the portable fields of the filter.
// Query is not evaluated.
func (f Filter) Matches(t Task) bool {
	if f.Name != "" && t.Name != f.Name {
		return false
	}
	if f.Project != "" && t.Project != f.Project {
		return false
	}
	if f.Label != "" && !t.HasLabel(f.Label) {
		return false
	}
	return true
}

// NormalizeLabels returns a sorted copy of labels with duplicates and empty strings removed.
func NormalizeLabels(labels []string) []string {
	if len(labels) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// LabelsSubset reports whether every label in sub is present in labels.
func LabelsSubset(sub, labels []string) bool {
	have := make(map[string]bool, len(labels))
	for _, l := range labels {
		have[l] = true
	}
	for _, l := range sub {
		if !have[l] {
			return false
		}
	}
	return true
}

// SameDay reports whether two optional dates fall on the same calendar day.
func SameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Date returns a pointer to midnight UTC of the given day.
func Date(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

// Older reports whether a should be kept in preference to b when both
// represent the same marker: earliest CreatedAt first, then lowest ID.
// IDs compare numerically when both are integers.
func Older(a, b Task) bool {
	if !a.CreatedAt.IsZero() && !b.CreatedAt.IsZero() && !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	if a.ID == b.ID {
		return false
	}
	if a.ID == "" || b.ID == "" {
		return a.ID != "" // tasks that exist remotely win
	}
	an, aerr := strconv.ParseUint(a.ID, 10, 64)
	bn, berr := strconv.ParseUint(b.ID, 10, 64)
	if aerr == nil && berr == nil {
		return an < bn
	}
	return a.ID < b.ID
}

// SortKeepers sorts tasks so that the task to keep comes first.
// The sort is stable, so tasks that can't be ordered keep their input order.
func SortKeepers(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return Older(tasks[i], tasks[j])
	})
}
