package reconcile_test

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"mole/internal/reconcile"
	"mole/internal/remote"
	"mole/internal/testutil"
)

func names(tasks []remote.Task) []string {
	out := []string{}
	for _, t := range tasks {
		out = append(out, t.Name)
	}
	return out
}

func ids(tasks []remote.Task) []string {
	out := []string{}
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestReconcile_CreateOnAbsence(t *testing.T) {
	marker := remote.Task{Name: "Check Email"}

	set := reconcile.Reconcile([]remote.Task{marker}, nil)

	if !reflect.DeepEqual(set.Create, []remote.Task{marker}) {
		t.Errorf("expected create of %v, got %v", marker, set.Create)
	}
	if len(set.Delete) != 0 || len(set.Update) != 0 {
		t.Errorf("expected only a create, got %+v", set)
	}
}

func TestReconcile_DeleteOnResolvedCondition(t *testing.T) {
	observed := remote.Task{ID: "1", Name: "Check Email"}

	set := reconcile.Reconcile(nil, []remote.Task{observed})

	if !reflect.DeepEqual(set.Delete, []remote.Task{observed}) {
		t.Errorf("expected delete of %v, got %v", observed, set.Delete)
	}
	if len(set.Create) != 0 || len(set.Update) != 0 {
		t.Errorf("expected only a delete, got %+v", set)
	}
}

func TestReconcile_NoOpOnMatch(t *testing.T) {
	desired := remote.Task{Name: "Check Email"}
	observed := remote.Task{ID: "42", Name: "Check Email", Description: "edited by hand"}

	set := reconcile.Reconcile([]remote.Task{desired}, []remote.Task{observed})

	if !set.Empty() {
		t.Errorf("expected empty action set, got %+v", set)
	}
}

func TestReconcile_BothEmpty(t *testing.T) {
	if set := reconcile.Reconcile(nil, nil); !set.Empty() {
		t.Errorf("expected empty action set, got %+v", set)
	}
}

func TestReconcile_DuplicateCleanup(t *testing.T) {
	desired := []remote.Task{{Name: "Daily Journal"}}
	observed := []remote.Task{
		{ID: "30", Name: "Daily Journal"},
		{ID: "4", Name: "Daily Journal"},
		{ID: "17", Name: "Daily Journal"},
	}

	set := reconcile.Reconcile(desired, observed)

	if len(set.Create) != 0 {
		t.Errorf("expected no creates, got %v", set.Create)
	}
	if len(set.Delete) != 2 {
		t.Fatalf("expected 2 deletes, got %d", len(set.Delete))
	}
	// Lowest ID is kept when creation times are unknown.
	if got := ids(set.Delete); !reflect.DeepEqual(got, []string{"17", "30"}) {
		t.Errorf("expected to delete 17 and 30, got %v", got)
	}
}

func TestReconcile_DuplicateCleanupKeepsEarliestCreated(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	observed := []remote.Task{
		{ID: "1", Name: "m", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "2", Name: "m", CreatedAt: base},
		{ID: "3", Name: "m", CreatedAt: base.Add(time.Hour)},
	}

	set := reconcile.Reconcile([]remote.Task{{Name: "m"}}, observed)

	if got := ids(set.Delete); !reflect.DeepEqual(got, []string{"3", "1"}) {
		t.Errorf("expected deletes [3 1], got %v", got)
	}
}

func TestReconcile_DuplicatesAndNothingDesired(t *testing.T) {
	observed := []remote.Task{
		{ID: "2", Name: "m"},
		{ID: "1", Name: "m"},
	}

	set := reconcile.Reconcile(nil, observed)

	if got := ids(set.Delete); !reflect.DeepEqual(got, []string{"2", "1"}) {
		t.Errorf("expected both deleted (extras first), got %v", got)
	}
}

func TestReconcile_IgnoresCompleted(t *testing.T) {
	desired := []remote.Task{{Name: "Whack-a-Mole"}}
	observed := []remote.Task{{ID: "1", Name: "Whack-a-Mole", Completed: true}}

	set := reconcile.Reconcile(desired, observed)

	if got := names(set.Create); !reflect.DeepEqual(got, []string{"Whack-a-Mole"}) {
		t.Errorf("expected create despite completed task, got %v", got)
	}
	if len(set.Delete) != 0 {
		t.Errorf("completed tasks must not be deleted, got %v", set.Delete)
	}
}

func TestReconcile_SingleCreatePerKey(t *testing.T) {
	desired := []remote.Task{{Name: "m", Description: "first"}, {Name: "m", Description: "second"}}

	set := reconcile.Reconcile(desired, nil)

	if len(set.Create) != 1 || set.Create[0].Description != "first" {
		t.Errorf("expected exactly the first desired task to be created, got %v", set.Create)
	}
}

func TestReconcile_UpdateOnFieldDifference(t *testing.T) {
	due := remote.Date(2024, 6, 1)
	desired := remote.Task{
		Name:        "Check Email",
		Description: "iCloud/INBOX: 3",
		Labels:      []string{"email"},
		Priority:    2,
		Due:         due,
	}
	observed := remote.Task{ID: "9", Name: "Check Email", Labels: []string{"mine"}, Priority: 1}

	set := reconcile.Reconcile([]remote.Task{desired}, []remote.Task{observed})

	if len(set.Update) != 1 {
		t.Fatalf("expected one update, got %+v", set)
	}
	got := set.Update[0]
	if got.ID != "9" {
		t.Errorf("update must keep the observed id, got %q", got.ID)
	}
	if got.Description != "iCloud/INBOX: 3" || got.Priority != 2 || !remote.SameDay(got.Due, due) {
		t.Errorf("unexpected merged task: %+v", got)
	}
	if !reflect.DeepEqual(got.Labels, []string{"email", "mine"}) {
		t.Errorf("expected label union, got %v", got.Labels)
	}
	if len(set.Create) != 0 || len(set.Delete) != 0 {
		t.Errorf("expected only an update, got %+v", set)
	}
}

func TestReconcile_WithKey(t *testing.T) {
	issueKey := func(t remote.Task) string {
		key, _, _ := strings.Cut(t.Name, ":")
		return key
	}
	desired := []remote.Task{
		{Name: "OPS-1: Rotate certificates", Labels: []string{"jira"}},
		{Name: "OPS-2: Patch hosts", Labels: []string{"jira"}},
	}
	observed := []remote.Task{
		{ID: "1", Name: "OPS-1: Rotate certs", Labels: []string{"jira"}},
		{ID: "2", Name: "OPS-3: Old ticket", Labels: []string{"jira"}},
	}

	set := reconcile.Reconcile(desired, observed, reconcile.WithKey(issueKey))

	if got := names(set.Update); !reflect.DeepEqual(got, []string{"OPS-1: Rotate certificates"}) {
		t.Errorf("expected rename of OPS-1, got %v", got)
	}
	if got := names(set.Create); !reflect.DeepEqual(got, []string{"OPS-2: Patch hosts"}) {
		t.Errorf("expected create of OPS-2, got %v", got)
	}
	if got := ids(set.Delete); !reflect.DeepEqual(got, []string{"2"}) {
		t.Errorf("expected delete of OPS-3, got %v", got)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	cases := []struct {
		name     string
		desired  []remote.Task
		observed []remote.Task
	}{
		{"create", []remote.Task{{Name: "a"}}, nil},
		{"delete", nil, []remote.Task{{Name: "a"}}},
		{"duplicates", []remote.Task{{Name: "a"}}, []remote.Task{{Name: "a"}, {Name: "a"}, {Name: "a"}}},
		{"update", []remote.Task{{Name: "a", Labels: []string{"x"}, Priority: 4}}, []remote.Task{{Name: "a"}}},
		{"mixed", []remote.Task{{Name: "a"}, {Name: "b", Description: "d"}}, []remote.Task{{Name: "b"}, {Name: "c"}, {Name: "c"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := testutil.NewFakeRemote()
			for _, task := range tc.observed {
				fake.AddTask(task)
			}
			ctx := context.Background()

			observed, _ := fake.GetTasks(ctx, remote.Filter{})
			first := reconcile.Reconcile(tc.desired, observed)
			if _, err := reconcile.Apply(ctx, fake, first, nil); err != nil {
				t.Fatalf("apply failed: %v", err)
			}

			observed, _ = fake.GetTasks(ctx, remote.Filter{})
			second := reconcile.Reconcile(tc.desired, observed)
			if !second.Empty() {
				t.Errorf("expected empty second pass, got %+v", second)
			}
		})
	}
}
