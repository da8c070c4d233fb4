package remote_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"mole/internal/remote"
	"mole/internal/testutil"
)

func TestFilterMatches(t *testing.T) {
	task := remote.Task{Name: "Check Email", Project: "Meta", Labels: []string{"mole", "email"}}

	tests := []struct {
		name   string
		filter remote.Filter
		want   bool
	}{
		{"empty filter", remote.Filter{}, true},
		{"name", remote.Filter{Name: "Check Email"}, true},
		{"wrong name", remote.Filter{Name: "check email"}, false},
		{"project", remote.Filter{Project: "Meta"}, true},
		{"wrong project", remote.Filter{Project: "Life"}, false},
		{"label", remote.Filter{Label: "email"}, true},
		{"missing label", remote.Filter{Label: "jira"}, false},
		{"all fields", remote.Filter{Name: "Check Email", Project: "Meta", Label: "mole"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(task); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeLabels(t *testing.T) {
	got := remote.NormalizeLabels([]string{"b", "a", "", "b"})
	want := []string{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if remote.NormalizeLabels(nil) != nil {
		t.Error("expected nil for no labels")
	}
}

func TestLabelsSubset(t *testing.T) {
	if !remote.LabelsSubset(nil, []string{"a"}) {
		t.Error("empty set should be a subset")
	}
	if !remote.LabelsSubset([]string{"a"}, []string{"b", "a"}) {
		t.Error("expected subset")
	}
	if remote.LabelsSubset([]string{"a", "c"}, []string{"a", "b"}) {
		t.Error("expected not a subset")
	}
}

func TestSameDay(t *testing.T) {
	morning := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	if !remote.SameDay(&morning, &evening) {
		t.Error("expected same day")
	}
	if remote.SameDay(&morning, nil) {
		t.Error("date and nil should differ")
	}
	if !remote.SameDay(nil, nil) {
		t.Error("two nils should match")
	}
	if remote.SameDay(remote.Date(2024, 3, 1), remote.Date(2024, 3, 2)) {
		t.Error("expected different days")
	}
}

func TestOlder(t *testing.T) {
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	tests := []struct {
		name string
		a, b remote.Task
		want bool
	}{
		{"earlier created wins", remote.Task{ID: "9", CreatedAt: early}, remote.Task{ID: "1", CreatedAt: late}, true},
		{"later created loses", remote.Task{ID: "1", CreatedAt: late}, remote.Task{ID: "9", CreatedAt: early}, false},
		{"numeric ids", remote.Task{ID: "9"}, remote.Task{ID: "10"}, true},
		{"string ids", remote.Task{ID: "abc"}, remote.Task{ID: "abd"}, true},
		{"id beats no id", remote.Task{ID: "5"}, remote.Task{}, true},
		{"equal", remote.Task{ID: "5"}, remote.Task{ID: "5"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := remote.Older(tt.a, tt.b); got != tt.want {
				t.Errorf("Older() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequireID(t *testing.T) {
	err := remote.RequireID(remote.Task{Name: "x"})
	if !errors.Is(err, remote.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	if err := remote.RequireID(remote.Task{ID: "1"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLookupID(t *testing.T) {
	fake := testutil.NewFakeRemote()
	fake.AddTask(remote.Task{ID: "30", Name: "Daily Journal", Project: "Life"})
	fake.AddTask(remote.Task{ID: "12", Name: "Daily Journal", Project: "Life"})
	fake.AddTask(remote.Task{ID: "7", Name: "Daily Journal", Project: "Work"})

	ctx := context.Background()

	id, err := remote.LookupID(ctx, fake, remote.Task{Name: "Daily Journal", Project: "Life"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Seeded tasks get increasing CreatedAt, so "30" was created first.
	if id != "30" {
		t.Errorf("expected id 30, got %q", id)
	}

	id, err = remote.LookupID(ctx, fake, remote.Task{Name: "Nope"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "" {
		t.Errorf("expected no match, got %q", id)
	}

	id, _ = remote.LookupID(ctx, fake, remote.Task{ID: "given", Name: "Daily Journal"})
	if id != "given" {
		t.Errorf("expected existing id to be returned, got %q", id)
	}
}

func TestLookupID_RemoteError(t *testing.T) {
	fake := testutil.NewFakeRemote()
	fake.GetTasksErr = remote.Unavailable(errors.New("connection refused"))

	_, err := remote.LookupID(context.Background(), fake, remote.Task{Name: "x"})
	if !errors.Is(err, remote.ErrRemoteUnavailable) {
		t.Errorf("expected ErrRemoteUnavailable, got %v", err)
	}
}
