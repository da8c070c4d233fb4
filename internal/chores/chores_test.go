package chores_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"mole/internal/chores"
)

var defs = []chores.Definition{
	{Name: "Water the plants", IntervalDays: 3},
	{Name: "Change the sheets", IntervalDays: 7},
}

func openStore(t *testing.T, now *time.Time) *chores.Store {
	t.Helper()
	s, err := chores.Open(chores.InMemory, defs)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	s.Now = func() time.Time { return *now }
	return s
}

func dueNames(t *testing.T, s *chores.Store) []string {
	t.Helper()
	due, err := s.Due(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	names := []string{}
	for _, d := range due {
		names = append(names, d.Name)
	}
	return names
}

func TestDue_NeverDone(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	s := openStore(t, &now)

	if got := dueNames(t, s); len(got) != 2 {
		t.Errorf("expected every chore due, got %v", got)
	}
}

func TestDue_AfterInterval(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	s := openStore(t, &now)
	ctx := context.Background()

	if err := s.MarkComplete(ctx, "Water the plants"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := dueNames(t, s); len(got) != 1 || got[0] != "Change the sheets" {
		t.Errorf("expected only sheets due, got %v", got)
	}

	now = now.Add(3*24*time.Hour - time.Minute)
	if due, _ := s.IsDue(ctx, defs[0]); due {
		t.Error("plants must not be due before the interval elapses")
	}

	now = now.Add(time.Minute)
	if due, _ := s.IsDue(ctx, defs[0]); !due {
		t.Error("plants must be due once the interval elapses")
	}
}

func TestDue_UsesLatestCompletion(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	s := openStore(t, &now)
	ctx := context.Background()

	if err := s.MarkComplete(ctx, "Water the plants"); err != nil {
		t.Fatal(err)
	}
	now = now.AddDate(0, 0, 5)
	if err := s.MarkComplete(ctx, "Water the plants"); err != nil {
		t.Fatal(err)
	}
	now = now.AddDate(0, 0, 1)

	if due, _ := s.IsDue(ctx, defs[0]); due {
		t.Error("a recent completion must reset the interval")
	}
	last, err := s.LastDone(ctx, "Water the plants")
	if err != nil || !last.Equal(time.Date(2024, 6, 6, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("expected last completion on June 6, got %v, %v", last, err)
	}
}

func TestMarkComplete_Unknown(t *testing.T) {
	now := time.Now()
	s := openStore(t, &now)

	err := s.MarkComplete(context.Background(), "Mow the lawn")

	if !errors.Is(err, chores.ErrUnknownChore) {
		t.Errorf("expected ErrUnknownChore, got %v", err)
	}
}

func TestStatuses(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	s := openStore(t, &now)
	ctx := context.Background()
	if err := s.MarkComplete(ctx, "Change the sheets"); err != nil {
		t.Fatal(err)
	}

	st, err := s.Statuses(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(st) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(st))
	}
	if !st[0].Due || !st[0].LastDone.IsZero() {
		t.Errorf("plants: expected due and never done, got %+v", st[0])
	}
	if st[1].Due || !st[1].LastDone.Equal(now) {
		t.Errorf("sheets: expected done now, got %+v", st[1])
	}
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "chores.db")
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	s, err := chores.Open(path, defs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Now = func() time.Time { return now }
	if err := s.MarkComplete(context.Background(), "Water the plants"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	reopened, err := chores.Open(path, defs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer reopened.Close()
	last, err := reopened.LastDone(context.Background(), "Water the plants")
	if err != nil || !last.Equal(now) {
		t.Errorf("expected completion to persist, got %v, %v", last, err)
	}
}
