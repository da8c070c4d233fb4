package reconcile_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"mole/internal/reconcile"
	"mole/internal/remote"
	"mole/internal/testutil"
)

// orderRemote records the order in which actions reach the remote.
type orderRemote struct {
	*testutil.FakeRemote
	calls []string
}

func (o *orderRemote) CreateTask(ctx context.Context, task remote.Task) (remote.Task, error) {
	o.calls = append(o.calls, "create "+task.Name)
	return o.FakeRemote.CreateTask(ctx, task)
}

func (o *orderRemote) DeleteTask(ctx context.Context, task remote.Task) error {
	o.calls = append(o.calls, "delete "+task.Name)
	return o.FakeRemote.DeleteTask(ctx, task)
}

func (o *orderRemote) UpdateTask(ctx context.Context, task remote.Task) error {
	o.calls = append(o.calls, "update "+task.Name)
	return o.FakeRemote.UpdateTask(ctx, task)
}

func TestApply_Order(t *testing.T) {
	fake := testutil.NewFakeRemote()
	old := fake.AddTask(remote.Task{Name: "old"})
	keep := fake.AddTask(remote.Task{Name: "keep"})
	r := &orderRemote{FakeRemote: fake}

	keep.Description = "changed"
	set := reconcile.ActionSet{
		Update: []remote.Task{keep},
		Create: []remote.Task{{Name: "new"}},
		Delete: []remote.Task{old},
	}

	res, err := reconcile.Apply(context.Background(), r, set, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"delete old", "create new", "update keep"}
	if !reflect.DeepEqual(r.calls, want) {
		t.Errorf("expected call order %v, got %v", want, r.calls)
	}
	if len(res.Created) != 1 || res.Created[0].ID == "" {
		t.Errorf("expected created task with id, got %v", res.Created)
	}
	if len(res.Deleted) != 1 || len(res.Updated) != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestApply_PartialFailureContinues(t *testing.T) {
	fake := testutil.NewFakeRemote()
	a := fake.AddTask(remote.Task{Name: "a"})
	b := fake.AddTask(remote.Task{Name: "b"})
	boom := errors.New("boom")
	fake.DeleteErrs["a"] = boom

	core, logs := observer.New(zap.WarnLevel)
	set := reconcile.ActionSet{
		Delete: []remote.Task{a, b},
		Create: []remote.Task{{Name: "c"}},
	}

	res, err := reconcile.Apply(context.Background(), fake, set, zap.New(core))

	if !errors.Is(err, boom) {
		t.Errorf("expected joined error to wrap boom, got %v", err)
	}
	if len(res.Failed) != 1 || res.Failed[0].Kind != "delete" || res.Failed[0].Task.Name != "a" {
		t.Errorf("expected one failed delete of a, got %+v", res.Failed)
	}
	if got := names(res.Deleted); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("expected b to still be deleted, got %v", got)
	}
	if got := names(res.Created); !reflect.DeepEqual(got, []string{"c"}) {
		t.Errorf("expected c to still be created, got %v", got)
	}
	if logs.FilterMessage("action failed").Len() != 1 {
		t.Errorf("expected one failure log entry, got %d", logs.Len())
	}
}

func TestApply_UpdateWithoutID(t *testing.T) {
	fake := testutil.NewFakeRemote()
	set := reconcile.ActionSet{Update: []remote.Task{{Name: "no id"}}}

	_, err := reconcile.Apply(context.Background(), fake, set, nil)

	if !errors.Is(err, remote.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestApply_Empty(t *testing.T) {
	fake := testutil.NewFakeRemote()

	res, err := reconcile.Apply(context.Background(), fake, reconcile.ActionSet{}, nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Created)+len(res.Deleted)+len(res.Updated)+len(res.Failed) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}
