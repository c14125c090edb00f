package tasks

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/iksnae/agentsync/testutil"
)

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()
	r.now = func() time.Time { return time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC) }

	id := r.Create("refresh")
	task, ok := r.Get(id)
	if !ok || task.State != StatePending || task.StartedAt != "2025-02-01T09:00:00Z" {
		t.Fatalf("Get() = %+v, %v", task, ok)
	}

	half := 0.5
	r.Update(id, StateRunning, &half, "listing providers")
	task, _ = r.Get(id)
	if task.State != StateRunning || *task.Progress != 0.5 || task.CompletedAt != "" {
		t.Errorf("after running update = %+v", task)
	}

	r.Update(id, StateCompleted, nil, "")
	task, _ = r.Get(id)
	if task.CompletedAt == "" {
		t.Error("completed task should have CompletedAt")
	}
	if r.Cancel(id) {
		t.Error("Cancel() of a finished task should return false")
	}
}

func TestRegistryCancel(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *Registry) string
		want  bool
	}{
		{"pending", func(r *Registry) string { return r.Create("a") }, true},
		{"running", func(r *Registry) string {
			id := r.Create("a")
			r.Update(id, StateRunning, nil, "")
			return id
		}, true},
		{"failed", func(r *Registry) string {
			id := r.Create("a")
			r.Update(id, StateFailed, nil, "boom")
			return id
		}, false},
		{"unknown", func(r *Registry) string { return "nope" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			id := tt.setup(r)
			if got := r.Cancel(id); got != tt.want {
				t.Errorf("Cancel() = %v, want %v", got, tt.want)
			}
			if r.Cancelled(id) != tt.want {
				t.Errorf("Cancelled() = %v, want %v", r.Cancelled(id), tt.want)
			}
		})
	}
}

func TestCancelOnlyMarks(t *testing.T) {
	r := NewRegistry()
	id := r.Create("publish")
	r.Cancel(id)

	// The worker keeps reporting; the cancelled state sticks
	r.Update(id, StateCompleted, nil, "done anyway")
	task, _ := r.Get(id)
	if task.State != StateCancelled {
		t.Errorf("State = %s, want cancelled", task.State)
	}
}

func TestClearFinishedAndList(t *testing.T) {
	r := NewRegistry()
	tick := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	first := r.Create("first")
	second := r.Create("second")
	third := r.Create("third")
	r.Update(second, StateCompleted, nil, "")
	r.Cancel(third)

	list := r.List()
	if len(list) != 3 || list[0].ID != first || list[1].ID != second {
		t.Fatalf("List() order = %+v", list)
	}

	if removed := r.ClearFinished(); removed != 2 {
		t.Errorf("ClearFinished() = %d, want 2", removed)
	}
	if list := r.List(); len(list) != 1 || list[0].ID != first {
		t.Errorf("List() after clear = %+v", list)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(testutil.CreateTempDir(t), "state", "tasks.yaml")

	empty, err := Load(path)
	if err != nil || len(empty.List()) != 0 {
		t.Fatalf("Load(missing) = %v, %v", empty.List(), err)
	}

	r := NewRegistry()
	id := r.Create("heartbeat")
	r.Update(id, StateRunning, nil, "sending")
	if err := r.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	task, ok := loaded.Get(id)
	if !ok || task.State != StateRunning || task.Message != "sending" {
		t.Errorf("loaded task = %+v, %v", task, ok)
	}
}

func TestRegistryConcurrent(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := r.Create("work")
			r.Update(id, StateRunning, nil, "")
			r.Cancel(id)
			_ = r.List()
		}()
	}
	wg.Wait()
	if len(r.List()) != 50 {
		t.Errorf("List() = %d tasks, want 50", len(r.List()))
	}
}

func TestClearFinishedBefore(t *testing.T) {
	r := NewRegistry()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	r.now = func() time.Time { return now.Add(-2 * time.Hour) }
	old := r.Create("old")
	r.Update(old, StateCompleted, nil, "")
	stillRunning := r.Create("running")

	r.now = func() time.Time { return now }
	recent := r.Create("recent")
	r.Update(recent, StateFailed, nil, "boom")

	if removed := r.ClearFinishedBefore(now.Add(-time.Hour)); removed != 1 {
		t.Errorf("ClearFinishedBefore() = %d, want 1", removed)
	}
	if _, ok := r.Get(old); ok {
		t.Error("old task should be removed")
	}
	for _, id := range []string{stillRunning, recent} {
		if _, ok := r.Get(id); !ok {
			t.Errorf("task %s should be kept", id)
		}
	}
}
