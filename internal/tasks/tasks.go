// Package tasks records long-running background work such as daemon
// refreshes and heartbeats.
package tasks

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/iksnae/agentsync/internal"
)

// State is the lifecycle state of a task
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Active reports whether the task has not finished
func (s State) Active() bool {
	return s == StatePending || s == StateRunning
}

// Task is one background task
type Task struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	State       State    `json:"status" yaml:"status"`
	Progress    *float64 `json:"progress,omitempty" yaml:"progress,omitempty"`
	Message     string   `json:"message,omitempty" yaml:"message,omitempty"`
	StartedAt   string   `json:"started_at" yaml:"started_at"`
	CompletedAt string   `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// Registry holds tasks by id
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]*Task
	now   func() time.Time
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]*Task), now: time.Now}
}

func (r *Registry) stamp() string {
	return r.now().UTC().Format(time.RFC3339)
}

// Create registers a pending task and returns its id
func (r *Registry) Create(name string) string {
	id := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[id] = &Task{ID: id, Name: name, State: StatePending, StartedAt: r.stamp()}
	return id
}

// Update changes the state of a task. Finishing states set CompletedAt.
// A cancelled task keeps its state. Unknown ids are ignored.
func (r *Registry) Update(id string, state State, progress *float64, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok || task.State == StateCancelled {
		return
	}
	task.State = state
	task.Progress = progress
	task.Message = message
	if !state.Active() {
		task.CompletedAt = r.stamp()
	}
}

// Cancelled reports whether the task was cancelled. Workers poll it
// between steps.
func (r *Registry) Cancelled(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[id]
	return ok && task.State == StateCancelled
}

// Cancel marks an active task cancelled. It does not interrupt the work;
// it returns false for unknown or finished tasks.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok || !task.State.Active() {
		return false
	}
	task.State = StateCancelled
	task.CompletedAt = r.stamp()
	return true
}

// Get returns a copy of a task
func (r *Registry) Get(id string) (Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *task, true
}

// List returns copies of every task, oldest first
func (r *Registry) List() []Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		list = append(list, *task)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].StartedAt != list[j].StartedAt {
			return list[i].StartedAt < list[j].StartedAt
		}
		return list[i].ID < list[j].ID
	})
	return list
}

// ClearFinished removes every task that is no longer active and returns
// how many were removed
func (r *Registry) ClearFinished() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, task := range r.tasks {
		if !task.State.Active() {
			delete(r.tasks, id)
			removed++
		}
	}
	return removed
}

// ClearFinishedBefore removes finished tasks that completed before cutoff
func (r *Registry) ClearFinishedBefore(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, task := range r.tasks {
		if task.State.Active() {
			continue
		}
		completed, err := time.Parse(time.RFC3339, task.CompletedAt)
		if err == nil && completed.Before(cutoff) {
			delete(r.tasks, id)
			removed++
		}
	}
	return removed
}

// Save writes the registry to path as YAML
func (r *Registry) Save(path string) error {
	data, err := yaml.Marshal(r.List())
	if err != nil {
		return fmt.Errorf("failed to encode tasks: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &internal.StorageError{Path: filepath.Dir(path), Op: "create", Err: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &internal.StorageError{Path: path, Op: "write", Err: err}
	}
	return nil
}

// Load reads a registry saved with Save. A missing file yields an empty
// registry.
func Load(path string) (*Registry, error) {
	r := NewRegistry()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, &internal.StorageError{Path: path, Op: "read", Err: err}
	}

	var list []Task
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, &internal.ParseError{Source: "tasks", Key: path, Err: err}
	}
	for i := range list {
		task := list[i]
		r.tasks[task.ID] = &task
	}
	return r, nil
}
