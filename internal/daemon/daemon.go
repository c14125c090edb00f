// Package daemon keeps this machine's heartbeat and agent state fresh in
// the shared KV store.
package daemon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/iksnae/agentsync/internal"
	"github.com/iksnae/agentsync/internal/aggregator"
	"github.com/iksnae/agentsync/internal/fleet"
	"github.com/iksnae/agentsync/internal/tasks"
)

const defaultDebounce = 500 * time.Millisecond

// Config controls the daemon loop
type Config struct {
	MachineID         string
	Providers         []internal.Provider
	RefreshInterval   time.Duration
	HeartbeatInterval time.Duration
	// WatchDirs are provider session roots; changes below them trigger
	// an early publish
	WatchDirs []string
	Debounce  time.Duration
	// TasksPath persists the task registry after every run when set
	TasksPath string
}

// Daemon publishes heartbeats and agent state on timers and on session
// file changes
type Daemon struct {
	cfg   Config
	agg   *aggregator.Aggregator
	fleet *fleet.Client
	tasks *tasks.Registry

	watcher    *fsnotify.Watcher
	debounceMu sync.Mutex
	debounce   *time.Timer
	stopCh     chan struct{}
	wg         sync.WaitGroup
}

// New creates a daemon. registry may be nil.
func New(cfg Config, agg *aggregator.Aggregator, fc *fleet.Client, registry *tasks.Registry) *Daemon {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	if registry == nil {
		registry = tasks.NewRegistry()
	}
	return &Daemon{
		cfg:    cfg,
		agg:    agg,
		fleet:  fc,
		tasks:  registry,
		stopCh: make(chan struct{}),
	}
}

// Tasks returns the registry the daemon records its runs in
func (d *Daemon) Tasks() *tasks.Registry {
	return d.tasks
}

// Heartbeat publishes this machine's heartbeat
func (d *Daemon) Heartbeat(ctx context.Context) error {
	return d.runTask("heartbeat", func() error {
		_, err := d.fleet.PublishHeartbeat(ctx, d.cfg.MachineID)
		return err
	})
}

// Publish aggregates the local agents and publishes their states
func (d *Daemon) Publish(ctx context.Context) error {
	return d.runTask("publish agents", func() error {
		resp := d.agg.ListAll(ctx, d.cfg.Providers)
		if err := d.fleet.PublishAgents(ctx, d.cfg.MachineID, fleet.StatesFromAgents(resp.Agents)); err != nil {
			return err
		}
		internal.LogDebug("Published %d agent(s) for %s", resp.Total, d.cfg.MachineID)
		return nil
	})
}

// RunOnce sends one heartbeat and one agent-state publish
func (d *Daemon) RunOnce(ctx context.Context) error {
	if err := d.Heartbeat(ctx); err != nil {
		return fmt.Errorf("heartbeat failed: %w", err)
	}
	if err := d.Publish(ctx); err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}
	return nil
}

// Run loops until ctx is cancelled. Individual failures are logged and
// retried on the next tick.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.RunOnce(ctx); err != nil {
		internal.LogWarn("Initial sync failed: %v", err)
	}

	if err := d.startWatcher(ctx); err != nil {
		internal.LogWarn("File watching disabled: %v", err)
	}
	defer d.stop()

	refresh := time.NewTicker(d.cfg.RefreshInterval)
	defer refresh.Stop()
	heartbeat := time.NewTicker(d.cfg.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-refresh.C:
			if err := d.Publish(ctx); err != nil {
				internal.LogWarn("Publish failed: %v", err)
			}
		case <-heartbeat.C:
			if err := d.Heartbeat(ctx); err != nil {
				internal.LogWarn("Heartbeat failed: %v", err)
			}
		}
	}
}

func (d *Daemon) runTask(name string, fn func() error) error {
	id := d.tasks.Create(name)
	d.tasks.Update(id, tasks.StateRunning, nil, "")

	err := fn()
	if d.tasks.Cancelled(id) {
		internal.LogDebug("Task %s (%s) finished after cancellation", name, id)
	} else if err != nil {
		d.tasks.Update(id, tasks.StateFailed, nil, err.Error())
	} else {
		d.tasks.Update(id, tasks.StateCompleted, nil, "")
	}

	if d.cfg.TasksPath != "" {
		d.tasks.ClearFinishedBefore(time.Now().Add(-time.Hour))
		if saveErr := d.tasks.Save(d.cfg.TasksPath); saveErr != nil {
			internal.LogDebug("Failed to save tasks: %v", saveErr)
		}
	}
	return err
}

func (d *Daemon) startWatcher(ctx context.Context) error {
	var roots []string
	for _, dir := range d.cfg.WatchDirs {
		if dir != "" && internal.DirExists(dir) {
			roots = append(roots, dir)
		}
	}
	if len(roots) == 0 {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	d.watcher = watcher

	for _, root := range roots {
		d.addTree(root, 2)
	}

	d.wg.Add(1)
	go d.watchLoop(ctx)
	return nil
}

// addTree watches dir and its subdirectories down to depth levels. Session
// files live two levels below a provider root.
func (d *Daemon) addTree(dir string, depth int) {
	if err := d.watcher.Add(dir); err != nil {
		internal.LogDebug("Failed to watch %s: %v", dir, err)
		return
	}
	if depth == 0 {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			d.addTree(filepath.Join(dir, entry.Name()), depth-1)
		}
	}
}

func (d *Daemon) watchLoop(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stopCh:
			return
		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			d.handleEvent(ctx, event)
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			internal.LogDebug("Watcher error: %v", err)
		}
	}
}

func (d *Daemon) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			d.addTree(event.Name, 1)
			return
		}
	}
	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
		if strings.HasSuffix(event.Name, ".json") {
			d.schedulePublish(ctx)
		}
	}
}

func (d *Daemon) schedulePublish(ctx context.Context) {
	d.debounceMu.Lock()
	defer d.debounceMu.Unlock()

	if d.debounce != nil {
		d.debounce.Stop()
	}
	d.debounce = time.AfterFunc(d.cfg.Debounce, func() {
		// stop closes stopCh under debounceMu, so once it has run no new
		// publish can register with wg.
		d.debounceMu.Lock()
		select {
		case <-d.stopCh:
			d.debounceMu.Unlock()
			return
		default:
		}
		d.wg.Add(1)
		d.debounceMu.Unlock()
		defer d.wg.Done()

		if err := d.Publish(ctx); err != nil {
			internal.LogWarn("Publish after file change failed: %v", err)
		}
	})
}

// stop closes the watcher and waits for the watch loop and any in-flight
// debounced publish to finish.
func (d *Daemon) stop() {
	d.debounceMu.Lock()
	close(d.stopCh)
	if d.debounce != nil {
		d.debounce.Stop()
		d.debounce = nil
	}
	d.debounceMu.Unlock()

	if d.watcher != nil {
		_ = d.watcher.Close()
	}
	d.wg.Wait()
}
