package internal

import (
	"sort"
	"sync"
	"time"
)

// DefaultTrackingCapacity bounds every tracking cache
const DefaultTrackingCapacity = 100

// TrackedSession is a cloud session id remembered by an adapter that has
// no server-side listing for it.
type TrackedSession struct {
	ID        string    `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// TrackingCache is a bounded set of tracked session ids. When a new id is
// inserted at capacity, the entry with the oldest CreatedAt is evicted,
// ties broken by the smallest id.
type TrackingCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]time.Time
	now      func() time.Time
}

// NewTrackingCache creates a cache holding at most capacity ids.
// A non-positive capacity selects DefaultTrackingCapacity.
func NewTrackingCache(capacity int) *TrackingCache {
	if capacity <= 0 {
		capacity = DefaultTrackingCapacity
	}
	return &TrackingCache{
		capacity: capacity,
		entries:  make(map[string]time.Time),
		now:      time.Now,
	}
}

// Capacity returns the maximum number of tracked ids
func (c *TrackingCache) Capacity() int {
	return c.capacity
}

// Track records id with the current time
func (c *TrackingCache) Track(id string) {
	c.TrackAt(id, c.now())
}

// TrackAt records id with an explicit creation time. Re-tracking a known
// id keeps its original time and never evicts.
func (c *TrackingCache) TrackAt(id string, createdAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[id]; ok {
		return
	}
	if len(c.entries) >= c.capacity {
		c.evictOldest()
	}
	c.entries[id] = createdAt
}

// evictOldest must be called with mu held
func (c *TrackingCache) evictOldest() {
	var (
		oldestID string
		oldestAt time.Time
		found    bool
	)
	for id, at := range c.entries {
		if !found || at.Before(oldestAt) || (at.Equal(oldestAt) && id < oldestID) {
			oldestID, oldestAt, found = id, at, true
		}
	}
	if found {
		delete(c.entries, oldestID)
	}
}

// Untrack forgets id; unknown ids are ignored
func (c *TrackingCache) Untrack(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// Contains reports whether id is tracked
func (c *TrackingCache) Contains(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[id]
	return ok
}

// Len returns the number of tracked ids
func (c *TrackingCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// List returns the tracked ids, oldest first
func (c *TrackingCache) List() []string {
	snapshot := c.Snapshot()
	ids := make([]string, len(snapshot))
	for i, s := range snapshot {
		ids[i] = s.ID
	}
	return ids
}

// Snapshot returns a copy of the tracked sessions, oldest first
func (c *TrackingCache) Snapshot() []TrackedSession {
	c.mu.Lock()
	sessions := make([]TrackedSession, 0, len(c.entries))
	for id, at := range c.entries {
		sessions = append(sessions, TrackedSession{ID: id, CreatedAt: at})
	}
	c.mu.Unlock()

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions
}

// Restore tracks every session of a previously taken snapshot
func (c *TrackingCache) Restore(sessions []TrackedSession) {
	for _, s := range sessions {
		c.TrackAt(s.ID, s.CreatedAt)
	}
}
