package internal

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestTrackingCache_Bound(t *testing.T) {
	cache := NewTrackingCache(0)
	if cache.Capacity() != DefaultTrackingCapacity {
		t.Fatalf("Capacity() = %d, want %d", cache.Capacity(), DefaultTrackingCapacity)
	}

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 250; i++ {
		cache.TrackAt(fmt.Sprintf("id-%03d", i), base.Add(time.Duration(i)*time.Second))
		if cache.Len() > DefaultTrackingCapacity {
			t.Fatalf("Len() = %d after %d inserts, exceeds capacity", cache.Len(), i+1)
		}
	}
	if cache.Len() != DefaultTrackingCapacity {
		t.Errorf("Len() = %d, want %d", cache.Len(), DefaultTrackingCapacity)
	}
	if cache.Contains("id-149") {
		t.Error("id-149 should have been evicted")
	}
	if !cache.Contains("id-150") || !cache.Contains("id-249") {
		t.Error("the 100 newest ids should be retained")
	}
}

func TestTrackingCache_EvictsOldestOnly(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewTrackingCache(3)
	cache.TrackAt("b", base.Add(2*time.Minute))
	cache.TrackAt("a", base) // oldest despite insertion order
	cache.TrackAt("c", base.Add(3*time.Minute))

	cache.TrackAt("d", base.Add(4*time.Minute))

	if cache.Contains("a") {
		t.Error("oldest entry a should be evicted")
	}
	for _, id := range []string{"b", "c", "d"} {
		if !cache.Contains(id) {
			t.Errorf("%s should still be tracked", id)
		}
	}
}

func TestTrackingCache_TieBreak(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewTrackingCache(2)
	cache.TrackAt("z", at)
	cache.TrackAt("m", at)
	cache.TrackAt("q", at.Add(time.Second))

	if cache.Contains("m") {
		t.Error("tie on CreatedAt should evict the smallest id")
	}
	if !cache.Contains("z") || !cache.Contains("q") {
		t.Errorf("unexpected contents: %v", cache.List())
	}
}

func TestTrackingCache_RetrackDoesNotEvict(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewTrackingCache(2)
	cache.TrackAt("a", base)
	cache.TrackAt("b", base.Add(time.Second))

	cache.TrackAt("a", base.Add(time.Hour))

	if cache.Len() != 2 || !cache.Contains("b") {
		t.Errorf("re-tracking evicted an entry: %v", cache.List())
	}
	if got := cache.Snapshot()[0]; got.ID != "a" || !got.CreatedAt.Equal(base) {
		t.Errorf("re-tracking should keep the original time, got %+v", got)
	}
}

func TestTrackingCache_UntrackAndList(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewTrackingCache(10)
	cache.TrackAt("second", base.Add(time.Second))
	cache.TrackAt("first", base)
	cache.Untrack("missing")
	cache.Untrack("second")

	got := cache.List()
	if len(got) != 1 || got[0] != "first" {
		t.Errorf("List() = %v, want [first]", got)
	}
}

func TestTrackingCache_SnapshotRestore(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	src := NewTrackingCache(5)
	src.TrackAt("t1", base)
	src.TrackAt("t2", base.Add(time.Minute))

	dst := NewTrackingCache(5)
	dst.Restore(src.Snapshot())

	if dst.Len() != 2 || !dst.Contains("t1") || !dst.Contains("t2") {
		t.Errorf("Restore() lost entries: %v", dst.List())
	}
}

func TestTrackingCache_Concurrent(t *testing.T) {
	cache := NewTrackingCache(50)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				cache.Track(fmt.Sprintf("w%d-%d", w, i))
				_ = cache.List()
			}
		}(w)
	}
	wg.Wait()

	if cache.Len() != 50 {
		t.Errorf("Len() = %d, want 50", cache.Len())
	}
}
