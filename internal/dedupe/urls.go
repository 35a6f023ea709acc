package dedupe

import (
	"sync"
	"time"
)

type sighting struct {
	url string
	at  time.Time
}

// URLTracker remembers article URLs reported by earlier runs so a run can
// tell which of its URLs are new. It is bounded by capacity and ttl.
type URLTracker struct {
	mu       sync.Mutex
	seen     map[string]time.Time
	order    []sighting
	capacity int
	ttl      time.Duration
}

// NewURLTracker creates a tracker with the provided capacity and ttl.
func NewURLTracker(capacity int, ttl time.Duration) *URLTracker {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &URLTracker{
		seen:     make(map[string]time.Time, capacity),
		order:    make([]sighting, 0, capacity),
		capacity: capacity,
		ttl:      ttl,
	}
}

// Fresh returns the URLs not reported within the ttl window and records all
// of urls as seen at now.
func (t *URLTracker) Fresh(urls []string, now time.Time) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var fresh []string
	for _, u := range urls {
		if at, ok := t.seen[u]; !ok || now.Sub(at) > t.ttl {
			fresh = append(fresh, u)
		}
		t.seen[u] = now
		t.order = append(t.order, sighting{url: u, at: now})
	}
	t.compact(now)
	return fresh
}

// Len reports how many URLs are remembered.
func (t *URLTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen)
}

func (t *URLTracker) compact(now time.Time) {
	cutoff := now.Add(-t.ttl)

	for len(t.order) > 0 && (len(t.seen) > t.capacity || t.order[0].at.Before(cutoff)) {
		oldest := t.order[0]
		t.order = t.order[1:]

		// A newer sighting of the same URL keeps it alive.
		if at, ok := t.seen[oldest.url]; ok && at.Equal(oldest.at) {
			delete(t.seen, oldest.url)
		}
	}
}
