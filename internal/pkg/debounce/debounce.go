// Package debounce provides a per-process, in-memory timestamp filter that
// suppresses rapid repeat invocations of the same logical operation key.
//
// This is a local optimization, not a correctness guarantee: the filter is
// not shared across processes. The distributed lock is the correctness
// boundary for concurrent runs.
package debounce

import (
	"sync"
	"time"
)

// Filter suppresses repeat calls for the same key within a window.
// Safe for concurrent use.
type Filter struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]time.Time
	now    func() time.Time
}

// New creates a filter with the given suppression window.
func New(window time.Duration) *Filter {
	return &Filter{
		window: window,
		seen:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// Allow reports whether the key may proceed. The first call for a key
// within a window wins; later calls are suppressed until the window passes.
func (f *Filter) Allow(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	if last, ok := f.seen[key]; ok && now.Sub(last) < f.window {
		return false
	}
	f.seen[key] = now

	// Opportunistic cleanup so the map doesn't grow unbounded.
	if len(f.seen) > 1024 {
		for k, ts := range f.seen {
			if now.Sub(ts) >= f.window {
				delete(f.seen, k)
			}
		}
	}
	return true
}
