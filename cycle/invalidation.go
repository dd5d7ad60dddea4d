package cycle

import (
	"sync"
)

// =============================================================================
// INVALIDATION TRACKER - Table-level change notification
// =============================================================================

// InvalidationTracker fans table change notifications out to observers.
// Each observer owns a one-slot signal channel; notifications that arrive
// while a signal is pending collapse into it, so Notify never blocks.
type InvalidationTracker struct {
	mu        sync.Mutex
	observers map[uint64]*tableObserver
	next      uint64
}

type tableObserver struct {
	tables map[string]struct{}
	signal chan struct{}
}

// NewInvalidationTracker creates an empty tracker.
func NewInvalidationTracker() *InvalidationTracker {
	return &InvalidationTracker{observers: make(map[uint64]*tableObserver)}
}

// Subscribe registers interest in the given tables. The returned function
// unregisters the observer and is safe to call more than once.
func (t *InvalidationTracker) Subscribe(tables ...string) (<-chan struct{}, func()) {
	obs := &tableObserver{
		tables: make(map[string]struct{}, len(tables)),
		signal: make(chan struct{}, 1),
	}
	for _, name := range tables {
		obs.tables[name] = struct{}{}
	}

	t.mu.Lock()
	id := t.next
	t.next++
	t.observers[id] = obs
	t.mu.Unlock()

	var once sync.Once
	return obs.signal, func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.observers, id)
			t.mu.Unlock()
		})
	}
}

// Notify signals every observer watching any of the given tables.
func (t *InvalidationTracker) Notify(tables ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, obs := range t.observers {
		if !obs.watches(tables) {
			continue
		}
		select {
		case obs.signal <- struct{}{}:
		default: // already pending
		}
	}
}

// Observers returns the number of registered observers.
func (t *InvalidationTracker) Observers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.observers)
}

func (o *tableObserver) watches(tables []string) bool {
	for _, name := range tables {
		if _, ok := o.tables[name]; ok {
			return true
		}
	}
	return false
}
