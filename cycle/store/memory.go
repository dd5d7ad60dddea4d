// Package store provides in-memory cycle.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/lunarlog/cycle-engine/cycle"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory is a cycle.Store backed by a map. Id assignment follows SQLite
// AUTOINCREMENT: ids are never reused, and an explicit id above the
// sequence advances it.
type Memory struct {
	mu       sync.RWMutex
	cycles   map[int64]cycle.Cycle
	seq      int64
	writeErr error

	tracker *cycle.InvalidationTracker
}

var _ cycle.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		cycles:  make(map[int64]cycle.Cycle),
		tracker: cycle.NewInvalidationTracker(),
	}
}

// Tracker exposes the invalidation tracker so tests can notify other tables.
func (m *Memory) Tracker() *cycle.InvalidationTracker { return m.tracker }

// SetWriteError makes every subsequent write fail with err (nil clears it).
func (m *Memory) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// Insert adds or replaces a cycle.
func (m *Memory) Insert(_ context.Context, c cycle.Cycle) (int64, error) {
	m.mu.Lock()
	if m.writeErr != nil {
		err := m.writeErr
		m.mu.Unlock()
		return 0, &cycle.WriteError{Op: "insert", ID: c.ID, Err: err}
	}
	id := m.insertLocked(c)
	m.mu.Unlock()

	m.tracker.Notify(cycle.TableCycles)
	return id, nil
}

func (m *Memory) insertLocked(c cycle.Cycle) int64 {
	if c.ID == 0 {
		m.seq++
		c.ID = m.seq
	} else if c.ID > m.seq {
		m.seq = c.ID
	}
	m.cycles[c.ID] = c.WithEnd(c.EndDate)
	return c.ID
}

// Update overwrites an existing cycle. Unknown ids are ignored.
func (m *Memory) Update(_ context.Context, c cycle.Cycle) error {
	m.mu.Lock()
	if m.writeErr != nil {
		err := m.writeErr
		m.mu.Unlock()
		return &cycle.WriteError{Op: "update", ID: c.ID, Err: err}
	}
	_, ok := m.cycles[c.ID]
	if ok {
		m.cycles[c.ID] = c.WithEnd(c.EndDate)
	}
	m.mu.Unlock()

	if ok {
		m.tracker.Notify(cycle.TableCycles)
	}
	return nil
}

func (m *Memory) ListAll(_ context.Context) ([]cycle.Cycle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(func(cycle.Cycle) bool { return true }), nil
}

func (m *Memory) ListInRange(_ context.Context, from, to cycle.Day) ([]cycle.Cycle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(func(c cycle.Cycle) bool { return c.Overlaps(from, to) }), nil
}

func (m *Memory) CycleForDate(_ context.Context, day cycle.Day) (*cycle.Cycle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := m.collect(func(c cycle.Cycle) bool { return c.StartDate == day })
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[len(matches)-1], nil
}

func (m *Memory) Observe(ctx context.Context) *cycle.Subscription {
	return cycle.Observe(ctx, m.tracker, m.ListAll)
}

func (m *Memory) ObserveRange(ctx context.Context, from, to cycle.Day) *cycle.Subscription {
	return cycle.Observe(ctx, m.tracker, func(ctx context.Context) ([]cycle.Cycle, error) {
		return m.ListInRange(ctx, from, to)
	})
}

// ReplaceAll swaps the whole table. On error the previous contents stay.
func (m *Memory) ReplaceAll(_ context.Context, cycles []cycle.Cycle) error {
	m.mu.Lock()
	if m.writeErr != nil {
		err := m.writeErr
		m.mu.Unlock()
		return &cycle.WriteError{Op: "replace", Err: err}
	}

	snapshot, seq := m.cycles, m.seq
	m.cycles = make(map[int64]cycle.Cycle, len(cycles))
	for _, c := range cycles {
		if err := c.Validate(); err != nil {
			// Rollback
			m.cycles, m.seq = snapshot, seq
			m.mu.Unlock()
			return &cycle.WriteError{Op: "replace", ID: c.ID, Err: err}
		}
		m.insertLocked(c)
	}
	m.mu.Unlock()

	m.tracker.Notify(cycle.TableCycles)
	return nil
}

// collect returns matching cycles ordered by start date DESC, id DESC.
// Caller holds the lock.
func (m *Memory) collect(keep func(cycle.Cycle) bool) []cycle.Cycle {
	result := make([]cycle.Cycle, 0, len(m.cycles))
	for _, c := range m.cycles {
		if keep(c) {
			result = append(result, c.WithEnd(c.EndDate))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartDate != result[j].StartDate {
			return result[i].StartDate > result[j].StartDate
		}
		return result[i].ID > result[j].ID
	})
	return result
}
