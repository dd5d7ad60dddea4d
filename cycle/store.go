/*
store.go - Persistence contract for cycles

PURPOSE:
  Defines the interface between the cycle domain and the database. The
  Store owns the `cycles` table and notifies observers when it changes.

WRITE SEMANTICS:
  Insert:  atomic; ID 0 means "assign a new id"; a non-zero ID that already
           exists is REPLACED entirely (insert-or-replace).
  Update:  atomic; overwrites every field of the row with the same ID.
           Zero matching rows is a silent no-op: no error, no notification.
  ReplaceAll: atomic clear + re-insert, used by restore.

READ SEMANTICS:
  All list operations order by StartDate DESC.
  Observe returns a live Subscription: first emission is the current table
  contents, then a fresh snapshot after every committed write that touched
  the cycles table. Writes to other tables never wake cycle observers.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite (production)
  - cycle/store/memory.go: In-memory (testing)

SEE ALSO:
  - invalidation.go: Table-level change tracking
  - observe.go: Subscription machinery shared by all implementations
*/
package cycle

import "context"

// Table names known to the invalidation tracker.
const (
	TableCycles    = "cycles"
	TableReminders = "reminders_sent"
)

// =============================================================================
// STORE - Interface for cycle persistence
// =============================================================================

// Store persists cycles.
type Store interface {
	// Insert writes a cycle and returns its row id.
	Insert(ctx context.Context, c Cycle) (int64, error)

	// Update overwrites the row matching c.ID. Unknown ids are a no-op.
	Update(ctx context.Context, c Cycle) error

	// ListAll returns every cycle, newest start first.
	ListAll(ctx context.Context) ([]Cycle, error)

	// ListInRange returns cycles overlapping [from, to], newest start first.
	ListInRange(ctx context.Context, from, to Day) ([]Cycle, error)

	// CycleForDate returns the cycle starting on day, or nil.
	CycleForDate(ctx context.Context, day Day) (*Cycle, error)

	// Observe streams ListAll snapshots until ctx is done or the
	// subscription is closed.
	Observe(ctx context.Context) *Subscription

	// ObserveRange streams ListInRange snapshots.
	ObserveRange(ctx context.Context, from, to Day) *Subscription

	// ReplaceAll atomically replaces the table contents.
	ReplaceAll(ctx context.Context, cycles []Cycle) error
}
