/*
Package sqlite provides a SQLite-backed implementation of cycle.Store.

PURPOSE:
  Durable local storage for cycles plus the bookkeeping table used by the
  reminder scheduler. Every write runs in its own database transaction and
  is rolled back on failure.

KEY TABLES:
  cycles:         id INTEGER PRIMARY KEY AUTOINCREMENT,
                  startDate INTEGER NOT NULL (epoch day),
                  endDate INTEGER NULL (epoch day, NULL while ongoing)
  reminders_sent: (kind, target_day) primary key, one row per delivery

INSERT SEMANTICS:
  INSERT OR REPLACE with NULLIF(id, 0): a zero id lets SQLite assign the
  next rowid, a non-zero id replaces the existing row entirely.

CHANGE NOTIFICATION:
  After a successful commit, writes notify the InvalidationTracker with the
  table they touched. Observe subscriptions watch only the cycles table, so
  reminder bookkeeping never wakes them. An UPDATE that matched zero rows
  does not notify.

MIGRATIONS:
  Versioned SQL files embedded from migrations/ and applied with
  golang-migrate on New().

CONCURRENCY:
  sync.RWMutex around the *sql.DB: writers exclusive, readers shared.
  ":memory:" databases are pinned to a single connection so every query
  sees the same database.

USAGE:
  store, err := sqlite.New("./data/lunarlog.db")
  if err != nil {
      log.Fatal().Err(err).Msg("open store")
  }
  defer store.Close()

SEE ALSO:
  - cycle/store.go: Interface definition
  - cycle/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/lunarlog/cycle-engine/cycle"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements cycle.Store using SQLite.
type Store struct {
	db      *sql.DB
	mu      sync.RWMutex
	closed  bool
	tracker *cycle.InvalidationTracker
}

var _ cycle.Store = (*Store)(nil)

// New opens (or creates) the database at dbPath and applies migrations.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, tracker: cycle.NewInvalidationTracker()}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Debug().Str("path", dbPath).Msg("sqlite store ready")
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Tracker returns the store's invalidation tracker.
func (s *Store) Tracker() *cycle.InvalidationTracker { return s.tracker }

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return cycle.ErrStoreClosed
	}
	return s.db.PingContext(ctx)
}

// =============================================================================
// MIGRATIONS
// =============================================================================

func (s *Store) newMigrator() (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	return migrate.NewWithInstance("iofs", source, "sqlite3", driver)
}

// migrate applies all pending up migrations. The migrator is not closed:
// closing it would close the shared *sql.DB.
func (s *Store) migrate() error {
	m, err := s.newMigrator()
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// SchemaVersion reports the applied migration version.
func (s *Store) SchemaVersion() (uint, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.newMigrator()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// =============================================================================
// CYCLE STORE (cycle.Store interface)
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Insert writes a cycle in its own transaction. ID 0 assigns a new id; an
// existing non-zero id is replaced.
func (s *Store) Insert(ctx context.Context, c cycle.Cycle) (int64, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = insertCycle(ctx, tx, c)
		return err
	})
	if err != nil {
		return 0, &cycle.WriteError{Op: "insert", ID: c.ID, Err: err}
	}

	s.tracker.Notify(cycle.TableCycles)
	return id, nil
}

func insertCycle(ctx context.Context, db execer, c cycle.Cycle) (int64, error) {
	res, err := db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cycles (id, startDate, endDate) VALUES (NULLIF(?, 0), ?, ?)`,
		c.ID, int64(c.StartDate), nullDay(c.EndDate),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert cycle: %w", err)
	}
	return res.LastInsertId()
}

// Update overwrites the row with c.ID. Zero affected rows is not an error.
func (s *Store) Update(ctx context.Context, c cycle.Cycle) error {
	var affected int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE cycles SET startDate = ?, endDate = ? WHERE id = ?`,
			int64(c.StartDate), nullDay(c.EndDate), c.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update cycle: %w", err)
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return &cycle.WriteError{Op: "update", ID: c.ID, Err: err}
	}

	if affected > 0 {
		s.tracker.Notify(cycle.TableCycles)
	} else {
		log.Debug().Int64("cycle_id", c.ID).Msg("update matched no rows")
	}
	return nil
}

// ReplaceAll deletes every cycle and inserts the given ones atomically.
func (s *Store) ReplaceAll(ctx context.Context, cycles []cycle.Cycle) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cycles`); err != nil {
			return fmt.Errorf("failed to clear cycles: %w", err)
		}
		for _, c := range cycles {
			if err := c.Validate(); err != nil {
				return err
			}
			if _, err := insertCycle(ctx, tx, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &cycle.WriteError{Op: "replace", Err: err}
	}

	s.tracker.Notify(cycle.TableCycles)
	return nil
}

// ListAll returns all cycles ordered by start date, newest first.
func (s *Store) ListAll(ctx context.Context) ([]cycle.Cycle, error) {
	return s.queryCycles(ctx, `
		SELECT id, startDate, endDate FROM cycles
		ORDER BY startDate DESC, id DESC
	`)
}

// ListInRange returns cycles overlapping [from, to]. Open cycles overlap
// every range that ends on or after their start.
func (s *Store) ListInRange(ctx context.Context, from, to cycle.Day) ([]cycle.Cycle, error) {
	return s.queryCycles(ctx, `
		SELECT id, startDate, endDate FROM cycles
		WHERE startDate <= ? AND (endDate >= ? OR endDate IS NULL)
		ORDER BY startDate DESC, id DESC
	`, int64(to), int64(from))
}

// CycleForDate returns the cycle starting on day, or nil.
func (s *Store) CycleForDate(ctx context.Context, day cycle.Day) (*cycle.Cycle, error) {
	cycles, err := s.queryCycles(ctx, `
		SELECT id, startDate, endDate FROM cycles
		WHERE startDate = ?
		ORDER BY id ASC
		LIMIT 1
	`, int64(day))
	if err != nil || len(cycles) == 0 {
		return nil, err
	}
	return &cycles[0], nil
}

// Observe streams ListAll snapshots.
func (s *Store) Observe(ctx context.Context) *cycle.Subscription {
	return cycle.Observe(ctx, s.tracker, s.ListAll)
}

// ObserveRange streams ListInRange snapshots.
func (s *Store) ObserveRange(ctx context.Context, from, to cycle.Day) *cycle.Subscription {
	return cycle.Observe(ctx, s.tracker, func(ctx context.Context) ([]cycle.Cycle, error) {
		return s.ListInRange(ctx, from, to)
	})
}

// Count returns the number of stored cycles.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, cycle.ErrStoreClosed
	}

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cycles").Scan(&count)
	return count, err
}

func (s *Store) queryCycles(ctx context.Context, query string, args ...any) ([]cycle.Cycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, cycle.ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycles: %w", err)
	}
	defer rows.Close()

	cycles := []cycle.Cycle{}
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		cycles = append(cycles, c)
	}

	return cycles, rows.Err()
}

func scanCycle(rows *sql.Rows) (cycle.Cycle, error) {
	var (
		c     cycle.Cycle
		start int64
		end   sql.NullInt64
	)
	if err := rows.Scan(&c.ID, &start, &end); err != nil {
		return c, fmt.Errorf("failed to scan cycle: %w", err)
	}

	c.StartDate = cycle.Day(start)
	if end.Valid {
		c.EndDate = cycle.Day(end.Int64).Ptr()
	}
	return c, nil
}

// =============================================================================
// REMINDER BOOKKEEPING
// =============================================================================

// RecordReminder marks a reminder as delivered. It returns false when the
// same kind was already recorded for targetDay.
func (s *Store) RecordReminder(ctx context.Context, kind string, targetDay cycle.Day, sentAt time.Time) (bool, error) {
	var inserted bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO reminders_sent (kind, target_day, sent_at) VALUES (?, ?, ?)`,
			kind, int64(targetDay), sentAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("failed to record reminder: %w", err)
		}
		n, err := res.RowsAffected()
		inserted = n > 0
		return err
	})
	if err != nil {
		return false, err
	}

	if inserted {
		s.tracker.Notify(cycle.TableReminders)
	}
	return inserted, nil
}

// ForgetReminder removes a recorded reminder so it can be sent again.
func (s *Store) ForgetReminder(ctx context.Context, kind string, targetDay cycle.Day) error {
	var removed bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM reminders_sent WHERE kind = ? AND target_day = ?",
			kind, int64(targetDay),
		)
		if err != nil {
			return fmt.Errorf("failed to forget reminder: %w", err)
		}
		n, err := res.RowsAffected()
		removed = n > 0
		return err
	})
	if err != nil {
		return err
	}

	if removed {
		s.tracker.Notify(cycle.TableReminders)
	}
	return nil
}

// ReminderSent reports whether a reminder was already delivered.
func (s *Store) ReminderSent(ctx context.Context, kind string, targetDay cycle.Day) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, cycle.ErrStoreClosed
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reminders_sent WHERE kind = ? AND target_day = ?",
		kind, int64(targetDay),
	).Scan(&count)
	return count > 0, err
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// withTx runs fn inside a database transaction under the write lock.
// If fn returns an error the transaction is rolled back.
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return cycle.ErrStoreClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Helper functions

func nullDay(d *cycle.Day) sql.NullInt64 {
	if d == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*d), Valid: true}
}
