/*
repository.go - Period logging flows on top of a Store

PURPOSE:
  The Repository is what the API and CLI talk to. It passes reads and raw
  writes through to the Store and adds the two user-facing flows:

  LogPeriod:    record a finished period with a known start and end.
  TogglePeriod: one-button start/stop for "today", with a resume path when
                the user ended the period by mistake on the same day.

TOGGLE STATE MACHINE (latest = cycle with the greatest start date):
  latest open                  -> set end = today    -> PeriodEnded
                                  (today before its start is ErrInvalidPeriod)
  latest ended exactly today   -> clear end          -> PeriodResumed
  anything else (or no cycles) -> insert {start=today} -> PeriodStarted

CONCURRENCY:
  TogglePeriod reads then writes. The repository serialises toggles with a
  mutex so two concurrent toggles cannot both decide "start new".
*/
package cycle

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// ToggleResult is the outcome of TogglePeriod.
type ToggleResult string

const (
	PeriodStarted ToggleResult = "started"
	PeriodEnded   ToggleResult = "ended"
	PeriodResumed ToggleResult = "resumed"
)

// Message is the user-facing text for the result.
func (r ToggleResult) Message() string {
	switch r {
	case PeriodStarted:
		return "Period started"
	case PeriodEnded:
		return "Period ended"
	case PeriodResumed:
		return "Period resumed"
	default:
		return string(r)
	}
}

// ToggleOutcome reports what TogglePeriod did and to which cycle.
type ToggleOutcome struct {
	Result ToggleResult
	Cycle  Cycle
}

// Repository wraps a Store with the period logging flows.
type Repository struct {
	store Store
	mu    sync.Mutex
}

// NewRepository creates a repository over store.
func NewRepository(store Store) *Repository {
	return &Repository{store: store}
}

// Store returns the underlying store.
func (r *Repository) Store() Store { return r.store }

// =============================================================================
// PASS-THROUGH OPERATIONS
// =============================================================================

func (r *Repository) Insert(ctx context.Context, c Cycle) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	return r.store.Insert(ctx, c)
}

func (r *Repository) Update(ctx context.Context, c Cycle) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return r.store.Update(ctx, c)
}

func (r *Repository) ListAll(ctx context.Context) ([]Cycle, error) {
	return r.store.ListAll(ctx)
}

func (r *Repository) ListInRange(ctx context.Context, from, to Day) ([]Cycle, error) {
	if to < from {
		return nil, &InvalidPeriodError{Start: from, End: to}
	}
	return r.store.ListInRange(ctx, from, to)
}

func (r *Repository) CycleForDate(ctx context.Context, day Day) (*Cycle, error) {
	return r.store.CycleForDate(ctx, day)
}

func (r *Repository) Observe(ctx context.Context) *Subscription {
	return r.store.Observe(ctx)
}

func (r *Repository) ObserveRange(ctx context.Context, from, to Day) *Subscription {
	return r.store.ObserveRange(ctx, from, to)
}

// =============================================================================
// PERIOD FLOWS
// =============================================================================

// LogPeriod records a completed period.
func (r *Repository) LogPeriod(ctx context.Context, start, end Day) (Cycle, error) {
	c := Cycle{StartDate: start, EndDate: end.Ptr()}
	if err := c.Validate(); err != nil {
		return Cycle{}, err
	}

	id, err := r.store.Insert(ctx, c)
	if err != nil {
		return Cycle{}, fmt.Errorf("log period: %w", err)
	}
	c.ID = id

	log.Debug().Int64("cycle_id", id).Stringer("start", start).Stringer("end", end).Msg("period logged")
	return c, nil
}

// StartPeriod opens a new cycle on day.
func (r *Repository) StartPeriod(ctx context.Context, day Day) (Cycle, error) {
	c := Cycle{StartDate: day}
	id, err := r.store.Insert(ctx, c)
	if err != nil {
		return Cycle{}, fmt.Errorf("start period: %w", err)
	}
	c.ID = id
	return c, nil
}

// TogglePeriod starts, ends or resumes the current period for today.
func (r *Repository) TogglePeriod(ctx context.Context, today Day) (ToggleOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cycles, err := r.store.ListAll(ctx)
	if err != nil {
		return ToggleOutcome{}, fmt.Errorf("toggle period: %w", err)
	}

	latest := Latest(cycles)
	var out ToggleOutcome

	switch {
	case latest != nil && latest.IsOpen():
		if today < latest.StartDate {
			return ToggleOutcome{}, &InvalidPeriodError{Start: latest.StartDate, End: today}
		}
		out.Result = PeriodEnded
		out.Cycle = latest.WithEnd(today.Ptr())
		err = r.store.Update(ctx, out.Cycle)

	case latest != nil && latest.EndedOn(today):
		out.Result = PeriodResumed
		out.Cycle = latest.WithEnd(nil)
		err = r.store.Update(ctx, out.Cycle)

	default:
		out.Result = PeriodStarted
		out.Cycle = Cycle{StartDate: today}
		out.Cycle.ID, err = r.store.Insert(ctx, out.Cycle)
	}
	if err != nil {
		return ToggleOutcome{}, fmt.Errorf("toggle period (%s): %w", out.Result, err)
	}

	log.Info().
		Str("result", string(out.Result)).
		Int64("cycle_id", out.Cycle.ID).
		Stringer("day", today).
		Msg(out.Result.Message())

	return out, nil
}
