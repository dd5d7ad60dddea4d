// Package cycle implements the cycle tracking domain: the Cycle record, the
// Store contract, table invalidation and the repository flows built on top.
package cycle

import (
	"fmt"
	"time"
)

// =============================================================================
// DAY - Epoch day (days since 1970-01-01 UTC)
// =============================================================================

// Day is a calendar day stored as an epoch day.
type Day int64

const dayLayout = "2006-01-02"

// DayFromTime truncates t to its calendar day in t's location.
func DayFromTime(t time.Time) Day {
	y, m, d := t.Date()
	utc := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return Day(utc.Unix() / 86400)
}

// NewDay builds a Day from a calendar date.
func NewDay(year int, month time.Month, day int) Day {
	return DayFromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// Today returns the current day in the local time zone.
func Today() Day {
	return DayFromTime(time.Now())
}

// ParseDay parses an ISO date (YYYY-MM-DD).
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DayFromTime(t), nil
}

// Time returns midnight UTC of the day.
func (d Day) Time() time.Time       { return time.Unix(int64(d)*86400, 0).UTC() }
func (d Day) String() string        { return d.Time().Format(dayLayout) }
func (d Day) AddDays(n int) Day     { return d + Day(n) }
func (d Day) Before(other Day) bool { return d < other }
func (d Day) After(other Day) bool  { return d > other }
func (d Day) Ptr() *Day             { return &d }

// DaysBetween returns to - from in days.
func DaysBetween(from, to Day) int { return int(to - from) }

// =============================================================================
// CYCLE
// =============================================================================

// Cycle is one tracked menstrual cycle. EndDate is nil while the period is
// still ongoing.
type Cycle struct {
	ID        int64
	StartDate Day
	EndDate   *Day
}

// IsOpen reports whether the cycle has no end date yet.
func (c Cycle) IsOpen() bool { return c.EndDate == nil }

// EndedOn reports whether the cycle has an end date equal to day.
func (c Cycle) EndedOn(day Day) bool { return c.EndDate != nil && *c.EndDate == day }

// Validate checks that a present end date does not precede the start date.
func (c Cycle) Validate() error {
	if c.ID < 0 {
		return fmt.Errorf("%w: negative id %d", ErrInvalidCycle, c.ID)
	}
	if c.EndDate != nil && *c.EndDate < c.StartDate {
		return &InvalidPeriodError{Start: c.StartDate, End: *c.EndDate}
	}
	return nil
}

// WithEnd returns a copy of c with the given end date (nil clears it).
func (c Cycle) WithEnd(end *Day) Cycle {
	if end != nil {
		e := *end
		end = &e
	}
	c.EndDate = end
	return c
}

// Latest returns the cycle with the greatest start date, or nil.
func Latest(cycles []Cycle) *Cycle {
	var latest *Cycle
	for i := range cycles {
		if latest == nil || cycles[i].StartDate > latest.StartDate {
			latest = &cycles[i]
		}
	}
	return latest
}

// Overlaps reports whether the cycle touches the inclusive range [from, to].
// An open cycle extends indefinitely.
func (c Cycle) Overlaps(from, to Day) bool {
	if c.StartDate > to {
		return false
	}
	return c.EndDate == nil || *c.EndDate >= from
}
