/*
Package reminders sends cycle notifications on a schedule.

PURPOSE:
  Once a day, look at the cycle history and notify the user when:
  - the next period is predicted to start in LeadDays (2) days
  - the fertile window starts today

DESIGN:
  - Due is pure: cycles + today -> due reminders
  - Scheduler runs Due on a cron expression (default "0 8 * * *")
  - Every delivery is claimed in a Ledger keyed by (kind, target day)
    before it is sent, so a restart or an overlapping run never re-sends.
    A failed delivery releases its claim.

USAGE:
  s := reminders.NewScheduler(repo, sqliteStore, reminders.LogNotifier{}, m)
  if err := s.Start("0 8 * * *"); err != nil { ... }
  defer s.Stop()

SEE ALSO:
  - prediction/predict.go: NextPeriod, FertileWindow
  - store/sqlite/sqlite.go: RecordReminder, ForgetReminder
*/
package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lunarlog/cycle-engine/cycle"
	"github.com/lunarlog/cycle-engine/prediction"
)

// Kind identifies a reminder type.
type Kind string

const (
	KindPeriodDue     Kind = "period_due"
	KindFertileWindow Kind = "fertile_window"
)

// LeadDays is how far ahead of the predicted period the reminder fires.
const LeadDays = 2

// Reminder is one notification to deliver.
type Reminder struct {
	Kind    Kind
	Target  cycle.Day // predicted period start or fertile window start
	Title   string
	Message string
}

// Due returns the reminders that should fire on today.
func Due(cycles []cycle.Cycle, today cycle.Day) []Reminder {
	forecast, ok := prediction.Predict(cycles)
	if !ok {
		return nil
	}

	var due []Reminder
	if today.AddDays(LeadDays) == forecast.NextPeriod {
		due = append(due, Reminder{
			Kind:    KindPeriodDue,
			Target:  forecast.NextPeriod,
			Title:   "Cycle Update",
			Message: fmt.Sprintf("Your period is predicted to start in %d days.", LeadDays),
		})
	}
	if today == forecast.Fertile.Start {
		due = append(due, Reminder{
			Kind:    KindFertileWindow,
			Target:  forecast.Fertile.Start,
			Title:   "Cycle Update",
			Message: "Your fertile window starts today.",
		})
	}
	return due
}

// =============================================================================
// DELIVERY
// =============================================================================

// Notifier delivers a reminder to the user.
type Notifier interface {
	Notify(ctx context.Context, r Reminder) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, r Reminder) error

func (f NotifierFunc) Notify(ctx context.Context, r Reminder) error { return f(ctx, r) }

// LogNotifier writes reminders to the structured log.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, r Reminder) error {
	log.Info().
		Str("kind", string(r.Kind)).
		Stringer("target", r.Target).
		Str("title", r.Title).
		Msg(r.Message)
	return nil
}

// Ledger remembers which reminders were delivered. RecordReminder is the
// claim: it must report false when the kind is already recorded for
// targetDay. ForgetReminder releases a claim whose delivery failed.
type Ledger interface {
	RecordReminder(ctx context.Context, kind string, targetDay cycle.Day, sentAt time.Time) (bool, error)
	ForgetReminder(ctx context.Context, kind string, targetDay cycle.Day) error
}
