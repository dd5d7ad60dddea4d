package reminders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/lunarlog/cycle-engine/cycle"
	"github.com/lunarlog/cycle-engine/metrics"
)

// DefaultSchedule runs the check every day at 08:00 local time.
const DefaultSchedule = "0 8 * * *"

// CycleLister is the read access the scheduler needs.
type CycleLister interface {
	ListAll(ctx context.Context) ([]cycle.Cycle, error)
}

// Scheduler runs the daily reminder check.
type Scheduler struct {
	cycles   CycleLister
	ledger   Ledger
	notifier Notifier
	metrics  *metrics.Metrics
	now      func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// NewScheduler creates a scheduler. m may be nil.
func NewScheduler(cycles CycleLister, ledger Ledger, notifier Notifier, m *metrics.Metrics) *Scheduler {
	return &Scheduler{
		cycles:   cycles,
		ledger:   ledger,
		notifier: notifier,
		metrics:  m,
		now:      time.Now,
	}
}

// Start schedules the check on spec (standard 5-field cron syntax).
func (s *Scheduler) Start(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return fmt.Errorf("reminder scheduler already started")
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, s.tick); err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	c.Start()
	s.cron = c

	log.Info().Str("schedule", spec).Msg("[Reminders] Started")
	return nil
}

// Stop halts the schedule and waits for a running check to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
	log.Info().Msg("[Reminders] Stopped")
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := s.RunOnce(ctx, cycle.DayFromTime(s.now())); err != nil {
		log.Error().Err(err).Msg("[Reminders] Check failed")
	}
}

// RunOnce delivers every reminder due on today that has not been sent yet.
// It returns the reminders delivered by this call. Each reminder is claimed
// in the ledger before delivery, so overlapping runs sharing a ledger send
// it once.
func (s *Scheduler) RunOnce(ctx context.Context, today cycle.Day) ([]Reminder, error) {
	cycles, err := s.cycles.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cycles: %w", err)
	}

	var delivered []Reminder
	for _, r := range Due(cycles, today) {
		claimed, err := s.ledger.RecordReminder(ctx, string(r.Kind), r.Target, s.now())
		if err != nil {
			return delivered, fmt.Errorf("record reminder %s: %w", r.Kind, err)
		}
		if !claimed {
			log.Debug().Str("kind", string(r.Kind)).Stringer("target", r.Target).Msg("[Reminders] Already sent")
			continue
		}

		if err := s.notifier.Notify(ctx, r); err != nil {
			if ferr := s.ledger.ForgetReminder(ctx, string(r.Kind), r.Target); ferr != nil {
				log.Error().Err(ferr).Str("kind", string(r.Kind)).Msg("[Reminders] Release claim")
			}
			return delivered, fmt.Errorf("deliver reminder %s: %w", r.Kind, err)
		}

		s.metrics.ReminderSent(string(r.Kind))
		delivered = append(delivered, r)
	}

	return delivered, nil
}

// =============================================================================
// MEMORY LEDGER
// =============================================================================

// MemoryLedger is an in-process Ledger.
type MemoryLedger struct {
	mu   sync.Mutex
	sent map[ledgerKey]time.Time
}

type ledgerKey struct {
	kind string
	day  cycle.Day
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{sent: make(map[ledgerKey]time.Time)}
}

func (l *MemoryLedger) RecordReminder(_ context.Context, kind string, targetDay cycle.Day, sentAt time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := ledgerKey{kind, targetDay}
	if _, ok := l.sent[k]; ok {
		return false, nil
	}
	l.sent[k] = sentAt
	return true, nil
}

func (l *MemoryLedger) ForgetReminder(_ context.Context, kind string, targetDay cycle.Day) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.sent, ledgerKey{kind, targetDay})
	return nil
}
