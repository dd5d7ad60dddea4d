package metrics

import (
	"context"
	"time"

	"github.com/lunarlog/cycle-engine/cycle"
)

// Store decorates a cycle.Store with operation counters and an observer
// gauge.
type Store struct {
	next    cycle.Store
	metrics *Metrics
}

var _ cycle.Store = (*Store)(nil)

// InstrumentStore wraps next. With a nil m it returns next unchanged.
func InstrumentStore(next cycle.Store, m *Metrics) cycle.Store {
	if m == nil {
		return next
	}
	return &Store{next: next, metrics: m}
}

func (s *Store) Insert(ctx context.Context, c cycle.Cycle) (int64, error) {
	start := time.Now()
	id, err := s.next.Insert(ctx, c)
	s.metrics.StoreOp("insert", err, time.Since(start))
	return id, err
}

func (s *Store) Update(ctx context.Context, c cycle.Cycle) error {
	start := time.Now()
	err := s.next.Update(ctx, c)
	s.metrics.StoreOp("update", err, time.Since(start))
	return err
}

func (s *Store) ListAll(ctx context.Context) ([]cycle.Cycle, error) {
	start := time.Now()
	cycles, err := s.next.ListAll(ctx)
	s.metrics.StoreOp("list_all", err, time.Since(start))
	return cycles, err
}

func (s *Store) ListInRange(ctx context.Context, from, to cycle.Day) ([]cycle.Cycle, error) {
	start := time.Now()
	cycles, err := s.next.ListInRange(ctx, from, to)
	s.metrics.StoreOp("list_in_range", err, time.Since(start))
	return cycles, err
}

func (s *Store) CycleForDate(ctx context.Context, day cycle.Day) (*cycle.Cycle, error) {
	start := time.Now()
	c, err := s.next.CycleForDate(ctx, day)
	s.metrics.StoreOp("cycle_for_date", err, time.Since(start))
	return c, err
}

func (s *Store) ReplaceAll(ctx context.Context, cycles []cycle.Cycle) error {
	start := time.Now()
	err := s.next.ReplaceAll(ctx, cycles)
	s.metrics.StoreOp("replace_all", err, time.Since(start))
	return err
}

func (s *Store) Observe(ctx context.Context) *cycle.Subscription {
	return s.track(s.next.Observe(ctx))
}

func (s *Store) ObserveRange(ctx context.Context, from, to cycle.Day) *cycle.Subscription {
	return s.track(s.next.ObserveRange(ctx, from, to))
}

func (s *Store) track(sub *cycle.Subscription) *cycle.Subscription {
	s.metrics.ObserverOpened()
	go func() {
		<-sub.Done()
		s.metrics.ObserverClosed()
	}()
	return sub
}
