package cycle

import (
	"context"
	"sync"
)

// QueryFunc produces one snapshot for a subscription.
type QueryFunc func(ctx context.Context) ([]Cycle, error)

// Subscription is a live, re-evaluated sequence of cycle snapshots.
// C is closed when the subscription ends; Err reports a query failure that
// ended it (nil after a normal cancel or Close).
type Subscription struct {
	C <-chan []Cycle

	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Observe starts a subscription that runs query once immediately and again
// after every invalidation of the cycles table. Registration with the
// tracker happens before the first query so no commit can slip between
// the initial snapshot and the first wait.
func Observe(ctx context.Context, tracker *InvalidationTracker, query QueryFunc) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan []Cycle)
	sub := &Subscription{C: out, cancel: cancel, done: make(chan struct{})}

	signal, unsubscribe := tracker.Subscribe(TableCycles)

	go func() {
		defer close(sub.done)
		defer close(out)
		defer unsubscribe()

		for {
			rows, err := query(ctx)
			if err != nil {
				if ctx.Err() == nil {
					sub.setErr(err)
				}
				return
			}

			select {
			case out <- rows:
			case <-ctx.Done():
				return
			}

			select {
			case <-signal:
			case <-ctx.Done():
				return
			}
		}
	}()

	return sub
}

// Close stops the subscription and waits for its goroutine to exit.
func (s *Subscription) Close() {
	s.cancel()
	<-s.done
}

// Done is closed once the subscription has fully stopped.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Err returns the query error that terminated the stream, if any.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}
