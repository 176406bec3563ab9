package lock

import (
	"log"
	"time"
)

// Sweeper periodically evicts expired locks from the table and broadcasts
// one seatUnlocked per removed seat.  Eviction and client-triggered
// operations serialize on the table's mutex, so a sweep can never race a
// concurrent acquire into announcing an unlock for a seat that was just
// re-locked: EvictExpired decides under the lock, and only seats it really
// removed are announced.
type Sweeper struct {
	table    *Table
	notifier Notifier
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewSweeper builds a sweeper over the given table.  A non-positive
// interval falls back to DefaultSweepInterval.
func NewSweeper(table *Table, notifier Notifier, interval time.Duration) *Sweeper {
	if table == nil || notifier == nil {
		panic("nil table or notifier passed to NewSweeper")
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		table:    table,
		notifier: notifier,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop in its own goroutine.  Call Stop to end it.
func (s *Sweeper) Start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				s.Sweep(now.UTC())
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop ends the sweep loop and waits for it to exit.  Safe to call once.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

// Sweep evicts every lock expired at the given time and notifies the
// event topics of the freed seats.  It returns the number of evictions.
// Exposed so tests and administrative tooling can force a pass without
// waiting for the ticker.
func (s *Sweeper) Sweep(now time.Time) int {
	removed := s.table.EvictExpired(now)
	for _, k := range removed {
		s.notifier.SeatUnlocked(k.EventID, k.SeatID)
	}
	if len(removed) > 0 {
		log.Printf("sweeper: evicted %d expired seat lock(s)", len(removed))
	}
	return len(removed)
}
