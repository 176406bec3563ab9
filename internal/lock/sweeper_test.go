package lock

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestSweepEvictsStaleAndNotifiesOncePerSeat(t *testing.T) {
	tb := NewTable(5 * time.Minute)
	n := &recordingNotifier{}
	s := NewSweeper(tb, n, time.Minute)

	tb.TryAcquire("e1", "s1", "alice", t0)
	tb.TryAcquire("e1", "s2", "bob", t0)
	tb.TryAcquire("e2", "s1", "carol", t0.Add(4*time.Minute))

	if got := s.Sweep(t0.Add(5*time.Minute + time.Second)); got != 2 {
		t.Fatalf("sweep evicted %d, want 2", got)
	}
	if len(n.unlocked) != 2 {
		t.Fatalf("seatUnlocked broadcasts = %v, want exactly one per evicted seat", n.unlocked)
	}
	counts := map[[2]string]int{}
	for _, k := range n.unlocked {
		counts[k]++
	}
	if counts[[2]string{"e1", "s1"}] != 1 || counts[[2]string{"e1", "s2"}] != 1 {
		t.Fatalf("unexpected broadcast set: %v", n.unlocked)
	}

	// The live lock survived and a repeat sweep is quiet.
	if _, ok := tb.Holder("e2", "s1", t0.Add(5*time.Minute+time.Second)); !ok {
		t.Fatal("live lock was swept")
	}
	if got := s.Sweep(t0.Add(5*time.Minute + 2*time.Second)); got != 0 {
		t.Fatalf("second sweep evicted %d", got)
	}
}

func TestSweeperStartStop(t *testing.T) {
	tb := NewTable(5 * time.Minute)
	s := NewSweeper(tb, &recordingNotifier{}, 10*time.Millisecond)
	s.Start()
	time.Sleep(30 * time.Millisecond)
	s.Stop() // must not hang or panic
}

// TestSweepRacesAcquire hammers a seat with renewals while sweeping at a
// time that would expire the original lock.  The table mutex serializes
// everything, so an acquire and an eviction can never both win: a claimant
// that was granted the seat after the sweep decision must not be told the
// seat was unlocked afterwards.
func TestSweepRacesAcquire(t *testing.T) {
	tb := NewTable(50 * time.Millisecond)
	n := &recordingNotifier{}
	co := NewCoordinator(tb, n)
	s := NewSweeper(tb, n, time.Hour) // ticked manually

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			claimant := fmt.Sprintf("user-%d", i)
			for j := 0; j < 100; j++ {
				now := time.Now().UTC()
				if co.LockSeat("e1", "s1", claimant, now).Granted {
					co.UnlockSeat("e1", "s1", claimant, time.Now().UTC())
				}
			}
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 200; j++ {
			s.Sweep(time.Now().UTC())
		}
	}()
	wg.Wait()

	// Whatever interleaving happened, the table must end consistent: after
	// a final eviction past the TTL, no holder remains.
	s.Sweep(time.Now().UTC().Add(time.Second))
	if holder, ok := tb.Holder("e1", "s1", time.Now().UTC()); ok {
		t.Fatalf("holder %q survived final sweep", holder)
	}
}
