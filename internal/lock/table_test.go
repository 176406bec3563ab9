package lock

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestTryAcquireOutcomes(t *testing.T) {
	tests := []struct {
		name  string
		setup func(tb *Table)
		at    time.Time
		claim string
		want  Outcome
	}{
		{
			name:  "free seat is acquired",
			setup: func(tb *Table) {},
			at:    t0,
			claim: "alice",
			want:  Acquired,
		},
		{
			name: "live lock by another claimant conflicts",
			setup: func(tb *Table) {
				tb.TryAcquire("e1", "s1", "alice", t0)
			},
			at:    t0.Add(time.Minute),
			claim: "bob",
			want:  Conflict,
		},
		{
			name: "live lock by same claimant renews",
			setup: func(tb *Table) {
				tb.TryAcquire("e1", "s1", "alice", t0)
			},
			at:    t0.Add(time.Minute),
			claim: "alice",
			want:  Renewed,
		},
		{
			name: "expired lock is overwritten regardless of claimant",
			setup: func(tb *Table) {
				tb.TryAcquire("e1", "s1", "alice", t0)
			},
			at:    t0.Add(5*time.Minute + time.Second),
			claim: "bob",
			want:  Acquired,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tb := NewTable(5 * time.Minute)
			tc.setup(tb)
			if got := tb.TryAcquire("e1", "s1", tc.claim, tc.at); got != tc.want {
				t.Fatalf("TryAcquire = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRenewalRefreshesTimestamp(t *testing.T) {
	tb := NewTable(5 * time.Minute)
	tb.TryAcquire("e1", "s1", "alice", t0)
	// Renew 4 minutes in; without the refresh the lock would expire at t0+5m.
	if got := tb.TryAcquire("e1", "s1", "alice", t0.Add(4*time.Minute)); got != Renewed {
		t.Fatalf("renewal = %v, want Renewed", got)
	}
	if _, ok := tb.Holder("e1", "s1", t0.Add(8*time.Minute)); !ok {
		t.Fatal("lock should still be active 4 minutes after renewal")
	}
	if _, ok := tb.Holder("e1", "s1", t0.Add(9*time.Minute+time.Second)); ok {
		t.Fatal("lock should have expired 5 minutes after renewal")
	}
}

func TestSnapshotActiveFiltersExpired(t *testing.T) {
	tb := NewTable(5 * time.Minute)
	tb.TryAcquire("e1", "s1", "alice", t0)
	tb.TryAcquire("e1", "s2", "bob", t0.Add(3*time.Minute))
	tb.TryAcquire("e2", "s1", "carol", t0)

	// At t0+4m both e1 locks are live even though no sweep has run.
	snap := tb.SnapshotActive("e1", t0.Add(4*time.Minute))
	if len(snap) != 2 || snap["s1"] != "alice" || snap["s2"] != "bob" {
		t.Fatalf("snapshot at +4m = %v", snap)
	}

	// At t0+6m alice's lock is past TTL and must be invisible, physical
	// cleanup or not. bob's (acquired at +3m) is still live.
	snap = tb.SnapshotActive("e1", t0.Add(6*time.Minute))
	if len(snap) != 1 || snap["s2"] != "bob" {
		t.Fatalf("snapshot at +6m = %v", snap)
	}

	// Snapshots are scoped to one event.
	if snap := tb.SnapshotActive("e2", t0.Add(time.Minute)); len(snap) != 1 || snap["s1"] != "carol" {
		t.Fatalf("snapshot of e2 = %v", snap)
	}
	if snap := tb.SnapshotActive("nope", t0); len(snap) != 0 {
		t.Fatalf("snapshot of unknown event = %v", snap)
	}
}

func TestRelease(t *testing.T) {
	tests := []struct {
		name    string
		claim   string
		at      time.Time
		removed bool
	}{
		{"holder releases", "alice", t0.Add(time.Minute), true},
		{"non-holder cannot release live lock", "bob", t0.Add(time.Minute), false},
		{"empty claimant forces release", "", t0.Add(time.Minute), true},
		{"anyone clears an expired lock", "bob", t0.Add(6 * time.Minute), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tb := NewTable(5 * time.Minute)
			tb.TryAcquire("e1", "s1", "alice", t0)
			if got := tb.Release("e1", "s1", tc.claim, tc.at); got != tc.removed {
				t.Fatalf("Release = %v, want %v", got, tc.removed)
			}
			_, held := tb.Holder("e1", "s1", tc.at)
			if held == tc.removed {
				t.Fatalf("holder present = %v after removal = %v", held, tc.removed)
			}
		})
	}

	t.Run("absent lock is a no-op", func(t *testing.T) {
		tb := NewTable(5 * time.Minute)
		if tb.Release("e1", "s1", "alice", t0) {
			t.Fatal("release of absent lock reported a removal")
		}
	})
}

func TestEvictExpired(t *testing.T) {
	tb := NewTable(5 * time.Minute)
	tb.TryAcquire("e1", "s1", "alice", t0)
	tb.TryAcquire("e1", "s2", "bob", t0.Add(2*time.Minute))
	tb.TryAcquire("e2", "s9", "carol", t0)

	removed := tb.EvictExpired(t0.Add(5*time.Minute + time.Second))
	if len(removed) != 2 {
		t.Fatalf("evicted %d locks, want 2: %v", len(removed), removed)
	}
	seen := map[ExpiredLock]bool{}
	for _, k := range removed {
		seen[k] = true
	}
	if !seen[ExpiredLock{"e1", "s1"}] || !seen[ExpiredLock{"e2", "s9"}] {
		t.Fatalf("unexpected eviction set: %v", removed)
	}
	if _, ok := tb.Holder("e1", "s2", t0.Add(5*time.Minute+time.Second)); !ok {
		t.Fatal("live lock was evicted")
	}
	// A second pass at the same instant finds nothing left to do.
	if again := tb.EvictExpired(t0.Add(5*time.Minute + time.Second)); len(again) != 0 {
		t.Fatalf("second eviction removed %v", again)
	}
}

// TestMutualExclusion fires many goroutines at the same seat; exactly one
// may win while the rest see a conflict.
func TestMutualExclusion(t *testing.T) {
	tb := NewTable(5 * time.Minute)
	const n = 64
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out := tb.TryAcquire("e1", "s1", fmt.Sprintf("user-%d", i), t0)
			if out == Acquired {
				mu.Lock()
				wins++
				mu.Unlock()
			} else if out != Conflict {
				t.Errorf("unexpected outcome %v", out)
			}
		}(i)
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("%d claimants acquired the same seat", wins)
	}
}
