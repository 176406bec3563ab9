package lock

import (
	"sync"
	"testing"
	"time"
)

// recordingNotifier captures broadcasts so tests can assert on fan-out
// without any transport in the loop.
type recordingNotifier struct {
	mu       sync.Mutex
	locked   [][3]string // event, seat, claimant
	unlocked [][2]string // event, seat
}

func (n *recordingNotifier) SeatLocked(eventID, seatID, claimantID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.locked = append(n.locked, [3]string{eventID, seatID, claimantID})
}

func (n *recordingNotifier) SeatUnlocked(eventID, seatID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.unlocked = append(n.unlocked, [2]string{eventID, seatID})
}

func (n *recordingNotifier) counts() (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.locked), len(n.unlocked)
}

func newTestCoordinator(ttl time.Duration) (*Coordinator, *recordingNotifier) {
	n := &recordingNotifier{}
	return NewCoordinator(NewTable(ttl), n), n
}

func TestLockSeatValidation(t *testing.T) {
	tests := []struct {
		name                  string
		event, seat, claimant string
	}{
		{"missing event", "", "s1", "alice"},
		{"missing seat", "e1", "", "alice"},
		{"missing claimant", "e1", "s1", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			co, n := newTestCoordinator(5 * time.Minute)
			res := co.LockSeat(tc.event, tc.seat, tc.claimant, t0)
			if res.Granted || res.Reason != ReasonInvalid {
				t.Fatalf("result = %+v, want invalid-request denial", res)
			}
			if locked, unlocked := n.counts(); locked != 0 || unlocked != 0 {
				t.Fatal("validation failure must not broadcast")
			}
		})
	}
}

func TestLockSeatGrantBroadcastsOnce(t *testing.T) {
	co, n := newTestCoordinator(5 * time.Minute)

	res := co.LockSeat("e1", "s1", "alice", t0)
	if !res.Granted {
		t.Fatalf("first claim denied: %+v", res)
	}
	if len(n.locked) != 1 || n.locked[0] != [3]string{"e1", "s1", "alice"} {
		t.Fatalf("seatLocked broadcasts = %v", n.locked)
	}

	// Heartbeat renewal: granted, timestamp refreshed, silent.
	res = co.LockSeat("e1", "s1", "alice", t0.Add(time.Minute))
	if !res.Granted {
		t.Fatalf("renewal denied: %+v", res)
	}
	if locked, _ := n.counts(); locked != 1 {
		t.Fatalf("renewal broadcast seatLocked, total = %d", locked)
	}
}

func TestLockSeatConflict(t *testing.T) {
	co, n := newTestCoordinator(5 * time.Minute)
	co.LockSeat("e1", "s1", "alice", t0)

	res := co.LockSeat("e1", "s1", "bob", t0.Add(time.Minute))
	if res.Granted || res.Reason != ReasonConflict {
		t.Fatalf("result = %+v, want already-locked denial", res)
	}
	if locked, unlocked := n.counts(); locked != 1 || unlocked != 0 {
		t.Fatal("conflict must not broadcast")
	}

	// Past the TTL the old lock is treated as absent and bob wins.
	res = co.LockSeat("e1", "s1", "bob", t0.Add(6*time.Minute))
	if !res.Granted {
		t.Fatalf("claim on expired lock denied: %+v", res)
	}
	if len(n.locked) != 2 || n.locked[1] != [3]string{"e1", "s1", "bob"} {
		t.Fatalf("seatLocked broadcasts = %v", n.locked)
	}
}

func TestUnlockSeat(t *testing.T) {
	tests := []struct {
		name     string
		claimant string
		at       time.Time
		unlocked bool
	}{
		{"holder unlocks", "alice", t0.Add(time.Minute), true},
		{"non-holder is a no-op on a live lock", "bob", t0.Add(time.Minute), false},
		{"forced unlock with empty claimant", "", t0.Add(time.Minute), true},
		{"anyone clears an expired lock, broadcast still sent", "bob", t0.Add(6 * time.Minute), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			co, n := newTestCoordinator(5 * time.Minute)
			co.LockSeat("e1", "s1", "alice", t0)

			co.UnlockSeat("e1", "s1", tc.claimant, tc.at)
			_, unlockCount := n.counts()
			if tc.unlocked {
				if unlockCount != 1 || n.unlocked[0] != [2]string{"e1", "s1"} {
					t.Fatalf("seatUnlocked broadcasts = %v", n.unlocked)
				}
				if _, held := co.Table().Holder("e1", "s1", tc.at); held {
					t.Fatal("lock still present after unlock")
				}
			} else {
				if unlockCount != 0 {
					t.Fatalf("no-op unlock broadcast seatUnlocked: %v", n.unlocked)
				}
				if !co.HoldsSeat("e1", "s1", "alice", tc.at) {
					t.Fatal("lock vanished after denied unlock")
				}
			}
		})
	}

	t.Run("absent lock is silent", func(t *testing.T) {
		co, n := newTestCoordinator(5 * time.Minute)
		co.UnlockSeat("e1", "s1", "alice", t0)
		if _, unlocked := n.counts(); unlocked != 0 {
			t.Fatal("unlock of absent seat broadcast")
		}
	})
}

// TestContentionScenario walks the documented A/B contention sequence.
func TestContentionScenario(t *testing.T) {
	co, n := newTestCoordinator(5 * time.Minute)

	if res := co.LockSeat("E1", "3", "A", t0); !res.Granted {
		t.Fatalf("t=0: A denied: %+v", res)
	}
	if len(n.locked) != 1 || n.locked[0] != [3]string{"E1", "3", "A"} {
		t.Fatalf("t=0: broadcasts = %v", n.locked)
	}

	if res := co.LockSeat("E1", "3", "B", t0.Add(60*time.Second)); res.Granted || res.Reason != ReasonConflict {
		t.Fatalf("t=60s: B result = %+v, want already-locked", res)
	}

	co.UnlockSeat("E1", "3", "A", t0.Add(90*time.Second))
	if len(n.unlocked) != 1 || n.unlocked[0] != [2]string{"E1", "3"} {
		t.Fatalf("t=90s: broadcasts = %v", n.unlocked)
	}

	if res := co.LockSeat("E1", "3", "B", t0.Add(91*time.Second)); !res.Granted {
		t.Fatalf("t=91s: B denied after release: %+v", res)
	}
}

// TestLateJoinSnapshot: a lock acquired at t=0 and never renewed must be
// invisible to a join at t=301s even though no sweep has run.
func TestLateJoinSnapshot(t *testing.T) {
	tb := NewTable(5 * time.Minute)
	n := &recordingNotifier{}
	co := NewCoordinator(tb, n)

	acquired := time.Now().UTC().Add(-301 * time.Second)
	if out := tb.TryAcquire("E1", "7", "A", acquired); out != Acquired {
		t.Fatalf("seed acquire = %v", out)
	}

	snap := co.JoinEvent("E1")
	if _, present := snap["7"]; present {
		t.Fatalf("expired seat 7 leaked into join snapshot: %v", snap)
	}
}

func TestHoldsSeat(t *testing.T) {
	co, _ := newTestCoordinator(5 * time.Minute)
	co.LockSeat("e1", "s1", "alice", t0)

	if !co.HoldsSeat("e1", "s1", "alice", t0.Add(time.Minute)) {
		t.Fatal("holder not recognized")
	}
	if co.HoldsSeat("e1", "s1", "bob", t0.Add(time.Minute)) {
		t.Fatal("non-holder recognized as holder")
	}
	if co.HoldsSeat("e1", "s1", "alice", t0.Add(6*time.Minute)) {
		t.Fatal("expired lock still counts as held")
	}
}
