// Package lock implements the in-memory seat lock engine.  A seat lock is a
// temporary exclusive claim on one seat of one event, held by one user while
// they decide whether to buy.  Locks expire automatically after a fixed TTL
// unless renewed, are never persisted, and are lost on process restart.  The
// lock table is the only shared mutable state in the engine; every read and
// mutation goes through its mutex so that the coordinator and the expiry
// sweeper never observe a half-written entry.
package lock

import (
	"sync"
	"time"
)

// DefaultTTL is how long an unrenewed seat lock stays valid.
const DefaultTTL = 5 * time.Minute

// DefaultSweepInterval is how often the sweeper scans for expired locks.
// Expiry detection latency is bounded by this interval, but snapshots apply
// the TTL rule at read time so expired locks are never visible even before
// the next sweep.
const DefaultSweepInterval = 60 * time.Second

// SeatLock records the current claim on a single seat.
//
// Fields:
//  ClaimantID – user holding the claim.
//  AcquiredAt – time of the most recent acquisition or renewal.
type SeatLock struct {
	ClaimantID string
	AcquiredAt time.Time
}

// Outcome describes the result of a TryAcquire call.
type Outcome int

const (
	// Acquired means the seat had no active lock and a new one was created.
	Acquired Outcome = iota
	// Renewed means the caller already held the seat; the timestamp was
	// refreshed and no state transition visible to other users occurred.
	Renewed
	// Conflict means another user holds an active lock on the seat.
	Conflict
)

// ExpiredLock identifies a lock removed by EvictExpired.
type ExpiredLock struct {
	EventID string
	SeatID  string
}

// Table maps eventID -> seatID -> SeatLock.  At most one lock exists per
// (event, seat) pair at any instant; a lock is active iff now-AcquiredAt is
// within the TTL, and an expired lock is treated exactly like an absent one
// regardless of whether the sweeper has physically removed it yet.
type Table struct {
	mu    sync.Mutex
	ttl   time.Duration
	locks map[string]map[string]SeatLock
}

// NewTable returns an empty table with the given TTL.  A non-positive ttl
// falls back to DefaultTTL.
func NewTable(ttl time.Duration) *Table {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Table{
		ttl:   ttl,
		locks: make(map[string]map[string]SeatLock),
	}
}

// TTL returns the configured lock lifetime.
func (t *Table) TTL() time.Duration { return t.ttl }

// active reports whether a lock is still within its TTL at the given time.
func (t *Table) active(l SeatLock, now time.Time) bool {
	return now.Sub(l.AcquiredAt) <= t.ttl
}

// SnapshotActive returns seatID -> claimantID for every lock of the event
// that is active at the given time.  Physically present but expired entries
// are filtered out, so a snapshot taken between sweeps never leaks stale
// claims.  The returned map is a copy; callers may mutate it freely.
func (t *Table) SnapshotActive(eventID string, now time.Time) map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()

	seats := t.locks[eventID]
	snap := make(map[string]string, len(seats))
	for seatID, l := range seats {
		if t.active(l, now) {
			snap[seatID] = l.ClaimantID
		}
	}
	return snap
}

// Holder returns the claimant of the seat's active lock, or false when the
// seat is unlocked or the lock has expired.
func (t *Table) Holder(eventID, seatID string, now time.Time) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.locks[eventID][seatID]
	if !ok || !t.active(l, now) {
		return "", false
	}
	return l.ClaimantID, true
}

// TryAcquire attempts to claim the seat for claimantID at the given time.
// An absent or expired lock is overwritten and the call reports Acquired.
// A live lock held by the same claimant has its timestamp refreshed and the
// call reports Renewed, so heartbeats keep a seat without generating new
// state transitions.  A live lock held by anyone else reports Conflict and
// leaves the table untouched.
func (t *Table) TryAcquire(eventID, seatID, claimantID string, now time.Time) Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()

	seats := t.locks[eventID]
	if seats == nil {
		seats = make(map[string]SeatLock)
		t.locks[eventID] = seats
	}
	cur, ok := seats[seatID]
	if ok && t.active(cur, now) {
		if cur.ClaimantID == claimantID {
			seats[seatID] = SeatLock{ClaimantID: claimantID, AcquiredAt: now}
			return Renewed
		}
		return Conflict
	}
	seats[seatID] = SeatLock{ClaimantID: claimantID, AcquiredAt: now}
	return Acquired
}

// Release removes the seat's lock and reports whether a removal happened.
// Removal occurs when the claimant matches the holder, when the lock has
// already expired (any caller may clear a stale entry), or when claimantID
// is empty, which is a privileged forced release.  A live lock held by a
// different claimant is left in place.
func (t *Table) Release(eventID, seatID, claimantID string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	seats := t.locks[eventID]
	cur, ok := seats[seatID]
	if !ok {
		return false
	}
	if claimantID != "" && cur.ClaimantID != claimantID && t.active(cur, now) {
		return false
	}
	delete(seats, seatID)
	if len(seats) == 0 {
		delete(t.locks, eventID)
	}
	return true
}

// EvictExpired removes every lock whose TTL has elapsed at the given time
// and returns the removed keys so the caller can notify subscribers.  Empty
// event buckets are dropped to keep the table from accumulating garbage.
func (t *Table) EvictExpired(now time.Time) []ExpiredLock {
	t.mu.Lock()
	defer t.mu.Unlock()

	var removed []ExpiredLock
	for eventID, seats := range t.locks {
		for seatID, l := range seats {
			if !t.active(l, now) {
				delete(seats, seatID)
				removed = append(removed, ExpiredLock{EventID: eventID, SeatID: seatID})
			}
		}
		if len(seats) == 0 {
			delete(t.locks, eventID)
		}
	}
	return removed
}
