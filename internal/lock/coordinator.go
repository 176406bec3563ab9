package lock

import (
	"log"
	"time"
)

// Notifier is the one-way broadcast capability used by the coordinator and
// the sweeper to tell everyone watching an event about a lock transition.
// Delivery is fire-and-forget with no acknowledgement; a dropped message is
// repaired by the next join snapshot or by TTL expiry on the client side.
// Keeping this as an interface leaves the engine free of any transport
// dependency, so it can be tested without a live connection layer.
type Notifier interface {
	SeatLocked(eventID, seatID, claimantID string)
	SeatUnlocked(eventID, seatID string)
}

// Denial reasons returned by LockSeat.  The transport layer maps these to
// the human-readable strings shown to clients.
const (
	ReasonInvalid  = "invalid-request"
	ReasonConflict = "already-locked"
	ReasonInternal = "internal-error"
)

// Result reports the outcome of a lock attempt.  Reason is set only when
// the attempt was denied.
type Result struct {
	Granted bool
	Reason  string
}

// Coordinator enforces the seat lock conflict policy on top of the table
// and drives notifications.  Every externally triggered operation contains
// its own faults: a panic anywhere inside is logged and converted into a
// denial or no-op so one bad request can never take down the table or the
// real-time channel serving other clients.
type Coordinator struct {
	table    *Table
	notifier Notifier
}

// NewCoordinator binds the coordinator to an explicit table and notifier.
func NewCoordinator(table *Table, notifier Notifier) *Coordinator {
	if table == nil || notifier == nil {
		panic("nil table or notifier passed to NewCoordinator")
	}
	return &Coordinator{table: table, notifier: notifier}
}

// Table exposes the underlying lock table for read-only collaborators such
// as the seat availability endpoint.
func (co *Coordinator) Table() *Table { return co.table }

// JoinEvent returns seatID -> claimantID for every lock of the event that
// is active right now.  It never fails outward: any internal fault is
// logged and degraded to an empty snapshot, because a join must not crash
// the connection that triggered it.
func (co *Coordinator) JoinEvent(eventID string) (snap map[string]string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("lock: joinEvent recovered event=%s: %v", eventID, r)
			snap = map[string]string{}
		}
	}()
	return co.table.SnapshotActive(eventID, time.Now().UTC())
}

// LockSeat attempts to claim or renew a seat for claimantID at the given
// time.  Missing identifiers are denied up front with no state change and
// no broadcast.  A fresh grant broadcasts seatLocked to the event topic; a
// renewal by the current holder is granted silently, so repeated heartbeats
// do not storm subscribers with redundant fan-out.  A live lock held by
// someone else yields a conflict denial.
func (co *Coordinator) LockSeat(eventID, seatID, claimantID string, now time.Time) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("lock: lockSeat recovered event=%s seat=%s: %v", eventID, seatID, r)
			res = Result{Reason: ReasonInternal}
		}
	}()
	if eventID == "" || seatID == "" || claimantID == "" {
		return Result{Reason: ReasonInvalid}
	}
	switch co.table.TryAcquire(eventID, seatID, claimantID, now) {
	case Acquired:
		co.notifier.SeatLocked(eventID, seatID, claimantID)
		return Result{Granted: true}
	case Renewed:
		return Result{Granted: true}
	default:
		return Result{Reason: ReasonConflict}
	}
}

// UnlockSeat releases a seat at the given time.  The lock is removed when
// the claimant is the holder, when the lock has already expired (subscribers
// may not yet know it expired, so the broadcast still goes out), or when
// claimantID is empty, meaning an administrative forced unlock.  A
// mismatched live claimant is a no-op; users cannot unlock someone else's
// active seat.  Faults are logged and swallowed.
func (co *Coordinator) UnlockSeat(eventID, seatID, claimantID string, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("lock: unlockSeat recovered event=%s seat=%s: %v", eventID, seatID, r)
		}
	}()
	if eventID == "" || seatID == "" {
		return
	}
	if co.table.Release(eventID, seatID, claimantID, now) {
		co.notifier.SeatUnlocked(eventID, seatID)
	}
}

// HoldsSeat reports whether claimantID currently holds an active lock on
// the seat.  The booking flow consults this before finalizing a purchase.
func (co *Coordinator) HoldsSeat(eventID, seatID, claimantID string, now time.Time) bool {
	holder, ok := co.table.Holder(eventID, seatID, now)
	return ok && holder == claimantID
}
