package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/iliyamo/live-event-seating/internal/lock"
)

func newTestHandler() (*Handler, *Hub, *lock.Coordinator) {
	hub := NewHub()
	coord := lock.NewCoordinator(lock.NewTable(5*time.Minute), hub)
	return NewHandler(hub, coord, "test-secret"), hub, coord
}

func frame(t *testing.T, event string, payload any) Envelope {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return Envelope{Event: event, Data: raw}
}

func TestJoinRepliesWithSnapshot(t *testing.T) {
	h, hub, coord := newTestHandler()
	coord.LockSeat("e1", "5", "alice", time.Now().UTC())

	c := newClient("conn-b", "bob", nil)
	h.dispatch(c, frame(t, EventJoin, joinPayload{EventID: "e1"}))

	if got := hub.Members("e1"); got != 1 {
		t.Fatalf("join did not subscribe, members = %d", got)
	}
	env := drain(t, c)
	if env.Event != EventLockedSeats {
		t.Fatalf("reply event = %q, want %q", env.Event, EventLockedSeats)
	}
	var snap map[string]string
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatal(err)
	}
	if snap["5"] != "alice" {
		t.Fatalf("snapshot = %v, want seat 5 held by alice", snap)
	}
}

func TestJoinWithoutEventIDIsIgnored(t *testing.T) {
	h, hub, _ := newTestHandler()
	c := newClient("conn-a", "alice", nil)

	h.dispatch(c, frame(t, EventJoin, joinPayload{}))

	if got := hub.Members(""); got != 0 {
		t.Fatalf("empty-topic membership = %d", got)
	}
	select {
	case f := <-c.send:
		t.Fatalf("unexpected reply %s", f)
	default:
	}
}

func TestLockSeatDenialIsUnicast(t *testing.T) {
	h, hub, coord := newTestHandler()
	coord.LockSeat("e1", "3", "alice", time.Now().UTC())

	bob := newClient("conn-b", "bob", nil)
	other := newClient("conn-o", "carol", nil)
	hub.Join(bob, "e1")
	hub.Join(other, "e1")
	h.dispatch(bob, frame(t, EventLockSeat, seatRequest{EventID: "e1", SeatIndex: "3", UserID: "bob"}))

	env := drain(t, bob)
	if env.Event != EventSeatLockFailed {
		t.Fatalf("event = %q, want %q", env.Event, EventSeatLockFailed)
	}
	var p seatLockFailedPayload
	if err := json.Unmarshal(env.Data, &p); err != nil || p.Reason != FailConflict || p.SeatIndex != "3" {
		t.Fatalf("payload = %+v (err %v)", p, err)
	}

	// Denials never reach other subscribers.
	select {
	case f := <-other.send:
		t.Fatalf("denial broadcast to bystander: %s", f)
	default:
	}
}

func TestLockSeatGrantBroadcastsToTopic(t *testing.T) {
	h, hub, _ := newTestHandler()
	alice := newClient("conn-a", "alice", nil)
	bob := newClient("conn-b", "bob", nil)
	hub.Join(alice, "e1")
	hub.Join(bob, "e1")

	// No userId in the payload: the authenticated identity is used.
	h.dispatch(alice, frame(t, EventLockSeat, seatRequest{EventID: "e1", SeatIndex: "9"}))

	for _, c := range []*Client{alice, bob} {
		env := drain(t, c)
		if env.Event != EventSeatLocked {
			t.Fatalf("event = %q, want %q", env.Event, EventSeatLocked)
		}
		var p seatLockedPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.UserID != "alice" || p.SeatIndex != "9" {
			t.Fatalf("payload = %+v (err %v)", p, err)
		}
	}
}

func TestLockSeatMissingFieldsFails(t *testing.T) {
	h, _, _ := newTestHandler()
	c := newClient("conn-a", "alice", nil)

	h.dispatch(c, frame(t, EventLockSeat, seatRequest{EventID: "", SeatIndex: "2", UserID: "alice"}))

	env := drain(t, c)
	var p seatLockFailedPayload
	if err := json.Unmarshal(env.Data, &p); err != nil || p.Reason != FailInvalid {
		t.Fatalf("payload = %+v (err %v), want %q", p, err, FailInvalid)
	}
}

func TestUnlockSeatViaDispatch(t *testing.T) {
	h, hub, coord := newTestHandler()
	now := time.Now().UTC()
	coord.LockSeat("e1", "4", "alice", now)

	watcher := newClient("conn-w", "carol", nil)
	hub.Join(watcher, "e1")

	alice := newClient("conn-a", "alice", nil)
	h.dispatch(alice, frame(t, EventUnlockSeat, seatRequest{EventID: "e1", SeatIndex: "4", UserID: "alice"}))

	env := drain(t, watcher)
	if env.Event != EventSeatUnlocked {
		t.Fatalf("event = %q, want %q", env.Event, EventSeatUnlocked)
	}
	if coord.HoldsSeat("e1", "4", "alice", now) {
		t.Fatal("seat still held after unlock")
	}
}

func TestDispatchIgnoresUnknownAndMalformed(t *testing.T) {
	h, _, _ := newTestHandler()
	c := newClient("conn-a", "alice", nil)

	h.dispatch(c, Envelope{Event: "definitely-not-a-thing"})
	h.dispatch(c, Envelope{Event: EventUnlockSeat, Data: json.RawMessage(`{"eventId":42}`)})

	select {
	case f := <-c.send:
		t.Fatalf("unexpected frame %s", f)
	default:
	}
}

func TestFailureReasonMapping(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{lock.ReasonInvalid, FailInvalid},
		{lock.ReasonConflict, FailConflict},
		{lock.ReasonInternal, FailInternal},
		{"anything-else", FailInternal},
	}
	for _, tc := range tests {
		if got := failureReason(tc.in); got != tc.want {
			t.Errorf("failureReason(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
