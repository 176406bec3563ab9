package ws

import (
	"encoding/json"
	"testing"
)

// drain pops one frame from a client's outbound queue without blocking.
func drain(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case frame := <-c.send:
		var env Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			t.Fatalf("bad frame %s: %v", frame, err)
		}
		return env
	default:
		t.Fatal("no frame queued")
		return Envelope{}
	}
}

func TestJoinLeaveMembership(t *testing.T) {
	h := NewHub()
	a := newClient("conn-a", "alice", nil)
	b := newClient("conn-b", "bob", nil)

	h.Join(a, "e1")
	h.Join(a, "e1") // duplicate join is a no-op
	h.Join(a, "e2")
	h.Join(b, "e1")

	if got := h.Members("e1"); got != 2 {
		t.Fatalf("e1 members = %d, want 2", got)
	}
	if got := h.Members("e2"); got != 1 {
		t.Fatalf("e2 members = %d, want 1", got)
	}

	h.Leave(a, "e1")
	if got := h.Members("e1"); got != 1 {
		t.Fatalf("e1 members after leave = %d, want 1", got)
	}

	// Disconnect cleanup: every topic a joined is vacated, and emptied
	// topics are deleted outright.
	h.LeaveAll(a)
	if got := h.Members("e2"); got != 0 {
		t.Fatalf("e2 members after LeaveAll = %d, want 0", got)
	}
	if _, ok := h.topics["e2"]; ok {
		t.Fatal("empty topic e2 was not deleted")
	}
}

func TestBroadcastScopedToTopic(t *testing.T) {
	h := NewHub()
	a := newClient("conn-a", "alice", nil)
	b := newClient("conn-b", "bob", nil)
	h.Join(a, "e1")
	h.Join(b, "e2")

	h.SeatLocked("e1", "7", "alice")

	env := drain(t, a)
	if env.Event != EventSeatLocked {
		t.Fatalf("event = %q, want %q", env.Event, EventSeatLocked)
	}
	var p seatLockedPayload
	if err := json.Unmarshal(env.Data, &p); err != nil || p.SeatIndex != "7" || p.UserID != "alice" {
		t.Fatalf("payload = %+v (err %v)", p, err)
	}

	select {
	case frame := <-b.send:
		t.Fatalf("client in another topic received %s", frame)
	default:
	}
}

func TestSeatUnlockedFrame(t *testing.T) {
	h := NewHub()
	a := newClient("conn-a", "alice", nil)
	h.Join(a, "e1")

	h.SeatUnlocked("e1", "3")

	env := drain(t, a)
	if env.Event != EventSeatUnlocked {
		t.Fatalf("event = %q, want %q", env.Event, EventSeatUnlocked)
	}
	var p seatUnlockedPayload
	if err := json.Unmarshal(env.Data, &p); err != nil || p.SeatIndex != "3" {
		t.Fatalf("payload = %+v (err %v)", p, err)
	}
}

func TestSlowClientIsDropped(t *testing.T) {
	h := NewHub()
	a := newClient("conn-a", "alice", nil)
	h.Join(a, "e1")

	// Fill the outbound buffer; the next broadcast cannot be queued and the
	// client must be evicted instead of blocking the hub.
	for i := 0; i < sendBuffer; i++ {
		if !a.enqueue([]byte("{}")) {
			t.Fatalf("enqueue %d failed before buffer was full", i)
		}
	}
	h.SeatUnlocked("e1", "1")

	if got := h.Members("e1"); got != 0 {
		t.Fatalf("slow client still subscribed, members = %d", got)
	}
}
