package ws

import (
	"log"
	"sync"
)

// Hub tracks which connections are subscribed to which event topic and fans
// broadcasts out to them.  It carries no lock semantics of its own; the
// lock engine drives it through the Notifier methods below.  Topics are
// created implicitly on first join and deleted when the last member leaves.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Client]struct{}
	joined map[*Client]map[string]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]map[*Client]struct{}),
		joined: make(map[*Client]map[string]struct{}),
	}
}

// Join subscribes the client to an event topic.  Joining twice is a no-op;
// a client may be in any number of topics at once.
func (h *Hub) Join(c *Client, eventID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.topics[eventID]
	if members == nil {
		members = make(map[*Client]struct{})
		h.topics[eventID] = members
	}
	members[c] = struct{}{}

	topics := h.joined[c]
	if topics == nil {
		topics = make(map[string]struct{})
		h.joined[c] = topics
	}
	topics[eventID] = struct{}{}
}

// Leave removes the client from one topic, dropping the topic entirely when
// it empties out.
func (h *Hub) Leave(c *Client, eventID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, eventID)
}

func (h *Hub) leaveLocked(c *Client, eventID string) {
	if members, ok := h.topics[eventID]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.topics, eventID)
		}
	}
	if topics, ok := h.joined[c]; ok {
		delete(topics, eventID)
		if len(topics) == 0 {
			delete(h.joined, c)
		}
	}
}

// LeaveAll removes the client from every topic it joined.  Called on
// disconnect.
func (h *Hub) LeaveAll(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for eventID := range h.joined[c] {
		h.leaveLocked(c, eventID)
	}
	delete(h.joined, c)
}

// Members reports how many clients are currently subscribed to a topic.
func (h *Hub) Members(eventID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[eventID])
}

// Broadcast delivers a prebuilt frame to every member of the topic.
// Delivery is best-effort: a member whose outbound buffer is full is
// dropped rather than letting one slow reader stall the whole topic.
func (h *Hub) Broadcast(eventID string, frame []byte) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.topics[eventID]))
	for c := range h.topics[eventID] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		if !c.enqueue(frame) {
			log.Printf("ws: dropping slow client %s from topic %s", c.id, eventID)
			h.LeaveAll(c)
			c.close()
		}
	}
}

// SeatLocked implements lock.Notifier by broadcasting a seatLocked frame to
// the event topic.
func (h *Hub) SeatLocked(eventID, seatID, claimantID string) {
	frame, err := encode(EventSeatLocked, seatLockedPayload{SeatIndex: seatID, UserID: claimantID})
	if err != nil {
		log.Printf("ws: encode seatLocked: %v", err)
		return
	}
	h.Broadcast(eventID, frame)
}

// SeatUnlocked implements lock.Notifier by broadcasting a seatUnlocked
// frame to the event topic.  Used for explicit releases and sweeper expiry
// alike.
func (h *Hub) SeatUnlocked(eventID, seatID string) {
	frame, err := encode(EventSeatUnlocked, seatUnlockedPayload{SeatIndex: seatID})
	if err != nil {
		log.Printf("ws: encode seatUnlocked: %v", err)
		return
	}
	h.Broadcast(eventID, frame)
}
