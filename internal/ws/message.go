// Package ws carries seat lock state changes between browsers and the lock
// engine over websockets.  Connections subscribe to event topics and every
// frame is a small JSON envelope of an event name plus payload.
package ws

import "encoding/json"

// Inbound event names sent by clients.
const (
	EventJoin       = "joinEvent"
	EventLockSeat   = "lockSeat"
	EventUnlockSeat = "unlockSeat"
)

// Outbound event names sent to clients.
const (
	EventLockedSeats    = "lockedSeats"
	EventSeatLocked     = "seatLocked"
	EventSeatLockFailed = "seatLockFailed"
	EventSeatUnlocked   = "seatUnlocked"
)

// Denial strings shown to clients on a failed lock attempt.
const (
	FailInvalid  = "Invalid lock request"
	FailConflict = "Seat already locked"
	FailInternal = "Server error"
)

// Envelope is the JSON frame exchanged over the websocket.  Data is left
// raw on the way in so each event can decode its own payload shape.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// joinPayload is the body of a joinEvent frame.
type joinPayload struct {
	EventID string `json:"eventId"`
}

// seatRequest is the body of lockSeat and unlockSeat frames.
type seatRequest struct {
	EventID   string `json:"eventId"`
	SeatIndex string `json:"seatIndex"`
	UserID    string `json:"userId"`
}

// seatLockedPayload announces a fresh claim to an event topic.
type seatLockedPayload struct {
	SeatIndex string `json:"seatIndex"`
	UserID    string `json:"userId"`
}

// seatLockFailedPayload is unicast to the requester on a denied claim.
type seatLockFailedPayload struct {
	SeatIndex string `json:"seatIndex"`
	Reason    string `json:"reason"`
}

// seatUnlockedPayload announces a released or expired seat.
type seatUnlockedPayload struct {
	SeatIndex string `json:"seatIndex"`
}

// encode marshals an outbound envelope.  Payloads are plain structs and
// maps, so a marshal error here indicates a programming mistake.
func encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
