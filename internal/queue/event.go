// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when a seat purchase is successfully
// committed.  It contains enough information for downstream consumers to
// log, notify, or trigger analytics without querying the primary database.
type BookingConfirmedEvent struct {
    BookingID   uint64   `json:"booking_id"`
    UserID      uint64   `json:"user_id"`
    EventID     uint64   `json:"event_id"`
    EventTitle  string   `json:"event_title"`
    Venue       string   `json:"venue"`
    StartsAt    string   `json:"starts_at"`
    SeatIndexes []string `json:"seats"`
    ConfirmedAt string   `json:"confirmed_at"`
}
