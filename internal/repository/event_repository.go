// Package repository contains data access logic for the event domain. This
// file defines the Event model and repository methods for events. An Event
// represents a ticketed happening (concert, screening, talk) with a fixed
// number of seats; seat locking during checkout is handled in memory by the
// lock engine, not by this repository.
package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"errors"       // errors for sentinel definitions
	"time"         // time for schedule fields
)

// Event mirrors the `events` table.  SeatCount fixes the seat identifier
// space: seats are addressed by opaque string indexes "0".."SeatCount-1".
type Event struct {
	ID        uint64    // events.id
	OwnerID   uint64    // events.owner_id, the organizer who created it
	Title     string    // events.title
	Venue     string    // events.venue
	StartsAt  time.Time // events.starts_at (UTC)
	EndsAt    time.Time // events.ends_at (UTC)
	SeatCount uint32    // events.seat_count
	CreatedAt time.Time // events.created_at
	UpdatedAt time.Time // events.updated_at
}

// ErrEventNotFound indicates that an event was not located in the DB.
var ErrEventNotFound = errors.New("event not found")

// EventRepo manages persistence for events.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the provided database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying sql.DB so callers can begin transactions
// spanning multiple repositories.
func (r *EventRepo) DB() *sql.DB { return r.db }

const eventColumns = `id, owner_id, title, venue, starts_at, ends_at, seat_count, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.OwnerID, &e.Title, &e.Venue, &e.StartsAt, &e.EndsAt, &e.SeatCount, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// Create inserts a new event and populates its generated ID.
func (r *EventRepo) Create(ctx context.Context, e *Event) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO events (owner_id, title, venue, starts_at, ends_at, seat_count) VALUES (?, ?, ?, ?, ?, ?)`,
		e.OwnerID, e.Title, e.Venue, e.StartsAt.UTC(), e.EndsAt.UTC(), e.SeatCount)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// GetByID fetches one event or ErrEventNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ? LIMIT 1`, id))
	if err == sql.ErrNoRows {
		return Event{}, ErrEventNotFound
	}
	return e, err
}

// ListUpcoming returns all events that have not yet ended, soonest first.
// Used by the public browse endpoints.
func (r *EventRepo) ListUpcoming(ctx context.Context, now time.Time) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE ends_at > ? ORDER BY starts_at ASC`, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListByOwner returns every event created by the given organizer.
func (r *EventRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE owner_id = ? ORDER BY starts_at ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Update rewrites the mutable fields of an event owned by ownerID.  Returns
// ErrEventNotFound when the event does not exist and ErrForbidden when it
// belongs to someone else.
func (r *EventRepo) Update(ctx context.Context, e *Event, ownerID uint64) error {
	cur, err := r.GetByID(ctx, e.ID)
	if err != nil {
		return err
	}
	if cur.OwnerID != ownerID {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE events SET title = ?, venue = ?, starts_at = ?, ends_at = ?, seat_count = ? WHERE id = ?`,
		e.Title, e.Venue, e.StartsAt.UTC(), e.EndsAt.UTC(), e.SeatCount, e.ID)
	return err
}

// Delete removes an event owned by ownerID.  Events with existing bookings
// are protected by ErrConflict so purchase history is never orphaned.
func (r *EventRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	cur, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if cur.OwnerID != ownerID {
		return ErrForbidden
	}
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE event_id = ?`, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	return err
}
