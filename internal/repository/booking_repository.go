package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Booking mirrors the `bookings` table plus its booking_seats rows.  A
// booking finalizes the purchase of one or more seats of an event; the
// in-memory seat locks that guarded checkout are released once the booking
// row is committed.
type Booking struct {
	ID        uint64    // bookings.id
	UserID    uint64    // bookings.user_id
	EventID   uint64    // bookings.event_id
	CreatedAt time.Time // bookings.created_at
	Seats     []string  // booking_seats.seat_index values
}

// ErrSeatTaken is returned when a seat index is already booked for the
// event.  The unique key on (event_id, seat_index) is the final authority;
// lock ownership is checked before this but cannot survive a process
// restart, so the constraint backstops it.
var ErrSeatTaken = errors.New("seat already booked")

// BookingRepo provides data access to bookings and booking_seats.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the provided database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying sql.DB for transaction control.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a booking and its seats within the provided transaction.
// The caller must commit or roll back.  Duplicate seats surface as
// ErrSeatTaken via the unique key on booking_seats (event_id, seat_index).
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, userID, eventID uint64, seats []string) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (user_id, event_id) VALUES (?, ?)`, userID, eventID)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	q := `INSERT INTO booking_seats (booking_id, event_id, seat_index) VALUES `
	args := make([]interface{}, 0, len(seats)*3)
	for i, seat := range seats {
		if i > 0 {
			q += ","
		}
		q += "(?, ?, ?)"
		args = append(args, id, eventID, seat)
	}
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		// 1062 is the MySQL duplicate-key error.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrSeatTaken
		}
		return 0, err
	}
	return uint64(id), nil
}

// BookedSeats returns every seat index already sold for an event.  Combined
// with the live lock snapshot this yields the full availability picture.
func (r *BookingRepo) BookedSeats(ctx context.Context, eventID uint64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seat_index FROM booking_seats WHERE event_id = ?`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// ListByUser returns the caller's bookings, newest first, each with its
// seat indexes attached.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, event_id, created_at FROM bookings WHERE user_id = ? ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var bookings []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.EventID, &b.CreatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range bookings {
		seatRows, err := r.db.QueryContext(ctx,
			`SELECT seat_index FROM booking_seats WHERE booking_id = ?`, bookings[i].ID)
		if err != nil {
			return nil, err
		}
		for seatRows.Next() {
			var s string
			if err := seatRows.Scan(&s); err != nil {
				seatRows.Close()
				return nil, err
			}
			bookings[i].Seats = append(bookings[i].Seats, s)
		}
		if err := seatRows.Close(); err != nil {
			return nil, err
		}
	}
	return bookings, nil
}
