package handler

import (
    "context"  // context for bounding DB work
    "log"      // log records non-fatal publish failures
    "net/http" // HTTP status codes
    "strconv"  // parsing path parameters
    "time"     // timestamps for lock checks

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/live-event-seating/internal/lock"
    "github.com/iliyamo/live-event-seating/internal/queue"
    "github.com/iliyamo/live-event-seating/internal/repository"
    publisher "github.com/iliyamo/live-event-seating/internal/service"
)

// BookingHandler finalizes seat purchases.  A booking only succeeds for
// seats the caller currently holds live locks on, so the usual flow is:
// lock seats over the websocket, then confirm here before the TTL runs
// out.  The booking_seats unique key backstops the lock check against
// process restarts, during which all locks are lost.
type BookingHandler struct {
	EventRepo   *repository.EventRepo
	BookingRepo *repository.BookingRepo
	Coord       *lock.Coordinator
}

func NewBookingHandler(eventRepo *repository.EventRepo, bookingRepo *repository.BookingRepo, coord *lock.Coordinator) *BookingHandler {
	if eventRepo == nil || bookingRepo == nil || coord == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{EventRepo: eventRepo, BookingRepo: bookingRepo, Coord: coord}
}

// BookSeats handles POST /v1/events/:id/book.  The body carries the seat
// indexes to purchase; every one of them must be locked by the caller.
func (h *BookingHandler) BookSeats(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	var body struct {
		SeatIndexes []string `json:"seat_indexes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	// Deduplicate while preserving order; empty tokens are dropped.
	seen := make(map[string]struct{}, len(body.SeatIndexes))
	seats := make([]string, 0, len(body.SeatIndexes))
	for _, s := range body.SeatIndexes {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			seats = append(seats, s)
		}
	}
	if len(seats) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_indexes is required"})
	}

	ctx := c.Request().Context()
	ev, err := h.EventRepo.GetByID(ctx, eventID)
	if err != nil {
		if err == repository.ErrEventNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load event"})
	}

	// Every requested seat must be locked by the caller right now.  Seats
	// whose lock expired mid-checkout are reported so the client can
	// re-lock and retry.
	topic := eventTopicID(eventID)
	claimant := claimantID(userID)
	now := time.Now().UTC()
	var notHeld []string
	for _, s := range seats {
		if !h.Coord.HoldsSeat(topic, s, claimant, now) {
			notHeld = append(notHeld, s)
		}
	}
	if len(notHeld) > 0 {
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "seats not locked by you",
			"seats": notHeld,
		})
	}

	tx, err := h.BookingRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	bookingID, err := h.BookingRepo.CreateTx(ctx, tx, userID, eventID, seats)
	if err != nil {
		if err == repository.ErrSeatTaken {
			return c.JSON(http.StatusConflict, echo.Map{"error": "one or more seats already booked"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create booking"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not commit booking"})
	}
	committed = true

	// The seats are sold; release the checkout locks so every watcher sees
	// seatUnlocked and refreshes availability.
	for _, s := range seats {
		h.Coord.UnlockSeat(topic, s, claimant, time.Now().UTC())
	}

	// Publish the confirmation for downstream consumers.  Failures are
	// logged and ignored; the booking is already durable.
	confirmed := queue.BookingConfirmedEvent{
		BookingID:   bookingID,
		UserID:      userID,
		EventID:     eventID,
		EventTitle:  ev.Title,
		Venue:       ev.Venue,
		StartsAt:    ev.StartsAt.UTC().Format(time.RFC3339),
		SeatIndexes: seats,
		ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := publisher.PublishBookingConfirmed(context.Background(), confirmed); err != nil {
		log.Printf("booking: publish confirmation failed: %v", err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"booking_id": bookingID,
		"event_id":   eventID,
		"seats":      seats,
	})
}

// ListMyBookings handles GET /v1/my/bookings.
func (h *BookingHandler) ListMyBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookings, err := h.BookingRepo.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list bookings"})
	}
	if bookings == nil {
		bookings = []repository.Booking{}
	}
	return c.JSON(http.StatusOK, bookings)
}
