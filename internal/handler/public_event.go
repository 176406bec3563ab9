package handler

// Public browse endpoints.  These require no authentication so guests can
// inspect events and live seat availability before logging in to lock
// seats.  Seat status combines two sources: sold seats from the bookings
// table and currently held seats from the in-memory lock engine.

import (
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/live-event-seating/internal/lock"
    "github.com/iliyamo/live-event-seating/internal/repository"
)

// Seat status values reported by GET /v1/events/:id/seats.
const (
	seatFree   = "FREE"
	seatLocked = "LOCKED"
	seatBooked = "BOOKED"
)

// PublicHandler serves unauthenticated browse endpoints.
type PublicHandler struct {
	EventRepo   *repository.EventRepo
	BookingRepo *repository.BookingRepo
	Coord       *lock.Coordinator
}

func NewPublicHandler(eventRepo *repository.EventRepo, bookingRepo *repository.BookingRepo, coord *lock.Coordinator) *PublicHandler {
	if eventRepo == nil || bookingRepo == nil || coord == nil {
		panic("nil dependency passed to NewPublicHandler")
	}
	return &PublicHandler{EventRepo: eventRepo, BookingRepo: bookingRepo, Coord: coord}
}

// ListEvents handles GET /v1/events and returns upcoming events.
func (h *PublicHandler) ListEvents(c echo.Context) error {
	events, err := h.EventRepo.ListUpcoming(c.Request().Context(), time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list events"})
	}
	if events == nil {
		events = []repository.Event{}
	}
	return c.JSON(http.StatusOK, events)
}

// GetEvent handles GET /v1/events/:id.
func (h *PublicHandler) GetEvent(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ev, err := h.EventRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrEventNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load event"})
	}
	return c.JSON(http.StatusOK, ev)
}

// seatView is one row of the availability listing.  LockedBy is only set
// for LOCKED seats so held claims stay attributable in the seat map UI.
type seatView struct {
	SeatIndex string `json:"seat_index"`
	Status    string `json:"status"`
	LockedBy  string `json:"locked_by,omitempty"`
}

// GetEventSeats handles GET /v1/events/:id/seats.  It renders the full
// seat grid with FREE/LOCKED/BOOKED statuses.  The lock snapshot applies
// the TTL rule, so seats whose locks expired but have not been swept yet
// already show as FREE here.
func (h *PublicHandler) GetEventSeats(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ev, err := h.EventRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrEventNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load event"})
	}
	booked, err := h.BookingRepo.BookedSeats(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load bookings"})
	}
	bookedSet := make(map[string]struct{}, len(booked))
	for _, s := range booked {
		bookedSet[s] = struct{}{}
	}
	held := h.Coord.Table().SnapshotActive(eventTopicID(id), time.Now().UTC())

	seats := make([]seatView, 0, ev.SeatCount)
	for i := uint32(0); i < ev.SeatCount; i++ {
		idx := strconv.FormatUint(uint64(i), 10)
		v := seatView{SeatIndex: idx, Status: seatFree}
		if _, ok := bookedSet[idx]; ok {
			v.Status = seatBooked
		} else if claimant, ok := held[idx]; ok {
			v.Status = seatLocked
			v.LockedBy = claimant
		}
		seats = append(seats, v)
	}
	return c.JSON(http.StatusOK, echo.Map{"event_id": id, "seats": seats})
}
