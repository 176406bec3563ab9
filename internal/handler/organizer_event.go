package handler // handler package contains organizer-facing event handlers

import (
    "net/http" // http defines status codes
    "strconv"  // strconv converts path params to integers
    "strings"  // strings helps with trimming whitespace
    "time"     // time is used for parsing and formatting timestamps

    "github.com/labstack/echo/v4" // echo provides the web context and JSON helpers

    "github.com/iliyamo/live-event-seating/internal/repository" // repository defines data models
)

// OrganizerHandler bundles repositories organizers need to manage events.
type OrganizerHandler struct {
	EventRepo *repository.EventRepo
}

// NewOrganizerHandler constructs an OrganizerHandler and panics if the
// repository is nil.
func NewOrganizerHandler(eventRepo *repository.EventRepo) *OrganizerHandler {
	if eventRepo == nil {
		panic("nil repository passed to NewOrganizerHandler")
	}
	return &OrganizerHandler{EventRepo: eventRepo}
}

type eventReq struct {
	Title     string `json:"title"`
	Venue     string `json:"venue"`
	StartsAt  string `json:"starts_at"`  // RFC3339
	EndsAt    string `json:"ends_at"`    // RFC3339
	SeatCount uint32 `json:"seat_count"`
}

// parseEventReq validates the shared create/update body.  It returns a
// human-readable problem string when the input is unusable.
func parseEventReq(c echo.Context) (repository.Event, string) {
	var body eventReq
	if err := c.Bind(&body); err != nil {
		return repository.Event{}, "invalid request body"
	}
	title := strings.TrimSpace(body.Title)
	if title == "" {
		return repository.Event{}, "title is required"
	}
	if body.SeatCount == 0 {
		return repository.Event{}, "seat_count must be positive"
	}
	startsAt, err := time.Parse(time.RFC3339, strings.TrimSpace(body.StartsAt))
	if err != nil {
		return repository.Event{}, "invalid starts_at format"
	}
	endsAt, err := time.Parse(time.RFC3339, strings.TrimSpace(body.EndsAt))
	if err != nil {
		return repository.Event{}, "invalid ends_at format"
	}
	if !endsAt.After(startsAt) {
		return repository.Event{}, "ends_at must be after starts_at"
	}
	return repository.Event{
		Title:     title,
		Venue:     strings.TrimSpace(body.Venue),
		StartsAt:  startsAt.UTC(),
		EndsAt:    endsAt.UTC(),
		SeatCount: body.SeatCount,
	}, ""
}

// CreateEvent handles POST /v1/events.
func (h *OrganizerHandler) CreateEvent(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ev, problem := parseEventReq(c)
	if problem != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": problem})
	}
	ev.OwnerID = ownerID
	if err := h.EventRepo.Create(c.Request().Context(), &ev); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create event"})
	}
	return c.JSON(http.StatusCreated, ev)
}

// UpdateEvent handles PUT /v1/events/:id.
func (h *OrganizerHandler) UpdateEvent(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ev, problem := parseEventReq(c)
	if problem != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": problem})
	}
	ev.ID = id
	switch err := h.EventRepo.Update(c.Request().Context(), &ev, ownerID); err {
	case nil:
	case repository.ErrEventNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	case repository.ErrForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update event"})
	}
	fresh, err := h.EventRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusOK, ev)
	}
	return c.JSON(http.StatusOK, fresh)
}

// DeleteEvent handles DELETE /v1/events/:id.  Events with bookings are
// protected and answer 409.
func (h *OrganizerHandler) DeleteEvent(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	switch err := h.EventRepo.Delete(c.Request().Context(), id, ownerID); err {
	case nil:
		return c.NoContent(http.StatusNoContent)
	case repository.ErrEventNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	case repository.ErrForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case repository.ErrConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": "event has bookings"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete event"})
	}
}

// ListMyEvents handles GET /v1/my/events and returns every event owned by
// the caller.
func (h *OrganizerHandler) ListMyEvents(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	events, err := h.EventRepo.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list events"})
	}
	if events == nil {
		events = []repository.Event{}
	}
	return c.JSON(http.StatusOK, events)
}
