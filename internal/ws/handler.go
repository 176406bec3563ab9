package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/live-event-seating/internal/lock"
)

// Handler upgrades HTTP requests to websockets and bridges frames to the
// lock coordinator.  Every inbound frame is processed inside a recover so a
// malformed or malicious message can never take down the table or
// disconnect unrelated clients.
type Handler struct {
	hub       *Hub
	coord     *lock.Coordinator
	jwtSecret string
	upgrader  websocket.Upgrader
}

// NewHandler wires the websocket endpoint to a hub and coordinator.  The
// jwtSecret validates the access token presented at upgrade time.
func NewHandler(hub *Hub, coord *lock.Coordinator, jwtSecret string) *Handler {
	if hub == nil || coord == nil {
		panic("nil hub or coordinator passed to ws.NewHandler")
	}
	return &Handler{
		hub:       hub,
		coord:     coord,
		jwtSecret: jwtSecret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The browser client is served from another origin in dev.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Serve handles GET /v1/ws.  The caller authenticates with a JWT in the
// Authorization header or a ?token= query parameter (browsers cannot set
// headers on websocket upgrades).
func (h *Handler) Serve(c echo.Context) error {
	userID, err := h.authenticate(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		return nil
	}

	client := newClient(uuid.NewString(), userID, conn)
	go client.writePump()
	h.readLoop(client)
	return nil
}

// authenticate extracts and validates the JWT, returning the subject claim
// as the connection's user identity.
func (h *Handler) authenticate(c echo.Context) (string, error) {
	raw := c.QueryParam("token")
	if raw == "" {
		if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			raw = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	if raw == "" {
		return "", echo.ErrUnauthorized
	}
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(h.jwtSecret), nil
	})
	if err != nil || !tok.Valid {
		return "", echo.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", echo.ErrUnauthorized
	}
	switch sub := claims["sub"].(type) {
	case string:
		if sub != "" {
			return sub, nil
		}
	case float64:
		return strconv.FormatUint(uint64(sub), 10), nil
	}
	return "", echo.ErrUnauthorized
}

// readLoop consumes frames until the connection dies, then cleans up the
// client's subscriptions so empty topics do not linger.
func (h *Handler) readLoop(client *Client) {
	defer func() {
		h.hub.LeaveAll(client)
		client.close()
	}()

	client.conn.SetReadLimit(4096)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws: read error client=%s: %v", client.id, err)
			}
			return
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			log.Printf("ws: malformed frame from client=%s: %v", client.id, err)
			continue
		}
		h.dispatch(client, env)
	}
}

// dispatch routes one inbound envelope.  Unknown events are ignored; panics
// are logged and swallowed so the connection loop keeps serving.
func (h *Handler) dispatch(client *Client, env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ws: dispatch recovered client=%s event=%s: %v", client.id, env.Event, r)
		}
	}()
	switch env.Event {
	case EventJoin:
		h.handleJoin(client, env.Data)
	case EventLockSeat:
		h.handleLockSeat(client, env.Data)
	case EventUnlockSeat:
		h.handleUnlockSeat(client, env.Data)
	default:
		log.Printf("ws: unknown event %q from client=%s", env.Event, client.id)
	}
}

// handleJoin subscribes the connection to the event topic and replies with
// a snapshot of the currently locked seats.
func (h *Handler) handleJoin(client *Client, data json.RawMessage) {
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil || p.EventID == "" {
		// A join for no event in particular has nothing to subscribe to.
		return
	}
	h.hub.Join(client, p.EventID)
	snap := h.coord.JoinEvent(p.EventID)
	frame, err := encode(EventLockedSeats, snap)
	if err != nil {
		log.Printf("ws: encode lockedSeats: %v", err)
		return
	}
	client.enqueue(frame)
}

// handleLockSeat runs a claim attempt and unicasts the denial back to the
// requester when it fails; grants are announced by the coordinator's
// broadcast.
func (h *Handler) handleLockSeat(client *Client, data json.RawMessage) {
	var p seatRequest
	if err := json.Unmarshal(data, &p); err != nil {
		h.failLock(client, p.SeatIndex, FailInvalid)
		return
	}
	res := h.coord.LockSeat(p.EventID, p.SeatIndex, h.claimant(client, p), time.Now().UTC())
	if !res.Granted {
		h.failLock(client, p.SeatIndex, failureReason(res.Reason))
	}
}

// handleUnlockSeat runs a release attempt.  Per policy the coordinator
// already treats every unauthorized case as a silent no-op.
func (h *Handler) handleUnlockSeat(client *Client, data json.RawMessage) {
	var p seatRequest
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	h.coord.UnlockSeat(p.EventID, p.SeatIndex, h.claimant(client, p), time.Now().UTC())
}

// claimant resolves the identity a seat request acts as.  The payload's
// userId is accepted when present (the browser echoes its own ID), falling
// back to the authenticated connection identity.
func (h *Handler) claimant(client *Client, p seatRequest) string {
	if p.UserID != "" {
		return p.UserID
	}
	return client.userID
}

// failLock unicasts a seatLockFailed frame to the requester only.
func (h *Handler) failLock(client *Client, seatIndex, reason string) {
	frame, err := encode(EventSeatLockFailed, seatLockFailedPayload{SeatIndex: seatIndex, Reason: reason})
	if err != nil {
		log.Printf("ws: encode seatLockFailed: %v", err)
		return
	}
	client.enqueue(frame)
}

// failureReason maps coordinator denial codes onto the strings the client
// protocol expects.
func failureReason(reason string) string {
	switch reason {
	case lock.ReasonInvalid:
		return FailInvalid
	case lock.ReasonConflict:
		return FailConflict
	default:
		return FailInternal
	}
}
