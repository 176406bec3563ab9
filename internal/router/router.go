package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework used to handle routing

	"github.com/iliyamo/live-event-seating/internal/handler"    // handlers implementing the endpoints
	"github.com/iliyamo/live-event-seating/internal/middleware" // JWT authentication and role enforcement
	"github.com/iliyamo/live-event-seating/internal/ws"         // websocket endpoint for the seat lock channel
)

// RegisterRoutes registers routes that need no authentication or wiring.
// Currently that is only the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers authentication routes.  Unauthenticated operations
// live under /v1/auth; /v1/me is protected by the JWT middleware so clients
// can verify a token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("ORGANIZER", "CUSTOMER"))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers unauthenticated browse endpoints.  The optional
// cache middleware is applied to the event catalogue only; the seats
// endpoint reflects live lock state and must never serve stale data.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	if cache != nil {
		e.GET("/v1/events", p.ListEvents, cache)
		e.GET("/v1/events/:id", p.GetEvent, cache)
	} else {
		e.GET("/v1/events", p.ListEvents)
		e.GET("/v1/events/:id", p.GetEvent)
	}
	e.GET("/v1/events/:id/seats", p.GetEventSeats)
}

// RegisterOrganizer registers event management endpoints restricted to the
// ORGANIZER role.
func RegisterOrganizer(e *echo.Echo, o *handler.OrganizerHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ORGANIZER"))
	g.POST("/events", o.CreateEvent)
	g.PUT("/events/:id", o.UpdateEvent)
	g.DELETE("/events/:id", o.DeleteEvent)
	g.GET("/my/events", o.ListMyEvents)
}

// RegisterCustomer registers booking endpoints.  Organizers may also book
// seats at their own or others' events, so both roles are accepted.
func RegisterCustomer(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ORGANIZER", "CUSTOMER"))
	g.POST("/events/:id/book", b.BookSeats)
	g.GET("/my/bookings", b.ListMyBookings)
}

// RegisterRealtime registers the websocket endpoint carrying the seat lock
// protocol.  Token validation happens inside the handler because browsers
// cannot attach headers to websocket upgrades.
func RegisterRealtime(e *echo.Echo, h *ws.Handler) {
	e.GET("/v1/ws", h.Serve)
}
