package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/live-event-seating/internal/config"
	"github.com/iliyamo/live-event-seating/internal/database"
	"github.com/iliyamo/live-event-seating/internal/handler"
	"github.com/iliyamo/live-event-seating/internal/lock"
	"github.com/iliyamo/live-event-seating/internal/middleware"
	"github.com/iliyamo/live-event-seating/internal/queue"
	"github.com/iliyamo/live-event-seating/internal/repository"
	"github.com/iliyamo/live-event-seating/internal/router"
	"github.com/iliyamo/live-event-seating/internal/ws"
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	// Redis backs rate limiting and the public catalogue cache.  A nil
	// client disables both; the service still works without Redis.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable: rate limiting and response cache disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	events := repository.NewEventRepo(db)
	bookings := repository.NewBookingRepo(db)

	// The seat lock engine: one table, one coordinator, one sweeper.  The
	// websocket hub doubles as the lock notifier, fanning state changes out
	// to every connection watching an event.
	hub := ws.NewHub()
	table := lock.NewTable(cfg.LockTTL)
	coord := lock.NewCoordinator(table, hub)
	sweeper := lock.NewSweeper(table, hub, cfg.LockSweepInterval)
	sweeper.Start()
	defer sweeper.Stop()

	// Background consumer for booking confirmations.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking-consumer: %v", err)
		}
	}()

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewPublicHandler(events, bookings, coord), cacheMW)
	router.RegisterOrganizer(e, handler.NewOrganizerHandler(events), cfg.JWTSecret)
	router.RegisterCustomer(e, handler.NewBookingHandler(events, bookings, coord), cfg.JWTSecret)
	router.RegisterRealtime(e, ws.NewHandler(hub, coord, cfg.JWTSecret))

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, lock_ttl=%s, sweep=%s)", addr, cfg.Env, cfg.LockTTL, cfg.LockSweepInterval)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
