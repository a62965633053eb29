package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/guestgate/event-checkin/internal/config"
	"github.com/guestgate/event-checkin/internal/database"
	"github.com/guestgate/event-checkin/internal/handler"
	"github.com/guestgate/event-checkin/internal/ledger"
	"github.com/guestgate/event-checkin/internal/middleware"
	"github.com/guestgate/event-checkin/internal/qrtoken"
	"github.com/guestgate/event-checkin/internal/queue"
	"github.com/guestgate/event-checkin/internal/repository"
	"github.com/guestgate/event-checkin/internal/router"
	"github.com/guestgate/event-checkin/internal/sweeper"
)

func main() {
	// .env is optional; in production everything comes from the real env.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	codec, err := qrtoken.NewCodec(cfg.QRSecret)
	if err != nil {
		log.Fatalf("qr codec: %v", err)
	}

	// Repositories share the single pool.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	events := repository.NewEventRepo(db)
	stats := repository.NewStatsRepo(db)
	tables := repository.NewTableRepo(db)
	allocations := repository.NewAllocationRepo(db)
	invitations := repository.NewInvitationRepo(db)
	terminals := repository.NewTerminalRepo(db)

	led := ledger.New(db, codec, events, stats, tables, allocations, invitations, terminals)

	// Redis is optional: with no client the limiter and cache become
	// pass-throughs and check-in keeps working.
	rdb := config.NewRedisClient()
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	e := echo.New()
	e.HideBanner = true

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterScan(e, handler.NewScanHandler(led), limiter)
	router.RegisterOrganizer(e,
		handler.NewEventHandler(events, led),
		handler.NewTableHandler(events, tables, allocations, led),
		handler.NewInvitationHandler(events, invitations, led),
		handler.NewTerminalHandler(events, terminals),
		cfg.JWTSecret, cache)

	// Background event lifecycle sweep: status advancement plus purge of
	// soft-deleted events past retention.
	sw := sweeper.New(events, cfg.SweepInterval, cfg.RetentionDays)
	go sw.Run(context.Background())

	// Audit trail consumer; reconnects on its own and never brings the
	// server down.
	go func() {
		if err := queue.StartScanConsumer(); err != nil {
			log.Printf("scan consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
