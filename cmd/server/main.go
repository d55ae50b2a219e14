package main // Entry point package

import (
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/studio-booking/internal/booking"
    "github.com/iliyamo/studio-booking/internal/config"
    "github.com/iliyamo/studio-booking/internal/database"
    "github.com/iliyamo/studio-booking/internal/handler"
    "github.com/iliyamo/studio-booking/internal/middleware"
    "github.com/iliyamo/studio-booking/internal/queue"
    "github.com/iliyamo/studio-booking/internal/repository"
    "github.com/iliyamo/studio-booking/internal/router"
    queue_publisher "github.com/iliyamo/studio-booking/internal/service"
)

func main() {
    // Load .env when present; real deployments set the environment
    // directly and the file is absent.
    _ = godotenv.Load()

    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    // Redis backs rate limiting and the availability response cache.
    // A nil client disables both; the API itself keeps working.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Printf("redis unavailable; rate limiting and response cache disabled")
    }

    classRepo := repository.NewClassRepo(db)
    bookingRepo := repository.NewBookingRepo(db)
    waitlistRepo := repository.NewWaitlistRepo(db)
    creditRepo := repository.NewCreditRepo(db)

    engine := booking.NewEngine(classRepo, bookingRepo, waitlistRepo, creditRepo, queue_publisher.NewNotifier())

    e := echo.New()
    e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

    router.RegisterRoutes(e)
    router.RegisterPublic(e, handler.NewPublicHandler(engine),
        middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
    router.RegisterMember(e, handler.NewMemberHandler(engine), cfg.JWTSecret)
    router.RegisterStaff(e, handler.NewStaffHandler(engine), cfg.JWTSecret)

    // Drain outbound notifications in the background.  The consumer
    // reconnects forever on broker failures and never takes the API down.
    go func() {
        if err := queue.StartNotificationConsumer(); err != nil {
            log.Printf("notification consumer stopped: %v", err)
        }
    }()

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)

    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
