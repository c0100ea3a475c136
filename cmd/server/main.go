package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/maxkh/rental-marketplace/internal/cache"
	"github.com/maxkh/rental-marketplace/internal/config"
	"github.com/maxkh/rental-marketplace/internal/database"
	"github.com/maxkh/rental-marketplace/internal/handler"
	"github.com/maxkh/rental-marketplace/internal/middleware"
	"github.com/maxkh/rental-marketplace/internal/queue"
	"github.com/maxkh/rental-marketplace/internal/repository"
	"github.com/maxkh/rental-marketplace/internal/router"
	"github.com/maxkh/rental-marketplace/internal/service"
)

func main() {
	// Load variables from a local .env file when present; real
	// deployments set them in the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: when unreachable the service runs without the
	// read cache or rate limiting and every search or detail request
	// hits MySQL.
	rdb := config.NewRedisClient()
	cacheCfg := config.LoadCacheConfig()
	var store *cache.Store
	if cacheCfg.Enabled {
		store = cache.New(rdb, cacheCfg.Prefix, cacheCfg.TTL)
	} else {
		store = cache.New(nil, cacheCfg.Prefix, cacheCfg.TTL)
	}

	listingRepo := repository.NewListingRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	reviewRepo := repository.NewReviewRepo(db)
	favoriteRepo := repository.NewFavoriteRepo(db)

	coordinator := service.NewCacheCoordinator(store)
	publisher := queue.NewPublisher()

	bookingSvc := service.NewBookingService(db, listingRepo, bookingRepo, coordinator, publisher)
	reviewSvc := service.NewReviewService(db, bookingRepo, reviewRepo, listingRepo, coordinator)
	favoriteSvc := service.NewFavoriteService(favoriteRepo, listingRepo)
	listingSvc := service.NewListingService(listingRepo, reviewRepo, store)

	bookingHandler := handler.NewBookingHandler(bookingSvc)
	reviewHandler := handler.NewReviewHandler(reviewSvc)
	favoriteHandler := handler.NewFavoriteHandler(favoriteSvc)
	listingHandler := handler.NewListingHandler(listingSvc)

	// Consume booking events in the background; the consumer keeps
	// retrying with backoff if the broker is down.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	limiter := middleware.BookingRateLimit(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterPublic(e, listingHandler, reviewHandler, bookingHandler)
	router.RegisterBookings(e, bookingHandler, cfg.JWTSecret, limiter)
	router.RegisterReviews(e, reviewHandler, cfg.JWTSecret)
	router.RegisterFavorites(e, favoriteHandler, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
