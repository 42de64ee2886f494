package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"gatherapp/config"
	_ "gatherapp/docs"
	"gatherapp/internal/adapters/auth"
	"gatherapp/internal/adapters/geocode"
	"gatherapp/internal/cache"
	httpdelivery "gatherapp/internal/delivery/http"
	"gatherapp/internal/delivery/http/controllers"
	"gatherapp/internal/delivery/http/middleware"
	"gatherapp/internal/repository/postgres"
	"gatherapp/internal/services"
)

const serviceTimeout = 10 * time.Second

// @title GatherApp API
// @version 1.0
// @description Event discovery API: auth via HttpOnly cookies, geotagged events, registrations, likes, and reviews.
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Environment)

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		logger.Error("ping database", "err", err)
		os.Exit(1)
	}

	// Redis is optional infrastructure. If it is down at boot the cache layer
	// runs disabled and listings go straight to Postgres.
	var store cache.Store
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, caching disabled", "addr", cfg.RedisAddr, "err", err)
	} else {
		store = cache.NewRedisStore(rdb)
	}
	listCache := cache.New(store, logger)

	userRepo := postgres.NewUserRepository(db)
	eventRepo := postgres.NewEventRepository(db)

	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)
	tokens := auth.NewTokenService(cfg.JWTAccessSecret, cfg.JWTRefreshSecret,
		config.AccessTokenExpiry, config.RefreshTokenExpiry)
	geocoder := geocode.NewGoogleGeocoder(&http.Client{Timeout: 10 * time.Second}, cfg.GeocodingAPIKey)

	authService := services.NewAuthService(userRepo, hasher, tokens)
	eventService := services.NewEventService(eventRepo, userRepo, geocoder, listCache, serviceTimeout)

	secure := cfg.IsProduction()
	authn := middleware.NewAuthenticator(tokens, authService, secure)
	mux := httpdelivery.NewRouter(
		controllers.NewAuthController(logger, authService, secure),
		controllers.NewEventController(logger, eventService),
		controllers.NewAttendeeController(logger, eventService),
		controllers.NewEngagementController(logger, eventService),
		authn,
	)

	handler := middleware.CORS([]string{cfg.FrontendURL},
		middleware.LoggingMiddleware(logger, mux))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("listening", "port", cfg.Port, "env", cfg.Environment)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
