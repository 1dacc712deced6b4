package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/AnshRaj112/clubhub-backend/internal/config"
	"github.com/AnshRaj112/clubhub-backend/internal/database"
	"github.com/AnshRaj112/clubhub-backend/internal/handlers"
	"github.com/AnshRaj112/clubhub-backend/internal/metrics"
	"github.com/AnshRaj112/clubhub-backend/internal/middleware"
	"github.com/AnshRaj112/clubhub-backend/internal/repository"
	"github.com/AnshRaj112/clubhub-backend/internal/repository/memory"
	"github.com/AnshRaj112/clubhub-backend/internal/routes"
	"github.com/AnshRaj112/clubhub-backend/internal/services"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
		log.SetLevel(log.DebugLevel)
	}

	opts := services.Options{
		JWTSecret:   cfg.JWTSecret,
		JWTTTL:      cfg.JWTTTL,
		MessageCost: cfg.MessageCostCoins,
		VIPPrice:    cfg.VIPPriceCoins,
		VIPDuration: cfg.VIPDuration,
		InviteBonus: cfg.InviteBonusCoins,
	}

	switch cfg.StoreBackend {
	case "memory":
		store := memory.New()
		opts.Store, opts.Users = store, store
		log.Warn("⚠️  Using in-memory store; data is lost on restart")

		// Redis is optional here: caches, rate limiting and realtime fan-out
		// degrade to local behaviour without it.
		if err := database.ConnectRedis(cfg.RedisURI); err != nil {
			log.WithError(err).Warn("⚠️  Redis unavailable; continuing without it")
		}
	default:
		log.Info("Connecting to PostgreSQL...")
		if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
			log.WithError(err).Fatal("Failed to connect to PostgreSQL")
		}
		defer database.DisconnectPostgres()

		log.Info("Connecting to Redis...")
		if err := database.ConnectRedis(cfg.RedisURI); err != nil {
			log.WithError(err).Fatal("Failed to connect to Redis")
		}

		log.Info("Connecting to MongoDB...")
		if err := database.Connect(cfg.MongoURI, cfg.MongoDatabase); err != nil {
			log.WithError(err).Fatal("Failed to connect to MongoDB (transactions need a replica set)")
		}
		defer database.Disconnect()

		mongoStore := repository.NewMongoStore(database.Client, database.DB)
		indexCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := mongoStore.EnsureIndexes(indexCtx); err != nil {
			log.WithError(err).Warn("⚠️  failed to ensure MongoDB indexes")
		} else {
			log.Info("✅ MongoDB indexes ensured")
		}
		cancel()

		opts.Store = mongoStore
		opts.Users = repository.NewPostgresUsers(database.PostgresDB)
	}
	defer database.DisconnectRedis()

	rdb := database.RedisClient
	opts.Redis = rdb

	// Initialize Cloudinary service
	if cfg.CloudinaryEnabled() {
		cld, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.WithError(err).Warn("⚠️  Failed to initialize Cloudinary; avatar uploads disabled")
		} else {
			opts.Files = cld
			log.Info("✅ Cloudinary service initialized")
		}
	} else {
		log.Warn("⚠️  Cloudinary credentials not found; avatar uploads disabled")
	}

	container := services.NewContainer(opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container.Hub.Start(ctx)

	loc, err := cfg.ResetLocation()
	if err != nil {
		log.WithError(err).Fatal("Invalid CLUB_RESET_TIMEZONE")
	}
	scheduler, err := container.Clubs.StartDailyReset(cfg.ClubResetSchedule, loc)
	if err != nil {
		log.WithError(err).Fatal("Invalid CLUB_RESET_SCHEDULE")
	}
	log.WithField("schedule", cfg.ClubResetSchedule).Info("✅ Club daily reset scheduled")

	limiter := middleware.NewRateLimiter(rdb)
	h := handlers.New(container, limiter)

	// Setup router
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger)
	r.Use(metrics.InstrumentHandler)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Production: SecurityHeaders → HostCheck → GlobalRateLimit → LoginRateLimit
	// Non-production: Redis-based rate limit only
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost) {
			r.Use(mw)
		}
		log.Info("✅ Production security enabled (security headers, host check, per-IP + login rate limiting)")
	} else {
		r.Use(limiter.Middleware)
	}

	routes.SetupRoutes(r, h, middleware.NewAuth(container.Tokens))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("🚀 ClubHub backend running on :%s (store: %s)", cfg.Port, cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")

	<-scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("❌ graceful shutdown failed")
	}
}
