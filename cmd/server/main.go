package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/AnshRaj112/mindnest-backend/internal/config"
	"github.com/AnshRaj112/mindnest-backend/internal/database"
	"github.com/AnshRaj112/mindnest-backend/internal/handlers"
	"github.com/AnshRaj112/mindnest-backend/internal/logging"
	"github.com/AnshRaj112/mindnest-backend/internal/middleware"
	"github.com/AnshRaj112/mindnest-backend/internal/repository"
	"github.com/AnshRaj112/mindnest-backend/internal/routes"
	"github.com/AnshRaj112/mindnest-backend/internal/services"
)

func main() {
	// Registered first so every other deferred cleanup runs before the exit.
	exitCode := 0
	defer func() {
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	}()

	// Load env
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("info", "")
		bootLog.Fatal().Err(err).Msg("Invalid configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.Environment)
	if envErr != nil {
		log.Info().Msg("No .env file found")
	}

	if cfg.UsesDefaultSecret() {
		log.Warn().Msg("⚠️  WARNING: JWT_SECRET is the development default. Set a strong secret before deploying.")
		if cfg.IsProduction() {
			log.Fatal().Msg("Refusing to start in production with the default JWT_SECRET")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL
	log.Info().Msg("Connecting to PostgreSQL...")
	db, err := database.ConnectPostgres(ctx, cfg.PostgresURI, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate PostgreSQL schema")
	}
	log.Info().Msg("✅ PostgreSQL schema up to date")

	// Redis backs the profile cache and the shared rate limiter. Both are skipped without it.
	var redisClient *redis.Client
	if cfg.RedisURI != "" {
		log.Info().Msg("Connecting to Redis...")
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURI, log)
		if err != nil {
			log.Warn().Err(err).Msg("⚠️  WARNING: Redis unavailable. Profile cache and shared rate limiting disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	audit, closeAudit := newAuditLog(ctx, cfg, log)
	defer closeAudit()

	opts := services.AuthOptions{Audit: audit}
	if redisClient != nil {
		opts.Cache = services.NewCacheService(redisClient, services.DefaultCacheTTL)
	}

	if cfg.CloudinaryEnabled() {
		cld, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Warn().Err(err).Msg("⚠️  Failed to initialize Cloudinary. Avatar uploads will not be available")
		} else {
			opts.Avatars = cld
			log.Info().Msg("✅ Cloudinary service initialized")
		}
	} else {
		log.Warn().Msg("⚠️  Cloudinary credentials not found. Avatar uploads will not be available")
	}

	if cfg.GoogleClientID != "" {
		verifier, err := services.NewGoogleVerifier(ctx, cfg.GoogleClientID)
		if err != nil {
			log.Warn().Err(err).Msg("⚠️  Failed to initialize Google sign-in")
		} else {
			opts.Google = verifier
			log.Info().Msg("✅ Google sign-in enabled")
		}
	} else {
		log.Warn().Msg("⚠️  GOOGLE_CLIENT_ID not set. Google sign-in disabled")
	}

	tokens := services.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTExpiry)
	auth := services.NewAuthService(repository.NewPostgresUserRepository(db), tokens, opts, log)
	journal := services.NewJournalService(repository.NewPostgresEntryRepository(db), cfg.MaxPinnedEntries, audit, log)

	routerOpts := routes.Options{
		Log:            log,
		AllowedOrigins: cfg.AllowedOrigins,
		Production:     cfg.IsProduction(),
		AllowedHost:    cfg.AllowedHost,
		Metrics:        middleware.NewMetrics(),
	}
	if redisClient != nil {
		routerOpts.RateLimiter = middleware.NewRedisRateLimiter(redisClient,
			middleware.RateLimitMaxRequests, middleware.RateLimitWindow, middleware.BlockedIPDuration)
	}
	if cfg.IsProduction() {
		log.Info().Msg("✅ Production security enabled (security headers, host check, per-IP + login rate limiting)")
	}

	router := routes.NewRouter(ctx, routerOpts, routes.Handlers{
		Auth:    handlers.NewAuthHandler(auth),
		Journal: handlers.NewJournalHandler(journal),
		Tokens:  tokens,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if err := serve(ctx, srv, log); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		exitCode = 1
	}
}

// newAuditLog connects to MongoDB when MONGODB_URI is set. Without it, audit events are dropped.
// The returned func waits for pending writes and disconnects.
func newAuditLog(ctx context.Context, cfg *config.Config, log zerolog.Logger) (services.AuditLog, func()) {
	if cfg.MongoURI == "" {
		log.Warn().Msg("⚠️  MONGODB_URI not set. Audit log disabled")
		return services.NopAuditLog{}, func() {}
	}

	log.Info().Msg("Connecting to MongoDB...")
	client, mdb, err := database.ConnectMongo(ctx, cfg.MongoURI, log)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️  WARNING: MongoDB unavailable. Audit log disabled")
		return services.NopAuditLog{}, func() {}
	}

	audit := services.NewMongoAuditLog(mdb, log)
	if err := audit.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("⚠️  WARNING: failed to ensure MongoDB audit indexes")
	} else {
		log.Info().Msg("✅ MongoDB audit indexes ensured")
	}

	return audit, func() {
		audit.Wait()
		if err := database.DisconnectMongo(client); err != nil {
			log.Warn().Err(err).Msg("MongoDB disconnect failed")
		}
	}
}
