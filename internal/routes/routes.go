package routes

import (
	"context"
	"net/http"

	"github.com/AnshRaj112/mindnest-backend/internal/handlers"
	"github.com/AnshRaj112/mindnest-backend/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Options configures the router's middleware stack.
type Options struct {
	Log            zerolog.Logger
	AllowedOrigins []string

	// Production enables security headers, the host check and in-memory per-IP limits.
	Production  bool
	AllowedHost string

	// RateLimiter is used outside production when Redis is available.
	RateLimiter *middleware.RedisRateLimiter
	Metrics     *middleware.Metrics
}

// Handlers groups the API handlers and the token parser guarding the private routes.
type Handlers struct {
	Auth    *handlers.AuthHandler
	Journal *handlers.JournalHandler
	Tokens  middleware.TokenParser
}

// NewRouter builds the full HTTP handler. ctx bounds the background limiter cleanup.
func NewRouter(ctx context.Context, opts Options, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogging(opts.Log)...)
	r.Use(middleware.ClientIP)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Instrument)
	}
	r.Use(middleware.CORS(opts.AllowedOrigins))

	// Production: SecurityHeaders → HostCheck → GlobalRateLimit → LoginRateLimit
	// Otherwise: Redis-based rate limit when Redis is reachable
	if opts.Production {
		r.Use(middleware.ProductionSecurity(ctx, opts.AllowedHost)...)
	} else if opts.RateLimiter != nil {
		r.Use(opts.RateLimiter.Middleware)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	SetupRoutes(r, h)
	return r
}

// SetupRoutes registers the /api routes.
func SetupRoutes(r chi.Router, h Handlers) {
	requireAuth := middleware.RequireAuth(h.Tokens)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
		r.Post("/google", h.Auth.Google)
		r.Post("/logout", h.Auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/profile", h.Auth.GetProfile)
			r.Put("/profile", h.Auth.UpdateProfile)
			r.Post("/profile/avatar", h.Auth.UploadAvatar)
		})
	})

	r.Route("/api/journal", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", h.Journal.List)
		r.Post("/", h.Journal.Create)
		r.Get("/search", h.Journal.Search)
		r.Get("/search/title", h.Journal.SearchTitle)
		r.Get("/{id}", h.Journal.Get)
		r.Put("/{id}", h.Journal.Update)
		r.Delete("/{id}", h.Journal.Delete)
		r.Patch("/{id}/pin", h.Journal.TogglePin)
		r.Patch("/{id}/favorite", h.Journal.ToggleFavorite)
	})
}
