package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Navadeep1830/honeypot-api/internal/api/handlers"
	apimiddleware "github.com/Navadeep1830/honeypot-api/internal/api/middleware"
	"github.com/Navadeep1830/honeypot-api/internal/config"
	"github.com/Navadeep1830/honeypot-api/pkg/logger"
)

// Router holds dependencies for the API router
type Router struct {
	config    config.Config
	handlers  *handlers.Handlers
	rateStore apimiddleware.RateLimitStore
	logger    *logger.Logger
}

// NewRouter creates a new Router instance. rateStore may be nil, which
// disables rate limiting.
func NewRouter(cfg config.Config, h *handlers.Handlers, rateStore apimiddleware.RateLimitStore, log *logger.Logger) *Router {
	return &Router{
		config:    cfg,
		handlers:  h,
		rateStore: rateStore,
		logger:    log.WithComponent("router"),
	}
}

// Setup sets up the Chi router with all routes and middleware
func (r *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Core middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(apimiddleware.Logger(r.logger))
	router.Use(middleware.Recoverer)

	// CORS
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   r.config.CORS.AllowedOrigins,
		AllowedMethods:   r.config.CORS.AllowedMethods,
		AllowedHeaders:   r.config.CORS.AllowedHeaders,
		AllowCredentials: r.config.CORS.AllowCredentials,
		MaxAge:           r.config.CORS.MaxAge,
	}))

	// Public routes
	router.Group(func(pub chi.Router) {
		pub.Get("/", r.handlers.Health.Root)
		pub.Get("/health", r.handlers.Health.Check)
		pub.Get("/ready", r.handlers.Health.Ready)
	})

	// Authenticated routes
	router.Group(func(protected chi.Router) {
		protected.Use(apimiddleware.APIKeyAuth(r.config.Auth))
		if r.config.RateLimit.Enabled && r.rateStore != nil {
			protected.Use(apimiddleware.RateLimiter(r.rateStore, r.config.RateLimit, r.logger))
		}

		// Request-scoped routes get a deadline; the WebSocket feed is long lived
		protected.Group(func(timed chi.Router) {
			if r.config.Server.RequestTimeout > 0 {
				timed.Use(middleware.Timeout(r.config.Server.RequestTimeout))
			}

			timed.Post("/honeypot", r.handlers.Honeypot.Handle)
			timed.Get("/conversation/{id}", r.handlers.Honeypot.GetConversation)
			timed.Delete("/conversation/{id}", r.handlers.Honeypot.DeleteConversation)

			timed.Post("/api/v1/extract", r.handlers.Analysis.Extract)
			timed.Post("/api/v1/detect", r.handlers.Analysis.Detect)
			timed.Get("/api/v1/events/stats", r.handlers.Streaming.GetStats)
		})

		protected.Get("/api/v1/events/ws", r.handlers.Streaming.HandleWebSocket)
	})

	return router
}
