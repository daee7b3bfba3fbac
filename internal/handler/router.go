package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/prn-tf/kvitok/internal/metrics"
)

// Router assembles the HTTP API.
type Router struct {
	authHandler    *AuthHandler
	ticketHandler  *TicketHandler
	authMiddleware func(http.Handler) http.Handler
	metrics        *metrics.Metrics
	logger         zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	AuthHandler    *AuthHandler
	TicketHandler  *TicketHandler
	AuthMiddleware func(http.Handler) http.Handler
	Metrics        *metrics.Metrics
	Logger         zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(config RouterConfig) *Router {
	return &Router{
		authHandler:    config.AuthHandler,
		ticketHandler:  config.TicketHandler,
		authMiddleware: config.AuthMiddleware,
		metrics:        config.Metrics,
		logger:         config.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	if rt.metrics != nil {
		r.Use(rt.metrics.Middleware)
	}

	// Health check (no auth)
	r.Get("/health", rt.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		rt.authHandler.RegisterRoutes(r)
		rt.ticketHandler.RegisterPublicRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware)
			rt.ticketHandler.RegisterRoutes(r)
		})
	})

	return r
}

// handleHealth handles health check requests.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
